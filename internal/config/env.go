package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

// Config contains all configuration parameters for the wallet subsystem.
// Note: the file-store passphrase is prompted at runtime and stored in
// memory - use GetPassphraseBytes()
type Config struct {
	// Chain endpoints. Endpoint templates may contain {channel} and
	// {contract} placeholders, substituted with the configured names.
	OperationsBaseURL string `envconfig:"OPERATIONS_BASE_URL" default:"http://localhost:3000"`
	IdentityBaseURL   string `envconfig:"IDENTITY_BASE_URL" default:"http://localhost:4000"`
	BalanceEndpoint   string `envconfig:"BALANCE_ENDPOINT" default:"/api/{channel}/{contract}/FetchBalances"`
	PublicKeyEndpoint string `envconfig:"PUBLIC_KEY_ENDPOINT" default:"/api/{channel}/{contract}/GetPublicKey"`
	RegisterEndpoint  string `envconfig:"REGISTER_ENDPOINT" default:"/api/identities/register"`
	Channel           string `envconfig:"CHANNEL" default:"product"`
	TokenContract     string `envconfig:"TOKEN_CONTRACT" default:"GalaChainToken"`
	PublicKeyContract string `envconfig:"PUBLIC_KEY_CONTRACT" default:"PublicKeyContract"`

	// Token class queried by balance fetches.
	TokenCollection    string `envconfig:"TOKEN_COLLECTION" default:"GALA"`
	TokenCategory      string `envconfig:"TOKEN_CATEGORY" default:"Unit"`
	TokenType          string `envconfig:"TOKEN_TYPE" default:"none"`
	TokenAdditionalKey string `envconfig:"TOKEN_ADDITIONAL_KEY" default:"none"`
	TokenInstance      string `envconfig:"TOKEN_INSTANCE" default:"0"`

	// Credential storage. Backend "system" uses the OS keychain; "file"
	// uses passphrase-encrypted files under CredentialDir.
	KeychainService   string `envconfig:"KEYCHAIN_SERVICE" default:"galachain-wallet"`
	KeychainAccount   string `envconfig:"KEYCHAIN_ACCOUNT" default:"default"`
	CredentialBackend string `envconfig:"CREDENTIAL_BACKEND" default:"system"`
	CredentialDir     string `envconfig:"CREDENTIAL_DIR" default:".galawallet"`

	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from environment variables.
func Init() error {
	cfg = &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("failed to process config: %w", err)
	}
	return nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

var passphraseBytes []byte

// PromptForPassphrase prompts the user for the file-store passphrase in the
// terminal. The passphrase is read without echoing (hidden input) and stored
// in memory. Call this at startup when the file credential backend is in use.
func PromptForPassphrase() error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("stdin is not a terminal: run the app interactively to enter passphrase")
	}
	fmt.Fprint(os.Stderr, "Enter wallet passphrase: ")
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("failed to read passphrase: %w", err)
	}
	if len(raw) == 0 {
		return errors.New("passphrase cannot be empty")
	}

	passphraseBytes = make([]byte, len(raw))
	copy(passphraseBytes, raw)
	clear(raw)
	return nil
}

// GetPassphraseBytes returns the passphrase stored in memory (from
// PromptForPassphrase). Returns an error if the passphrase was not set.
// Caller must zero the returned slice after use for security.
func GetPassphraseBytes() ([]byte, error) {
	if len(passphraseBytes) == 0 {
		return nil, errors.New("passphrase not set: call PromptForPassphrase at startup")
	}
	out := make([]byte, len(passphraseBytes))
	copy(out, passphraseBytes)
	return out, nil
}
