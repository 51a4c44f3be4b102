package keychain

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/scrypt"
)

// scrypt parameters tuned for interactive unlock.
const (
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	keyLen       = 32
	saltLen      = 16
	filePermMode = 0o600
	dirPermMode  = 0o700
)

// envelope is the on-disk format: every field is base64, the key is derived
// from the passphrase with scrypt and the salt, and the secret is sealed with
// AES-256-GCM.
type envelope struct {
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	CipherText string `json:"cipherText"`
}

// FileStore persists secrets as passphrase-encrypted files in a directory.
// Fallback for hosts without a usable system keychain, such as headless
// Linux.
type FileStore struct {
	dir        string
	passphrase []byte
}

// NewFileStore returns a store writing under dir. The passphrase is copied;
// the caller may zero its slice afterwards.
func NewFileStore(dir string, passphrase []byte) *FileStore {
	p := make([]byte, len(passphrase))
	copy(p, passphrase)
	return &FileStore{dir: dir, passphrase: p}
}

func (s *FileStore) path(service, account string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s-%s.cred", service, account))
}

func (s *FileStore) Set(service, account string, secret []byte) error {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	gcm, err := s.sealer(salt)
	if err != nil {
		return err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := gcm.Seal(nil, nonce, secret, nil)

	data, err := json.Marshal(envelope{
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		CipherText: base64.StdEncoding.EncodeToString(sealed),
	})
	if err != nil {
		return fmt.Errorf("failed to encode credential file: %w", err)
	}

	if err := os.MkdirAll(s.dir, dirPermMode); err != nil {
		return fmt.Errorf("failed to create credential dir: %w", err)
	}
	if err := os.WriteFile(s.path(service, account), data, filePermMode); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	return nil
}

func (s *FileStore) Get(service, account string) ([]byte, error) {
	data, err := os.ReadFile(s.path(service, account))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read credential file: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	salt, err := base64.StdEncoding.DecodeString(env.Salt)
	if err != nil {
		return nil, fmt.Errorf("%w: bad salt encoding", ErrMalformedRecord)
	}
	nonce, err := base64.StdEncoding.DecodeString(env.Nonce)
	if err != nil {
		return nil, fmt.Errorf("%w: bad nonce encoding", ErrMalformedRecord)
	}
	sealed, err := base64.StdEncoding.DecodeString(env.CipherText)
	if err != nil {
		return nil, fmt.Errorf("%w: bad ciphertext encoding", ErrMalformedRecord)
	}

	gcm, err := s.sealer(salt)
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, fmt.Errorf("%w: bad nonce length", ErrMalformedRecord)
	}
	secret, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		// GCM authentication failure: wrong passphrase or tampered file.
		return nil, fmt.Errorf("%w: decryption failed", ErrAccessDenied)
	}
	return secret, nil
}

func (s *FileStore) Delete(service, account string) error {
	err := os.Remove(s.path(service, account))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete credential file: %w", err)
	}
	return nil
}

func (s *FileStore) sealer(salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(s.passphrase, salt, scryptN, scryptR, scryptP, keyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive file key: %w", err)
	}
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to init GCM: %w", err)
	}
	return gcm, nil
}
