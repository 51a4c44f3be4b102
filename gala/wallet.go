package gala

import (
	"fmt"

	"github.com/galadesk/wallet/internal/crypto"
	"github.com/galadesk/wallet/internal/model"
)

// Generate creates a fresh wallet: new recovery phrase, derived identity,
// credential persisted. Fails if the identity cannot be persisted; nothing
// is kept in memory in that case.
func (s *Session) Generate() error {
	mnemonic, err := crypto.GenerateMnemonic()
	if err != nil {
		return err
	}
	identity, err := crypto.Derive(mnemonic)
	if err != nil {
		return fmt.Errorf("failed to derive wallet: %w", err)
	}
	if err := s.creds.Store(mnemonic); err != nil {
		identity.Wipe()
		return err
	}
	s.adopt(identity)
	return nil
}

// Import validates a typed recovery phrase, derives its identity and
// persists it, replacing any existing wallet.
func (s *Session) Import(phrase string) error {
	mnemonic, err := crypto.ParseMnemonic(phrase)
	if err != nil {
		return err
	}
	identity, err := crypto.Derive(mnemonic)
	if err != nil {
		return fmt.Errorf("failed to derive wallet: %w", err)
	}
	if err := s.creds.Store(mnemonic); err != nil {
		identity.Wipe()
		return err
	}
	s.adopt(identity)
	return nil
}

// Load restores the wallet from the stored credential. Returns
// keychain.ErrNotFound when no wallet exists yet.
func (s *Session) Load() error {
	record, err := s.creds.Load()
	if err != nil {
		return err
	}
	identity, err := crypto.Derive(record.Mnemonic)
	if err != nil {
		return fmt.Errorf("failed to derive stored wallet: %w", err)
	}
	s.adopt(identity)
	return nil
}

// Open loads the stored wallet or generates one if none exists. Returns
// whether a new wallet was created.
func (s *Session) Open() (created bool, err error) {
	if s.creds.Exists() {
		return false, s.Load()
	}
	return true, s.Generate()
}

// HasIdentity reports whether a wallet is loaded in this session.
func (s *Session) HasIdentity() bool { return s.identity != nil }

// Address returns the checksummed wallet address, empty when no wallet is
// loaded.
func (s *Session) Address() string {
	if s.identity == nil {
		return ""
	}
	return s.identity.Address()
}

// ChainAddress returns the network-namespaced address form, empty when no
// wallet is loaded.
func (s *Session) ChainAddress() string {
	if s.identity == nil {
		return ""
	}
	return s.identity.ChainAddress()
}

// Wipe deletes the stored credential and destroys the in-memory identity.
func (s *Session) Wipe() error {
	if err := s.creds.Delete(); err != nil {
		return err
	}
	if s.identity != nil {
		s.identity.Wipe()
		s.identity = nil
	}
	s.status = model.WalletStatus{}
	return nil
}

func (s *Session) adopt(identity *crypto.Identity) {
	if s.identity != nil {
		s.identity.Wipe()
	}
	s.identity = identity
	s.status = model.WalletStatus{
		Address:      identity.Address(),
		Registration: model.RegistrationUnknown,
	}
}
