package keychain

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// SystemStore persists secrets in the OS credential manager (Keychain on
// macOS, Secret Service on Linux, Credential Manager on Windows). The OS
// handles encryption at rest.
type SystemStore struct{}

// NewSystemStore returns a store backed by the OS keychain.
func NewSystemStore() *SystemStore { return &SystemStore{} }

func (s *SystemStore) Set(service, account string, secret []byte) error {
	if err := keyring.Set(service, account, string(secret)); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	return nil
}

func (s *SystemStore) Get(service, account string) ([]byte, error) {
	value, err := keyring.Get(service, account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrAccessDenied, err)
	}
	return []byte(value), nil
}

func (s *SystemStore) Delete(service, account string) error {
	if err := keyring.Delete(service, account); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}
