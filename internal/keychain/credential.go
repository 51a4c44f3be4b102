package keychain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/galadesk/wallet/internal/model"
)

// CredentialStore reads and writes the wallet credential record through a
// SecretStore backend. Records are stored as JSON; the backend is responsible
// for encryption at rest.
type CredentialStore struct {
	store   SecretStore
	service string
	account string
}

// NewCredentialStore wraps store with the fixed (service, account) key the
// wallet credential lives under.
func NewCredentialStore(store SecretStore, service, account string) *CredentialStore {
	return &CredentialStore{store: store, service: service, account: account}
}

// Store persists the recovery phrase, stamping the record with the current
// time. Overwrites any existing record.
func (c *CredentialStore) Store(mnemonic string) error {
	record := model.StoredCredential{
		Mnemonic:  mnemonic,
		CreatedAt: uint64(time.Now().Unix()),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}
	defer clear(data)

	if err := c.store.Set(c.service, c.account, data); err != nil {
		return fmt.Errorf("failed to persist credential: %w", err)
	}
	return nil
}

// Load reads the stored credential. Returns ErrNotFound when no wallet
// exists and ErrMalformedRecord when the stored record does not decode to a
// credential with a mnemonic.
func (c *CredentialStore) Load() (*model.StoredCredential, error) {
	data, err := c.store.Get(c.service, c.account)
	if err != nil {
		return nil, err
	}
	defer clear(data)

	var record model.StoredCredential
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if record.Mnemonic == "" {
		return nil, fmt.Errorf("%w: missing mnemonic", ErrMalformedRecord)
	}
	return &record, nil
}

// Exists reports whether a loadable credential record is present. Backend
// errors and undecodable records count as absent, so a corrupted store can be
// regenerated instead of wedging startup.
func (c *CredentialStore) Exists() bool {
	_, err := c.Load()
	return err == nil
}

// Delete removes the stored credential. Deleting a missing credential is not
// an error.
func (c *CredentialStore) Delete() error {
	if err := c.store.Delete(c.service, c.account); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}
