package keychain

import "errors"

// SecretStore is a minimal secret backend: system keychain in production,
// encrypted files as fallback, in-memory fakes in tests.
type SecretStore interface {
	// Set writes secret under (service, account), replacing any previous value.
	Set(service, account string, secret []byte) error
	// Get reads the secret under (service, account). Returns ErrNotFound if
	// nothing is stored there.
	Get(service, account string) ([]byte, error)
	// Delete removes the secret under (service, account). Deleting a missing
	// entry returns ErrNotFound.
	Delete(service, account string) error
}

var (
	// ErrNotFound is returned when no secret exists under the given key.
	ErrNotFound = errors.New("credential not found")
	// ErrAccessDenied is returned when the backend refuses access, for
	// example a locked keychain or a wrong file-store passphrase.
	ErrAccessDenied = errors.New("credential access denied")
	// ErrMalformedRecord is returned when a stored record cannot be decoded.
	ErrMalformedRecord = errors.New("malformed credential record")
)
