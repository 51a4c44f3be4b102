package model

// StoredCredential is the minimal wallet record persisted in the platform
// secret store. PrivateKey and seed are never stored; both are re-derived
// from the mnemonic on load.
type StoredCredential struct {
	Mnemonic  string `json:"mnemonic"`
	CreatedAt uint64 `json:"created_at"` // Unix seconds
}
