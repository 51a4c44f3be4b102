package model

import "encoding/json"

// Field names in this file are fixed by the remote API contract.

// BalanceRequest is the FetchBalances payload identifying a token class for
// one owner.
type BalanceRequest struct {
	Owner         string `json:"owner"`
	Collection    string `json:"collection"`
	Category      string `json:"category"`
	Type          string `json:"type"`
	AdditionalKey string `json:"additionalKey"`
	Instance      string `json:"instance"`
}

// RegisterRequest submits an uncompressed public key for registration.
type RegisterRequest struct {
	PublicKey string `json:"publicKey"`
}

// PublicKeyLookupRequest asks whether a chain address has a registered key.
type PublicKeyLookupRequest struct {
	User string `json:"user"`
}

// ChainResponse is the envelope every contract endpoint answers with.
type ChainResponse struct {
	Status  int             `json:"Status"`
	Data    json.RawMessage `json:"Data"`
	Message string          `json:"Message"`
}

// TokenBalance is one balance record inside a FetchBalances response.
type TokenBalance struct {
	Quantity    string       `json:"quantity"`
	LockedHolds []LockedHold `json:"lockedHolds"`
}

// LockedHold is a portion of a balance held against spending.
type LockedHold struct {
	Quantity string `json:"quantity"`
}
