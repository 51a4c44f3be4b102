package model

import "time"

// RegistrationStatus tracks where an address is in the reconciliation cycle
// with the remote network.
type RegistrationStatus int

const (
	RegistrationUnknown RegistrationStatus = iota
	RegistrationChecking
	RegistrationRegistered
	RegistrationNotRegistered
	RegistrationRegistering
	RegistrationFailed
)

func (s RegistrationStatus) String() string {
	switch s {
	case RegistrationUnknown:
		return "unknown"
	case RegistrationChecking:
		return "checking"
	case RegistrationRegistered:
		return "registered"
	case RegistrationNotRegistered:
		return "not-registered"
	case RegistrationRegistering:
		return "registering"
	case RegistrationFailed:
		return "failed"
	}
	return "invalid"
}

// Balance is the wallet's token position: spendable and locked quantities.
type Balance struct {
	Available float64
	Locked    float64
}

// WalletStatus is the shared status record: written during tick processing,
// read by the rendering layer on the same tick.
type WalletStatus struct {
	Address       string
	Registration  RegistrationStatus
	FailureReason string // set when Registration is RegistrationFailed

	Balance        Balance
	BalanceUpdated time.Time // zero until the first successful fetch
	BalanceErr     string
}
