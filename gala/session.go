// Package gala ties the wallet together: identity lifecycle, credential
// persistence and the tick-driven reconciliation loop that keeps the local
// registration view in sync with the network.
package gala

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/galadesk/wallet/internal/crypto"
	"github.com/galadesk/wallet/internal/keychain"
	"github.com/galadesk/wallet/internal/model"
	"github.com/galadesk/wallet/internal/task"
)

const (
	defaultWorkers   = 2
	defaultQueueSize = 8
)

// NewWorkerPool returns a pool sized for a single wallet session: enough
// workers for a balance fetch alongside a registration call.
func NewWorkerPool() *task.Pool {
	return task.NewPool(defaultWorkers, defaultQueueSize)
}

// ChainClient is the remote surface the session needs. Satisfied by
// client.GalaClient.
type ChainClient interface {
	CheckRegistration(ctx context.Context, chainAddress string) (bool, error)
	Register(ctx context.Context, publicKeyHex string) error
	GetBalance(ctx context.Context, chainAddress string) (model.Balance, error)
}

// Session owns the wallet state for one run of the app. All methods must be
// called from the same goroutine (the UI or main loop); background work runs
// on the pool and is collected via Tick.
type Session struct {
	client ChainClient
	creds  *keychain.CredentialStore
	pool   *task.Pool
	log    *zap.Logger

	identity *crypto.Identity
	status   model.WalletStatus

	checkSlot    *task.Slot[bool]
	registerSlot *task.Slot[struct{}]
	balanceSlot  *task.Slot[model.Balance]
}

// NewSession builds a session with no identity loaded.
func NewSession(client ChainClient, creds *keychain.CredentialStore, pool *task.Pool, log *zap.Logger) *Session {
	return &Session{
		client:       client,
		creds:        creds,
		pool:         pool,
		log:          log,
		checkSlot:    task.NewSlot[bool](),
		registerSlot: task.NewSlot[struct{}](),
		balanceSlot:  task.NewSlot[model.Balance](),
	}
}

// Tick collects finished background work, applies status transitions and
// schedules the next reconciliation step. Call it from the loop on every
// frame or timer tick.
func (s *Session) Tick(ctx context.Context) {
	if s.identity == nil {
		return
	}

	if r, ok := s.checkSlot.Poll(); ok {
		switch {
		case r.Err != nil:
			s.setRegistration(model.RegistrationFailed, r.Err.Error())
		case r.Value:
			s.setRegistration(model.RegistrationRegistered, "")
		default:
			s.setRegistration(model.RegistrationNotRegistered, "")
		}
	}

	if r, ok := s.registerSlot.Poll(); ok {
		if r.Err != nil {
			s.setRegistration(model.RegistrationFailed, r.Err.Error())
		} else {
			s.setRegistration(model.RegistrationRegistered, "")
		}
	}

	if r, ok := s.balanceSlot.Poll(); ok {
		if r.Err != nil {
			s.status.BalanceErr = r.Err.Error()
			s.log.Warn("balance fetch failed", zap.Error(r.Err))
		} else {
			s.status.Balance = r.Value
			s.status.BalanceUpdated = time.Now()
			s.status.BalanceErr = ""
		}
	}

	// Drive the reconciliation cycle forward.
	switch s.status.Registration {
	case model.RegistrationUnknown:
		s.CheckRegistration(ctx)
	case model.RegistrationNotRegistered:
		s.Register(ctx)
	}
}

// CheckRegistration starts a registration lookup in the background. No-op
// when a lookup is already in flight. Returns whether a task was started.
func (s *Session) CheckRegistration(ctx context.Context) bool {
	if s.identity == nil {
		return false
	}
	chainAddress := s.identity.ChainAddress()
	accepted := s.checkSlot.Submit(s.pool, func() (bool, error) {
		return s.client.CheckRegistration(ctx, chainAddress)
	})
	if accepted {
		s.setRegistration(model.RegistrationChecking, "")
	}
	return accepted
}

// Register submits the public key for on-chain registration in the
// background. No-op when a registration is already in flight.
func (s *Session) Register(ctx context.Context) bool {
	if s.identity == nil {
		return false
	}
	publicKey := s.identity.PublicKeyHex()
	accepted := s.registerSlot.Submit(s.pool, func() (struct{}, error) {
		return struct{}{}, s.client.Register(ctx, publicKey)
	})
	if accepted {
		s.setRegistration(model.RegistrationRegistering, "")
	}
	return accepted
}

// RefreshBalance starts a balance fetch in the background. No-op when a
// fetch is already in flight.
func (s *Session) RefreshBalance(ctx context.Context) bool {
	if s.identity == nil {
		return false
	}
	chainAddress := s.identity.ChainAddress()
	return s.balanceSlot.Submit(s.pool, func() (model.Balance, error) {
		return s.client.GetBalance(ctx, chainAddress)
	})
}

// BalancePending reports whether a balance fetch is in flight.
func (s *Session) BalancePending() bool { return s.balanceSlot.Busy() }

// RetryRegistration resets a failed cycle back to unknown so the next Tick
// re-checks from scratch.
func (s *Session) RetryRegistration() {
	if s.status.Registration == model.RegistrationFailed {
		s.setRegistration(model.RegistrationUnknown, "")
	}
}

// Status returns a copy of the current wallet status.
func (s *Session) Status() model.WalletStatus { return s.status }

func (s *Session) setRegistration(next model.RegistrationStatus, reason string) {
	if s.status.Registration == next && s.status.FailureReason == reason {
		return
	}
	s.log.Info("registration status changed",
		zap.Stringer("from", s.status.Registration),
		zap.Stringer("to", next),
	)
	s.status.Registration = next
	s.status.FailureReason = reason
}
