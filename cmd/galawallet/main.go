package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/galadesk/wallet/gala"
	"github.com/galadesk/wallet/internal/client"
	"github.com/galadesk/wallet/internal/config"
	"github.com/galadesk/wallet/internal/keychain"
	"github.com/galadesk/wallet/internal/model"
)

const tickInterval = 100 * time.Millisecond

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Fatal("wallet exited with error", zap.Error(err))
	}
}

func run(log *zap.Logger) error {
	if err := config.Init(); err != nil {
		return err
	}
	cfg := config.Get()

	store, err := selectBackend(cfg)
	if err != nil {
		return err
	}
	creds := keychain.NewCredentialStore(store, cfg.KeychainService, cfg.KeychainAccount)

	pool := gala.NewWorkerPool()
	session := gala.NewSession(client.NewGalaClient(log), creds, pool, log)

	created, err := session.Open()
	if err != nil {
		return fmt.Errorf("failed to open wallet: %w", err)
	}
	if created {
		log.Info("created new wallet", zap.String("address", session.Address()))
	} else {
		log.Info("loaded wallet", zap.String("address", session.Address()))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session.RefreshBalance(ctx)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return pool.Shutdown(shutdownCtx)
		case <-ticker.C:
			session.Tick(ctx)
			status := session.Status()

			switch status.Registration {
			case model.RegistrationFailed:
				return errors.New("registration failed: " + status.FailureReason)
			case model.RegistrationRegistered:
				if !status.BalanceUpdated.IsZero() {
					log.Info("wallet ready",
						zap.String("address", status.Address),
						zap.Float64("available", status.Balance.Available),
						zap.Float64("locked", status.Balance.Locked),
					)
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					return pool.Shutdown(shutdownCtx)
				}
				if status.BalanceErr != "" {
					return errors.New("balance fetch failed: " + status.BalanceErr)
				}
				if !session.BalancePending() {
					session.RefreshBalance(ctx)
				}
			}
		}
	}
}

// selectBackend picks the credential backend from config: the OS keychain by
// default, passphrase-encrypted files when requested.
func selectBackend(cfg *config.Config) (keychain.SecretStore, error) {
	switch cfg.CredentialBackend {
	case "system":
		return keychain.NewSystemStore(), nil
	case "file":
		if err := config.PromptForPassphrase(); err != nil {
			return nil, err
		}
		passphrase, err := config.GetPassphraseBytes()
		if err != nil {
			return nil, err
		}
		defer clear(passphrase)
		return keychain.NewFileStore(cfg.CredentialDir, passphrase), nil
	default:
		return nil, fmt.Errorf("unknown credential backend %q", cfg.CredentialBackend)
	}
}
