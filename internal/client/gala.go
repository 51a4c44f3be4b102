package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/galadesk/wallet/internal/config"
	"github.com/galadesk/wallet/internal/model"
)

const (
	// statusSuccess is the envelope Status value for a successful
	// contract invocation.
	statusSuccess = 1

	checkRetries         = 2
	mutateRetries        = 3
	defaultRetryInterval = time.Second
)

// GalaClient talks to the chain gateway. All requests are POSTs with JSON
// bodies; transient failures are retried with exponential backoff.
type GalaClient struct {
	httpClient *http.Client
	log        *zap.Logger

	operationsBaseURL string
	identityBaseURL   string
	balanceURL        string
	publicKeyURL      string
	registerURL       string

	tokenClass model.BalanceRequest

	retryInterval time.Duration
}

// NewGalaClient builds a client from the global configuration.
func NewGalaClient(log *zap.Logger) *GalaClient {
	cfg := config.Get()
	return &GalaClient{
		httpClient:        &http.Client{Timeout: cfg.HTTPTimeout},
		log:               log,
		operationsBaseURL: cfg.OperationsBaseURL,
		identityBaseURL:   cfg.IdentityBaseURL,
		balanceURL:        buildURL(cfg.BalanceEndpoint, cfg.Channel, cfg.TokenContract),
		publicKeyURL:      buildURL(cfg.PublicKeyEndpoint, cfg.Channel, cfg.PublicKeyContract),
		registerURL:       cfg.RegisterEndpoint,
		tokenClass: model.BalanceRequest{
			Collection:    cfg.TokenCollection,
			Category:      cfg.TokenCategory,
			Type:          cfg.TokenType,
			AdditionalKey: cfg.TokenAdditionalKey,
			Instance:      cfg.TokenInstance,
		},
		retryInterval: defaultRetryInterval,
	}
}

// buildURL substitutes the {channel} and {contract} placeholders in an
// endpoint template.
func buildURL(template, channel, contract string) string {
	url := strings.ReplaceAll(template, "{channel}", channel)
	return strings.ReplaceAll(url, "{contract}", contract)
}

// CheckRegistration reports whether the chain address has a registered
// public key. A not-found answer from the gateway means "not registered",
// not an error.
func (c *GalaClient) CheckRegistration(ctx context.Context, chainAddress string) (bool, error) {
	payload := model.PublicKeyLookupRequest{User: chainAddress}

	return retryWithData(c, ctx, "check registration", checkRetries, func() (bool, error) {
		status, body, err := c.post(ctx, c.operationsBaseURL+c.publicKeyURL, payload)
		if err != nil {
			return false, err
		}
		// The gateway answers a missing key with a client error.
		if status == http.StatusNotFound || status == http.StatusBadRequest {
			return false, nil
		}
		if status < 200 || status >= 300 {
			return false, classifyAPIError(status, body)
		}

		var envelope model.ChainResponse
		if err := json.Unmarshal(body, &envelope); err != nil {
			return false, backoff.Permanent(&ParseError{Err: err})
		}
		// A non-success envelope on a 2xx means the key does not exist.
		if envelope.Status != statusSuccess {
			return false, nil
		}
		return len(envelope.Data) > 0 && string(envelope.Data) != "null", nil
	})
}

// Register submits the uncompressed public key to the identity service. Any
// 2xx answer counts as success, including an already-registered key.
func (c *GalaClient) Register(ctx context.Context, publicKeyHex string) error {
	payload := model.RegisterRequest{PublicKey: publicKeyHex}

	return c.retry(ctx, "register", mutateRetries, func() error {
		status, body, err := c.post(ctx, c.identityBaseURL+c.registerURL, payload)
		if err != nil {
			return err
		}
		if status < 200 || status >= 300 {
			return classifyAPIError(status, body)
		}
		return nil
	})
}

// GetBalance fetches the token balance for a chain address and returns the
// available and locked amounts. An empty result set is a zero balance, not
// an error.
func (c *GalaClient) GetBalance(ctx context.Context, chainAddress string) (model.Balance, error) {
	payload := c.tokenClass
	payload.Owner = chainAddress

	return retryWithData(c, ctx, "fetch balance", mutateRetries, func() (model.Balance, error) {
		status, body, err := c.post(ctx, c.operationsBaseURL+c.balanceURL, payload)
		if err != nil {
			return model.Balance{}, err
		}
		if status < 200 || status >= 300 {
			return model.Balance{}, classifyAPIError(status, body)
		}

		var envelope model.ChainResponse
		if err := json.Unmarshal(body, &envelope); err != nil {
			return model.Balance{}, backoff.Permanent(&ParseError{Err: err})
		}
		if envelope.Status != statusSuccess {
			return model.Balance{}, backoff.Permanent(&APIError{StatusCode: status, Body: envelope.Message})
		}

		var records []model.TokenBalance
		if len(envelope.Data) > 0 && string(envelope.Data) != "null" {
			if err := json.Unmarshal(envelope.Data, &records); err != nil {
				return model.Balance{}, backoff.Permanent(&ParseError{Err: err})
			}
		}
		if len(records) == 0 {
			return model.Balance{}, nil
		}
		balance, err := availableBalance(records[0])
		if err != nil {
			return model.Balance{}, backoff.Permanent(err)
		}
		return balance, nil
	})
}

// availableBalance computes available = quantity minus the sum of locked
// holds. Quantities arrive as decimal strings.
func availableBalance(record model.TokenBalance) (model.Balance, error) {
	quantity, err := strconv.ParseFloat(record.Quantity, 64)
	if err != nil {
		return model.Balance{}, &ParseError{Err: fmt.Errorf("bad quantity %q: %w", record.Quantity, err)}
	}
	var locked float64
	for _, hold := range record.LockedHolds {
		held, err := strconv.ParseFloat(hold.Quantity, 64)
		if err != nil {
			return model.Balance{}, &ParseError{Err: fmt.Errorf("bad hold quantity %q: %w", hold.Quantity, err)}
		}
		locked += held
	}
	return model.Balance{Available: quantity - locked, Locked: locked}, nil
}

// post sends a JSON POST and returns the status code and body. Transport
// failures come back as *NetworkError.
func (c *GalaClient) post(ctx context.Context, url string, payload any) (int, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, backoff.Permanent(fmt.Errorf("failed to encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return 0, nil, backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		timeout := errors.As(err, &netErr) && netErr.Timeout()
		return 0, nil, &NetworkError{Timeout: timeout, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &NetworkError{Err: fmt.Errorf("failed to read response: %w", err)}
	}
	return resp.StatusCode, body, nil
}

// classifyAPIError wraps a non-2xx status, marking client errors permanent
// so they are not retried.
func classifyAPIError(status int, body []byte) error {
	apiErr := &APIError{StatusCode: status, Body: strings.TrimSpace(string(body))}
	if apiErr.Retryable() {
		return apiErr
	}
	return backoff.Permanent(apiErr)
}

func (c *GalaClient) retry(ctx context.Context, op string, maxRetries uint64, fn func() error) error {
	return backoff.RetryNotify(fn, c.newBackOff(ctx, maxRetries), c.notify(op))
}

func retryWithData[T any](c *GalaClient, ctx context.Context, op string, maxRetries uint64, fn func() (T, error)) (T, error) {
	return backoff.RetryNotifyWithData(fn, c.newBackOff(ctx, maxRetries), c.notify(op))
}

func (c *GalaClient) newBackOff(ctx context.Context, maxRetries uint64) backoff.BackOffContext {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryInterval
	bo.RandomizationFactor = 0
	bo.Multiplier = 2
	bo.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(bo, maxRetries), ctx)
}

func (c *GalaClient) notify(op string) backoff.Notify {
	return func(err error, wait time.Duration) {
		c.log.Warn("request failed, retrying",
			zap.String("operation", op),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}
}
