package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/stretchr/testify/require"

	"github.com/galadesk/wallet/internal/model"
)

func newTestClient(opsURL, identityURL string) *GalaClient {
	return &GalaClient{
		httpClient:        &http.Client{Timeout: 5 * time.Second},
		log:               zap.NewNop(),
		operationsBaseURL: opsURL,
		identityBaseURL:   identityURL,
		balanceURL:        "/api/product/GalaChainToken/FetchBalances",
		publicKeyURL:      "/api/product/PublicKeyContract/GetPublicKey",
		registerURL:       "/api/identities/register",
		tokenClass: model.BalanceRequest{
			Collection:    "GALA",
			Category:      "Unit",
			Type:          "none",
			AdditionalKey: "none",
			Instance:      "0",
		},
		retryInterval: time.Millisecond,
	}
}

func envelopeBody(t *testing.T, status int, data any) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	body, err := json.Marshal(model.ChainResponse{Status: status, Data: raw})
	require.NoError(t, err)
	return body
}

func TestBuildURL(t *testing.T) {
	got := buildURL("/api/{channel}/{contract}/FetchBalances", "product", "GalaChainToken")
	require.Equal(t, "/api/product/GalaChainToken/FetchBalances", got)

	// Templates without placeholders pass through untouched.
	require.Equal(t, "/api/identities/register", buildURL("/api/identities/register", "product", "x"))
}

func TestGetBalanceComputesAvailable(t *testing.T) {
	var gotRequest model.BalanceRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/product/GalaChainToken/FetchBalances", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))
		w.Write(envelopeBody(t, 1, []model.TokenBalance{{
			Quantity:    "100",
			LockedHolds: []model.LockedHold{{Quantity: "30"}},
		}}))
	}))
	defer server.Close()

	c := newTestClient(server.URL, server.URL)
	balance, err := c.GetBalance(context.Background(), "eth|abc")
	require.NoError(t, err)
	require.Equal(t, model.Balance{Available: 70, Locked: 30}, balance)

	require.Equal(t, "eth|abc", gotRequest.Owner)
	require.Equal(t, "GALA", gotRequest.Collection)
	require.Equal(t, "0", gotRequest.Instance)
}

func TestGetBalanceNoRecordsIsZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(envelopeBody(t, 1, []model.TokenBalance{}))
	}))
	defer server.Close()

	c := newTestClient(server.URL, server.URL)
	balance, err := c.GetBalance(context.Background(), "eth|abc")
	require.NoError(t, err)
	require.Zero(t, balance)
}

func TestGetBalanceUsesFirstRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(envelopeBody(t, 1, []model.TokenBalance{
			{Quantity: "5"},
			{Quantity: "9000"},
		}))
	}))
	defer server.Close()

	c := newTestClient(server.URL, server.URL)
	balance, err := c.GetBalance(context.Background(), "eth|abc")
	require.NoError(t, err)
	require.Equal(t, model.Balance{Available: 5}, balance)
}

func TestGetBalanceRetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write(envelopeBody(t, 1, []model.TokenBalance{{Quantity: "1"}}))
	}))
	defer server.Close()

	c := newTestClient(server.URL, server.URL)
	balance, err := c.GetBalance(context.Background(), "eth|abc")
	require.NoError(t, err)
	require.Equal(t, model.Balance{Available: 1}, balance)
	require.EqualValues(t, 3, attempts.Load())
}

func TestGetBalanceExhaustsRetries(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := newTestClient(server.URL, server.URL)
	_, err := c.GetBalance(context.Background(), "eth|abc")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	require.EqualValues(t, mutateRetries+1, attempts.Load())
}

func TestGetBalanceBadQuantityIsNotRetried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.Write(envelopeBody(t, 1, []model.TokenBalance{{Quantity: "not-a-number"}}))
	}))
	defer server.Close()

	c := newTestClient(server.URL, server.URL)
	_, err := c.GetBalance(context.Background(), "eth|abc")

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.EqualValues(t, 1, attempts.Load())
}

func TestCheckRegistrationFound(t *testing.T) {
	var gotRequest model.PublicKeyLookupRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/product/PublicKeyContract/GetPublicKey", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))
		w.Write(envelopeBody(t, 1, map[string]string{"publicKey": "04abc"}))
	}))
	defer server.Close()

	c := newTestClient(server.URL, server.URL)
	registered, err := c.CheckRegistration(context.Background(), "eth|abc")
	require.NoError(t, err)
	require.True(t, registered)
	require.Equal(t, "eth|abc", gotRequest.User)
}

func TestCheckRegistrationNotFoundStatuses(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusBadRequest} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			w.Write([]byte(`{"Message": "user not found"}`))
		}))

		c := newTestClient(server.URL, server.URL)
		registered, err := c.CheckRegistration(context.Background(), "eth|abc")
		require.NoError(t, err)
		require.False(t, registered)
		server.Close()
	}
}

func TestCheckRegistrationEmptyEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Status": 0, "Message": "key not found"}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL, server.URL)
	registered, err := c.CheckRegistration(context.Background(), "eth|abc")
	require.NoError(t, err)
	require.False(t, registered)
}

func TestCheckRegistrationRetriesThenSucceeds(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write(envelopeBody(t, 1, map[string]string{"publicKey": "04abc"}))
	}))
	defer server.Close()

	c := newTestClient(server.URL, server.URL)
	registered, err := c.CheckRegistration(context.Background(), "eth|abc")
	require.NoError(t, err)
	require.True(t, registered)
	require.EqualValues(t, 3, attempts.Load())
}

func TestCheckRegistrationRetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := newTestClient(server.URL, server.URL)
	_, err := c.CheckRegistration(context.Background(), "eth|abc")
	require.Error(t, err)
	require.EqualValues(t, checkRetries+1, attempts.Load())
}

func TestRegisterSuccess(t *testing.T) {
	var gotRequest model.RegisterRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/identities/register", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	c := newTestClient(server.URL, server.URL)
	require.NoError(t, c.Register(context.Background(), "04deadbeef"))
	require.Equal(t, "04deadbeef", gotRequest.PublicKey)
}

func TestRegisterRetriesThenSucceeds(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := newTestClient(server.URL, server.URL)
	require.NoError(t, c.Register(context.Background(), "04deadbeef"))
	require.EqualValues(t, 3, attempts.Load())
}

func TestRegisterClientErrorIsNotRetried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte("bad public key"))
	}))
	defer server.Close()

	c := newTestClient(server.URL, server.URL)
	err := c.Register(context.Background(), "garbage")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	require.False(t, apiErr.Retryable())
	require.EqualValues(t, 1, attempts.Load())
}

func TestUnreachableHostIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listens here anymore

	c := newTestClient(server.URL, server.URL)
	_, err := c.CheckRegistration(context.Background(), "eth|abc")

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestClient(server.URL, server.URL)
	c.retryInterval = time.Minute
	_, err := c.GetBalance(ctx, "eth|abc")
	require.Error(t, err)
}
