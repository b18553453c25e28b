package relayClient

import (
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Layr-Labs/gasless-relay-go/pkg/orchestrator"
	"github.com/Layr-Labs/gasless-relay-go/pkg/persistence/memory"
	"github.com/Layr-Labs/gasless-relay-go/pkg/relayErrors"
	"github.com/Layr-Labs/gasless-relay-go/pkg/server"
	"github.com/Layr-Labs/gasless-relay-go/pkg/testutil"
	"github.com/Layr-Labs/gasless-relay-go/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastRetry = &RetryConfig{
	MaxAttempts:     3,
	InitialBackoff:  time.Millisecond,
	MaxBackoff:      5 * time.Millisecond,
	BackoffMultiple: 2.0,
}

func TestNewClient_ValidationErrors(t *testing.T) {
	l := testutil.NewTestLogger(t)

	tests := []struct {
		name   string
		config *ClientConfig
	}{
		{name: "nil config", config: nil},
		{name: "missing base URL", config: &ClientConfig{Logger: l}},
		{name: "invalid base URL", config: &ClientConfig{BaseURL: "not a url", Logger: l}},
		{name: "missing logger", config: &ClientConfig{BaseURL: "http://localhost:8080"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.config)
			assert.Error(t, err)
			assert.Nil(t, client)
		})
	}
}

func TestClient_AgainstServer(t *testing.T) {
	l := testutil.NewTestLogger(t)
	store := memory.NewMemoryPersistence()
	defer func() { _ = store.Close() }()

	owner := testutil.NewTestAccount(t)
	alice := testutil.NewTestAccount(t)
	bob := testutil.NewTestAccount(t)

	orch, err := orchestrator.NewTransferOrchestrator(&orchestrator.Config{Owner: owner.Address}, store, l)
	require.NoError(t, err)
	require.NoError(t, orch.RegisterToken(owner.Address, 1, "Coin", "CN", 6))
	require.NoError(t, orch.SeedBalance(owner.Address, 1, alice.Address, big.NewInt(100)))
	require.NoError(t, orch.UpdateRelayFee(owner.Address, big.NewInt(2)))

	srv := server.NewServer(&server.Config{RateLimit: 1000, RateBurst: 1000}, orch, l)
	ts := httptest.NewServer(srv.GetHandler())
	defer ts.Close()

	client, err := NewClient(&ClientConfig{BaseURL: ts.URL + "/", Logger: l, RetryConfig: fastRetry})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, client.Health(ctx))

	resp, err := client.SubmitTransfer(ctx, alice.NewSignedRequest(t, 1, 40, bob.Address, 7))
	require.NoError(t, err)
	assert.Equal(t, string(types.TransferStateSettled), resp.State)
	assert.Equal(t, "2", resp.Fee)

	bal, err := client.GetBalance(ctx, 1, alice.Address)
	require.NoError(t, err)
	assert.Equal(t, int64(58), bal.Int64())

	used, err := client.IsNonceUsed(ctx, alice.Address, 7)
	require.NoError(t, err)
	assert.True(t, used)

	fee, err := client.GetRelayFee(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), fee.Int64())

	token, err := client.GetToken(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "CN", token.Symbol)

	_, err = client.GetToken(ctx, 2)
	assert.ErrorIs(t, err, relayErrors.ErrTransferFailed)

	_, err = client.SubmitTransfer(ctx, alice.NewSignedRequest(t, 1, 40, bob.Address, 7))
	require.Error(t, err)
	assert.ErrorIs(t, err, relayErrors.ErrNonceUsed)
	assert.Contains(t, err.Error(), "receipt")
}

func TestClient_RetriesReads(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"relay_fee":"9"}`))
	}))
	defer ts.Close()

	client, err := NewClient(&ClientConfig{BaseURL: ts.URL, Logger: testutil.NewTestLogger(t), RetryConfig: fastRetry})
	require.NoError(t, err)

	fee, err := client.GetRelayFee(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(9), fee.Int64())
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"code":"ERR_RATE_LIMITED","message":"too many requests"}`))
	}))
	defer ts.Close()

	client, err := NewClient(&ClientConfig{BaseURL: ts.URL, Logger: testutil.NewTestLogger(t), RetryConfig: fastRetry})
	require.NoError(t, err)

	_, err = client.GetRelayFee(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ERR_RATE_LIMITED")
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_DoesNotRetryRejectedTransfer(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"code":"ERR_INTERNAL","message":"internal error"}`))
	}))
	defer ts.Close()

	client, err := NewClient(&ClientConfig{BaseURL: ts.URL, Logger: testutil.NewTestLogger(t), RetryConfig: fastRetry})
	require.NoError(t, err)

	alice := testutil.NewTestAccount(t)
	_, err = client.SubmitTransfer(context.Background(), alice.NewSignedRequest(t, 1, 1, testutil.NewTestAccount(t).Address, 1))
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	_, err = client.SubmitTransfer(context.Background(), nil)
	require.Error(t, err)
}

func TestClient_NonJSONError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer ts.Close()

	client, err := NewClient(&ClientConfig{BaseURL: ts.URL, Logger: testutil.NewTestLogger(t), RetryConfig: fastRetry})
	require.NoError(t, err)

	err = client.Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Empty(t, relayErrors.CodeOf(err))
}

func TestClient_ContextCancelled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	client, err := NewClient(&ClientConfig{
		BaseURL:     ts.URL,
		Logger:      testutil.NewTestLogger(t),
		RetryConfig: &RetryConfig{MaxAttempts: 10, InitialBackoff: time.Hour, MaxBackoff: time.Hour, BackoffMultiple: 1},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = client.Health(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
