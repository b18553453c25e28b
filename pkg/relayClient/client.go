package relayClient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Layr-Labs/gasless-relay-go/pkg/relayErrors"
	"github.com/Layr-Labs/gasless-relay-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"go.uber.org/zap"
)

// RetryConfig configures retry behavior
type RetryConfig struct {
	MaxAttempts     int
	InitialBackoff  time.Duration
	MaxBackoff      time.Duration
	BackoffMultiple float64
}

// DefaultRetryConfig provides default retry settings
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     5,
	InitialBackoff:  100 * time.Millisecond,
	MaxBackoff:      5 * time.Second,
	BackoffMultiple: 2.0,
}

// ClientConfig holds the configuration for the relay client
type ClientConfig struct {
	BaseURL string
	Logger  *zap.Logger
	// Optional; defaults to a client with a 30s timeout
	HTTPClient *http.Client
	// Optional; defaults to DefaultRetryConfig
	RetryConfig *RetryConfig
}

// Client talks to a relay server.
//
// Reads are retried on transport errors, 429 and 5xx responses. A transfer is only
// retried on 429 and 503, which the server returns before touching the nonce; any
// other failure is returned as is, since the nonce may already be consumed.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	retryConfig RetryConfig
	logger      *zap.Logger
}

// NewClient creates a new relay client instance
func NewClient(config *ClientConfig) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.ParseRequestURI(config.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if config.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	retryConfig := DefaultRetryConfig
	if config.RetryConfig != nil {
		retryConfig = *config.RetryConfig
	}
	if retryConfig.MaxAttempts < 1 {
		retryConfig.MaxAttempts = 1
	}

	return &Client{
		baseURL:     strings.TrimRight(config.BaseURL, "/"),
		httpClient:  httpClient,
		retryConfig: retryConfig,
		logger:      config.Logger,
	}, nil
}

// SubmitTransfer posts a signed transfer. Rejections come back as *relayErrors.RelayError.
func (c *Client) SubmitTransfer(ctx context.Context, req *types.TransferRequest) (*types.TransferResponseV1, error) {
	if req == nil {
		return nil, fmt.Errorf("request cannot be nil")
	}
	if req.Intent.Amount == nil {
		return nil, fmt.Errorf("amount cannot be nil")
	}

	body, err := json.Marshal(types.TransferRequestV1{
		Signer:    req.Intent.Signer.Hex(),
		TokenID:   req.Intent.TokenID,
		Amount:    (*math.HexOrDecimal256)(req.Intent.Amount),
		Recipient: req.Intent.Recipient.Hex(),
		Nonce:     req.Intent.Nonce,
		Signature: hexutil.Bytes(req.Signature),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transfer request: %w", err)
	}

	var resp types.TransferResponseV1
	if err := c.do(ctx, http.MethodPost, "/transfer", body, transferRetryable, &resp); err != nil {
		return nil, err
	}

	c.logger.Sugar().Infow("Transfer submitted",
		"receipt_id", resp.ReceiptID,
		"intent_hash", resp.IntentHash,
		"state", resp.State,
		"fee", resp.Fee,
	)
	return &resp, nil
}

// GetBalance returns the committed balance of owner for tokenID
func (c *Client) GetBalance(ctx context.Context, tokenID uint64, owner common.Address) (*big.Int, error) {
	q := url.Values{}
	q.Set("token", strconv.FormatUint(tokenID, 10))
	q.Set("owner", owner.Hex())

	var resp types.BalanceResponseV1
	if err := c.do(ctx, http.MethodGet, "/balance?"+q.Encode(), nil, readRetryable, &resp); err != nil {
		return nil, err
	}
	return parseDecimal(resp.Balance)
}

// GetToken returns a registered token descriptor
func (c *Client) GetToken(ctx context.Context, id uint64) (*types.TokenDescriptor, error) {
	var resp types.TokenDescriptor
	if err := c.do(ctx, http.MethodGet, "/token?id="+strconv.FormatUint(id, 10), nil, readRetryable, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetRelayFee returns the current relay fee
func (c *Client) GetRelayFee(ctx context.Context) (*big.Int, error) {
	var resp types.FeeResponseV1
	if err := c.do(ctx, http.MethodGet, "/fee", nil, readRetryable, &resp); err != nil {
		return nil, err
	}
	return parseDecimal(resp.RelayFee)
}

// IsNonceUsed reports whether (signer, nonce) has been consumed
func (c *Client) IsNonceUsed(ctx context.Context, signer common.Address, nonce uint64) (bool, error) {
	q := url.Values{}
	q.Set("signer", signer.Hex())
	q.Set("nonce", strconv.FormatUint(nonce, 10))

	var resp types.NonceResponseV1
	if err := c.do(ctx, http.MethodGet, "/nonce?"+q.Encode(), nil, readRetryable, &resp); err != nil {
		return false, err
	}
	return resp.Used, nil
}

// Health returns nil if the server and its store are up
func (c *Client) Health(ctx context.Context) error {
	var resp types.HealthResponseV1
	return c.do(ctx, http.MethodGet, "/health", nil, readRetryable, &resp)
}

type retryPolicy func(status int, transportErr error) bool

func readRetryable(status int, transportErr error) bool {
	if transportErr != nil {
		return true
	}
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

func transferRetryable(status int, transportErr error) bool {
	return transportErr == nil && (status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, retryable retryPolicy, out interface{}) error {
	backoff := c.retryConfig.InitialBackoff
	var lastErr error

	for attempt := 0; attempt < c.retryConfig.MaxAttempts; attempt++ {
		status, respBody, err := c.roundTrip(ctx, method, path, body)
		if err == nil && status == http.StatusOK {
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("failed to decode response from %s: %w", path, err)
			}
			return nil
		}

		if err != nil {
			lastErr = fmt.Errorf("request to %s failed: %w", path, err)
		} else {
			lastErr = decodeErrorResponse(status, respBody)
		}

		if ctx.Err() != nil || !retryable(status, err) {
			return lastErr
		}

		if attempt < c.retryConfig.MaxAttempts-1 {
			c.logger.Sugar().Debugw("Retrying relay request", "path", path, "attempt", attempt+1, "backoff", backoff, "error", lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff = time.Duration(float64(backoff) * c.retryConfig.BackoffMultiple)
			if backoff > c.retryConfig.MaxBackoff {
				backoff = c.retryConfig.MaxBackoff
			}
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", c.retryConfig.MaxAttempts, lastErr)
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, respBody, nil
}

// decodeErrorResponse turns an error body into a RelayError carrying the server's code
func decodeErrorResponse(status int, body []byte) error {
	var resp types.ErrorResponseV1
	if err := json.Unmarshal(body, &resp); err != nil || resp.Code == "" {
		return fmt.Errorf("relay returned status %d: %s", status, strings.TrimSpace(string(body)))
	}
	re := &relayErrors.RelayError{Code: relayErrors.Code(resp.Code), Message: resp.Message}
	if resp.ReceiptID != "" {
		re.Message = fmt.Sprintf("%s (receipt %s, last state %s)", resp.Message, resp.ReceiptID, resp.State)
	}
	return re
}

func parseDecimal(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q in response", s)
	}
	return v, nil
}
