package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Layr-Labs/gasless-relay-go/pkg/orchestrator"
	"go.uber.org/zap"
)

/*
Server exposes the relay to relayers and explorers over HTTP.

Relayer endpoints:
  POST /transfer:
    - Request: { signer, token_id, amount, recipient, nonce, signature }
    - amount is a string, decimal or 0x hex; signature is 65 bytes 0x hex (r || s || v)
    - Response: { receipt_id, intent_hash, state, fee }

Read endpoints:
  GET /balance?token=<id>&owner=<address>
  GET /token?id=<id>
  GET /fee
  GET /nonce?signer=<address>&nonce=<n>
  GET /health

Errors:
  - Every failure is { code, message } with a status derived from the code
  - Rejected transfers additionally carry receipt_id and last_state
  - Storage failures are reported as ERR_INTERNAL without detail

Token registration, balance seeding and fee updates are owner operations and are not
served here; use relayAdmin.

Every request is rate limited per client IP with a token bucket.
*/

// Config holds server configuration
type Config struct {
	Port int
	// Requests per second and burst per client IP
	RateLimit float64
	RateBurst int
}

// Server handles HTTP requests for the relay
type Server struct {
	orchestrator *orchestrator.TransferOrchestrator
	httpServer   *http.Server
	limiter      *ipRateLimiter
	logger       *zap.Logger
}

// NewServer creates a new server instance
func NewServer(cfg *Config, orch *orchestrator.TransferOrchestrator, logger *zap.Logger) *Server {
	s := &Server{
		orchestrator: orch,
		limiter:      newIPRateLimiter(cfg.RateLimit, cfg.RateBurst),
		logger:       logger,
	}

	mux := http.NewServeMux()

	// Relayer endpoint
	mux.HandleFunc("/transfer", s.handleTransfer)

	// Read endpoints
	mux.HandleFunc("/balance", s.handleGetBalance)
	mux.HandleFunc("/token", s.handleGetToken)
	mux.HandleFunc("/fee", s.handleGetFee)
	mux.HandleFunc("/nonce", s.handleGetNonce)
	mux.HandleFunc("/health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.rateLimit(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	go func() {
		s.logger.Sugar().Infow("Starting HTTP server", "owner", s.orchestrator.Owner().Hex(), "port", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Sugar().Errorw("HTTP server error", "error", err)
		}
	}()
	return nil
}

// Stop stops the HTTP server immediately
func (s *Server) Stop() error {
	return s.httpServer.Close()
}

// Shutdown stops accepting requests and waits for in-flight ones until ctx is done
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// GetHandler returns the HTTP handler (for testing)
func (s *Server) GetHandler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !s.limiter.allow(ip) {
			s.logger.Sugar().Debugw("Rate limited request", "client_ip", ip, "path", r.URL.Path)
			writeJSON(w, http.StatusTooManyRequests, errorResponse(codeRateLimited, "too many requests"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
