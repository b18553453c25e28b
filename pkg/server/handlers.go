package server

import (
	"encoding/json"
	"math/big"
	"net/http"
	"strconv"

	"github.com/Layr-Labs/gasless-relay-go/pkg/messageCodec"
	"github.com/Layr-Labs/gasless-relay-go/pkg/relayErrors"
	"github.com/Layr-Labs/gasless-relay-go/pkg/types"
)

const (
	maxRequestBodyBytes = 64 * 1024

	codeInternal         = "ERR_INTERNAL"
	codeRateLimited      = "ERR_RATE_LIMITED"
	codeMethodNotAllowed = "ERR_METHOD_NOT_ALLOWED"
)

// handleTransfer handles POST /transfer
func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req types.TransferRequestV1
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		s.writeError(w, relayErrors.Wrapf(relayErrors.ErrEncoding, "failed to parse request: %v", err))
		return
	}

	transfer, err := transferRequestFromV1(&req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	receipt, err := s.orchestrator.ExecuteGaslessTransfer(transfer)
	if err != nil {
		status := relayErrors.HTTPStatus(err)
		body := errorBody(err)
		if receipt != nil {
			body.ReceiptID = receipt.ID
			body.State = string(receipt.LastState)
		}
		if body.Code == codeInternal {
			s.logger.Sugar().Errorw("Transfer failed", "receipt_id", body.ReceiptID, "error", err)
		}
		writeJSON(w, status, body)
		return
	}

	writeJSON(w, http.StatusOK, types.TransferResponseV1{
		ReceiptID:  receipt.ID,
		IntentHash: receipt.IntentHash.Hex(),
		State:      string(receipt.State),
		Fee:        receipt.Fee.String(),
	})
}

func transferRequestFromV1(req *types.TransferRequestV1) (*types.TransferRequest, error) {
	signer, err := messageCodec.ParseAddress(req.Signer)
	if err != nil {
		return nil, err
	}
	recipient, err := messageCodec.ParseAddress(req.Recipient)
	if err != nil {
		return nil, err
	}
	if req.Amount == nil {
		return nil, relayErrors.Wrapf(relayErrors.ErrEncoding, "amount is required")
	}

	return &types.TransferRequest{
		Intent: types.TransferIntent{
			Signer:    signer,
			TokenID:   req.TokenID,
			Amount:    (*big.Int)(req.Amount),
			Recipient: recipient,
			Nonce:     req.Nonce,
		},
		Signature: req.Signature,
	}, nil
}

// handleGetBalance handles GET /balance?token=&owner=
func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	tokenID, err := parseUintParam(r, "token")
	if err != nil {
		s.writeError(w, err)
		return
	}
	owner, err := messageCodec.ParseAddress(r.URL.Query().Get("owner"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	balance, err := s.orchestrator.GetTokenBalance(tokenID, owner)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, types.BalanceResponseV1{
		TokenID: tokenID,
		Owner:   owner.Hex(),
		Balance: balance.String(),
	})
}

// handleGetToken handles GET /token?id=
func (s *Server) handleGetToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	id, err := parseUintParam(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	token, err := s.orchestrator.GetToken(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

// handleGetFee handles GET /fee
func (s *Server) handleGetFee(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	fee, err := s.orchestrator.GetRelayFee()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.FeeResponseV1{RelayFee: fee.String()})
}

// handleGetNonce handles GET /nonce?signer=&nonce=
func (s *Server) handleGetNonce(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	signer, err := messageCodec.ParseAddress(r.URL.Query().Get("signer"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	nonce, err := parseUintParam(r, "nonce")
	if err != nil {
		s.writeError(w, err)
		return
	}

	used, err := s.orchestrator.IsNonceUsed(signer, nonce)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.NonceResponseV1{Signer: signer.Hex(), Nonce: nonce, Used: used})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	if err := s.orchestrator.HealthCheck(); err != nil {
		s.logger.Sugar().Warnw("Health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, types.HealthResponseV1{Status: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, types.HealthResponseV1{Status: "ok"})
}

func parseUintParam(r *http.Request, name string) (uint64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, relayErrors.Wrapf(relayErrors.ErrEncoding, "query parameter %q is required", name)
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, relayErrors.Wrapf(relayErrors.ErrEncoding, "query parameter %q: %v", name, err)
	}
	return v, nil
}

func errorResponse(code, message string) types.ErrorResponseV1 {
	return types.ErrorResponseV1{Code: code, Message: message}
}

// errorBody hides the detail of errors that carry no relay code
func errorBody(err error) types.ErrorResponseV1 {
	code := relayErrors.CodeOf(err)
	if code == "" {
		return errorResponse(codeInternal, "internal error")
	}
	return errorResponse(string(code), relayErrors.MessageOf(err))
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	body := errorBody(err)
	if body.Code == codeInternal {
		s.logger.Sugar().Errorw("Request failed", "error", err)
	}
	writeJSON(w, relayErrors.HTTPStatus(err), body)
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse(codeMethodNotAllowed, "method not allowed"))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
