package types

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
)

// TransferRequestV1 is the wire form of a gasless transfer submitted by a relayer.
// Amount accepts decimal or 0x-prefixed hex.
type TransferRequestV1 struct {
	Signer    string                `json:"signer"`
	TokenID   uint64                `json:"token_id"`
	Amount    *math.HexOrDecimal256 `json:"amount"`
	Recipient string                `json:"recipient"`
	Nonce     uint64                `json:"nonce"`
	Signature hexutil.Bytes         `json:"signature"`
}

// TransferResponseV1 is returned for a settled transfer
type TransferResponseV1 struct {
	ReceiptID  string `json:"receipt_id"`
	IntentHash string `json:"intent_hash"`
	State      string `json:"state"`
	Fee        string `json:"fee"`
}

// BalanceResponseV1 is returned by GET /balance
type BalanceResponseV1 struct {
	TokenID uint64 `json:"token_id"`
	Owner   string `json:"owner"`
	Balance string `json:"balance"`
}

// NonceResponseV1 is returned by GET /nonce
type NonceResponseV1 struct {
	Signer string `json:"signer"`
	Nonce  uint64 `json:"nonce"`
	Used   bool   `json:"used"`
}

// FeeResponseV1 is returned by GET /fee
type FeeResponseV1 struct {
	RelayFee string `json:"relay_fee"`
}

// HealthResponseV1 is returned by GET /health
type HealthResponseV1 struct {
	Status string `json:"status"`
}

// ErrorResponseV1 is the body of every non-2xx response.
// ReceiptID is set when a transfer was rejected after it was received.
type ErrorResponseV1 struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	ReceiptID string `json:"receipt_id,omitempty"`
	State     string `json:"last_state,omitempty"`
}
