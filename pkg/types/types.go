package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TransferIntent is what a signer authorizes off-chain. It only lives for the
// duration of one authorization and settlement call.
type TransferIntent struct {
	Signer    common.Address
	TokenID   uint64
	Amount    *big.Int
	Recipient common.Address
	Nonce     uint64
}

// TransferRequest is an intent plus the signer's 65 byte secp256k1 signature
// over keccak256(abi.encode(intent)).
type TransferRequest struct {
	Intent    TransferIntent
	Signature []byte
}

// TokenDescriptor is the registered metadata for a token id. Write-once.
type TokenDescriptor struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// TransferState is a step of the authorize-then-settle state machine.
type TransferState string

const (
	TransferStateReceived          TransferState = "received"
	TransferStateNonceChecked      TransferState = "nonce_checked"
	TransferStateSignatureVerified TransferState = "signature_verified"
	TransferStateTokenValidated    TransferState = "token_validated"
	TransferStateBalanceValidated  TransferState = "balance_validated"
	TransferStateSettled           TransferState = "settled"
	TransferStateRejected          TransferState = "rejected"
)

// IsTerminal reports whether no further transitions are possible.
func (s TransferState) IsTerminal() bool {
	return s == TransferStateSettled || s == TransferStateRejected
}

// TransferReceipt records how far a transfer got. RejectCode is set only when
// State is TransferStateRejected; LastState is the last state reached before that.
type TransferReceipt struct {
	ID         string
	IntentHash common.Hash
	State      TransferState
	LastState  TransferState
	Fee        *big.Int
	RejectCode string
}
