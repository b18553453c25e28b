package persistence

import (
	"errors"
	"math/big"

	"github.com/Layr-Labs/gasless-relay-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
)

// MaxTxnRetries bounds how often a backend re-runs a transaction function after an
// optimistic concurrency conflict before giving up.
const MaxTxnRetries = 64

var (
	// ErrStoreClosed is returned by every operation after Close.
	ErrStoreClosed = errors.New("persistence layer is closed")
	// ErrReadOnlyTxn is returned when a View transaction attempts a write.
	ErrReadOnlyTxn = errors.New("write attempted in read-only transaction")
	// ErrRecordExists is returned when a write-once record would be overwritten.
	ErrRecordExists = errors.New("record already exists")
)

// ILedgerTxn is the ledger state as seen from inside one transaction.
// Reads observe the transaction's own writes. Nothing is visible to other
// callers until the enclosing Update returns nil.
type ILedgerTxn interface {
	// GetBalance returns the balance of owner for tokenID, zero if no entry exists.
	GetBalance(tokenID uint64, owner common.Address) (*big.Int, error)

	// SetBalance overwrites the balance entry. Negative amounts are rejected.
	SetBalance(tokenID uint64, owner common.Address, amount *big.Int) error

	// IsNonceUsed reports whether (signer, nonce) has been consumed.
	IsNonceUsed(signer common.Address, nonce uint64) (bool, error)

	// MarkNonceUsed records (signer, nonce) as consumed.
	// Returns ErrRecordExists if the record is already present; nonce records are immutable.
	MarkNonceUsed(signer common.Address, nonce uint64) error

	// GetToken returns the descriptor for id, nil if not registered.
	GetToken(id uint64) (*types.TokenDescriptor, error)

	// PutToken stores a descriptor. Returns ErrRecordExists if the id is taken.
	PutToken(token *types.TokenDescriptor) error

	// GetRelayFee returns the current relay fee, zero if never set.
	GetRelayFee() (*big.Int, error)

	// SetRelayFee overwrites the relay fee.
	SetRelayFee(fee *big.Int) error
}

// ILedgerStore owns the nonce set, balance table, token table and relay fee.
// All implementations must be safe for concurrent use and give every Update
// serializable, all-or-nothing semantics.
type ILedgerStore interface {
	// Update runs fn in a read-write transaction and commits its writes only if fn returns nil.
	// The error returned by fn is passed through unchanged. fn may be invoked more than once
	// when the backend detects a conflicting concurrent commit, so it must not have side
	// effects outside the transaction.
	Update(fn func(txn ILedgerTxn) error) error

	// View runs fn in a read-only transaction.
	View(fn func(txn ILedgerTxn) error) error

	// Close cleanly shuts down the persistence layer. Idempotent.
	Close() error

	// HealthCheck verifies the persistence layer is operational.
	HealthCheck() error
}
