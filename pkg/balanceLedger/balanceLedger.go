package balanceLedger

import (
	"fmt"
	"math/big"

	"github.com/Layr-Labs/gasless-relay-go/pkg/messageCodec"
	"github.com/Layr-Labs/gasless-relay-go/pkg/persistence"
	"github.com/Layr-Labs/gasless-relay-go/pkg/relayErrors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"go.uber.org/zap"
)

// BalanceLedger holds per (token, owner) balances.
//
// Debit, Credit and Balance operate inside a caller supplied transaction so that a
// transfer's debit, credit and fee either all commit or none do. They never
// leave a partial write behind in txn on failure.
type BalanceLedger struct {
	store  persistence.ILedgerStore
	logger *zap.Logger
}

func NewBalanceLedger(store persistence.ILedgerStore, logger *zap.Logger) *BalanceLedger {
	return &BalanceLedger{
		store:  store,
		logger: logger,
	}
}

// Balance returns the balance of owner for tokenID as seen by txn
func (b *BalanceLedger) Balance(txn persistence.ILedgerTxn, tokenID uint64, owner common.Address) (*big.Int, error) {
	return txn.GetBalance(tokenID, owner)
}

// Debit subtracts amount from owner's balance.
// Returns ErrInsufficientBalance, without writing, if the balance is smaller than amount.
func (b *BalanceLedger) Debit(txn persistence.ILedgerTxn, tokenID uint64, owner common.Address, amount *big.Int) error {
	if err := messageCodec.ValidateAmount(amount); err != nil {
		return err
	}

	balance, err := txn.GetBalance(tokenID, owner)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return relayErrors.Wrapf(relayErrors.ErrInsufficientBalance,
			"%s holds %s of token %d, needs %s", owner.Hex(), balance, tokenID, amount)
	}
	if amount.Sign() == 0 {
		return nil
	}

	return txn.SetBalance(tokenID, owner, new(big.Int).Sub(balance, amount))
}

// Credit adds amount to owner's balance, creating the entry from zero.
// The token must be registered; an unknown token is ErrTransferFailed.
// A result above 2^256-1 is rejected with ErrEncoding.
func (b *BalanceLedger) Credit(txn persistence.ILedgerTxn, tokenID uint64, owner common.Address, amount *big.Int) error {
	if err := messageCodec.ValidateAmount(amount); err != nil {
		return err
	}

	token, err := txn.GetToken(tokenID)
	if err != nil {
		return err
	}
	if token == nil {
		return relayErrors.Wrapf(relayErrors.ErrTransferFailed, "token %d is not registered", tokenID)
	}

	balance, err := txn.GetBalance(tokenID, owner)
	if err != nil {
		return err
	}
	updated := new(big.Int).Add(balance, amount)
	if updated.Cmp(math.MaxBig256) > 0 {
		return relayErrors.Wrapf(relayErrors.ErrEncoding, "balance of %s for token %d would exceed uint256", owner.Hex(), tokenID)
	}
	if amount.Sign() == 0 {
		return nil
	}

	return txn.SetBalance(tokenID, owner, updated)
}

// GetBalance reads a committed balance outside any transfer
func (b *BalanceLedger) GetBalance(tokenID uint64, owner common.Address) (*big.Int, error) {
	var balance *big.Int
	err := b.store.View(func(txn persistence.ILedgerTxn) error {
		var err error
		balance, err = txn.GetBalance(tokenID, owner)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}
	return balance, nil
}
