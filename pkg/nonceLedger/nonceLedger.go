package nonceLedger

import (
	"errors"
	"fmt"

	"github.com/Layr-Labs/gasless-relay-go/pkg/persistence"
	"github.com/Layr-Labs/gasless-relay-go/pkg/relayErrors"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// NonceLedger tracks which (signer, nonce) pairs have been consumed.
// A consumed pair is never released, whatever happens to the transfer that consumed it.
type NonceLedger struct {
	store  persistence.ILedgerStore
	logger *zap.Logger
}

func NewNonceLedger(store persistence.ILedgerStore, logger *zap.Logger) *NonceLedger {
	return &NonceLedger{
		store:  store,
		logger: logger,
	}
}

// Consume marks (signer, nonce) as used in its own committed transaction.
// Of any number of concurrent calls for the same pair exactly one returns nil;
// the rest get ErrNonceUsed.
func (n *NonceLedger) Consume(signer common.Address, nonce uint64) error {
	err := n.store.Update(func(txn persistence.ILedgerTxn) error {
		return txn.MarkNonceUsed(signer, nonce)
	})
	if errors.Is(err, persistence.ErrRecordExists) {
		n.logger.Sugar().Debugw("Rejected reused nonce", "signer", signer.Hex(), "nonce", nonce)
		return relayErrors.Wrapf(relayErrors.ErrNonceUsed, "nonce %d of %s", nonce, signer.Hex())
	}
	if err != nil {
		return fmt.Errorf("failed to consume nonce: %w", err)
	}
	return nil
}

// IsUsed reports whether (signer, nonce) has been consumed
func (n *NonceLedger) IsUsed(signer common.Address, nonce uint64) (bool, error) {
	var used bool
	err := n.store.View(func(txn persistence.ILedgerTxn) error {
		var err error
		used, err = txn.IsNonceUsed(signer, nonce)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to read nonce: %w", err)
	}
	return used, nil
}
