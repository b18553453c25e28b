package feePolicy

import (
	"fmt"
	"math/big"

	"github.com/Layr-Labs/gasless-relay-go/pkg/balanceLedger"
	"github.com/Layr-Labs/gasless-relay-go/pkg/messageCodec"
	"github.com/Layr-Labs/gasless-relay-go/pkg/persistence"
	"github.com/Layr-Labs/gasless-relay-go/pkg/relayErrors"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// FeePolicy collects the relay fee. The fee is a flat amount of whichever token
// is being transferred, paid by the sender to the fee collector.
// Transfers sent by the owner are exempt.
type FeePolicy struct {
	store     persistence.ILedgerStore
	balances  *balanceLedger.BalanceLedger
	owner     common.Address
	collector common.Address
	logger    *zap.Logger
}

type FeePolicyConfig struct {
	Owner common.Address
	// Defaults to Owner when zero
	Collector common.Address
}

func NewFeePolicy(
	store persistence.ILedgerStore,
	balances *balanceLedger.BalanceLedger,
	cfg *FeePolicyConfig,
	logger *zap.Logger,
) *FeePolicy {
	collector := cfg.Collector
	if collector == (common.Address{}) {
		collector = cfg.Owner
	}
	return &FeePolicy{
		store:     store,
		balances:  balances,
		owner:     cfg.Owner,
		collector: collector,
		logger:    logger,
	}
}

// Collector returns the address fees are credited to
func (f *FeePolicy) Collector() common.Address {
	return f.collector
}

// Charge moves the current relay fee from sender to the collector inside txn and
// returns the amount charged. Any failure is ErrRelayFeeFailed; the caller must
// then discard txn.
func (f *FeePolicy) Charge(txn persistence.ILedgerTxn, tokenID uint64, sender common.Address) (*big.Int, error) {
	if sender == f.owner {
		return new(big.Int), nil
	}

	fee, err := txn.GetRelayFee()
	if err != nil {
		return nil, err
	}
	if fee.Sign() == 0 {
		return fee, nil
	}

	if err := f.balances.Debit(txn, tokenID, sender, fee); err != nil {
		if relayErrors.CodeOf(err) == "" {
			return nil, err
		}
		return nil, relayErrors.Wrap(relayErrors.ErrRelayFeeFailed, err)
	}
	if err := f.balances.Credit(txn, tokenID, f.collector, fee); err != nil {
		if relayErrors.CodeOf(err) == "" {
			return nil, err
		}
		return nil, relayErrors.Wrap(relayErrors.ErrRelayFeeFailed, err)
	}

	return fee, nil
}

// SetFee replaces the relay fee. Only the owner may call it.
func (f *FeePolicy) SetFee(caller common.Address, newFee *big.Int) error {
	if caller != f.owner {
		return relayErrors.Wrapf(relayErrors.ErrNotAuthorized, "%s cannot update the relay fee", caller.Hex())
	}
	if err := messageCodec.ValidateAmount(newFee); err != nil {
		return err
	}

	var previous *big.Int
	err := f.store.Update(func(txn persistence.ILedgerTxn) error {
		var err error
		if previous, err = txn.GetRelayFee(); err != nil {
			return err
		}
		return txn.SetRelayFee(newFee)
	})
	if err != nil {
		return fmt.Errorf("failed to update relay fee: %w", err)
	}

	f.logger.Sugar().Infow("Relay fee updated", "previous", previous.String(), "fee", newFee.String())
	return nil
}

// CurrentFee returns the committed relay fee
func (f *FeePolicy) CurrentFee() (*big.Int, error) {
	var fee *big.Int
	err := f.store.View(func(txn persistence.ILedgerTxn) error {
		var err error
		fee, err = txn.GetRelayFee()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read relay fee: %w", err)
	}
	return fee, nil
}
