package orchestrator

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/Layr-Labs/gasless-relay-go/pkg/balanceLedger"
	"github.com/Layr-Labs/gasless-relay-go/pkg/feePolicy"
	"github.com/Layr-Labs/gasless-relay-go/pkg/messageCodec"
	"github.com/Layr-Labs/gasless-relay-go/pkg/nonceLedger"
	"github.com/Layr-Labs/gasless-relay-go/pkg/persistence"
	"github.com/Layr-Labs/gasless-relay-go/pkg/relayErrors"
	"github.com/Layr-Labs/gasless-relay-go/pkg/signatureVerifier"
	"github.com/Layr-Labs/gasless-relay-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TransferOrchestrator authorizes signed transfer intents and settles them against the ledger.
//
// A transfer moves through
//
//	received -> nonce_checked -> signature_verified -> token_validated -> balance_validated -> settled
//
// and may be rejected at any step. The nonce is consumed in its own transaction before the
// signature is checked, so it stays consumed whatever happens afterwards. Token and balance
// checks, the debit, the credit and the fee then run in a single transaction: either all of
// them commit or none do.
type TransferOrchestrator struct {
	owner    common.Address
	store    persistence.ILedgerStore
	nonces   *nonceLedger.NonceLedger
	verifier signatureVerifier.ISignatureVerifier
	balances *balanceLedger.BalanceLedger
	fees     *feePolicy.FeePolicy
	logger   *zap.Logger
}

// Config holds orchestrator configuration
type Config struct {
	// Owner is the only caller allowed to register tokens, seed balances and set the fee
	Owner common.Address
	// FeeCollector receives relay fees. Defaults to Owner.
	FeeCollector common.Address
	// Verifier defaults to secp256k1 recovery
	Verifier signatureVerifier.ISignatureVerifier
}

func NewTransferOrchestrator(cfg *Config, store persistence.ILedgerStore, logger *zap.Logger) (*TransferOrchestrator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("orchestrator config cannot be nil")
	}
	if cfg.Owner == (common.Address{}) {
		return nil, fmt.Errorf("owner address cannot be the zero address")
	}
	if store == nil {
		return nil, fmt.Errorf("ledger store cannot be nil")
	}

	verifier := cfg.Verifier
	if verifier == nil {
		verifier = signatureVerifier.NewECDSAVerifier()
	}

	balances := balanceLedger.NewBalanceLedger(store, logger)
	fees := feePolicy.NewFeePolicy(store, balances, &feePolicy.FeePolicyConfig{
		Owner:     cfg.Owner,
		Collector: cfg.FeeCollector,
	}, logger)

	logger.Sugar().Infow("Transfer orchestrator initialized",
		"owner", cfg.Owner.Hex(),
		"fee_collector", fees.Collector().Hex(),
	)

	return &TransferOrchestrator{
		owner:    cfg.Owner,
		store:    store,
		nonces:   nonceLedger.NewNonceLedger(store, logger),
		verifier: verifier,
		balances: balances,
		fees:     fees,
		logger:   logger,
	}, nil
}

// Owner returns the ledger owner
func (o *TransferOrchestrator) Owner() common.Address {
	return o.owner
}

// FeeCollector returns the address relay fees are paid to
func (o *TransferOrchestrator) FeeCollector() common.Address {
	return o.fees.Collector()
}

func (o *TransferOrchestrator) requireOwner(caller common.Address, action string) error {
	if caller != o.owner {
		o.logger.Sugar().Warnw("Rejected admin operation from non-owner", "caller", caller.Hex(), "action", action)
		return relayErrors.Wrapf(relayErrors.ErrNotAuthorized, "%s cannot %s", caller.Hex(), action)
	}
	return nil
}

// RegisterToken stores the descriptor for a new token id. Owner only; ids are write-once.
func (o *TransferOrchestrator) RegisterToken(caller common.Address, id uint64, name, symbol string, decimals uint8) error {
	if err := o.requireOwner(caller, "register tokens"); err != nil {
		return err
	}

	token := &types.TokenDescriptor{ID: id, Name: name, Symbol: symbol, Decimals: decimals}
	err := o.store.Update(func(txn persistence.ILedgerTxn) error {
		return txn.PutToken(token)
	})
	if errors.Is(err, persistence.ErrRecordExists) {
		return relayErrors.Wrapf(relayErrors.ErrTokenExists, "token %d", id)
	}
	if err != nil {
		return fmt.Errorf("failed to register token: %w", err)
	}

	o.logger.Sugar().Infow("Token registered", "token_id", id, "name", name, "symbol", symbol, "decimals", decimals)
	return nil
}

// UpdateRelayFee replaces the relay fee. Owner only.
func (o *TransferOrchestrator) UpdateRelayFee(caller common.Address, newFee *big.Int) error {
	if err := o.requireOwner(caller, "update the relay fee"); err != nil {
		return err
	}
	return o.fees.SetFee(caller, newFee)
}

// SeedBalance credits amount of a registered token to holder. Owner only.
func (o *TransferOrchestrator) SeedBalance(caller common.Address, tokenID uint64, holder common.Address, amount *big.Int) error {
	if err := o.requireOwner(caller, "seed balances"); err != nil {
		return err
	}
	if holder == (common.Address{}) {
		return relayErrors.Wrapf(relayErrors.ErrEncoding, "holder is the zero address")
	}

	err := o.store.Update(func(txn persistence.ILedgerTxn) error {
		return o.balances.Credit(txn, tokenID, holder, amount)
	})
	if err != nil {
		if relayErrors.CodeOf(err) != "" {
			return err
		}
		return fmt.Errorf("failed to seed balance: %w", err)
	}

	o.logger.Sugar().Infow("Balance seeded", "token_id", tokenID, "holder", holder.Hex(), "amount", amount.String())
	return nil
}

// GetTokenBalance returns the committed balance of holder for tokenID
func (o *TransferOrchestrator) GetTokenBalance(tokenID uint64, holder common.Address) (*big.Int, error) {
	return o.balances.GetBalance(tokenID, holder)
}

// GetToken returns the descriptor of a registered token, ErrTransferFailed if unknown
func (o *TransferOrchestrator) GetToken(id uint64) (*types.TokenDescriptor, error) {
	var token *types.TokenDescriptor
	err := o.store.View(func(txn persistence.ILedgerTxn) error {
		var err error
		token, err = txn.GetToken(id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}
	if token == nil {
		return nil, relayErrors.Wrapf(relayErrors.ErrTransferFailed, "token %d is not registered", id)
	}
	return token, nil
}

// GetRelayFee returns the current relay fee
func (o *TransferOrchestrator) GetRelayFee() (*big.Int, error) {
	return o.fees.CurrentFee()
}

// IsNonceUsed reports whether (signer, nonce) has been consumed
func (o *TransferOrchestrator) IsNonceUsed(signer common.Address, nonce uint64) (bool, error) {
	return o.nonces.IsUsed(signer, nonce)
}

// HealthCheck reports whether the ledger store is reachable
func (o *TransferOrchestrator) HealthCheck() error {
	return o.store.HealthCheck()
}

// ExecuteGaslessTransfer authorizes and settles one signed transfer.
//
// The receipt is always returned, also alongside an error, and records the last state the
// transfer reached. Domain rejections carry a relayErrors code; any other error is a
// storage failure.
func (o *TransferOrchestrator) ExecuteGaslessTransfer(req *types.TransferRequest) (*types.TransferReceipt, error) {
	receipt := &types.TransferReceipt{
		ID:    uuid.New().String(),
		State: types.TransferStateReceived,
		Fee:   new(big.Int),
	}

	if req == nil {
		return o.reject(receipt, nil, relayErrors.Wrapf(relayErrors.ErrEncoding, "request is nil"))
	}
	intent := &req.Intent

	// no nonce is consumed for an intent that has no canonical encoding
	hash, err := messageCodec.Hash(intent)
	if err != nil {
		return o.reject(receipt, intent, err)
	}
	receipt.IntentHash = hash

	if err := o.nonces.Consume(intent.Signer, intent.Nonce); err != nil {
		return o.reject(receipt, intent, err)
	}
	receipt.State = types.TransferStateNonceChecked

	valid, err := o.verifier.Verify(hash, req.Signature, intent.Signer)
	if err != nil {
		return o.reject(receipt, intent, err)
	}
	if !valid {
		return o.reject(receipt, intent, relayErrors.Wrapf(relayErrors.ErrInvalidSignature, "signature does not match %s", intent.Signer.Hex()))
	}
	receipt.State = types.TransferStateSignatureVerified

	// fn may run more than once on conflict; state is reset on every attempt
	reached := types.TransferStateSignatureVerified
	var fee *big.Int
	err = o.store.Update(func(txn persistence.ILedgerTxn) error {
		reached = types.TransferStateSignatureVerified

		token, err := txn.GetToken(intent.TokenID)
		if err != nil {
			return err
		}
		if token == nil {
			return relayErrors.Wrapf(relayErrors.ErrTransferFailed, "token %d is not registered", intent.TokenID)
		}
		reached = types.TransferStateTokenValidated

		balance, err := o.balances.Balance(txn, intent.TokenID, intent.Signer)
		if err != nil {
			return err
		}
		if balance.Cmp(intent.Amount) < 0 {
			return relayErrors.Wrapf(relayErrors.ErrInsufficientBalance,
				"%s holds %s of token %d, needs %s", intent.Signer.Hex(), balance, intent.TokenID, intent.Amount)
		}
		reached = types.TransferStateBalanceValidated

		if err := o.balances.Debit(txn, intent.TokenID, intent.Signer, intent.Amount); err != nil {
			return err
		}
		if err := o.balances.Credit(txn, intent.TokenID, intent.Recipient, intent.Amount); err != nil {
			return err
		}
		fee, err = o.fees.Charge(txn, intent.TokenID, intent.Signer)
		return err
	})
	receipt.State = reached
	if err != nil {
		return o.reject(receipt, intent, err)
	}

	receipt.State = types.TransferStateSettled
	receipt.Fee = fee

	o.logger.Sugar().Infow("Gasless transfer settled",
		"receipt_id", receipt.ID,
		"intent_hash", hash.Hex(),
		"signer", intent.Signer.Hex(),
		"recipient", intent.Recipient.Hex(),
		"token_id", intent.TokenID,
		"amount", intent.Amount.String(),
		"nonce", intent.Nonce,
		"fee", fee.String(),
	)
	return receipt, nil
}

func (o *TransferOrchestrator) reject(receipt *types.TransferReceipt, intent *types.TransferIntent, err error) (*types.TransferReceipt, error) {
	receipt.LastState = receipt.State
	receipt.State = types.TransferStateRejected
	receipt.RejectCode = string(relayErrors.CodeOf(err))

	fields := []interface{}{
		"receipt_id", receipt.ID,
		"last_state", receipt.LastState,
		"error", err,
	}
	if intent != nil {
		fields = append(fields, "intent", messageCodec.String(intent))
	}

	if receipt.RejectCode == "" {
		o.logger.Sugar().Errorw("Gasless transfer failed", fields...)
	} else {
		fields = append(fields, "code", receipt.RejectCode)
		o.logger.Sugar().Infow("Gasless transfer rejected", fields...)
	}
	return receipt, err
}
