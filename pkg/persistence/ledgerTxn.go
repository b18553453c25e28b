package persistence

import (
	"fmt"
	"math/big"

	"github.com/Layr-Labs/gasless-relay-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
)

// IRawTxn is the byte-level view a backend exposes for one transaction.
// Get must observe earlier Sets made through the same IRawTxn.
type IRawTxn interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
}

// LedgerTxn implements ILedgerTxn on top of any IRawTxn, so every backend
// shares one encoding of ledger records.
type LedgerTxn struct {
	raw IRawTxn
}

var _ ILedgerTxn = (*LedgerTxn)(nil)

// NewLedgerTxn wraps a backend transaction
func NewLedgerTxn(raw IRawTxn) *LedgerTxn {
	return &LedgerTxn{raw: raw}
}

func (t *LedgerTxn) getAmount(key string) (*big.Int, error) {
	data, found, err := t.raw.Get(key)
	if err != nil {
		return nil, err
	}
	if !found {
		return new(big.Int), nil
	}
	return UnmarshalAmount(data)
}

func (t *LedgerTxn) setAmount(key string, v *big.Int) error {
	data, err := MarshalAmount(v)
	if err != nil {
		return err
	}
	return t.raw.Set(key, data)
}

func (t *LedgerTxn) GetBalance(tokenID uint64, owner common.Address) (*big.Int, error) {
	v, err := t.getAmount(BalanceKey(tokenID, owner))
	if err != nil {
		return nil, fmt.Errorf("failed to read balance of %s for token %d: %w", owner.Hex(), tokenID, err)
	}
	return v, nil
}

func (t *LedgerTxn) SetBalance(tokenID uint64, owner common.Address, amount *big.Int) error {
	return t.setAmount(BalanceKey(tokenID, owner), amount)
}

func (t *LedgerTxn) IsNonceUsed(signer common.Address, nonce uint64) (bool, error) {
	_, found, err := t.raw.Get(NonceKey(signer, nonce))
	if err != nil {
		return false, fmt.Errorf("failed to read nonce %d of %s: %w", nonce, signer.Hex(), err)
	}
	return found, nil
}

func (t *LedgerTxn) MarkNonceUsed(signer common.Address, nonce uint64) error {
	key := NonceKey(signer, nonce)
	_, found, err := t.raw.Get(key)
	if err != nil {
		return fmt.Errorf("failed to read nonce %d of %s: %w", nonce, signer.Hex(), err)
	}
	if found {
		return fmt.Errorf("nonce %d of %s: %w", nonce, signer.Hex(), ErrRecordExists)
	}
	return t.raw.Set(key, nonceConsumed)
}

func (t *LedgerTxn) GetToken(id uint64) (*types.TokenDescriptor, error) {
	data, found, err := t.raw.Get(TokenKey(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read token %d: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	return UnmarshalTokenDescriptor(data)
}

func (t *LedgerTxn) PutToken(token *types.TokenDescriptor) error {
	data, err := MarshalTokenDescriptor(token)
	if err != nil {
		return err
	}

	key := TokenKey(token.ID)
	_, found, err := t.raw.Get(key)
	if err != nil {
		return fmt.Errorf("failed to read token %d: %w", token.ID, err)
	}
	if found {
		return fmt.Errorf("token %d: %w", token.ID, ErrRecordExists)
	}
	return t.raw.Set(key, data)
}

func (t *LedgerTxn) GetRelayFee() (*big.Int, error) {
	v, err := t.getAmount(KeyRelayFee)
	if err != nil {
		return nil, fmt.Errorf("failed to read relay fee: %w", err)
	}
	return v, nil
}

func (t *LedgerTxn) SetRelayFee(fee *big.Int) error {
	return t.setAmount(KeyRelayFee, fee)
}
