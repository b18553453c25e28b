package testutil

import (
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/Layr-Labs/gasless-relay-go/pkg/logger"
	"github.com/Layr-Labs/gasless-relay-go/pkg/messageCodec"
	"github.com/Layr-Labs/gasless-relay-go/pkg/persistence"
	"github.com/Layr-Labs/gasless-relay-go/pkg/persistence/badger"
	"github.com/Layr-Labs/gasless-relay-go/pkg/persistence/memory"
	"github.com/Layr-Labs/gasless-relay-go/pkg/persistence/redis"
	"github.com/Layr-Labs/gasless-relay-go/pkg/types"
	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestAccount is a secp256k1 key and its address
type TestAccount struct {
	PrivateKey *ecdsa.PrivateKey
	Address    common.Address
}

// NewTestAccount generates a fresh random account
func NewTestAccount(t *testing.T) *TestAccount {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &TestAccount{PrivateKey: key, Address: crypto.PubkeyToAddress(key.PublicKey)}
}

// NewTestLogger returns a production-level logger for tests
func NewTestLogger(t *testing.T) *zap.Logger {
	t.Helper()
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	require.NoError(t, err)
	return l
}

// SignIntent signs the canonical hash of intent with the account's key
func (a *TestAccount) SignIntent(t *testing.T, intent *types.TransferIntent) []byte {
	t.Helper()
	hash, err := messageCodec.Hash(intent)
	require.NoError(t, err)
	sig, err := crypto.Sign(hash.Bytes(), a.PrivateKey)
	require.NoError(t, err)
	return sig
}

// NewSignedRequest builds an intent from a to recipient and signs it
func (a *TestAccount) NewSignedRequest(t *testing.T, tokenID uint64, amount int64, recipient common.Address, nonce uint64) *types.TransferRequest {
	t.Helper()
	intent := types.TransferIntent{
		Signer:    a.Address,
		TokenID:   tokenID,
		Amount:    big.NewInt(amount),
		Recipient: recipient,
		Nonce:     nonce,
	}
	return &types.TransferRequest{Intent: intent, Signature: a.SignIntent(t, &intent)}
}

// NewTestStores opens one store per backend. Stores are closed on test cleanup.
func NewTestStores(t *testing.T) map[string]persistence.ILedgerStore {
	t.Helper()
	l := NewTestLogger(t)

	bp, err := badger.NewBadgerPersistence(t.TempDir(), l)
	require.NoError(t, err)

	rp, err := redis.NewRedisPersistence(&redis.RedisConfig{Address: miniredis.RunT(t).Addr()}, l)
	require.NoError(t, err)

	stores := map[string]persistence.ILedgerStore{
		"memory": memory.NewMemoryPersistence(),
		"badger": bp,
		"redis":  rp,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

// PutToken registers a token directly in the store
func PutToken(t *testing.T, store persistence.ILedgerStore, token *types.TokenDescriptor) {
	t.Helper()
	require.NoError(t, store.Update(func(txn persistence.ILedgerTxn) error {
		return txn.PutToken(token)
	}))
}

// SetBalance overwrites a balance directly in the store
func SetBalance(t *testing.T, store persistence.ILedgerStore, tokenID uint64, owner common.Address, amount int64) {
	t.Helper()
	require.NoError(t, store.Update(func(txn persistence.ILedgerTxn) error {
		return txn.SetBalance(tokenID, owner, big.NewInt(amount))
	}))
}

// Balance reads a committed balance directly from the store
func Balance(t *testing.T, store persistence.ILedgerStore, tokenID uint64, owner common.Address) *big.Int {
	t.Helper()
	var bal *big.Int
	require.NoError(t, store.View(func(txn persistence.ILedgerTxn) error {
		var err error
		bal, err = txn.GetBalance(tokenID, owner)
		return err
	}))
	return bal
}

// TotalSupply sums the balances of token over holders
func TotalSupply(t *testing.T, store persistence.ILedgerStore, tokenID uint64, holders ...common.Address) *big.Int {
	t.Helper()
	total := new(big.Int)
	for _, h := range holders {
		total.Add(total, Balance(t, store, tokenID, h))
	}
	return total
}
