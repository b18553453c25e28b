// Package storetest holds the behaviour every ILedgerStore backend must share.
package storetest

import (
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Layr-Labs/gasless-relay-go/pkg/persistence"
	"github.com/Layr-Labs/gasless-relay-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	ownerA = common.HexToAddress("0x1111111111111111111111111111111111111111")
	ownerB = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

// RunLedgerStoreTests runs the shared suite. newStore must return a fresh, empty store.
func RunLedgerStoreTests(t *testing.T, newStore func(t *testing.T) persistence.ILedgerStore) {
	t.Run("BalanceDefaultsToZero", func(t *testing.T) { testBalanceDefaultsToZero(t, newStore(t)) })
	t.Run("CommitAndRead", func(t *testing.T) { testCommitAndRead(t, newStore(t)) })
	t.Run("RollbackOnError", func(t *testing.T) { testRollbackOnError(t, newStore(t)) })
	t.Run("ReadYourWrites", func(t *testing.T) { testReadYourWrites(t, newStore(t)) })
	t.Run("NonceRecordsAreImmutable", func(t *testing.T) { testNonceRecordsAreImmutable(t, newStore(t)) })
	t.Run("TokensAreWriteOnce", func(t *testing.T) { testTokensAreWriteOnce(t, newStore(t)) })
	t.Run("RelayFee", func(t *testing.T) { testRelayFee(t, newStore(t)) })
	t.Run("ViewIsReadOnly", func(t *testing.T) { testViewIsReadOnly(t, newStore(t)) })
	t.Run("RejectsNegativeBalance", func(t *testing.T) { testRejectsNegativeBalance(t, newStore(t)) })
	t.Run("ConcurrentIncrementsSerialize", func(t *testing.T) { testConcurrentIncrementsSerialize(t, newStore(t)) })
	t.Run("ConcurrentNonceSingleWinner", func(t *testing.T) { testConcurrentNonceSingleWinner(t, newStore(t)) })
	t.Run("Close", func(t *testing.T) { testClose(t, newStore(t)) })
}

func balanceOf(t *testing.T, store persistence.ILedgerStore, token uint64, owner common.Address) *big.Int {
	t.Helper()
	var bal *big.Int
	require.NoError(t, store.View(func(txn persistence.ILedgerTxn) error {
		var err error
		bal, err = txn.GetBalance(token, owner)
		return err
	}))
	return bal
}

func testBalanceDefaultsToZero(t *testing.T, store persistence.ILedgerStore) {
	defer func() { _ = store.Close() }()
	assert.Equal(t, 0, balanceOf(t, store, 1, ownerA).Sign())
}

func testCommitAndRead(t *testing.T, store persistence.ILedgerStore) {
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Update(func(txn persistence.ILedgerTxn) error {
		if err := txn.SetBalance(1, ownerA, big.NewInt(100)); err != nil {
			return err
		}
		return txn.SetBalance(1, ownerB, big.NewInt(5))
	}))

	assert.Equal(t, int64(100), balanceOf(t, store, 1, ownerA).Int64())
	assert.Equal(t, int64(5), balanceOf(t, store, 1, ownerB).Int64())
	assert.Equal(t, 0, balanceOf(t, store, 2, ownerA).Sign(), "balances are per token")
}

func testRollbackOnError(t *testing.T, store persistence.ILedgerStore) {
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Update(func(txn persistence.ILedgerTxn) error {
		return txn.SetBalance(1, ownerA, big.NewInt(100))
	}))

	sentinel := errors.New("abort settlement")
	err := store.Update(func(txn persistence.ILedgerTxn) error {
		if err := txn.SetBalance(1, ownerA, big.NewInt(60)); err != nil {
			return err
		}
		if err := txn.SetBalance(1, ownerB, big.NewInt(40)); err != nil {
			return err
		}
		if err := txn.MarkNonceUsed(ownerA, 9); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	assert.Equal(t, int64(100), balanceOf(t, store, 1, ownerA).Int64())
	assert.Equal(t, 0, balanceOf(t, store, 1, ownerB).Sign())

	require.NoError(t, store.View(func(txn persistence.ILedgerTxn) error {
		used, err := txn.IsNonceUsed(ownerA, 9)
		require.NoError(t, err)
		assert.False(t, used)
		return nil
	}))
}

func testReadYourWrites(t *testing.T, store persistence.ILedgerStore) {
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Update(func(txn persistence.ILedgerTxn) error {
		require.NoError(t, txn.SetBalance(3, ownerA, big.NewInt(7)))
		bal, err := txn.GetBalance(3, ownerA)
		require.NoError(t, err)
		assert.Equal(t, int64(7), bal.Int64())

		require.NoError(t, txn.MarkNonceUsed(ownerA, 1))
		used, err := txn.IsNonceUsed(ownerA, 1)
		require.NoError(t, err)
		assert.True(t, used)
		return nil
	}))
}

func testNonceRecordsAreImmutable(t *testing.T, store persistence.ILedgerStore) {
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Update(func(txn persistence.ILedgerTxn) error {
		return txn.MarkNonceUsed(ownerA, 7)
	}))

	err := store.Update(func(txn persistence.ILedgerTxn) error {
		return txn.MarkNonceUsed(ownerA, 7)
	})
	require.ErrorIs(t, err, persistence.ErrRecordExists)

	require.NoError(t, store.View(func(txn persistence.ILedgerTxn) error {
		used, err := txn.IsNonceUsed(ownerA, 7)
		require.NoError(t, err)
		assert.True(t, used)

		used, err = txn.IsNonceUsed(ownerB, 7)
		require.NoError(t, err)
		assert.False(t, used, "nonces are scoped per signer")

		used, err = txn.IsNonceUsed(ownerA, 8)
		require.NoError(t, err)
		assert.False(t, used)
		return nil
	}))
}

func testTokensAreWriteOnce(t *testing.T, store persistence.ILedgerStore) {
	defer func() { _ = store.Close() }()

	coin := &types.TokenDescriptor{ID: 1, Name: "Coin", Symbol: "CN", Decimals: 6}
	require.NoError(t, store.Update(func(txn persistence.ILedgerTxn) error {
		return txn.PutToken(coin)
	}))

	err := store.Update(func(txn persistence.ILedgerTxn) error {
		return txn.PutToken(&types.TokenDescriptor{ID: 1, Name: "Other", Symbol: "OT", Decimals: 18})
	})
	require.ErrorIs(t, err, persistence.ErrRecordExists)

	require.NoError(t, store.View(func(txn persistence.ILedgerTxn) error {
		loaded, err := txn.GetToken(1)
		require.NoError(t, err)
		assert.Equal(t, coin, loaded)

		missing, err := txn.GetToken(2)
		require.NoError(t, err)
		assert.Nil(t, missing)
		return nil
	}))
}

func testRelayFee(t *testing.T, store persistence.ILedgerStore) {
	defer func() { _ = store.Close() }()

	require.NoError(t, store.View(func(txn persistence.ILedgerTxn) error {
		fee, err := txn.GetRelayFee()
		require.NoError(t, err)
		assert.Equal(t, 0, fee.Sign())
		return nil
	}))

	require.NoError(t, store.Update(func(txn persistence.ILedgerTxn) error {
		return txn.SetRelayFee(big.NewInt(3))
	}))

	require.NoError(t, store.View(func(txn persistence.ILedgerTxn) error {
		fee, err := txn.GetRelayFee()
		require.NoError(t, err)
		assert.Equal(t, int64(3), fee.Int64())
		return nil
	}))
}

func testViewIsReadOnly(t *testing.T, store persistence.ILedgerStore) {
	defer func() { _ = store.Close() }()

	err := store.View(func(txn persistence.ILedgerTxn) error {
		return txn.SetBalance(1, ownerA, big.NewInt(1))
	})
	require.ErrorIs(t, err, persistence.ErrReadOnlyTxn)
	assert.Equal(t, 0, balanceOf(t, store, 1, ownerA).Sign())
}

func testRejectsNegativeBalance(t *testing.T, store persistence.ILedgerStore) {
	defer func() { _ = store.Close() }()

	err := store.Update(func(txn persistence.ILedgerTxn) error {
		return txn.SetBalance(1, ownerA, big.NewInt(-1))
	})
	require.Error(t, err)
	assert.Equal(t, 0, balanceOf(t, store, 1, ownerA).Sign())
}

func testConcurrentIncrementsSerialize(t *testing.T, store persistence.ILedgerStore) {
	defer func() { _ = store.Close() }()

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.Update(func(txn persistence.ILedgerTxn) error {
				bal, err := txn.GetBalance(1, ownerA)
				if err != nil {
					return err
				}
				return txn.SetBalance(1, ownerA, bal.Add(bal, big.NewInt(1)))
			})
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int64(workers), balanceOf(t, store, 1, ownerA).Int64())
}

func testConcurrentNonceSingleWinner(t *testing.T, store persistence.ILedgerStore) {
	defer func() { _ = store.Close() }()

	const workers = 16
	var wg sync.WaitGroup
	var winners, losers atomic.Int32

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Update(func(txn persistence.ILedgerTxn) error {
				used, err := txn.IsNonceUsed(ownerA, 42)
				if err != nil {
					return err
				}
				if used {
					return persistence.ErrRecordExists
				}
				return txn.MarkNonceUsed(ownerA, 42)
			})
			switch {
			case err == nil:
				winners.Add(1)
			case errors.Is(err, persistence.ErrRecordExists):
				losers.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
	assert.Equal(t, int32(workers-1), losers.Load())
}

func testClose(t *testing.T, store persistence.ILedgerStore) {
	require.NoError(t, store.HealthCheck())
	require.NoError(t, store.Close())
	require.NoError(t, store.Close(), "close is idempotent")

	assert.ErrorIs(t, store.HealthCheck(), persistence.ErrStoreClosed)
	assert.ErrorIs(t, store.View(func(persistence.ILedgerTxn) error { return nil }), persistence.ErrStoreClosed)
	assert.ErrorIs(t, store.Update(func(persistence.ILedgerTxn) error { return nil }), persistence.ErrStoreClosed)
}
