package balanceLedger

import (
	"math/big"
	"testing"

	"github.com/Layr-Labs/gasless-relay-go/pkg/persistence"
	"github.com/Layr-Labs/gasless-relay-go/pkg/relayErrors"
	"github.com/Layr-Labs/gasless-relay-go/pkg/testutil"
	"github.com/Layr-Labs/gasless-relay-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob   = common.HexToAddress("0x2222222222222222222222222222222222222222")
	coin  = &types.TokenDescriptor{ID: 1, Name: "Coin", Symbol: "CN", Decimals: 6}
)

func TestBalanceLedger(t *testing.T) {
	for name, store := range testutil.NewTestStores(t) {
		t.Run(name, func(t *testing.T) {
			bl := NewBalanceLedger(store, testutil.NewTestLogger(t))
			testutil.PutToken(t, store, coin)

			t.Run("balance defaults to zero", func(t *testing.T) {
				bal, err := bl.GetBalance(1, common.HexToAddress("0x9999999999999999999999999999999999999999"))
				require.NoError(t, err)
				assert.Equal(t, 0, bal.Sign())
			})

			t.Run("credit creates entry", func(t *testing.T) {
				require.NoError(t, store.Update(func(txn persistence.ILedgerTxn) error {
					return bl.Credit(txn, 1, alice, big.NewInt(100))
				}))
				bal, err := bl.GetBalance(1, alice)
				require.NoError(t, err)
				assert.Equal(t, int64(100), bal.Int64())
			})

			t.Run("debit and credit move funds", func(t *testing.T) {
				require.NoError(t, store.Update(func(txn persistence.ILedgerTxn) error {
					if err := bl.Debit(txn, 1, alice, big.NewInt(40)); err != nil {
						return err
					}
					if err := bl.Credit(txn, 1, bob, big.NewInt(40)); err != nil {
						return err
					}
					// reads inside the transaction see its own writes
					bal, err := bl.Balance(txn, 1, alice)
					require.NoError(t, err)
					assert.Equal(t, int64(60), bal.Int64())
					return nil
				}))
				assert.Equal(t, int64(60), testutil.Balance(t, store, 1, alice).Int64())
				assert.Equal(t, int64(40), testutil.Balance(t, store, 1, bob).Int64())
			})

			t.Run("debit beyond balance is rejected without mutation", func(t *testing.T) {
				err := store.Update(func(txn persistence.ILedgerTxn) error {
					return bl.Debit(txn, 1, alice, big.NewInt(61))
				})
				require.Error(t, err)
				assert.ErrorIs(t, err, relayErrors.ErrInsufficientBalance)
				assert.Equal(t, int64(60), testutil.Balance(t, store, 1, alice).Int64())
			})

			t.Run("debit of the whole balance reaches zero", func(t *testing.T) {
				require.NoError(t, store.Update(func(txn persistence.ILedgerTxn) error {
					return bl.Debit(txn, 1, bob, big.NewInt(40))
				}))
				assert.Equal(t, 0, testutil.Balance(t, store, 1, bob).Sign())
			})

			t.Run("credit to unknown token fails", func(t *testing.T) {
				err := store.Update(func(txn persistence.ILedgerTxn) error {
					return bl.Credit(txn, 2, alice, big.NewInt(1))
				})
				assert.ErrorIs(t, err, relayErrors.ErrTransferFailed)
			})

			t.Run("credit overflow is an encoding error", func(t *testing.T) {
				err := store.Update(func(txn persistence.ILedgerTxn) error {
					return bl.Credit(txn, 1, alice, math.MaxBig256)
				})
				assert.ErrorIs(t, err, relayErrors.ErrEncoding)
				assert.Equal(t, int64(60), testutil.Balance(t, store, 1, alice).Int64())
			})

			t.Run("invalid amounts", func(t *testing.T) {
				for _, amount := range []*big.Int{nil, big.NewInt(-1), new(big.Int).Add(math.MaxBig256, big.NewInt(1))} {
					err := store.Update(func(txn persistence.ILedgerTxn) error {
						return bl.Debit(txn, 1, alice, amount)
					})
					assert.ErrorIs(t, err, relayErrors.ErrEncoding)

					err = store.Update(func(txn persistence.ILedgerTxn) error {
						return bl.Credit(txn, 1, alice, amount)
					})
					assert.ErrorIs(t, err, relayErrors.ErrEncoding)
				}
			})

			t.Run("zero amounts are no-ops", func(t *testing.T) {
				require.NoError(t, store.Update(func(txn persistence.ILedgerTxn) error {
					if err := bl.Debit(txn, 1, bob, big.NewInt(0)); err != nil {
						return err
					}
					return bl.Credit(txn, 1, bob, big.NewInt(0))
				}))
			})
		})
	}
}

func TestBalanceLedger_GetBalanceStoreFailure(t *testing.T) {
	stores := testutil.NewTestStores(t)
	store := stores["memory"]
	bl := NewBalanceLedger(store, testutil.NewTestLogger(t))
	require.NoError(t, store.Close())

	_, err := bl.GetBalance(1, alice)
	assert.ErrorIs(t, err, persistence.ErrStoreClosed)
}
