package badger

import (
	"math/big"
	"testing"

	"github.com/Layr-Labs/gasless-relay-go/pkg/logger"
	"github.com/Layr-Labs/gasless-relay-go/pkg/persistence"
	"github.com/Layr-Labs/gasless-relay-go/pkg/persistence/storetest"
	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgerPersistence(t *testing.T) {
	storetest.RunLedgerStoreTests(t, func(t *testing.T) persistence.ILedgerStore {
		testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})
		bp, err := NewBadgerPersistence(t.TempDir(), testLogger)
		require.NoError(t, err)
		return bp
	})
}

func TestBadgerPersistence_SurvivesRestart(t *testing.T) {
	tmpDir := t.TempDir()
	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")

	bp, err := NewBadgerPersistence(tmpDir, testLogger)
	require.NoError(t, err)
	require.NoError(t, bp.Update(func(txn persistence.ILedgerTxn) error {
		if err := txn.SetBalance(1, owner, big.NewInt(100)); err != nil {
			return err
		}
		return txn.MarkNonceUsed(owner, 7)
	}))
	require.NoError(t, bp.Close())

	bp2, err := NewBadgerPersistence(tmpDir, testLogger)
	require.NoError(t, err)
	defer func() { _ = bp2.Close() }()

	require.NoError(t, bp2.View(func(txn persistence.ILedgerTxn) error {
		bal, err := txn.GetBalance(1, owner)
		require.NoError(t, err)
		assert.Equal(t, int64(100), bal.Int64())

		used, err := txn.IsNonceUsed(owner, 7)
		require.NoError(t, err)
		assert.True(t, used)
		return nil
	}))
}

func TestBadgerPersistence_RejectsUnknownSchema(t *testing.T) {
	tmpDir := t.TempDir()
	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})

	db, err := badgerdb.Open(badgerdb.DefaultOptions(tmpDir).WithLogger(nil))
	require.NoError(t, err)
	require.NoError(t, db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(persistence.KeySchemaVersion), []byte("v0"))
	}))
	require.NoError(t, db.Close())

	_, err = NewBadgerPersistence(tmpDir, testLogger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported schema version")
}
