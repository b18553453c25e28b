package badger

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/Layr-Labs/gasless-relay-go/pkg/persistence"
	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// BadgerPersistence is a production-ready ledger store using Badger.
// Every Update is a serializable Badger transaction; conflicting commits are
// retried by re-running the transaction function.
type BadgerPersistence struct {
	db       *badgerdb.DB
	logger   *zap.Logger
	gcCancel context.CancelFunc
	gcWg     sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
}

var _ persistence.ILedgerStore = (*BadgerPersistence)(nil)

// NewBadgerPersistence creates a new Badger-backed persistence layer.
// The database is opened at the specified path with SyncWrites enabled for durability.
// A background goroutine is started for garbage collection.
func NewBadgerPersistence(dataPath string, logger *zap.Logger) (*BadgerPersistence, error) {
	absPath, err := filepath.Abs(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	opts := badgerdb.DefaultOptions(absPath)
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.SyncWrites = true
	opts.CompactL0OnClose = true
	opts.NumVersionsToKeep = 1

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", absPath, err)
	}

	bp := &BadgerPersistence{
		db:     db,
		logger: logger,
	}

	if err := bp.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	bp.gcCancel = cancel
	bp.gcWg.Add(1)
	go bp.runGC(ctx)

	logger.Sugar().Infow("Badger persistence initialized", "path", absPath)

	return bp, nil
}

// initSchema initializes or validates the schema version
func (b *BadgerPersistence) initSchema() error {
	return b.db.Update(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(persistence.KeySchemaVersion))
		if err == badgerdb.ErrKeyNotFound {
			return txn.Set([]byte(persistence.KeySchemaVersion), []byte(persistence.CurrentSchemaVersion))
		}
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}

		var existingVersion string
		err = item.Value(func(val []byte) error {
			existingVersion = string(val)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to read schema version value: %w", err)
		}

		if existingVersion != persistence.CurrentSchemaVersion {
			return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, persistence.CurrentSchemaVersion)
		}

		return nil
	})
}

// runGC runs periodic garbage collection in the background
func (b *BadgerPersistence) runGC(ctx context.Context) {
	defer b.gcWg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			err := b.db.RunValueLogGC(0.5)
			if err != nil && err != badgerdb.ErrNoRewrite {
				b.logger.Sugar().Warnw("Badger GC error", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// badgerTxn adapts a Badger transaction to persistence.IRawTxn
type badgerTxn struct {
	txn *badgerdb.Txn
}

func (t *badgerTxn) Get(key string) ([]byte, bool, error) {
	item, err := t.txn.Get([]byte(key))
	if err == badgerdb.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to get key %s", key)
	}

	data, err := item.ValueCopy(nil)
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to read value of key %s", key)
	}
	return data, true, nil
}

func (t *badgerTxn) Set(key string, value []byte) error {
	err := t.txn.Set([]byte(key), value)
	if err == badgerdb.ErrReadOnlyTxn {
		return persistence.ErrReadOnlyTxn
	}
	if err != nil {
		return errors.Wrapf(err, "failed to set key %s", key)
	}
	return nil
}

// Update runs fn in a read-write Badger transaction, retrying on commit conflicts.
func (b *BadgerPersistence) Update(fn func(txn persistence.ILedgerTxn) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return persistence.ErrStoreClosed
	}

	for attempt := 1; attempt <= persistence.MaxTxnRetries; attempt++ {
		err := b.db.Update(func(txn *badgerdb.Txn) error {
			return fn(persistence.NewLedgerTxn(&badgerTxn{txn: txn}))
		})
		if err == badgerdb.ErrConflict {
			b.logger.Sugar().Debugw("Badger transaction conflict, retrying", "attempt", attempt)
			continue
		}
		return err
	}

	return fmt.Errorf("badger transaction aborted after %d conflicting attempts", persistence.MaxTxnRetries)
}

// View runs fn in a read-only Badger transaction
func (b *BadgerPersistence) View(fn func(txn persistence.ILedgerTxn) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return persistence.ErrStoreClosed
	}

	return b.db.View(func(txn *badgerdb.Txn) error {
		return fn(persistence.NewLedgerTxn(&badgerTxn{txn: txn}))
	})
}

// Close shuts down the persistence layer
func (b *BadgerPersistence) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	if b.gcCancel != nil {
		b.gcCancel()
	}
	b.gcWg.Wait()

	if err := b.db.Close(); err != nil {
		return fmt.Errorf("failed to close badger database: %w", err)
	}

	b.logger.Sugar().Info("Badger persistence closed")
	return nil
}

// HealthCheck verifies the persistence layer is operational
func (b *BadgerPersistence) HealthCheck() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return persistence.ErrStoreClosed
	}

	return b.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get([]byte(persistence.KeySchemaVersion))
		if err == badgerdb.ErrKeyNotFound {
			return fmt.Errorf("schema version not found - database may be corrupted")
		}
		return err
	})
}
