package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Layr-Labs/gasless-relay-go/pkg/persistence"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultKeyPrefix namespaces every key the relay writes
const DefaultKeyPrefix = "relay:"

// RedisPersistence is a ledger store backed by Redis.
//
// Update uses optimistic transactions: every key read inside the transaction is
// WATCHed before it is read, writes are buffered, and the buffer is flushed in a
// single MULTI/EXEC. If any watched key changed in between, EXEC aborts and the
// transaction function is re-run.
type RedisPersistence struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
	mu        sync.RWMutex
	closed    bool
}

var _ persistence.ILedgerStore = (*RedisPersistence)(nil)

// RedisConfig holds the configuration for connecting to Redis
type RedisConfig struct {
	// Address is the Redis server address (host:port)
	Address string
	// Password is the optional Redis password
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// KeyPrefix is prepended to all keys. Defaults to DefaultKeyPrefix.
	KeyPrefix string
}

// NewRedisPersistence creates a new Redis-backed persistence layer.
func NewRedisPersistence(cfg *RedisConfig, logger *zap.Logger) (*RedisPersistence, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}

	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	keyPrefix := cfg.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}

	rp := &RedisPersistence{
		client:    client,
		logger:    logger,
		keyPrefix: keyPrefix,
	}

	if err := rp.initSchema(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Sugar().Infow("Redis persistence initialized", "address", cfg.Address, "db", cfg.DB, "key_prefix", keyPrefix)

	return rp, nil
}

// prefixKey adds the key prefix to a key
func (r *RedisPersistence) prefixKey(key string) string {
	return r.keyPrefix + key
}

// initSchema initializes or validates the schema version
func (r *RedisPersistence) initSchema(ctx context.Context) error {
	schemaKey := r.prefixKey(persistence.KeySchemaVersion)

	// SETNX so two processes starting at once agree on a single value
	if err := r.client.SetNX(ctx, schemaKey, persistence.CurrentSchemaVersion, 0).Err(); err != nil {
		return fmt.Errorf("failed to write schema version: %w", err)
	}

	existingVersion, err := r.client.Get(ctx, schemaKey).Result()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if existingVersion != persistence.CurrentSchemaVersion {
		return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, persistence.CurrentSchemaVersion)
	}

	return nil
}

// redisTxn adapts a WATCH/MULTI transaction (or plain reads, for View) to persistence.IRawTxn
type redisTxn struct {
	ctx    context.Context
	store  *RedisPersistence
	tx     *redis.Tx
	writes map[string][]byte
}

func (t *redisTxn) Get(key string) ([]byte, bool, error) {
	if v, ok := t.writes[key]; ok {
		return append([]byte{}, v...), true, nil
	}

	fullKey := t.store.prefixKey(key)

	var cmd *redis.StringCmd
	if t.tx != nil {
		if err := t.tx.Watch(t.ctx, fullKey).Err(); err != nil {
			return nil, false, errors.Wrapf(err, "failed to watch key %s", fullKey)
		}
		cmd = t.tx.Get(t.ctx, fullKey)
	} else {
		cmd = t.store.client.Get(t.ctx, fullKey)
	}

	data, err := cmd.Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to get key %s", fullKey)
	}
	return data, true, nil
}

func (t *redisTxn) Set(key string, value []byte) error {
	if t.tx == nil {
		return persistence.ErrReadOnlyTxn
	}
	t.writes[key] = append([]byte{}, value...)
	return nil
}

// Update runs fn under WATCH and commits its buffered writes with MULTI/EXEC.
func (r *RedisPersistence) Update(fn func(txn persistence.ILedgerTxn) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrStoreClosed
	}

	ctx := context.Background()

	for attempt := 1; attempt <= persistence.MaxTxnRetries; attempt++ {
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			txn := &redisTxn{ctx: ctx, store: r, tx: tx, writes: make(map[string][]byte)}
			if err := fn(persistence.NewLedgerTxn(txn)); err != nil {
				return err
			}
			if len(txn.writes) == 0 {
				return nil
			}

			_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				for k, v := range txn.writes {
					pipe.Set(ctx, r.prefixKey(k), v, 0)
				}
				return nil
			})
			return err
		})
		if err == redis.TxFailedErr {
			r.logger.Sugar().Debugw("Redis transaction conflict, retrying", "attempt", attempt)
			continue
		}
		return err
	}

	return fmt.Errorf("redis transaction aborted after %d conflicting attempts", persistence.MaxTxnRetries)
}

// View runs fn with plain reads. Reads are not isolated from concurrent commits.
func (r *RedisPersistence) View(fn func(txn persistence.ILedgerTxn) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrStoreClosed
	}

	return fn(persistence.NewLedgerTxn(&redisTxn{ctx: context.Background(), store: r}))
}

// Close shuts down the persistence layer
func (r *RedisPersistence) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}

	r.logger.Sugar().Info("Redis persistence closed")
	return nil
}

// HealthCheck verifies the persistence layer is operational
func (r *RedisPersistence) HealthCheck() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrStoreClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	version, err := r.client.Get(ctx, r.prefixKey(persistence.KeySchemaVersion)).Result()
	if err == redis.Nil {
		return fmt.Errorf("schema version not found - database may be corrupted")
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version != persistence.CurrentSchemaVersion {
		return fmt.Errorf("unsupported schema version: %s", version)
	}

	return nil
}
