package storeFactory

import (
	"fmt"

	"github.com/Layr-Labs/gasless-relay-go/pkg/config"
	"github.com/Layr-Labs/gasless-relay-go/pkg/persistence"
	"github.com/Layr-Labs/gasless-relay-go/pkg/persistence/badger"
	"github.com/Layr-Labs/gasless-relay-go/pkg/persistence/memory"
	"github.com/Layr-Labs/gasless-relay-go/pkg/persistence/redis"
	"go.uber.org/zap"
)

// NewLedgerStore opens the backend selected by cfg
func NewLedgerStore(cfg *config.StoreConfig, logger *zap.Logger) (persistence.ILedgerStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case config.StoreType_Memory:
		return memory.NewMemoryPersistence(), nil
	case config.StoreType_Badger:
		store, err := badger.NewBadgerPersistence(cfg.DataPath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger store: %w", err)
		}
		return store, nil
	case config.StoreType_Redis:
		store, err := redis.NewRedisPersistence(&redis.RedisConfig{
			Address:   cfg.RedisAddress,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisKeyPrefix,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open redis store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.Type)
	}
}
