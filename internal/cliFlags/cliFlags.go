package cliFlags

import (
	"fmt"

	"github.com/Layr-Labs/gasless-relay-go/pkg/config"
	"github.com/urfave/cli/v2"
)

const (
	FlagStore          = "store"
	FlagDataPath       = "data-path"
	FlagRedisAddress   = "redis-address"
	FlagRedisPassword  = "redis-password"
	FlagRedisDB        = "redis-db"
	FlagRedisKeyPrefix = "redis-key-prefix"
	FlagOwnerAddress   = "owner-address"
	FlagVerbose        = "verbose"
)

// StoreFlags are the flags selecting the ledger store, shared by relayServer and relayAdmin
func StoreFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    FlagStore,
			Usage:   fmt.Sprintf("Ledger store backend: %s", config.GetSupportedStoreTypesString()),
			Value:   config.StoreType_Badger.String(),
			EnvVars: []string{config.EnvRelayStore},
		},
		&cli.StringFlag{
			Name:    FlagDataPath,
			Usage:   "Data directory for the badger store",
			Value:   "./relay-data",
			EnvVars: []string{config.EnvRelayDataPath},
		},
		&cli.StringFlag{
			Name:    FlagRedisAddress,
			Usage:   "Redis address (host:port) for the redis store",
			EnvVars: []string{config.EnvRelayRedisAddress},
		},
		&cli.StringFlag{
			Name:    FlagRedisPassword,
			Usage:   "Redis password",
			EnvVars: []string{config.EnvRelayRedisPassword},
		},
		&cli.IntFlag{
			Name:    FlagRedisDB,
			Usage:   "Redis database number (0-15)",
			EnvVars: []string{config.EnvRelayRedisDB},
		},
		&cli.StringFlag{
			Name:    FlagRedisKeyPrefix,
			Usage:   "Prefix for every redis key",
			Value:   "relay:",
			EnvVars: []string{config.EnvRelayRedisKeyPrefix},
		},
	}
}

// OwnerAddressFlag is the ledger owner, the only caller allowed to run admin operations
func OwnerAddressFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     FlagOwnerAddress,
		Aliases:  []string{"owner"},
		Usage:    "Ethereum address of the ledger owner",
		EnvVars:  []string{config.EnvRelayOwnerAddress},
		Required: true,
	}
}

func VerboseFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    FlagVerbose,
		Usage:   "Enable verbose logging",
		EnvVars: []string{config.EnvRelayVerbose},
	}
}

// ParseStoreConfig reads the flags registered by StoreFlags
func ParseStoreConfig(c *cli.Context) config.StoreConfig {
	return config.StoreConfig{
		Type:           config.StoreType(c.String(FlagStore)),
		DataPath:       c.String(FlagDataPath),
		RedisAddress:   c.String(FlagRedisAddress),
		RedisPassword:  c.String(FlagRedisPassword),
		RedisDB:        c.Int(FlagRedisDB),
		RedisKeyPrefix: c.String(FlagRedisKeyPrefix),
	}
}
