package cliFlags

import (
	"testing"

	"github.com/Layr-Labs/gasless-relay-go/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func runWithArgs(t *testing.T, args []string) config.StoreConfig {
	t.Helper()
	var parsed config.StoreConfig
	app := &cli.App{
		Name:  "test",
		Flags: StoreFlags(),
		Action: func(c *cli.Context) error {
			parsed = ParseStoreConfig(c)
			return nil
		},
	}
	require.NoError(t, app.Run(append([]string{"test"}, args...)))
	return parsed
}

func TestParseStoreConfig_Defaults(t *testing.T) {
	cfg := runWithArgs(t, nil)
	assert.Equal(t, config.StoreType_Badger, cfg.Type)
	assert.Equal(t, "./relay-data", cfg.DataPath)
	assert.Equal(t, "relay:", cfg.RedisKeyPrefix)
	require.NoError(t, cfg.Validate())
}

func TestParseStoreConfig_Redis(t *testing.T) {
	cfg := runWithArgs(t, []string{"--store", "redis", "--redis-address", "localhost:6379", "--redis-db", "3"})
	assert.Equal(t, config.StoreType_Redis, cfg.Type)
	assert.Equal(t, "localhost:6379", cfg.RedisAddress)
	assert.Equal(t, 3, cfg.RedisDB)
	require.NoError(t, cfg.Validate())
}

func TestParseStoreConfig_Env(t *testing.T) {
	t.Setenv(config.EnvRelayStore, "memory")
	cfg := runWithArgs(t, nil)
	assert.Equal(t, config.StoreType_Memory, cfg.Type)
}
