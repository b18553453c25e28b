package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Environment variable names for relay configuration
const (
	EnvRelayOwnerAddress     = "RELAY_OWNER_ADDRESS"
	EnvRelayFeeCollector     = "RELAY_FEE_COLLECTOR"
	EnvRelayPort             = "RELAY_PORT"
	EnvRelayStore            = "RELAY_STORE"
	EnvRelayDataPath         = "RELAY_DATA_PATH"
	EnvRelayRedisAddress     = "RELAY_REDIS_ADDRESS"
	EnvRelayRedisPassword    = "RELAY_REDIS_PASSWORD"
	EnvRelayRedisDB          = "RELAY_REDIS_DB"
	EnvRelayRedisKeyPrefix   = "RELAY_REDIS_KEY_PREFIX"
	EnvRelayRateLimit        = "RELAY_RATE_LIMIT"
	EnvRelayRateBurst        = "RELAY_RATE_BURST"
	EnvRelayVerbose          = "RELAY_VERBOSE"
	EnvRelayOwnerPrivateKey  = "RELAY_OWNER_PRIVATE_KEY"
	EnvRelaySignerPrivateKey = "RELAY_SIGNER_PRIVATE_KEY"
	EnvRelayServerURL        = "RELAY_SERVER_URL"
)

type StoreType string

func (s StoreType) String() string {
	return string(s)
}

const (
	StoreType_Memory StoreType = "memory"
	StoreType_Badger StoreType = "badger"
	StoreType_Redis  StoreType = "redis"
)

var SupportedStoreTypes = []StoreType{
	StoreType_Memory,
	StoreType_Badger,
	StoreType_Redis,
}

// GetSupportedStoreTypesString returns supported store types for CLI help
func GetSupportedStoreTypesString() string {
	names := make([]string, 0, len(SupportedStoreTypes))
	for _, s := range SupportedStoreTypes {
		names = append(names, s.String())
	}
	return strings.Join(names, ", ")
}

// Defaults
const (
	DefaultPort      = 8080
	DefaultRateLimit = 20.0
	DefaultRateBurst = 40
)

// StoreConfig selects and configures the ledger store backend
type StoreConfig struct {
	Type StoreType `json:"type"`

	// badger
	DataPath string `json:"data_path,omitempty"`

	// redis
	RedisAddress   string `json:"redis_address,omitempty"`
	RedisPassword  string `json:"-"`
	RedisDB        int    `json:"redis_db,omitempty"`
	RedisKeyPrefix string `json:"redis_key_prefix,omitempty"`
}

func (sc *StoreConfig) validate(path *field.Path) field.ErrorList {
	var allErrors field.ErrorList

	switch sc.Type {
	case StoreType_Memory:
	case StoreType_Badger:
		if sc.DataPath == "" {
			allErrors = append(allErrors, field.Required(path.Child("dataPath"), "dataPath is required for the badger store"))
		}
	case StoreType_Redis:
		if sc.RedisAddress == "" {
			allErrors = append(allErrors, field.Required(path.Child("redisAddress"), "redisAddress is required for the redis store"))
		}
		if sc.RedisDB < 0 || sc.RedisDB > 15 {
			allErrors = append(allErrors, field.Invalid(path.Child("redisDB"), sc.RedisDB, "must be between 0-15"))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(path.Child("type"), sc.Type, []string{
			StoreType_Memory.String(), StoreType_Badger.String(), StoreType_Redis.String(),
		}))
	}

	return allErrors
}

// Validate validates the store configuration
func (sc *StoreConfig) Validate() error {
	if errs := sc.validate(field.NewPath("store")); len(errs) > 0 {
		return errs.ToAggregate()
	}
	return nil
}

// RelayServerConfig represents the complete configuration for a relay server
type RelayServerConfig struct {
	// Ledger owner; the only caller allowed to run admin operations
	OwnerAddress string `json:"owner_address"`
	// Receives relay fees. Defaults to the owner.
	FeeCollectorAddress string `json:"fee_collector_address,omitempty"`

	Port int `json:"port"`

	Store StoreConfig `json:"store"`

	// Per client IP, requests per second and burst
	RateLimit float64 `json:"rate_limit"`
	RateBurst int     `json:"rate_burst"`

	Verbose bool `json:"verbose"`
}

// Validate validates the relay server configuration
func (c *RelayServerConfig) Validate() error {
	var allErrors field.ErrorList

	allErrors = append(allErrors, validateAddress(field.NewPath("ownerAddress"), c.OwnerAddress, true)...)
	allErrors = append(allErrors, validateAddress(field.NewPath("feeCollectorAddress"), c.FeeCollectorAddress, false)...)

	if c.Port < 1 || c.Port > 65535 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("port"), c.Port, "must be between 1-65535"))
	}
	if c.RateLimit <= 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("rateLimit"), c.RateLimit, "must be positive"))
	}
	if c.RateBurst < 1 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("rateBurst"), c.RateBurst, "must be at least 1"))
	}

	allErrors = append(allErrors, c.Store.validate(field.NewPath("store"))...)

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

// Owner returns the owner address. Only meaningful after Validate succeeds.
func (c *RelayServerConfig) Owner() common.Address {
	return common.HexToAddress(c.OwnerAddress)
}

// FeeCollector returns the fee collector, falling back to the owner
func (c *RelayServerConfig) FeeCollector() common.Address {
	if c.FeeCollectorAddress == "" {
		return c.Owner()
	}
	return common.HexToAddress(c.FeeCollectorAddress)
}

func validateAddress(path *field.Path, value string, required bool) field.ErrorList {
	var allErrors field.ErrorList
	if value == "" {
		if required {
			allErrors = append(allErrors, field.Required(path, fmt.Sprintf("%s is required", path.String())))
		}
		return allErrors
	}
	if !common.IsHexAddress(value) {
		allErrors = append(allErrors, field.Invalid(path, value, "invalid address format"))
	} else if common.HexToAddress(value) == (common.Address{}) {
		allErrors = append(allErrors, field.Invalid(path, value, "zero address is not allowed"))
	}
	return allErrors
}
