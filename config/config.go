// Package config loads process configuration from the environment. A .env
// file in the working directory is honored when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/solgate/solgate/types"
)

// Defaults applied for anything unset in the environment.
const (
	DefaultRPCEndpoint    = "http://localhost:8899"
	DefaultNetwork        = types.NetworkSolanaMainnet
	DefaultCommitment     = types.FinalityConfirmed
	DefaultGrantTTL       = 24 * time.Hour
	DefaultRequestTimeout = 30 * time.Second
	DefaultHistoryLimit   = 1000
)

// Config is the full configuration of the payment core.
type Config struct {
	// RPCEndpoint is the ledger JSON-RPC URL.
	RPCEndpoint string `validate:"required,url"`

	// PaymentWallet is the receiving address all payments must target.
	PaymentWallet string `validate:"required"`

	// Network selects the ledger client implementation.
	Network types.Network `validate:"required"`

	// Commitment is the finality threshold for admission.
	Commitment types.Finality `validate:"required"`

	// GrantTTL is how long a paid grant stays live.
	GrantTTL time.Duration `validate:"gt=0"`

	// RequestTimeout bounds every ledger RPC call.
	RequestTimeout time.Duration `validate:"gt=0"`

	// MinAmount and MaxAmount bound accepted payment amounts, in display
	// units.
	MinAmount decimal.Decimal
	MaxAmount decimal.Decimal

	// HistoryLimit caps per-payer records in the in-memory store.
	HistoryLimit int `validate:"gte=0"`

	// RedisAddr, when set, selects the Redis-backed store.
	RedisAddr string

	LogLevel string
}

var validate = validator.New()

// Load reads configuration from the environment, applying defaults for
// anything unset.
func Load() (*Config, error) {
	// Missing .env is not an error; plain environment still applies.
	_ = godotenv.Load()

	cfg := &Config{
		RPCEndpoint:    envOr("RPC_ENDPOINT", DefaultRPCEndpoint),
		PaymentWallet:  os.Getenv("PAYMENT_WALLET"),
		Network:        types.Network(envOr("NETWORK", DefaultNetwork.String())),
		Commitment:     types.Finality(envOr("COMMITMENT", string(DefaultCommitment))),
		GrantTTL:       DefaultGrantTTL,
		RequestTimeout: DefaultRequestTimeout,
		HistoryLimit:   DefaultHistoryLimit,
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		LogLevel:       envOr("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.GrantTTL, err = envDuration("GRANT_TTL", DefaultGrantTTL); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = envDuration("REQUEST_TIMEOUT", DefaultRequestTimeout); err != nil {
		return nil, err
	}
	if cfg.HistoryLimit, err = envInt("HISTORY_LIMIT", DefaultHistoryLimit); err != nil {
		return nil, err
	}
	if cfg.MinAmount, err = envDecimal("MIN_AMOUNT", decimal.RequireFromString("0.001")); err != nil {
		return nil, err
	}
	if cfg.MaxAmount, err = envDecimal("MAX_AMOUNT", decimal.NewFromInt(1000)); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for structural and semantic errors.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return types.NewError(types.ErrInvalidConfig, err.Error())
	}
	if !c.Network.IsSolana() && !c.Network.IsEVM() {
		return types.NewError(types.ErrInvalidConfig,
			fmt.Sprintf("unknown network %q", c.Network))
	}
	if !c.Commitment.Valid() {
		return types.NewError(types.ErrInvalidConfig,
			fmt.Sprintf("unknown commitment %q", c.Commitment))
	}
	if c.MinAmount.GreaterThan(c.MaxAmount) {
		return types.NewError(types.ErrInvalidConfig,
			fmt.Sprintf("MIN_AMOUNT %s exceeds MAX_AMOUNT %s", c.MinAmount, c.MaxAmount))
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, types.NewError(types.ErrInvalidConfig,
			fmt.Sprintf("%s: invalid duration %q", key, v))
	}
	return d, nil
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, types.NewError(types.ErrInvalidConfig,
			fmt.Sprintf("%s: invalid integer %q", key, v))
	}
	return n, nil
}

func envDecimal(key string, fallback decimal.Decimal) (decimal.Decimal, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Decimal{}, types.NewError(types.ErrInvalidConfig,
			fmt.Sprintf("%s: invalid amount %q", key, v))
	}
	return d, nil
}
