package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultAppName        = "TakaPay"
	defaultAppEnv         = "development"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultCurrency       = "BDT"
	defaultShutdownDelay  = 10 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour
	defaultGatewayTimeout = 10 * time.Second
)

// Config captures application runtime configuration loaded from environment
// variables. Fee and commission rates are configuration, not constants, so
// pricing policy can change without a code change.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	Currency     string
	SignupGrant  decimal.Decimal
	AgentFloat   decimal.Decimal
	MinBalance   decimal.Decimal
	DailyLimit   decimal.Decimal
	MonthlyLimit decimal.Decimal

	TransferFeeRate decimal.Decimal
	TransferFeeMin  decimal.Decimal
	TransferFeeMax  decimal.Decimal
	CommissionRate  decimal.Decimal

	GatewayBaseURL   string
	GatewayStoreID   string
	GatewayStorePass string
	GatewayTimeout   time.Duration
	CallbackBaseURL  string
}

// Load reads configuration values from the environment and populates a Config
// instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		ShutdownPeriod: defaultShutdownDelay,
		IdempotencyTTL: defaultIdempotencyTTL,

		Currency: getEnv("WALLET_CURRENCY", defaultCurrency),

		GatewayBaseURL:   os.Getenv("GATEWAY_BASE_URL"),
		GatewayStoreID:   os.Getenv("GATEWAY_STORE_ID"),
		GatewayStorePass: os.Getenv("GATEWAY_STORE_PASSWORD"),
		GatewayTimeout:   defaultGatewayTimeout,
		CallbackBaseURL:  getEnv("CALLBACK_BASE_URL", "http://localhost:8080"),
	}

	var err error
	if cfg.ShutdownPeriod, err = durationEnv("SHUTDOWN_TIMEOUT", defaultShutdownDelay); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv("IDEMPOTENCY_TTL", defaultIdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.GatewayTimeout, err = durationEnv("GATEWAY_TIMEOUT", defaultGatewayTimeout); err != nil {
		return Config{}, err
	}

	if cfg.SignupGrant, err = decimalEnv("SIGNUP_GRANT", "50"); err != nil {
		return Config{}, err
	}
	if cfg.AgentFloat, err = decimalEnv("AGENT_FLOAT", "100000"); err != nil {
		return Config{}, err
	}
	if cfg.MinBalance, err = decimalEnv("MIN_BALANCE", "0"); err != nil {
		return Config{}, err
	}
	if cfg.DailyLimit, err = decimalEnv("DAILY_LIMIT", "50000"); err != nil {
		return Config{}, err
	}
	if cfg.MonthlyLimit, err = decimalEnv("MONTHLY_LIMIT", "500000"); err != nil {
		return Config{}, err
	}
	if cfg.TransferFeeRate, err = decimalEnv("TRANSFER_FEE_RATE", "0.01"); err != nil {
		return Config{}, err
	}
	if cfg.TransferFeeMin, err = decimalEnv("TRANSFER_FEE_MIN", "5"); err != nil {
		return Config{}, err
	}
	if cfg.TransferFeeMax, err = decimalEnv("TRANSFER_FEE_MAX", "50"); err != nil {
		return Config{}, err
	}
	if cfg.CommissionRate, err = decimalEnv("AGENT_COMMISSION_RATE", "0.015"); err != nil {
		return Config{}, err
	}

	if !isDev(cfg.AppEnv) {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// Dev reports whether the app runs in a development environment.
func (c Config) Dev() bool {
	return isDev(c.AppEnv)
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func decimalEnv(key, fallback string) (decimal.Decimal, error) {
	v := os.Getenv(key)
	if v == "" {
		v = fallback
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
