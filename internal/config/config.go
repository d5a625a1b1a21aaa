package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	defaultRunAddress      = "localhost:8080"
	defaultMigrationsDir   = "internal/db/migrations"
	defaultQuoteAPIAddress = "https://cloud.iexapis.com/stable"
	defaultQuoteTimeout    = 3 * time.Second
	defaultQuoteCacheTTL   = 15 * time.Second
	defaultLogLevel        = "info"
)

var defaultStartingCash = decimal.NewFromInt(10000) //nolint:mnd

const startingCashEnv = "STARTING_CASH"

type Config struct {
	RunAddress    string `env:"RUN_ADDRESS"`
	DatabaseDSN   string `env:"DATABASE_URI"`
	MigrationsDir string `env:"MIGRATIONS_DIR"`
	JWTUserSecret string `env:"JWT_USER_SECRET"`
	LogLevel      string `env:"LOG_LEVEL"`

	QuoteAPIAddress string        `env:"QUOTE_API_ADDRESS"`
	QuoteAPIKey     string        `env:"API_KEY"`
	QuoteTimeout    time.Duration `env:"QUOTE_TIMEOUT"`
	// RedisAddress пустой адрес отключает кеширование котировок.
	RedisAddress  string        `env:"REDIS_ADDRESS"`
	QuoteCacheTTL time.Duration `env:"QUOTE_CACHE_TTL"`

	// StartingCash баланс, который получает юзер при регистрации.
	StartingCash decimal.Decimal `env:"STARTING_CASH"`
}

// LoadConfig собирает конфигурацию из переменных окружения (в т.ч. файла .env) и флагов командной строки.
// Переменные окружения имеют приоритет над флагами.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env file: %s", err.Error())
	}
	return load(flag.CommandLine, os.Args[1:])
}

func MustLoadConfig() *Config {
	config, err := LoadConfig()
	if err != nil {
		panic(err)
	}
	return config
}

func load(fs *flag.FlagSet, args []string) (*Config, error) {
	var flagsConfig, envConfig Config

	if envParseErr := env.Parse(&envConfig); envParseErr != nil {
		return nil, fmt.Errorf("parse env config: %s", envParseErr.Error())
	}

	if flagsErr := loadFlags(fs, args, &flagsConfig); flagsErr != nil {
		return nil, fmt.Errorf("parse flags: %s", flagsErr.Error())
	}

	// нулевой стартовый баланс допустим, поэтому для него смотрим наличие переменной, а не значение.
	startingCashValue, startingCashInEnv := os.LookupEnv(startingCashEnv)
	startingCashInEnv = startingCashInEnv && startingCashValue != ""

	conf := mergeConfig(&envConfig, &flagsConfig, startingCashInEnv)
	if err := validate(conf); err != nil {
		return nil, err
	}
	return conf, nil
}

func loadFlags(fs *flag.FlagSet, args []string, flagConfig *Config) error {
	fs.StringVar(&flagConfig.RunAddress, "a", defaultRunAddress, "Run address in format host:port")
	fs.StringVar(&flagConfig.DatabaseDSN, "d", "", "Database DSN")
	fs.StringVar(&flagConfig.MigrationsDir, "m", defaultMigrationsDir, "Database migrations directory")
	fs.StringVar(&flagConfig.JWTUserSecret, "s", "", "JWT secret for user tokens")
	fs.StringVar(&flagConfig.LogLevel, "l", defaultLogLevel, "Log level")
	fs.StringVar(&flagConfig.QuoteAPIAddress, "q", defaultQuoteAPIAddress, "Quote API base address")
	fs.StringVar(&flagConfig.QuoteAPIKey, "k", "", "Quote API key")
	fs.DurationVar(&flagConfig.QuoteTimeout, "qt", defaultQuoteTimeout, "Quote lookup timeout")
	fs.StringVar(&flagConfig.RedisAddress, "r", "", "Redis address for quote cache, empty disables cache")
	fs.DurationVar(&flagConfig.QuoteCacheTTL, "ct", defaultQuoteCacheTTL, "Quote cache TTL")
	fs.TextVar(&flagConfig.StartingCash, "c", defaultStartingCash, "Starting cash for new users")

	return fs.Parse(args) //nolint:wrapcheck
}

func mergeConfig(envConfig, flagsConfig *Config, startingCashInEnv bool) *Config {
	startingCash := flagsConfig.StartingCash
	if startingCashInEnv {
		startingCash = envConfig.StartingCash
	}

	return &Config{
		RunAddress:      defaultIfBlank(envConfig.RunAddress, flagsConfig.RunAddress),
		DatabaseDSN:     defaultIfBlank(envConfig.DatabaseDSN, flagsConfig.DatabaseDSN),
		MigrationsDir:   defaultIfBlank(envConfig.MigrationsDir, flagsConfig.MigrationsDir),
		JWTUserSecret:   defaultIfBlank(envConfig.JWTUserSecret, flagsConfig.JWTUserSecret),
		LogLevel:        defaultIfBlank(envConfig.LogLevel, flagsConfig.LogLevel),
		QuoteAPIAddress: defaultIfBlank(envConfig.QuoteAPIAddress, flagsConfig.QuoteAPIAddress),
		QuoteAPIKey:     defaultIfBlank(envConfig.QuoteAPIKey, flagsConfig.QuoteAPIKey),
		QuoteTimeout:    defaultIfZero(envConfig.QuoteTimeout, flagsConfig.QuoteTimeout),
		RedisAddress:    defaultIfBlank(envConfig.RedisAddress, flagsConfig.RedisAddress),
		QuoteCacheTTL:   defaultIfZero(envConfig.QuoteCacheTTL, flagsConfig.QuoteCacheTTL),
		StartingCash:    startingCash,
	}
}

func validate(conf *Config) error {
	switch {
	case conf.DatabaseDSN == "":
		return errors.New("database DSN is not set")
	case conf.JWTUserSecret == "":
		return errors.New("jwt user secret is not set")
	case conf.QuoteAPIKey == "":
		return errors.New("quote API key is not set")
	case conf.QuoteTimeout <= 0:
		return fmt.Errorf("quote timeout must be positive, got %s", conf.QuoteTimeout)
	case conf.StartingCash.IsNegative():
		return fmt.Errorf("starting cash must not be negative, got %s", conf.StartingCash)
	}
	return nil
}

func defaultIfBlank(value string, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}

func defaultIfZero(value time.Duration, defaultValue time.Duration) time.Duration {
	if value == 0 {
		return defaultValue
	}
	return value
}

