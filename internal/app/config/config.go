package config

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	common "bank_etl/internal/app/common/exception_handler"
	"bank_etl/internal/app/constants"

	"github.com/spf13/viper"
)

const DefaultSourceURL = "https://web.archive.org/web/20230908091635/https://en.wikipedia.org/wiki/List_of_largest_banks"

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type Config struct {
	SourceURL         string        `mapstructure:"SOURCE_URL"`
	RatesPath         string        `mapstructure:"RATES_PATH"`
	CSVPath           string        `mapstructure:"CSV_PATH"`
	XLSXPath          string        `mapstructure:"XLSX_PATH"`
	DBPath            string        `mapstructure:"DB_PATH"`
	TableName         string        `mapstructure:"TABLE_NAME"`
	LogFile           string        `mapstructure:"LOG_FILE"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	HTTPTimeout       time.Duration `mapstructure:"HTTP_TIMEOUT"`
	UserAgent         string        `mapstructure:"USER_AGENT"`
	SkipShortRows     bool          `mapstructure:"SKIP_SHORT_ROWS"`
	SkipMalformedRows bool          `mapstructure:"SKIP_MALFORMED_ROWS"`
	RoundingMode      string        `mapstructure:"ROUNDING_MODE"`
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	RedisAddr         string        `mapstructure:"REDIS_ADDR"`
	RedisPassword     string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB           int           `mapstructure:"REDIS_DB"`
	PageCacheTTL      time.Duration `mapstructure:"PAGE_CACHE_TTL"`
	PushgatewayURL    string        `mapstructure:"PUSHGATEWAY_URL"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	// Every key needs a default so AutomaticEnv picks it up during Unmarshal.
	v.SetDefault("SOURCE_URL", DefaultSourceURL)
	v.SetDefault("RATES_PATH", "exchange_rate.csv")
	v.SetDefault("CSV_PATH", "Largest_banks_data.csv")
	v.SetDefault("XLSX_PATH", "")
	v.SetDefault("DB_PATH", "Banks.db")
	v.SetDefault("TABLE_NAME", constants.BANKS_TABLE_NAME)
	v.SetDefault("LOG_FILE", "code_log.txt")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_TIMEOUT", "30s")
	v.SetDefault("USER_AGENT", "bank_etl/1.0")
	v.SetDefault("SKIP_SHORT_ROWS", true)
	v.SetDefault("SKIP_MALFORMED_ROWS", false)
	v.SetDefault("ROUNDING_MODE", constants.ROUNDING_HALF_AWAY)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("PAGE_CACHE_TTL", "24h")
	v.SetDefault("PUSHGATEWAY_URL", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, common.NewCustomError(common.ErrConfigLoad, "Failed to read .env", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, common.NewCustomError(common.ErrConfigLoad, "Failed to unmarshal config", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.SourceURL == "" || c.RatesPath == "" || c.CSVPath == "" || c.DBPath == "" || c.LogFile == "" {
		return common.NewCustomError(common.ErrConfigLoad, "Missing required settings", nil)
	}
	if !identifier.MatchString(c.TableName) {
		return common.NewCustomError(common.ErrConfigLoad, fmt.Sprintf("Invalid table name %q", c.TableName), nil)
	}
	switch c.RoundingMode {
	case constants.ROUNDING_HALF_AWAY, constants.ROUNDING_BANKERS:
	default:
		return common.NewCustomError(common.ErrConfigLoad, fmt.Sprintf("Unknown rounding mode %q", c.RoundingMode), nil)
	}
	if c.HTTPTimeout <= 0 {
		return common.NewCustomError(common.ErrConfigLoad, "HTTP_TIMEOUT must be positive", nil)
	}
	return nil
}
