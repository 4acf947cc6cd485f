package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	TelegramBotToken string `mapstructure:"TELEGRAM_BOT_TOKEN"`
	AdminIDsRaw      string `mapstructure:"ADMIN_IDS"`
	DBDriver         string `mapstructure:"DB_DRIVER"`
	DB_URL           string `mapstructure:"DB_URL"`

	StoreCurrency        string `mapstructure:"STORE_CURRENCY"`
	CurrencyExponent     int32  `mapstructure:"CURRENCY_EXPONENT"`
	PaymentProviderToken string `mapstructure:"PAYMENT_PROVIDER_TOKEN"`
	PaymentMethodName    string `mapstructure:"PAYMENT_METHOD_NAME"`
	SupportContact       string `mapstructure:"SUPPORT_CONTACT"`

	WebhookURL string `mapstructure:"WEBHOOK_URL"`
	HTTPAddr   string `mapstructure:"HTTP_ADDR"`

	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB         int           `mapstructure:"REDIS_DB"`
	CatalogCacheTTL time.Duration `mapstructure:"CATALOG_CACHE_TTL"`

	MetricsNamespace string `mapstructure:"METRICS_NAMESPACE"`
	LogLevel         string `mapstructure:"LOG_LEVEL"`

	AdminIDs []int64 `mapstructure:"-"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("TELEGRAM_BOT_TOKEN", "")
	v.SetDefault("ADMIN_IDS", "")
	v.SetDefault("DB_URL", "")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("STORE_CURRENCY", "USD")
	v.SetDefault("CURRENCY_EXPONENT", 2)
	v.SetDefault("PAYMENT_PROVIDER_TOKEN", "")
	v.SetDefault("PAYMENT_METHOD_NAME", "telegram")
	v.SetDefault("SUPPORT_CONTACT", "@support")
	v.SetDefault("WEBHOOK_URL", "")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CATALOG_CACHE_TTL", "5m")
	v.SetDefault("METRICS_NAMESPACE", "shop_bot")
	v.SetDefault("LOG_LEVEL", "debug")
}

// MaxCurrencyExponent matches the two decimal places of the money columns.
const MaxCurrencyExponent = 2

func LoadConfig(path string) (config Config, err error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return config, fmt.Errorf("failed to resolve config path: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AddConfigPath(filepath.Dir(absPath))
	v.SetConfigName(filepath.Base(absPath))
	v.SetConfigType("env")
	v.AutomaticEnv()

	// A missing file is fine when everything comes from the environment.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("failed to decode config: %w", err)
	}

	config.StoreCurrency = strings.ToUpper(strings.TrimSpace(config.StoreCurrency))

	config.AdminIDs, err = ParseAdminIDs(config.AdminIDsRaw)
	if err != nil {
		return config, err
	}

	return config, config.validate()
}

// ParseAdminIDs reads a comma separated allow-list such as "123, 456".
func ParseAdminIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid admin id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c Config) validate() error {
	switch {
	case c.TelegramBotToken == "":
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	case c.DB_URL == "":
		return fmt.Errorf("DB_URL is required")
	case c.DBDriver != "postgres" && c.DBDriver != "sqlite":
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	case c.CurrencyExponent < 0 || c.CurrencyExponent > MaxCurrencyExponent:
		return fmt.Errorf("CURRENCY_EXPONENT must be between 0 and %d", MaxCurrencyExponent)
	}
	return nil
}

func (c Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}
