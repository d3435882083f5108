package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ngenohkevin/bookrent/internal/models"
	"github.com/ngenohkevin/bookrent/internal/money"
	"github.com/ngenohkevin/bookrent/internal/pricing"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Storage drivers
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	Rental    RentalConfig    `mapstructure:"rental"`
	Notifier  NotifierConfig  `mapstructure:"notifier"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

type DatabaseConfig struct {
	URL         string        `mapstructure:"url"`
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	User        string        `mapstructure:"user"`
	Password    string        `mapstructure:"password"`
	Name        string        `mapstructure:"name"`
	SSLMode     string        `mapstructure:"ssl_mode"`
	MaxConns    int32         `mapstructure:"max_conns"`
	MinConns    int32         `mapstructure:"min_conns"`
	AutoMigrate bool          `mapstructure:"auto_migrate"`
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
}

// ConnString returns URL when set, otherwise a DSN built from the parts.
func (c DatabaseConfig) ConnString() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type TierConfig struct {
	DepositRatio float64 `mapstructure:"deposit_ratio"`
	DailyRatio   float64 `mapstructure:"daily_ratio"`
}

// PricingConfig mirrors pricing.Table in a form viper can decode. Map keys
// are matched case-insensitively because viper lower-cases them.
type PricingConfig struct {
	Strategy  string                `mapstructure:"strategy"`
	DailyFine float64               `mapstructure:"daily_fine"`
	Tiers     map[string]TierConfig `mapstructure:"tiers"`
	Discounts map[string]float64    `mapstructure:"discounts"`
	Damage    map[string]float64    `mapstructure:"damage"`
}

type RentalConfig struct {
	DefaultDays int32         `mapstructure:"default_days"`
	LockWait    time.Duration `mapstructure:"lock_wait"`
}

type NotifierConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Interval  time.Duration `mapstructure:"interval"`
	BatchSize int           `mapstructure:"batch_size"`
}

type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("storage.driver", DriverMemory)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "bookrent")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 25)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.lock_timeout", "250ms")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("pricing.strategy", string(pricing.StrategyDaily))
	v.SetDefault("pricing.daily_fine", 2.0)
	v.SetDefault("pricing.tiers", map[string]any{
		"standard": map[string]any{"deposit_ratio": 0.5, "daily_ratio": 0.05},
		"premium":  map[string]any{"deposit_ratio": 0.7, "daily_ratio": 0.08},
	})
	v.SetDefault("pricing.discounts", map[string]any{
		"regular": 0.0,
		"student": 0.15,
		"senior":  0.20,
		"vip":     0.25,
	})
	v.SetDefault("pricing.damage", map[string]any{
		"minor":     0.2,
		"moderate":  0.5,
		"severe":    0.8,
		"destroyed": 1.0,
	})

	v.SetDefault("rental.default_days", 14)
	v.SetDefault("rental.lock_wait", "250ms")

	v.SetDefault("notifier.enabled", false)
	v.SetDefault("notifier.interval", "1h")
	v.SetDefault("notifier.batch_size", 50)

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.bookrent")
	v.AddConfigPath("/etc/bookrent")

	v.SetEnvPrefix("BOOKRENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		slog.Debug("Config file not found, using defaults and environment variables")
	}

	// Conventional URLs win over the split settings
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		v.Set("database.url", dbURL)
	}
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		v.Set("redis.url", redisURL)
		v.Set("redis.enabled", true)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks settings that would otherwise fail deep inside a request
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverPostgres:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Rental.DefaultDays < 1 || c.Rental.DefaultDays > models.MaxRentalDays {
		return fmt.Errorf("rental.default_days must be between 1 and %d", models.MaxRentalDays)
	}
	if c.Rental.LockWait <= 0 {
		return fmt.Errorf("rental.lock_wait must be positive")
	}
	if c.Notifier.Enabled && c.Notifier.Interval <= 0 {
		return fmt.Errorf("notifier.interval must be positive")
	}
	if c.RateLimit.Enabled && (c.RateLimit.Requests < 1 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("rate_limit needs positive requests and window")
	}
	if _, err := c.Pricing.Table(); err != nil {
		return err
	}
	return nil
}

// Table converts the pricing settings and validates the result
func (p PricingConfig) Table() (pricing.Table, error) {
	table := pricing.Table{
		Tiers:     make(map[models.BookTier]pricing.TierRates),
		Discounts: make(map[models.ReaderCategory]decimal.Decimal),
		Damage:    make(map[models.DamageLevel]decimal.Decimal),
		DailyFine: money.FromDecimal(decimal.NewFromFloat(p.DailyFine)),
		Strategy:  pricing.Strategy(strings.ToLower(p.Strategy)),
	}

	for name, tier := range p.Tiers {
		t := models.BookTier(strings.ToLower(name))
		if !t.IsValid() {
			return pricing.Table{}, fmt.Errorf("pricing.tiers: unknown tier %q", name)
		}
		table.Tiers[t] = pricing.TierRates{
			DepositRatio: decimal.NewFromFloat(tier.DepositRatio),
			DailyRatio:   decimal.NewFromFloat(tier.DailyRatio),
		}
	}

	categories := []models.ReaderCategory{
		models.ReaderCategoryRegular, models.ReaderCategoryStudent,
		models.ReaderCategorySenior, models.ReaderCategoryVIP,
	}
	for name, rate := range p.Discounts {
		matched := false
		for _, c := range categories {
			if strings.EqualFold(name, string(c)) {
				table.Discounts[c] = decimal.NewFromFloat(rate)
				matched = true
			}
		}
		if !matched {
			return pricing.Table{}, fmt.Errorf("pricing.discounts: unknown reader category %q", name)
		}
	}

	for name, fraction := range p.Damage {
		level := models.DamageLevel(strings.ToLower(name))
		if !level.IsValid() {
			return pricing.Table{}, fmt.Errorf("pricing.damage: unknown damage level %q", name)
		}
		table.Damage[level] = decimal.NewFromFloat(fraction)
	}

	if err := table.Validate(); err != nil {
		return pricing.Table{}, err
	}
	return table, nil
}
