package config

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const devJWTSecret = "truebite_dev_secret_change_me"

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // sqlite | postgres
	DSN    string `mapstructure:"dsn"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type S3Config struct {
	Region string `mapstructure:"region"`
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
}

type SeedConfig struct {
	ManagerEmail    string `mapstructure:"manager_email"`
	ManagerPassword string `mapstructure:"manager_password"`
	Chefs           int    `mapstructure:"chefs"`
	DishesPerChef   int    `mapstructure:"dishes_per_chef"`
	DeliveryPersons int    `mapstructure:"delivery_persons"`
	Customers       int    `mapstructure:"customers"`
	Seed            int64  `mapstructure:"seed"`
}

type Config struct {
	Port               string          `mapstructure:"port"`
	GinMode            string          `mapstructure:"gin_mode"`
	LogLevel           string          `mapstructure:"log_level"`
	JWTSecret          string          `mapstructure:"jwt_secret"`
	TokenTTL           time.Duration   `mapstructure:"token_ttl"`
	ShutdownTimeout    time.Duration   `mapstructure:"shutdown_timeout"`
	ReadTimeout        time.Duration   `mapstructure:"read_timeout"`
	ReadHeaderTimeout  time.Duration   `mapstructure:"read_header_timeout"`
	WriteTimeout       time.Duration   `mapstructure:"write_timeout"`
	DefaultDeliveryFee decimal.Decimal `mapstructure:"default_delivery_fee"`
	Database           DatabaseConfig  `mapstructure:"database"`
	Kafka              KafkaConfig     `mapstructure:"kafka"`
	S3                 S3Config        `mapstructure:"s3"`
	Seed               SeedConfig      `mapstructure:"seed"`
}

// SetDefaults registers a default for every key so env overrides work without a config file
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("gin_mode", "debug")
	v.SetDefault("log_level", "info")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("token_ttl", "24h")
	v.SetDefault("shutdown_timeout", "10s")
	v.SetDefault("read_timeout", "15s")
	v.SetDefault("read_header_timeout", "5s")
	v.SetDefault("write_timeout", "30s")
	v.SetDefault("default_delivery_fee", "5.00")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "truebite.db")
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "truebite.events")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.prefix", "reports")
	v.SetDefault("seed.manager_email", "manager@truebite.local")
	v.SetDefault("seed.manager_password", "manager123")
	v.SetDefault("seed.chefs", 3)
	v.SetDefault("seed.dishes_per_chef", 4)
	v.SetDefault("seed.delivery_persons", 4)
	v.SetDefault("seed.customers", 10)
	v.SetDefault("seed.seed", 42)
}

// Load reads the optional config file plus TRUEBITE_* environment variables
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix("truebite")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		slog.Info("Using config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	decoderConfigOption := viper.DecoderConfigOption(func(dc *mapstructure.DecoderConfig) {
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			stringToDecimalHookFunc(),
		)
	})
	if err := v.Unmarshal(&cfg, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	if cfg.JWTSecret == "" {
		slog.Warn("TRUEBITE_JWT_SECRET not set. Using the development secret. PLEASE SET A SECRET IN PRODUCTION!")
		cfg.JWTSecret = devJWTSecret
	}
	if cfg.Database.Driver != "sqlite" && cfg.Database.Driver != "postgres" {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	return &cfg, nil
}

func stringToDecimalHookFunc() mapstructure.DecodeHookFuncType {
	target := reflect.TypeOf(decimal.Decimal{})
	return func(from, to reflect.Type, data interface{}) (interface{}, error) {
		if to != target {
			return data, nil
		}
		switch d := data.(type) {
		case string:
			return decimal.NewFromString(d)
		case float64:
			return decimal.NewFromFloat(d), nil
		case int:
			return decimal.NewFromInt(int64(d)), nil
		}
		return data, nil
	}
}

// SlogLevel parses the configured log level, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
