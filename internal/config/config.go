package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr       string
	Environment    string
	LogLevel       string
	ServiceName    string
	RequestTimeout time.Duration
	Store          StoreConfig
	Redis          RedisConfig
	Kafka          KafkaConfig
	Checkout       CheckoutConfig
}

// StoreConfig выбор хранилища: memory или mongo
type StoreConfig struct {
	Driver            string
	MongoURI          string
	MongoDatabase     string
	MongoTransactions bool
}

// RedisConfig пустой Addr отключает кэш каталога и idempotency в redis
type RedisConfig struct {
	Addr           string
	CacheTTL       time.Duration
	IdempotencyTTL time.Duration
}

// KafkaConfig пустой список брокеров означает публикацию событий в лог
type KafkaConfig struct {
	Brokers []string
}

type CheckoutConfig struct {
	ExpressFee decimal.Decimal
	Reprice    bool
}

const (
	DriverMemory = "memory"
	DriverMongo  = "mongo"
)

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("env")
	v.SetConfigName(".env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")

	v.SetDefault("HTTP_ADDR", ":9091")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SERVICE_NAME", "grocery-api")
	v.SetDefault("REQUEST_TIMEOUT", "10s")
	v.SetDefault("STORE_DRIVER", DriverMemory)
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "grocery")
	v.SetDefault("MONGO_TRANSACTIONS", false)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("CACHE_TTL", "1m")
	v.SetDefault("IDEMPOTENCY_TTL", "24h")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("SHIPPING_FEE_EXPRESS", "50")
	v.SetDefault("CHECKOUT_REPRICE", false)

	v.AutomaticEnv()

	// .env is optional, env vars are enough
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	fee, err := decimal.NewFromString(v.GetString("SHIPPING_FEE_EXPRESS"))
	if err != nil {
		return nil, fmt.Errorf("SHIPPING_FEE_EXPRESS: %w", err)
	}

	cfg := &Config{
		HTTPAddr:       v.GetString("HTTP_ADDR"),
		Environment:    v.GetString("ENVIRONMENT"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		ServiceName:    v.GetString("SERVICE_NAME"),
		RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
		Store: StoreConfig{
			Driver:            strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER"))),
			MongoURI:          v.GetString("MONGO_URI"),
			MongoDatabase:     v.GetString("MONGO_DATABASE"),
			MongoTransactions: v.GetBool("MONGO_TRANSACTIONS"),
		},
		Redis: RedisConfig{
			Addr:           strings.TrimSpace(v.GetString("REDIS_ADDR")),
			CacheTTL:       v.GetDuration("CACHE_TTL"),
			IdempotencyTTL: v.GetDuration("IDEMPOTENCY_TTL"),
		},
		Kafka: KafkaConfig{
			Brokers: splitCSV(v.GetString("KAFKA_BROKERS")),
		},
		Checkout: CheckoutConfig{
			ExpressFee: fee,
			Reprice:    v.GetBool("CHECKOUT_REPRICE"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case DriverMemory:
	case DriverMongo:
		if c.Store.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for the mongo store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Checkout.ExpressFee.IsNegative() {
		return fmt.Errorf("SHIPPING_FEE_EXPRESS must not be negative")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	return nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
