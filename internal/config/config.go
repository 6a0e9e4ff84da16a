package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	ChargeAmount   int64
	ChargeCurrency string

	GatewayURL       string
	GatewayPublicKey string
	GatewaySecretKey string
	GatewayTimeout   time.Duration

	ChargeEndpointURL string
	ChargeTimeout     time.Duration
	SessionTTL        time.Duration

	DatabaseURL    string
	RedisURL       string
	KafkaBrokers   string
	NatsURL        string
	JaegerEndpoint string
}

func Load() *Config {
	port := getenv("PORT", "8080")

	return &Config{
		Port:              port,
		ChargeAmount:      getInt64("CHARGE_AMOUNT", 1000),
		ChargeCurrency:    strings.ToLower(getenv("CHARGE_CURRENCY", "usd")),
		GatewayURL:        strings.TrimRight(getenv("GATEWAY_URL", "http://localhost:12111"), "/"),
		GatewayPublicKey:  os.Getenv("GATEWAY_PUBLIC_KEY"),
		GatewaySecretKey:  os.Getenv("GATEWAY_SECRET_KEY"),
		GatewayTimeout:    getDuration("GATEWAY_TIMEOUT", 10*time.Second),
		ChargeEndpointURL: getenv("CHARGE_ENDPOINT_URL", "http://localhost:"+port+"/api/payment"),
		ChargeTimeout:     getDuration("CHARGE_TIMEOUT", 30*time.Second),
		SessionTTL:        getDuration("SESSION_TTL", 30*time.Minute),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          getenv("REDIS_URL", "localhost:6379"),
		KafkaBrokers:      getenv("KAFKA_BROKERS", "localhost:9092"),
		NatsURL:           os.Getenv("NATS_URL"),
		JaegerEndpoint:    os.Getenv("JAEGER_ENDPOINT"),
	}
}

// Validate checks the settings the checkout cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if c.ChargeAmount <= 0 {
		errs = append(errs, errors.New("CHARGE_AMOUNT must be a positive number of minor units"))
	}
	if c.GatewayPublicKey == "" {
		errs = append(errs, errors.New("GATEWAY_PUBLIC_KEY is required"))
	}
	if c.GatewaySecretKey == "" {
		errs = append(errs, errors.New("GATEWAY_SECRET_KEY is required"))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	return errors.Join(errs...)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt64(key string, def int64) int64 {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	}
	return def
}

// getDuration accepts Go durations ("15s") or plain seconds ("15").
func getDuration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}
