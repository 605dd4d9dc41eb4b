package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates all process configuration. Built once in main from the
// environment so the rest of the code never reads env vars directly.
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Auth     AuthConfig
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// PostgresConfig holds the connection string for the primary store.
// Empty URL means in-memory stores (dev and tests).
type PostgresConfig struct {
	URL          string
	MaxOpenConns int
}

// RedisConfig holds cache connection settings.
// Empty URL disables the availability cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds the notification event broker settings.
// Empty Brokers disables the kafka sink (events stay in-process).
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// AuthConfig holds JWT validation settings.
type AuthConfig struct {
	JWTSigningKey string
	// PaymentTokenKey verifies payment confirmation tokens issued by the
	// external payment collaborator.
	PaymentTokenKey string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Server: ServerConfig{
			Addr:            envOr("ATTACHE_ADDR", ":8080"),
			ShutdownTimeout: envDuration("ATTACHE_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Postgres: PostgresConfig{
			URL:          os.Getenv("ATTACHE_POSTGRES_URL"),
			MaxOpenConns: envInt("ATTACHE_POSTGRES_MAX_CONNS", 16),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("ATTACHE_REDIS_URL"),
			PoolSize:     envInt("ATTACHE_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("ATTACHE_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("ATTACHE_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("ATTACHE_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("ATTACHE_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("ATTACHE_KAFKA_BROKERS")),
			Topic:   envOr("ATTACHE_KAFKA_TOPIC", "attache.case-events"),
		},
		Auth: AuthConfig{
			JWTSigningKey:   envOr("ATTACHE_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			PaymentTokenKey: envOr("ATTACHE_PAYMENT_TOKEN_KEY", "dev-payment-key-change-in-production"),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
