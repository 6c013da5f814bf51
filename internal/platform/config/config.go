package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process level configuration so main stays lean.
type Server struct {
	Addr          string
	JWTSigningKey string

	// DatabaseURL selects the Postgres-backed stores; empty means in-memory
	// (development and tests only).
	DatabaseURL string

	Redis RedisConfig

	// KafkaBrokers selects the Kafka notification channel; empty means the
	// log channel.
	KafkaBrokers []string
	KafkaTopic   string

	Dispatcher Dispatcher

	RateLimit RateLimit
}

// RateLimit bounds authenticated API requests per moderator.
// Zero requests per window disables limiting.
type RateLimit struct {
	Requests int
	Window   time.Duration
}

// RedisConfig configures the idempotency store connection.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Dispatcher bounds the notification worker pool.
type Dispatcher struct {
	Workers        int
	PollInterval   time.Duration
	AttemptTimeout time.Duration
	MaxAttempts    int
	BackoffInitial time.Duration
	BackoffMax     time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("MODGATE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}
	topic := os.Getenv("KAFKA_NOTIFY_TOPIC")
	if topic == "" {
		topic = "modgate.notifications"
	}

	return Server{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		KafkaBrokers: brokers,
		KafkaTopic:   topic,
		Dispatcher: Dispatcher{
			Workers:        envInt("NOTIFY_WORKERS", 4),
			PollInterval:   envDuration("NOTIFY_POLL_INTERVAL", 2*time.Second),
			AttemptTimeout: envDuration("NOTIFY_ATTEMPT_TIMEOUT", 10*time.Second),
			MaxAttempts:    envInt("NOTIFY_MAX_ATTEMPTS", 5),
			BackoffInitial: envDuration("NOTIFY_BACKOFF_INITIAL", 30*time.Second),
			BackoffMax:     envDuration("NOTIFY_BACKOFF_MAX", 15*time.Minute),
		},
		RateLimit: RateLimit{
			Requests: envInt("RATE_LIMIT_REQUESTS", 120),
			Window:   envDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
	}
}

func envInt(key string, def int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if v, err := time.ParseDuration(raw); err == nil {
			return v
		}
	}
	return def
}
