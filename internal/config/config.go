package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"dbpool/internal/dbpool"
)

// maxTTLSeconds is the largest ttl a time.Duration can hold.
const maxTTLSeconds = float64(math.MaxInt64) / float64(time.Second)

type Config struct {
	HTTPPort string
	LogLevel string

	DBHost    string
	DBPort    string
	DBName    string
	DBUser    string
	DBPass    string
	DBSSLMode string

	PoolMaxSize        int
	PoolTTL            time.Duration
	PoolAcquireTimeout time.Duration
	PoolReapInterval   time.Duration
}

func Load() (*Config, error) {
	c := &Config{
		HTTPPort:  getenv("HTTP_PORT", "8083"),
		LogLevel:  getenv("LOG_LEVEL", "info"),
		DBHost:    getenv("DB_HOST", "localhost"),
		DBPort:    getenv("DB_PORT", "5432"),
		DBName:    getenv("DB_NAME", "dbpool"),
		DBUser:    getenv("DB_USER", "dbpool"),
		DBPass:    getenv("DB_PASS", "dbpool"),
		DBSSLMode: getenv("DB_SSLMODE", "disable"),
	}

	var err error
	if c.PoolMaxSize, err = strconv.Atoi(getenv("DB_POOL_MAX_SIZE", "10")); err != nil {
		return nil, fmt.Errorf("DB_POOL_MAX_SIZE: %w", err)
	}
	if c.PoolMaxSize <= 0 {
		return nil, fmt.Errorf("DB_POOL_MAX_SIZE: must be positive, got %d", c.PoolMaxSize)
	}

	// ttl is given in seconds, fractions allowed
	ttl, err := strconv.ParseFloat(getenv("DB_POOL_TTL_SECONDS", "1"), 64)
	if err != nil {
		return nil, fmt.Errorf("DB_POOL_TTL_SECONDS: %w", err)
	}
	if math.IsNaN(ttl) || math.IsInf(ttl, 0) {
		return nil, fmt.Errorf("DB_POOL_TTL_SECONDS: must be a finite number, got %v", ttl)
	}
	if ttl < 0 {
		return nil, fmt.Errorf("DB_POOL_TTL_SECONDS: must not be negative, got %v", ttl)
	}
	if ttl > maxTTLSeconds {
		return nil, fmt.Errorf("DB_POOL_TTL_SECONDS: must be at most %.0f, got %v", maxTTLSeconds, ttl)
	}
	c.PoolTTL = time.Duration(ttl * float64(time.Second))

	if c.PoolAcquireTimeout, err = time.ParseDuration(getenv("DB_POOL_ACQUIRE_TIMEOUT", "0s")); err != nil {
		return nil, fmt.Errorf("DB_POOL_ACQUIRE_TIMEOUT: %w", err)
	}
	if c.PoolReapInterval, err = time.ParseDuration(getenv("DB_POOL_REAP_INTERVAL", "30s")); err != nil {
		return nil, fmt.Errorf("DB_POOL_REAP_INTERVAL: %w", err)
	}

	return c, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%s", c.HTTPPort)
}

func (c *Config) PostgresDSN() string {
	// pgx format
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) Pool() dbpool.Config {
	return dbpool.Config{
		MaxSize:        c.PoolMaxSize,
		TTL:            c.PoolTTL,
		AcquireTimeout: c.PoolAcquireTimeout,
	}
}
