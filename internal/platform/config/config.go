// Package config centralizes the environment variables used by the binaries.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config aggregates every parameter the API and the importer need.
type Config struct {
	HTTPAddress string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// The cache may live on a separate instance so losing it never takes the
	// tally store down with it. Empty means "same as RedisAddr".
	CacheRedisAddr  string
	TallyKeyPrefix  string
	CacheKeyPrefix  string
	ResultsCacheTTL int
	ServerSalt      string

	CaptchaProvider  string
	CaptchaSecretKey string
	CaptchaSiteKey   string

	RateLimitEnabled       bool
	RateLimitMaxActions    int
	RateLimitWindowSeconds int
	RateLimitKeyPrefix     string

	AutoMigrate   bool
	CandidatesCSV string
}

func Load() (Config, error) {
	// Defaults target local runs; everything can be overridden in Docker/K8s.
	cfg := Config{
		HTTPAddress:            getEnv("HTTP_ADDRESS", ":8080"),
		PostgresHost:           getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:           getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:           getEnv("POSTGRES_USER", "poll"),
		PostgresPassword:       getEnv("POSTGRES_PASSWORD", "poll"),
		PostgresDB:             getEnv("POSTGRES_DB", "bd_elections_2026"),
		PostgresSSLMode:        getEnv("POSTGRES_SSLMODE", "disable"),
		RedisAddr:              getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		CacheRedisAddr:         os.Getenv("CACHE_REDIS_ADDR"),
		TallyKeyPrefix:         getEnv("REDIS_TALLY_PREFIX", "tally"),
		CacheKeyPrefix:         getEnv("REDIS_CACHE_PREFIX", "cache"),
		ResultsCacheTTL:        getEnvAsInt("RESULTS_CACHE_TTL", 15),
		ServerSalt:             getEnv("SERVER_SALT", "change-me"),
		CaptchaProvider:        getEnv("CAPTCHA_PROVIDER", "none"),
		CaptchaSecretKey:       os.Getenv("CAPTCHA_SECRET_KEY"),
		CaptchaSiteKey:         os.Getenv("CAPTCHA_SITE_KEY"),
		RateLimitEnabled:       getEnv("RATE_LIMIT_ENABLED", "true") == "true",
		RateLimitMaxActions:    getEnvAsInt("RATE_LIMIT_MAX", 50),
		RateLimitWindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW", 3600),
		RateLimitKeyPrefix:     getEnv("RATE_LIMIT_PREFIX", "ratelimit"),
		AutoMigrate:            getEnvAsBool("DB_AUTO_MIGRATE", true),
		CandidatesCSV:          getEnv("CANDIDATES_CSV", "/data/bd_elections_2026_candidates.csv"),
	}

	dbStr := getEnv("REDIS_DB", "0")
	dbInt, err := strconv.Atoi(dbStr)
	if err != nil {
		return Config{}, fmt.Errorf("config: invalid REDIS_DB: %w", err)
	}
	cfg.RedisDB = dbInt

	return cfg, nil
}

func (c Config) PostgresDSN() string {
	// DSN format stays compatible with GORM and migration tooling.
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresDB,
		c.PostgresSSLMode,
	)
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getEnvAsBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	switch value {
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return true
	}
}
