package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Port              string
	DatabaseURL       string
	RedisURL          string
	SourceBaseURL     string
	SourceTimeout     time.Duration
	City              string
	EnrichConcurrency int
	EnrichDelay       time.Duration
	DayBucketTTL      time.Duration
	ShardTTL          time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	port := getEnv("PORT", "8080")
	dbURL := getEnv("DATABASE_URL", "")
	redisURL := getEnv("REDIS_URL", "")
	sourceURL := getEnv("SOURCE_BASE_URL", "")
	city := getEnv("CITY", "wien")

	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if sourceURL == "" {
		return nil, fmt.Errorf("SOURCE_BASE_URL is required")
	}

	return &Config{
		Port:              port,
		DatabaseURL:       dbURL,
		RedisURL:          redisURL,
		SourceBaseURL:     sourceURL,
		SourceTimeout:     time.Duration(getEnvInt("SOURCE_TIMEOUT_SECONDS", 10)) * time.Second,
		City:              city,
		EnrichConcurrency: getEnvInt("ENRICH_CONCURRENCY", 2),
		EnrichDelay:       time.Duration(getEnvInt("ENRICH_DELAY_MS", 2000)) * time.Millisecond,
		DayBucketTTL:      time.Duration(getEnvInt("DAY_BUCKET_TTL_MINUTES", 60)) * time.Minute,
		ShardTTL:          time.Duration(getEnvInt("SHARD_TTL_MINUTES", 30)) * time.Minute,
	}, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
