package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

// Cache backends selectable through LOCFORGE_CACHE.
const (
	CacheMemory   = "memory"
	CacheRedis    = "redis"
	CachePostgres = "postgres"
	CacheNone     = "none"
)

type Config struct {
	APIURL       string
	APIKey       string
	SourceLang   string
	TargetLang   string
	WorkerCount  int
	BatchSize    int
	MaxRetries   int
	HTTPTimeout  time.Duration
	PollInterval time.Duration

	// AsyncThreshold is the number of pending texts above which a
	// translation is submitted as a background task.
	AsyncThreshold int

	Cache       string
	CacheTTL    time.Duration
	RedisURL    string
	DatabaseURL string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using environment variables")
	}

	return &Config{
		APIURL:         getEnv("LOCFORGE_API_URL", "http://localhost:8080/api/v1"),
		APIKey:         getEnv("LOCFORGE_API_KEY", ""),
		SourceLang:     getEnv("LOCFORGE_SOURCE_LANG", "en"),
		TargetLang:     getEnv("LOCFORGE_TARGET_LANG", ""),
		WorkerCount:    getEnvInt("LOCFORGE_WORKER_COUNT", 4),
		BatchSize:      getEnvInt("LOCFORGE_BATCH_SIZE", 50),
		MaxRetries:     getEnvInt("LOCFORGE_MAX_RETRIES", 3),
		HTTPTimeout:    getEnvDuration("LOCFORGE_HTTP_TIMEOUT", 60*time.Second),
		PollInterval:   getEnvDuration("LOCFORGE_POLL_INTERVAL", 2*time.Second),
		AsyncThreshold: getEnvInt("LOCFORGE_ASYNC_THRESHOLD", 500),
		Cache:          getEnv("LOCFORGE_CACHE", CacheMemory),
		CacheTTL:       getEnvDuration("LOCFORGE_CACHE_TTL", 0),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
		DatabaseURL:    getEnv("DATABASE_URL", "postgres://localhost:5432/locforge?sslmode=disable"),
	}
}

// Validate checks the settings a translation run depends on. The target
// language may be overridden per command, so it is passed in explicitly.
func (c *Config) Validate(targetLang string) error {
	if c.APIKey == "" {
		return fmt.Errorf("LOCFORGE_API_KEY is not set")
	}
	if _, err := ParseLanguage(c.SourceLang); err != nil {
		return fmt.Errorf("source language: %w", err)
	}
	if targetLang == "" {
		return fmt.Errorf("no target language: set LOCFORGE_TARGET_LANG or pass --target-lang")
	}
	if _, err := ParseLanguage(targetLang); err != nil {
		return fmt.Errorf("target language: %w", err)
	}
	switch c.Cache {
	case CacheMemory, CacheRedis, CachePostgres, CacheNone:
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache)
	}
	return nil
}

// ParseLanguage validates a BCP 47 tag and returns its canonical form.
func ParseLanguage(code string) (string, error) {
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("invalid language code %q: %w", code, err)
	}
	return tag.String(), nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// getEnvDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
