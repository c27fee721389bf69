package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/studyup/studyup/internal/logger"
)

const (
	PersistModeAsync = "async"
	PersistModeSync  = "sync"
)

type Config struct {
	Addr               string
	DBPath             string
	LogLevel           string
	PersistMode        string
	PersistQueueSize   int
	CORSOrigins        []string
	ShutdownTimeoutSec int
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:               envOr("ADDR", ":8080"),
		DBPath:             envOr("DB_PATH", "file:studyup.db"),
		LogLevel:           envOr("LOG_LEVEL", "INFO"),
		PersistMode:        strings.ToLower(envOr("PERSIST_MODE", PersistModeAsync)),
		PersistQueueSize:   envIntOr("PERSIST_QUEUE_SIZE", 128),
		CORSOrigins:        envListOr("CORS_ORIGINS", []string{"*"}),
		ShutdownTimeoutSec: envIntOr("SHUTDOWN_TIMEOUT_SECONDS", 15),
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("ADDR cannot be empty"))
	}
	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, errors.New("DB_PATH cannot be empty"))
	}
	if _, ok := logger.LookupLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of DEBUG, INFO, WARN, ERROR (got %q)", c.LogLevel))
	}
	switch c.PersistMode {
	case PersistModeAsync, PersistModeSync:
	default:
		errs = append(errs, fmt.Errorf("PERSIST_MODE must be %q or %q (got %q)", PersistModeAsync, PersistModeSync, c.PersistMode))
	}
	if c.PersistQueueSize <= 0 {
		errs = append(errs, fmt.Errorf("PERSIST_QUEUE_SIZE must be positive (got %d)", c.PersistQueueSize))
	}
	if c.ShutdownTimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("SHUTDOWN_TIMEOUT_SECONDS must be positive (got %d)", c.ShutdownTimeoutSec))
	}
	return errors.Join(errs...)
}

func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSec) * time.Second
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envListOr(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
