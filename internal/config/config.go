package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendREST   = "rest"
	BackendMemory = "memory"
)

type Config struct {
	// HTTP server
	Port string

	// Upstream finance API
	APIBaseURL string

	// Backend selection: "rest" talks to the upstream API, "memory" runs
	// against a local in-process fake (development only).
	Backend string

	// Session token persistence
	SessionDBPath string

	// Rate limiting for mutating requests
	RequestsPerMinute int

	// Logging
	LogLevel string

	// Dashboard snapshot cache
	SnapshotTTL time.Duration
}

// Load reads configuration from the environment. A .env file in the
// working directory is honored when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:              getEnv("PORT", "8080"),
		APIBaseURL:        getEnv("API_BASE_URL", "http://localhost:8000/api/"),
		Backend:           getEnv("BACKEND", BackendREST),
		SessionDBPath:     getEnv("SESSION_DB_PATH", "./data/finview.db"),
		RequestsPerMinute: getEnvInt("REQUESTS_PER_MINUTE", 60),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		SnapshotTTL:       getEnvDuration("SNAPSHOT_TTL", 5*time.Minute),
	}
}

// Validate checks the configuration and returns all problems at once.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.Backend {
	case BackendREST:
		u, err := url.Parse(c.APIBaseURL)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid API base URL '%s': %v", c.APIBaseURL, err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", u.Scheme))
		}
	case BackendMemory:
		// No upstream needed.
	default:
		errs = append(errs, fmt.Sprintf("invalid backend '%s': must be one of [%s %s]", c.Backend, BackendREST, BackendMemory))
	}

	if c.SessionDBPath == "" {
		errs = append(errs, "session database path cannot be empty")
	} else if dir := filepath.Dir(c.SessionDBPath); dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				errs = append(errs, fmt.Sprintf("cannot create session database directory '%s': %v", dir, err))
			}
		}
	}

	if c.RequestsPerMinute < 1 {
		errs = append(errs, fmt.Sprintf("invalid requests per minute %d: must be at least 1", c.RequestsPerMinute))
	}

	if c.SnapshotTTL < time.Second {
		errs = append(errs, fmt.Sprintf("invalid snapshot TTL %v: must be at least 1 second", c.SnapshotTTL))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
