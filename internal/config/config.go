// Package config provides centralized configuration management for the
// notes-api server. It loads configuration from CLI flags and environment
// variables, validates required fields, and provides sensible defaults.
//
// CLI flags control mocking and mode (--no-auth, --dev, --addr). Environment
// variables provide secrets and service configuration.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kuitang/notes-api/internal/ratelimit"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	ListenAddr string

	// Persistent store
	DatabasePath      string // SQLite file path (":memory:" allowed for local runs)
	DatabaseKey       string // optional SQLCipher key, 64 hex characters (32 bytes)
	DatabaseMasterKey string // optional master secret; the SQLCipher key is derived from it

	// Identity provider
	OIDCIssuer string // issuer URL used for discovery and userinfo resolution

	// Mode flags (controlled by CLI flags, not env vars)
	NoAuth  bool // If true, accept any bearer token as a fixed dev user (--no-auth)
	DevMode bool // If true, expose real error messages in 500 responses (--dev)

	// Rate limiting
	RateLimitConfig ratelimit.Config
}

// ValidationError represents a configuration validation error with multiple issues.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// ParseFlags parses CLI flags and returns them. Call before LoadConfig.
func ParseFlags() (noAuth, dev bool, addr string) {
	flag.BoolVar(&noAuth, "no-auth", false, "Accept any bearer token as a fixed development user")
	flag.BoolVar(&dev, "dev", false, "Development mode (verbose error responses)")
	flag.StringVar(&addr, "addr", "", "Listen address (default :8080, overrides LISTEN_ADDR env var)")
	flag.Parse()
	return noAuth, dev, addr
}

// LoadConfig loads configuration from environment variables and CLI flag values.
// The addr flag overrides the LISTEN_ADDR env var if non-empty.
func LoadConfig(noAuth, dev bool, addr string) (*Config, error) {
	cfg := &Config{}

	cfg.NoAuth = noAuth
	cfg.DevMode = dev || strings.EqualFold(os.Getenv("APP_ENV"), "development")

	cfg.ListenAddr = getEnvOrDefault("LISTEN_ADDR", ":8080")
	if addr != "" {
		cfg.ListenAddr = addr
	}

	cfg.DatabasePath = getEnvOrDefault("DATABASE_PATH", "./data/notes.db")
	cfg.DatabaseKey = strings.TrimSpace(os.Getenv("DATABASE_KEY"))
	cfg.DatabaseMasterKey = strings.TrimSpace(os.Getenv("DATABASE_MASTER_KEY"))

	cfg.OIDCIssuer = strings.TrimSpace(os.Getenv("OIDC_ISSUER"))

	cfg.RateLimitConfig = ratelimit.Config{
		RPS:             parseFloat64OrDefault("RATE_LIMIT_RPS", 10),
		Burst:           parseIntOrDefault("RATE_LIMIT_BURST", 20),
		CleanupInterval: parseDurationOrDefault("RATE_LIMIT_CLEANUP_INTERVAL", time.Hour),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present and valid.
func (c *Config) Validate() error {
	var errs []string

	if !c.NoAuth && c.OIDCIssuer == "" {
		errs = append(errs, "OIDC_ISSUER is required (set env var or use --no-auth)")
	}

	if c.DatabasePath == "" {
		errs = append(errs, "DATABASE_PATH must not be empty")
	}

	if c.DatabaseKey != "" && len(c.DatabaseKey) != 64 {
		errs = append(errs, "DATABASE_KEY must be 64 hex characters (32 bytes)")
	}

	if c.DatabaseKey != "" && c.DatabaseMasterKey != "" {
		errs = append(errs, "DATABASE_KEY and DATABASE_MASTER_KEY are mutually exclusive")
	}

	if c.RateLimitConfig.RPS <= 0 {
		errs = append(errs, "RATE_LIMIT_RPS must be positive")
	}
	if c.RateLimitConfig.Burst <= 0 {
		errs = append(errs, "RATE_LIMIT_BURST must be positive")
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}

	return nil
}

// PrintStartupSummary prints a human-readable summary of the configuration to stderr.
func (c *Config) PrintStartupSummary() {
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "notes-api server starting...")

	if c.NoAuth {
		fmt.Fprintln(os.Stderr, "  Auth:    Disabled, fixed dev user (--no-auth)")
	} else {
		fmt.Fprintf(os.Stderr, "  Auth:    OIDC userinfo (issuer: %s)\n", c.OIDCIssuer)
	}

	if c.DatabaseKey != "" || c.DatabaseMasterKey != "" {
		fmt.Fprintf(os.Stderr, "  Store:   SQLite %s (encrypted)\n", c.DatabasePath)
	} else {
		fmt.Fprintf(os.Stderr, "  Store:   SQLite %s\n", c.DatabasePath)
	}

	if c.DevMode {
		fmt.Fprintln(os.Stderr, "  Mode:    Development (verbose errors)")
	} else {
		fmt.Fprintln(os.Stderr, "  Mode:    Production")
	}

	fmt.Fprintf(os.Stderr, "  Listen:  %s\n", c.ListenAddr)
	fmt.Fprintln(os.Stderr, "")
}

// Helper functions for parsing environment variables

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func parseIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// MustLoadConfig loads configuration and panics if validation fails.
// Use this in main() when you want the application to fail fast on bad config.
func MustLoadConfig(noAuth, dev bool, addr string) *Config {
	cfg, err := LoadConfig(noAuth, dev, addr)
	if err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			panic(fmt.Sprintf("Configuration validation failed:\n  - %s", strings.Join(validationErr.Errors, "\n  - ")))
		}
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}
	return cfg
}
