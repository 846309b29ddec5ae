// Package config provides application configuration management with support for
// command-line flags, environment variables and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Catalog   CatalogConfig
	Assets    AssetsConfig
	Progress  ProgressConfig
	RateLimit RateLimitConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// IsProduction reports whether the server runs in production.
func (a AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
	// File enables a rotating log file next to stdout when set.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
}

// DatabaseConfig selects the storage engine.
type DatabaseConfig struct {
	Driver string
	Path   string // sqlite file
	URL    string // postgres DSN
}

// DSN returns the connection string for the selected driver.
func (d DatabaseConfig) DSN() string {
	if d.Driver == DriverPostgres {
		return d.URL
	}
	return d.Path
}

// CatalogConfig bounds catalog listing.
type CatalogConfig struct {
	MaxPageLimit     int
	DefaultPageLimit int
}

// AssetsConfig holds the static asset directories. Empty disables serving.
type AssetsConfig struct {
	AudioDir string
	ImageDir string
}

// ProgressConfig holds the click counter configuration.
type ProgressConfig struct {
	TargetClicks int
}

// RateLimitConfig holds per-client limits for mutating endpoints.
type RateLimitConfig struct {
	LikesPerMinute  int
	ClicksPerMinute int
	Burst           int
}

// LoadConfig loads configuration from the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("beats-server", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	logFile := fs.String("log-file", "", "Rotating log file path (default: stdout only)")

	port := fs.String("port", "", "Server port (default: 5000)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	origins := fs.String("cors-origins", "", "Comma-separated allowed CORS origins")

	dbDriver := fs.String("db-driver", "", "Database driver (sqlite, postgres)")
	dbPath := fs.String("db-path", "", "SQLite database file")
	dbURL := fs.String("database-url", "", "Postgres connection URL")

	maxLimit := fs.String("max-page-limit", "", "Maximum page size for listings (default: 100)")
	audioDir := fs.String("audio-dir", "", "Directory served under /audio")
	imageDir := fs.String("image-dir", "", "Directory served under /images")
	target := fs.String("target-clicks", "", "Click progress target (default: 1000)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Missing .env is fine; existing variables always win.
	_ = godotenv.Load(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level:      getConfigValue(*logLevel, "LOG_LEVEL", "info"),
			File:       getConfigValue(*logFile, "LOG_FILE", ""),
			MaxSizeMB:  getIntConfigValue("", "LOG_MAX_SIZE_MB", 50),
			MaxBackups: getIntConfigValue("", "LOG_MAX_BACKUPS", 3),
			MaxAgeDays: getIntConfigValue("", "LOG_MAX_AGE_DAYS", 28),
			Compress:   getBoolConfigValue("", "LOG_COMPRESS", true),
		},
		Server: ServerConfig{
			Port:           getConfigValue(*port, "PORT", "5000"),
			AllowedOrigins: splitList(getConfigValue(*origins, "CORS_ORIGINS", "*")),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(getConfigValue(*dbDriver, "DB_DRIVER", DriverSQLite)),
			Path:   getConfigValue(*dbPath, "DB_PATH", ""),
			URL:    getConfigValue(*dbURL, "DATABASE_URL", ""),
		},
		Catalog: CatalogConfig{
			MaxPageLimit:     getIntConfigValue(*maxLimit, "MAX_PAGINATION_LIMIT", 100),
			DefaultPageLimit: getIntConfigValue("", "DEFAULT_PAGE_LIMIT", 6),
		},
		Assets: AssetsConfig{
			AudioDir: getConfigValue(*audioDir, "AUDIO_DIR", ""),
			ImageDir: getConfigValue(*imageDir, "IMAGE_DIR", ""),
		},
		Progress: ProgressConfig{
			TargetClicks: getIntConfigValue(*target, "TARGET_CLICKS", 1000),
		},
		RateLimit: RateLimitConfig{
			LikesPerMinute:  getIntConfigValue("", "LIKES_PER_MINUTE", 30),
			ClicksPerMinute: getIntConfigValue("", "CLICKS_PER_MINUTE", 120),
			Burst:           getIntConfigValue("", "RATE_LIMIT_BURST", 10),
		},
	}

	var err error
	if cfg.Server.ReadTimeout, err = getDurationConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = getDurationConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = getDurationConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	case "":
		return errors.New("ENV is required")
	default:
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("DB_PATH cannot be empty for sqlite")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return errors.New("DATABASE_URL is required for postgres")
		}
	default:
		return fmt.Errorf("invalid database driver: %s (must be sqlite or postgres)", c.Database.Driver)
	}

	if c.Catalog.MaxPageLimit < 1 {
		return fmt.Errorf("max page limit must be positive, got %d", c.Catalog.MaxPageLimit)
	}
	if c.Catalog.DefaultPageLimit < 1 || c.Catalog.DefaultPageLimit > c.Catalog.MaxPageLimit {
		return fmt.Errorf("default page limit %d must be within [1, %d]", c.Catalog.DefaultPageLimit, c.Catalog.MaxPageLimit)
	}
	if c.Progress.TargetClicks < 1 {
		return fmt.Errorf("target clicks must be positive, got %d", c.Progress.TargetClicks)
	}

	return nil
}

func (c *Config) expandPaths() error {
	var err error
	if c.Database.Driver == DriverSQLite {
		if c.Database.Path, err = expandPath(c.Database.Path, filepath.Join("data", "beats.db")); err != nil {
			return fmt.Errorf("invalid database path: %w", err)
		}
	}
	if c.Assets.AudioDir, err = expandPath(c.Assets.AudioDir, ""); err != nil {
		return fmt.Errorf("invalid audio dir: %w", err)
	}
	if c.Assets.ImageDir, err = expandPath(c.Assets.ImageDir, ""); err != nil {
		return fmt.Errorf("invalid image dir: %w", err)
	}
	if c.Logger.File, err = expandPath(c.Logger.File, ""); err != nil {
		return fmt.Errorf("invalid log file: %w", err)
	}
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is expanded instead; an empty result stays empty.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		path = defaultPath
	}
	if path == "" {
		return "", nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	return absPath, nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue accepts "true", "1", "yes" (case-insensitive) as true.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	switch strings.ToLower(strValue) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

// getIntConfigValue returns an int from flag, env var, or default.
// Unparseable values fall back to the default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(strValue))
	if err != nil {
		return defaultValue
	}
	return n
}

func getDurationConfigValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	strValue := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", strings.ToLower(envKey), strValue, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
