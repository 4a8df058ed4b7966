package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"sheetdiff/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig
	Compare   CompareConfig
	Palette   PaletteConfig
	History   HistoryConfig
	Profiling ProfilingConfig
	Logging   LoggingConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port            string
	GinMode         string
	ResultsDir      string
	MaxUploadBytes  int64
	MaxConcurrent   int
	CompareTimeout  time.Duration
	CORSAllowOrigin string
}

// CompareConfig holds defaults applied to every comparison request
type CompareConfig struct {
	HeaderRow  int
	KeyFields  string
	SheetName  string
	ReadOnly   bool
	StrictKeys bool
}

// PaletteConfig holds the RRGGBB highlight colors
type PaletteConfig struct {
	Changed string
	Removed string
	Added   string
}

// HistoryConfig selects the run history store; an empty driver keeps history in memory
type HistoryConfig struct {
	Driver string
	DSN    string
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string
	Format string
}

// loader accumulates parse problems so one error can name all of them
type loader struct {
	problems []string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	l := &loader{}
	config := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("PORT", "8000"),
			GinMode:         getEnvOrDefault("GIN_MODE", "release"),
			ResultsDir:      getEnvOrDefault("RESULTS_DIR", "./results"),
			MaxUploadBytes:  l.int64("MAX_UPLOAD_BYTES", 100<<20),
			MaxConcurrent:   l.int("MAX_CONCURRENT_COMPARISONS", 2),
			CompareTimeout:  l.duration("COMPARE_TIMEOUT", 5*time.Minute),
			CORSAllowOrigin: getEnvOrDefault("CORS_ALLOW_ORIGIN", "*"),
		},
		Compare: CompareConfig{
			HeaderRow:  l.int("HEADER_ROW", 3),
			KeyFields:  getEnvOrDefault("KEY_FIELDS", ""),
			SheetName:  getEnvOrDefault("SHEET_NAME", ""),
			ReadOnly:   l.bool("READ_ONLY_OUTPUTS", true),
			StrictKeys: l.bool("STRICT_KEYS", false),
		},
		Palette: PaletteConfig{
			Changed: getEnvOrDefault("COLOR_CHANGED", "FFFF00"),
			Removed: getEnvOrDefault("COLOR_REMOVED", "00FF00"),
			Added:   getEnvOrDefault("COLOR_ADDED", "FF0000"),
		},
		History: HistoryConfig{
			Driver: getEnvOrDefault("HISTORY_DRIVER", ""),
			DSN:    getEnvOrDefault("HISTORY_DSN", ""),
		},
		Profiling: ProfilingConfig{
			Port:    getEnvOrDefault("PPROF_PORT", "6060"),
			Enabled: l.bool("PPROF_ENABLED", false),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "INFO"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
	}

	l.problems = append(l.problems, config.validate()...)
	if len(l.problems) > 0 {
		return nil, errors.ConfigInvalid("configuration validation failed: " + strings.Join(l.problems, "; "))
	}
	return config, nil
}

func (c *Config) validate() []string {
	var problems []string
	if c.Server.MaxUploadBytes <= 0 {
		problems = append(problems, "MAX_UPLOAD_BYTES must be positive")
	}
	if c.Server.MaxConcurrent < 1 {
		problems = append(problems, "MAX_CONCURRENT_COMPARISONS must be at least 1")
	}
	if c.Server.CompareTimeout <= 0 {
		problems = append(problems, "COMPARE_TIMEOUT must be positive")
	}
	if c.Compare.HeaderRow < 1 {
		problems = append(problems, "HEADER_ROW must be at least 1")
	}
	switch c.History.Driver {
	case "":
	case "postgres", "sqlite3":
		if c.History.DSN == "" {
			problems = append(problems, "HISTORY_DSN is required when HISTORY_DRIVER is set")
		}
	default:
		problems = append(problems, fmt.Sprintf("HISTORY_DRIVER must be postgres or sqlite3, got %q", c.History.Driver))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("LOG_FORMAT must be text or json, got %q", c.Logging.Format))
	}
	return problems
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (l *loader) int(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		intValue, err := strconv.Atoi(value)
		if err != nil {
			l.problems = append(l.problems, fmt.Sprintf("%s: %q is not an integer", key, value))
			return defaultValue
		}
		return intValue
	}
	return defaultValue
}

func (l *loader) int64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			l.problems = append(l.problems, fmt.Sprintf("%s: %q is not an integer", key, value))
			return defaultValue
		}
		return intValue
	}
	return defaultValue
}

func (l *loader) bool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			l.problems = append(l.problems, fmt.Sprintf("%s: %q is not a boolean", key, value))
			return defaultValue
		}
		return boolValue
	}
	return defaultValue
}

func (l *loader) duration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			l.problems = append(l.problems, fmt.Sprintf("%s: %q is not a duration", key, value))
			return defaultValue
		}
		return duration
	}
	return defaultValue
}
