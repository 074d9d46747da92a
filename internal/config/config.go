package config

import (
	"os"
	"strconv"
	"strings"

	"statcalc/internal/errors"
)

// Supported database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Default significance level and its accepted range (lower bound exclusive)
const (
	DefaultAlpha = 0.05
	MinAlpha     = 0.01
	MaxAlpha     = 0.10
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Analysis AnalysisConfig
	Paths    PathConfig
	Ingest   IngestConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver string
	URL    string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// AnalysisConfig holds defaults for the statistics and test engines
type AnalysisConfig struct {
	Alpha         float64
	EqualVariance bool
	HistoryLimit  int
}

// PathConfig holds file system paths
type PathConfig struct {
	ReportDir string
}

// IngestConfig holds data loading settings
type IngestConfig struct {
	LenientNumbers bool
	Sheet          string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	dbConfig, err := loadDatabaseConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load database configuration")
	}
	config.Database = *dbConfig
	config.Server = *loadServerConfig()
	config.Analysis = *loadAnalysisConfig()
	config.Paths = *loadPathConfig()
	config.Ingest = *loadIngestConfig()

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() (*DatabaseConfig, error) {
	driver := strings.ToLower(getEnvOrDefault("STATCALC_DB_DRIVER", DriverSQLite))
	url := os.Getenv("DATABASE_URL")

	switch driver {
	case DriverSQLite:
		if url == "" {
			url = "statistical_analysis.db"
		}
	case DriverPostgres:
		if url == "" {
			return nil, errors.ConfigInvalid("DATABASE_URL is required for the postgres driver")
		}
	default:
		return nil, errors.ConfigInvalid("STATCALC_DB_DRIVER must be sqlite or postgres, got " + driver)
	}

	return &DatabaseConfig{Driver: driver, URL: url}, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func loadAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{
		Alpha:         getEnvFloatOrDefault("STATCALC_ALPHA", DefaultAlpha),
		EqualVariance: getEnvBoolOrDefault("STATCALC_EQUAL_VARIANCE", false),
		HistoryLimit:  getEnvIntOrDefault("STATCALC_HISTORY_LIMIT", 10),
	}
}

func loadPathConfig() *PathConfig {
	return &PathConfig{
		ReportDir: getEnvOrDefault("STATCALC_REPORT_DIR", "reports"),
	}
}

func loadIngestConfig() *IngestConfig {
	return &IngestConfig{
		LenientNumbers: getEnvBoolOrDefault("STATCALC_LENIENT_NUMBERS", false),
		Sheet:          getEnvOrDefault("STATCALC_SHEET", ""),
	}
}

// ValidAlpha reports whether alpha lies in (MinAlpha, MaxAlpha]
func ValidAlpha(alpha float64) bool {
	return alpha > MinAlpha && alpha <= MaxAlpha
}

func validateConfig(config *Config) error {
	if !ValidAlpha(config.Analysis.Alpha) {
		return errors.ConfigInvalid("STATCALC_ALPHA must be in (0.01, 0.10]")
	}
	if config.Analysis.HistoryLimit <= 0 {
		return errors.ConfigInvalid("STATCALC_HISTORY_LIMIT must be positive")
	}
	if config.Paths.ReportDir == "" {
		return errors.ConfigInvalid("report directory is required")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
