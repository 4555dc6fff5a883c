// Package config provides configuration management for Docket.
// It loads settings from environment variables with the DOCKET_ prefix and
// provides sensible defaults for all configuration options. Command-line
// flags on the entry points override what is loaded here.
package config

import (
	"os"
	"strconv"
)

// Config holds all configuration settings for the Docket application.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Ingest   IngestConfig
	Security SecurityConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    // Server port (default: 7171)
	Host string // Server host (default: 127.0.0.1)
}

// StorageConfig contains database configuration.
type StorageConfig struct {
	DBPath        string // Path to the archive database file (default: ./data/docket.db)
	MigrationsDir string // Path to the SQL migrations directory (default: ./migrations)
}

// IngestConfig contains the source-tree locations for ingestion.
type IngestConfig struct {
	ManifestPath string // Path to the production manifest (default: ./data/manifest.csv)
	TextRoot     string // Root of the extracted-text tree (default: ./data/text)
	NativeRoot   string // Root of the original/native tree (default: ./data/native)
	MediaRoot    string // Root of the media albums tree (default: ./data/media)
	RulesPath    string // Path to the classification rules file; empty uses built-in defaults
	HeaderOffset int    // Manifest preamble lines before the header row (default: 1, -1 detects)
}

// SecurityConfig contains API authentication and throttling settings.
type SecurityConfig struct {
	APIToken  string // Bearer token required on mutating endpoints; empty disables auth
	RateLimit int    // Requests per second per server (default: 20)
}

// LoadConfig loads configuration from environment variables with sensible
// defaults. All environment variables use the DOCKET_ prefix.
func LoadConfig() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port: getEnvInt("DOCKET_PORT", 7171),
			Host: getEnv("DOCKET_HOST", "127.0.0.1"),
		},
		Storage: StorageConfig{
			DBPath:        getEnv("DOCKET_DB_PATH", "./data/docket.db"),
			MigrationsDir: getEnv("DOCKET_MIGRATIONS_DIR", "./migrations"),
		},
		Ingest: IngestConfig{
			ManifestPath: getEnv("DOCKET_MANIFEST_PATH", "./data/manifest.csv"),
			TextRoot:     getEnv("DOCKET_TEXT_ROOT", "./data/text"),
			NativeRoot:   getEnv("DOCKET_NATIVE_ROOT", "./data/native"),
			MediaRoot:    getEnv("DOCKET_MEDIA_ROOT", "./data/media"),
			RulesPath:    getEnv("DOCKET_RULES_PATH", ""),
			HeaderOffset: getEnvInt("DOCKET_MANIFEST_HEADER_OFFSET", 1),
		},
		Security: SecurityConfig{
			APIToken:  getEnv("DOCKET_API_TOKEN", ""),
			RateLimit: getEnvInt("DOCKET_RATE_LIMIT", 20),
		},
	}, nil
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default
// value. If the environment variable exists but cannot be parsed as an
// integer, it returns the default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
