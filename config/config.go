package config

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port int
	Host string
	Env  string // "development" or "production"

	// Data directory
	DataDir string

	// Database
	DatabasePath string

	// Upstream todo service
	UpstreamBaseURL string
	UpstreamAPIKey  string

	// Import pipeline
	ImportChunkSize   int
	ImportTTLSec      int
	ImportConcurrency int
	ImportMaxFileSize int64
	ImportWatchDir    string

	// OAuth settings
	AuthMode              string
	OAuthClientID         string
	OAuthClientSecret     string
	OAuthIssuerURL        string
	OAuthRedirectURI      string
	OAuthExpectedUsername string

	// Debug settings
	DBLogQueries bool
}

var (
	cfg  *Config
	once sync.Once
)

// Get returns the global configuration (singleton)
func Get() *Config {
	once.Do(func() {
		cfg = load()
	})
	return cfg
}

// load reads configuration from environment variables
func load() *Config {
	dataDir := getEnv("TP_DATA_DIR", "./data")
	appDir := filepath.Join(dataDir, "app", "taskport")

	return &Config{
		// Server
		Port: getEnvInt("PORT", 8080),
		Host: getEnv("HOST", "0.0.0.0"),
		Env:  getEnv("ENV", "development"),

		// Data
		DataDir:      dataDir,
		DatabasePath: filepath.Join(appDir, "taskport.sqlite"),

		// Upstream
		UpstreamBaseURL: getEnv("UPSTREAM_BASE_URL", "http://localhost:9000"),
		UpstreamAPIKey:  getEnv("UPSTREAM_API_KEY", ""),

		// Import
		ImportChunkSize:   getEnvInt("IMPORT_CHUNK_SIZE", 100),
		ImportTTLSec:      getEnvInt("IMPORT_TTL_SEC", 1800),
		ImportConcurrency: getEnvInt("IMPORT_CONCURRENCY", 4),
		ImportMaxFileSize: int64(getEnvInt("IMPORT_MAX_FILE_SIZE", 10*1024*1024)),
		ImportWatchDir:    getEnv("IMPORT_WATCH_DIR", ""),

		// OAuth
		AuthMode:              getEnv("TP_AUTH_MODE", "none"),
		OAuthClientID:         getEnv("TP_OAUTH_CLIENT_ID", ""),
		OAuthClientSecret:     getEnv("TP_OAUTH_CLIENT_SECRET", ""),
		OAuthIssuerURL:        getEnv("TP_OAUTH_ISSUER_URL", ""),
		OAuthRedirectURI:      getEnv("TP_OAUTH_REDIRECT_URI", ""),
		OAuthExpectedUsername: getEnv("TP_EXPECTED_USERNAME", ""),

		// Debug
		DBLogQueries: getEnv("DB_LOG_QUERIES", "") == "1",
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env != "production"
}

// Helper functions

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
