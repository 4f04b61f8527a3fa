package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port                int
	DevMode             bool
	DatabasePath        string
	OptimizerServiceURL string
	OptimizerTimeout    time.Duration
	AnalysisCacheTTL    time.Duration
	SnapshotMaxAge      time.Duration
	LogLevel            string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnvAsInt("PORT", 8080),
		DevMode:             getEnvAsBool("DEV_MODE", false),
		DatabasePath:        getEnv("DATABASE_PATH", "./data/foliocore.db"),
		OptimizerServiceURL: getEnv("OPTIMIZER_SERVICE_URL", "http://localhost:9000"),
		OptimizerTimeout:    time.Duration(getEnvAsInt("OPTIMIZER_TIMEOUT_SECONDS", 30)) * time.Second,
		AnalysisCacheTTL:    time.Duration(getEnvAsInt("ANALYSIS_CACHE_TTL_SECONDS", 300)) * time.Second,
		SnapshotMaxAge:      time.Duration(getEnvAsInt("SNAPSHOT_MAX_AGE_DAYS", 90)) * 24 * time.Hour,
		LogLevel:            getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.OptimizerServiceURL == "" {
		return fmt.Errorf("OPTIMIZER_SERVICE_URL is required")
	}
	if c.AnalysisCacheTTL <= 0 {
		return fmt.Errorf("ANALYSIS_CACHE_TTL_SECONDS must be positive")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
