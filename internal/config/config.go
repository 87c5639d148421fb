package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"frizo/stablecoin_engine/pkg/utils"
)

var ErrEnvFileNotFound = errors.New("env file not found")

// Config holds the application configuration.
type Config struct {
	// Logging configuration
	LogLevel     string
	LogFormat    string
	LogFile      string
	LogMaxSizeMB int

	// Application configuration
	Environment    string
	DeploymentFile string
	ScenarioFile   string
	MetricsDump    bool
}

// Load loads the configuration from environment variables.
func Load() *Config {
	config := &Config{
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
		LogFile:        getEnv("LOG_FILE", ""),
		LogMaxSizeMB:   getEnvAsInt("LOG_MAX_SIZE_MB", 100),
		Environment:    getEnv("ENVIRONMENT", "development"),
		DeploymentFile: getEnv("DEPLOYMENT_FILE", "config/deployment.yml"),
		ScenarioFile:   getEnv("SCENARIO_FILE", ""),
		MetricsDump:    getEnvAsBool("METRICS_DUMP", false),
	}

	return config
}

// LoadEnvFile exports the variables of a .env file into the process
// environment. Variables that are already set win.
func LoadEnvFile(path string) error {
	if !utils.FileExists(path) {
		return fmt.Errorf("%w: %s", ErrEnvFileNotFound, path)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

// getEnvAsInt gets an environment variable as integer with a default value.
func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}
