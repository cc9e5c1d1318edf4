package config

import (
	"os"
	"path/filepath"
	"sync"

	"fjacquet/sci-ledger/internal/logging"

	"github.com/joho/godotenv"
)

var once sync.Once

// LoadEnv loads a .env file from the working directory or its parent into
// the process environment, once. Variables already set are kept.
func LoadEnv(logger logging.Logger) {
	once.Do(func() {
		loadEnvFile(logger, ".env", filepath.Join("..", ".env"))
	})
}

func loadEnvFile(logger logging.Logger, candidates ...string) string {
	for _, envFile := range candidates {
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		if err := godotenv.Load(envFile); err != nil {
			logger.WithError(err).Warn("Error loading .env file", logging.F(logging.FieldFile, envFile))
			return ""
		}
		logger.Debug("Loaded environment variables", logging.F(logging.FieldFile, envFile))
		return envFile
	}
	logger.Debug("No .env file found, using environment variables")
	return ""
}

// GetEnv retrieves an environment variable with a fallback value if not set
func GetEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	return value
}
