package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Environment variables
const (
	EnvConfigFile = "FLASHARB_CONFIG"
	EnvPricesFile = "FLASHARB_PRICES"
	EnvDebug      = "FLASHARB_DEBUG"
)

// LoadEnv loads environment variables from a .env file if present.
func LoadEnv() error {
	return godotenv.Load()
}

// GetEnvWithDefault gets an environment variable with a default value.
func GetEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
