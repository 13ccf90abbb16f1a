package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment keys.
const (
	EnvDatabaseURL = "ECOMSTATS_DB_URL"
	EnvDataset     = "ECOMSTATS_DATASET"
	EnvFormat      = "ECOMSTATS_FORMAT"
	EnvLogLevel    = "ECOMSTATS_LOG_LEVEL"
)

// Defaults used when neither a flag nor the environment provides a value.
const (
	DefaultDatabaseURL = "sqlite://ecommerce.db"
	DefaultDataset     = "ecommerce_data.json"
	DefaultFormat      = "text"
	DefaultLogLevel    = "info"
)

type Config struct {
	DatabaseURL string
	Dataset     string
	Format      string
	LogLevel    string
}

func getEnv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

// Load reads the optional .env files (default ".env"), then builds the
// configuration from the environment. Variables already set take precedence
// over the files. A missing file is not an error.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}

	return Config{
		DatabaseURL: getEnv(EnvDatabaseURL, DefaultDatabaseURL),
		Dataset:     getEnv(EnvDataset, DefaultDataset),
		Format:      getEnv(EnvFormat, DefaultFormat),
		LogLevel:    getEnv(EnvLogLevel, DefaultLogLevel),
	}, nil
}
