package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Environment variables read by the application.
const (
	EnvStoreDir    = "PFM_STORE_DIR"
	EnvDatabaseURL = "PFM_DATABASE_URL"
	EnvCurrency    = "PFM_CURRENCY"
	EnvLogLevel    = "PFM_LOG_LEVEL"
	EnvModel       = "PFM_MODEL"
)

// Config is the application configuration.
type Config struct {
	StoreDir    string
	DatabaseURL string
	Currency    string
	LogLevel    logrus.Level
	Model       string
}

// LoadConfig reads the configuration from the environment, after loading the
// .env file of the current folder if there is one. Variables already set in
// the environment take precedence over the file.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, err
	}
	cfg := Config{
		StoreDir:    getenv(EnvStoreDir, ".proforma"),
		DatabaseURL: os.Getenv(EnvDatabaseURL),
		Currency:    getenv(EnvCurrency, "USD"),
		Model:       os.Getenv(EnvModel),
	}
	level, err := logrus.ParseLevel(getenv(EnvLogLevel, "warning"))
	if err != nil {
		return Config{}, err
	}
	cfg.LogLevel = level
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
