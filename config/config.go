// Package config loads server configuration from the environment. A .env
// file in the working directory is read first when present; real
// environment variables win over it.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port   int
	DBPath string
}

// Load reads configuration with defaults suitable for local development.
func Load() *Config {
	// Missing .env is not an error; env vars may come from the shell.
	_ = godotenv.Load()

	return &Config{
		Port:   getEnvInt("PORT", 8080),
		DBPath: getEnv("DB_PATH", "leave.db"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
