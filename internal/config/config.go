package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	ListenAddr          string
	PostgresDSN         string
	TranslateURL        string
	TranslateTimeoutSec int
	JWTSecret           string
	AllowedOrigins      []string
	ShutdownTimeoutSec  int
}

func Load() *Config {
	return &Config{
		ListenAddr:          getEnv("LISTEN_ADDR", ":8081"),
		PostgresDSN:         getEnv("POSTGRES_DSN", "host=localhost user=postgres dbname=healthcare sslmode=disable"),
		TranslateURL:        getEnv("TRANSLATE_URL", "http://localhost:5000"),
		TranslateTimeoutSec: getEnvInt("TRANSLATE_TIMEOUT_SEC", 5),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		AllowedOrigins:      strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		ShutdownTimeoutSec:  getEnvInt("SHUTDOWN_TIMEOUT_SEC", 5),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
