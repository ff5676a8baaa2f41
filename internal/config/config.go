// Package config loads process configuration from the environment once at
// startup. A .env file in the working directory is read first when present;
// variables already set in the environment win.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	PostgresURL    string
	JWTSecret      []byte
	KafkaBrokers   []string
	RedisURL       string
	CORSOrigins    []string
	OTLPEndpoint   string
	MigrationsPath string
}

var defaultCORSOrigins = []string{"http://localhost:4200"}

// Load reads the configuration. requireSecret is false for binaries that
// never sign or verify tokens (the worker and the migrator).
func Load(requireSecret bool) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		PostgresURL:    os.Getenv("POSTGRES_URL"),
		JWTSecret:      []byte(os.Getenv("JWT_SECRET")),
		KafkaBrokers:   splitList(os.Getenv("KAFKA_BROKERS")),
		RedisURL:       os.Getenv("REDIS_URL"),
		CORSOrigins:    append(slices.Clone(defaultCORSOrigins), splitList(os.Getenv("CORS_ORIGINS"))...),
		OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "file://migrations"),
	}

	if cfg.PostgresURL == "" {
		return nil, errors.New("POSTGRES_URL environment variable is required")
	}
	if requireSecret && len(cfg.JWTSecret) == 0 {
		return nil, errors.New("JWT_SECRET environment variable is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
