package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated once from environment
// variables at process start. Components receive it by reference and never
// read the environment themselves.
type Config struct {
	DatabaseURL     string
	ShortTermSchema string
	LongTermSchema  string

	PlantAPIURL    string
	MaxPlantID     int
	RequestTimeout time.Duration

	RetentionWindow time.Duration
	RunInterval     time.Duration
	RunOnce         bool
	DryRun          bool

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables (optionally a .env
// file), applying defaults where unset and validating required values.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	retention, err := parseDurationEnv("RETENTION_WINDOW", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	interval, err := parseDurationEnv("RUN_INTERVAL", time.Minute)
	if err != nil {
		return nil, err
	}
	requestTimeout, err := parseDurationEnv("REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	maxPlantID, err := parseIntEnv("MAX_PLANT_ID", 50)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
		ShortTermSchema: envOrDefault("SHORT_TERM_SCHEMA", "short_term"),
		LongTermSchema:  envOrDefault("LONG_TERM_SCHEMA", "long_term"),
		PlantAPIURL:     strings.TrimSuffix(strings.TrimSpace(os.Getenv("PLANT_API_URL")), "/"),
		MaxPlantID:      maxPlantID,
		RequestTimeout:  requestTimeout,
		RetentionWindow: retention,
		RunInterval:     interval,
		RunOnce:         boolEnv("RUN_ONCE"),
		DryRun:          boolEnv("DRY_RUN"),
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.PlantAPIURL == "" {
		return nil, errors.New("PLANT_API_URL is required")
	}
	if cfg.ShortTermSchema == cfg.LongTermSchema {
		return nil, errors.New("SHORT_TERM_SCHEMA and LONG_TERM_SCHEMA must differ")
	}
	if cfg.MaxPlantID < 0 {
		return nil, errors.New("MAX_PLANT_ID must not be negative")
	}
	if cfg.RetentionWindow <= 0 {
		return nil, errors.New("RETENTION_WINDOW must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func parseIntEnv(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func boolEnv(key string) bool {
	v := strings.TrimSpace(os.Getenv(key))
	return v == "1" || strings.EqualFold(v, "true")
}
