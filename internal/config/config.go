package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN          string
	Environment    string
	MigrationsPath string
	SweepInterval  time.Duration
}

func Load() (*Config, error) {
	// .env is optional, environment variables win either way
	if err := godotenv.Load(".env"); err == nil {
		log.Println("Loaded configuration from .env file")
	}

	cfg := &Config{
		DBDSN:          os.Getenv("DB_DSN"),
		Environment:    os.Getenv("ENV"),
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "migrations"
	}

	cfg.SweepInterval = 24 * time.Hour
	if raw := os.Getenv("SWEEP_INTERVAL"); raw != "" {
		interval, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("parse SWEEP_INTERVAL: %w", err)
		}
		if interval <= 0 {
			return nil, fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", interval)
		}
		cfg.SweepInterval = interval
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	return cfg, nil
}
