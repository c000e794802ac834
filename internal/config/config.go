// Package config provides environment configuration for the reminder engine.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the full engine configuration resolved from environment variables.
type Config struct {
	Port  string
	DBUrl string

	// Timezone is the fixed installation-wide timezone used to resolve
	// "today" and session wall-clock times. Users in other timezones can
	// observe reminders keyed to this zone near local midnight; that is a
	// known limitation of the product, not a bug here.
	Timezone *time.Location

	Interval     time.Duration // scan cadence
	StartupDelay time.Duration // wait before the first cycle so the store warms up
	Tolerance    time.Duration // slack around the ideal reminder instant

	TriggerToken string // optional bearer token guarding the manual trigger

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Load reads configuration from the environment, applying defaults that
// mirror the reference deployment (30s cadence, America/New_York, ±60s).
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DB_URL is required")
	}

	tzName := GetEnvOrDefault("REMINDER_TIMEZONE", "America/New_York")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid REMINDER_TIMEZONE %q: %w", tzName, err)
	}

	redisDB, _ := strconv.Atoi(GetEnvOrDefault("REDIS_DB", "0"))

	return &Config{
		Port:          GetEnvOrDefault("PORT", "8080"),
		DBUrl:         dbURL,
		Timezone:      loc,
		Interval:      getEnvDuration("REMINDER_INTERVAL", 30*time.Second),
		StartupDelay:  getEnvDuration("REMINDER_STARTUP_DELAY", 5*time.Second),
		Tolerance:     getEnvDuration("REMINDER_TOLERANCE", 60*time.Second),
		TriggerToken:  os.Getenv("ENGINE_TRIGGER_TOKEN"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
	}, nil
}

// GetEnvOrDefault retrieves an environment variable or returns a default value
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
