// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Store backends selectable with FLOW_STORE.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Config holds all configuration for the flow server.
type Config struct {
	Store    StoreConfig
	OpenAI   OpenAIConfig
	Server   ServerConfig
	Log      LogConfig
	AutoSave bool
}

type StoreConfig struct {
	Backend     string `validate:"oneof=memory postgres sqlite"`
	DatabaseURL string `validate:"required_if=Backend postgres"`
	SQLitePath  string `validate:"required_if=Backend sqlite"`
}

// OpenAIConfig configures the task executor. An empty APIKey is allowed;
// execution then fails until one is supplied.
type OpenAIConfig struct {
	APIKey  string
	Model   string        `validate:"required"`
	BaseURL string        `validate:"omitempty,url"`
	Timeout time.Duration `validate:"gt=0"`
}

type ServerConfig struct {
	Addr string `validate:"required"`
}

type LogConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=text json"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Store: StoreConfig{
			Backend:     getEnvWithDefault("FLOW_STORE", StoreMemory),
			DatabaseURL: getEnvWithDefault("DATABASE_URL", ""),
			SQLitePath:  getEnvWithDefault("SQLITE_PATH", "flow.db"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  getEnvWithDefault("OPENAI_API_KEY", ""),
			Model:   getEnvWithDefault("OPENAI_MODEL", "gpt-3.5-turbo"),
			BaseURL: getEnvWithDefault("OPENAI_BASE_URL", ""),
			Timeout: getEnvAsDuration("OPENAI_TIMEOUT", 60*time.Second),
		},
		Server: ServerConfig{
			Addr: getEnvWithDefault("SERVER_ADDR", ":3000"),
		},
		Log: LogConfig{
			Level:  getEnvWithDefault("LOG_LEVEL", "info"),
			Format: getEnvWithDefault("LOG_FORMAT", "text"),
		},
		AutoSave: getEnvAsBool("AUTO_SAVE", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks field constraints and reports the first violation.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("%s failed %q", fe.Namespace(), fe.Tag())
	}
	return err
}

// NewLogger builds a logger writing to w. format "json" selects the JSON
// handler and anything else the text handler. level uses slog's names
// ("debug", "info", "warn", "error"); an unrecognised level logs at info.
func NewLogger(level, format string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr := os.Getenv(key); valueStr != "" {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if valueStr := os.Getenv(key); valueStr != "" {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}
