package config

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment does
// not leak into the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"FLOW_STORE", "DATABASE_URL", "SQLITE_PATH",
		"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL", "OPENAI_TIMEOUT",
		"SERVER_ADDR", "LOG_LEVEL", "LOG_FORMAT", "AUTO_SAVE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store.Backend)
	assert.Equal(t, "gpt-3.5-turbo", cfg.OpenAI.Model)
	assert.Equal(t, 60*time.Second, cfg.OpenAI.Timeout)
	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.False(t, cfg.AutoSave)
	assert.Empty(t, cfg.OpenAI.APIKey)
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("FLOW_STORE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/flow")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_TIMEOUT", "5s")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:8080/v1")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("AUTO_SAVE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorePostgres, cfg.Store.Backend)
	assert.Equal(t, "postgres://localhost/flow", cfg.Store.DatabaseURL)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, 5*time.Second, cfg.OpenAI.Timeout)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.AutoSave)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"unknown store", map[string]string{"FLOW_STORE": "redis"}, "Backend"},
		{"postgres without url", map[string]string{"FLOW_STORE": "postgres"}, "DatabaseURL"},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}, "Level"},
		{"bad base url", map[string]string{"OPENAI_BASE_URL": "not a url"}, "BaseURL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLogger("warn", "json", &buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"k":"v"`)

	assert.True(t, NewLogger("debug", "text", &buf).Enabled(context.Background(), slog.LevelDebug))
	assert.False(t, NewLogger("bogus", "text", &buf).Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, NewLogger("", "text", &buf).Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, NewLogger("ERROR", "text", &buf).Enabled(context.Background(), slog.LevelWarn))
}
