package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupEnv sets up environment variables for testing
func setupEnv(t *testing.T, envVars map[string]string) func() {
	// Save current environment values
	originalValues := make(map[string]string)
	for name := range envVars {
		originalValues[name] = os.Getenv(name)
	}

	// Set new environment variables
	for name, value := range envVars {
		err := os.Setenv(name, value)
		require.NoError(t, err, "Failed to set environment variable %s", name)
	}

	// Return cleanup function
	return func() {
		// Restore original environment
		for name, value := range originalValues {
			if value == "" {
				os.Unsetenv(name)
			} else {
				os.Setenv(name, value)
			}
		}
	}
}

const testSecret = "thisisasecretkeythatis32charslong!!"

// httpGatewayEnv is the minimum environment for the default http gateway mode.
func httpGatewayEnv(extra map[string]string) map[string]string {
	env := map[string]string{
		"VOCAB_GATEWAY_BASE_URL":       "https://api.vocab.example",
		"VOCAB_GATEWAY_USER_ID":        "learner-1",
		"VOCAB_GATEWAY_SIGNING_SECRET": testSecret,
	}
	for k, v := range extra {
		env[k] = v
	}
	return env
}

// TestLoadDefaults verifies the default values applied when only the
// required settings are present.
func TestLoadDefaults(t *testing.T) {
	cleanup := setupEnv(t, httpGatewayEnv(map[string]string{
		// Explicitly unset the ones we want to test defaults for
		"VOCAB_SERVER_PORT":      "",
		"VOCAB_SERVER_LOG_LEVEL": "",
		"VOCAB_GATEWAY_MODE":     "",
		"VOCAB_STORE_DRIVER":     "",
	}))
	defer cleanup()

	cfg, err := Load()

	require.NoError(t, err, "Load() should not return an error with default values")
	require.NotNil(t, cfg, "Load() should return a non-nil config")
	assert.Equal(t, 8080, cfg.Server.Port, "Default server port should be 8080")
	assert.Equal(t, "info", cfg.Server.LogLevel, "Default log level should be 'info'")
	assert.Equal(t, GatewayModeHTTP, cfg.Gateway.Mode)
	assert.Equal(t, 5*time.Minute, cfg.Gateway.TokenTTL)
	assert.Equal(t, 10*time.Second, cfg.Sync.RemoteTimeout)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.ModelName)
	assert.Empty(t, cfg.LLM.GeminiAPIKey)
	assert.Equal(t, StoreDriverMemory, cfg.Store.Driver)
	assert.Equal(t, 5, cfg.Session.QuizLength)
	assert.Equal(t, 5, cfg.Session.NewWordsBatch)
	assert.Equal(t, 365, cfg.SRS.MaxIntervalDays)
	assert.Equal(t, time.Hour, cfg.Scheduler.DigestInterval)
	assert.Equal(t, 6*time.Hour, cfg.Scheduler.PurgeInterval)
}

// TestLoadFromEnv verifies that the Load function correctly reads values from environment variables.
func TestLoadFromEnv(t *testing.T) {
	cleanup := setupEnv(t, httpGatewayEnv(map[string]string{
		"VOCAB_SERVER_PORT":               "9090",
		"VOCAB_SERVER_LOG_LEVEL":          "debug",
		"VOCAB_SYNC_REMOTE_TIMEOUT":       "3s",
		"VOCAB_LLM_GEMINI_API_KEY":        "test-api-key",
		"VOCAB_LLM_TEMPERATURE":           "0.2",
		"VOCAB_STORE_DRIVER":              "sqlite",
		"VOCAB_STORE_DSN":                 "file:vocab.db",
		"VOCAB_SESSION_QUIZ_LENGTH":       "8",
		"VOCAB_SRS_MAX_INTERVAL_DAYS":     "0",
		"VOCAB_SCHEDULER_DIGEST_INTERVAL": "0s",
	}))
	defer cleanup()

	cfg, err := Load()

	require.NoError(t, err, "Load() should not return an error with valid environment variables")
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "https://api.vocab.example", cfg.Gateway.BaseURL)
	assert.Equal(t, "learner-1", cfg.Gateway.UserID)
	assert.Equal(t, 3*time.Second, cfg.Sync.RemoteTimeout)
	assert.Equal(t, "test-api-key", cfg.LLM.GeminiAPIKey)
	assert.InDelta(t, 0.2, cfg.LLM.Temperature, 1e-6)
	assert.Equal(t, StoreDriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "file:vocab.db", cfg.Store.DSN)
	assert.Equal(t, 8, cfg.Session.QuizLength)
	assert.Equal(t, 0, cfg.SRS.MaxIntervalDays)
	assert.Equal(t, time.Duration(0), cfg.Scheduler.DigestInterval)
}

// TestLoadMemoryModeNeedsNoGatewaySettings verifies offline mode skips the
// remote backend requirements.
func TestLoadMemoryModeNeedsNoGatewaySettings(t *testing.T) {
	cleanup := setupEnv(t, map[string]string{
		"VOCAB_GATEWAY_MODE":           "memory",
		"VOCAB_GATEWAY_BASE_URL":       "",
		"VOCAB_GATEWAY_USER_ID":        "",
		"VOCAB_GATEWAY_SIGNING_SECRET": "",
	})
	defer cleanup()

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, GatewayModeMemory, cfg.Gateway.Mode)
}

// TestLoadValidationErrors verifies that invalid settings are rejected.
func TestLoadValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "invalid log level",
			env:  httpGatewayEnv(map[string]string{"VOCAB_SERVER_LOG_LEVEL": "verbose"}),
		},
		{
			name: "invalid port",
			env:  httpGatewayEnv(map[string]string{"VOCAB_SERVER_PORT": "70000"}),
		},
		{
			name: "missing base url in http mode",
			env: map[string]string{
				"VOCAB_GATEWAY_MODE":           "http",
				"VOCAB_GATEWAY_BASE_URL":       "",
				"VOCAB_GATEWAY_USER_ID":        "learner-1",
				"VOCAB_GATEWAY_SIGNING_SECRET": testSecret,
			},
		},
		{
			name: "malformed base url",
			env:  httpGatewayEnv(map[string]string{"VOCAB_GATEWAY_BASE_URL": "not a url"}),
		},
		{
			name: "short signing secret",
			env:  httpGatewayEnv(map[string]string{"VOCAB_GATEWAY_SIGNING_SECRET": "short"}),
		},
		{
			name: "sqlite without dsn",
			env:  httpGatewayEnv(map[string]string{"VOCAB_STORE_DRIVER": "sqlite", "VOCAB_STORE_DSN": ""}),
		},
		{
			name: "unknown store driver",
			env:  httpGatewayEnv(map[string]string{"VOCAB_STORE_DRIVER": "mongo"}),
		},
		{
			name: "zero quiz length",
			env:  httpGatewayEnv(map[string]string{"VOCAB_SESSION_QUIZ_LENGTH": "0"}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := setupEnv(t, tt.env)
			defer cleanup()

			cfg, err := Load()

			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), "validation failed")
		})
	}
}

// TestLoadFromConfigFile verifies values are read from config.yaml and that
// environment variables override them.
func TestLoadFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
server:
  port: 7070
  log_level: warn
gateway:
  mode: memory
session:
  quiz_length: 12
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600))
	t.Chdir(dir)

	cleanup := setupEnv(t, map[string]string{"VOCAB_SERVER_PORT": "7171", "VOCAB_GATEWAY_MODE": ""})
	defer cleanup()

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 7171, cfg.Server.Port, "env should override the file")
	assert.Equal(t, "warn", cfg.Server.LogLevel)
	assert.Equal(t, GatewayModeMemory, cfg.Gateway.Mode)
	assert.Equal(t, 12, cfg.Session.QuizLength)
}

// TestWatchWithoutConfigFile verifies Watch is a no-op without a file.
func TestWatchWithoutConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())

	watching, err := Watch(func(*Config, error) {
		t.Error("onChange should not be called")
	})

	require.NoError(t, err)
	assert.False(t, watching)
}
