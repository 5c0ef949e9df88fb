package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Gateway   GatewayConfig   `mapstructure:"gateway"   validate:"required"`
	Sync      SyncConfig      `mapstructure:"sync"      validate:"required"`
	LLM       LLMConfig       `mapstructure:"llm"       validate:"required"`
	Store     StoreConfig     `mapstructure:"store"     validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	Session   SessionConfig   `mapstructure:"session"   validate:"required"`
	SRS       SRSConfig       `mapstructure:"srs"`
}

// ServerConfig contains the settings of the local HTTP API.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// Gateway modes
const (
	GatewayModeHTTP   = "http"
	GatewayModeMemory = "memory"
)

// GatewayConfig describes how to reach the remote service that owns user state.
type GatewayConfig struct {
	// Mode is "http" for the remote backend or "memory" for offline use.
	Mode    string `mapstructure:"mode"     validate:"required,oneof=http memory"`
	BaseURL string `mapstructure:"base_url" validate:"required_if=Mode http"`
	UserID  string `mapstructure:"user_id"  validate:"required_if=Mode http"`
	// SigningSecret signs the service tokens sent to the backend.
	SigningSecret     string        `mapstructure:"signing_secret"      validate:"required_if=Mode http"`
	TokenTTL          time.Duration `mapstructure:"token_ttl"           validate:"gt=0"`
	MaxRetries        int           `mapstructure:"max_retries"         validate:"gte=0,lte=10"`
	RetryDelaySeconds int           `mapstructure:"retry_delay_seconds" validate:"gte=0"`
}

// SyncConfig bounds remote mutations.
type SyncConfig struct {
	RemoteTimeout time.Duration `mapstructure:"remote_timeout" validate:"gt=0"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	// GeminiAPIKey is optional; without it only fallback content is served.
	GeminiAPIKey      string  `mapstructure:"gemini_api_key"`
	ModelName         string  `mapstructure:"model_name"          validate:"required"`
	Temperature       float32 `mapstructure:"temperature"         validate:"gte=0,lte=2"`
	MaxRetries        int     `mapstructure:"max_retries"         validate:"gte=0,lte=10"`
	RetryDelaySeconds int     `mapstructure:"retry_delay_seconds" validate:"gte=0"`
}

// Store drivers
const (
	StoreDriverMemory   = "memory"
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
)

// StoreConfig selects the local key-value persistence backend.
type StoreConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=memory sqlite postgres"`
	DSN    string `mapstructure:"dsn"    validate:"required_unless=Driver memory"`
}

// SchedulerConfig controls background jobs. A zero interval disables a job.
type SchedulerConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval" validate:"gte=0"`
	DigestInterval  time.Duration `mapstructure:"digest_interval"  validate:"gte=0"`
	PurgeInterval   time.Duration `mapstructure:"purge_interval"   validate:"gte=0"`
}

// SessionConfig sizes practice sessions.
type SessionConfig struct {
	QuizLength    int `mapstructure:"quiz_length"     validate:"gte=1,lte=50"`
	NewWordsBatch int `mapstructure:"new_words_batch" validate:"gte=1,lte=20"`
}

// SRSConfig tunes the scheduler.
type SRSConfig struct {
	// MaxIntervalDays caps review intervals; 0 removes the cap.
	MaxIntervalDays int `mapstructure:"max_interval_days" validate:"gte=0"`
}
