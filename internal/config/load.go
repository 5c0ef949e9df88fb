package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. VOCAB_SERVER_PORT.
const EnvPrefix = "VOCAB"

const minSigningSecretLength = 32

// keys lists every setting so environment variables are picked up even when
// no config file mentions them.
var keys = []string{
	"server.port", "server.log_level",
	"gateway.mode", "gateway.base_url", "gateway.user_id", "gateway.signing_secret",
	"gateway.token_ttl", "gateway.max_retries", "gateway.retry_delay_seconds",
	"sync.remote_timeout",
	"llm.gemini_api_key", "llm.model_name", "llm.temperature", "llm.max_retries", "llm.retry_delay_seconds",
	"store.driver", "store.dsn",
	"scheduler.refresh_interval", "scheduler.digest_interval", "scheduler.purge_interval",
	"session.quiz_length", "session.new_words_batch",
	"srs.max_interval_days",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("gateway.mode", GatewayModeHTTP)
	v.SetDefault("gateway.token_ttl", "5m")
	v.SetDefault("gateway.max_retries", 3)
	v.SetDefault("gateway.retry_delay_seconds", 1)

	v.SetDefault("sync.remote_timeout", "10s")

	v.SetDefault("llm.model_name", "gemini-2.5-flash")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("llm.retry_delay_seconds", 1)

	v.SetDefault("store.driver", StoreDriverMemory)

	v.SetDefault("scheduler.refresh_interval", "5m")
	v.SetDefault("scheduler.digest_interval", "1h")
	v.SetDefault("scheduler.purge_interval", "6h")

	v.SetDefault("session.quiz_length", 5)
	v.SetDefault("session.new_words_batch", 5)

	v.SetDefault("srs.max_interval_days", 365)
}

func newViper() (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return v, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	validate := validator.New()
	validate.RegisterStructValidation(validateGateway, GatewayConfig{})
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// validateGateway checks the HTTP-only settings that tags cannot express.
func validateGateway(sl validator.StructLevel) {
	g, ok := sl.Current().Interface().(GatewayConfig)
	if !ok || g.Mode != GatewayModeHTTP {
		return
	}
	if g.BaseURL != "" {
		if u, err := url.ParseRequestURI(g.BaseURL); err != nil || u.Host == "" {
			sl.ReportError(g.BaseURL, "BaseURL", "base_url", "url", "")
		}
	}
	if g.SigningSecret != "" && len(g.SigningSecret) < minSigningSecretLength {
		sl.ReportError(g.SigningSecret, "SigningSecret", "signing_secret", "min", "32")
	}
}

// loadDotEnv reads a .env file from the working directory if one exists.
// Variables already present in the environment win.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}
	return nil
}

// Load configuration from environment variables and optionally a config.yaml
// in the working directory. Environment variables take precedence over values
// from config files. Returns a populated Config or an error if loading or
// validation fails.
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	v, err := newViper()
	if err != nil {
		return nil, err
	}
	return decode(v)
}

// Watch re-reads the config file whenever it changes and passes the result
// to onChange. It reports false when no config file is in use.
func Watch(onChange func(*Config, error)) (bool, error) {
	v, err := newViper()
	if err != nil {
		return false, err
	}
	if v.ConfigFileUsed() == "" {
		return false, nil
	}

	v.OnConfigChange(func(fsnotify.Event) {
		onChange(decode(v))
	})
	v.WatchConfig()
	return true, nil
}
