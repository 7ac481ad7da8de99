package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"formassist-backend/internal/crypto"
	"formassist-backend/internal/store/backend"
)

// EnvPrefix prefixes every environment variable, e.g. FORMASSIST_HTTP_PORT.
const EnvPrefix = "FORMASSIST"

// DevJWTSecret is used when no secret is configured. Tokens signed with it
// are only fit for local development.
const DevJWTSecret = "formassist-dev-secret"

// Config holds the daemon and CLI configuration.
type Config struct {
	HTTPPort        string
	DatabaseURL     string
	JWTSecret       string
	TokenExpiration time.Duration
	EncryptionKey   []byte // nil selects an ephemeral key (non-persistent stores only)
	AllowedOrigins  []string

	Log     LogConfig
	AI      AIConfig
	Trigger TriggerConfig
	Render  RenderConfig
}

type LogConfig struct {
	Format string
	Debug  bool
}

// AIConfig seeds the stored settings on first start.
type AIConfig struct {
	Endpoint       string
	APIKey         string
	Model          string
	Temperature    *float64
	RequestTimeout time.Duration
}

type TriggerConfig struct {
	RetryDelay time.Duration
}

type RenderConfig struct {
	RetryDelay time.Duration
	MaxRetries int
}

// UsingDevSecret reports whether tokens are signed with DevJWTSecret.
func (c *Config) UsingDevSecret() bool {
	return c.JWTSecret == DevJWTSecret
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_port", "8080")
	v.SetDefault("database_url", "")
	v.SetDefault("jwt_secret", DevJWTSecret)
	v.SetDefault("token_expiration", "24h")
	v.SetDefault("encryption_key", "")
	v.SetDefault("allowed_origins", []string{"chrome-extension://*", "http://localhost:*"})

	v.SetDefault("log.format", "console")
	v.SetDefault("log.debug", false)

	v.SetDefault("ai.endpoint", "")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.temperature", "")
	v.SetDefault("ai.request_timeout", "60s")

	v.SetDefault("trigger.retry_delay", "1s")
	v.SetDefault("render.retry_delay", "100ms")
	v.SetDefault("render.max_retries", 3)
}

// Load reads configuration from .env, an optional YAML file and FORMASSIST_*
// environment variables, in increasing precedence. An empty configPath
// searches ./config.yaml and $HOME/.formassist/config.yaml.
func Load(configPath string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.formassist")
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		HTTPPort:        v.GetString("http_port"),
		DatabaseURL:     strings.TrimSpace(v.GetString("database_url")),
		JWTSecret:       v.GetString("jwt_secret"),
		TokenExpiration: v.GetDuration("token_expiration"),
		AllowedOrigins:  splitList(v.GetStringSlice("allowed_origins")),
		Log: LogConfig{
			Format: v.GetString("log.format"),
			Debug:  v.GetBool("log.debug"),
		},
		AI: AIConfig{
			Endpoint:       v.GetString("ai.endpoint"),
			APIKey:         v.GetString("ai.api_key"),
			Model:          v.GetString("ai.model"),
			RequestTimeout: v.GetDuration("ai.request_timeout"),
		},
		Trigger: TriggerConfig{RetryDelay: v.GetDuration("trigger.retry_delay")},
		Render: RenderConfig{
			RetryDelay: v.GetDuration("render.retry_delay"),
			MaxRetries: v.GetInt("render.max_retries"),
		},
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt_secret must not be empty")
	}
	if cfg.TokenExpiration <= 0 {
		return nil, fmt.Errorf("token_expiration must be positive, got %s", cfg.TokenExpiration)
	}
	if cfg.Render.MaxRetries < 0 {
		return nil, fmt.Errorf("render.max_retries must not be negative, got %d", cfg.Render.MaxRetries)
	}

	if raw := strings.TrimSpace(v.GetString("ai.temperature")); raw != "" {
		t := v.GetFloat64("ai.temperature")
		cfg.AI.Temperature = &t
	}

	keyHex := strings.TrimSpace(v.GetString("encryption_key"))
	switch {
	case keyHex != "":
		key, err := hex.DecodeString(keyHex)
		if err != nil {
			return nil, fmt.Errorf("failed to decode encryption_key from hex: %w", err)
		}
		if len(key) != crypto.KeySize {
			return nil, fmt.Errorf("encryption_key must be %d bytes (%d hex characters), got %d bytes", crypto.KeySize, crypto.KeySize*2, len(key))
		}
		cfg.EncryptionKey = key
	case backend.Persistent(cfg.DatabaseURL):
		return nil, errors.New("encryption_key is required when database_url selects a persistent store")
	}

	return cfg, nil
}

// splitList accepts both YAML lists and comma-separated env values.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
