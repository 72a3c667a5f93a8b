// Package config handles loading and validating the ordertaker configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // timezone names resolve without system zoneinfo

	"github.com/spf13/viper"

	"github.com/nadzzz/ordertaker/internal/extract"
	"github.com/nadzzz/ordertaker/internal/policy"
	"github.com/nadzzz/ordertaker/internal/stt"
)

// Config is the root configuration for the ordertaker service.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Transports TransportsConfig `mapstructure:"transports"`
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Session    SessionConfig    `mapstructure:"session"`
	Policy     PolicyConfig     `mapstructure:"policy"`
	Delivery   DeliveryConfig   `mapstructure:"delivery"`
	STT        STTConfig        `mapstructure:"stt"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig holds the health check server settings.
type ServerConfig struct {
	HealthPort int `mapstructure:"health_port"`
}

// TransportsConfig holds the configuration for each transport layer.
type TransportsConfig struct {
	GRPC GRPCConfig `mapstructure:"grpc"`
	HTTP HTTPConfig `mapstructure:"http"`
}

// GRPCConfig configures the gRPC transport.
type GRPCConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// HTTPConfig configures the HTTP/WebSocket transport.
type HTTPConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// CatalogConfig points at the restaurant pack. Empty means the embedded
// pt-PT pack.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// SessionConfig tunes call lifetime.
type SessionConfig struct {
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	ReapInterval time.Duration `mapstructure:"reap_interval"`
	Timezone     string        `mapstructure:"timezone"` // IANA name used for greetings
}

// PolicyConfig tunes the conversation.
type PolicyConfig struct {
	Pacing        string `mapstructure:"pacing"`         // normal, concise, detailed, auto
	ModifierScope string `mapstructure:"modifier_scope"` // all, latest
}

// DeliveryConfig configures the order webhook.
type DeliveryConfig struct {
	WebhookURL string        `mapstructure:"webhook_url"`
	Attempts   int           `mapstructure:"attempts"`
	Backoff    time.Duration `mapstructure:"backoff"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// STTConfig configures the optional Whisper speech-to-text backend.
type STTConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Endpoint  string        `mapstructure:"endpoint"`
	Type      string        `mapstructure:"type"` // "openai" (default) or "asr" (whisper-asr-webservice)
	Language  string        `mapstructure:"language"`
	Model     string        `mapstructure:"model"`
	Prompt    string        `mapstructure:"prompt"`
	VADFilter bool          `mapstructure:"vad_filter"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./ordertaker.yaml, ./configs/ordertaker.yaml, /etc/ordertaker/ordertaker.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.health_port", 8081)
	v.SetDefault("transports.grpc.enabled", true)
	v.SetDefault("transports.grpc.port", 50051)
	v.SetDefault("transports.http.enabled", true)
	v.SetDefault("transports.http.port", 8080)
	v.SetDefault("catalog.path", "")
	v.SetDefault("session.idle_timeout", "5m")
	v.SetDefault("session.reap_interval", "30s")
	v.SetDefault("session.timezone", "Europe/Lisbon")
	v.SetDefault("policy.pacing", string(policy.PacingNormal))
	v.SetDefault("policy.modifier_scope", string(extract.ScopeAll))
	v.SetDefault("delivery.webhook_url", "")
	v.SetDefault("delivery.attempts", 3)
	v.SetDefault("delivery.backoff", "2s")
	v.SetDefault("delivery.timeout", "10s")
	v.SetDefault("stt.enabled", false)
	v.SetDefault("stt.endpoint", "http://localhost:8000/v1/audio/transcriptions")
	v.SetDefault("stt.type", stt.TypeOpenAI)
	v.SetDefault("stt.language", "pt")
	v.SetDefault("stt.model", "")
	v.SetDefault("stt.prompt", "")
	v.SetDefault("stt.vad_filter", false)
	v.SetDefault("stt.timeout", "30s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("ordertaker")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/ordertaker")
	}

	// Environment variables: ORDERTAKER_DELIVERY_WEBHOOK_URL, ORDERTAKER_POLICY_PACING, etc.
	v.SetEnvPrefix("ORDERTAKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional, env vars and defaults are sufficient)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// The webhook URL usually embeds a secret token: "${MAKE_WEBHOOK_URL}".
	cfg.Delivery.WebhookURL = resolveEnvRef(cfg.Delivery.WebhookURL)
	cfg.STT.Endpoint = resolveEnvRef(cfg.STT.Endpoint)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ports, enums and durations.
func (c *Config) Validate() error {
	var errs []error

	if !c.Transports.GRPC.Enabled && !c.Transports.HTTP.Enabled {
		errs = append(errs, errors.New("no transport enabled"))
	}
	if err := checkPort("server.health_port", c.Server.HealthPort); err != nil {
		errs = append(errs, err)
	}
	if c.Transports.GRPC.Enabled {
		if err := checkPort("transports.grpc.port", c.Transports.GRPC.Port); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Transports.HTTP.Enabled {
		if err := checkPort("transports.http.port", c.Transports.HTTP.Port); err != nil {
			errs = append(errs, err)
		}
	}
	if _, err := policy.ParsePacing(c.Policy.Pacing); err != nil {
		errs = append(errs, fmt.Errorf("policy.pacing: %w", err))
	}
	if _, err := extract.ParseScope(c.Policy.ModifierScope); err != nil {
		errs = append(errs, fmt.Errorf("policy.modifier_scope: %w", err))
	}
	if c.Session.IdleTimeout <= 0 {
		errs = append(errs, errors.New("session.idle_timeout must be positive"))
	}
	if c.Session.ReapInterval <= 0 {
		errs = append(errs, errors.New("session.reap_interval must be positive"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("session.timezone: %w", err))
	}
	if c.Delivery.Attempts < 1 {
		errs = append(errs, errors.New("delivery.attempts must be at least 1"))
	}
	if c.Delivery.Backoff < 0 || c.Delivery.Timeout <= 0 {
		errs = append(errs, errors.New("delivery.backoff and delivery.timeout must not be negative or zero"))
	}
	if c.STT.Enabled {
		if c.STT.Endpoint == "" {
			errs = append(errs, errors.New("stt.endpoint is required when stt is enabled"))
		}
		if c.STT.Type != stt.TypeOpenAI && c.STT.Type != stt.TypeASR {
			errs = append(errs, fmt.Errorf("stt.type %q is not %q or %q", c.STT.Type, stt.TypeOpenAI, stt.TypeASR))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Location loads the configured timezone. Empty means local time.
func (c *Config) Location() (*time.Location, error) {
	if c.Session.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Session.Timezone)
}

func checkPort(key string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s %d out of range", key, port)
	}
	return nil
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var value.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		envKey := val[2 : len(val)-1]
		if envVal := os.Getenv(envKey); envVal != "" {
			return envVal
		}
	}
	return val
}

// SetupLogging configures the global slog logger based on config.
func SetupLogging(cfg LoggingConfig, w io.Writer) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}
