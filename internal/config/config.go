package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	Events   EventsConfig   `mapstructure:"events"`
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`  // Enable/disable API key authentication
	APIKeys []string `mapstructure:"api_keys"` // List of valid API keys
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`          // Bind address (e.g., 0.0.0.0 for all interfaces)
	HTTPPort     int           `mapstructure:"http_port"`     // HTTP server port
	BodyLimitMB  int           `mapstructure:"body_limit_mb"` // Max request body, spreadsheets included
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, UnixMs, etc
}

// GuessConfig is the default initial (h, b, v, p)
type GuessConfig struct {
	H float64 `mapstructure:"h"`
	B float64 `mapstructure:"b"`
	V float64 `mapstructure:"v"`
	P float64 `mapstructure:"p"`
}

// AnalysisConfig holds the fit defaults applied when a request leaves them out
type AnalysisConfig struct {
	InitialGuess   GuessConfig   `mapstructure:"initial_guess"`
	Loss           string        `mapstructure:"loss"`            // linear, soft_l1, huber, cauchy, arctan
	FScale         float64       `mapstructure:"f_scale"`         // Robust loss scale
	MaxEvaluations int           `mapstructure:"max_evaluations"` // Model evaluation budget per fit
	CurvePoints    int           `mapstructure:"curve_points"`    // Resolution of the fitted overlay
	FTol           float64       `mapstructure:"ftol"`
	XTol           float64       `mapstructure:"xtol"`
	GTol           float64       `mapstructure:"gtol"`
	Timeout        time.Duration `mapstructure:"timeout"` // Per-run deadline, 0 disables
}

// IngestConfig limits spreadsheet uploads
type IngestConfig struct {
	MaxRows           int      `mapstructure:"max_rows"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
}

// EventsConfig represents analysis event notification configuration
type EventsConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Type        string `mapstructure:"type"`        // Queue type: nats, redis, kafka, memory
	URL         string `mapstructure:"url"`         // Queue server URL (e.g., nats://localhost:4222)
	Subject     string `mapstructure:"subject"`     // Subject, stream or topic events are published to
	Compression string `mapstructure:"compression"` // none, snappy, lz4, zstd
	Username    string `mapstructure:"username"`    // Optional authentication
	Password    string `mapstructure:"password"`    // Optional authentication

	// Redis-specific options
	RedisDB     int    `mapstructure:"redis_db"`      // Redis database number (default: 0)
	RedisStream string `mapstructure:"redis_stream"`  // Redis stream prefix (default: "cosinor")
	RedisMaxLen int64  `mapstructure:"redis_max_len"` // Approximate events kept per stream

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"` // Kafka broker addresses
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if err := c.Analysis.Validate(); err != nil {
		return fmt.Errorf("analysis config: %w", err)
	}

	if err := c.Ingest.Validate(); err != nil {
		return fmt.Errorf("ingest config: %w", err)
	}

	if err := c.Events.Validate(); err != nil {
		return fmt.Errorf("events config: %w", err)
	}

	if c.Auth.Enabled && len(c.Auth.APIKeys) == 0 {
		return fmt.Errorf("auth config: api_keys required when auth is enabled")
	}

	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}

	if c.BodyLimitMB < 1 {
		return fmt.Errorf("body_limit_mb must be positive")
	}

	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}

// Validate validates analysis defaults
func (c *AnalysisConfig) Validate() error {
	if c.InitialGuess.P == 0 {
		return fmt.Errorf("analysis.initial_guess.p must not be zero")
	}

	validLosses := map[string]bool{
		"linear":  true,
		"soft_l1": true,
		"huber":   true,
		"cauchy":  true,
		"arctan":  true,
	}

	if !validLosses[c.Loss] {
		return fmt.Errorf("analysis.loss must be one of: linear, soft_l1, huber, cauchy, arctan")
	}

	if c.FScale <= 0 {
		return fmt.Errorf("analysis.f_scale must be positive")
	}

	if c.MaxEvaluations < 1 {
		return fmt.Errorf("analysis.max_evaluations must be at least 1")
	}

	if c.CurvePoints < 2 {
		return fmt.Errorf("analysis.curve_points must be at least 2")
	}

	if c.FTol < 0 || c.XTol < 0 || c.GTol < 0 {
		return fmt.Errorf("analysis tolerances cannot be negative")
	}

	if c.Timeout < 0 {
		return fmt.Errorf("analysis.timeout cannot be negative")
	}

	return nil
}

// Validate validates ingest limits
func (c *IngestConfig) Validate() error {
	if c.MaxRows < 2 {
		return fmt.Errorf("ingest.max_rows must be at least 2")
	}

	if len(c.AllowedExtensions) == 0 {
		return fmt.Errorf("ingest.allowed_extensions is required")
	}

	return nil
}

// Validate validates event configuration. Disabled events are not checked.
func (c *EventsConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	switch c.Type {
	case "nats", "redis", "memory":
	case "kafka":
		if len(c.KafkaBrokers) == 0 && c.URL == "" {
			return fmt.Errorf("events.kafka_brokers or events.url is required for kafka")
		}
	default:
		return fmt.Errorf("events.type must be one of: nats, redis, kafka, memory")
	}

	if c.Subject == "" {
		return fmt.Errorf("events.subject is required")
	}

	switch c.Compression {
	case "", "none", "snappy", "lz4", "zstd":
	default:
		return fmt.Errorf("events.compression must be one of: none, snappy, lz4, zstd")
	}

	return nil
}
