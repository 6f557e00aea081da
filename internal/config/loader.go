package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default config locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")            // Current directory
		v.AddConfigPath("./configs")    // Project configs directory
		v.AddConfigPath("./config")     // Alternative config directory
		v.AddConfigPath("/etc/cosinor") // System-wide config
	}

	// Set defaults
	setDefaults(v)

	// Enable environment variable overrides: COSINOR_SERVER_HTTP_PORT, ...
	v.SetEnvPrefix("COSINOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; use defaults
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	def := DefaultConfig()

	// Server defaults
	v.SetDefault("server.host", def.Server.Host)
	v.SetDefault("server.http_port", def.Server.HTTPPort)
	v.SetDefault("server.body_limit_mb", def.Server.BodyLimitMB)
	v.SetDefault("server.read_timeout", def.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", def.Server.WriteTimeout)

	// Auth defaults
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.api_keys", []string{})

	// Logging defaults
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("logging.output_path", def.Logging.OutputPath)
	v.SetDefault("logging.time_format", def.Logging.TimeFormat)

	// Analysis defaults
	v.SetDefault("analysis.initial_guess.h", def.Analysis.InitialGuess.H)
	v.SetDefault("analysis.initial_guess.b", def.Analysis.InitialGuess.B)
	v.SetDefault("analysis.initial_guess.v", def.Analysis.InitialGuess.V)
	v.SetDefault("analysis.initial_guess.p", def.Analysis.InitialGuess.P)
	v.SetDefault("analysis.loss", def.Analysis.Loss)
	v.SetDefault("analysis.f_scale", def.Analysis.FScale)
	v.SetDefault("analysis.max_evaluations", def.Analysis.MaxEvaluations)
	v.SetDefault("analysis.curve_points", def.Analysis.CurvePoints)
	v.SetDefault("analysis.ftol", def.Analysis.FTol)
	v.SetDefault("analysis.xtol", def.Analysis.XTol)
	v.SetDefault("analysis.gtol", def.Analysis.GTol)
	v.SetDefault("analysis.timeout", def.Analysis.Timeout)

	// Ingest defaults
	v.SetDefault("ingest.max_rows", def.Ingest.MaxRows)
	v.SetDefault("ingest.allowed_extensions", def.Ingest.AllowedExtensions)

	// Events defaults
	v.SetDefault("events.enabled", def.Events.Enabled)
	v.SetDefault("events.type", def.Events.Type)
	v.SetDefault("events.url", def.Events.URL)
	v.SetDefault("events.subject", def.Events.Subject)
	v.SetDefault("events.compression", def.Events.Compression)
	v.SetDefault("events.redis_db", 0)
	v.SetDefault("events.redis_stream", def.Events.RedisStream)
	v.SetDefault("events.redis_max_len", def.Events.RedisMaxLen)
	v.SetDefault("events.kafka_brokers", []string{})
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads configuration from file or returns default config
func LoadOrDefault(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		// Return default configuration
		return DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			HTTPPort:     5555,
			BodyLimitMB:  32,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
			TimeFormat: "RFC3339",
		},
		Analysis: AnalysisConfig{
			InitialGuess:   GuessConfig{H: 700, B: 200, V: 0, P: 24},
			Loss:           "linear",
			FScale:         1,
			MaxEvaluations: 1000000000,
			CurvePoints:    500,
			FTol:           1e-8,
			XTol:           1e-8,
			GTol:           1e-8,
			Timeout:        time.Minute,
		},
		Ingest: IngestConfig{
			MaxRows:           1000000,
			AllowedExtensions: []string{"xlsx", "xlsm", "csv"},
		},
		Events: EventsConfig{
			Enabled:     false,
			Type:        "nats",
			URL:         "nats://localhost:4222",
			Subject:     "cosinor.runs",
			Compression: "none",
			RedisStream: "cosinor",
			RedisMaxLen: 10000,
		},
	}
}
