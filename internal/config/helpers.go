package config

import (
	"fmt"
	"slices"
	"strings"
)

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Logging.Level == "debug" && c.Logging.Format == "console"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Logging.Level == "info" && c.Logging.Format == "json"
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.HTTPPort)
}

// BodyLimitBytes returns the request body limit in bytes
func (c *ServerConfig) BodyLimitBytes() int {
	return c.BodyLimitMB * 1024 * 1024
}

// AllowsExtension reports whether an uploaded file name has an accepted
// extension. The comparison ignores case and a leading dot.
func (c *IngestConfig) AllowsExtension(filename string) bool {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return false
	}
	ext := strings.ToLower(filename[idx+1:])
	return slices.ContainsFunc(c.AllowedExtensions, func(allowed string) bool {
		return strings.ToLower(strings.TrimPrefix(allowed, ".")) == ext
	})
}
