package server

import (
	"strings"
	"time"
)

// RateLimitConfig defines the parameters for per-connection message rate
// limiting.
type RateLimitConfig struct {
	Burst          int
	RefillInterval time.Duration
}

// Config holds the settings the HTTP and websocket surface reads. Datastore
// and token settings live with their own constructors in cmd/server.
type Config struct {
	Port           string
	AllowedOrigins []string
	MaxMessageSize int64
	RateLimit      RateLimitConfig
}

// NewConfig returns a Config populated with default values for all settings.
func NewConfig() *Config {
	return &Config{
		Port:           ":8080",
		AllowedOrigins: []string{"http://localhost:8080"},
		MaxMessageSize: 512,
		RateLimit: RateLimitConfig{
			Burst:          5,
			RefillInterval: time.Second,
		},
	}
}

// withDefaults returns a copy of c with zero or invalid fields replaced by
// their defaults.
func (c Config) withDefaults() Config {
	def := NewConfig()

	if c.Port == "" {
		c.Port = def.Port
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = def.MaxMessageSize
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = def.RateLimit.Burst
	}
	if c.RateLimit.RefillInterval <= 0 {
		c.RateLimit.RefillInterval = def.RateLimit.RefillInterval
	}
	c.AllowedOrigins = append([]string(nil), c.AllowedOrigins...)

	return c
}

// ParseOrigins splits a comma-separated origin list into its trimmed parts.
func ParseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
