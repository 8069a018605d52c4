package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, []string{"http://localhost:8080"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(512), cfg.MaxMessageSize)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
	assert.Equal(t, time.Second, cfg.RateLimit.RefillInterval)
}

func TestWithDefaultsFillsZeroFields(t *testing.T) {
	got := Config{}.withDefaults()

	def := NewConfig()
	assert.Equal(t, def.Port, got.Port)
	assert.Equal(t, def.MaxMessageSize, got.MaxMessageSize)
	assert.Equal(t, def.RateLimit, got.RateLimit)

	// An unset origin list stays empty; no configured origins means no
	// origins allowed.
	assert.Empty(t, got.AllowedOrigins)
}

func TestWithDefaultsRejectsInvalidValues(t *testing.T) {
	got := Config{
		MaxMessageSize: -1,
		RateLimit: RateLimitConfig{
			Burst:          -3,
			RefillInterval: -time.Second,
		},
	}.withDefaults()

	assert.Equal(t, int64(512), got.MaxMessageSize)
	assert.Equal(t, 5, got.RateLimit.Burst)
	assert.Equal(t, time.Second, got.RateLimit.RefillInterval)
}

func TestWithDefaultsKeepsExplicitValues(t *testing.T) {
	in := Config{
		Port:           ":9001",
		AllowedOrigins: []string{"https://chat.example.com"},
		MaxMessageSize: 2048,
		RateLimit: RateLimitConfig{
			Burst:          20,
			RefillInterval: 5 * time.Second,
		},
	}

	got := in.withDefaults()
	assert.Equal(t, in, got)
}

func TestWithDefaultsCopiesOrigins(t *testing.T) {
	origins := []string{"http://a.example", "http://b.example"}
	got := Config{AllowedOrigins: origins}.withDefaults()

	origins[0] = "http://mutated.example"
	assert.Equal(t, "http://a.example", got.AllowedOrigins[0])
}

func TestParseOrigins(t *testing.T) {
	assert.Equal(t,
		[]string{"http://a.example", "https://b.example", "*"},
		ParseOrigins(" http://a.example ,https://b.example,, * ,"))
	assert.Empty(t, ParseOrigins(""))
	assert.Empty(t, ParseOrigins(" , ,"))
}
