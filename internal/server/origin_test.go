package server

import (
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeOrigin(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"http://localhost:8080", "http://localhost:8080", true},
		{"HTTP://LocalHost:8080", "http://localhost:8080", true},
		{"https://Chat.Example.COM", "https://chat.example.com", true},
		{"https://chat.example.com/some/path", "https://chat.example.com", true},
		{"localhost:8080", "", false},
		{"example.com", "", false},
		{"http://", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := normalizeOrigin(tt.in)
		assert.Equal(t, tt.ok, ok, "origin %q", tt.in)
		assert.Equal(t, tt.want, got, "origin %q", tt.in)
	}
}

func checkRequest(t *testing.T, checker *originChecker, origin string) bool {
	t.Helper()
	req := httptest.NewRequest("GET", "/ws", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	return checker.check(req)
}

func TestOriginCheckerAllowList(t *testing.T) {
	checker := newOriginChecker([]string{"http://localhost:8080", "HTTPS://Chat.Example.com"}, zerolog.Nop())

	assert.True(t, checkRequest(t, checker, "http://localhost:8080"))
	assert.True(t, checkRequest(t, checker, "HTTP://LOCALHOST:8080"))
	assert.True(t, checkRequest(t, checker, "https://chat.example.com"))

	assert.False(t, checkRequest(t, checker, "http://evil.example"))
	assert.False(t, checkRequest(t, checker, "http://localhost:9999"))
	assert.False(t, checkRequest(t, checker, ""), "missing origin header must be blocked")
	assert.False(t, checkRequest(t, checker, "not-an-origin"))
}

func TestOriginCheckerWildcard(t *testing.T) {
	checker := newOriginChecker([]string{"*"}, zerolog.Nop())

	assert.True(t, checkRequest(t, checker, "http://anything.example"))
	assert.True(t, checkRequest(t, checker, ""), "wildcard admits requests without an origin header")
}

func TestOriginCheckerIgnoresInvalidConfigEntries(t *testing.T) {
	checker := newOriginChecker([]string{"", "   ", "no-scheme.example", "http://good.example"}, zerolog.Nop())

	assert.True(t, checkRequest(t, checker, "http://good.example"))
	assert.False(t, checkRequest(t, checker, "http://no-scheme.example"))
}
