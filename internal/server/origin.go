package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

// originChecker enforces the configured Origin allow-list on WebSocket
// upgrade requests.
type originChecker struct {
	allowAll bool
	allowed  map[string]struct{}
	log      zerolog.Logger
}

func newOriginChecker(origins []string, logger zerolog.Logger) *originChecker {
	o := &originChecker{
		allowed: make(map[string]struct{}, len(origins)),
		log:     logger,
	}
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		if trimmed == "*" {
			o.allowAll = true
			continue
		}
		normalized, ok := normalizeOrigin(trimmed)
		if !ok {
			logger.Warn().Str("origin", origin).Msg("ignoring invalid origin in configuration")
			continue
		}
		o.allowed[normalized] = struct{}{}
	}
	return o
}

// check is the gorilla CheckOrigin hook. Requests without an Origin header
// are rejected unless every origin is allowed.
func (o *originChecker) check(r *http.Request) bool {
	if o.allowAll {
		return true
	}

	header := r.Header.Get("Origin")
	if header == "" {
		o.log.Warn().Msg("blocked websocket connection with no origin header")
		return false
	}

	normalized, ok := normalizeOrigin(header)
	if !ok {
		o.log.Warn().Str("origin", header).Msg("blocked websocket connection with malformed origin")
		return false
	}

	if _, exists := o.allowed[normalized]; !exists {
		o.log.Warn().Str("origin", header).Msg("blocked websocket connection from disallowed origin")
		return false
	}
	return true
}

// normalizeOrigin reduces an origin to lowercase scheme://host form.
func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil {
		return "", false
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}
