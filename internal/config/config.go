// Package config loads console configuration from the environment.
package config

import (
	"os"
	"strings"
)

// Config holds everything the console needs at startup.
type Config struct {
	// Addr is the listen address for the HTTP server.
	Addr string
	// Environment is "development" or "production".
	Environment string
	// APIBaseURL is the fixed origin of the upstream CMS API.
	APIBaseURL string
	// PGDSN, when set, switches session persistence from memory to Postgres.
	PGDSN string
	// Languages is the ordered list of content languages. The order is
	// load-bearing: translation slots on edit forms follow it.
	Languages []string
	// SessionCookie is the name of the browser session id cookie.
	SessionCookie string
}

// Load reads configuration from PRESSDESK_* environment variables,
// falling back to development defaults.
func Load() Config {
	return Config{
		Addr:          getenv("PRESSDESK_ADDR", ":8080"),
		Environment:   getenv("PRESSDESK_ENV", "development"),
		APIBaseURL:    getenv("PRESSDESK_API_BASE_URL", "http://localhost:4000"),
		PGDSN:         os.Getenv("PRESSDESK_PG_DSN"),
		Languages:     splitList(getenv("PRESSDESK_LANGUAGES", "en,es")),
		SessionCookie: getenv("PRESSDESK_SESSION_COOKIE", "pressdesk_sid"),
	}
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
