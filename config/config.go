// Package config reads the server's environment-style configuration.
// A .env file, when present, is loaded by the entrypoint before Load runs.
package config

import (
	"os"
	"strings"
	"time"
)

// Config is the process-wide configuration.
type Config struct {
	// Env selects the runtime mode; "development" enables the demo
	// bypass and anonymous admits.
	Env  string
	Port string

	// Domain is the org base URL, e.g. https://dev-123.okta.com.
	Domain string
	// Issuer is the trusted identity provider. Empty disables token
	// verification entirely (fail-open; see gate.ModeOpen).
	Issuer string
	// Audience is the expected token audience for this API.
	Audience string
	// ClientID is the SPA's OAuth client, exposed to the frontend only.
	ClientID string
	// JWKSURL overrides the derived <issuer>/v1/keys endpoint.
	JWKSURL string
	// MainAuthServerID is the org authorization server used for the
	// delegation assertion step.
	MainAuthServerID string

	RedisURL    string
	DatabaseURL string

	AuditRetention time.Duration
	CORSOrigins    []string
}

// Load reads configuration from the environment.
func Load() Config {
	domain := normalizeDomain(os.Getenv("OKTA_DOMAIN"))
	issuer := strings.TrimSpace(os.Getenv("OKTA_ISSUER"))
	if issuer == "" && domain != "" {
		issuer = domain + "/oauth2/default"
	}
	return Config{
		Env:              envDefault("APP_ENV", "development"),
		Port:             envDefault("BACKEND_PORT", "8000"),
		Domain:           domain,
		Issuer:           issuer,
		Audience:         envDefault("OKTA_AUDIENCE", "api://default"),
		ClientID:         strings.TrimSpace(os.Getenv("OKTA_CLIENT_ID")),
		JWKSURL:          strings.TrimSpace(os.Getenv("OKTA_JWKS_URL")),
		MainAuthServerID: envDefault("OKTA_MAIN_AUTH_SERVER_ID", "default"),
		RedisURL:         strings.TrimSpace(os.Getenv("REDIS_URL")),
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		AuditRetention:   durationDefault("AUDIT_RETENTION", 30*24*time.Hour),
		CORSOrigins:      splitList(envDefault("CORS_ORIGINS", "http://localhost:3000")),
	}
}

// Development reports whether demo behavior should be enabled.
func (c Config) Development() bool {
	switch strings.ToLower(c.Env) {
	case "development", "dev", "local":
		return true
	}
	return false
}

func normalizeDomain(s string) string {
	d := strings.TrimRight(strings.TrimSpace(s), "/")
	if d != "" && !strings.HasPrefix(d, "http") {
		d = "https://" + d
	}
	return d
}

func envDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func durationDefault(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
