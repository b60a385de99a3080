// Package config loads portal settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every runtime setting of the portal server.
type Config struct {
	Port           string
	BackendBaseURL string
	BackendTimeout time.Duration
	// JWTSecret enables signature checks on backend tokens. Empty means decode-only.
	JWTSecret            string
	CookieSecure         bool
	AllowedOrigins       []string
	SessionIdleTTL       time.Duration
	ShareInflightFetches bool
}

const (
	defaultPort           = "8080"
	defaultBackendBaseURL = "http://localhost:3000/api"
	defaultBackendTimeout = 10 * time.Second
	defaultSessionIdleTTL = 30 * time.Minute
)

// Load reads envFiles (ignored when missing) and the process environment.
// Variables already set in the environment take precedence over .env values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", defaultPort)
	v.SetDefault("BACKEND_BASE_URL", defaultBackendBaseURL)
	v.SetDefault("BACKEND_TIMEOUT", defaultBackendTimeout)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("COOKIE_SECURE", true)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("SESSION_IDLE_TTL", defaultSessionIdleTTL)
	v.SetDefault("SHARE_INFLIGHT_FETCHES", false)

	cfg := &Config{
		Port:                 strings.TrimSpace(v.GetString("PORT")),
		BackendBaseURL:       strings.TrimRight(strings.TrimSpace(v.GetString("BACKEND_BASE_URL")), "/"),
		BackendTimeout:       v.GetDuration("BACKEND_TIMEOUT"),
		JWTSecret:            v.GetString("JWT_SECRET"),
		CookieSecure:         v.GetBool("COOKIE_SECURE"),
		AllowedOrigins:       splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		SessionIdleTTL:       v.GetDuration("SESSION_IDLE_TTL"),
		ShareInflightFetches: v.GetBool("SHARE_INFLIGHT_FETCHES"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("config: PORT must not be empty")
	}
	u, err := url.Parse(c.BackendBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: BACKEND_BASE_URL %q is not an absolute URL", c.BackendBaseURL)
	}
	if c.BackendTimeout <= 0 {
		return errors.New("config: BACKEND_TIMEOUT must be positive")
	}
	if c.SessionIdleTTL <= 0 {
		return errors.New("config: SESSION_IDLE_TTL must be positive")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
