// Package config loads application configuration from environment
// variables, with optional .env file support for local development.
//
// Every variable has either a sensible default or a clear error, and all
// problems are collected and reported together, so a misconfigured
// deployment fails once with the full list instead of one variable at a
// time.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sakif/curbside-market/internal/auth"
)

// Config holds everything the server needs to start.
type Config struct {
	Port      int           // HTTP listen port
	DBPath    string        // SQLite database file
	UploadDir string        // directory for stored item images
	JWTSecret string        // signing key for session tokens
	TokenTTL  time.Duration // session token lifetime

	// GitHub OAuth is optional: when the client id/secret are empty the
	// OAuth routes are simply not registered.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first if present; real environment
// variables win over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env file: %w", err)
	}

	var problems []string

	cfg := &Config{
		Port:               envInt("PORT", 8080, &problems),
		DBPath:             envOr("DB_PATH", "data/market.db"),
		UploadDir:          envOr("UPLOAD_DIR", "data/uploads"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		TokenTTL:           envDuration("TOKEN_TTL", auth.DefaultTokenTTL, &problems),
		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:  os.Getenv("GITHUB_CALLBACK_URL"),
	}

	if cfg.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required (generate one with: openssl rand -hex 32)")
	}
	if cfg.GitHubEnabled() && cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return cfg, nil
}

// GitHubEnabled reports whether the optional GitHub sign-in is configured.
func (c *Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int, problems *[]string) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*problems = append(*problems, fmt.Sprintf("%s must be an integer, got %q", key, v))
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration, problems *[]string) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*problems = append(*problems, fmt.Sprintf("%s must be a duration like \"24h\", got %q", key, v))
		return fallback
	}
	return d
}
