// Package config reads service settings from .env and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devSessionKey = "training-hub-dev-session-key"

type Config struct {
	Port        string
	DBDriver    string
	DatabaseURL string

	SessionKey    string
	SecureCookies bool

	LogLevel  string
	LogFormat string

	RoleCheckTimeout time.Duration
	SignInRateLimit  int

	AdminEmail    string
	AdminPassword string
	SeedFile      string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Warnings collects non-fatal problems found while loading, to be
	// logged once a logger exists.
	Warnings []string
}

// GoogleEnabled reports whether all Google OAuth settings are present.
func (c Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}

// Load reads .env when present, then the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := godotenv.Load(); err != nil {
		cfg.Warnings = append(cfg.Warnings, "no .env file loaded, using process environment")
	}

	cfg.Port = getenv("PORT", "8080")
	cfg.DBDriver = getenv("DB_DRIVER", "postgres")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.SessionKey = os.Getenv("SESSION_KEY")
	cfg.LogLevel = getenv("LOG_LEVEL", "info")
	cfg.LogFormat = getenv("LOG_FORMAT", "json")
	cfg.AdminEmail = os.Getenv("ADMIN_EMAIL")
	cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	cfg.SeedFile = os.Getenv("SEED_FILE")
	cfg.GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	cfg.GoogleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	cfg.GoogleRedirectURL = os.Getenv("GOOGLE_REDIRECT_URL")

	var err error
	if cfg.SecureCookies, err = getbool("SECURE_COOKIES", false); err != nil {
		return cfg, err
	}
	if cfg.RoleCheckTimeout, err = getduration("ROLE_CHECK_TIMEOUT", 3*time.Second); err != nil {
		return cfg, err
	}
	if cfg.SignInRateLimit, err = getint("SIGNIN_RATE_LIMIT", 10); err != nil {
		return cfg, err
	}

	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is not set")
	}
	if cfg.SessionKey == "" {
		cfg.SessionKey = devSessionKey
		cfg.Warnings = append(cfg.Warnings, "SESSION_KEY is not set, using the development key")
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getbool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getint(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getduration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
