package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "file::memory:")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SESSION_KEY", "")
	t.Setenv("ROLE_CHECK_TIMEOUT", "")
	t.Setenv("SIGNIN_RATE_LIMIT", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 3*time.Second, cfg.RoleCheckTimeout)
	assert.Equal(t, 10, cfg.SignInRateLimit)
	assert.Equal(t, devSessionKey, cfg.SessionKey)
	assert.Contains(t, cfg.Warnings, "SESSION_KEY is not set, using the development key")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://hub@localhost/hub")
	t.Setenv("SESSION_KEY", "k")
	t.Setenv("ROLE_CHECK_TIMEOUT", "750ms")
	t.Setenv("SECURE_COOKIES", "true")
	t.Setenv("GOOGLE_CLIENT_ID", "id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")
	t.Setenv("GOOGLE_REDIRECT_URL", "http://localhost/cb")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 750*time.Millisecond, cfg.RoleCheckTimeout)
	assert.True(t, cfg.SecureCookies)
	assert.True(t, cfg.GoogleEnabled())
}

func TestLoadErrors(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("DATABASE_URL", "x")
	t.Setenv("SIGNIN_RATE_LIMIT", "lots")
	_, err = Load()
	assert.Error(t, err)
}
