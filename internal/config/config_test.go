package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("PLATFORM_API_URL", "http://platform.local/api/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "http://platform.local/api", cfg.Upstream.BaseURL)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 12*time.Hour, cfg.Session.TTL)
	assert.False(t, cfg.Session.SecureCookie)
	assert.Contains(t, cfg.Documents.AllowedTypes, "application/pdf")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("API_PORT", "9090")
	t.Setenv("SESSION_TTL", "3600")
	t.Setenv("PLATFORM_API_TIMEOUT", "5s")
	t.Setenv("DOCUMENT_ALLOWED_TYPES", "application/pdf, ,image/png")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.Session.SecureCookie)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.Equal(t, 5*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, []string{"application/pdf", "image/png"}, cfg.Documents.AllowedTypes)
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("API_PORT", "70000")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadOptionalBackendsOff(t *testing.T) {
	t.Setenv("DATABASE_URL", "off")
	t.Setenv("REDIS_URL", "OFF")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.Database.URL)
	assert.Empty(t, cfg.Redis.URL)
}
