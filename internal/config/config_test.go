package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	want := Default()
	assert.Equal(t, want.Timeout, cfg.Timeout)
	assert.Equal(t, want.LogLevel, cfg.LogLevel)
	assert.Zero(t, cfg.Retries)
	assert.False(t, cfg.Kerberos)
}

func TestUnprefixedFallback(t *testing.T) {
	t.Setenv("KRB5_CONFIG", "/etc/alt-krb5.conf")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/etc/alt-krb5.conf", cfg.Krb5Config)

	t.Setenv("BEANBAG_KRB5_CONFIG", "/etc/beanbag-krb5.conf")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "/etc/beanbag-krb5.conf", cfg.Krb5Config)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("BEANBAG_BASE_URL", "https://api.example.com/")
	t.Setenv("BEANBAG_EXT", ".json")
	t.Setenv("BEANBAG_TIMEOUT", "5s")
	t.Setenv("BEANBAG_RETRIES", "3")
	t.Setenv("BEANBAG_RATE_LIMIT", "2.5")
	t.Setenv("BEANBAG_KERBEROS", "true")
	t.Setenv("BEANBAG_OAUTH_CLIENT_KEY", "ck")
	t.Setenv("BEANBAG_PASSPHRASE", "pw")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/", cfg.BaseURL)
	assert.Equal(t, ".json", cfg.Ext)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.Retries)
	assert.Equal(t, 2.5, cfg.RateLimit)
	assert.True(t, cfg.Kerberos)
	assert.Equal(t, "ck", cfg.OAuthClientKey)
	assert.Equal(t, "pw", cfg.Passphrase)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("BEANBAG_RETRIES", "many")
	_, err := Load()
	assert.Error(t, err)
}

func TestUsage(t *testing.T) {
	var out strings.Builder
	require.NoError(t, Usage(&out, Default()))
	assert.Contains(t, out.String(), "BEANBAG_BASE_URL")
	assert.Contains(t, out.String(), "BEANBAG_OAUTH_STORE")
}
