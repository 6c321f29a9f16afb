package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATABASE_URL", "JWT_SECRET_KEY", "TOKEN_TTL", "AMQP_URL", "OIDC_ISSUER", "OIDC_CLIENT_ID", "MENU_TIMEZONE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "restaurant.db", cfg.SQLitePath)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.True(t, cfg.UsesDefaultSecret())
	assert.Equal(t, time.Local, cfg.MenuLocation())
}

func TestLoadReadsEnvFile(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("JWT_SECRET_KEY", "")
	os.Unsetenv("PORT")
	os.Unsetenv("JWT_SECRET_KEY")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=9090\nJWT_SECRET_KEY=a-much-longer-secret\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.False(t, cfg.UsesDefaultSecret())
}

func TestValidateRejectsHalfConfiguredOIDC(t *testing.T) {
	cfg := Config{
		Port: "8080", SQLitePath: "x.db", JWTSecret: DefaultJWTSecret, TokenTTL: time.Hour,
		UploadDir: "uploads", MenuTimezone: "UTC", GradebookPort: "8081", GradebookDB: "g.db",
		OIDCIssuer: "https://accounts.google.com",
	}
	assert.Error(t, cfg.Validate())

	cfg.OIDCClientID = "client"
	assert.NoError(t, cfg.Validate())

	cfg.MenuTimezone = "Mars/Olympus"
	assert.Error(t, cfg.Validate())
}
