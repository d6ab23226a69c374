package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.AppPort)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 24*time.Hour, cfg.TokenExpires)
	assert.Equal(t, 10*time.Minute, cfg.LoginCodeTTL)
	assert.Equal(t, 30*time.Minute, cfg.DBConnMaxLifetime)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.True(t, cfg.IsLocal())
	assert.False(t, cfg.SMTPConfigured())
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("APP_PORT", "9000")
	t.Setenv("APP_ENV", "PROD")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("DATABASE_URL", "root:@tcp(localhost:3306)/stocki?parseTime=true")
	t.Setenv("JWT_TTL_HOURS", "12")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_FROM", "noreply@example.com")
	t.Setenv("RATE_BURST", "3")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.AppPort)
	assert.Equal(t, "prod", cfg.AppEnv)
	assert.False(t, cfg.IsLocal())
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 12*time.Hour, cfg.TokenExpires)
	assert.True(t, cfg.SMTPConfigured())
	assert.Equal(t, 3.0, cfg.RateBurst)
}

func TestParse_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestParse_UnknownDriver(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("DB_DRIVER", "oracle")

	_, err := Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DRIVER")
}
