package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.EqualError(t, err, "DB_DSN is required")

	t.Setenv("DB_DSN", "postgres://localhost/campus")
	_, err = Load()
	assert.EqualError(t, err, "JWT_SECRET is required")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/campus")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "admin@nbsc.edu.ph", cfg.AdminEmail)
	assert.Equal(t, "@nbsc.edu.ph", cfg.StudentEmailDomain)
	assert.True(t, cfg.Seed)
	assert.Equal(t, "production", cfg.AppEnv)
}

func TestFromViperNormalizes(t *testing.T) {
	v := viper.New()
	v.Set("DB_DSN", "postgres://localhost/campus")
	v.Set("JWT_SECRET", "s3cret")
	v.Set("JWT_TTL", "2h")
	v.Set("STUDENT_EMAIL_DOMAIN", "Campus.EDU")
	v.Set("APP_ENV", "dev")
	v.Set("SEED", "false")

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "@campus.edu", cfg.StudentEmailDomain)
	assert.True(t, cfg.Development())
	assert.False(t, cfg.Seed)
}
