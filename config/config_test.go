package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("MAX_DAILY_REQUESTS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 50, cfg.Requests.MaxDaily)
	assert.Equal(t, 18, cfg.Requests.CutoffHour)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, 30*time.Second, cfg.Music.DownloadTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("MAX_DAILY_REQUESTS", "20")
	t.Setenv("DOWNLOAD_TIMEOUT", "5s")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 20, cfg.Requests.MaxDaily)
	assert.Equal(t, 5*time.Second, cfg.Music.DownloadTimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 0, cfg.Redis.DB)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: "8080"},
			Redis:    RedisConfig{Addr: "localhost:6379"},
			Requests: RequestsConfig{MaxDaily: 50, CutoffHour: 18},
			App:      AppConfig{Environment: "development"},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("production requires jwt secret", func(t *testing.T) {
		cfg := base()
		cfg.App.Environment = "production"
		assert.Error(t, cfg.Validate())

		cfg.Auth.JWTSecret = "s3cret"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("bad cutoff hour", func(t *testing.T) {
		cfg := base()
		cfg.Requests.CutoffHour = 30
		assert.Error(t, cfg.Validate())
	})

	t.Run("non positive limit", func(t *testing.T) {
		cfg := base()
		cfg.Requests.MaxDaily = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestAuthSecretFallback(t *testing.T) {
	assert.NotEmpty(t, AuthConfig{}.Secret())
	assert.Equal(t, []byte("abc"), AuthConfig{JWTSecret: "abc"}.Secret())
}
