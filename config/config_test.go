package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("WEBHOOK_URL", "https://hooks.example.test/records")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, 24*time.Hour, cfg.Redis.DraftTTL)
	assert.Equal(t, "https://api.cloudflare.com/client/v4", cfg.ImageHost.APIBaseURL)
	assert.Equal(t, 4.0, cfg.ImageHost.RequestsPerSecond)
	assert.Equal(t, 300*time.Millisecond, cfg.Chat.MinDelay)
	assert.Equal(t, 700*time.Millisecond, cfg.Chat.MaxDelay)
	assert.NotEmpty(t, cfg.Staging.Dir)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("WEBHOOK_URL", "https://hooks.example.test/records")
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("DRAFT_TTL", "2h")
	t.Setenv("IMAGE_HOST_RPS", "1.5")
	t.Setenv("CHAT_MIN_DELAY", "0s")
	t.Setenv("CHAT_MAX_DELAY", "0s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 2*time.Hour, cfg.Redis.DraftTTL)
	assert.Equal(t, 1.5, cfg.ImageHost.RequestsPerSecond)
	assert.Zero(t, cfg.Chat.MaxDelay)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("WEBHOOK_URL", "https://hooks.example.test/records")
	t.Setenv("DRAFT_TTL", "tomorrow")
	t.Setenv("IMAGE_HOST_RPS", "fast")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.Redis.DraftTTL)
	assert.Equal(t, 4.0, cfg.ImageHost.RequestsPerSecond)
}

func TestValidate(t *testing.T) {
	t.Run("webhook url is required", func(t *testing.T) {
		t.Setenv("WEBHOOK_URL", "")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "WEBHOOK_URL")
	})

	t.Run("chat delay bounds are ordered", func(t *testing.T) {
		cfg := &Config{
			Server:  ServerConfig{Port: "8080"},
			Redis:   RedisConfig{URL: "redis://localhost:6379/0"},
			Webhook: WebhookConfig{URL: "https://hooks.example.test"},
			Staging: StagingConfig{Dir: "/tmp/x", MaxAge: time.Hour},
			Chat:    ChatConfig{MinDelay: time.Second, MaxDelay: time.Millisecond},
		}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "CHAT_MAX_DELAY")
	})
}

func TestLoadSweep(t *testing.T) {
	t.Run("webhook url is not needed", func(t *testing.T) {
		t.Setenv("WEBHOOK_URL", "")
		t.Setenv("REDIS_URL", "")
		t.Setenv("STAGING_DIR", "/var/lib/museum-staging")
		t.Setenv("STAGING_MAX_AGE", "6h")

		cfg, err := LoadSweep()
		require.NoError(t, err)
		assert.Equal(t, "/var/lib/museum-staging", cfg.Staging.Dir)
		assert.Equal(t, 6*time.Hour, cfg.Staging.MaxAge)
		assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	})

	t.Run("max age must be positive", func(t *testing.T) {
		t.Setenv("STAGING_MAX_AGE", "-1h")
		_, err := LoadSweep()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "STAGING_MAX_AGE")
	})
}
