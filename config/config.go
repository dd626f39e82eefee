package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	App       AppConfig
	Redis     RedisConfig
	ImageHost ImageHostConfig
	Webhook   WebhookConfig
	Staging   StagingConfig
	Chat      ChatConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
	APIKey         string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
	ServiceName string
}

type RedisConfig struct {
	URL      string
	DraftTTL time.Duration
	ChatTTL  time.Duration
}

// ImageHostConfig holds the Cloudflare Images credentials. They stay on the
// server; nothing here is ever sent to the browser.
type ImageHostConfig struct {
	AccountID         string
	APIToken          string
	DeliveryBase      string
	APIBaseURL        string
	RequestsPerSecond float64
}

type WebhookConfig struct {
	URL string
}

type StagingConfig struct {
	Dir           string
	MaxAge        time.Duration
	SweepSchedule string
}

type ChatConfig struct {
	MinDelay time.Duration
	MaxDelay time.Duration
}

// Load reads the full service configuration.
func Load() (*Config, error) {
	cfg := read()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadSweep reads the configuration for a standalone staging sweep, which
// needs only Redis and the staging settings.
func LoadSweep() (*Config, error) {
	cfg := read()
	if err := cfg.ValidateSweep(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func read() *Config {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
			APIKey:         getEnv("API_KEY", ""),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			ServiceName: getEnv("SERVICE_NAME", "museum-registry"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379/0"),
			DraftTTL: getEnvAsDuration("DRAFT_TTL", 24*time.Hour),
			ChatTTL:  getEnvAsDuration("CHAT_TTL", 72*time.Hour),
		},
		ImageHost: ImageHostConfig{
			AccountID:         getEnv("CLOUDFLARE_ACCOUNT_ID", ""),
			APIToken:          getEnv("CLOUDFLARE_API_TOKEN", ""),
			DeliveryBase:      getEnv("CF_IMAGE_DELIVERY", ""),
			APIBaseURL:        getEnv("CF_API_BASE_URL", "https://api.cloudflare.com/client/v4"),
			RequestsPerSecond: getEnvAsFloat("IMAGE_HOST_RPS", 4),
		},
		Webhook: WebhookConfig{
			URL: getEnv("WEBHOOK_URL", ""),
		},
		Staging: StagingConfig{
			Dir:           getEnv("STAGING_DIR", filepath.Join(os.TempDir(), "museum-staging")),
			MaxAge:        getEnvAsDuration("STAGING_MAX_AGE", 24*time.Hour),
			SweepSchedule: getEnv("STAGING_SWEEP_SCHEDULE", "@every 30m"),
		},
		Chat: ChatConfig{
			MinDelay: getEnvAsDuration("CHAT_MIN_DELAY", 300*time.Millisecond),
			MaxDelay: getEnvAsDuration("CHAT_MAX_DELAY", 700*time.Millisecond),
		},
	}

	return cfg
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Webhook.URL == "" {
		return fmt.Errorf("WEBHOOK_URL is required")
	}

	if err := c.ValidateSweep(); err != nil {
		return err
	}

	if c.Chat.MaxDelay < c.Chat.MinDelay {
		return fmt.Errorf("CHAT_MAX_DELAY must not be lower than CHAT_MIN_DELAY")
	}

	return nil
}

func (c *Config) ValidateSweep() error {
	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Staging.Dir == "" {
		return fmt.Errorf("STAGING_DIR is required")
	}

	if c.Staging.MaxAge <= 0 {
		return fmt.Errorf("STAGING_MAX_AGE must be positive")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid number for %s, using default: %g", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
