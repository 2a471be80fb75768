package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env  string
	Port int

	Database DatabaseConfig
	Redis    RedisConfig
	Log      LogConfig
	CORS     CORSConfig
	Notion   NotionConfig
	Webhook  WebhookConfig
	Sync     SyncConfig
	RunState RunStateConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type LogConfig struct {
	Level  string
	Format string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// NotionConfig carries credentials and tuning for the Notion API client.
type NotionConfig struct {
	APIKey     string `validate:"required"`
	DatabaseID string `validate:"required"`
	BaseURL    string
	Version    string
	Timeout    time.Duration
	MaxRetries int
}

// WebhookConfig holds the shared secret for inbound trigger requests. An
// empty secret means every signed request is rejected; the server still
// starts so the scheduler and manual CLI runs keep working.
type WebhookConfig struct {
	Secret string
}

// SyncConfig tunes the reconciliation pass.
type SyncConfig struct {
	PageSize int
	Workers  int
	Schedule string
}

// RunStateConfig governs the Redis-backed run lock and last-run record.
type RunStateConfig struct {
	Enabled bool
	LockTTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Notion = NotionConfig{
		APIKey:     v.GetString("NOTION_API_KEY"),
		DatabaseID: v.GetString("NOTION_DATABASE_ID"),
		BaseURL:    v.GetString("NOTION_BASE_URL"),
		Version:    v.GetString("NOTION_VERSION"),
		Timeout:    parseDuration(v.GetString("NOTION_TIMEOUT"), 30*time.Second),
		MaxRetries: v.GetInt("NOTION_MAX_RETRIES"),
	}

	cfg.Webhook = WebhookConfig{
		Secret: v.GetString("WEBHOOK_SECRET"),
	}

	cfg.Sync = SyncConfig{
		PageSize: v.GetInt("SYNC_PAGE_SIZE"),
		Workers:  v.GetInt("SYNC_WORKERS"),
		Schedule: v.GetString("SYNC_SCHEDULE"),
	}

	cfg.RunState = RunStateConfig{
		Enabled: v.GetBool("ENABLE_RUN_STATE"),
		LockTTL: parseDuration(v.GetString("RUN_LOCK_TTL"), 10*time.Minute),
	}

	return cfg, nil
}

// Validate enforces the settings the service cannot run without.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "calendar_sync")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ALLOWED_ORIGINS", "")

	v.SetDefault("NOTION_API_KEY", "")
	v.SetDefault("NOTION_DATABASE_ID", "")
	v.SetDefault("NOTION_BASE_URL", "https://api.notion.com")
	v.SetDefault("NOTION_VERSION", "2022-06-28")
	v.SetDefault("NOTION_TIMEOUT", "30s")
	v.SetDefault("NOTION_MAX_RETRIES", 3)

	v.SetDefault("WEBHOOK_SECRET", "")

	v.SetDefault("SYNC_PAGE_SIZE", 100)
	v.SetDefault("SYNC_WORKERS", 1)
	v.SetDefault("SYNC_SCHEDULE", "")

	v.SetDefault("ENABLE_RUN_STATE", false)
	v.SetDefault("RUN_LOCK_TTL", "10m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
