package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Requests RequestsConfig
	Music    MusicConfig
	Review   ReviewConfig
	App      AppConfig
}

type ServerConfig struct {
	Port        string
	CORSOrigins []string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type DatabaseConfig struct {
	DSN      string
	MaxConns int
}

type AuthConfig struct {
	JWTSecret       string
	TokenTTL        time.Duration
	AdminPassword   string
	ControlPassword string
}

type RequestsConfig struct {
	MaxDaily     int
	CutoffHour   int
	CatalogFile  string
	SubmitPerMin int
}

type MusicConfig struct {
	BaseURL         string
	RateLimit       float64
	DownloadDir     string
	BundleDir       string
	DownloadTimeout time.Duration
}

type ReviewConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"*"}),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Database: DatabaseConfig{
			DSN:      getEnv("DB_DSN", ""),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 10),
		},
		Auth: AuthConfig{
			JWTSecret:       getEnv("JWT_SECRET", ""),
			TokenTTL:        getEnvAsDuration("TOKEN_TTL", 12*time.Hour),
			AdminPassword:   getEnv("ADMIN_PASSWORD", "admin123"),
			ControlPassword: getEnv("CONTROL_PASSWORD", "lc2025"),
		},
		Requests: RequestsConfig{
			MaxDaily:     getEnvAsInt("MAX_DAILY_REQUESTS", 50),
			CutoffHour:   getEnvAsInt("DAY_CUTOFF_HOUR", 18),
			CatalogFile:  getEnv("CATALOG_FILE", ""),
			SubmitPerMin: getEnvAsInt("SUBMIT_PER_MINUTE", 6),
		},
		Music: MusicConfig{
			BaseURL:         getEnv("MUSIC_API_URL", "https://api.zh-mc.top"),
			RateLimit:       getEnvAsFloat("MUSIC_RATE_LIMIT", 5),
			DownloadDir:     getEnv("DOWNLOAD_DIR", "data/downloads"),
			BundleDir:       getEnv("BUNDLE_DIR", "data/bundles"),
			DownloadTimeout: getEnvAsDuration("DOWNLOAD_TIMEOUT", 30*time.Second),
		},
		Review: ReviewConfig{
			APIKey:  getEnv("REVIEW_API_KEY", ""),
			BaseURL: getEnv("REVIEW_BASE_URL", "https://api.deepseek.com/v1"),
			Model:   getEnv("REVIEW_MODEL", "deepseek-chat"),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}

	if c.Requests.MaxDaily <= 0 {
		return fmt.Errorf("MAX_DAILY_REQUESTS must be positive")
	}

	if c.Requests.CutoffHour < 0 || c.Requests.CutoffHour > 24 {
		return fmt.Errorf("DAY_CUTOFF_HOUR must be between 0 and 24")
	}

	if c.IsProduction() && c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Secret returns the signing secret, falling back to a fixed value outside production.
func (c AuthConfig) Secret() []byte {
	if c.JWTSecret == "" {
		return []byte("songdesk-dev-secret")
	}
	return []byte(c.JWTSecret)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid number for %s, using default: %v", key, defaultValue)
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
