// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Auth modes select how access tokens are resolved.
const (
	AuthModeRemote = "remote" // ask the provider's user endpoint
	AuthModeJWT    = "jwt"    // verify the token signature locally
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// External auth provider
	AuthURL       string
	AuthAnonKey   string
	AuthJWTSecret string
	AuthMode      string
	AdminEmails   []string

	// S3-compatible object storage. Uploads are disabled when S3Endpoint
	// or S3Bucket is empty.
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string

	// Image generation
	ImageProvider    string // "jimeng" or "openai"
	JimengAPIKey     string
	JimengBaseURL    string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIImageModel string

	// Comic generation
	ComicConcurrency int
	ComicMaxRetries  int
	ComicRateLimit   int // generations per user per hour, 0 disables
}

// LoadDotEnv loads variables from the given .env files (default ".env")
// into the process environment. Variables already set are not overridden
// and a missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode.
func Load() (*Config, error) {
	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "inkpress"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "inkpress"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		AuthURL:       strings.TrimRight(os.Getenv("AUTH_URL"), "/"),
		AuthAnonKey:   os.Getenv("AUTH_ANON_KEY"),
		AuthJWTSecret: os.Getenv("AUTH_JWT_SECRET"),
		AuthMode:      envOrDefault("AUTH_MODE", AuthModeRemote),
		AdminEmails:   splitList(os.Getenv("ADMIN_EMAILS")),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "us-east-1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),

		ImageProvider:    envOrDefault("IMAGE_PROVIDER", "jimeng"),
		JimengAPIKey:     os.Getenv("JIMENG_API_KEY"),
		JimengBaseURL:    envOrDefault("JIMENG_BASE_URL", "https://api.jimeng.com/v1"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:    envOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIImageModel: envOrDefault("OPENAI_IMAGE_MODEL", "dall-e-3"),
	}

	var err error
	if cfg.ComicConcurrency, err = envInt("COMIC_CONCURRENCY", 1); err != nil {
		return nil, err
	}
	if cfg.ComicMaxRetries, err = envInt("COMIC_MAX_RETRIES", 0); err != nil {
		return nil, err
	}
	if cfg.ComicRateLimit, err = envInt("COMIC_RATE_LIMIT", 10); err != nil {
		return nil, err
	}

	switch cfg.AuthMode {
	case AuthModeRemote, AuthModeJWT:
	default:
		return nil, fmt.Errorf("AUTH_MODE must be %q or %q, got %q", AuthModeRemote, AuthModeJWT, cfg.AuthMode)
	}
	switch cfg.ImageProvider {
	case "jimeng", "openai":
	default:
		return nil, fmt.Errorf("IMAGE_PROVIDER must be \"jimeng\" or \"openai\", got %q", cfg.ImageProvider)
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.AuthMode == AuthModeRemote && (cfg.AuthURL == "" || cfg.AuthAnonKey == "") {
			return nil, fmt.Errorf("AUTH_URL and AUTH_ANON_KEY must be set in production")
		}
		if cfg.AuthMode == AuthModeJWT && cfg.AuthJWTSecret == "" {
			return nil, fmt.Errorf("AUTH_JWT_SECRET must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envInt reads a non-negative integer environment variable.
func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, v)
	}
	return n, nil
}

// splitList splits a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
