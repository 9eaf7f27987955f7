package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIURL        = "http://localhost:8000"
	DefaultLoginPath     = "/pages/login.html"
	DefaultCacheTTL      = 5 * time.Minute
	defaultAdminPassword = "admin-password"
)

// Token store backends
const (
	StoreFile   = "file"
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config holds application configuration
type Config struct {
	APIBaseURL  string
	LoginPath   string
	CacheTTL    time.Duration
	TokenStore  string // file, memory, redis
	TokenFile   string
	RedisAddr   string
	RedisPass   string
	RateLimit   float64 // client requests per second, 0 disables throttling
	LogLevel    string
	LogFormat   string
	Environment string // development, staging, production

	// Mock backend
	Port              string
	AllowedOrigins    string
	MockAdminEmail    string
	MockAdminPassword string
}

// Load loads configuration from environment variables and validates it
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	ttl, err := getDuration("ORGSITE_CACHE_TTL", DefaultCacheTTL)
	if err != nil {
		return nil, err
	}
	rateLimit, err := getFloat("ORGSITE_RATE_LIMIT", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		APIBaseURL:        getEnv("ORGSITE_API_URL", DefaultAPIURL),
		LoginPath:         getEnv("ORGSITE_LOGIN_PATH", DefaultLoginPath),
		CacheTTL:          ttl,
		TokenStore:        strings.ToLower(getEnv("ORGSITE_TOKEN_STORE", StoreFile)),
		TokenFile:         getEnv("ORGSITE_TOKEN_FILE", defaultTokenFile()),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPass:         getEnv("REDIS_PASSWORD", ""),
		RateLimit:         rateLimit,
		LogLevel:          getEnv("LOG_LEVEL", "warn"),
		LogFormat:         getEnv("LOG_FORMAT", "text"),
		Environment:       getEnv("ENVIRONMENT", "development"),
		Port:              getEnv("PORT", "8000"),
		AllowedOrigins:    getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8080"),
		MockAdminEmail:    getEnv("MOCK_ADMIN_EMAIL", "admin@example.com"),
		MockAdminPassword: getEnv("MOCK_ADMIN_PASSWORD", defaultAdminPassword),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration for security and correctness
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("ORGSITE_API_URL must be an absolute http(s) URL (got %q)", c.APIBaseURL)
	}

	if c.CacheTTL <= 0 {
		return fmt.Errorf("ORGSITE_CACHE_TTL must be positive (got %s)", c.CacheTTL)
	}

	if c.RateLimit < 0 {
		return fmt.Errorf("ORGSITE_RATE_LIMIT must not be negative (got %v)", c.RateLimit)
	}

	switch c.TokenStore {
	case StoreMemory:
	case StoreFile:
		if c.TokenFile == "" {
			return fmt.Errorf("ORGSITE_TOKEN_FILE must be set for the file token store")
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR must be set for the redis token store")
		}
	default:
		return fmt.Errorf("unsupported ORGSITE_TOKEN_STORE value %q", c.TokenStore)
	}

	if c.LoginPath == "" {
		c.LoginPath = DefaultLoginPath
	}

	// Production requires TLS towards the API
	if c.IsProduction() && u.Scheme != "https" {
		return fmt.Errorf("ORGSITE_API_URL must use https in production")
	}

	return nil
}

// ValidateMockBackend checks the settings only the mock backend reads.
func (c *Config) ValidateMockBackend() error {
	if c.MockAdminEmail == "" {
		return fmt.Errorf("MOCK_ADMIN_EMAIL must be set")
	}
	if c.IsProduction() && (c.MockAdminPassword == "" || c.MockAdminPassword == defaultAdminPassword) {
		return fmt.Errorf("MOCK_ADMIN_PASSWORD must be changed in production")
	}
	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev" || c.Environment == ""
}

// Origin identifies the API the session belongs to; durable stores scope keys by it.
func (c *Config) Origin() string {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Host == "" {
		return c.APIBaseURL
	}
	return u.Scheme + "://" + u.Host
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "orgsite", "session.json")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return d, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q: %w", key, value, err)
	}
	return f, nil
}
