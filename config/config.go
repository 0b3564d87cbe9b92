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
	Server   ServerConfig
	API      APIConfig
	Redis    RedisConfig
	Catalog  CatalogConfig
	Products ProductsConfig
	Payment  PaymentConfig
	App      AppConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

// APIConfig points the SDK at the marketplace backend.
type APIConfig struct {
	BaseURL        string
	Timeout        time.Duration
	PayPalClientID string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// CatalogConfig controls the SDK's listing page cache. It is only used when
// REDIS_ADDR is set.
type CatalogConfig struct {
	CacheTTL time.Duration
}

// ProductsConfig controls the storefront product-list proxy.
type ProductsConfig struct {
	FetchTimeout time.Duration
	CacheTTL     time.Duration
	WarmSchedule string
}

type PaymentConfig struct {
	PollInterval time.Duration
	PollAttempts int
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
	StateDir    string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: getEnvAsList("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		},
		API: APIConfig{
			BaseURL:        firstEnv([]string{"PLANMARKET_API_URL", "VITE_API_URL", "FLASK_BACKEND_URL"}, "http://localhost:5000"),
			Timeout:        getEnvAsDuration("API_TIMEOUT", 30*time.Second),
			PayPalClientID: firstEnv([]string{"PAYPAL_CLIENT_ID", "VITE_PAYPAL_CLIENT_ID"}, ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Catalog: CatalogConfig{
			CacheTTL: getEnvAsDuration("CATALOG_CACHE_TTL", 2*time.Minute),
		},
		Products: ProductsConfig{
			FetchTimeout: getEnvAsDuration("PRODUCTS_FETCH_TIMEOUT", 10*time.Second),
			CacheTTL:     getEnvAsDuration("PRODUCTS_CACHE_TTL", 5*time.Minute),
			WarmSchedule: getEnv("PRODUCTS_WARM_SCHEDULE", "@every 5m"),
		},
		Payment: PaymentConfig{
			PollInterval: getEnvAsDuration("PAYMENT_POLL_INTERVAL", 3*time.Second),
			PollAttempts: getEnvAsInt("PAYMENT_POLL_ATTEMPTS", 20),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			StateDir:    getEnv("PLANCTL_STATE_DIR", defaultStateDir()),
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

	if c.API.BaseURL == "" {
		return fmt.Errorf("PLANMARKET_API_URL is required")
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("PLANMARKET_API_URL must be an http(s) URL, got %q", c.API.BaseURL)
	}

	if c.Payment.PollAttempts <= 0 {
		return fmt.Errorf("PAYMENT_POLL_ATTEMPTS must be positive")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// firstEnv returns the first non-empty variable among keys.
func firstEnv(keys []string, defaultValue string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return strings.TrimRight(value, "/")
		}
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
	return out
}

func defaultStateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".planctl"
	}
	return filepath.Join(dir, "planctl")
}
