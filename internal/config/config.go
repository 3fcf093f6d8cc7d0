package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Server    ServerConfig
	LLM       LLMConfig
	Providers ProvidersConfig
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// JWTConfig holds wallet-session token settings.
type JWTConfig struct {
	Secret    string //nolint:gosec // G117: JWT signing secret config
	AccessTTL time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// LLMConfig holds the chat-completions backend settings. The endpoint is
// OpenAI-compatible; any provider exposing /chat/completions works.
type LLMConfig struct {
	BaseURL     string
	APIKey      string //nolint:gosec // G117: upstream API credential config
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// ProvidersConfig holds settings for the intent data providers.
type ProvidersConfig struct {
	PriceBaseURL  string
	PriceCacheTTL time.Duration
	AssetBaseURL  string
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only. In production,
// sensitive values (JWT secret, DB password) must be set explicitly.
func Load() (*Config, error) {
	dbPort, err := getEnvInt("RIBBIT_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("RIBBIT_DB_MAX_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("RIBBIT_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	accessTTL, err := getEnvDuration("RIBBIT_JWT_ACCESS_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("RIBBIT_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("RIBBIT_SERVER_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	llmMaxTokens, err := getEnvInt("RIBBIT_LLM_MAX_TOKENS", 500)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	llmTemperature, err := getEnvFloat("RIBBIT_LLM_TEMPERATURE", 0.8)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	llmTimeout, err := getEnvDuration("RIBBIT_LLM_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	priceCacheTTL, err := getEnvDuration("RIBBIT_PRICE_CACHE_TTL", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	corsOrigins := getEnvList("RIBBIT_CORS_ORIGINS", []string{"http://localhost:5173"})

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("RIBBIT_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("RIBBIT_DB_USER", "ribbit"),
			Password: getEnv("RIBBIT_DB_PASSWORD", ""),
			DBName:   getEnv("RIBBIT_DB_NAME", "ribbit_dev"),
			SSLMode:  getEnv("RIBBIT_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("RIBBIT_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("RIBBIT_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret:    getEnv("RIBBIT_JWT_SECRET", ""),
			AccessTTL: accessTTL,
		},
		Server: ServerConfig{
			Addr:         getEnv("RIBBIT_SERVER_ADDR", ":8080"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			CORSOrigins:  corsOrigins,
		},
		LLM: LLMConfig{
			BaseURL:     getEnv("RIBBIT_LLM_BASE_URL", "https://dashscope.aliyuncs.com/compatible-mode/v1"),
			APIKey:      getEnv("RIBBIT_LLM_API_KEY", ""),
			Model:       getEnv("RIBBIT_LLM_MODEL", "qwen-turbo"),
			MaxTokens:   llmMaxTokens,
			Temperature: llmTemperature,
			Timeout:     llmTimeout,
		},
		Providers: ProvidersConfig{
			PriceBaseURL:  getEnv("RIBBIT_PRICE_BASE_URL", "https://api.coingecko.com/api/v3"),
			PriceCacheTTL: priceCacheTTL,
			AssetBaseURL:  getEnv("RIBBIT_ASSET_BASE_URL", ""),
		},
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	// JWT secret is required (no insecure default).
	if c.JWT.Secret == "" {
		return errors.New("RIBBIT_JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("RIBBIT_JWT_SECRET must be at least 32 characters")
	}

	if c.LLM.APIKey == "" {
		log.Warn().Msg("RIBBIT_LLM_API_KEY is not set; classification and replies fall back to rule-based output")
	}

	// Bounds checks.
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("RIBBIT_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("RIBBIT_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.JWT.AccessTTL <= 0 {
		return fmt.Errorf("RIBBIT_JWT_ACCESS_TTL must be positive, got %s", c.JWT.AccessTTL)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("RIBBIT_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("RIBBIT_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.LLM.MaxTokens < 1 {
		return fmt.Errorf("RIBBIT_LLM_MAX_TOKENS must be >= 1, got %d", c.LLM.MaxTokens)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("RIBBIT_LLM_TEMPERATURE must be 0-2, got %g", c.LLM.Temperature)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("RIBBIT_LLM_TIMEOUT must be positive, got %s", c.LLM.Timeout)
	}
	if c.Providers.PriceCacheTTL <= 0 {
		return fmt.Errorf("RIBBIT_PRICE_CACHE_TTL must be positive, got %s", c.Providers.PriceCacheTTL)
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as float: %w", key, v, err)
	}
	return f, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
