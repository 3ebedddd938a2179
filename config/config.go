package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	USDA        USDAConfig        `mapstructure:"usda"`
	Oracle      OracleConfig      `mapstructure:"oracle"`
	Interpreter InterpreterConfig `mapstructure:"interpreter"`
	Resolver    ResolverConfig    `mapstructure:"resolver"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Storage     StorageConfig     `mapstructure:"storage"`
	RateLimit   RateLimitConfig   `mapstructure:"ratelimit"`
	Log         LogConfig         `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	Environment    string        `mapstructure:"environment"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// USDAConfig holds USDA API configuration
type USDAConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	PageSize     int           `mapstructure:"page_size"`
	DataTypes    string        `mapstructure:"data_types"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}

// OracleConfig holds the text interpretation service configuration
type OracleConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	Model        string        `mapstructure:"model"`
	Temperature  float64       `mapstructure:"temperature"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RetryCount   int           `mapstructure:"retry_count"`
	RetryWait    time.Duration `mapstructure:"retry_wait"`
	RetryMaxWait time.Duration `mapstructure:"retry_max_wait"`
}

// InterpreterConfig points at optional prompt overrides
type InterpreterConfig struct {
	SystemPromptFile string `mapstructure:"system_prompt_file"`
	DirectiveFile    string `mapstructure:"directive_file"`
}

// ResolverConfig holds composition lookup configuration
type ResolverConfig struct {
	LocalTopK           int     `mapstructure:"local_top_k"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	FallbackMode        string  `mapstructure:"fallback_mode"` // "ingredient" or "nutrient"
	MaxConcurrency      int     `mapstructure:"max_concurrency"`
	EnableFuzzyMatching bool    `mapstructure:"enable_fuzzy_matching"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// StorageConfig holds SQLite configuration
type StorageConfig struct {
	DBPath  string `mapstructure:"db_path"`
	SeedCSV string `mapstructure:"seed_csv"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
	USDA  int `mapstructure:"usda"`   // requests per hour
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Load loads configuration from .env, environment variables and config files
func Load() (*Config, error) {
	// .env is optional; real environment variables win over it
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/gizibunda/")

	v.SetEnvPrefix("GIZIBUNDA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})
	v.SetDefault("server.request_timeout", "60s")

	// USDA defaults
	v.SetDefault("usda.api_key", "")
	v.SetDefault("usda.base_url", "https://api.nal.usda.gov/fdc")
	v.SetDefault("usda.timeout", "10s")
	v.SetDefault("usda.page_size", 50)
	v.SetDefault("usda.data_types", "Foundation,SR Legacy,Survey (FNDDS)")
	v.SetDefault("usda.max_attempts", 3)
	v.SetDefault("usda.retry_backoff", "500ms")

	// Oracle defaults
	v.SetDefault("oracle.api_key", "")
	v.SetDefault("oracle.base_url", "https://api.openai.com/v1")
	v.SetDefault("oracle.model", "gpt-4o")
	v.SetDefault("oracle.temperature", 0.2)
	v.SetDefault("oracle.timeout", "10s")
	v.SetDefault("oracle.retry_count", 0)
	v.SetDefault("oracle.retry_wait", "500ms")
	v.SetDefault("oracle.retry_max_wait", "5s")

	// Interpreter defaults (empty means built-in prompts)
	v.SetDefault("interpreter.system_prompt_file", "")
	v.SetDefault("interpreter.directive_file", "")

	// Resolver defaults
	v.SetDefault("resolver.local_top_k", 5)
	v.SetDefault("resolver.similarity_threshold", 0.8)
	v.SetDefault("resolver.fallback_mode", "ingredient")
	v.SetDefault("resolver.max_concurrency", 4)
	v.SetDefault("resolver.enable_fuzzy_matching", true)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "720h") // 30 days

	// Storage defaults
	v.SetDefault("storage.db_path", "gizibunda.db")
	v.SetDefault("storage.seed_csv", "")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("ratelimit.usda", 1000)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.USDA.APIKey == "" {
		return fmt.Errorf("USDA API key is required (set GIZIBUNDA_USDA_API_KEY)")
	}

	if config.Oracle.APIKey == "" {
		return fmt.Errorf("oracle API key is required (set GIZIBUNDA_ORACLE_API_KEY)")
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Resolver.FallbackMode != "ingredient" && config.Resolver.FallbackMode != "nutrient" {
		return fmt.Errorf("resolver fallback mode must be 'ingredient' or 'nutrient', got: %s", config.Resolver.FallbackMode)
	}

	if config.Resolver.SimilarityThreshold <= 0 || config.Resolver.SimilarityThreshold > 1 {
		return fmt.Errorf("resolver similarity threshold must be in (0, 1], got: %v", config.Resolver.SimilarityThreshold)
	}

	if config.USDA.Timeout <= 0 || config.Oracle.Timeout <= 0 {
		return fmt.Errorf("USDA and oracle timeouts must be positive")
	}

	if config.Oracle.RetryCount < 0 || config.USDA.MaxAttempts < 1 {
		return fmt.Errorf("oracle retry count must be >= 0 and USDA max attempts >= 1")
	}

	return nil
}
