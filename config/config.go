package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Providers     ProvidersConfig
	Governor      GovernorConfig
	Security      SecurityConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds SQLite database configuration
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ProvidersConfig holds LLM provider configuration.
// All models are reached through the OpenRouter gateway.
type ProvidersConfig struct {
	OpenRouter OpenRouterConfig
	// ModelChain is the ordered fallback chain of model identifiers
	ModelChain []string
	// CostPer1K maps model identifier to USD cost per 1000 tokens
	CostPer1K map[string]float64
	// MaxTokens and Temperature are applied to every generation request
	MaxTokens   int
	Temperature float64
}

// OpenRouterConfig holds OpenRouter gateway configuration
type OpenRouterConfig struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// GovernorConfig holds rate limiter and response cache configuration
type GovernorConfig struct {
	BucketCapacity int
	RefillRate     float64 // tokens per second
	CacheMaxSize   int
	CacheTTL       time.Duration
}

// SecurityConfig holds input handling configuration
type SecurityConfig struct {
	MaxInputLength   int
	ContentFiltering bool
	SanitizeOutputs  bool
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or text
}

// New creates a new Config instance by loading environment variables
func New() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Path:            getEnv("DB_PATH", "whatif_simulations.db"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 1),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 1),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Providers: ProvidersConfig{
			OpenRouter: OpenRouterConfig{
				APIKey:     getEnv("OPENROUTER_API_KEY", ""),
				BaseURL:    getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
				Timeout:    getEnvAsDuration("OPENROUTER_TIMEOUT", 30*time.Second),
				MaxRetries: getEnvAsInt("OPENROUTER_MAX_RETRIES", 2),
			},
			ModelChain: getEnvAsSlice("MODEL_CHAIN", []string{
				"anthropic/claude-sonnet-4-5-20250929",
				"openai/gpt-4o",
				"google/gemini-2.0-flash",
			}),
			CostPer1K: map[string]float64{
				"anthropic/claude-sonnet-4-5-20250929": 0.003,
				"openai/gpt-4o":                        0.005,
				"google/gemini-2.0-flash":              0.0001,
			},
			MaxTokens:   getEnvAsInt("LLM_MAX_TOKENS", 1024),
			Temperature: getEnvAsFloat("LLM_TEMPERATURE", 0.7),
		},
		Governor: GovernorConfig{
			BucketCapacity: getEnvAsInt("RATE_LIMIT_CAPACITY", 10),
			RefillRate:     getEnvAsFloat("RATE_LIMIT_REFILL_RATE", 0.5),
			CacheMaxSize:   getEnvAsInt("CACHE_MAX_SIZE", 100),
			CacheTTL:       getEnvAsDuration("CACHE_TTL", 15*time.Minute),
		},
		Security: SecurityConfig{
			MaxInputLength:   getEnvAsInt("MAX_INPUT_LENGTH", 500),
			ContentFiltering: getEnvAsBool("CONTENT_FILTERING", true),
			SanitizeOutputs:  getEnvAsBool("SANITIZE_OUTPUTS", true),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Governor.BucketCapacity < 0 {
		return fmt.Errorf("rate limit capacity must be >= 0")
	}
	if c.Governor.RefillRate < 0 {
		return fmt.Errorf("rate limit refill rate must be >= 0")
	}
	if c.Governor.CacheMaxSize < 1 {
		return fmt.Errorf("cache max size must be >= 1")
	}
	if c.Governor.CacheTTL < 0 {
		return fmt.Errorf("cache TTL must be >= 0")
	}
	if len(c.Providers.ModelChain) == 0 {
		return fmt.Errorf("model chain must contain at least one model")
	}
	if c.IsProduction() && c.Providers.OpenRouter.APIKey == "" {
		return fmt.Errorf("OPENROUTER_API_KEY is required in production")
	}
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}
	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

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
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
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
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
