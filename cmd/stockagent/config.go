package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the service configuration loaded from environment variables.
type Config struct {
	// Server
	Port        string
	LogLevel    string // debug, info, warn, error
	Environment string // development or production
	SkipAuth    bool

	// Provider selection
	Provider string // anthropic or openai
	Model    string
	BaseURL  string

	// API keys
	AnthropicKey string
	OpenAIKey    string
	GoogleKey    string

	// Embeddings
	EmbeddingProvider string // openai, google, or none
	KnowledgeDir      string

	// Agent config
	Temperature float64
	MaxTokens   int
	MaxSteps    int
	Timeout     time.Duration
}

// LoadConfig loads configuration from environment variables.
// It loads a .env file if present (silent fail if not found).
func LoadConfig() (*Config, error) {
	godotenv.Load() // Load .env file if present

	cfg := &Config{
		Port:              getEnvOrDefault("PORT", "8080"),
		LogLevel:          getEnvOrDefault("LOG_LEVEL", "info"),
		Environment:       getEnvOrDefault("ENVIRONMENT", "production"),
		SkipAuth:          getEnvBoolOrDefault("SKIP_AUTH", false),
		Provider:          getEnvOrDefault("AGENT_PROVIDER", "anthropic"),
		Model:             os.Getenv("AGENT_MODEL"),
		BaseURL:           os.Getenv("AGENT_BASE_URL"),
		AnthropicKey:      os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIKey:         os.Getenv("OPENAI_API_KEY"),
		GoogleKey:         os.Getenv("GOOGLE_API_KEY"),
		EmbeddingProvider: getEnvOrDefault("EMBEDDING_PROVIDER", "openai"),
		KnowledgeDir:      getEnvOrDefault("KNOWLEDGE_DIR", "knowledge_base"),
		Temperature:       getEnvFloatOrDefault("AGENT_TEMPERATURE", 0.3),
		MaxTokens:         getEnvIntOrDefault("AGENT_MAX_TOKENS", 2048),
		MaxSteps:          getEnvIntOrDefault("AGENT_MAX_STEPS", 10),
		Timeout:           getEnvDurationOrDefault("AGENT_TIMEOUT", 2*time.Minute),
	}

	return cfg, nil
}

// Validate checks that the chat provider is usable. Embedding keys are
// checked lazily so the knowledge base can degrade to unavailable instead
// of blocking startup.
func (c *Config) Validate() error {
	switch c.Provider {
	case "anthropic":
		if c.AnthropicKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for anthropic provider")
		}
	case "openai":
		if c.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for openai provider")
		}
	default:
		return fmt.Errorf("unknown provider: %s (must be anthropic or openai)", c.Provider)
	}

	return nil
}

// DevEndpoints reports whether the unauthenticated dev endpoint is allowed.
func (c *Config) DevEndpoints() bool {
	return c.Environment == "development" || c.SkipAuth
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.EqualFold(value, "true")
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
