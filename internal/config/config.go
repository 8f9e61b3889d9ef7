// Package config provides environment configuration for the API server.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string        `env:"PORT" envDefault:"8080"`
	ServerReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	ServerWriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"0s"`
	CORSOrigins        []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"https://*,http://*"`

	// NATS settings. An empty URL keeps conversations and assessments in memory.
	NATSURL      string `env:"NATS_URL"`
	NATSCAFile   string `env:"NATS_CA_FILE"`
	NATSCertFile string `env:"NATS_CERT_FILE"`
	NATSKeyFile  string `env:"NATS_KEY_FILE"`
	NATSToken    string `env:"NATS_TOKEN"`

	// JWT settings
	JWTSecret string `env:"JWT_SECRET" envDefault:"development-secret-change-in-production"`

	// LLM settings
	LLMProvider     string  `env:"LLM_PROVIDER" envDefault:"openai"`
	LLMModel        string  `env:"LLM_MODEL"`
	LLMMaxTokens    int     `env:"LLM_MAX_TOKENS" envDefault:"1024"`
	LLMTemperature  float64 `env:"LLM_TEMPERATURE" envDefault:"0.7"`
	OpenAIAPIKey    string  `env:"OPENAI_API_KEY"`
	OpenAIBaseURL   string  `env:"OPENAI_BASE_URL"`
	AnthropicAPIKey string  `env:"ANTHROPIC_API_KEY"`
	OllamaServerURL string  `env:"OLLAMA_SERVER_URL" envDefault:"http://localhost:11434"`

	// Chat turn settings
	ChatTurnTimeout  time.Duration `env:"CHAT_TURN_TIMEOUT" envDefault:"2m"`
	MaxHistoryTurns  int           `env:"MAX_HISTORY_TURNS" envDefault:"50"`
	SummaryMaxLength int           `env:"SUMMARY_MAX_LENGTH" envDefault:"1000"`

	// Knowledge index. An empty URL disables augmentation.
	WeaviateURL      string        `env:"WEAVIATE_URL"`
	WeaviateAPIKey   string        `env:"WEAVIATE_API_KEY"`
	WeaviateClass    string        `env:"WEAVIATE_CLASS" envDefault:"KnowledgeSnippet"`
	KnowledgeTimeout time.Duration `env:"KNOWLEDGE_TIMEOUT" envDefault:"5s"`

	// Personalization cache
	AssessmentCacheTTL time.Duration `env:"ASSESSMENT_CACHE_TTL" envDefault:"5m"`

	// Rate limiting
	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"60"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`

	// Logging
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Environment string `env:"ENV" envDefault:"production"`

	// Tracing
	TracingEndpoint string `env:"TRACING_ENDPOINT" envDefault:"localhost:4318"`
	TracingEnabled  bool   `env:"TRACING_ENABLED" envDefault:"false"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Development reports whether ENV=development.
func (c *Config) Development() bool {
	return c.Environment == "development"
}

func (c *Config) validate() error {
	if c.ChatTurnTimeout <= 0 {
		return fmt.Errorf("CHAT_TURN_TIMEOUT must be positive")
	}
	// net/http cuts the response at the write deadline, before the relay can
	// send its terminal frames.
	if c.ServerWriteTimeout > 0 && c.ServerWriteTimeout < c.ChatTurnTimeout {
		return fmt.Errorf("SERVER_WRITE_TIMEOUT (%s) must be 0 or at least CHAT_TURN_TIMEOUT (%s)",
			c.ServerWriteTimeout, c.ChatTurnTimeout)
	}
	if c.MaxHistoryTurns < 0 {
		return fmt.Errorf("MAX_HISTORY_TURNS must not be negative")
	}
	if c.SummaryMaxLength <= 0 {
		return fmt.Errorf("SUMMARY_MAX_LENGTH must be positive")
	}
	return nil
}
