package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/mindease/backend/internal/analysis/emotion"
)

// Config aggregates every setting of the service. It is built once at start-up
// and handed to the components that need it.
type Config struct {
	Server     ServerConfig
	Log        LogConfig
	Classifier ClassifierConfig
	Completion CompletionConfig
	Safety     SafetyConfig
	Store      StoreConfig
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := c.Server.Addr(); err != nil {
		return err
	}

	switch c.Classifier.Provider {
	case ClassifierHuggingFace, ClassifierKeyword, ClassifierLLM:
	default:
		return fmt.Errorf("invalid CLASSIFIER_PROVIDER value %q", c.Classifier.Provider)
	}

	switch c.Completion.Provider {
	case CompletionOpenAI, CompletionArk:
	default:
		return fmt.Errorf("invalid COMPLETION_PROVIDER value %q", c.Completion.Provider)
	}

	if c.Safety.Threshold < 0 || c.Safety.Threshold > 1 {
		return fmt.Errorf("invalid SAFETY_THRESHOLD value %v: must be within [0,1]", c.Safety.Threshold)
	}

	switch c.Store.Driver {
	case StoreMemory, StoreRedis:
	case StorePostgres:
		if strings.TrimSpace(c.Store.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=%s", StorePostgres)
		}
	default:
		return fmt.Errorf("invalid STORE_DRIVER value %q", c.Store.Driver)
	}

	if _, err := c.Store.Location(); err != nil {
		return err
	}
	return nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Port           string   `env:"PORT" envDefault:"3000"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	RateLimit      RateLimitConfig
}

// Addr resolves the listen address from PORT.
func (c ServerConfig) Addr() (string, error) {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "3000"
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	if strings.Contains(port, ":") {
		// ":3000" or "127.0.0.1:3000" are taken verbatim.
		return port, nil
	}

	return ":" + port, nil
}

// RateLimitConfig bounds chat requests per client IP. A zero RPS leaves
// chat routes unlimited.
type RateLimitConfig struct {
	RPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"0"`
	Burst int     `env:"RATE_LIMIT_BURST" envDefault:"5"`
}

// Enabled reports whether chat routes should be rate limited.
func (c RateLimitConfig) Enabled() bool {
	return c.RPS > 0 && c.Burst > 0
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

const (
	ClassifierHuggingFace = "huggingface"
	ClassifierKeyword     = "keyword"
	ClassifierLLM         = "llm"
)

// ClassifierConfig describes the sentiment classifier endpoint.
type ClassifierConfig struct {
	Provider string        `env:"CLASSIFIER_PROVIDER" envDefault:"huggingface"`
	URL      string        `env:"CLASSIFIER_URL" envDefault:"https://api-inference.huggingface.co/models/SamLowe/roberta-base-go_emotions"`
	APIKey   string        `env:"HUGGINGFACE_API_KEY"`
	Timeout  time.Duration `env:"CLASSIFIER_TIMEOUT" envDefault:"0s"`
}

const (
	CompletionOpenAI = "openai"
	CompletionArk    = "ark"
)

// CompletionConfig describes the conversational model.
type CompletionConfig struct {
	Provider    string        `env:"COMPLETION_PROVIDER" envDefault:"openai"`
	Model       string        `env:"COMPLETION_MODEL" envDefault:"gpt-3.5-turbo"`
	APIKey      string        `env:"OPENAI_API_KEY"`
	BaseURL     string        `env:"COMPLETION_BASE_URL"`
	Timeout     time.Duration `env:"COMPLETION_TIMEOUT" envDefault:"0s"`
	MaxTokens   int           `env:"COMPLETION_MAX_TOKENS"`
	Temperature float64       `env:"COMPLETION_TEMPERATURE" envDefault:"-1"`
	Ark         ArkConfig
}

// ArkConfig holds Volcengine Ark credentials for COMPLETION_PROVIDER=ark.
type ArkConfig struct {
	APIKey    string `env:"ARK_API_KEY"`
	AccessKey string `env:"ARK_ACCESS_KEY"`
	SecretKey string `env:"ARK_SECRET_KEY"`
	Model     string `env:"ARK_MODEL"`
	BaseURL   string `env:"ARK_BASE_URL" envDefault:"https://ark.cn-beijing.volces.com/api/v3"`
	Region    string `env:"ARK_REGION" envDefault:"cn-beijing"`
}

// NewChatModel creates the chat model for the configured provider. Missing
// credentials are not rejected here; the upstream refuses the call instead.
func (c CompletionConfig) NewChatModel(ctx context.Context) (model.BaseChatModel, error) {
	var maxTokens *int
	if c.MaxTokens > 0 {
		val := c.MaxTokens
		maxTokens = &val
	}

	var temperature *float32
	if c.Temperature >= 0 {
		val := float32(c.Temperature)
		temperature = &val
	}

	switch c.Provider {
	case CompletionArk:
		modelName := c.Ark.Model
		if modelName == "" {
			modelName = c.Model
		}
		cfg := &ark.ChatModelConfig{
			BaseURL:     c.Ark.BaseURL,
			Region:      c.Ark.Region,
			APIKey:      c.Ark.APIKey,
			AccessKey:   c.Ark.AccessKey,
			SecretKey:   c.Ark.SecretKey,
			Model:       modelName,
			MaxTokens:   maxTokens,
			Temperature: temperature,
		}
		if c.Timeout > 0 {
			timeout := c.Timeout
			cfg.Timeout = &timeout
		}
		chatModel, err := ark.NewChatModel(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("create ark chat model: %w", err)
		}
		return chatModel, nil
	case CompletionOpenAI:
		chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:      c.APIKey,
			BaseURL:     c.BaseURL,
			Model:       c.Model,
			Timeout:     c.Timeout,
			MaxTokens:   maxTokens,
			Temperature: temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("create openai chat model: %w", err)
		}
		return chatModel, nil
	default:
		return nil, fmt.Errorf("unsupported completion provider %q", c.Provider)
	}
}

// SafetyConfig tunes the crisis short-circuit.
type SafetyConfig struct {
	Threshold float64  `env:"SAFETY_THRESHOLD" envDefault:"0.4"`
	Labels    []string `env:"SAFETY_LABELS" envSeparator:"," envDefault:"grief,sadness,fear,disappointment,remorse"`
	Message   string   `env:"SAFETY_MESSAGE"`
}

// Policy builds the safety policy from the configured table.
func (c SafetyConfig) Policy() emotion.SafetyPolicy {
	return emotion.NewSafetyPolicy(c.Labels, c.Threshold, c.Message)
}

const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// StoreConfig selects where the mood log slot lives.
type StoreConfig struct {
	Driver          string `env:"STORE_DRIVER" envDefault:"memory"`
	RedisURL        string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	DatabaseURL     string `env:"DATABASE_URL"`
	SummaryTimezone string `env:"SUMMARY_TIMEZONE" envDefault:"UTC"`
}

// Location resolves the time zone used to bucket mood entries by date.
func (c StoreConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.SummaryTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid SUMMARY_TIMEZONE value %q: %w", c.SummaryTimezone, err)
	}
	return loc, nil
}
