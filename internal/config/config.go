package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/kdduha/snap2html/backend/internal/generation"
	"github.com/kdduha/snap2html/backend/internal/llm"
)

var (
	ErrUnknownProvider     = errors.New("MODEL_PROVIDER must be one of: gemini, openai")
	ErrMissingAPIKey       = errors.New("api key for the selected model provider is required")
	ErrInvalidMaxAttempts  = fmt.Errorf("GENERATION_MAX_ATTEMPTS must be between %d and %d", generation.MinMaxAttempts, generation.MaxMaxAttempts)
	ErrInvalidConcurrency  = errors.New("GENERATION_MAX_CONCURRENT_RUNS must be positive")
	ErrInvalidTemperature  = errors.New("MODEL_TEMPERATURE must be between 0 and 2")
	ErrInvalidOutputTokens = errors.New("MODEL_MAX_OUTPUT_TOKENS must not be negative")
	ErrUnknownHarmCategory = errors.New("unknown harm category")
)

type Config struct {
	Server      ServerConfig
	Model       ModelConfig
	Generation  GenerationConfig
	RedisConfig RedisConfig
	Log         LogConfig
	CacheEnable bool `env:"CACHE_ENABLE"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR" envDefault:"redis:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	TTL      time.Duration `env:"REDIS_TTL" envDefault:"24h"`
}

type ServerConfig struct {
	Port            string        `env:"SERVER_PORT" envDefault:"8080"`
	Timeout         time.Duration `env:"SERVER_TIMEOUT" envDefault:"10m"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	ThrottleLimit   int           `env:"SERVER_THROTTLE_LIMIT" envDefault:"50"`
	MaxBodyBytes    int64         `env:"SERVER_MAX_BODY_BYTES" envDefault:"31457280"`
}

type ModelConfig struct {
	Provider         string   `env:"MODEL_PROVIDER" envDefault:"gemini"`
	Name             string   `env:"MODEL_NAME" envDefault:"gemini-2.5-flash"`
	ImageName        string   `env:"MODEL_IMAGE_NAME" envDefault:"gemini-2.5-flash-image"`
	MaxOutputTokens  int      `env:"MODEL_MAX_OUTPUT_TOKENS" envDefault:"8192"`
	Temperature      float64  `env:"MODEL_TEMPERATURE" envDefault:"0.4"`
	SafetyThreshold  string   `env:"MODEL_SAFETY_THRESHOLD" envDefault:"BLOCK_ONLY_HIGH"`
	SafetyCategories []string `env:"MODEL_SAFETY_CATEGORIES" envSeparator:","`

	Gemini GeminiConfig
	OpenAI OpenAIConfig
}

type GeminiConfig struct {
	APIKey     string `env:"GEMINI_API_KEY"`
	BaseURL    string `env:"GEMINI_BASE_URL"`
	APIVersion string `env:"GEMINI_API_VERSION" envDefault:"v1beta"`
}

type OpenAIConfig struct {
	APIKey  string `env:"OPENAI_API_KEY"`
	BaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
}

type GenerationConfig struct {
	MaxAttempts       int   `env:"GENERATION_MAX_ATTEMPTS" envDefault:"5"`
	MaxConcurrentRuns int64 `env:"GENERATION_MAX_CONCURRENT_RUNS" envDefault:"8"`
}

type LogConfig struct {
	Level    string `env:"LOG_LEVEL" envDefault:"info"`
	Encoding string `env:"LOG_ENCODING" envDefault:"json"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Model.Provider {
	case llm.ProviderGemini:
		if c.Model.Gemini.APIKey == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY", ErrMissingAPIKey)
		}
	case llm.ProviderOpenAI:
		if c.Model.OpenAI.APIKey == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY", ErrMissingAPIKey)
		}
	default:
		return fmt.Errorf("%w, got %q", ErrUnknownProvider, c.Model.Provider)
	}

	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		return ErrInvalidTemperature
	}
	if c.Model.MaxOutputTokens < 0 {
		return ErrInvalidOutputTokens
	}
	if _, err := c.Model.Settings(); err != nil {
		return err
	}

	if c.Generation.MaxAttempts < generation.MinMaxAttempts || c.Generation.MaxAttempts > generation.MaxMaxAttempts {
		return ErrInvalidMaxAttempts
	}
	if c.Generation.MaxConcurrentRuns < 1 {
		return ErrInvalidConcurrency
	}
	return nil
}

// Settings builds the generation settings for the HTML model.
func (m ModelConfig) Settings() (llm.Settings, error) {
	threshold, err := llm.ParseSafetyThreshold(strings.ToUpper(strings.TrimSpace(m.SafetyThreshold)))
	if err != nil {
		return llm.Settings{}, fmt.Errorf("MODEL_SAFETY_THRESHOLD: %w", err)
	}

	var categories []llm.HarmCategory
	for _, c := range m.SafetyCategories {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if !strings.HasPrefix(c, "HARM_CATEGORY_") {
			c = "HARM_CATEGORY_" + c
		}
		category := llm.HarmCategory(c)
		if !slices.Contains(llm.AllHarmCategories, category) {
			return llm.Settings{}, fmt.Errorf("MODEL_SAFETY_CATEGORIES: %w: %s", ErrUnknownHarmCategory, c)
		}
		categories = append(categories, category)
	}

	return llm.Settings{
		Model:           m.Name,
		MaxOutputTokens: m.MaxOutputTokens,
		Temperature:     m.Temperature,
		Safety: llm.SafetyPolicy{
			Threshold:  threshold,
			Categories: categories,
		},
	}, nil
}

// ImageSettings is Settings with the image capable model swapped in.
func (m ModelConfig) ImageSettings() (llm.Settings, error) {
	s, err := m.Settings()
	if err != nil {
		return llm.Settings{}, err
	}
	if m.ImageName != "" {
		s.Model = m.ImageName
	}
	return s, nil
}
