package config

import (
	"fmt"
	"log"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

type Config struct {
	Port          int    `env:"PORT" envDefault:"3000"`
	AdminPassword string `env:"ADMIN_PASSWORD" envDefault:"change_this_password"`

	// Storage
	DataDir string `env:"DATA_DIR" envDefault:"data"`

	// Logging
	LogDir           string `env:"LOG_DIR" envDefault:"logs"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	LogRetentionDays int    `env:"LOG_RETENTION_DAYS" envDefault:"30"`
	LogSweepSchedule string `env:"LOG_SWEEP_SCHEDULE" envDefault:"@daily"`

	// LLM settings
	LLMProvider      LLMProvider `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string      `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string      `env:"OPENAI_BASE_URL"`
	OpenAIModel      string      `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	OpenAIMaxTokens  int         `env:"OPENAI_MAX_TOKENS" envDefault:"500"`
	YandexOAuthToken string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `env:"YANDEX_FOLDER_ID"`

	// OpenRouter (optional)
	OpenRouterReferrer string `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string `env:"OPENROUTER_TITLE"`

	// Prompts
	SystemPromptPath string `env:"SYSTEM_PROMPT_PATH"`
	HistoryLimit     int    `env:"HISTORY_LIMIT" envDefault:"10"`
}

// Load parses the environment into a Config and validates the values that
// would otherwise fail much later at runtime.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.LogRetentionDays < 1 {
		return nil, fmt.Errorf("LOG_RETENTION_DAYS must be positive, got %d", cfg.LogRetentionDays)
	}
	if cfg.HistoryLimit < 1 {
		return nil, fmt.Errorf("HISTORY_LIMIT must be positive, got %d", cfg.HistoryLimit)
	}
	switch cfg.LLMProvider {
	case ProviderOpenAI, ProviderYandex:
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER: %s", cfg.LLMProvider)
	}
	return cfg, nil
}

func New() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}
