package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURI   string `env:"DATABASE_URI"`
	TelegramToken string `env:"TELEGRAM_TOKEN"`
	SlackBotToken string `env:"SLACK_BOT_TOKEN"`

	AIAPIKey  string `env:"AI_API_KEY"`
	AIBaseURL string `env:"AI_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	AIModel   string `env:"AI_MODEL" envDefault:"openai/gpt-4o-mini"`

	CheckIntervalSeconds int `env:"REMINDER_CHECK_INTERVAL_SECONDS" envDefault:"30"`
	CleanupHour          int `env:"CONVERSATION_CLEANUP_HOUR" envDefault:"3"`

	ConversationRetentionDays   int `env:"CONVERSATION_RETENTION_DAYS" envDefault:"30"`
	ConversationHistoryMessages int `env:"CONVERSATION_HISTORY_MESSAGES" envDefault:"20"`
	ConversationTTLHours        int `env:"CONVERSATION_TTL_HOURS" envDefault:"24"`

	DefaultFamilyName string `env:"DEFAULT_FAMILY_NAME" envDefault:"My Family"`
	DefaultTimezone   string `env:"DEFAULT_TIMEZONE" envDefault:"UTC"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env file is optional in production
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("DATABASE_URI is required")
	}
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	return cfg, nil
}
