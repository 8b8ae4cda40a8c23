package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	TelegramToken string `env:"TELEGRAM_TOKEN,required"`
	PostgresDSN   string `env:"POSTGRES_DSN,required"`
	// AdminUserID may use /broadcast. Zero disables the command.
	AdminUserID int64 `env:"ADMIN_USER_ID"`
	// LogChannelID receives new-user/new-group notices. Zero disables them.
	LogChannelID int64  `env:"LOG_CHANNEL_ID"`
	Port         int    `env:"PORT" envDefault:"8000"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
