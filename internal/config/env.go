package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvTelegramToken  = "REPORTBOT_TELEGRAM_TOKEN"
	EnvTelegramChatID = "REPORTBOT_TELEGRAM_CHAT_ID"
)

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment. Missing files are ignored; variables that are already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// ApplyEnv fills empty secret fields from the environment. Values present in
// the config file are kept.
func ApplyEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		cfg.Telegram.Token = strings.TrimSpace(os.Getenv(EnvTelegramToken))
	}
	if strings.TrimSpace(cfg.Telegram.ChatID) == "" {
		cfg.Telegram.ChatID = strings.TrimSpace(os.Getenv(EnvTelegramChatID))
	}
}
