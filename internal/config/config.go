// Package config handles application configuration from environment variables
// and the chat settings documents (TOML defaults, YAML export).
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	TelegramBotToken string
	RelayChatID      int64
	DatabasePath     string
	LogLevel         string
	AllowedUsers     []int64

	RulesDir    string
	RulesURL    string
	RulesReload time.Duration

	MetricsAddr  string
	DefaultsPath string
}

const defaultReloadMinutes = 5

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	rawRelay := os.Getenv("RELAY_CHAT_ID")
	if rawRelay == "" {
		return nil, fmt.Errorf("RELAY_CHAT_ID is required")
	}
	relayID, err := strconv.ParseInt(strings.TrimSpace(rawRelay), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RELAY_CHAT_ID %q: %w", rawRelay, err)
	}

	allowedUsers, err := parseIDList(os.Getenv("ALLOWED_USERS"))
	if err != nil {
		return nil, fmt.Errorf("invalid ALLOWED_USERS: %w", err)
	}

	reload := defaultReloadMinutes
	if raw := os.Getenv("RULES_RELOAD_MINUTES"); raw != "" {
		reload, err = strconv.Atoi(raw)
		if err != nil || reload < 1 || reload > 1440 {
			return nil, fmt.Errorf("RULES_RELOAD_MINUTES must be between 1 and 1440, got %q", raw)
		}
	}

	return &Config{
		TelegramBotToken: token,
		RelayChatID:      relayID,
		DatabasePath:     envOrDefault("DATABASE_PATH", "./data/bot.db"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		AllowedUsers:     allowedUsers,
		RulesDir:         os.Getenv("RULES_DIR"),
		RulesURL:         os.Getenv("RULES_URL"),
		RulesReload:      time.Duration(reload) * time.Minute,
		MetricsAddr:      os.Getenv("METRICS_ADDR"),
		DefaultsPath:     os.Getenv("DEFAULTS_PATH"),
	}, nil
}

// IsUserAllowed checks whether a user ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(userID int64) bool {
	return len(c.AllowedUsers) == 0 || slices.Contains(c.AllowedUsers, userID)
}

func parseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user ID %q: %w", s, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
