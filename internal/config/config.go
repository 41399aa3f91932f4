package config

import (
	"fmt"
	"os"
)

const minSecretLength = 16

type Config struct {
	AppEnv        string
	Port          string
	DatabaseURL   string
	RedisURL      string
	SessionSecret string

	// BotSecret authorizes the external checker bot (bulk replace, check
	// recording, verification confirm).
	BotSecret string
	// AdminToken authorizes machine-to-machine admin calls (token usage
	// accounting, migration reset).
	AdminToken string

	DiscordClientID     string
	DiscordClientSecret string
	DiscordRedirectURI  string

	LogLevel  string
	LogFormat string
}

func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:              getEnv("APP_ENV", "development"),
		Port:                getEnv("PORT", "8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		RedisURL:            getEnv("REDIS_URL", "redis://localhost:6379"),
		SessionSecret:       getEnv("SESSION_SECRET", ""),
		BotSecret:           getEnv("BOT_SECRET", ""),
		AdminToken:          getEnv("ADMIN_TOKEN", ""),
		DiscordClientID:     getEnv("DISCORD_CLIENT_ID", ""),
		DiscordClientSecret: getEnv("DISCORD_CLIENT_SECRET", ""),
		DiscordRedirectURI:  getEnv("DISCORD_REDIRECT_URI", ""),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "text"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}
	if cfg.BotSecret == "" {
		return nil, fmt.Errorf("BOT_SECRET is required")
	}
	if cfg.AdminToken == "" {
		return nil, fmt.Errorf("ADMIN_TOKEN is required")
	}

	for name, value := range map[string]string{
		"SESSION_SECRET": cfg.SessionSecret,
		"BOT_SECRET":     cfg.BotSecret,
		"ADMIN_TOKEN":    cfg.AdminToken,
	} {
		if len(value) < minSecretLength {
			return nil, fmt.Errorf("%s must be at least %d characters", name, minSecretLength)
		}
	}

	// Discord OAuth: all three must be set together
	if cfg.DiscordClientID != "" || cfg.DiscordClientSecret != "" || cfg.DiscordRedirectURI != "" {
		if cfg.DiscordClientID == "" {
			return nil, fmt.Errorf("DISCORD_CLIENT_ID is required when Discord OAuth is configured")
		}
		if cfg.DiscordClientSecret == "" {
			return nil, fmt.Errorf("DISCORD_CLIENT_SECRET is required when Discord OAuth is configured")
		}
		if cfg.DiscordRedirectURI == "" {
			return nil, fmt.Errorf("DISCORD_REDIRECT_URI is required when Discord OAuth is configured")
		}
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
