package config

import (
	"os"
	"strconv"
	"time"
)

// Config contains runtime configuration values.
type Config struct {
	Enabled           bool
	DiscordWebhookURL string
	WebhookTitle      string
	SteamAPIKey       string
	SteamAPIBaseURL   string
	RequestTimeout    time.Duration
	SendTimeout       time.Duration
	IntakeAddr        string
	IntakeToken       string
	StatsCron         string
	LogLevel          string
	LogFile           string
}

const (
	defaultWebhookURL   = ""
	defaultWebhookTitle = "Punishment Logger"
	defaultSteamAPIKey  = ""
	defaultSteamBaseURL = "https://api.steampowered.com"
	defaultTimeout      = 10 * time.Second
	defaultIntakeAddr   = "127.0.0.1:8089"
	defaultStatsCron    = "@every 1h"
	defaultLogLevel     = "info"
)

// Load builds a Config from environment variables with sane defaults.
// A missing webhook URL is not an error here; the app disables itself instead.
func Load() (*Config, error) {
	cfg := &Config{
		Enabled:           parseBoolDefault("BANLOGGER_ENABLED", true),
		DiscordWebhookURL: getenvDefault("DISCORD_WEBHOOK_URL", defaultWebhookURL),
		WebhookTitle:      getenvDefault("WEBHOOK_TITLE", defaultWebhookTitle),
		SteamAPIKey:       getenvDefault("STEAM_API_KEY", defaultSteamAPIKey),
		SteamAPIBaseURL:   getenvDefault("STEAM_API_BASE_URL", defaultSteamBaseURL),
		RequestTimeout:    parseDurationDefault("REQUEST_TIMEOUT", defaultTimeout),
		SendTimeout:       parseDurationDefault("SEND_TIMEOUT", defaultTimeout),
		IntakeAddr:        getenvDefault("INTAKE_ADDR", defaultIntakeAddr),
		IntakeToken:       os.Getenv("INTAKE_TOKEN"),
		StatsCron:         lookupDefault("STATS_CRON", defaultStatsCron),
		LogLevel:          getenvDefault("LOG_LEVEL", defaultLogLevel),
		LogFile:           os.Getenv("LOG_FILE"),
	}

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultTimeout
	}

	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultTimeout
	}

	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// lookupDefault is getenvDefault but honours an explicitly empty value.
func lookupDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func parseBoolDefault(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func parseDurationDefault(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
