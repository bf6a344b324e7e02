package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Theme is a named discussion theme with its detection keywords, configured
// as NAME:kw1|kw2 pairs.
type Theme struct {
	Name     string
	Keywords []string
}

// Config holds all configuration for the application.
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Collection configuration
	Subreddits         []string
	TopicKeywords      []string
	TwitterBearerToken string
	CollectionWindow   time.Duration

	// Rollup configuration
	LookbackWindow time.Duration
	TopItems       int
	MaxBatches     int
	Themes         []Theme

	// Classifier configuration
	Workers     int
	OpenAIKey   string
	OpenAIModel string

	// Schedule configuration (cron expressions with seconds)
	CollectCron string
	SummaryCron string

	// Storage configuration
	StorageAccount   string
	StorageContainer string
	DataDir          string
	DatabaseURL      string

	// Notification configuration
	DiscordWebhookURL string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
}

var defaultSubreddits = []string{
	"solana",
	"SolanaNews",
	"CryptoCurrency",
	"SatoshiStreetBets",
	"CryptoMarkets",
	"altcoin",
	"CryptoMoonShots",
	"memecoin",
	"dogecoin",
	"SolanaNFT",
}

var defaultKeywords = []string{"bonk", "$bonk", "bonkcoin"}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:  getEnv("PORT", "8080"),
		Debug: getBoolEnv("DEBUG", false),

		Subreddits:         getSliceEnv("SUBREDDITS", defaultSubreddits),
		TopicKeywords:      getSliceEnv("TOPIC_KEYWORDS", defaultKeywords),
		TwitterBearerToken: getEnv("TWITTER_BEARER_TOKEN", ""),
		CollectionWindow:   getDurationEnv("COLLECTION_WINDOW", time.Hour),

		LookbackWindow: getDurationEnv("LOOKBACK_WINDOW", 24*time.Hour),
		TopItems:       getIntEnv("TOP_ITEMS", 3),
		MaxBatches:     getIntEnv("MAX_BATCHES", 0),
		Themes:         getThemesEnv("THEMES"),

		Workers:     getIntEnv("CLASSIFIER_WORKERS", 0),
		OpenAIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIModel: getEnv("OPENAI_MODEL", ""),

		// Hourly collection, daily summary at midnight UTC.
		CollectCron: getEnv("COLLECT_CRON", "0 0 * * * *"),
		SummaryCron: getEnv("SUMMARY_CRON", "0 0 0 * * *"),

		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "summaries"),
		DataDir:          getEnv("DATA_DIR", "data"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),

		DiscordWebhookURL: getEnv("DISCORD_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("RECIPIENT_EMAILS", ""),
		SMTPHost:          getEnv("SMTP_SERVER", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.TopicKeywords) == 0 {
		return fmt.Errorf("TOPIC_KEYWORDS must not be empty")
	}

	if c.CollectionWindow <= 0 || c.LookbackWindow <= 0 {
		return fmt.Errorf("collection and lookback windows must be positive")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when RECIPIENT_EMAILS is set")
		}
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		var cleaned []string
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return defaultValue
}

// getThemesEnv parses "price:price|ath|$;market:exchange|listing" into theme
// definitions. An empty or unset value means the built-in theme table.
func getThemesEnv(key string) []Theme {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	var themes []Theme
	for _, entry := range strings.Split(value, ";") {
		name, keywords, found := strings.Cut(entry, ":")
		if !found {
			continue
		}
		name = strings.TrimSpace(name)
		var kws []string
		for _, kw := range strings.Split(keywords, "|") {
			if kw = strings.TrimSpace(kw); kw != "" {
				kws = append(kws, kw)
			}
		}
		if name != "" && len(kws) > 0 {
			themes = append(themes, Theme{Name: name, Keywords: kws})
		}
	}
	return themes
}
