package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults applied when the corresponding variable is unset.
const (
	DefaultAutoDeleteTime = 600 // seconds
	DefaultSweepInterval  = 300 // seconds
	DefaultMaxFileSize    = 2000 * 1024 * 1024

	defaultStartMessage = "Hello {first_name}!\n\n" +
		"I can store private files in a specified channel and other users " +
		"can access them from a special link.\n\n" +
		"Send me any file to get started!"
)

// Config holds application configuration, read once at startup and
// immutable afterwards.
type Config struct {
	TelegramToken string
	OwnerID       int64
	ChannelID     int64 // storage channel for forwarded media

	Admins           []int64
	ForceSubChannels []int64

	AutoDeleteSeconds int
	SweepInterval     time.Duration
	ProtectContent    bool
	MaxFileSize       int64
	StartMessage      string

	ShortenerEnabled bool
	ShortenerSite    string
	ShortenerAPIKey  string
}

// Load loads configuration from environment variables. Missing required
// values are the only fatal startup condition.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken:     os.Getenv("TG_BOT_TOKEN"),
		OwnerID:           envInt64("OWNER_ID", 0),
		ChannelID:         envInt64("CHANNEL_ID", 0),
		Admins:            envIDList("ADMINS"),
		ForceSubChannels:  envIDList("FORCE_SUB_CHANNELS"),
		AutoDeleteSeconds: envInt("AUTO_DELETE_TIME", DefaultAutoDeleteTime),
		SweepInterval:     time.Duration(envInt("SWEEP_INTERVAL", DefaultSweepInterval)) * time.Second,
		ProtectContent:    envBool("PROTECT_CONTENT"),
		MaxFileSize:       envInt64("MAX_FILE_SIZE", DefaultMaxFileSize),
		StartMessage:      os.Getenv("START_MESSAGE"),
		ShortenerEnabled:  envBool("SHORTENER_ENABLED"),
		ShortenerSite:     os.Getenv("SHORTENER_SITE"),
		ShortenerAPIKey:   os.Getenv("SHORTENER_API_KEY"),
	}

	if cfg.StartMessage == "" {
		cfg.StartMessage = defaultStartMessage
	}
	if cfg.ShortenerSite == "" {
		cfg.ShortenerSite = "tinyurl.com"
	}

	var missing []string
	if cfg.TelegramToken == "" {
		missing = append(missing, "TG_BOT_TOKEN")
	}
	if cfg.OwnerID == 0 {
		missing = append(missing, "OWNER_ID")
	}
	if cfg.ChannelID == 0 {
		missing = append(missing, "CHANNEL_ID")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if cfg.AutoDeleteSeconds < 60 {
		return nil, fmt.Errorf("AUTO_DELETE_TIME must be at least 60 seconds, got %d", cfg.AutoDeleteSeconds)
	}

	return cfg, nil
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string) bool {
	return strings.EqualFold(os.Getenv(key), "true")
}

// envIDList parses a space-separated list of numeric ids.
func envIDList(key string) []int64 {
	var out []int64
	for _, field := range strings.Fields(os.Getenv(key)) {
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out
}
