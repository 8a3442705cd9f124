// Package Config loads service configuration from .env and the environment.
package Config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port   string
	DB     DBConfig
	Auth   AuthConfig
	Drafts DraftConfig
	Slack  SlackConfig
	Orphan OrphanConfig

	SeedData       bool
	LogLevel       string
	RequestLogFile string
}

type DBConfig struct {
	// Driver is one of sqlite, mysql, postgres.
	Driver string
	DSN    string
}

type AuthConfig struct {
	JWTSecret    string
	TokenTTL     time.Duration
	CookieSecure bool
}

type DraftConfig struct {
	// RedisURL selects the Redis draft store; empty keeps drafts in memory.
	RedisURL string
	TTL      time.Duration
}

type SlackConfig struct {
	BotToken  string
	ChannelID string
}

type OrphanConfig struct {
	Schedule   string
	MinAge     time.Duration
	AutoRepair bool
}

// Load reads .env (if present) and then the process environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	cfg := &Config{
		Port: getEnv("PORT", "3001"),
		DB: DBConfig{
			Driver: strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			DSN:    getEnv("DB_DSN", "database.db"),
		},
		Auth: AuthConfig{
			JWTSecret:    getEnv("JWT_SECRET", ""),
			TokenTTL:     getEnvDuration("TOKEN_TTL", 12*time.Hour),
			CookieSecure: getEnvBool("COOKIE_SECURE", false),
		},
		Drafts: DraftConfig{
			RedisURL: getEnv("REDIS_URL", ""),
			TTL:      getEnvDuration("DRAFT_TTL", 24*time.Hour),
		},
		Slack: SlackConfig{
			BotToken:  getEnv("SLACK_BOT_TOKEN", ""),
			ChannelID: getEnv("SLACK_CHANNEL_ID", ""),
		},
		Orphan: OrphanConfig{
			// At minute 0 of every hour.
			Schedule:   getEnv("ORPHAN_SCHEDULE", "0 0 * * * *"),
			MinAge:     getEnvDuration("ORPHAN_AGE", time.Hour),
			AutoRepair: getEnvBool("ORPHAN_AUTO_REPAIR", false),
		},
		SeedData:       getEnvBool("SEED_DATA", true),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		RequestLogFile: getEnv("REQUEST_LOG_FILE", "logs/requests.log"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required fields are set and enumerations are known.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	switch c.DB.Driver {
	case "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER %q is not one of sqlite, mysql, postgres", c.DB.Driver)
	}
	if c.DB.DSN == "" {
		return fmt.Errorf("DB_DSN cannot be empty")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be > 0")
	}
	if c.Drafts.TTL <= 0 {
		return fmt.Errorf("DRAFT_TTL must be > 0")
	}
	if c.Orphan.MinAge <= 0 {
		return fmt.Errorf("ORPHAN_AGE must be > 0")
	}
	if (c.Slack.BotToken == "") != (c.Slack.ChannelID == "") {
		return fmt.Errorf("SLACK_BOT_TOKEN and SLACK_CHANNEL_ID must be set together")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", c.LogLevel)
	}
	return nil
}

// SlackEnabled reports whether non-conformity alerts should be posted.
func (c *Config) SlackEnabled() bool {
	return c.Slack.BotToken != "" && c.Slack.ChannelID != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	// Bare integers are seconds.
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
