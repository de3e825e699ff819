package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the configuration settings.
type Config struct {
	Discord DiscordConfig `yaml:"discord"`
	Metrics MetricsConfig `yaml:"metrics"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Logging LoggingConfig `yaml:"logging"`
}

// DiscordConfig holds the Discord application credentials.
type DiscordConfig struct {
	Token string `yaml:"token"`
	AppID string `yaml:"app_id"`
	// GuildID scopes slash command registration to one guild when set;
	// empty registers globally.
	GuildID string `yaml:"guild_id"`
}

// MetricsConfig holds the metrics listener settings.
type MetricsConfig struct {
	Address string `yaml:"address"`
}

// FetchConfig bounds the channel-history table discovery scan.
type FetchConfig struct {
	MessageLimit int           `yaml:"message_limit"`
	MaxAge       time.Duration `yaml:"max_age"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// LoadConfig loads the configuration from a YAML file, then overrides
// secrets and addresses from the environment. A missing file is fine
// when the environment supplies everything.
func LoadConfig(filename string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(filename)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case os.IsNotExist(err):
		// Environment-only configuration.
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if v := os.Getenv("DISCORD_TOKEN"); v != "" {
		cfg.Discord.Token = v
	}
	if v := os.Getenv("DISCORD_APP_ID"); v != "" {
		cfg.Discord.AppID = v
	}
	if v := os.Getenv("DISCORD_GUILD_ID"); v != "" {
		cfg.Discord.GuildID = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Metrics.Address = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	cfg.applyDefaults()

	if cfg.Discord.Token == "" {
		return nil, fmt.Errorf("discord token is required (discord.token or DISCORD_TOKEN)")
	}
	if cfg.Discord.AppID == "" {
		return nil, fmt.Errorf("discord app id is required (discord.app_id or DISCORD_APP_ID)")
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Metrics.Address == "" {
		c.Metrics.Address = ":8080"
	}
	if c.Fetch.MessageLimit <= 0 {
		c.Fetch.MessageLimit = 50
	}
	if c.Fetch.MaxAge <= 0 {
		c.Fetch.MaxAge = 24 * time.Hour
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}
