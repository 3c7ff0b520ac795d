package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

type Config struct {
	Bot      BotConfig      `json:"bot"`
	Logging  LoggingConfig  `json:"logging"`
	Routing  RoutingConfig  `json:"routing"`
	Database DatabaseConfig `json:"database"`
	Network  NetworkConfig  `json:"network"`
	State    StateConfig    `json:"state"`
}

type BotConfig struct {
	ClientID string `json:"client_id"`
	// GuildID registers commands to a single guild instead of globally.
	GuildID string `json:"guild_id"`
	// Presence is shown on ready; DevelopmentPresence replaces it in development.
	Presence            string `json:"presence"`
	DevelopmentPresence string `json:"development_presence"`
}

type LoggingConfig struct {
	// Level overrides the level derived from ENVIRONMENT and DEBUG_MODE.
	Level        string `json:"level"`
	File         string `json:"file"`
	MaxSizeBytes int64  `json:"max_size_bytes"`
	MaxAgeHours  int    `json:"max_age_hours"`
	BufferSize   int    `json:"buffer_size"`
	Stdout       bool   `json:"stdout"`

	// RetentionDays prunes rotated log files; zero keeps them all.
	RetentionDays int `json:"retention_days"`
}

type RoutingConfig struct {
	// Backend is "file" or "sqlite".
	Backend string `json:"backend"`
	Path    string `json:"path"`
}

type DatabaseConfig struct {
	Path string `json:"path"`
}

type NetworkConfig struct {
	HTTPPoolSize int    `json:"http_pool_size"`
	APIBaseURL   string `json:"api_base_url"`
}

type StateConfig struct {
	// MaxMessageCount is the per-channel message cache used for edit/delete logging.
	MaxMessageCount int `json:"max_message_count"`
}

const (
	RoutingBackendFile   = "file"
	RoutingBackendSQLite = "sqlite"
)

// Load reads a JSON config file on top of the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides file values with environment variables.
func (c *Config) ApplyEnv(lookup LookupFunc) {
	if v, ok := lookup("CLIENT_ID"); ok && v != "" {
		c.Bot.ClientID = v
	}
	if v, ok := lookup("GUILD_ID"); ok && v != "" {
		c.Bot.GuildID = v
	}
	if v, ok := lookup("DATABASE_PATH"); ok && v != "" {
		c.Database.Path = v
	}
	if v, ok := lookup("LOG_CONFIG_PATH"); ok && v != "" {
		c.Routing.Path = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.Logging.Level = v
	}
}

// Path returns the config file location, honouring LOGBOT_CONFIG.
func Path() string {
	if p := os.Getenv("LOGBOT_CONFIG"); p != "" {
		return p
	}
	return "config.json"
}

func (c *Config) Validate() error {
	switch c.Routing.Backend {
	case RoutingBackendFile, RoutingBackendSQLite:
	default:
		return fmt.Errorf("unknown routing backend %q", c.Routing.Backend)
	}
	if c.Routing.Backend == RoutingBackendFile && c.Routing.Path == "" {
		return fmt.Errorf("routing.path is required for the file backend")
	}
	if c.Network.HTTPPoolSize <= 0 {
		c.Network.HTTPPoolSize = 1
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Bot: BotConfig{
			Presence:            "📋 Server Logging | /setlogchannel",
			DevelopmentPresence: "🔧 Development | Secure Mode",
		},
		Logging: LoggingConfig{
			File:          "logs/logbot.log",
			MaxSizeBytes:  10 * 1024 * 1024,
			MaxAgeHours:   24 * 7,
			RetentionDays: 30,
			BufferSize:    10000,
			Stdout:        true,
		},
		Routing: RoutingConfig{
			Backend: RoutingBackendFile,
			Path:    "log_config.json",
		},
		Database: DatabaseConfig{
			Path: "logbot.db",
		},
		Network: NetworkConfig{
			HTTPPoolSize: 2,
			APIBaseURL:   "https://discord.com/api/v10",
		},
		State: StateConfig{
			MaxMessageCount: 1000,
		},
	}
}
