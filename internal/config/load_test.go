package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Routing.Backend != RoutingBackendFile || cfg.Routing.Path != "log_config.json" {
		t.Errorf("unexpected routing defaults: %+v", cfg.Routing)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"routing":{"backend":"sqlite"},"state":{"max_message_count":50}}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Routing.Backend != RoutingBackendSQLite {
		t.Errorf("backend = %q", cfg.Routing.Backend)
	}
	if cfg.State.MaxMessageCount != 50 {
		t.Errorf("max messages = %d", cfg.State.MaxMessageCount)
	}
	if cfg.Database.Path != "logbot.db" {
		t.Errorf("database default lost: %q", cfg.Database.Path)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"routing":{"backend":"redis"}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestApplyEnvOverridesFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApplyEnv(envOf(map[string]string{
		"DATABASE_PATH":   "/data/bot.db",
		"LOG_CONFIG_PATH": "/data/routes.json",
		"LOG_LEVEL":       "warn",
		"GUILD_ID":        "",
	}))
	if cfg.Database.Path != "/data/bot.db" || cfg.Routing.Path != "/data/routes.json" {
		t.Errorf("paths not overridden: %+v %+v", cfg.Database, cfg.Routing)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}
	if cfg.Bot.GuildID != "" {
		t.Errorf("empty override applied: %q", cfg.Bot.GuildID)
	}
}
