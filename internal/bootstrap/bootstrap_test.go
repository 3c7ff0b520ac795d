package bootstrap

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go-logbot/internal/config"
	"go-logbot/internal/database"
	"go-logbot/internal/logging"
	"go-logbot/internal/routing"
)

func securityFor(t *testing.T, env map[string]string) *config.Security {
	t.Helper()
	sec, err := config.LoadSecurity(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	if err != nil {
		t.Fatal(err)
	}
	return sec
}

const testToken = "MTIzNDU2Nzg5MDEyMzQ1Njc4.GhIjKl.abcdefghijklmnopqrstuvwxyz0123456789"

func TestLogLevel(t *testing.T) {
	cases := []struct {
		name  string
		level string
		env   map[string]string
		want  logging.LogLevel
	}{
		{"explicit level wins", "warn", map[string]string{"ENVIRONMENT": "development"}, logging.LevelWarn},
		{"development is debug", "", map[string]string{"ENVIRONMENT": "development"}, logging.LevelDebug},
		{"production is info", "", map[string]string{"ENVIRONMENT": "production"}, logging.LevelInfo},
		{"unparseable level falls back", "loud", map[string]string{"ENVIRONMENT": "production"}, logging.LevelInfo},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			c.env["DISCORD_BOT_TOKEN"] = testToken
			b := New()
			b.Config = config.DefaultConfig()
			b.Config.Logging.Level = c.level
			b.Security = securityFor(t, c.env)
			if got := b.logLevel(); got != c.want {
				t.Errorf("level = %v, want %v", got, c.want)
			}
		})
	}
}

func TestPersisterFor(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	cfg := config.DefaultConfig()
	if _, ok := persisterFor(cfg, db).(*routing.FilePersister); !ok {
		t.Error("file backend did not produce a file persister")
	}

	cfg.Routing.Backend = config.RoutingBackendSQLite
	if _, ok := persisterFor(cfg, db).(*database.RouteTable); !ok {
		t.Error("sqlite backend did not produce a route table")
	}
}

func TestRequestStopFirstWins(t *testing.T) {
	b := New()
	b.RequestStop(1, "emergency")
	b.RequestStop(0, "shutdown")

	if code := b.Wait(); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
}

func TestStartRequiresInitialize(t *testing.T) {
	if err := New().Start(); err == nil {
		t.Fatal("Start succeeded before Initialize")
	}
}

func TestWireRefusesUnreadableRoutes(t *testing.T) {
	dir := t.TempDir()
	routes := filepath.Join(dir, "log_config.json")
	corrupt := []byte(`{"111111111111111111": 211111111111111111,}`)
	if err := os.WriteFile(routes, corrupt, 0644); err != nil {
		t.Fatal(err)
	}

	b := New()
	b.Config = config.DefaultConfig()
	b.Config.Database.Path = filepath.Join(dir, "test.db")
	b.Config.Routing.Path = routes
	b.Security = securityFor(t, map[string]string{"DISCORD_BOT_TOKEN": testToken})

	err := Wire(b)
	var perr *routing.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("Wire = %v, want PersistenceError", err)
	}
	if b.Components != nil {
		t.Fatal("components wired over an unreadable routing table")
	}
	if data, _ := os.ReadFile(routes); string(data) != string(corrupt) {
		t.Fatalf("routing file changed: %s", data)
	}
}
