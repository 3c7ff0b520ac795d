package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoggerWritesAboveLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bot.log")
	l, err := NewLogger(Options{Level: LevelInfo, Path: path, BufferSize: 16})
	if err != nil {
		t.Fatal(err)
	}
	l.Debug("hidden %d", 1)
	l.Info("route set for guild %s", "123")
	l.Error("delivery failed")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if strings.Contains(out, "hidden") {
		t.Error("debug line written at info level")
	}
	if !strings.Contains(out, "[INFO] route set for guild 123") {
		t.Errorf("missing info line in %q", out)
	}
	if !strings.Contains(out, "[ERROR] delivery failed") {
		t.Errorf("missing error line in %q", out)
	}
}

func TestAsyncWriterRejectsAfterClose(t *testing.T) {
	aw, err := NewAsyncWriter(filepath.Join(t.TempDir(), "a.log"), 4)
	if err != nil {
		t.Fatal(err)
	}
	if err := aw.Close(); err != nil {
		t.Fatal(err)
	}
	if aw.Write([]byte("late\n")) {
		t.Error("write accepted after close")
	}
	if err := aw.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}

func TestLogRotationBySize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bot.log")
	if err := os.WriteFile(path, []byte(strings.Repeat("x", 64)), 0644); err != nil {
		t.Fatal(err)
	}
	lr := NewLogRotation(32, 0)
	lr.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	if !lr.ShouldRotate(path) {
		t.Fatal("expected rotation for oversized file")
	}
	rotated, err := lr.Rotate(path)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(rotated) != "bot-20240102-030405.log" {
		t.Errorf("rotated name %q", rotated)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("original file still present")
	}
}

func TestLogRotationSkipsMissingFile(t *testing.T) {
	lr := NewLogRotation(1, time.Hour)
	if lr.ShouldRotate(filepath.Join(t.TempDir(), "none.log")) {
		t.Error("missing file should not rotate")
	}
}

func TestParseLevel(t *testing.T) {
	if lvl, ok := ParseLevel("warning"); !ok || lvl != LevelWarn {
		t.Errorf("ParseLevel(warning) = %v, %v", lvl, ok)
	}
	if _, ok := ParseLevel("verbose"); ok {
		t.Error("unknown level accepted")
	}
}

func TestRetentionRemovesOldRotatedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bot.log")
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	old := now.AddDate(0, 0, -40)

	files := map[string]time.Time{
		"bot.log":                 old,
		"bot-20240101-000000.log": old,
		"bot-20240228-000000.log": now,
		"other-20240101.log":      old,
	}
	for name, mod := range files {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := os.Chtimes(p, mod, mod); err != nil {
			t.Fatal(err)
		}
	}

	rm := NewRetentionManager(30)
	rm.now = func() time.Time { return now }
	removed, err := rm.Cleanup(path)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	for _, keep := range []string{"bot.log", "bot-20240228-000000.log", "other-20240101.log"} {
		if _, err := os.Stat(filepath.Join(dir, keep)); err != nil {
			t.Errorf("%s removed", keep)
		}
	}
}

func TestRetentionDisabled(t *testing.T) {
	if n, err := NewRetentionManager(0).Cleanup("/nonexistent/bot.log"); n != 0 || err != nil {
		t.Errorf("disabled retention = %d, %v", n, err)
	}
}
