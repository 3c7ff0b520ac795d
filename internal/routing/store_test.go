package routing

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

type countingPersister struct {
	mu     sync.Mutex
	saved  map[string]string
	saves  int
	failOn error
}

func (c *countingPersister) Load() (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.saved))
	for k, v := range c.saved {
		out[k] = v
	}
	return out, nil
}

func (c *countingPersister) Save(routes map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failOn != nil {
		return c.failOn
	}
	c.saves++
	c.saved = routes
	return nil
}

func newFileStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "log_config.json")
	s := NewStore(NewFilePersister(path))
	if err := s.Load(); err != nil {
		t.Fatalf("load on first run: %v", err)
	}
	return s, path
}

func TestSetThenGet(t *testing.T) {
	s, _ := newFileStore(t)
	if err := s.Set("111", "222"); err != nil {
		t.Fatal(err)
	}
	got, ok := s.Get("111")
	if !ok || got != "222" {
		t.Fatalf("Get = %q, %v", got, ok)
	}
	if err := s.Set("111", "333"); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Get("111"); got != "333" {
		t.Errorf("overwrite not applied, got %q", got)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d", s.Len())
	}
}

func TestClearMissingDoesNotPersist(t *testing.T) {
	p := &countingPersister{}
	s := NewStore(p)
	removed, err := s.Clear("999")
	if err != nil {
		t.Fatal(err)
	}
	if removed {
		t.Error("Clear reported removal of missing entry")
	}
	if p.saves != 0 {
		t.Errorf("persisted %d times for a no-op clear", p.saves)
	}
}

func TestClearMissingLeavesFileUntouched(t *testing.T) {
	s, path := newFileStore(t)
	if err := s.Set("1", "2"); err != nil {
		t.Fatal(err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if removed, err := s.Clear("5"); err != nil || removed {
		t.Fatalf("Clear = %v, %v", removed, err)
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Errorf("file changed:\n%s\n---\n%s", before, after)
	}
}

func TestClearExisting(t *testing.T) {
	s, path := newFileStore(t)
	if err := s.Set("1", "2"); err != nil {
		t.Fatal(err)
	}
	removed, err := s.Clear("1")
	if err != nil || !removed {
		t.Fatalf("Clear = %v, %v", removed, err)
	}
	if _, ok := s.Get("1"); ok {
		t.Error("route still present")
	}
	reloaded := NewStore(NewFilePersister(path))
	if err := reloaded.Load(); err != nil {
		t.Fatal(err)
	}
	if reloaded.Len() != 0 {
		t.Errorf("reloaded Len = %d", reloaded.Len())
	}
}

func TestReloadAfterRestart(t *testing.T) {
	s, path := newFileStore(t)
	if err := s.Set("123456789012345678", "876543210987654321"); err != nil {
		t.Fatal(err)
	}

	restarted := NewStore(NewFilePersister(path))
	if err := restarted.Load(); err != nil {
		t.Fatal(err)
	}
	got, ok := restarted.Get("123456789012345678")
	if !ok || got != "876543210987654321" {
		t.Fatalf("after reload Get = %q, %v", got, ok)
	}
}

func TestPersistedFormatIsIndentedIntegers(t *testing.T) {
	s, path := newFileStore(t)
	if err := s.Set("10", "20"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n  \"10\": 20\n}\n"
	if string(data) != want {
		t.Errorf("file = %q, want %q", data, want)
	}
}

func TestLoadHandEditedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log_config.json")
	if err := os.WriteFile(path, []byte(`{"5": 6, "7": 8}`), 0644); err != nil {
		t.Fatal(err)
	}
	s := NewStore(NewFilePersister(path))
	if err := s.Load(); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Get("7"); got != "8" {
		t.Errorf("Get(7) = %q", got)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log_config.json")
	if err := os.WriteFile(path, []byte(`{not json`), 0644); err != nil {
		t.Fatal(err)
	}
	err := NewStore(NewFilePersister(path)).Load()
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
}

func TestMutationsRefusedAfterFailedLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log_config.json")
	edited := []byte(`{
  "111111111111111111": 211111111111111111,
  "122222222222222222": 222222222222222222,
  "133333333333333333": 233333333333333333,
}`)
	if err := os.WriteFile(path, edited, 0644); err != nil {
		t.Fatal(err)
	}

	s := NewStore(NewFilePersister(path))
	if err := s.Load(); err == nil {
		t.Fatal("trailing comma loaded without error")
	}

	var perr *PersistenceError
	if err := s.Set("144444444444444444", "244444444444444444"); !errors.As(err, &perr) || !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("Set after failed load = %v, want ErrNotLoaded", err)
	}
	if _, err := s.Clear("111111111111111111"); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("Clear after failed load = %v, want ErrNotLoaded", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(edited) {
		t.Fatalf("file rewritten after failed load:\n%s", data)
	}

	repaired := strings.Replace(string(edited), "233333333333333333,\n}", "233333333333333333\n}", 1)
	if err := os.WriteFile(path, []byte(repaired), 0644); err != nil {
		t.Fatal(err)
	}
	if err := s.Load(); err != nil {
		t.Fatalf("load after repair: %v", err)
	}
	if err := s.Set("144444444444444444", "244444444444444444"); err != nil {
		t.Fatalf("Set after repair: %v", err)
	}
	if s.Len() != 4 {
		t.Fatalf("Len = %d, want 4", s.Len())
	}
}

func TestPersistenceFailureKeepsLastKnownGood(t *testing.T) {
	p := &countingPersister{}
	s := NewStore(p)
	if err := s.Set("1", "2"); err != nil {
		t.Fatal(err)
	}

	p.failOn = errors.New("disk full")
	err := s.Set("1", "3")
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("cause lost: %v", err)
	}
	if got, _ := s.Get("1"); got != "2" {
		t.Errorf("in-memory state moved to %q", got)
	}

	if _, err := s.Clear("1"); err == nil {
		t.Fatal("expected clear to fail")
	}
	if _, ok := s.Get("1"); !ok {
		t.Error("entry removed despite failed persistence")
	}
}

func TestSetRejectsMalformedIDs(t *testing.T) {
	p := &countingPersister{}
	s := NewStore(p)
	for _, tc := range []struct{ guild, channel string }{
		{"", "1"},
		{"abc", "1"},
		{"1", ""},
		{"1", "-2"},
	} {
		var verr *ValidationError
		if err := s.Set(tc.guild, tc.channel); !errors.As(err, &verr) {
			t.Errorf("Set(%q, %q) = %v, want ValidationError", tc.guild, tc.channel, err)
		}
	}
	if p.saves != 0 {
		t.Errorf("invalid input was persisted")
	}
}

func TestSetTrimsPaddedIDs(t *testing.T) {
	s, path := newFileStore(t)
	if err := s.Set(" 111111111111111111 ", "222222222222222222\n"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ch, ok := s.Get("111111111111111111"); !ok || ch != "222222222222222222" {
		t.Fatalf("Get = %q, %v", ch, ok)
	}

	reloaded := NewStore(NewFilePersister(path))
	if err := reloaded.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if ch, _ := reloaded.Get("111111111111111111"); ch != "222222222222222222" {
		t.Fatalf("reloaded route = %q", ch)
	}

	if removed, err := s.Clear("111111111111111111 "); err != nil || !removed {
		t.Fatalf("Clear = %v, %v", removed, err)
	}
}

func TestConcurrentSetsAllPersisted(t *testing.T) {
	s, path := newFileStore(t)

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if err := s.Set(fmt.Sprint(n), fmt.Sprint(n*10)); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	reloaded := NewStore(NewFilePersister(path))
	if err := reloaded.Load(); err != nil {
		t.Fatal(err)
	}
	if reloaded.Len() != 20 {
		t.Fatalf("lost updates: %d of 20 routes persisted", reloaded.Len())
	}
	for i := 1; i <= 20; i++ {
		if got, _ := reloaded.Get(fmt.Sprint(i)); got != fmt.Sprint(i*10) {
			t.Errorf("guild %d -> %q", i, got)
		}
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	s, _ := newFileStore(t)
	if err := s.Set("1", "2"); err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	snap["1"] = "99"
	if got, _ := s.Get("1"); got != "2" {
		t.Errorf("snapshot aliased store state")
	}
}
