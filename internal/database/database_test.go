package database

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestRouteTableRoundTrip(t *testing.T) {
	d := openTestDB(t)
	routes := d.Routes()

	got, err := routes.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("fresh table has %d routes", len(got))
	}

	if err := routes.Save(map[string]string{"1": "10", "2": "20"}); err != nil {
		t.Fatal(err)
	}
	if err := routes.Save(map[string]string{"2": "21"}); err != nil {
		t.Fatal(err)
	}

	got, err = routes.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got["2"] != "21" {
		t.Errorf("routes = %v", got)
	}
}

func TestRoutesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Routes().Save(map[string]string{"5": "6"}); err != nil {
		t.Fatal(err)
	}
	d.Close()

	d, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	got, err := d.Routes().Load()
	if err != nil {
		t.Fatal(err)
	}
	if got["5"] != "6" {
		t.Errorf("routes after reopen = %v", got)
	}
}

func TestRecordAction(t *testing.T) {
	d := openTestDB(t)

	a := &ModAction{GuildID: "1", Action: "warn", ModeratorID: "2", TargetID: "3", Reason: "spam"}
	if err := d.RecordAction(a); err != nil {
		t.Fatal(err)
	}
	if a.CaseID == "" || a.ID == 0 || a.CreatedAt == 0 {
		t.Errorf("action not filled in: %+v", a)
	}
	if err := d.RecordAction(&ModAction{GuildID: "9", Action: "kick", ModeratorID: "2", TargetID: "3"}); err != nil {
		t.Fatal(err)
	}

	n, err := d.CountActions("1")
	if err != nil || n != 1 {
		t.Errorf("CountActions(1) = %d, %v", n, err)
	}
	n, err = d.CountActions("")
	if err != nil || n != 2 {
		t.Errorf("CountActions(all) = %d, %v", n, err)
	}

	history, err := d.ActionsForTarget("1", "3", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || history[0].Reason != "spam" || history[0].CaseID != a.CaseID {
		t.Errorf("history = %+v", history)
	}
}
