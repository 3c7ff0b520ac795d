package moderation

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go-logbot/internal/audit"
	"go-logbot/internal/database"
	"go-logbot/internal/models"
)

type fakePlatform struct {
	mu       sync.Mutex
	calls    []string
	err      error
	roles    map[string]string
	mutual   []GuildRef
	banErrs  map[string]error
	purged   int
	dmGate   chan struct{}
	dmErr    error
	dmTarget string
}

func (f *fakePlatform) log(format string, args ...interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakePlatform) Kick(guildID, userID, reason string) error {
	f.log("kick %s %s %s", guildID, userID, reason)
	return f.err
}

func (f *fakePlatform) Ban(guildID, userID, reason string) error {
	f.log("ban %s %s %s", guildID, userID, reason)
	if err, ok := f.banErrs[guildID]; ok {
		return err
	}
	return f.err
}

func (f *fakePlatform) Unban(guildID, userID string) error {
	f.log("unban %s %s", guildID, userID)
	return f.err
}

func (f *fakePlatform) FindRole(guildID, name string) (string, bool) {
	id, ok := f.roles[name]
	return id, ok
}

func (f *fakePlatform) AddRole(guildID, userID, roleID, reason string) error {
	f.log("addrole %s %s %s", guildID, userID, roleID)
	return f.err
}

func (f *fakePlatform) RemoveRole(guildID, userID, roleID string) error {
	f.log("removerole %s %s %s", guildID, userID, roleID)
	return f.err
}

func (f *fakePlatform) Purge(channelID string, limit int) (int, error) {
	f.log("purge %s %d", channelID, limit)
	if f.err != nil {
		return 0, f.err
	}
	if f.purged > 0 && f.purged < limit {
		return f.purged, nil
	}
	return limit, nil
}

func (f *fakePlatform) DirectMessage(userID string, rec *audit.Record) error {
	if f.dmGate != nil {
		<-f.dmGate
	}
	f.mu.Lock()
	f.dmTarget = userID
	f.mu.Unlock()
	return f.dmErr
}

func (f *fakePlatform) MutualGuilds(userID string) []GuildRef {
	return f.mutual
}

func (f *fakePlatform) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type memoryRecorder struct {
	mu      sync.Mutex
	actions []*database.ModAction
	err     error
}

func (m *memoryRecorder) RecordAction(a *database.ModAction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.actions = append(m.actions, a)
	return nil
}

func newService(p *fakePlatform, r Recorder) *Service {
	s := NewService(p, r)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	return s
}

func TestKickAndBanRejectSelfTarget(t *testing.T) {
	p := &fakePlatform{}
	s := newService(p, nil)

	if _, err := s.Kick(models.NewKickAction("1", "55", "55", "")); !errors.Is(err, ErrSelfTarget) {
		t.Fatalf("kick self: %v", err)
	}
	if _, err := s.Ban(models.NewBanAction("1", "55", "55", "")); !errors.Is(err, ErrSelfTarget) {
		t.Fatalf("ban self: %v", err)
	}
	if calls := p.callLog(); len(calls) != 0 {
		t.Fatalf("platform called: %v", calls)
	}
}

func TestKickSuccess(t *testing.T) {
	p := &fakePlatform{}
	r := &memoryRecorder{}
	s := newService(p, r)

	rec, err := s.Kick(models.NewKickAction("1", "55", "66", "spam"))
	if err != nil {
		t.Fatal(err)
	}
	if rec.Kind != audit.KindModerationAction || rec.Title != "👢 Member Kicked" {
		t.Fatalf("record = %+v", rec)
	}
	if v, ok := rec.Field("Moderator"); !ok || v != "<@55>" {
		t.Errorf("moderator field = %q", v)
	}
	if !strings.Contains(rec.Description, "spam") {
		t.Errorf("description = %q", rec.Description)
	}
	if calls := p.callLog(); len(calls) != 1 || calls[0] != "kick 1 66 spam" {
		t.Errorf("calls = %v", calls)
	}
	if len(r.actions) != 1 || r.actions[0].Action != "kick" || r.actions[0].TargetID != "66" {
		t.Errorf("history = %+v", r.actions)
	}
}

func TestBanDefaultsReason(t *testing.T) {
	p := &fakePlatform{}
	s := newService(p, nil)
	if _, err := s.Ban(models.NewBanAction("1", "55", "66", "")); err != nil {
		t.Fatal(err)
	}
	if calls := p.callLog(); calls[0] != "ban 1 66 No reason provided" {
		t.Errorf("calls = %v", calls)
	}
}

func TestBotPermissionDistinctFromDenied(t *testing.T) {
	p := &fakePlatform{err: fmt.Errorf("HTTP 403: %w", ErrBotPermission)}
	r := &memoryRecorder{}
	s := newService(p, r)

	_, err := s.Ban(models.NewBanAction("1", "55", "66", "x"))
	if !errors.Is(err, ErrBotPermission) {
		t.Fatalf("expected ErrBotPermission, got %v", err)
	}
	if len(r.actions) != 0 {
		t.Error("failed action was recorded")
	}
}

func TestUnban(t *testing.T) {
	s := newService(&fakePlatform{}, nil)
	if _, err := s.Unban(models.NewAction(models.ActionUnban, "1", "55", "abc", "")); !errors.Is(err, ErrValidation) {
		t.Fatalf("invalid id: %v", err)
	}

	s = newService(&fakePlatform{err: fmt.Errorf("unknown ban: %w", ErrNotFound)}, nil)
	if _, err := s.Unban(models.NewAction(models.ActionUnban, "1", "55", " 66 ", "")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown ban: %v", err)
	}

	p := &fakePlatform{}
	s = newService(p, nil)
	rec, err := s.Unban(models.NewAction(models.ActionUnban, "1", "55", "66", ""))
	if err != nil {
		t.Fatal(err)
	}
	if rec.Color != audit.ColorCreated || p.callLog()[0] != "unban 1 66" {
		t.Errorf("rec=%+v calls=%v", rec, p.callLog())
	}
}

func TestPurgeRange(t *testing.T) {
	cases := []struct {
		amount int
		ok     bool
	}{
		{0, false},
		{1, true},
		{50, true},
		{100, true},
		{101, false},
		{-3, false},
	}
	for _, c := range cases {
		p := &fakePlatform{}
		s := newService(p, nil)
		a := models.NewAction(models.ActionPurge, "1", "55", "", "")
		a.ChannelID = "77"
		a.Amount = c.amount

		_, err := s.Purge(a)
		if c.ok && err != nil {
			t.Errorf("amount %d: %v", c.amount, err)
		}
		if !c.ok {
			if !errors.Is(err, ErrValidation) {
				t.Errorf("amount %d: expected ErrValidation, got %v", c.amount, err)
			}
			if len(p.callLog()) != 0 {
				t.Errorf("amount %d reached the platform", c.amount)
			}
		}
	}
}

func TestPurgeReportsActualCount(t *testing.T) {
	p := &fakePlatform{purged: 7}
	s := newService(p, nil)
	a := models.NewAction(models.ActionPurge, "1", "55", "", "")
	a.ChannelID = "77"
	a.Amount = 20

	rec, err := s.Purge(a)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Description != "Successfully deleted 7 messages" {
		t.Errorf("description = %q", rec.Description)
	}
}

func TestMuteRequiresMutedRole(t *testing.T) {
	s := newService(&fakePlatform{roles: map[string]string{}}, nil)
	if _, err := s.Mute(models.NewAction(models.ActionMute, "1", "55", "66", "")); !errors.Is(err, ErrNoMutedRole) {
		t.Fatalf("expected ErrNoMutedRole, got %v", err)
	}

	p := &fakePlatform{roles: map[string]string{MutedRoleName: "900"}}
	s = newService(p, nil)
	if _, err := s.Mute(models.NewAction(models.ActionMute, "1", "55", "66", "")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Unmute(models.NewAction(models.ActionUnmute, "1", "55", "66", "")); err != nil {
		t.Fatal(err)
	}
	calls := p.callLog()
	if len(calls) != 2 || calls[0] != "addrole 1 66 900" || calls[1] != "removerole 1 66 900" {
		t.Errorf("calls = %v", calls)
	}
}

func TestWarnDoesNotWaitForDM(t *testing.T) {
	gate := make(chan struct{})
	p := &fakePlatform{dmGate: gate, dmErr: errors.New("cannot send messages to this user")}
	s := newService(p, nil)
	done := make(chan error, 1)
	s.dmDone = func(userID string, err error) { done <- err }

	rec, err := s.Warn(models.NewAction(models.ActionWarn, "1", "55", "66", "rude"), "Guild")
	if err != nil {
		t.Fatalf("warn failed while DM pending: %v", err)
	}
	if rec.Title != "⚠️ Warning Issued" {
		t.Errorf("title = %q", rec.Title)
	}

	close(gate)
	select {
	case dmErr := <-done:
		if dmErr == nil {
			t.Error("expected DM failure to be observed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("DM never attempted")
	}
}

func TestHistoryFailureDoesNotFailAction(t *testing.T) {
	s := newService(&fakePlatform{}, &memoryRecorder{err: errors.New("database is locked")})
	if _, err := s.Kick(models.NewKickAction("1", "55", "66", "")); err != nil {
		t.Fatalf("history failure leaked: %v", err)
	}
}

func TestGlobalBan(t *testing.T) {
	p := &fakePlatform{
		mutual: []GuildRef{
			{ID: "1", Name: "One"},
			{ID: "2", Name: "Two"},
			{ID: "3", Name: "Three"},
		},
		banErrs: map[string]error{"2": ErrBotPermission},
	}
	r := &memoryRecorder{}
	s := newService(p, r)

	rec, err := s.GlobalBan(models.NewAction(models.ActionGlobalBan, "1", "42", "66", ""))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(rec.Description, "Banned from 2 servers") {
		t.Errorf("description = %q", rec.Description)
	}
	if v, _ := rec.Field("🏠 Servers"); v != "One\nThree" {
		t.Errorf("servers = %q", v)
	}
	if len(r.actions) != 2 || r.actions[1].GuildID != "3" {
		t.Errorf("history = %+v", r.actions)
	}
	if calls := p.callLog(); calls[0] != "ban 1 66 Global ban: Global ban by owner" {
		t.Errorf("calls = %v", calls)
	}

	if _, err := s.GlobalBan(models.NewAction(models.ActionGlobalBan, "1", "42", "nope", "")); !errors.Is(err, ErrValidation) {
		t.Errorf("invalid id: %v", err)
	}
}
