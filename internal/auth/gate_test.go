package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
)

type fakeChecker struct {
	allow bool
	err   error
	calls int
}

func (f *fakeChecker) HasPermission(p Principal, flag int64) (bool, error) {
	f.calls++
	return f.allow, f.err
}

func TestBotOwnerOnly(t *testing.T) {
	cases := []struct {
		name    string
		owner   string
		caller  string
		allowed bool
	}{
		{"no owner configured", "", "42", false},
		{"owner matches", "42", "42", true},
		{"owner differs", "42", "7", false},
		{"empty caller", "42", "", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			g := NewGate(c.owner, nil)
			err := g.Authorize(Principal{UserID: c.caller, GuildID: "1"}, BotOwnerOnly())
			if c.allowed && err != nil {
				t.Fatalf("expected allow, got %v", err)
			}
			if !c.allowed && !errors.Is(err, ErrDenied) {
				t.Fatalf("expected ErrDenied, got %v", err)
			}
		})
	}
}

func TestBotOwnerDoesNotBypassGuildPermissions(t *testing.T) {
	checker := &fakeChecker{allow: false}
	g := NewGate("42", checker)
	err := g.Authorize(Principal{UserID: "42", GuildID: "1"}, RequirePermission(discordgo.PermissionBanMembers))
	if !errors.Is(err, ErrDenied) {
		t.Fatalf("expected ErrDenied, got %v", err)
	}
}

func TestPublicAlwaysAllowed(t *testing.T) {
	g := NewGate("", nil)
	if err := g.Authorize(Principal{}, Public()); err != nil {
		t.Fatal(err)
	}
}

func TestGuildOwnerIsImpliedAdministrator(t *testing.T) {
	checker := &fakeChecker{allow: false}
	g := NewGate("", checker)
	err := g.Authorize(Principal{UserID: "5", GuildID: "1", GuildOwner: true}, RequirePermission(discordgo.PermissionAdministrator))
	if err != nil {
		t.Fatalf("guild owner denied: %v", err)
	}
	if checker.calls != 0 {
		t.Errorf("checker consulted %d times for guild owner", checker.calls)
	}
}

func TestPermissionDelegatesToChecker(t *testing.T) {
	p := Principal{UserID: "5", GuildID: "1"}

	allow := &fakeChecker{allow: true}
	if err := NewGate("", allow).Authorize(p, RequirePermission(discordgo.PermissionKickMembers)); err != nil {
		t.Fatalf("expected allow, got %v", err)
	}

	deny := &fakeChecker{allow: false}
	err := NewGate("", deny).Authorize(p, RequirePermission(discordgo.PermissionKickMembers))
	if !errors.Is(err, ErrDenied) || !strings.Contains(err.Error(), "Kick Members") {
		t.Fatalf("unexpected error %v", err)
	}

	broken := &fakeChecker{err: errors.New("guild not cached")}
	if err := NewGate("", broken).Authorize(p, RequirePermission(discordgo.PermissionKickMembers)); !errors.Is(err, ErrDenied) {
		t.Fatalf("checker failure must deny, got %v", err)
	}
}

func TestPermissionOutsideGuildDenied(t *testing.T) {
	g := NewGate("", &fakeChecker{allow: true})
	err := g.Authorize(Principal{UserID: "5"}, RequirePermission(discordgo.PermissionManageMessages))
	if !errors.Is(err, ErrDenied) {
		t.Fatalf("expected ErrDenied, got %v", err)
	}
}

func TestInteractionPermissions(t *testing.T) {
	var c InteractionPermissions
	admin := Principal{Permissions: discordgo.PermissionAdministrator}
	if ok, _ := c.HasPermission(admin, discordgo.PermissionBanMembers); !ok {
		t.Error("administrator should hold every flag")
	}
	kicker := Principal{Permissions: discordgo.PermissionKickMembers}
	if ok, _ := c.HasPermission(kicker, discordgo.PermissionKickMembers); !ok {
		t.Error("kick flag not recognised")
	}
	if ok, _ := c.HasPermission(kicker, discordgo.PermissionBanMembers); ok {
		t.Error("kick flag should not grant ban")
	}
}

func TestTier(t *testing.T) {
	g := NewGate("42", nil)
	cases := []struct {
		p    Principal
		want Tier
	}{
		{Principal{UserID: "42"}, TierBotOwner},
		{Principal{UserID: "1", GuildID: "9", GuildOwner: true}, TierGuildOwner},
		{Principal{UserID: "1", GuildID: "9", Permissions: discordgo.PermissionManageMessages}, TierPermissionHolder},
		{Principal{UserID: "1", GuildID: "9", Permissions: discordgo.PermissionSendMessages}, TierPublic},
	}
	for _, c := range cases {
		if got := g.Tier(c.p); got != c.want {
			t.Errorf("Tier(%+v) = %s, want %s", c.p, got, c.want)
		}
	}
}
