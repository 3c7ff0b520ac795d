// Package auth decides whether a caller may run a command.
package auth

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// ErrDenied is returned for every refused request.
var ErrDenied = errors.New("access denied")

type Tier uint8

const (
	TierPublic Tier = iota
	TierPermissionHolder
	TierGuildOwner
	TierBotOwner
)

func (t Tier) String() string {
	switch t {
	case TierPublic:
		return "public"
	case TierPermissionHolder:
		return "permission holder"
	case TierGuildOwner:
		return "guild owner"
	case TierBotOwner:
		return "bot owner"
	default:
		return "unknown"
	}
}

// Requirement is declared once per command at registration.
type Requirement struct {
	tier       Tier
	permission int64
}

func Public() Requirement { return Requirement{tier: TierPublic} }

func BotOwnerOnly() Requirement { return Requirement{tier: TierBotOwner} }

func RequirePermission(flag int64) Requirement {
	return Requirement{tier: TierPermissionHolder, permission: flag}
}

func (r Requirement) Tier() Tier { return r.tier }

// Permission is the flag required, zero unless the tier is TierPermissionHolder.
func (r Requirement) Permission() int64 { return r.permission }

func (r Requirement) String() string {
	if r.tier == TierPermissionHolder {
		return "permission: " + PermissionName(r.permission)
	}
	return r.tier.String()
}

// Principal is the caller as seen by the gate.
type Principal struct {
	UserID    string
	GuildID   string
	ChannelID string
	// Permissions is the resolved bitset delivered with the interaction.
	Permissions int64
	GuildOwner  bool
}

// PermissionChecker asks the platform whether a principal holds a flag.
type PermissionChecker interface {
	HasPermission(p Principal, flag int64) (bool, error)
}

// InteractionPermissions trusts the bitset carried by the interaction.
type InteractionPermissions struct{}

func (InteractionPermissions) HasPermission(p Principal, flag int64) (bool, error) {
	if p.Permissions&discordgo.PermissionAdministrator != 0 {
		return true, nil
	}
	return p.Permissions&flag == flag, nil
}

type Gate struct {
	ownerID string
	checker PermissionChecker
}

// NewGate builds a gate. An empty ownerID disables every owner-only command.
func NewGate(ownerID string, checker PermissionChecker) *Gate {
	if checker == nil {
		checker = InteractionPermissions{}
	}
	return &Gate{ownerID: ownerID, checker: checker}
}

func (g *Gate) HasOwner() bool { return g.ownerID != "" }

func (g *Gate) IsBotOwner(userID string) bool {
	return g.ownerID != "" && userID == g.ownerID
}

// Authorize returns nil when p satisfies req, or an error wrapping ErrDenied
// with a message suitable for the caller.
func (g *Gate) Authorize(p Principal, req Requirement) error {
	switch req.tier {
	case TierPublic:
		return nil

	case TierBotOwner:
		if !g.HasOwner() {
			return fmt.Errorf("%w: owner commands are disabled because no bot owner is configured", ErrDenied)
		}
		if p.UserID != g.ownerID {
			return fmt.Errorf("%w: this command is restricted to the bot owner", ErrDenied)
		}
		return nil

	case TierGuildOwner:
		if p.GuildID == "" || !p.GuildOwner {
			return fmt.Errorf("%w: this command is restricted to the server owner", ErrDenied)
		}
		return nil

	case TierPermissionHolder:
		if p.GuildID == "" {
			return fmt.Errorf("%w: this command can only be used in a server", ErrDenied)
		}
		if p.GuildOwner {
			return nil
		}
		ok, err := g.checker.HasPermission(p, req.permission)
		if err != nil {
			return fmt.Errorf("%w: could not verify your permissions", ErrDenied)
		}
		if !ok {
			return fmt.Errorf("%w: you need the %s permission to use this command", ErrDenied, PermissionName(req.permission))
		}
		return nil
	}

	return fmt.Errorf("%w: unknown requirement", ErrDenied)
}

// moderatorFlags are the flags any RequirePermission command asks for.
const moderatorFlags = discordgo.PermissionAdministrator |
	discordgo.PermissionKickMembers |
	discordgo.PermissionBanMembers |
	discordgo.PermissionManageRoles |
	discordgo.PermissionManageMessages

// Tier reports the highest tier p reaches. Permission holders are detected
// from the interaction bitset only.
func (g *Gate) Tier(p Principal) Tier {
	switch {
	case g.IsBotOwner(p.UserID):
		return TierBotOwner
	case p.GuildOwner:
		return TierGuildOwner
	case p.GuildID != "" && p.Permissions&moderatorFlags != 0:
		return TierPermissionHolder
	default:
		return TierPublic
	}
}

var permissionNames = map[int64]string{
	discordgo.PermissionAdministrator:  "Administrator",
	discordgo.PermissionKickMembers:    "Kick Members",
	discordgo.PermissionBanMembers:     "Ban Members",
	discordgo.PermissionManageRoles:    "Manage Roles",
	discordgo.PermissionManageMessages: "Manage Messages",
	discordgo.PermissionManageChannels: "Manage Channels",
	discordgo.PermissionManageServer:   "Manage Server",
}

func PermissionName(flag int64) string {
	if name, ok := permissionNames[flag]; ok {
		return name
	}
	return fmt.Sprintf("0x%x", flag)
}
