// Package moderation runs the moderation commands against the platform.
package moderation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go-logbot/internal/audit"
	"go-logbot/internal/database"
	"go-logbot/internal/logging"
	"go-logbot/internal/models"
	"go-logbot/pkg/util"
)

var (
	ErrSelfTarget    = errors.New("cannot target yourself")
	ErrBotPermission = errors.New("bot lacks permission")
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("invalid input")
	ErrNoMutedRole   = errors.New("no Muted role")
)

const (
	MutedRoleName = "Muted"
	MinPurge      = 1
	MaxPurge      = 100

	maxListedGuilds = 10
)

// GuildRef identifies a guild by ID and display name.
type GuildRef struct {
	ID   string
	Name string
}

// Platform performs the actual API calls. Implementations wrap a 403 in
// ErrBotPermission and a 404 in ErrNotFound.
type Platform interface {
	Kick(guildID, userID, reason string) error
	Ban(guildID, userID, reason string) error
	Unban(guildID, userID string) error
	FindRole(guildID, name string) (string, bool)
	AddRole(guildID, userID, roleID, reason string) error
	RemoveRole(guildID, userID, roleID string) error
	Purge(channelID string, limit int) (int, error)
	DirectMessage(userID string, rec *audit.Record) error
	MutualGuilds(userID string) []GuildRef
}

// Recorder stores the moderation history. *database.Database satisfies it.
type Recorder interface {
	RecordAction(a *database.ModAction) error
}

type Service struct {
	platform Platform
	history  Recorder
	now      func() time.Time

	// dmDone observes the outcome of warning DMs.
	dmDone func(userID string, err error)
}

func NewService(platform Platform, history Recorder) *Service {
	return &Service{
		platform: platform,
		history:  history,
		now:      time.Now,
	}
}

func (s *Service) Kick(a *models.Action) (*audit.Record, error) {
	if err := s.guardMember(a); err != nil {
		return nil, err
	}
	if err := s.platform.Kick(a.GuildID, a.TargetID, a.AuditReason()); err != nil {
		return nil, fmt.Errorf("failed to kick %s: %w", a.TargetID, err)
	}
	s.record(a)

	rec := audit.NewActionRecord(a.GuildID, "👢 Member Kicked",
		fmt.Sprintf("%s has been kicked.\n**Reason:** %s", mention(a.TargetID), a.AuditReason()),
		audit.ColorWarning, s.now())
	return rec.With("Moderator", mention(a.ModeratorID), true), nil
}

func (s *Service) Ban(a *models.Action) (*audit.Record, error) {
	if err := s.guardMember(a); err != nil {
		return nil, err
	}
	if err := s.platform.Ban(a.GuildID, a.TargetID, a.AuditReason()); err != nil {
		return nil, fmt.Errorf("failed to ban %s: %w", a.TargetID, err)
	}
	s.record(a)

	rec := audit.NewActionRecord(a.GuildID, "🔨 Member Banned",
		fmt.Sprintf("%s has been banned.\n**Reason:** %s", mention(a.TargetID), a.AuditReason()),
		audit.ColorCritical, s.now())
	return rec.With("Moderator", mention(a.ModeratorID), true), nil
}

// Unban accepts the raw user ID as typed by the moderator.
func (s *Service) Unban(a *models.Action) (*audit.Record, error) {
	a.TargetID = strings.TrimSpace(a.TargetID)
	if !util.IsSnowflake(a.TargetID) {
		return nil, fmt.Errorf("%w: invalid user ID", ErrValidation)
	}
	if err := s.platform.Unban(a.GuildID, a.TargetID); err != nil {
		return nil, fmt.Errorf("failed to unban %s: %w", a.TargetID, err)
	}
	s.record(a)

	return audit.NewActionRecord(a.GuildID, "✅ Member Unbanned",
		fmt.Sprintf("%s has been unbanned.", mention(a.TargetID)),
		audit.ColorCreated, s.now()), nil
}

func (s *Service) Mute(a *models.Action) (*audit.Record, error) {
	if err := s.guardTarget(a); err != nil {
		return nil, err
	}
	roleID, ok := s.platform.FindRole(a.GuildID, MutedRoleName)
	if !ok {
		return nil, ErrNoMutedRole
	}
	if err := s.platform.AddRole(a.GuildID, a.TargetID, roleID, a.AuditReason()); err != nil {
		return nil, fmt.Errorf("failed to mute %s: %w", a.TargetID, err)
	}
	s.record(a)

	rec := audit.NewActionRecord(a.GuildID, "🔇 Member Muted",
		fmt.Sprintf("%s has been muted.\n**Reason:** %s", mention(a.TargetID), a.AuditReason()),
		audit.ColorWarning, s.now())
	return rec.With("Moderator", mention(a.ModeratorID), true), nil
}

func (s *Service) Unmute(a *models.Action) (*audit.Record, error) {
	if err := s.guardTarget(a); err != nil {
		return nil, err
	}
	roleID, ok := s.platform.FindRole(a.GuildID, MutedRoleName)
	if !ok {
		return nil, ErrNoMutedRole
	}
	if err := s.platform.RemoveRole(a.GuildID, a.TargetID, roleID); err != nil {
		return nil, fmt.Errorf("failed to unmute %s: %w", a.TargetID, err)
	}
	s.record(a)

	return audit.NewActionRecord(a.GuildID, "🔊 Member Unmuted",
		fmt.Sprintf("%s has been unmuted.", mention(a.TargetID)),
		audit.ColorCreated, s.now()), nil
}

// Purge deletes the most recent a.Amount messages in a.ChannelID.
func (s *Service) Purge(a *models.Action) (*audit.Record, error) {
	if a.Amount < MinPurge || a.Amount > MaxPurge {
		return nil, fmt.Errorf("%w: please specify a number between %d and %d", ErrValidation, MinPurge, MaxPurge)
	}
	if a.ChannelID == "" {
		return nil, fmt.Errorf("%w: no channel", ErrValidation)
	}
	deleted, err := s.platform.Purge(a.ChannelID, a.Amount)
	if err != nil {
		return nil, fmt.Errorf("failed to purge %s: %w", a.ChannelID, err)
	}
	a.TargetID = a.ChannelID
	a.Reason = fmt.Sprintf("%d messages", deleted)
	s.record(a)

	return audit.NewActionRecord(a.GuildID, "🧹 Messages Purged",
		fmt.Sprintf("Successfully deleted %d messages", deleted),
		audit.ColorCreated, s.now()), nil
}

// Warn records the warning and notifies the member by DM. The DM is sent in
// the background and its failure never affects the result.
func (s *Service) Warn(a *models.Action, guildName string) (*audit.Record, error) {
	if err := s.guardTarget(a); err != nil {
		return nil, err
	}
	s.record(a)

	dm := audit.NewActionRecord(a.GuildID, "⚠️ You have been warned",
		fmt.Sprintf("**Server:** %s\n**Reason:** %s\n**Moderator:** %s", guildName, a.AuditReason(), mention(a.ModeratorID)),
		audit.ColorCaution, s.now())
	go s.sendWarning(a.TargetID, dm)

	rec := audit.NewActionRecord(a.GuildID, "⚠️ Warning Issued",
		fmt.Sprintf("%s has been warned.\n**Reason:** %s", mention(a.TargetID), a.AuditReason()),
		audit.ColorCaution, s.now())
	return rec.With("Moderator", mention(a.ModeratorID), true), nil
}

func (s *Service) sendWarning(userID string, dm *audit.Record) {
	err := s.platform.DirectMessage(userID, dm)
	if err != nil {
		logging.Debug("Warning DM to %s not delivered: %v", userID, err)
	}
	if s.dmDone != nil {
		s.dmDone(userID, err)
	}
}

// GlobalBan bans the user from every guild the bot shares with them.
// Individual failures are logged and skipped.
func (s *Service) GlobalBan(a *models.Action) (*audit.Record, error) {
	a.TargetID = strings.TrimSpace(a.TargetID)
	if !util.IsSnowflake(a.TargetID) {
		return nil, fmt.Errorf("%w: invalid user ID", ErrValidation)
	}
	if a.Reason == "" {
		a.Reason = "Global ban by owner"
	}

	var bannedFrom []string
	for _, g := range s.platform.MutualGuilds(a.TargetID) {
		if err := s.platform.Ban(g.ID, a.TargetID, "Global ban: "+a.Reason); err != nil {
			logging.Warn("Global ban of %s skipped guild %s: %v", a.TargetID, g.ID, err)
			continue
		}
		bannedFrom = append(bannedFrom, g.Name)

		per := *a
		per.GuildID = g.ID
		s.record(&per)
	}

	rec := audit.NewActionRecord(a.GuildID, "🔨 Global Ban",
		fmt.Sprintf("**User:** %s\n**Reason:** %s\n**Banned from %d servers**", mention(a.TargetID), a.Reason, len(bannedFrom)),
		audit.ColorCritical, s.now())
	if len(bannedFrom) > 0 {
		listed := bannedFrom
		if len(listed) > maxListedGuilds {
			listed = listed[:maxListedGuilds]
		}
		rec.With("🏠 Servers", strings.Join(listed, "\n"), false)
	}
	return rec, nil
}

func (s *Service) guardTarget(a *models.Action) error {
	if !util.IsSnowflake(a.TargetID) {
		return fmt.Errorf("%w: invalid member", ErrValidation)
	}
	if a.GuildID == "" {
		return fmt.Errorf("%w: this command can only be used in a server", ErrValidation)
	}
	return nil
}

// guardMember additionally rejects self-targeting.
func (s *Service) guardMember(a *models.Action) error {
	if err := s.guardTarget(a); err != nil {
		return err
	}
	if a.TargetID == a.ModeratorID {
		return ErrSelfTarget
	}
	return nil
}

func (s *Service) record(a *models.Action) {
	logging.Info("Moderation: %s by %s on %s in guild %s", a.Type, a.ModeratorID, a.TargetID, a.GuildID)
	if s.history == nil {
		return
	}
	entry := &database.ModAction{
		GuildID:     a.GuildID,
		Action:      a.Type.String(),
		ModeratorID: a.ModeratorID,
		TargetID:    a.TargetID,
		Reason:      a.AuditReason(),
		CreatedAt:   s.now().Unix(),
	}
	if err := s.history.RecordAction(entry); err != nil {
		logging.Error("Failed to record %s action: %v", a.Type, err)
	}
}

func mention(userID string) string {
	return "<@" + userID + ">"
}
