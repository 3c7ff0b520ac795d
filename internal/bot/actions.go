package bot

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"go-logbot/internal/audit"
	"go-logbot/internal/auth"
	"go-logbot/internal/moderation"
	"go-logbot/internal/notifier"

	"github.com/bwmarrin/discordgo"
)

// classify maps Discord REST failures onto the moderation error kinds.
func classify(err error) error {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusForbidden:
			return fmt.Errorf("%w: %v", moderation.ErrBotPermission, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", moderation.ErrNotFound, err)
		}
	}
	return err
}

func (s *Session) Kick(guildID, userID, reason string) error {
	return classify(s.discord.GuildMemberDeleteWithReason(guildID, userID, reason, discordgo.WithAuditLogReason(reason)))
}

func (s *Session) Ban(guildID, userID, reason string) error {
	return classify(s.discord.GuildBanCreateWithReason(guildID, userID, reason, 0))
}

func (s *Session) Unban(guildID, userID string) error {
	return classify(s.discord.GuildBanDelete(guildID, userID))
}

// FindRole looks a role up by exact name.
func (s *Session) FindRole(guildID, name string) (string, bool) {
	roles := s.guildRoles(guildID)
	for _, r := range roles {
		if r.Name == name {
			return r.ID, true
		}
	}
	return "", false
}

func (s *Session) guildRoles(guildID string) []*discordgo.Role {
	if g, err := s.discord.State.Guild(guildID); err == nil {
		s.discord.State.RLock()
		defer s.discord.State.RUnlock()
		return append([]*discordgo.Role(nil), g.Roles...)
	}
	roles, err := s.discord.GuildRoles(guildID)
	if err != nil {
		return nil
	}
	return roles
}

func (s *Session) AddRole(guildID, userID, roleID, reason string) error {
	return classify(s.discord.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithAuditLogReason(reason)))
}

func (s *Session) RemoveRole(guildID, userID, roleID string) error {
	return classify(s.discord.GuildMemberRoleRemove(guildID, userID, roleID))
}

// Purge removes the latest limit messages. Discord refuses bulk deletes of
// messages older than two weeks, so those are deleted one by one.
func (s *Session) Purge(channelID string, limit int) (int, error) {
	msgs, err := s.discord.ChannelMessages(channelID, limit, "", "", "")
	if err != nil {
		return 0, classify(err)
	}

	cutoff := bulkDeleteCutoff()
	var recent []string
	var old []string
	for _, m := range msgs {
		if m.Timestamp.After(cutoff) {
			recent = append(recent, m.ID)
		} else {
			old = append(old, m.ID)
		}
	}

	deleted := 0
	switch len(recent) {
	case 0:
	case 1:
		old = append(old, recent...)
	default:
		if err := s.discord.ChannelMessagesBulkDelete(channelID, recent); err != nil {
			return 0, classify(err)
		}
		deleted += len(recent)
	}
	for _, id := range old {
		if err := s.discord.ChannelMessageDelete(channelID, id); err != nil {
			return deleted, classify(err)
		}
		deleted++
	}
	return deleted, nil
}

// bulkDeleteCutoff leaves a minute of margin below Discord's 14 day limit.
func bulkDeleteCutoff() time.Time {
	return time.Now().Add(-14*24*time.Hour + time.Minute)
}

func (s *Session) DirectMessage(userID string, rec *audit.Record) error {
	ch, err := s.discord.UserChannelCreate(userID)
	if err != nil {
		return classify(err)
	}
	if _, err := s.discord.ChannelMessageSendEmbed(ch.ID, notifier.Render(rec)); err != nil {
		return classify(err)
	}
	return nil
}

// MutualGuilds lists cached guilds where userID is a member.
func (s *Session) MutualGuilds(userID string) []moderation.GuildRef {
	var refs []moderation.GuildRef
	for _, g := range s.Guilds() {
		if _, err := s.discord.State.Member(g.ID, userID); err == nil {
			refs = append(refs, moderation.GuildRef{ID: g.ID, Name: g.Name})
		}
	}
	return refs
}

// HasPermission computes the caller's channel permissions from state,
// falling back to the bitset carried by the interaction.
func (s *Session) HasPermission(p auth.Principal, flag int64) (bool, error) {
	perms, err := s.discord.State.UserChannelPermissions(p.UserID, p.ChannelID)
	if err != nil {
		perms = p.Permissions
	}
	if perms&discordgo.PermissionAdministrator != 0 {
		return true, nil
	}
	return perms&flag == flag, nil
}

// Send posts content and optional embeds to a channel.
func (s *Session) Send(channelID, content string, embeds ...*discordgo.MessageEmbed) error {
	_, err := s.discord.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: content,
		Embeds:  embeds,
	})
	return classify(err)
}
