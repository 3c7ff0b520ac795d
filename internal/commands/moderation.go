package commands

import (
	"errors"
	"fmt"
	"strings"

	"go-logbot/internal/audit"
	"go-logbot/internal/database"
	"go-logbot/internal/logging"
	"go-logbot/internal/models"
	"go-logbot/internal/moderation"
	"go-logbot/internal/notifier"

	"github.com/bwmarrin/discordgo"
)

const maxListedCases = 10

// moderationAction builds the action shared by the member-targeting commands.
func moderationAction(kind models.ActionType, i *discordgo.InteractionCreate) *models.Action {
	opts := optionMap(i)
	return models.NewAction(kind, i.GuildID, callerID(i), opts.snowflake("member"), opts.str("reason", ""))
}

// confirm replies publicly with the confirmation and copies it to the
// guild's log channel.
func (h *Handler) confirm(s *discordgo.Session, i *discordgo.InteractionCreate, rec *audit.Record) error {
	if err := respondEmbed(s, i, notifier.Render(rec), false); err != nil {
		return err
	}
	h.deps.Dispatcher.Dispatch(i.GuildID, rec)
	return nil
}

func (h *Handler) handleKick(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	rec, err := h.deps.Moderation.Kick(moderationAction(models.ActionKick, i))
	if err != nil {
		if respondFailure(s, i, "kick this member", err) {
			return nil
		}
		return err
	}
	return h.confirm(s, i, rec)
}

func (h *Handler) handleBan(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	rec, err := h.deps.Moderation.Ban(moderationAction(models.ActionBan, i))
	if err != nil {
		if respondFailure(s, i, "ban this member", err) {
			return nil
		}
		return err
	}
	return h.confirm(s, i, rec)
}

func (h *Handler) handleUnban(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	a := models.NewAction(models.ActionUnban, i.GuildID, callerID(i), optionMap(i).str("user_id", ""), "")

	rec, err := h.deps.Moderation.Unban(a)
	switch {
	case err == nil:
		return h.confirm(s, i, rec)
	case errors.Is(err, moderation.ErrValidation):
		respondEphemeral(s, i, "❌ Invalid user ID!")
		return nil
	case errors.Is(err, moderation.ErrNotFound):
		respondEphemeral(s, i, "❌ User not found in ban list!")
		return nil
	case respondFailure(s, i, "unban users", err):
		return nil
	}
	return err
}

// handlePurge defers because bulk deletion may take several requests.
func (h *Handler) handlePurge(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	amount := optionMap(i).integer("amount", 0)
	if amount < moderation.MinPurge || amount > moderation.MaxPurge {
		respondEphemeral(s, i, fmt.Sprintf("❌ Please specify a number between %d and %d!", moderation.MinPurge, moderation.MaxPurge))
		return nil
	}

	if err := deferEphemeral(s, i); err != nil {
		return err
	}

	a := models.NewAction(models.ActionPurge, i.GuildID, callerID(i), "", "")
	a.ChannelID = i.ChannelID
	a.Amount = int(amount)

	rec, err := h.deps.Moderation.Purge(a)
	if err != nil {
		if msg, ok := failureMessage("delete messages", err); ok {
			return editContent(s, i, "❌ "+msg)
		}
		logging.Error("Purge failed in %s: %v", i.ChannelID, err)
		return editContent(s, i, fmt.Sprintf("❌ Error: %s", err))
	}

	if err := editEmbeds(s, i, notifier.Render(rec)); err != nil {
		return err
	}
	h.deps.Dispatcher.Dispatch(i.GuildID, rec)
	return nil
}

func (h *Handler) handleMute(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	rec, err := h.deps.Moderation.Mute(moderationAction(models.ActionMute, i))
	if err != nil {
		if respondFailure(s, i, "mute this member", err) {
			return nil
		}
		return err
	}
	return h.confirm(s, i, rec)
}

func (h *Handler) handleUnmute(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	rec, err := h.deps.Moderation.Unmute(moderationAction(models.ActionUnmute, i))
	if err != nil {
		if errors.Is(err, moderation.ErrNoMutedRole) {
			respondEphemeral(s, i, "❌ No 'Muted' role found!")
			return nil
		}
		if respondFailure(s, i, "unmute this member", err) {
			return nil
		}
		return err
	}
	return h.confirm(s, i, rec)
}

func (h *Handler) handleWarn(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	guildName := i.GuildID
	if g, err := h.deps.Session.Guild(i.GuildID); err == nil {
		guildName = g.Name
	}

	rec, err := h.deps.Moderation.Warn(moderationAction(models.ActionWarn, i), guildName)
	if err != nil {
		if respondFailure(s, i, "warn this member", err) {
			return nil
		}
		return err
	}
	return h.confirm(s, i, rec)
}

// handleCases lists the recorded history for a member in this guild.
func (h *Handler) handleCases(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	target := optionMap(i).snowflake("member")
	if h.deps.DB == nil || !h.deps.DB.IsConnected() {
		respondEphemeral(s, i, "❌ Moderation history is not available.")
		return nil
	}

	actions, err := h.deps.DB.ActionsForTarget(i.GuildID, target, maxListedCases)
	if err != nil {
		return err
	}
	total, err := h.deps.DB.CountActions(i.GuildID)
	if err != nil {
		logging.Warn("Failed to count actions for %s: %v", i.GuildID, err)
	}

	return respondEmbed(s, i, casesEmbed(target, actions, total), true)
}

func casesEmbed(targetID string, actions []*database.ModAction, guildTotal int) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "⚖️ Moderation History",
		Color: notifier.ColorBlue,
	}
	if len(actions) == 0 {
		embed.Description = fmt.Sprintf("No moderation actions recorded for <@%s>.", targetID)
	} else {
		lines := make([]string, 0, len(actions))
		for _, a := range actions {
			lines = append(lines, fmt.Sprintf("`%s` **%s** by <@%s> <t:%d:R>\n%s",
				shortCase(a.CaseID), a.Action, a.ModeratorID, a.CreatedAt, a.Reason))
		}
		embed.Description = fmt.Sprintf("Recent actions against <@%s>:\n\n%s", targetID, strings.Join(lines, "\n"))
	}
	embed.Footer = &discordgo.MessageEmbedFooter{
		Text: fmt.Sprintf("%d actions recorded in this server", guildTotal),
	}
	return embed
}

func shortCase(caseID string) string {
	if len(caseID) > 8 {
		return caseID[:8]
	}
	return caseID
}
