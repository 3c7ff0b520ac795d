package commands

import (
	"fmt"

	"go-logbot/internal/notifier"

	"github.com/bwmarrin/discordgo"
)

const eventsLogged = "• Messages (sent/edited/deleted)\n• Member joins/leaves\n• Role changes\n• Channel creation/deletion\n• Voice activity\n• Nickname changes"

func (h *Handler) handleSetLogChannel(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	channelID := optionMap(i).snowflake("channel")

	if err := h.deps.Store.Set(i.GuildID, channelID); err != nil {
		if respondFailure(s, i, "set the logging channel", err) {
			return nil
		}
		return err
	}

	return respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "📋 Logging Channel Set",
		Description: fmt.Sprintf("All server logs will now be sent to <#%s>", channelID),
		Color:       notifier.ColorGreen,
	}, false)
}

func (h *Handler) handleRemoveLogChannel(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	removed, err := h.deps.Store.Clear(i.GuildID)
	if err != nil {
		if respondFailure(s, i, "remove the logging channel", err) {
			return nil
		}
		return err
	}
	return respondEmbed(s, i, removeLogChannelEmbed(removed), false)
}

func removeLogChannelEmbed(removed bool) *discordgo.MessageEmbed {
	if removed {
		return &discordgo.MessageEmbed{
			Title:       "📋 Logging Disabled",
			Description: "Server logging has been disabled",
			Color:       notifier.ColorAmber,
		}
	}
	return &discordgo.MessageEmbed{
		Title:       "❌ No Logging Channel",
		Description: "No logging channel was set for this server",
		Color:       notifier.ColorRed,
	}
}

func (h *Handler) handleLogStatus(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	channelID, routed := h.deps.Store.Get(i.GuildID)
	resolved := false
	if routed {
		ch, ok := h.deps.Notifier.ResolveChannel(channelID)
		resolved = ok && ch.GuildID == i.GuildID
	}
	return respondEmbed(s, i, logStatusEmbed(channelID, routed, resolved), false)
}

func logStatusEmbed(channelID string, routed, resolved bool) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{Title: "📋 Logging Status", Color: notifier.ColorRed}
	switch {
	case !routed:
		embed.Description = "❌ Logging is **disabled**\nUse `/setlogchannel` to enable logging"
	case !resolved:
		embed.Description = "❌ Log channel not found (may have been deleted)"
	default:
		embed.Description = fmt.Sprintf("✅ Logging is **enabled**\n📁 Log Channel: <#%s>", channelID)
		embed.Color = notifier.ColorGreen
		embed.Fields = []*discordgo.MessageEmbedField{
			{Name: "📊 Events Logged", Value: eventsLogged},
		}
	}
	return embed
}
