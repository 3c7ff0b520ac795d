package commands

import (
	"errors"
	"fmt"
	"time"

	"go-logbot/internal/moderation"
	"go-logbot/internal/notifier"
	"go-logbot/pkg/util"

	"github.com/bwmarrin/discordgo"
)

const (
	previewLength  = 100
	colorAnnounce  = 0xff6600
	sendForbidden  = "❌ I don't have permission to send messages in that channel!"
	everyoneHeader = "@everyone"
)

// deliverOrExplain reports send failures the caller can act on.
func deliverOrExplain(s *discordgo.Session, i *discordgo.InteractionCreate, err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, moderation.ErrBotPermission) || errors.Is(err, moderation.ErrNotFound) {
		respondEphemeral(s, i, sendForbidden)
		return false, nil
	}
	return false, err
}

func (h *Handler) handleSend(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	opts := optionMap(i)
	channelID := opts.snowflake("channel")
	message := opts.str("message", "")

	if ok, err := deliverOrExplain(s, i, h.deps.Session.Send(channelID, message)); !ok {
		return err
	}

	return respondEmbed(s, i, sentEmbed(channelID, channelName(s, i, channelID), message, callerName(i)), true)
}

func sentEmbed(channelID, name, message, sender string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "📤 Message Sent",
		Description: fmt.Sprintf("Message sent to <#%s>", channelID),
		Color:       notifier.ColorGreen,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Channel", Value: "#" + name, Inline: true},
			{Name: "Message", Value: preview(message)},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Sent by " + sender},
	}
}

func preview(message string) string {
	if cut := util.Truncate(message, previewLength); cut != message {
		return cut + "..."
	}
	return message
}

func (h *Handler) handleSendEmbed(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	opts := optionMap(i)
	channelID := opts.snowflake("channel")
	title := opts.str("title", "")

	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: opts.str("description", ""),
		Color:       notifier.ColorBlue,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Sent by " + callerName(i)},
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	if ok, err := deliverOrExplain(s, i, h.deps.Session.Send(channelID, "", embed)); !ok {
		return err
	}

	return respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "📤 Embed Sent",
		Description: fmt.Sprintf("Embed message sent to <#%s>", channelID),
		Color:       notifier.ColorGreen,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Channel", Value: "#" + channelName(s, i, channelID), Inline: true},
			{Name: "Title", Value: title, Inline: true},
		},
	}, true)
}

func (h *Handler) handleAnnounce(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	opts := optionMap(i)
	channelID := opts.snowflake("channel")

	embed := &discordgo.MessageEmbed{
		Title:       "📢 Announcement",
		Description: opts.str("message", ""),
		Color:       colorAnnounce,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Announcement by " + callerName(i)},
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	if ok, err := deliverOrExplain(s, i, h.deps.Session.Send(channelID, everyoneHeader, embed)); !ok {
		return err
	}

	return respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "📢 Announcement Sent",
		Description: fmt.Sprintf("Announcement sent to <#%s>", channelID),
		Color:       notifier.ColorGreen,
	}, true)
}
