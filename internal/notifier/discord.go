package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"go-logbot/internal/audit"
	"go-logbot/internal/dispatcher"
	"go-logbot/pkg/util"
)

const (
	ColorGreen  = 0x00ff00
	ColorRed    = 0xff4444
	ColorOrange = 0xffaa00
	ColorBlue   = 0x0099ff
	ColorAmber  = 0xff9900
	ColorAlert  = 0xff0000
	ColorYellow = 0xffff00

	// Discord rejects embed fields above this length.
	fieldValueLimit = 1024
	footerText      = "Secure Logging"
)

var palette = map[audit.ColorTag]int{
	audit.ColorInfo:     ColorBlue,
	audit.ColorCreated:  ColorGreen,
	audit.ColorRemoved:  ColorRed,
	audit.ColorModified: ColorOrange,
	audit.ColorWarning:  ColorAmber,
	audit.ColorCritical: ColorAlert,
	audit.ColorCaution:  ColorYellow,
}

// ColorFor maps a record category to its embed color.
func ColorFor(tag audit.ColorTag) int {
	if c, ok := palette[tag]; ok {
		return c
	}
	return ColorBlue
}

// Render converts a record into the embed posted to the log channel.
func Render(rec *audit.Record) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       rec.Title,
		Description: rec.Description,
		Color:       ColorFor(rec.Color),
		Footer: &discordgo.MessageEmbedFooter{
			Text: footerText,
		},
	}
	if !rec.Timestamp.IsZero() {
		embed.Timestamp = rec.Timestamp.UTC().Format(time.RFC3339)
	}
	if rec.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: rec.Thumbnail}
	}

	embed.Fields = make([]*discordgo.MessageEmbedField, 0, len(rec.Fields))
	for _, f := range rec.Fields {
		value := f.Value
		if strings.TrimSpace(value) == "" {
			value = "\u200b"
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Label,
			Value:  util.Truncate(value, fieldValueLimit),
			Inline: f.Inline,
		})
	}

	return embed
}

// Discord resolves log channels and posts records through a gateway session.
type Discord struct {
	session *discordgo.Session
}

func NewDiscord(session *discordgo.Session) *Discord {
	return &Discord{session: session}
}

// ResolveChannel prefers the state cache and falls back to REST.
func (d *Discord) ResolveChannel(channelID string) (*dispatcher.Channel, bool) {
	if d.session == nil || channelID == "" {
		return nil, false
	}

	if d.session.State != nil {
		if ch, err := d.session.State.Channel(channelID); err == nil {
			return toChannel(ch)
		}
	}

	ch, err := d.session.Channel(channelID)
	if err != nil {
		return nil, false
	}
	return toChannel(ch)
}

func toChannel(ch *discordgo.Channel) (*dispatcher.Channel, bool) {
	switch ch.Type {
	case discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews,
		discordgo.ChannelTypeGuildPublicThread, discordgo.ChannelTypeGuildPrivateThread:
	default:
		return nil, false
	}
	return &dispatcher.Channel{ID: ch.ID, GuildID: ch.GuildID, Name: ch.Name}, true
}

func (d *Discord) Deliver(ch *dispatcher.Channel, rec *audit.Record) error {
	if _, err := d.session.ChannelMessageSendEmbed(ch.ID, Render(rec)); err != nil {
		return fmt.Errorf("failed to send embed to %s: %w", ch.ID, err)
	}
	return nil
}

// SendRecord posts rec to an arbitrary channel, bypassing routing.
func (d *Discord) SendRecord(channelID string, rec *audit.Record) error {
	ch, ok := d.ResolveChannel(channelID)
	if !ok {
		return fmt.Errorf("channel %s is not a text channel", channelID)
	}
	return d.Deliver(ch, rec)
}
