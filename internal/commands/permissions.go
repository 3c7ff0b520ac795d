package commands

import (
	"time"

	"go-logbot/internal/auth"
	"go-logbot/internal/logging"

	"github.com/bwmarrin/discordgo"
)

// principalFrom describes the caller. Permissions is the bitset Discord
// computed for the member in the invoking channel.
func principalFrom(i *discordgo.InteractionCreate) auth.Principal {
	p := auth.Principal{
		UserID:    callerID(i),
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
	}
	if i.Member != nil {
		p.Permissions = i.Member.Permissions
	}
	return p
}

// respondPermissionError sends a permission denied error response
func respondPermissionError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	embed := &discordgo.MessageEmbed{
		Title:       "Access Denied",
		Description: message,
		Color:       0x2B2D31,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Secure Logging",
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		logging.Debug("Failed to send access denied reply: %v", err)
	}
}
