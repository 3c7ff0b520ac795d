package commands

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

// handlePing shows the gateway heartbeat and a REST round trip measured with
// the fasthttp pool.
func (h *Handler) handlePing(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	startTime := time.Now()

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		return err
	}

	apiValue := "`unreachable`"
	var apiLatency time.Duration
	probe, err := h.deps.HTTP.Probe(h.deps.Config.Network.APIBaseURL + "/gateway")
	if err == nil {
		apiLatency = probe.Latency
		apiValue = fmt.Sprintf("`%dms` (HTTP %d)", apiLatency.Milliseconds(), probe.StatusCode)
	}

	responseLatency := time.Since(startTime)
	wsLatency := s.HeartbeatLatency()

	embed := &discordgo.MessageEmbed{
		Title: "🚀 Pong!",
		Color: latencyColor(wsLatency, apiLatency, err == nil),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "⚡ WebSocket",
				Value:  fmt.Sprintf("`%dms`", wsLatency.Milliseconds()),
				Inline: true,
			},
			{
				Name:   "📡 API",
				Value:  apiValue,
				Inline: true,
			},
			{
				Name:   "🔄 Response",
				Value:  fmt.Sprintf("`%dms`", responseLatency.Milliseconds()),
				Inline: true,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "FastHTTP Probe",
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}

	return editEmbeds(s, i, embed)
}

// latencyColor grades the average of both round trips.
func latencyColor(ws, api time.Duration, apiOK bool) int {
	if !apiOK {
		return 0xFF0000
	}
	avg := (ws.Milliseconds() + api.Milliseconds()) / 2
	switch {
	case avg < 30:
		return 0x00FF00 // Green
	case avg < 60:
		return 0xFFFF00 // Yellow
	case avg < 120:
		return 0xFFA500 // Orange
	default:
		return 0xFF0000 // Red
	}
}
