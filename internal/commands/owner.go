package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go-logbot/internal/bot"
	"go-logbot/internal/config"
	"go-logbot/internal/logging"
	"go-logbot/internal/metrics"
	"go-logbot/internal/models"
	"go-logbot/internal/moderation"
	"go-logbot/internal/notifier"
	"go-logbot/internal/watchdog"
	"go-logbot/pkg/util"

	"github.com/bwmarrin/discordgo"
)

const (
	maintenancePresence = "🔧 MAINTENANCE MODE - Bot temporarily unavailable"
	maxListedServers    = 10
	colorActivity       = 0x9932cc

	logTailLines = 10
	logTailBytes = 16 * 1024
)

var activityKinds = map[string]bool{
	"playing":   true,
	"watching":  true,
	"listening": true,
	"streaming": true,
}

// ApplyDefaultPresence sets the ready-time activity for the environment.
func ApplyDefaultPresence(session *bot.Session, cfg *config.Config, sec *config.Security) {
	text := cfg.Bot.Presence
	if sec.Environment() == config.EnvDevelopment {
		text = cfg.Bot.DevelopmentPresence
	}
	if text == "" {
		return
	}
	if err := session.SetPresence("playing", text); err != nil {
		logging.Warn("Failed to set presence: %v", err)
	}
}

func (h *Handler) handleSecurity(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	sec := h.deps.Security

	owner := "Not Set"
	if sec.HasOwner() {
		owner = fmt.Sprintf("<@%s>", sec.OwnerID())
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🔒 Security Status",
		Description: "Current bot security information",
		Color:       notifier.ColorGreen,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🌍 Environment", Value: capitalize(sec.Environment()), Inline: true},
			{Name: "🐛 Debug Mode", Value: onOff(sec.Debug(), "✅ On", "❌ Off"), Inline: true},
			{Name: "👑 Owner", Value: owner, Inline: true},
			{Name: "🕒 Uptime", Value: util.FormatUptime(time.Since(h.deps.Session.StartedAt())), Inline: true},
			{Name: "📊 Servers", Value: fmt.Sprintf("%d", len(h.deps.Session.Guilds())), Inline: true},
			{Name: "⚙️ Commands", Value: fmt.Sprintf("%d", len(h.commands)), Inline: true},
			{Name: "🔑 Token", Value: fmt.Sprintf("`sha256:%s…`", sec.TokenHash()), Inline: true},
			{Name: "🛡️ Your Tier", Value: capitalize(h.deps.Gate.Tier(h.principal(s, i)).String()), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Secure Bot | " + time.Now().UTC().Format("2006-01-02 15:04:05 UTC"),
		},
	}
	return respondEmbed(s, i, embed, true)
}

func (h *Handler) handleShutdown(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	err := respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "🔴 Bot Shutdown",
		Description: "Bot is shutting down safely...",
		Color:       notifier.ColorAlert,
	}, false)
	logging.Warn("Shutdown requested by %s", callerID(i))
	h.deps.Lifecycle.RequestStop(0, "shutdown command")
	return err
}

// handleRestart exits cleanly; the process supervisor starts a new instance.
func (h *Handler) handleRestart(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	err := respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "🔄 Bot Restart",
		Description: "Bot is restarting...",
		Color:       notifier.ColorAmber,
	}, false)
	logging.Warn("Restart requested by %s", callerID(i))
	h.deps.Lifecycle.RequestStop(0, "restart command")
	return err
}

func (h *Handler) handleStatus(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	opts := optionMap(i)
	kind := strings.ToLower(opts.str("activity_type", ""))
	text := opts.str("text", "")

	if !activityKinds[kind] {
		respondEphemeral(s, i, "❌ Invalid activity type! Use: playing, watching, listening, streaming")
		return nil
	}
	if err := h.deps.Session.SetPresence(kind, text); err != nil {
		return err
	}

	return respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "✅ Status Updated",
		Description: fmt.Sprintf("Bot status changed to: **%s** %s", capitalize(kind), text),
		Color:       notifier.ColorGreen,
	}, true)
}

func (h *Handler) handleServers(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return respondEmbed(s, i, serversEmbed(h.deps.Session.Guilds()), true)
}

func serversEmbed(guilds []*discordgo.Guild) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "🏠 Bot Servers",
		Description: fmt.Sprintf("Bot is currently in %d servers:", len(guilds)),
		Color:       notifier.ColorBlue,
	}
	for idx, g := range guilds {
		if idx == maxListedServers {
			embed.Footer = &discordgo.MessageEmbedFooter{
				Text: fmt.Sprintf("Showing %d of %d servers", maxListedServers, len(guilds)),
			}
			break
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "🏠 " + g.Name,
			Value: fmt.Sprintf("ID: `%s`\nMembers: %d\nOwner: <@%s>", g.ID, g.MemberCount, g.OwnerID),
		})
	}
	return embed
}

func (h *Handler) handleLeave(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	serverID := optionMap(i).str("server_id", "")
	if !util.IsSnowflake(serverID) {
		respondEphemeral(s, i, "❌ Invalid server ID!")
		return nil
	}

	var target *discordgo.Guild
	for _, g := range h.deps.Session.Guilds() {
		if g.ID == serverID {
			target = g
			break
		}
	}
	if target == nil {
		respondEphemeral(s, i, "❌ Server not found!")
		return nil
	}

	name := target.Name
	if err := h.deps.Session.LeaveGuild(serverID); err != nil {
		respondEphemeral(s, i, fmt.Sprintf("❌ Error leaving server: %v", err))
		return nil
	}
	logging.Warn("Left guild %s (%s) on owner request", serverID, name)

	return respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "🚪 Left Server",
		Description: fmt.Sprintf("Successfully left server: **%s**", name),
		Color:       notifier.ColorAmber,
	}, true)
}

func (h *Handler) handleGlobalBan(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	opts := optionMap(i)
	a := models.NewAction(models.ActionGlobalBan, i.GuildID, callerID(i), opts.str("user_id", ""), opts.str("reason", ""))

	rec, err := h.deps.Moderation.GlobalBan(a)
	if err != nil {
		if errors.Is(err, moderation.ErrValidation) {
			respondEphemeral(s, i, "❌ Invalid user ID!")
			return nil
		}
		return err
	}
	return respondEmbed(s, i, notifier.Render(rec), true)
}

func (h *Handler) handleUserInfoGlobal(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	userID := optionMap(i).str("user_id", "")
	if !util.IsSnowflake(userID) {
		respondEphemeral(s, i, "❌ Invalid user ID!")
		return nil
	}

	user, err := s.User(userID)
	if err != nil {
		respondEphemeral(s, i, fmt.Sprintf("❌ Error: %v", err))
		return nil
	}

	return respondEmbed(s, i, globalUserEmbed(user, h.deps.Session.MutualGuilds(userID)), true)
}

func globalUserEmbed(user *discordgo.User, mutual []moderation.GuildRef) *discordgo.MessageEmbed {
	created, _ := discordgo.SnowflakeTimestamp(user.ID)

	embed := &discordgo.MessageEmbed{
		Title:     "🔍 Global User Info - " + user.Username,
		Color:     notifier.ColorBlue,
		Thumbnail: &discordgo.MessageEmbedThumbnail{URL: user.AvatarURL("")},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🆔 User ID", Value: user.ID, Inline: true},
			{Name: "📅 Account Created", Value: created.UTC().Format("January 02, 2006"), Inline: true},
			{Name: "🤖 Bot", Value: onOff(user.Bot, "Yes", "No"), Inline: true},
			{Name: "🏠 Mutual Servers", Value: fmt.Sprintf("%d servers", len(mutual)), Inline: true},
		},
	}
	if len(mutual) == 0 {
		return embed
	}

	names := make([]string, 0, maxListedServers)
	for idx, g := range mutual {
		if idx == maxListedServers {
			embed.Footer = &discordgo.MessageEmbedFooter{
				Text: fmt.Sprintf("Showing %d of %d servers", maxListedServers, len(mutual)),
			}
			break
		}
		names = append(names, "🏠 "+g.Name)
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:  "📋 Server List",
		Value: strings.Join(names, "\n"),
	})
	return embed
}

// handleLogs summarizes recent activity and shows the tail of the log file.
func (h *Handler) handleLogs(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	owner := "Not Set"
	if h.deps.Security.HasOwner() {
		owner = fmt.Sprintf("<@%s>", h.deps.Security.OwnerID())
	}
	counters := h.deps.Dispatcher.Counters().Snapshot()

	embed := &discordgo.MessageEmbed{
		Title:       "📋 Recent Activity",
		Description: "Recent bot activity and events",
		Color:       colorActivity,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🕒 Last Restart", Value: h.deps.Session.StartedAt().UTC().Format("2006-01-02 15:04:05 UTC"), Inline: true},
			{Name: "📊 Commands Synced", Value: fmt.Sprintf("%d", len(h.commands)), Inline: true},
			{Name: "🔒 Security Status", Value: "✅ Active", Inline: true},
			{Name: "📋 Logging Active", Value: fmt.Sprintf("%d servers", h.deps.Store.Len()), Inline: true},
			{Name: "🏠 Total Servers", Value: fmt.Sprintf("%d", len(h.deps.Session.Guilds())), Inline: true},
			{Name: "👤 Owner", Value: owner, Inline: true},
			{Name: "📨 Deliveries", Value: deliverySummary(counters), Inline: false},
		},
	}

	if h.deps.Health != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "🩺 Health",
			Value: healthSummary(h.deps.Health),
		})
	}

	lines, err := tailLines(h.deps.Config.Logging.File, logTailLines, logTailBytes)
	if err != nil {
		logging.Debug("Failed to read log tail: %v", err)
	} else if len(lines) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "📝 Log Tail",
			Value: "```\n" + util.Truncate(strings.Join(lines, "\n"), 1000-8) + "\n```",
		})
	}

	return respondEmbed(s, i, embed, true)
}

func deliverySummary(snap metrics.Snapshot) string {
	return fmt.Sprintf("Delivered: `%d` | Failed: `%d` | Unrouted: `%d` | Avg: `%s`",
		snap.Delivered, snap.Failed, snap.Unrouted, snap.Latency.Avg.Round(time.Millisecond))
}

func healthSummary(w *watchdog.Watchdog) string {
	status := w.GetStatus()
	parts := make([]string, 0, len(status))
	for _, name := range w.Names() {
		parts = append(parts, fmt.Sprintf("%s %s", onOff(status[name], "✅", "❌"), name))
	}
	if len(parts) == 0 {
		return "No monitored components"
	}
	return strings.Join(parts, " | ")
}

// tailLines returns the last n lines from the final maxBytes of path.
func tailLines(path string, n int, maxBytes int64) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	offset := info.Size() - maxBytes
	if offset < 0 {
		offset = 0
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if offset > 0 && len(lines) > 1 {
		lines = lines[1:]
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	if len(lines) == 1 && lines[0] == "" {
		return nil, nil
	}
	return lines, nil
}

func (h *Handler) handleEmergencyStop(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	err := respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "🚨 EMERGENCY SHUTDOWN",
		Description: "Bot shutting down immediately!",
		Color:       notifier.ColorAlert,
	}, true)
	logging.Critical("EMERGENCY SHUTDOWN triggered by owner %s", callerID(i))
	h.deps.Lifecycle.RequestStop(1, "emergency stop")
	return err
}

// handleMaintenance toggles maintenance mode. While on, only owner
// commands run and the presence announces the downtime.
func (h *Handler) handleMaintenance(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	on := !h.maintenance.Load()
	h.maintenance.Store(on)

	embed := &discordgo.MessageEmbed{
		Title: "🔧 Maintenance Mode",
		Color: notifier.ColorAmber,
	}
	if on {
		embed.Description = "Bot is now in maintenance mode"
		if err := h.deps.Session.SetPresence("playing", maintenancePresence); err != nil {
			logging.Warn("Failed to set maintenance presence: %v", err)
		}
	} else {
		embed.Description = "Maintenance mode disabled, all commands are available again"
		embed.Color = notifier.ColorGreen
		ApplyDefaultPresence(h.deps.Session, h.deps.Config, h.deps.Security)
	}
	logging.Warn("Maintenance mode set to %v by %s", on, callerID(i))

	return respondEmbed(s, i, embed, true)
}

func onOff(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}
