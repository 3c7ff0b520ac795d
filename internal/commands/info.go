package commands

import (
	"fmt"
	"strings"
	"time"

	"go-logbot/internal/audit"
	"go-logbot/internal/logging"
	"go-logbot/internal/notifier"

	"github.com/bwmarrin/discordgo"
)

const dateLayout = "January 02, 2006"

func createdDate(id string) string {
	t, err := discordgo.SnowflakeTimestamp(id)
	if err != nil {
		return "Unknown"
	}
	return t.UTC().Format(dateLayout)
}

// targetMember returns the member named by the "member" option, or the caller.
// Resolved members carry no user, so it is joined back in.
func targetMember(i *discordgo.InteractionCreate) *discordgo.Member {
	id := optionMap(i).snowflake("member")
	if id == "" {
		if i.Member != nil {
			return i.Member
		}
		return &discordgo.Member{User: i.User}
	}

	res := resolved(i)
	user := res.Users[id]
	if user == nil {
		user = &discordgo.User{ID: id}
	}
	if m, ok := res.Members[id]; ok && m != nil {
		member := *m
		member.User = user
		member.GuildID = i.GuildID
		return &member
	}
	return &discordgo.Member{User: user, GuildID: i.GuildID}
}

func displayName(m *discordgo.Member) string {
	if m.Nick != "" {
		return m.Nick
	}
	if m.User.GlobalName != "" {
		return m.User.GlobalName
	}
	return m.User.Username
}

func (h *Handler) handleServerInfo(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	g, err := h.deps.Session.Guild(i.GuildID)
	if err != nil {
		return err
	}
	return respondEmbed(s, i, serverInfoEmbed(g), false)
}

func serverInfoEmbed(g *discordgo.Guild) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "🏠 Server Info - " + g.Name,
		Color: notifier.ColorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "👑 Owner", Value: fmt.Sprintf("<@%s>", g.OwnerID), Inline: true},
			{Name: "👥 Members", Value: fmt.Sprintf("%d", g.MemberCount), Inline: true},
			{Name: "📁 Channels", Value: fmt.Sprintf("%d", len(g.Channels)), Inline: true},
			{Name: "🎭 Roles", Value: fmt.Sprintf("%d", len(g.Roles)), Inline: true},
			{Name: "😊 Emojis", Value: fmt.Sprintf("%d", len(g.Emojis)), Inline: true},
			{Name: "🔗 Server ID", Value: g.ID, Inline: true},
			{Name: "📅 Created", Value: createdDate(g.ID)},
		},
	}
	if g.Icon != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: g.IconURL("")}
	}
	return embed
}

func (h *Handler) handleUserInfo(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	m := targetMember(i)

	status := "Offline"
	if p, err := s.State.Presence(i.GuildID, m.User.ID); err == nil && p.Status != "" {
		status = capitalize(string(p.Status))
	}

	roles := make([]string, 0, len(m.Roles))
	for _, id := range m.Roles {
		if r, err := s.State.Role(i.GuildID, id); err == nil {
			roles = append(roles, r.Name)
		}
	}

	embed := userInfoEmbed(m, status, roles)
	embed.Color = s.State.UserColor(m.User.ID, i.ChannelID)
	return respondEmbed(s, i, embed, false)
}

func userInfoEmbed(m *discordgo.Member, status string, roles []string) *discordgo.MessageEmbed {
	joined := "Unknown"
	if !m.JoinedAt.IsZero() {
		joined = m.JoinedAt.UTC().Format(dateLayout)
	}
	roleList := "None"
	if len(roles) > 0 {
		roleList = strings.Join(roles, ", ")
	}

	return &discordgo.MessageEmbed{
		Title:     "👤 User Info - " + displayName(m),
		Thumbnail: &discordgo.MessageEmbedThumbnail{URL: m.AvatarURL("")},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🏷️ Username", Value: m.User.String(), Inline: true},
			{Name: "🆔 ID", Value: m.User.ID, Inline: true},
			{Name: "📱 Status", Value: status, Inline: true},
			{Name: "🤖 Bot", Value: onOff(m.User.Bot, "Yes", "No"), Inline: true},
			{Name: "📅 Joined Server", Value: joined, Inline: true},
			{Name: "📅 Account Created", Value: createdDate(m.User.ID), Inline: true},
			{Name: "🎭 Roles", Value: roleList},
		},
	}
}

func (h *Handler) handleAvatar(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	m := targetMember(i)
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("🖼️ %s's Avatar", displayName(m)),
		Image: &discordgo.MessageEmbedImage{URL: m.AvatarURL("1024")},
	}
	if i.GuildID != "" {
		embed.Color = s.State.UserColor(m.User.ID, i.ChannelID)
	}
	return respondEmbed(s, i, embed, false)
}

// memberStats counts from the state cache. Presences are only present when
// the presence intent is granted, so online is -1 without them.
type memberStats struct {
	total  int
	online int
	bots   int
}

func countMembers(g *discordgo.Guild) memberStats {
	st := memberStats{total: g.MemberCount, online: -1}
	if len(g.Presences) > 0 {
		st.online = 0
		for _, p := range g.Presences {
			if p.Status != discordgo.StatusOffline {
				st.online++
			}
		}
	}
	for _, m := range g.Members {
		if m.User != nil && m.User.Bot {
			st.bots++
		}
	}
	return st
}

func (h *Handler) handleMemberCount(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	g, err := h.deps.Session.Guild(i.GuildID)
	if err != nil {
		return err
	}

	s.State.RLock()
	st := countMembers(g)
	s.State.RUnlock()

	return respondEmbed(s, i, memberCountEmbed(st), false)
}

func memberCountEmbed(st memberStats) *discordgo.MessageEmbed {
	online := "Unknown"
	if st.online >= 0 {
		online = fmt.Sprintf("%d", st.online)
	}
	return &discordgo.MessageEmbed{
		Title: "📊 Member Statistics",
		Color: notifier.ColorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "👥 Total Members", Value: fmt.Sprintf("%d", st.total), Inline: true},
			{Name: "🟢 Online", Value: online, Inline: true},
			{Name: "👤 Humans", Value: fmt.Sprintf("%d", st.total-st.bots), Inline: true},
			{Name: "🤖 Bots", Value: fmt.Sprintf("%d", st.bots), Inline: true},
		},
	}
}

func (h *Handler) handleChannelInfo(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	channelID := optionMap(i).snowflake("channel")
	if channelID == "" {
		channelID = i.ChannelID
	}

	ch, err := s.State.Channel(channelID)
	if err != nil {
		if ch, err = s.Channel(channelID); err != nil {
			return fmt.Errorf("failed to get channel %s: %w", channelID, err)
		}
	}

	return respondEmbed(s, i, channelInfoEmbed(ch, h.channelViewers(s, ch)), false)
}

// channelViewers counts cached members able to view the channel.
func (h *Handler) channelViewers(s *discordgo.Session, ch *discordgo.Channel) int {
	g, err := s.State.Guild(ch.GuildID)
	if err != nil {
		return 0
	}

	s.State.RLock()
	ids := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		if m.User != nil {
			ids = append(ids, m.User.ID)
		}
	}
	s.State.RUnlock()

	n := 0
	for _, id := range ids {
		perms, err := s.State.UserChannelPermissions(id, ch.ID)
		if err == nil && perms&discordgo.PermissionViewChannel != 0 {
			n++
		}
	}
	return n
}

func channelInfoEmbed(ch *discordgo.Channel, viewers int) *discordgo.MessageEmbed {
	topic := ch.Topic
	if topic == "" {
		topic = "No topic set"
	}
	return &discordgo.MessageEmbed{
		Title: "📁 Channel Info - #" + ch.Name,
		Color: notifier.ColorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🆔 ID", Value: ch.ID, Inline: true},
			{Name: "📅 Created", Value: createdDate(ch.ID), Inline: true},
			{Name: "📝 Topic", Value: topic},
			{Name: "🔞 NSFW", Value: onOff(ch.NSFW, "Yes", "No"), Inline: true},
			{Name: "👥 Members", Value: fmt.Sprintf("%d", viewers), Inline: true},
		},
	}
}

func (h *Handler) handleTest(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	server := i.GuildID
	if g, err := h.deps.Session.Guild(i.GuildID); err == nil {
		server = g.Name
	}

	logState := "📋 Available"
	if channelID, ok := h.deps.Store.Get(i.GuildID); ok {
		err := h.deps.Notifier.SendRecord(channelID, testRecord(i.GuildID, callerID(i), time.Now()))
		if err != nil {
			logging.Warn("Test log to %s in guild %s failed: %v", channelID, i.GuildID, err)
		}
		logState = testLogState(channelID, err)
	}

	return respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "✅ Bot Test",
		Description: "All systems working! Secure logging bot is active.",
		Color:       notifier.ColorGreen,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "User", Value: fmt.Sprintf("<@%s>", callerID(i)), Inline: true},
			{Name: "Server", Value: server, Inline: true},
			{Name: "Environment", Value: capitalize(h.deps.Security.Environment()), Inline: true},
			{Name: "Security", Value: "🔒 Enabled", Inline: true},
			{Name: "Logging", Value: logState, Inline: true},
			{Name: "Time", Value: time.Now().UTC().Format("2006-01-02 15:04:05"), Inline: true},
		},
	}, false)
}

// testRecord is posted straight to the log channel by /test.
func testRecord(guildID, userID string, now time.Time) *audit.Record {
	return audit.NewActionRecord(guildID, "🧪 Test Log",
		fmt.Sprintf("Test requested by <@%s>. Audit events will appear in this channel.", userID),
		audit.ColorInfo, now).
		With("Requested By", fmt.Sprintf("<@%s>", userID), true)
}

func testLogState(channelID string, sendErr error) string {
	if sendErr != nil {
		return fmt.Sprintf("⚠️ <#%s> unreachable", channelID)
	}
	return fmt.Sprintf("📋 Active (test sent to <#%s>)", channelID)
}
