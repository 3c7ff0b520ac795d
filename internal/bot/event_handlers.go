package bot

import (
	"runtime/debug"
	"time"

	"go-logbot/internal/audit"
	"go-logbot/internal/logging"
	"go-logbot/internal/metrics"

	"github.com/bwmarrin/discordgo"
)

// Sink receives normalized records. *dispatcher.Dispatcher satisfies it.
type Sink interface {
	Dispatch(guildID string, rec *audit.Record)
}

// lookup resolves names and counts that gateway payloads leave out.
type lookup interface {
	roleName(guildID, roleID string) string
	channelName(channelID string) string
	memberCount(guildID string) int
}

type stateLookup struct {
	state *discordgo.State
}

func (l stateLookup) roleName(guildID, roleID string) string {
	if r, err := l.state.Role(guildID, roleID); err == nil {
		return r.Name
	}
	return ""
}

func (l stateLookup) channelName(channelID string) string {
	if c, err := l.state.Channel(channelID); err == nil {
		return c.Name
	}
	return ""
}

func (l stateLookup) memberCount(guildID string) int {
	if g, err := l.state.Guild(guildID); err == nil {
		return g.MemberCount
	}
	return 0
}

// SetupEventHandlers wires the nine logged gateway events to sink.
func (s *Session) SetupEventHandlers(sink Sink, counters *metrics.DispatchCounters, onReady func(r *discordgo.Ready)) {
	logging.Info("Setting up Discord event handlers...")

	names := stateLookup{state: s.discord.State}
	emit := func(ev audit.Event) {
		counters.EventReceived()
		rec, ok := audit.Normalize(ev, time.Now())
		if !ok {
			return
		}
		counters.RecordProduced()
		sink.Dispatch(ev.Guild(), rec)
	}

	s.discord.AddHandler(func(sess *discordgo.Session, r *discordgo.Ready) {
		defer recoverHandler("Ready")
		logging.Info("Bot ready! Connected as %s in %d guilds", r.User.String(), len(r.Guilds))
		// READY arrives while Open holds the session lock, and onReady
		// writes to the gateway.
		if onReady != nil {
			go func() {
				defer recoverHandler("Ready")
				onReady(r)
			}()
		}
	})

	s.discord.AddHandler(func(sess *discordgo.Session, g *discordgo.GuildCreate) {
		defer recoverHandler("GuildCreate")
		s.roster.seed(g.Guild)
		logging.Info("Bot joined/loaded guild: %s (ID: %s, %d members cached)", g.Name, g.ID, len(g.Members))
	})

	s.discord.AddHandler(func(sess *discordgo.Session, g *discordgo.GuildDelete) {
		defer recoverHandler("GuildDelete")
		s.roster.dropGuild(g.ID)
		logging.Info("Bot removed from guild %s", g.ID)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, m *discordgo.MessageCreate) {
		defer recoverHandler("MessageCreate")
		if ev, ok := translateMessageCreate(m); ok {
			emit(ev)
		}
	})

	s.discord.AddHandler(func(sess *discordgo.Session, m *discordgo.MessageDelete) {
		defer recoverHandler("MessageDelete")
		if ev, ok := translateMessageDelete(m); ok {
			emit(ev)
		} else {
			logging.Debug("Deleted message was not cached, skipping")
		}
	})

	s.discord.AddHandler(func(sess *discordgo.Session, m *discordgo.MessageUpdate) {
		defer recoverHandler("MessageUpdate")
		if ev, ok := translateMessageUpdate(m); ok {
			emit(ev)
		}
	})

	s.discord.AddHandler(func(sess *discordgo.Session, m *discordgo.GuildMemberAdd) {
		defer recoverHandler("GuildMemberAdd")
		s.roster.remember("", m.Member)
		if ev, ok := translateMemberAdd(m, names); ok {
			emit(ev)
		}
	})

	s.discord.AddHandler(func(sess *discordgo.Session, m *discordgo.GuildMemberRemove) {
		defer recoverHandler("GuildMemberRemove")
		if m.Member == nil || m.User == nil {
			return
		}
		known, _ := s.roster.forget(m.GuildID, m.User.ID)
		if ev, ok := translateMemberRemove(m, known, names); ok {
			emit(ev)
		}
	})

	s.discord.AddHandler(func(sess *discordgo.Session, m *discordgo.GuildMemberUpdate) {
		defer recoverHandler("GuildMemberUpdate")
		s.roster.remember("", m.Member)
		if ev, ok := translateMemberUpdate(m, names); ok {
			emit(ev)
		}
	})

	s.discord.AddHandler(func(sess *discordgo.Session, c *discordgo.ChannelCreate) {
		defer recoverHandler("ChannelCreate")
		if c.Channel == nil || c.GuildID == "" {
			return
		}
		emit(audit.ChannelCreated{GuildID: c.GuildID, ChannelID: c.ID, Name: c.Name, Type: channelTypeName(c.Type)})
	})

	s.discord.AddHandler(func(sess *discordgo.Session, c *discordgo.ChannelDelete) {
		defer recoverHandler("ChannelDelete")
		if c.Channel == nil || c.GuildID == "" {
			return
		}
		emit(audit.ChannelDeleted{GuildID: c.GuildID, ChannelID: c.ID, Name: c.Name, Type: channelTypeName(c.Type)})
	})

	s.discord.AddHandler(func(sess *discordgo.Session, v *discordgo.VoiceStateUpdate) {
		defer recoverHandler("VoiceStateUpdate")
		if ev, ok := translateVoiceState(v, names); ok {
			emit(ev)
		}
	})

	logging.Info("Event handlers registered")
}

func recoverHandler(event string) {
	if r := recover(); r != nil {
		logging.Critical("Panic in %s handler: %v\n%s", event, r, debug.Stack())
	}
}

func toUser(u *discordgo.User) audit.User {
	if u == nil {
		return audit.User{}
	}
	created, _ := discordgo.SnowflakeTimestamp(u.ID)
	return audit.User{
		ID:        u.ID,
		Username:  u.String(),
		AvatarURL: u.AvatarURL(""),
		Bot:       u.Bot,
		CreatedAt: created,
	}
}

func attachmentNames(m *discordgo.Message) []string {
	if len(m.Attachments) == 0 {
		return nil
	}
	names := make([]string, 0, len(m.Attachments))
	for _, a := range m.Attachments {
		names = append(names, a.Filename)
	}
	return names
}

func translateMessageCreate(m *discordgo.MessageCreate) (audit.MessageCreated, bool) {
	if m.Message == nil || m.GuildID == "" || m.Author == nil {
		return audit.MessageCreated{}, false
	}
	return audit.MessageCreated{
		GuildID:     m.GuildID,
		ChannelID:   m.ChannelID,
		MessageID:   m.ID,
		Author:      toUser(m.Author),
		Content:     m.Content,
		Attachments: attachmentNames(m.Message),
	}, true
}

// translateMessageDelete needs the cached copy; the gateway only sends IDs.
func translateMessageDelete(m *discordgo.MessageDelete) (audit.MessageDeleted, bool) {
	old := m.BeforeDelete
	if old == nil || old.Author == nil {
		return audit.MessageDeleted{}, false
	}
	guildID := old.GuildID
	if guildID == "" && m.Message != nil {
		guildID = m.GuildID
	}
	if guildID == "" {
		return audit.MessageDeleted{}, false
	}
	return audit.MessageDeleted{
		GuildID:     guildID,
		ChannelID:   old.ChannelID,
		MessageID:   old.ID,
		Author:      toUser(old.Author),
		Content:     old.Content,
		Attachments: attachmentNames(old),
		SentAt:      old.Timestamp,
	}, true
}

func translateMessageUpdate(m *discordgo.MessageUpdate) (audit.MessageEdited, bool) {
	old := m.BeforeUpdate
	if old == nil || m.Message == nil || m.GuildID == "" {
		return audit.MessageEdited{}, false
	}
	author := m.Author
	if author == nil {
		author = old.Author
	}
	if author == nil {
		return audit.MessageEdited{}, false
	}
	return audit.MessageEdited{
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		MessageID: m.ID,
		Author:    toUser(author),
		Before:    old.Content,
		After:     m.Content,
	}, true
}

func translateMemberAdd(m *discordgo.GuildMemberAdd, names lookup) (audit.MemberJoined, bool) {
	if m.Member == nil || m.User == nil {
		return audit.MemberJoined{}, false
	}
	return audit.MemberJoined{
		GuildID:     m.GuildID,
		Member:      toUser(m.User),
		MemberCount: names.memberCount(m.GuildID),
	}, true
}

func translateMemberRemove(m *discordgo.GuildMemberRemove, known rosterEntry, names lookup) (audit.MemberLeft, bool) {
	if m.Member == nil || m.User == nil {
		return audit.MemberLeft{}, false
	}
	joined := known.joinedAt
	if joined.IsZero() {
		joined = m.JoinedAt
	}
	roleIDs := known.roles
	if roleIDs == nil {
		roleIDs = m.Roles
	}
	return audit.MemberLeft{
		GuildID:     m.GuildID,
		Member:      toUser(m.User),
		JoinedAt:    joined,
		Roles:       resolveRoles(m.GuildID, roleIDs, names),
		MemberCount: names.memberCount(m.GuildID),
	}, true
}

func translateMemberUpdate(m *discordgo.GuildMemberUpdate, names lookup) (audit.MemberUpdated, bool) {
	if m.Member == nil || m.User == nil || m.BeforeUpdate == nil {
		return audit.MemberUpdated{}, false
	}
	return audit.MemberUpdated{
		GuildID:     m.GuildID,
		Member:      toUser(m.User),
		BeforeNick:  m.BeforeUpdate.Nick,
		AfterNick:   m.Nick,
		BeforeRoles: resolveRoles(m.GuildID, m.BeforeUpdate.Roles, names),
		AfterRoles:  resolveRoles(m.GuildID, m.Roles, names),
	}, true
}

// translateVoiceState reports false for mute, deafen and stream toggles.
func translateVoiceState(v *discordgo.VoiceStateUpdate, names lookup) (audit.VoiceStateChanged, bool) {
	if v.VoiceState == nil || v.GuildID == "" {
		return audit.VoiceStateChanged{}, false
	}

	var before, after *audit.VoiceChannel
	if v.BeforeUpdate != nil && v.BeforeUpdate.ChannelID != "" {
		before = &audit.VoiceChannel{ID: v.BeforeUpdate.ChannelID, Name: names.channelName(v.BeforeUpdate.ChannelID)}
	}
	if v.ChannelID != "" {
		after = &audit.VoiceChannel{ID: v.ChannelID, Name: names.channelName(v.ChannelID)}
	}
	if _, changed := audit.ClassifyVoice(before, after); !changed {
		return audit.VoiceStateChanged{}, false
	}

	var member audit.User
	if v.Member != nil && v.Member.User != nil {
		member = toUser(v.Member.User)
	} else {
		member = audit.User{ID: v.UserID, Username: v.UserID}
	}
	if member.Bot {
		return audit.VoiceStateChanged{}, false
	}

	return audit.VoiceStateChanged{
		GuildID: v.GuildID,
		Member:  member,
		Before:  before,
		After:   after,
	}, true
}

func resolveRoles(guildID string, ids []string, names lookup) []audit.Role {
	if len(ids) == 0 {
		return nil
	}
	roles := make([]audit.Role, 0, len(ids))
	for _, id := range ids {
		name := names.roleName(guildID, id)
		if name == "" {
			name = id
		}
		roles = append(roles, audit.Role{ID: id, Name: name})
	}
	return roles
}

var channelTypeNames = map[discordgo.ChannelType]string{
	discordgo.ChannelTypeGuildText:          "Text",
	discordgo.ChannelTypeGuildVoice:         "Voice",
	discordgo.ChannelTypeGuildCategory:      "Category",
	discordgo.ChannelTypeGuildNews:          "News",
	discordgo.ChannelTypeGuildNewsThread:    "News Thread",
	discordgo.ChannelTypeGuildPublicThread:  "Public Thread",
	discordgo.ChannelTypeGuildPrivateThread: "Private Thread",
	discordgo.ChannelTypeGuildStageVoice:    "Stage Voice",
	discordgo.ChannelTypeGuildForum:         "Forum",
	discordgo.ChannelTypeGuildMedia:         "Media",
}

func channelTypeName(t discordgo.ChannelType) string {
	if name, ok := channelTypeNames[t]; ok {
		return name
	}
	return "Unknown"
}
