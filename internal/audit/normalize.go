package audit

import (
	"fmt"
	"strings"
	"time"

	"go-logbot/pkg/util"
)

const (
	// ContentLimit caps full message bodies.
	ContentLimit = 1000
	// DiffLimit caps each side of an edit.
	DiffLimit = 500

	maxListedRoles = 10
	timeLayout     = "2006-01-02 15:04:05 UTC"
)

const (
	LabelUser           = "👤 User"
	LabelUserID         = "🆔 User ID"
	LabelChannel        = "📁 Channel"
	LabelChannelID      = "🆔 Channel ID"
	LabelChannelType    = "📂 Type"
	LabelMessageID      = "🆔 Message ID"
	LabelContent        = "💬 Content"
	LabelDeletedContent = "💬 Deleted Content"
	LabelOriginalTime   = "📅 Original Time"
	LabelAttachments    = "📎 Attachments"
	LabelBefore         = "📝 Before"
	LabelAfter          = "📝 After"
	LabelJump           = "🔗 Jump to Message"
	LabelAccountCreated = "📅 Account Created"
	LabelAccountAge     = "⏰ Account Age"
	LabelMemberCount    = "👥 Member Count"
	LabelJoinedServer   = "📅 Joined Server"
	LabelTimeInServer   = "⏰ Time in Server"
	LabelRoles          = "🎭 Roles"
	LabelNickname       = "✏️ Nickname"
	LabelRolesAdded     = "➕ Roles Added"
	LabelRolesRemoved   = "➖ Roles Removed"
	LabelVoiceChannel   = "🔊 Channel"
	LabelFrom           = "🔊 From"
	LabelTo             = "🔊 To"
)

// Normalize builds the record for ev as of now. It returns false when the
// event is filtered out and nothing should be dispatched.
func Normalize(ev Event, now time.Time) (*Record, bool) {
	now = now.UTC()
	switch e := ev.(type) {
	case MessageCreated:
		return normalizeMessageCreated(e, now)
	case MessageDeleted:
		return normalizeMessageDeleted(e, now)
	case MessageEdited:
		return normalizeMessageEdited(e, now)
	case MemberJoined:
		return normalizeMemberJoined(e, now), true
	case MemberLeft:
		return normalizeMemberLeft(e, now), true
	case MemberUpdated:
		return normalizeMemberUpdated(e, now)
	case ChannelCreated:
		return normalizeChannelCreated(e, now), true
	case ChannelDeleted:
		return normalizeChannelDeleted(e, now), true
	case VoiceStateChanged:
		return normalizeVoice(e, now)
	default:
		panic(fmt.Sprintf("audit: unhandled event type %T", ev))
	}
}

func newRecord(kind Kind, guildID string, now time.Time, title string, color ColorTag) *Record {
	return &Record{
		Kind:      kind,
		GuildID:   guildID,
		Timestamp: now,
		Title:     title,
		Color:     color,
	}
}

func userValue(u User) string {
	return fmt.Sprintf("%s (%s)", u.Mention(), u.Username)
}

func channelMention(id string) string {
	return "<#" + id + ">"
}

func orPlaceholder(s, placeholder string) string {
	if s == "" {
		return placeholder
	}
	return s
}

func normalizeMessageCreated(e MessageCreated, now time.Time) (*Record, bool) {
	if e.Author.Bot {
		return nil, false
	}

	r := newRecord(KindMessageCreated, e.GuildID, now, "📝 Message Sent", ColorCreated)
	r.add(LabelUser, userValue(e.Author), true)
	r.add(LabelChannel, channelMention(e.ChannelID), true)
	r.add(LabelMessageID, e.MessageID, true)
	r.add(LabelContent, orPlaceholder(util.Truncate(e.Content, ContentLimit), "*No text content*"), false)
	if len(e.Attachments) > 0 {
		r.Attachments = append([]string(nil), e.Attachments...)
		r.add(LabelAttachments, strings.Join(e.Attachments, "\n"), false)
	}
	r.Thumbnail = e.Author.AvatarURL
	return r, true
}

func normalizeMessageDeleted(e MessageDeleted, now time.Time) (*Record, bool) {
	if e.Author.Bot {
		return nil, false
	}

	r := newRecord(KindMessageDeleted, e.GuildID, now, "🗑️ Message Deleted", ColorRemoved)
	r.add(LabelUser, userValue(e.Author), true)
	r.add(LabelChannel, channelMention(e.ChannelID), true)
	r.add(LabelMessageID, e.MessageID, true)
	r.add(LabelDeletedContent, orPlaceholder(util.Truncate(e.Content, ContentLimit), "*No text content*"), false)
	if !e.SentAt.IsZero() {
		r.add(LabelOriginalTime, e.SentAt.UTC().Format(timeLayout), true)
	}
	if len(e.Attachments) > 0 {
		r.Attachments = append([]string(nil), e.Attachments...)
		r.add(LabelAttachments, strings.Join(e.Attachments, "\n"), false)
	}
	r.Thumbnail = e.Author.AvatarURL
	return r, true
}

func normalizeMessageEdited(e MessageEdited, now time.Time) (*Record, bool) {
	if e.Author.Bot || e.Before == e.After {
		return nil, false
	}

	r := newRecord(KindMessageEdited, e.GuildID, now, "✏️ Message Edited", ColorModified)
	r.add(LabelUser, userValue(e.Author), true)
	r.add(LabelChannel, channelMention(e.ChannelID), true)
	r.add(LabelMessageID, e.MessageID, true)
	r.add(LabelBefore, orPlaceholder(util.Truncate(e.Before, DiffLimit), "*No content*"), false)
	r.add(LabelAfter, orPlaceholder(util.Truncate(e.After, DiffLimit), "*No content*"), false)
	r.add(LabelJump, fmt.Sprintf("[Click here](https://discord.com/channels/%s/%s/%s)", e.GuildID, e.ChannelID, e.MessageID), true)
	r.Thumbnail = e.Author.AvatarURL
	return r, true
}

func normalizeMemberJoined(e MemberJoined, now time.Time) *Record {
	r := newRecord(KindMemberJoined, e.GuildID, now, "📥 Member Joined", ColorCreated)
	r.add(LabelUser, userValue(e.Member), true)
	r.add(LabelUserID, e.Member.ID, true)
	if !e.Member.CreatedAt.IsZero() {
		r.add(LabelAccountCreated, e.Member.CreatedAt.UTC().Format(timeLayout), true)
	}
	if e.MemberCount > 0 {
		r.add(LabelMemberCount, fmt.Sprint(e.MemberCount), true)
	}
	if !e.Member.CreatedAt.IsZero() {
		r.add(LabelAccountAge, fmt.Sprintf("%d days old", util.DaysBetween(e.Member.CreatedAt, now)), true)
	}
	r.Thumbnail = e.Member.AvatarURL
	return r
}

func normalizeMemberLeft(e MemberLeft, now time.Time) *Record {
	r := newRecord(KindMemberLeft, e.GuildID, now, "📤 Member Left", ColorRemoved)
	r.add(LabelUser, userValue(e.Member), true)
	r.add(LabelUserID, e.Member.ID, true)
	joined := "Unknown"
	if !e.JoinedAt.IsZero() {
		joined = e.JoinedAt.UTC().Format(timeLayout)
	}
	r.add(LabelJoinedServer, joined, true)
	if e.MemberCount > 0 {
		r.add(LabelMemberCount, fmt.Sprint(e.MemberCount), true)
	}
	if !e.JoinedAt.IsZero() {
		r.add(LabelTimeInServer, fmt.Sprintf("%d days", util.DaysBetween(e.JoinedAt, now)), true)
	}
	if names := roleNames(e.Roles, maxListedRoles); len(names) > 0 {
		r.add(LabelRoles, strings.Join(names, ", "), false)
	}
	r.Thumbnail = e.Member.AvatarURL
	return r
}

func normalizeMemberUpdated(e MemberUpdated, now time.Time) (*Record, bool) {
	added := roleDifference(e.AfterRoles, e.BeforeRoles)
	removed := roleDifference(e.BeforeRoles, e.AfterRoles)
	nickChanged := e.BeforeNick != e.AfterNick

	if !nickChanged && len(added) == 0 && len(removed) == 0 {
		return nil, false
	}

	r := newRecord(KindMemberUpdated, e.GuildID, now, "👤 Member Updated", ColorInfo)
	r.add(LabelUser, userValue(e.Member), true)
	if nickChanged {
		r.add(LabelNickname, fmt.Sprintf("`%s` → `%s`", orPlaceholder(e.BeforeNick, "None"), orPlaceholder(e.AfterNick, "None")), false)
	}
	if len(added) > 0 {
		r.add(LabelRolesAdded, strings.Join(roleNames(added, 0), ", "), false)
	}
	if len(removed) > 0 {
		r.add(LabelRolesRemoved, strings.Join(roleNames(removed, 0), ", "), false)
	}
	r.Thumbnail = e.Member.AvatarURL
	return r, true
}

func normalizeChannelCreated(e ChannelCreated, now time.Time) *Record {
	r := newRecord(KindChannelCreated, e.GuildID, now, "📁 Channel Created", ColorCreated)
	r.add(LabelChannel, fmt.Sprintf("%s (`%s`)", channelMention(e.ChannelID), e.Name), true)
	r.add(LabelChannelID, e.ChannelID, true)
	r.add(LabelChannelType, e.Type, true)
	return r
}

func normalizeChannelDeleted(e ChannelDeleted, now time.Time) *Record {
	r := newRecord(KindChannelDeleted, e.GuildID, now, "🗑️ Channel Deleted", ColorRemoved)
	r.add(LabelChannel, fmt.Sprintf("`%s`", e.Name), true)
	r.add(LabelChannelID, e.ChannelID, true)
	r.add(LabelChannelType, e.Type, true)
	return r
}

// roleDifference returns the roles of a that are not in b, in a's order.
func roleDifference(a, b []Role) []Role {
	if len(a) == 0 {
		return nil
	}
	in := make(map[string]struct{}, len(b))
	for _, r := range b {
		in[r.ID] = struct{}{}
	}
	var out []Role
	for _, r := range a {
		if _, ok := in[r.ID]; !ok {
			out = append(out, r)
		}
	}
	return out
}

func roleNames(roles []Role, limit int) []string {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		if limit > 0 && len(names) == limit {
			break
		}
		names = append(names, orPlaceholder(r.Name, r.ID))
	}
	return names
}
