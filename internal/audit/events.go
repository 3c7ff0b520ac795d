package audit

import "time"

// Event is one of the nine guild activity variants below.
type Event interface {
	Kind() Kind
	Guild() string
	sealed()
}

type User struct {
	ID        string
	Username  string
	AvatarURL string
	Bot       bool
	CreatedAt time.Time
}

func (u User) Mention() string { return "<@" + u.ID + ">" }

type Role struct {
	ID   string
	Name string
}

type VoiceChannel struct {
	ID   string
	Name string
}

type MessageCreated struct {
	GuildID     string
	ChannelID   string
	MessageID   string
	Author      User
	Content     string
	Attachments []string
}

type MessageDeleted struct {
	GuildID     string
	ChannelID   string
	MessageID   string
	Author      User
	Content     string
	Attachments []string
	SentAt      time.Time
}

type MessageEdited struct {
	GuildID   string
	ChannelID string
	MessageID string
	Author    User
	Before    string
	After     string
}

type MemberJoined struct {
	GuildID     string
	Member      User
	MemberCount int
}

type MemberLeft struct {
	GuildID     string
	Member      User
	JoinedAt    time.Time
	Roles       []Role
	MemberCount int
}

type MemberUpdated struct {
	GuildID     string
	Member      User
	BeforeNick  string
	AfterNick   string
	BeforeRoles []Role
	AfterRoles  []Role
}

type ChannelCreated struct {
	GuildID   string
	ChannelID string
	Name      string
	Type      string
}

type ChannelDeleted struct {
	GuildID   string
	ChannelID string
	Name      string
	Type      string
}

// VoiceStateChanged carries nil for "not in a voice channel".
type VoiceStateChanged struct {
	GuildID string
	Member  User
	Before  *VoiceChannel
	After   *VoiceChannel
}

func (MessageCreated) Kind() Kind    { return KindMessageCreated }
func (MessageDeleted) Kind() Kind    { return KindMessageDeleted }
func (MessageEdited) Kind() Kind     { return KindMessageEdited }
func (MemberJoined) Kind() Kind      { return KindMemberJoined }
func (MemberLeft) Kind() Kind        { return KindMemberLeft }
func (MemberUpdated) Kind() Kind     { return KindMemberUpdated }
func (ChannelCreated) Kind() Kind    { return KindChannelCreated }
func (ChannelDeleted) Kind() Kind    { return KindChannelDeleted }
func (VoiceStateChanged) Kind() Kind { return KindVoiceStateChanged }

func (e MessageCreated) Guild() string    { return e.GuildID }
func (e MessageDeleted) Guild() string    { return e.GuildID }
func (e MessageEdited) Guild() string     { return e.GuildID }
func (e MemberJoined) Guild() string      { return e.GuildID }
func (e MemberLeft) Guild() string        { return e.GuildID }
func (e MemberUpdated) Guild() string     { return e.GuildID }
func (e ChannelCreated) Guild() string    { return e.GuildID }
func (e ChannelDeleted) Guild() string    { return e.GuildID }
func (e VoiceStateChanged) Guild() string { return e.GuildID }

func (MessageCreated) sealed()    {}
func (MessageDeleted) sealed()    {}
func (MessageEdited) sealed()     {}
func (MemberJoined) sealed()      {}
func (MemberLeft) sealed()        {}
func (MemberUpdated) sealed()     {}
func (ChannelCreated) sealed()    {}
func (ChannelDeleted) sealed()    {}
func (VoiceStateChanged) sealed() {}
