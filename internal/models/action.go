package models

// ActionType identifies a moderation command.
type ActionType uint8

const (
	ActionKick ActionType = iota + 1
	ActionBan
	ActionUnban
	ActionMute
	ActionUnmute
	ActionPurge
	ActionWarn
	ActionGlobalBan
)

func (t ActionType) String() string {
	switch t {
	case ActionKick:
		return "kick"
	case ActionBan:
		return "ban"
	case ActionUnban:
		return "unban"
	case ActionMute:
		return "mute"
	case ActionUnmute:
		return "unmute"
	case ActionPurge:
		return "purge"
	case ActionWarn:
		return "warn"
	case ActionGlobalBan:
		return "globalban"
	default:
		return "unknown"
	}
}

// Action is a single moderation request issued by a command.
type Action struct {
	Type        ActionType
	GuildID     string
	ChannelID   string
	ModeratorID string
	TargetID    string
	Reason      string
	Amount      int
}

func NewAction(actionType ActionType, guildID, moderatorID, targetID, reason string) *Action {
	return &Action{
		Type:        actionType,
		GuildID:     guildID,
		ModeratorID: moderatorID,
		TargetID:    targetID,
		Reason:      reason,
	}
}

func NewBanAction(guildID, moderatorID, targetID, reason string) *Action {
	return NewAction(ActionBan, guildID, moderatorID, targetID, reason)
}

func NewKickAction(guildID, moderatorID, targetID, reason string) *Action {
	return NewAction(ActionKick, guildID, moderatorID, targetID, reason)
}

// AuditReason is the text attached to the guild audit log entry.
func (a *Action) AuditReason() string {
	if a.Reason == "" {
		return "No reason provided"
	}
	return a.Reason
}
