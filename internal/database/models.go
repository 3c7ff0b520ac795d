package database

// ModAction is one successful moderation command.
type ModAction struct {
	ID          int64
	CaseID      string
	GuildID     string
	Action      string // "kick", "ban", "unban", "mute", "unmute", "purge", "warn", "globalban"
	ModeratorID string
	TargetID    string
	Reason      string
	CreatedAt   int64
}
