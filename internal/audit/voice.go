package audit

import "time"

type VoiceTransition uint8

const (
	VoiceJoined VoiceTransition = iota + 1
	VoiceLeft
	VoiceMoved
)

func (v VoiceTransition) String() string {
	switch v {
	case VoiceJoined:
		return "Joined"
	case VoiceLeft:
		return "Left"
	case VoiceMoved:
		return "Moved"
	default:
		return "None"
	}
}

// ClassifyVoice reports false when the member did not change channel.
func ClassifyVoice(before, after *VoiceChannel) (VoiceTransition, bool) {
	switch {
	case before == nil && after == nil:
		return 0, false
	case before == nil:
		return VoiceJoined, true
	case after == nil:
		return VoiceLeft, true
	case before.ID == after.ID:
		return 0, false
	default:
		return VoiceMoved, true
	}
}

func voiceName(c *VoiceChannel) string {
	if c.Name != "" {
		return c.Name
	}
	return channelMention(c.ID)
}

func normalizeVoice(e VoiceStateChanged, now time.Time) (*Record, bool) {
	transition, changed := ClassifyVoice(e.Before, e.After)
	if !changed {
		return nil, false
	}

	var r *Record
	switch transition {
	case VoiceJoined:
		r = newRecord(KindVoiceStateChanged, e.GuildID, now, "🔊 Voice Channel Joined", ColorCreated)
		r.add(LabelUser, userValue(e.Member), true)
		r.add(LabelVoiceChannel, voiceName(e.After), true)
	case VoiceLeft:
		r = newRecord(KindVoiceStateChanged, e.GuildID, now, "🔇 Voice Channel Left", ColorRemoved)
		r.add(LabelUser, userValue(e.Member), true)
		r.add(LabelVoiceChannel, voiceName(e.Before), true)
	case VoiceMoved:
		r = newRecord(KindVoiceStateChanged, e.GuildID, now, "🔄 Voice Channel Moved", ColorInfo)
		r.add(LabelUser, userValue(e.Member), true)
		r.add(LabelFrom, voiceName(e.Before), true)
		r.add(LabelTo, voiceName(e.After), true)
	}
	r.Thumbnail = e.Member.AvatarURL
	return r, true
}
