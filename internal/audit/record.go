// Package audit turns guild activity into log records.
package audit

import "time"

type Kind uint8

const (
	KindMessageCreated Kind = iota + 1
	KindMessageDeleted
	KindMessageEdited
	KindMemberJoined
	KindMemberLeft
	KindMemberUpdated
	KindChannelCreated
	KindChannelDeleted
	KindVoiceStateChanged
	// KindModerationAction marks command confirmations, not gateway events.
	KindModerationAction
)

func (k Kind) String() string {
	switch k {
	case KindMessageCreated:
		return "MessageCreated"
	case KindMessageDeleted:
		return "MessageDeleted"
	case KindMessageEdited:
		return "MessageEdited"
	case KindMemberJoined:
		return "MemberJoined"
	case KindMemberLeft:
		return "MemberLeft"
	case KindMemberUpdated:
		return "MemberUpdated"
	case KindChannelCreated:
		return "ChannelCreated"
	case KindChannelDeleted:
		return "ChannelDeleted"
	case KindVoiceStateChanged:
		return "VoiceStateChanged"
	case KindModerationAction:
		return "ModerationAction"
	default:
		return "Unknown"
	}
}

// ColorTag is the category of a record; the renderer picks the actual color.
type ColorTag uint8

const (
	ColorInfo ColorTag = iota
	ColorCreated
	ColorRemoved
	ColorModified
	ColorWarning
	ColorCritical
	ColorCaution
)

type Field struct {
	Label  string
	Value  string
	Inline bool
}

// Record is built once per event and not modified afterwards.
type Record struct {
	Kind        Kind
	GuildID     string
	Timestamp   time.Time
	Title       string
	Description string
	Color       ColorTag
	Fields      []Field
	Thumbnail   string
	Attachments []string
}

// Field returns the value of the first field with the given label.
func (r *Record) Field(label string) (string, bool) {
	for _, f := range r.Fields {
		if f.Label == label {
			return f.Value, true
		}
	}
	return "", false
}

func (r *Record) add(label, value string, inline bool) {
	r.Fields = append(r.Fields, Field{Label: label, Value: value, Inline: inline})
}

// NewActionRecord starts a moderation confirmation record.
func NewActionRecord(guildID, title, description string, color ColorTag, now time.Time) *Record {
	return &Record{
		Kind:        KindModerationAction,
		GuildID:     guildID,
		Timestamp:   now.UTC(),
		Title:       title,
		Description: description,
		Color:       color,
	}
}

// With appends a field and returns r so confirmations can be built inline.
func (r *Record) With(label, value string, inline bool) *Record {
	r.add(label, value, inline)
	return r
}
