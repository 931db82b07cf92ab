package discord

import (
	"fmt"
	"time"

	"github.com/tuikaDLC/Kincord/kintone"
)

// Formatter turns kintone events into Discord messages.
type Formatter struct {
	Locale Locale
	Now    func() time.Time
}

// NewFormatter creates a formatter for the given locale tag.
func NewFormatter(locale string) Formatter {
	return Formatter{Locale: LocaleFor(locale), Now: time.Now}
}

// Format builds a single-embed message. It never fails: unknown event types
// render with the generic title and colour.
func (f Formatter) Format(ev kintone.Event, username, avatarURL string) Message {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	loc := f.Locale
	if loc.Titles == nil {
		loc = English
	}

	fields := []Field{{Name: loc.RecordID, Value: ev.RecordID, Inline: true}}
	if ev.ModifierName != "" {
		fields = append(fields, Field{Name: loc.Modifier, Value: ev.ModifierName, Inline: true})
	}
	if ev.CreatorName != "" && ev.Type == kintone.RecordAdded {
		fields = append(fields, Field{Name: loc.Creator, Value: ev.CreatorName, Inline: true})
	}

	return Message{
		Username:  username,
		AvatarURL: avatarURL,
		Embeds: []Embed{{
			Title:       loc.title(ev.Type),
			Description: fmt.Sprintf(loc.Description, ev.AppName),
			URL:         ev.RecordURL,
			Color:       Color(ev.Type),
			Fields:      fields,
			Timestamp:   now().UTC().Format(TimestampLayout),
			Footer:      &Footer{Text: loc.Footer},
		}},
	}
}

// Format formats with the English catalogue and the wall clock.
func Format(ev kintone.Event, username, avatarURL string) Message {
	return NewFormatter("en").Format(ev, username, avatarURL)
}

// Color returns the embed colour for an event type.
func Color(t kintone.EventType) int {
	switch t {
	case kintone.RecordAdded:
		return ColorAdded
	case kintone.RecordUpdated:
		return ColorUpdated
	case kintone.RecordDeleted:
		return ColorDeleted
	default:
		return ColorOther
	}
}
