package discord

// Embed colours per event type.
const (
	ColorAdded   = 0x00FF00
	ColorUpdated = 0xFFA500
	ColorDeleted = 0xFF0000
	ColorOther   = 0x0099FF
)

// TimestampLayout is the embed timestamp format, always rendered in UTC.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Message is the JSON body of a Discord webhook execution.
type Message struct {
	Username  string  `json:"username"`
	AvatarURL string  `json:"avatar_url,omitempty"`
	Content   string  `json:"content,omitempty"`
	Embeds    []Embed `json:"embeds,omitempty"`
}

type Embed struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	URL         string  `json:"url,omitempty"`
	Color       int     `json:"color"`
	Fields      []Field `json:"fields,omitempty"`
	Timestamp   string  `json:"timestamp"`
	Footer      *Footer `json:"footer,omitempty"`
}

type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type Footer struct {
	Text string `json:"text"`
}
