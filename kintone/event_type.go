package kintone

import "fmt"

// EventType classifies a record change notification.
type EventType int

const (
	RecordAdded EventType = iota + 1
	RecordUpdated
	RecordDeleted
	Other
)

// String returns the kintone wire name of the event type
func (t EventType) String() string {
	switch t {
	case RecordAdded:
		return "ADD_RECORD"
	case RecordUpdated:
		return "UPDATE_RECORD"
	case RecordDeleted:
		return "DELETE_RECORD"
	case Other:
		return "OTHER"
	default:
		return "unknown"
	}
}

// NewEventType maps a wire name to an EventType. Unknown names map to Other.
func NewEventType(str string) EventType {
	switch str {
	case "ADD_RECORD":
		return RecordAdded
	case "UPDATE_RECORD":
		return RecordUpdated
	case "DELETE_RECORD":
		return RecordDeleted
	default:
		return Other
	}
}

// Validate checks if the event type is valid
func (t EventType) Validate() error {
	if t < RecordAdded || t > Other {
		return fmt.Errorf("invalid event type: %d", t)
	}
	return nil
}
