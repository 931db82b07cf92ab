package kintone

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMalformedPayload means the body is not a decodable JSON event.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrInvalidPayload means the body decoded but is not an event object.
	ErrInvalidPayload = errors.New("invalid payload")
)

/* Event is the parsed form of a kintone webhook notification.
 * Missing fields decode to empty strings.
 */
type Event struct {
	Type         EventType
	RawType      string
	AppID        string
	AppName      string
	RecordID     string
	RecordURL    string
	ModifierName string
	CreatorName  string
}

// text accepts both JSON strings and numbers; kintone sends ids either way.
type text string

func (t *text) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*t = text(n.String())
	return nil
}

type user struct {
	Code text `json:"code"`
	Name text `json:"name"`
}

type webhookBody struct {
	Type text `json:"type"`
	App  struct {
		ID   text `json:"id"`
		Name text `json:"name"`
	} `json:"app"`
	Record struct {
		ID       text `json:"id"`
		Modifier user `json:"modifier"`
		Creator  user `json:"creator"`
	} `json:"record"`
	// DELETE_RECORD notifications carry the id at the top level.
	RecordID text `json:"recordId"`
	URL      text `json:"url"`
}

// Parse decodes a webhook body. Decode failures wrap ErrMalformedPayload,
// a JSON null wraps ErrInvalidPayload. A missing type parses as Other.
func Parse(data []byte) (Event, error) {
	var body *webhookBody
	if err := json.Unmarshal(data, &body); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if body == nil {
		return Event{}, fmt.Errorf("%w: event must be a JSON object", ErrInvalidPayload)
	}

	recordID := body.Record.ID
	if recordID == "" {
		recordID = body.RecordID
	}

	return Event{
		Type:         NewEventType(string(body.Type)),
		RawType:      string(body.Type),
		AppID:        string(body.App.ID),
		AppName:      string(body.App.Name),
		RecordID:     string(recordID),
		RecordURL:    string(body.URL),
		ModifierName: string(body.Record.Modifier.Name),
		CreatorName:  string(body.Record.Creator.Name),
	}, nil
}
