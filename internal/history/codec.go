package history

import (
	"bytes"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// record also accepts the older {"timestamp","human","ai"} exchange layout.
type record struct {
	Role      Role   `json:"role"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`

	Human *string `json:"human,omitempty"`
	AI    *string `json:"ai,omitempty"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999", // naive UTC, as written by the legacy tool
	"2006-01-02T15:04:05",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func encode(conv Conversation) ([]byte, error) {
	if conv == nil {
		conv = Conversation{}
	}
	return json.MarshalIndent(conv, "", "  ")
}

// decode treats blank input as an empty conversation.
func decode(data []byte) (Conversation, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Conversation{}, nil
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageCorrupt, err)
	}

	conv := make(Conversation, 0, len(records))
	for i, r := range records {
		ts, err := parseTimestamp(r.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrStorageCorrupt, i, err)
		}

		if r.Role == "" && (r.Human != nil || r.AI != nil) {
			if r.Human != nil {
				conv = append(conv, Turn{Role: RoleUser, Text: *r.Human, Timestamp: ts})
			}
			if r.AI != nil {
				conv = append(conv, Turn{Role: RoleAssistant, Text: *r.AI, Timestamp: ts})
			}
			continue
		}

		if !r.Role.Valid() {
			return nil, fmt.Errorf("%w: record %d: unknown role %q", ErrStorageCorrupt, i, r.Role)
		}
		conv = append(conv, Turn{Role: r.Role, Text: r.Text, Timestamp: ts})
	}
	return conv, nil
}
