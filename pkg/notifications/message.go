package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// TypeUnreadCount marks a push frame that only carries the server's unread count.
const TypeUnreadCount = "UNREAD_COUNT"

// Inbound is the decoded form of one push frame. Exactly one of Record and
// UnreadCount is set.
type Inbound struct {
	Record      *Notification
	UnreadCount *int
	// Synthesized is true when the payload carried no id and one was generated
	// locally; such records cannot be deduplicated against server history.
	Synthesized bool
}

// PushMessage is the wire shape of a push frame. Every field is optional.
type PushMessage struct {
	ID        string          `json:"id,omitempty"`
	EventID   string          `json:"eventId,omitempty"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Details   string          `json:"details,omitempty"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
	EntityID  string          `json:"entityId,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	Read      bool            `json:"read,omitempty"`
	Data      map[string]any  `json:"data,omitempty"`
	Progress  *float64        `json:"progress,omitempty"`
	Status    string          `json:"status,omitempty"`
	Count     *int            `json:"count,omitempty"`
}

// ParseMessage decodes a push frame. now is used when the payload has no timestamp.
// Every error wraps ErrMalformedMessage.
func ParseMessage(data []byte, now time.Time) (Inbound, error) {
	var msg PushMessage
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&msg); err != nil {
		return Inbound{}, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	if msg.Type == TypeUnreadCount {
		count, ok := unreadCount(msg)
		if !ok {
			return Inbound{}, fmt.Errorf("%w: unread count update without count", ErrMalformedMessage)
		}
		return Inbound{UnreadCount: &count}, nil
	}

	createdAt := now
	if len(msg.Timestamp) > 0 && string(msg.Timestamp) != "null" {
		ts, err := parseTimestamp(msg.Timestamp)
		if err != nil {
			return Inbound{}, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
		}
		createdAt = ts
	}

	n := Notification{
		ID:        resolveID(msg),
		UserID:    msg.UserID,
		Type:      ParseType(msg.Type),
		Title:     msg.Title,
		Message:   msg.Message,
		Details:   msg.Details,
		CreatedAt: createdAt,
		Read:      msg.Read,
		EntityID:  msg.EntityID,
		Status:    msg.Status,
	}
	if n.Details == "" {
		n.Details = stringField(msg.Data, "details")
	}
	if msg.Progress != nil {
		p := ClampProgress(int(math.Round(*msg.Progress)))
		n.Progress = &p
	}

	in := Inbound{Record: &n}
	if n.ID == "" {
		n.ID = uuid.NewString()
		in.Synthesized = true
	}
	return in, nil
}

func resolveID(msg PushMessage) string {
	if msg.ID != "" {
		return msg.ID
	}
	for _, key := range []string{"id", "notificationId"} {
		if id := stringField(msg.Data, key); id != "" {
			return id
		}
	}
	return msg.EventID
}

func unreadCount(msg PushMessage) (int, bool) {
	if msg.Count != nil {
		return max(*msg.Count, 0), true
	}
	if v, ok := msg.Data["count"].(float64); ok {
		return max(int(v), 0), true
	}
	return 0, false
}

func stringField(data map[string]any, key string) string {
	switch v := data[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// parseTimestamp accepts RFC 3339 strings and Unix epoch milliseconds.
func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("timestamp %q: %w", s, err)
		}
		return ts, nil
	}

	var ms float64
	if err := json.Unmarshal(raw, &ms); err != nil {
		return time.Time{}, fmt.Errorf("timestamp %s: not a string or number", raw)
	}
	return time.UnixMilli(int64(ms)), nil
}
