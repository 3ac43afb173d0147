package devserver

import (
	"encoding/json"
	"time"

	"github.com/dmitrymomot/garagedesk/pkg/notifications"
)

func recordFrame(n notifications.Notification) ([]byte, error) {
	ts, err := json.Marshal(n.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, err
	}
	msg := notifications.PushMessage{
		ID:        n.ID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		Details:   n.Details,
		Timestamp: ts,
		EntityID:  n.EntityID,
		UserID:    n.UserID,
		Read:      n.Read,
		Status:    n.Status,
	}
	if n.Progress != nil {
		p := float64(*n.Progress)
		msg.Progress = &p
	}
	return json.Marshal(msg)
}

func unreadCountFrame(count int) []byte {
	data, _ := json.Marshal(notifications.PushMessage{
		Type:  notifications.TypeUnreadCount,
		Count: &count,
	})
	return data
}
