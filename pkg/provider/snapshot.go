package provider

import (
	"strings"

	"github.com/dmitrymomot/garagedesk/pkg/notifications"
	"github.com/dmitrymomot/garagedesk/pkg/realtime"
)

// Snapshot is a read-only view of the provider state at one instant.
type Snapshot struct {
	UserID        string                       `json:"userId"`
	Notifications []notifications.Notification `json:"notifications"`
	UnreadCount   int                          `json:"unreadCount"`
	IsConnected   bool                         `json:"isConnected"`
	State         realtime.State               `json:"state"`
	Loading       bool                         `json:"loading"`
	// Error is the seed-fetch failure banner; empty when the last fetch succeeded.
	Error string `json:"error,omitempty"`
	// MutationError is the message of the last failed mutation, cleared by the next success.
	MutationError string                      `json:"mutationError,omitempty"`
	Toast         *notifications.Notification `json:"toast,omitempty"`
}

// ReadFilter selects records by read state.
type ReadFilter int

const (
	FilterAll ReadFilter = iota
	FilterUnread
	FilterRead
)

// ParseReadFilter maps "all", "unread" and "read" to a ReadFilter.
func ParseReadFilter(s string) ReadFilter {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unread":
		return FilterUnread
	case "read":
		return FilterRead
	default:
		return FilterAll
	}
}

func (f ReadFilter) String() string {
	switch f {
	case FilterUnread:
		return "unread"
	case FilterRead:
		return "read"
	default:
		return "all"
	}
}

// Filter returns the records matching f, in display order.
func (s Snapshot) Filter(f ReadFilter) []notifications.Notification {
	if f == FilterAll {
		return s.Notifications
	}
	out := make([]notifications.Notification, 0, len(s.Notifications))
	for _, n := range s.Notifications {
		if n.Read == (f == FilterRead) {
			out = append(out, n)
		}
	}
	return out
}
