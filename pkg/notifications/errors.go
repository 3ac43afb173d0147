package notifications

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a mutation targets an id the store does not hold.
	ErrNotFound = errors.New("notification not found")

	// ErrMalformedMessage wraps every push payload decoding failure.
	ErrMalformedMessage = errors.New("malformed push message")

	// ErrMissingID is returned when a record without an id is handed to the store.
	ErrMissingID = errors.New("notification id is required")
)

// Op names an optimistic mutation.
type Op string

const (
	OpMarkRead    Op = "mark-read"
	OpMarkAllRead Op = "mark-all-read"
	OpRemove      Op = "delete"
)

// MutationError reports a mutation whose remote call failed and whose local
// effect has been rolled back.
type MutationError struct {
	Op  Op
	ID  string
	Err error
}

func (e *MutationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("notifications: %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("notifications: %s %s failed: %v", e.Op, e.ID, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

// UserMessage returns a short, recoverable message suitable for display.
func (e *MutationError) UserMessage() string {
	switch e.Op {
	case OpMarkRead:
		return "Could not mark the notification as read. Please try again."
	case OpMarkAllRead:
		return "Could not mark all notifications as read. Please try again."
	case OpRemove:
		return "Could not delete the notification. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}
