package notifications

import "context"

// Remote is the REST collaborator that persists notifications server-side.
// Implementations are bound to one authenticated user.
type Remote interface {
	List(ctx context.Context, opts ListOptions) ([]Notification, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	Delete(ctx context.Context, id string) error
}

// ListOptions filters the history fetch.
type ListOptions struct {
	UnreadOnly bool
}
