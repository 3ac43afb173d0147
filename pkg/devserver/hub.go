package devserver

import (
	"context"

	"github.com/dmitrymomot/garagedesk/pkg/broadcast"
	"github.com/dmitrymomot/garagedesk/pkg/cache"
)

// Hub fans push frames out to every open socket of a user. At most capacity
// users keep a broadcaster; the least recently subscribed one is closed when
// the limit is exceeded, which ends its sockets.
type Hub struct {
	users      *cache.LRU[string, *broadcast.MemoryBroadcaster[[]byte]]
	bufferSize int
}

func NewHub(capacity, bufferSize int) *Hub {
	users := cache.NewLRU[string, *broadcast.MemoryBroadcaster[[]byte]](capacity)
	users.OnEvict(func(_ string, b *broadcast.MemoryBroadcaster[[]byte]) {
		_ = b.Close()
	})
	return &Hub{users: users, bufferSize: bufferSize}
}

// Subscribe registers a socket for userID until ctx ends or the
// subscription is closed.
func (h *Hub) Subscribe(ctx context.Context, userID string) broadcast.Subscriber[[]byte] {
	b, _ := h.users.GetOrPut(userID, func() *broadcast.MemoryBroadcaster[[]byte] {
		return broadcast.NewMemoryBroadcaster[[]byte](h.bufferSize)
	})
	return b.Subscribe(ctx)
}

// Publish sends frame to userID's sockets. Users with no broadcaster are
// skipped.
func (h *Hub) Publish(ctx context.Context, userID string, frame []byte) error {
	b, ok := h.users.Peek(userID)
	if !ok {
		return nil
	}
	return b.Broadcast(ctx, broadcast.Message[[]byte]{Data: frame})
}

// Subscribers reports how many sockets userID has open.
func (h *Hub) Subscribers(userID string) int {
	b, ok := h.users.Peek(userID)
	if !ok {
		return 0
	}
	return b.Len()
}

// Close ends every subscription.
func (h *Hub) Close() error {
	h.users.Clear()
	return nil
}
