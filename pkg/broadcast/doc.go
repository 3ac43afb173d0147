// Package broadcast provides type-safe one-to-many message delivery.
//
// The memory implementation has two delivery modes:
//
//   - By default a subscriber whose buffer is full is dropped, which suits
//     streams where every message matters and a stuck consumer should be
//     disconnected (push sockets).
//   - WithConflation keeps slow subscribers and replaces the oldest buffered
//     message with the newest one, which suits state snapshots where only the
//     latest value matters.
//
// Basic usage:
//
//	b := broadcast.NewMemoryBroadcaster[Snapshot](1, broadcast.WithConflation())
//	defer b.Close()
//
//	sub := b.Subscribe(ctx)
//	defer sub.Close()
//
//	b.Broadcast(ctx, broadcast.Message[Snapshot]{Data: snap})
//	for msg := range sub.Receive(ctx) {
//		render(msg.Data)
//	}
//
// Subscriptions end when their context is canceled, when Close is called on
// them, or when the broadcaster is closed.
package broadcast
