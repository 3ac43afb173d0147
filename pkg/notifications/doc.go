// Package notifications holds the client-side source of truth for a user's
// notifications: the record model, the push payload decoder and the Store that
// merges REST history with live pushes.
//
// # Store
//
// Store keeps exactly one record per id, ordered by CreatedAt descending (ties:
// most recently inserted first). The unread count is always derived from the
// records, never tracked separately.
//
// History fetched over REST replaces the collection wholesale with Seed. Live
// pushes go through Merge, which is idempotent: a redelivered record is
// ignored, and an existing record is only replaced by a strictly newer one.
//
// Mutations (MarkRead, MarkAllRead, Remove) are optimistic. The local change is
// applied first, the Remote collaborator is called, and the change is undone
// if the call fails. Mutations on the same id are serialized; a second one
// waits for the first to settle.
//
//	store := notifications.NewStore(apiClient,
//	    notifications.WithLogger(log),
//	    notifications.WithChangeHook(publishSnapshot),
//	)
//	if err := store.Load(ctx); err != nil {
//	    // show the error banner, offer retry
//	}
//	if err := store.MarkRead(ctx, id); err != nil {
//	    var mErr *notifications.MutationError
//	    if errors.As(err, &mErr) {
//	        showToast(mErr.UserMessage())
//	    }
//	}
//
// # Push payloads
//
// ParseMessage turns a raw push frame into an Inbound value: either a
// candidate record or a standalone unread-count update.
package notifications
