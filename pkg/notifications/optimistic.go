package notifications

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/garagedesk/pkg/logger"
)

// errNothingToDo lets apply short-circuit a command that would not change anything.
var errNothingToDo = errors.New("nothing to do")

// command is one optimistic mutation. apply runs under the store lock and
// returns settle, which runs under the lock once the remote call returned;
// failed tells settle to invert what apply did.
type command struct {
	op     Op
	id     string
	keys   func() []string
	apply  func(keys []string) (settle func(failed bool), err error)
	remote func(ctx context.Context) error
}

// exec runs cmd: lock its ids, apply locally, call the remote, settle.
func (s *Store) exec(ctx context.Context, cmd command) error {
	keys := cmd.keys()
	unlock, err := s.locks.lock(ctx, keys...)
	if err != nil {
		return &MutationError{Op: cmd.op, ID: cmd.id, Err: err}
	}
	defer unlock()

	s.mu.Lock()
	epoch := s.epoch
	settle, err := cmd.apply(keys)
	s.mu.Unlock()
	switch {
	case errors.Is(err, errNothingToDo):
		return nil
	case err != nil:
		return &MutationError{Op: cmd.op, ID: cmd.id, Err: err}
	}
	s.changed()

	start := time.Now()
	remoteErr := cmd.remote(ctx)

	s.mu.Lock()
	current := s.epoch == epoch
	if current {
		settle(remoteErr != nil)
	}
	s.mu.Unlock()

	if remoteErr == nil {
		return nil
	}

	if current {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "optimistic mutation rolled back",
			logger.Op(string(cmd.op)),
			logger.NotificationID(cmd.id),
			logger.Duration(time.Since(start)),
			logger.Error(remoteErr),
		)
		s.changed()
	}
	return &MutationError{Op: cmd.op, ID: cmd.id, Err: remoteErr}
}

// MarkRead optimistically marks id read and confirms with the remote. On
// failure the flag is restored and a *MutationError is returned. Marking an
// already-read record is a no-op.
func (s *Store) MarkRead(ctx context.Context, id string) error {
	return s.exec(ctx, command{
		op:   OpMarkRead,
		id:   id,
		keys: func() []string { return []string{id} },
		apply: func([]string) (func(bool), error) {
			r, ok := s.byID[id]
			if !ok {
				return nil, ErrNotFound
			}
			if r.n.Read {
				return nil, errNothingToDo
			}
			return s.markReadLocked([]*record{r}), nil
		},
		remote: func(ctx context.Context) error { return s.remote.MarkRead(ctx, id) },
	})
}

// MarkAllRead optimistically marks every unread record read and issues one
// remote call. On failure the whole batch rolls back together.
func (s *Store) MarkAllRead(ctx context.Context) error {
	return s.exec(ctx, command{
		op:   OpMarkAllRead,
		keys: s.unreadIDs,
		apply: func(keys []string) (func(bool), error) {
			batch := make([]*record, 0, len(keys))
			for _, id := range keys {
				if r, ok := s.byID[id]; ok && !r.n.Read {
					batch = append(batch, r)
				}
			}
			return s.markReadLocked(batch), nil
		},
		remote: s.remote.MarkAllRead,
	})
}

// Remove optimistically deletes id and confirms with the remote. On failure
// the latest known version of the record is put back in its sorted position.
func (s *Store) Remove(ctx context.Context, id string) error {
	return s.exec(ctx, command{
		op:   OpRemove,
		id:   id,
		keys: func() []string { return []string{id} },
		apply: func([]string) (func(bool), error) {
			r := s.removeLocked(id)
			if r == nil {
				return nil, ErrNotFound
			}
			s.removePending[id] = r
			return func(failed bool) {
				stash := s.removePending[id]
				delete(s.removePending, id)
				if failed && stash != nil {
					if _, exists := s.byID[id]; !exists {
						s.insertLocked(stash)
					}
				}
			}, nil
		},
		remote: func(ctx context.Context) error { return s.remote.Delete(ctx, id) },
	})
}

// unreadIDs lists the records a mark-all batch must cover. Records with a
// mark-read still in flight are included so the batch waits for them and
// picks them up again if that call rolls back.
func (s *Store) unreadIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.records))
	for _, r := range s.records {
		if !r.n.Read || s.readPending[r.n.ID] > 0 {
			ids = append(ids, r.n.ID)
		}
	}
	return ids
}

// markReadLocked flips batch to read and returns the matching settle func.
// Records are looked up again on settle because a newer push may have
// replaced them in the meantime; rollback restores the server's last word.
func (s *Store) markReadLocked(batch []*record) func(bool) {
	ids := make([]string, len(batch))
	for i, r := range batch {
		r.n.Read = true
		s.readPending[r.n.ID]++
		ids[i] = r.n.ID
	}

	return func(failed bool) {
		for _, id := range ids {
			if s.readPending[id]--; s.readPending[id] <= 0 {
				delete(s.readPending, id)
			}
			r, ok := s.byID[id]
			if !ok {
				continue
			}
			if failed {
				r.n.Read = r.serverRead
			} else {
				r.serverRead = true
			}
		}
	}
}
