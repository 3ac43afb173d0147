package notifications

import (
	"context"
	"slices"
	"sync"
)

// keyLocks serializes work per notification id. Waiters honour context
// cancellation; entries are released once nobody holds or waits on them.
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sem  chan struct{}
	refs int
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: make(map[string]*keyLock)}
}

// lock acquires every id in sorted order so overlapping batches cannot
// deadlock. The returned func releases all of them.
func (k *keyLocks) lock(ctx context.Context, ids ...string) (func(), error) {
	keys := slices.Clone(ids)
	slices.Sort(keys)
	keys = slices.Compact(keys)

	held := make([]string, 0, len(keys))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			k.release(held[i])
		}
	}

	for _, id := range keys {
		l := k.acquireRef(id)
		select {
		case l.sem <- struct{}{}:
			held = append(held, id)
		case <-ctx.Done():
			k.dropRef(id)
			release()
			return nil, ctx.Err()
		}
	}

	return release, nil
}

func (k *keyLocks) acquireRef(id string) *keyLock {
	k.mu.Lock()
	defer k.mu.Unlock()

	l, ok := k.locks[id]
	if !ok {
		l = &keyLock{sem: make(chan struct{}, 1)}
		k.locks[id] = l
	}
	l.refs++
	return l
}

func (k *keyLocks) dropRef(id string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if l, ok := k.locks[id]; ok {
		l.refs--
		if l.refs == 0 {
			delete(k.locks, id)
		}
	}
}

func (k *keyLocks) release(id string) {
	k.mu.Lock()
	l := k.locks[id]
	k.mu.Unlock()
	if l == nil {
		return
	}
	<-l.sem
	k.dropRef(id)
}

// size returns the number of ids currently held or awaited.
func (k *keyLocks) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
