package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/dmitrymomot/garagedesk/pkg/logger"
)

// MergeResult reports what Merge did with an incoming record.
type MergeResult int

const (
	// Ignored means the record was a redelivery, older than what is held, or hidden by a pending delete.
	Ignored MergeResult = iota
	// Inserted means the id was unseen and the record was added.
	Inserted
	// Updated means an existing record was replaced by a strictly newer one.
	Updated
)

func (r MergeResult) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	default:
		return "ignored"
	}
}

type record struct {
	n   Notification
	seq uint64 // insertion order, higher is newer
	// serverRead is the read flag last confirmed by the server; rollbacks restore it.
	serverRead bool
}

// before reports whether a sorts ahead of b.
func before(a, b *record) bool {
	if !a.n.CreatedAt.Equal(b.n.CreatedAt) {
		return a.n.CreatedAt.After(b.n.CreatedAt)
	}
	return a.seq > b.seq
}

// Store is the in-memory collection of one user's notifications.
// All methods are safe for concurrent use.
type Store struct {
	remote   Remote
	logger   *slog.Logger
	onChange func()
	locks    *keyLocks

	mu      sync.RWMutex
	records []*record
	byID    map[string]*record
	nextSeq uint64
	// epoch changes on Clear; mutations that started in an older epoch discard their result.
	epoch uint64

	// overlays of in-flight optimistic mutations, re-applied by Seed
	readPending   map[string]int
	removePending map[string]*record
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for the Store.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithChangeHook registers fn to run after every observable state change,
// including rollbacks. fn runs outside the store lock.
func WithChangeHook(fn func()) Option {
	return func(s *Store) {
		s.onChange = fn
	}
}

// NewStore creates an empty store backed by remote.
func NewStore(remote Remote, opts ...Option) *Store {
	s := &Store{
		remote:        remote,
		logger:        slog.Default(),
		locks:         newKeyLocks(),
		byID:          make(map[string]*record),
		readPending:   make(map[string]int),
		removePending: make(map[string]*record),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches the full history from the remote and seeds the store with it.
// On failure the store is left as it was.
func (s *Store) Load(ctx context.Context) error {
	s.mu.RLock()
	epoch := s.epoch
	s.mu.RUnlock()

	records, err := s.remote.List(ctx, ListOptions{})
	if err != nil {
		return fmt.Errorf("load notifications: %w", err)
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return nil
	}
	s.seedLocked(records)
	s.mu.Unlock()

	s.changed()
	return nil
}

// Seed replaces the collection wholesale with records, deduplicating by id
// (newest CreatedAt wins, then first occurrence) and sorting. Records with an
// in-flight delete stay hidden; records with an in-flight mark-read stay read.
func (s *Store) Seed(records []Notification) {
	s.mu.Lock()
	s.seedLocked(records)
	s.mu.Unlock()
	s.changed()
}

func (s *Store) seedLocked(records []Notification) {
	// Earlier entries get higher seq so server order survives CreatedAt ties.
	base := s.nextSeq
	s.nextSeq += uint64(len(records)) + 1

	picked := make(map[string]int, len(records))
	list := make([]*record, 0, len(records))
	for i, n := range records {
		if n.ID == "" {
			s.logger.Warn("dropping seeded notification without id", logger.Component("store"))
			continue
		}
		if j, ok := picked[n.ID]; ok {
			if n.CreatedAt.After(list[j].n.CreatedAt) {
				list[j].n = n.Clone()
				list[j].serverRead = n.Read
			}
			continue
		}
		picked[n.ID] = len(list)
		list = append(list, &record{n: n.Clone(), seq: base + uint64(len(records)-i), serverRead: n.Read})
	}

	byID := make(map[string]*record, len(list))
	kept := list[:0]
	for _, r := range list {
		if stash, ok := s.removePending[r.n.ID]; ok {
			stash.n, stash.serverRead = r.n, r.serverRead
			continue
		}
		if s.readPending[r.n.ID] > 0 {
			r.n.Read = true
		}
		byID[r.n.ID] = r
		kept = append(kept, r)
	}

	sort.SliceStable(kept, func(i, j int) bool { return before(kept[i], kept[j]) })
	s.records = kept
	s.byID = byID
}

// Merge folds a pushed record into the store. An unseen id is inserted at its
// sorted position. A known id is only replaced when the incoming CreatedAt is
// strictly newer, and its read flag never moves back to unread. Fields a
// partial update leaves empty keep their previous values.
func (s *Store) Merge(n Notification) (MergeResult, error) {
	if n.ID == "" {
		return Ignored, ErrMissingID
	}

	s.mu.Lock()
	result := s.mergeLocked(n.Clone())
	s.mu.Unlock()

	if result != Ignored {
		s.changed()
	}
	return result, nil
}

func (s *Store) mergeLocked(n Notification) MergeResult {
	if stash, ok := s.removePending[n.ID]; ok {
		if n.CreatedAt.After(stash.n.CreatedAt) {
			inheritOmitted(&n, stash.n)
			stash.n, stash.serverRead = n, n.Read
		}
		return Ignored
	}

	existing, ok := s.byID[n.ID]
	if !ok {
		s.insertLocked(&record{n: n, seq: s.bumpSeq(), serverRead: n.Read})
		return Inserted
	}

	if !n.CreatedAt.After(existing.n.CreatedAt) {
		return Ignored
	}

	inheritOmitted(&n, existing.n)
	serverRead := n.Read
	n.Read = n.Read || existing.n.Read
	s.removeLocked(n.ID)
	s.insertLocked(&record{n: n, seq: s.bumpSeq(), serverRead: serverRead})
	return Updated
}

// inheritOmitted fills the fields a status or progress frame omitted from prev.
func inheritOmitted(n *Notification, prev Notification) {
	if n.Title == "" {
		n.Title = prev.Title
	}
	if n.Message == "" {
		n.Message = prev.Message
	}
	if n.Details == "" {
		n.Details = prev.Details
	}
	if n.EntityID == "" {
		n.EntityID = prev.EntityID
	}
	if n.UserID == "" {
		n.UserID = prev.UserID
	}
	if n.Status == "" {
		n.Status = prev.Status
	}
	if n.Progress == nil && prev.Progress != nil {
		p := *prev.Progress
		n.Progress = &p
	}
}

// Get returns a copy of the record with id.
func (s *Store) Get(id string) (Notification, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.byID[id]
	if !ok {
		return Notification{}, false
	}
	return r.n.Clone(), true
}

// Snapshot returns copies of all records in display order.
func (s *Store) Snapshot() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Notification, len(s.records))
	for i, r := range s.records {
		out[i] = r.n.Clone()
	}
	return out
}

// UnreadCount counts records with Read == false.
func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unreadLocked()
}

func (s *Store) unreadLocked() int {
	count := 0
	for _, r := range s.records {
		if !r.n.Read {
			count++
		}
	}
	return count
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Clear empties the store for teardown. Mutations still in flight complete
// remotely but their local results are discarded.
func (s *Store) Clear() {
	s.mu.Lock()
	s.records = nil
	s.byID = make(map[string]*record)
	s.readPending = make(map[string]int)
	s.removePending = make(map[string]*record)
	s.epoch++
	s.mu.Unlock()
	s.changed()
}

func (s *Store) bumpSeq() uint64 {
	s.nextSeq++
	return s.nextSeq
}

// Must be called with lock held.
func (s *Store) insertLocked(r *record) {
	i := sort.Search(len(s.records), func(i int) bool { return before(r, s.records[i]) })
	s.records = append(s.records, nil)
	copy(s.records[i+1:], s.records[i:])
	s.records[i] = r
	s.byID[r.n.ID] = r
}

// Must be called with lock held.
func (s *Store) removeLocked(id string) *record {
	r, ok := s.byID[id]
	if !ok {
		return nil
	}
	delete(s.byID, id)
	for i, cur := range s.records {
		if cur == r {
			s.records = append(s.records[:i], s.records[i+1:]...)
			break
		}
	}
	return r
}

func (s *Store) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}
