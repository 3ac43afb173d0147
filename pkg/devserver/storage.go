package devserver

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/garagedesk/pkg/notifications"
)

// ErrMissingUser is returned when a record has no owner.
var ErrMissingUser = errors.New("devserver: user id is required")

// Storage keeps notifications per user in memory.
type Storage struct {
	mu     sync.RWMutex
	byUser map[string]map[string]notifications.Notification
	now    func() time.Time
}

func NewStorage() *Storage {
	return &Storage{
		byUser: make(map[string]map[string]notifications.Notification),
		now:    time.Now,
	}
}

// Create stores n, assigning an id and creation time when absent.
// An existing record with the same id is replaced.
func (s *Storage) Create(_ context.Context, n notifications.Notification) (notifications.Notification, error) {
	if strings.TrimSpace(n.UserID) == "" {
		return notifications.Notification{}, ErrMissingUser
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	n.Type = notifications.ParseType(string(n.Type))
	if n.Progress != nil {
		p := notifications.ClampProgress(*n.Progress)
		n.Progress = &p
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byUser[n.UserID]
	if !ok {
		user = make(map[string]notifications.Notification)
		s.byUser[n.UserID] = user
	}
	user[n.ID] = n.Clone()
	return n, nil
}

func (s *Storage) Get(_ context.Context, userID, id string) (notifications.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.byUser[userID][id]
	if !ok {
		return notifications.Notification{}, notifications.ErrNotFound
	}
	return n.Clone(), nil
}

// List returns userID's records newest first.
func (s *Storage) List(_ context.Context, userID string, unreadOnly bool) []notifications.Notification {
	s.mu.RLock()
	user := s.byUser[userID]
	out := make([]notifications.Notification, 0, len(user))
	for _, n := range user {
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Storage) MarkRead(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.byUser[userID][id]
	if !ok {
		return notifications.ErrNotFound
	}
	n.Read = true
	s.byUser[userID][id] = n
	return nil
}

// MarkAllRead marks every record of userID read and returns how many changed.
func (s *Storage) MarkAllRead(_ context.Context, userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := 0
	for id, n := range s.byUser[userID] {
		if n.Read {
			continue
		}
		n.Read = true
		s.byUser[userID][id] = n
		changed++
	}
	return changed
}

func (s *Storage) Delete(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byUser[userID][id]; !ok {
		return notifications.ErrNotFound
	}
	delete(s.byUser[userID], id)
	if len(s.byUser[userID]) == 0 {
		delete(s.byUser, userID)
	}
	return nil
}

func (s *Storage) CountUnread(_ context.Context, userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.byUser[userID] {
		if !n.Read {
			count++
		}
	}
	return count
}
