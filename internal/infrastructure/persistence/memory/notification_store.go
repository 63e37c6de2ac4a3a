package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/notification"
)

// NotificationStore is a notification.Repository kept in memory.
type NotificationStore struct {
	mu    sync.RWMutex
	items map[string][]*notification.Notification
}

// NewNotificationStore creates an empty NotificationStore.
func NewNotificationStore() *NotificationStore {
	return &NotificationStore{items: make(map[string][]*notification.Notification)}
}

var _ notification.Repository = (*NotificationStore)(nil)

// Save implements notification.Repository.
func (s *NotificationStore) Save(_ context.Context, n *notification.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *n
	s.items[n.StudentID] = append(s.items[n.StudentID], &cp)
	return nil
}

// ListByStudent implements notification.Repository.
func (s *NotificationStore) ListByStudent(_ context.Context, studentID string) ([]*notification.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.items[studentID]
	out := make([]*notification.Notification, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		cp := *list[i]
		out = append(out, &cp)
	}
	slices.SortStableFunc(out, func(a, b *notification.Notification) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

// MarkRead implements notification.Repository.
func (s *NotificationStore) MarkRead(_ context.Context, studentID string, id notification.NotificationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.items[studentID] {
		if n.ID == id {
			n.MarkRead()
			return nil
		}
	}
	return notification.ErrNotificationNotFound
}
