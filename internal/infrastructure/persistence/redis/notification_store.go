package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/notification"
	"github.com/ChoraichiFadwa/ECOLead-Finance/pkg/circuitbreaker"
)

// NotificationStore implements notification.Repository with one hash per
// student: field = notification id, value = JSON.
type NotificationStore struct {
	client  redis.UniversalClient
	breaker *circuitbreaker.CircuitBreaker
}

// NewNotificationStore creates a NotificationStore. A nil breaker gets
// circuitbreaker.NotificationStoreBreaker.
func NewNotificationStore(client redis.UniversalClient, breaker *circuitbreaker.CircuitBreaker) *NotificationStore {
	if breaker == nil {
		breaker = circuitbreaker.NotificationStoreBreaker(nil)
	}
	return &NotificationStore{client: client, breaker: breaker}
}

var _ notification.Repository = (*NotificationStore)(nil)

// Save implements notification.Repository.
func (s *NotificationStore) Save(ctx context.Context, n *notification.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCacheSerialization, err)
	}
	key := NotificationKey(n.StudentID)

	return s.breaker.Execute(ctx, func(ctx context.Context) error {
		_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, string(n.ID), data)
			pipe.Expire(ctx, key, TTLNotifications)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to save notification: %w", err)
		}
		return nil
	})
}

// ListByStudent implements notification.Repository.
func (s *NotificationStore) ListByStudent(ctx context.Context, studentID string) ([]*notification.Notification, error) {
	var raw map[string]string
	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		raw, err = s.client.HGetAll(ctx, NotificationKey(studentID)).Result()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	out := make([]*notification.Notification, 0, len(raw))
	for _, v := range raw {
		var n notification.Notification
		if err := json.Unmarshal([]byte(v), &n); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCacheSerialization, err)
		}
		out = append(out, &n)
	}
	sortNewestFirst(out)
	return out, nil
}

// MarkRead implements notification.Repository. The read-modify-write runs
// under WATCH so a concurrent Save of another field is not lost.
func (s *NotificationStore) MarkRead(ctx context.Context, studentID string, id notification.NotificationID) error {
	key := NotificationKey(studentID)
	missing := false

	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		return s.client.Watch(ctx, func(tx *redis.Tx) error {
			v, err := tx.HGet(ctx, key, string(id)).Result()
			if errors.Is(err, redis.Nil) {
				missing = true
				return nil
			}
			if err != nil {
				return err
			}

			var n notification.Notification
			if err := json.Unmarshal([]byte(v), &n); err != nil {
				return fmt.Errorf("%w: %w", ErrCacheSerialization, err)
			}
			if n.IsRead {
				return nil
			}
			n.MarkRead()
			data, err := json.Marshal(&n)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrCacheSerialization, err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HSet(ctx, key, string(id), data)
				return nil
			})
			return err
		}, key)
	})
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if missing {
		return notification.ErrNotificationNotFound
	}
	return nil
}

func sortNewestFirst(list []*notification.Notification) {
	slices.SortFunc(list, func(a, b *notification.Notification) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(string(b.ID), string(a.ID))
	})
}
