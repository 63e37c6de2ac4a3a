package query

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/notification"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/progression"
)

// NotificationsDTO lists the notifications of a student, newest first.
type NotificationsDTO struct {
	StudentID     string                       `json:"student_id"`
	Unread        int                          `json:"unread"`
	Notifications []*notification.Notification `json:"notifications"`
}

// ListNotificationsHandler reads notifications.
type ListNotificationsHandler struct {
	store progression.Store
	repo  notification.Repository
}

// NewListNotificationsHandler creates a new ListNotificationsHandler.
func NewListNotificationsHandler(store progression.Store, repo notification.Repository) *ListNotificationsHandler {
	return &ListNotificationsHandler{store: store, repo: repo}
}

// Handle returns the notifications. Unknown students are reported as such
// rather than as an empty list.
func (h *ListNotificationsHandler) Handle(ctx context.Context, q GetStudentQuery) (*NotificationsDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var list []*notification.Notification
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := h.store.Snapshot(gctx, q.StudentID)
		return err
	})
	g.Go(func() error {
		var err error
		list, err = h.repo.ListByStudent(gctx, q.StudentID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dto := &NotificationsDTO{StudentID: q.StudentID, Notifications: list}
	if dto.Notifications == nil {
		dto.Notifications = []*notification.Notification{}
	}
	for _, n := range list {
		if !n.IsRead {
			dto.Unread++
		}
	}
	return dto, nil
}
