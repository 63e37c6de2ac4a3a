package command

import (
	"context"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/notification"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
)

// MarkNotificationReadCommand marks one notification as read.
type MarkNotificationReadCommand struct {
	StudentID      string
	NotificationID string
}

// MarkNotificationReadHandler handles MarkNotificationReadCommand.
type MarkNotificationReadHandler struct {
	repo notification.Repository
}

// NewMarkNotificationReadHandler creates a new MarkNotificationReadHandler.
func NewMarkNotificationReadHandler(repo notification.Repository) *MarkNotificationReadHandler {
	return &MarkNotificationReadHandler{repo: repo}
}

// Handle executes the command.
func (h *MarkNotificationReadHandler) Handle(ctx context.Context, cmd MarkNotificationReadCommand) error {
	if cmd.StudentID == "" || cmd.NotificationID == "" {
		return shared.NewDomainError("notification", "MarkRead", shared.ErrInvalidInput, "student and notification ids are required")
	}
	return h.repo.MarkRead(ctx, cmd.StudentID, notification.NotificationID(cmd.NotificationID))
}
