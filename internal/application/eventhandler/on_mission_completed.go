// Package eventhandler contains domain event handlers.
package eventhandler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/notification"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON MISSION COMPLETED HANDLER
// Turns the milestones of a committed submission into notifications:
// label change, level unlock and concept completion.
//
// The handler runs after the commit. A failure here never undoes or changes
// the submission result.
// ═══════════════════════════════════════════════════════════════════════════

// OnMissionCompletedHandler stores notifications for mission milestones.
type OnMissionCompletedHandler struct {
	repo   notification.Repository
	rules  []notification.TriggerRule
	logger *slog.Logger

	newID func() notification.NotificationID
	now   func() time.Time
}

// NewOnMissionCompletedHandler creates the handler. A nil rules slice means
// notification.DefaultRules.
func NewOnMissionCompletedHandler(
	repo notification.Repository,
	rules []notification.TriggerRule,
	logger *slog.Logger,
) *OnMissionCompletedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if rules == nil {
		rules = notification.DefaultRules()
	}
	return &OnMissionCompletedHandler{
		repo:   repo,
		rules:  rules,
		logger: logger.With("handler", "on_mission_completed"),
		newID:  func() notification.NotificationID { return notification.NotificationID(uuid.NewString()) },
		now:    time.Now,
	}
}

// Handle implements shared.EventHandler.
func (h *OnMissionCompletedHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	e, ok := event.(shared.MissionCompletedEvent)
	if !ok {
		h.logger.Warn("received non-MissionCompletedEvent",
			"event_type", event.EventType(),
		)
		return nil
	}

	notifications, err := notification.Evaluate(h.rules, e, h.newID, h.now())
	if err != nil {
		h.logger.Error("failed to build notifications",
			"student_id", e.AggregateID(),
			"mission_id", e.MissionID,
			"error", err,
		)
		return fmt.Errorf("evaluate rules: %w", err)
	}
	if len(notifications) == 0 {
		return nil
	}

	var firstErr error
	for _, n := range notifications {
		if err := h.repo.Save(ctx, n); err != nil {
			h.logger.Error("failed to save notification",
				"student_id", n.StudentID,
				"type", n.Type,
				"error", err,
			)
			if firstErr == nil {
				firstErr = fmt.Errorf("save notification: %w", err)
			}
		}
	}

	h.logger.Info("mission milestones notified",
		"student_id", e.AggregateID(),
		"mission_id", e.MissionID,
		"count", len(notifications),
	)
	return firstErr
}
