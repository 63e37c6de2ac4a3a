package eventhandler

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
)

// AuditHandler logs every published event as an envelope.
type AuditHandler struct {
	logger *slog.Logger
}

// NewAuditHandler creates an AuditHandler.
func NewAuditHandler(logger *slog.Logger) *AuditHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditHandler{logger: logger.With("handler", "audit")}
}

// Handle implements shared.EventHandler.
func (h *AuditHandler) Handle(event shared.Event) error {
	env, err := shared.NewEventEnvelope(uuid.NewString(), event)
	if err != nil {
		h.logger.Warn("failed to encode event", "event_type", event.EventType(), "error", err)
		return nil
	}
	h.logger.Debug("domain event",
		"event_id", env.ID,
		"event_type", env.Type,
		"aggregate_id", env.AggregateID,
		"correlation_id", env.CorrelationID,
		"payload", string(env.Payload),
	)
	return nil
}
