package query

import (
	"context"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/progression"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/strategy"
	"github.com/ChoraichiFadwa/ECOLead-Finance/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// STRATEGIC CONTEXT QUERY
// Coverage, stage, alerts and goal priorities for the dashboard.
// ══════════════════════════════════════════════════════════════════════════════

// StrategicContextDTO is the strategic context of one student.
type StrategicContextDTO struct {
	StudentID string `json:"student_id"`
	strategy.Context
}

// StrategicContextHandler builds strategic contexts.
type StrategicContextHandler struct {
	store   progression.Store
	builder *strategy.Builder
	cache   ReadCache
	log     *logger.Logger

	fingerprint string
}

// NewStrategicContextHandler creates a new StrategicContextHandler. cache
// and log may be nil.
func NewStrategicContextHandler(
	store progression.Store,
	builder *strategy.Builder,
	fingerprint string,
	cache ReadCache,
	log *logger.Logger,
) *StrategicContextHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &StrategicContextHandler{
		store:       store,
		builder:     builder,
		cache:       cache,
		log:         log.With(logger.Component("strategic_context")),
		fingerprint: fingerprint,
	}
}

// Handle returns the context.
func (h *StrategicContextHandler) Handle(ctx context.Context, q GetStudentQuery) (*StrategicContextDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	snap, err := h.store.Snapshot(ctx, q.StudentID)
	if err != nil {
		return nil, err
	}

	key := cacheKey("context", h.fingerprint, snap)
	var dto StrategicContextDTO
	if h.cache != nil {
		hit, err := h.cache.Get(ctx, key, &dto)
		if err != nil {
			h.log.Warn("cache read failed", logger.StudentID(q.StudentID), logger.Err(err))
		}
		if hit {
			return &dto, nil
		}
	}

	dto = StrategicContextDTO{StudentID: snap.Student.ID, Context: h.builder.Build(snap)}

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, dto); err != nil {
			h.log.Warn("cache write failed", logger.StudentID(q.StudentID), logger.Err(err))
		}
	}
	return &dto, nil
}
