package query

import (
	"context"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/gating"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/metrics"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/progression"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/resolution"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET NEXT MISSION QUERY
// The first available mission in traversal order, with the events that are
// active for the student's metrics right now and the impacts they produce.
// ══════════════════════════════════════════════════════════════════════════════

// NextMissionDTO is a mission prepared for play.
type NextMissionDTO struct {
	MissionDTO
	ConceptName      string                    `json:"concept_name"`
	ActiveEvents     []EventDTO                `json:"evenements_actifs"`
	EffectiveImpacts map[string]metrics.Vector `json:"effective_impacts"`
}

// GetNextMissionHandler picks the next mission.
type GetNextMissionHandler struct {
	store    progression.Store
	gating   *gating.Engine
	resolver *resolution.Resolver
}

// NewGetNextMissionHandler creates a new GetNextMissionHandler.
func NewGetNextMissionHandler(store progression.Store, engine *gating.Engine, resolver *resolution.Resolver) *GetNextMissionHandler {
	return &GetNextMissionHandler{store: store, gating: engine, resolver: resolver}
}

// Handle returns the next mission, ErrProfileNotSelected when the student
// has no track, or ErrNoMissionAvailable when everything is done.
func (h *GetNextMissionHandler) Handle(ctx context.Context, q GetStudentQuery) (*NextMissionDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	snap, err := h.store.Snapshot(ctx, q.StudentID)
	if err != nil {
		return nil, err
	}
	if !snap.Student.Profile.IsSet() {
		return nil, shared.ErrProfileNotSelected
	}

	m, ok := h.gating.NextMission(snap.Student.Profile, snap)
	if !ok {
		return nil, shared.ErrNoMissionAvailable
	}

	impacts, events, err := h.resolver.Preview(m, snap.Student.Metrics)
	if err != nil {
		return nil, err
	}

	dto := &NextMissionDTO{
		MissionDTO:       NewMissionDTO(m),
		ActiveEvents:     make([]EventDTO, 0, len(events)),
		EffectiveImpacts: impacts,
	}
	for i := range dto.Choices {
		dto.Choices[i].Impact = impacts[dto.Choices[i].Key]
	}
	for _, e := range events {
		dto.ActiveEvents = append(dto.ActiveEvents, NewEventDTO(e))
	}
	if c, err := h.gating.Catalog().Concept(m.ConceptID); err == nil {
		dto.ConceptName = c.Name
	}
	return dto, nil
}
