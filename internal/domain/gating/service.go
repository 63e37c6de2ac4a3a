package gating

import (
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/catalog"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
)

// Engine answers gating questions against one catalog version.
type Engine struct {
	catalog catalog.Reader
}

// NewEngine creates an Engine.
func NewEngine(c catalog.Reader) *Engine {
	return &Engine{catalog: c}
}

// Catalog returns the catalog the engine reads.
func (e *Engine) Catalog() catalog.Reader {
	return e.catalog
}

// ConceptStatus computes the level status of one concept. Profile
// visibility is not checked here.
func (e *Engine) ConceptStatus(conceptID string, p Progress) (ConceptStatus, error) {
	concept, err := e.catalog.Concept(conceptID)
	if err != nil {
		return ConceptStatus{}, err
	}
	missions, err := e.catalog.MissionsByConcept(conceptID)
	if err != nil {
		return ConceptStatus{}, err
	}
	return Evaluate(concept, missions, p), nil
}

// MissionAvailability resolves the play state of a mission, including the
// profile check: a mission of a concept invisible to profile is locked.
func (e *Engine) MissionAvailability(missionID string, profile catalog.ProfileID, p Progress) (Availability, error) {
	m, err := e.catalog.Mission(missionID)
	if err != nil {
		return "", err
	}
	status, err := e.ConceptStatus(m.ConceptID, p)
	if err != nil {
		return "", err
	}
	state, ok := status.Mission(missionID)
	if !ok {
		return "", shared.WrapError("gating", "MissionAvailability", shared.ErrInconsistentState,
			"mission missing from its concept", nil)
	}
	if state.Completed {
		return Completed, nil
	}
	if !status.Concept.VisibleTo(profile) {
		return Locked, nil
	}
	return state.Availability(), nil
}

// VisibleConcepts evaluates every concept visible to profile, fundamentals
// first. An unset profile sees nothing.
func (e *Engine) VisibleConcepts(profile catalog.ProfileID, p Progress) []ConceptStatus {
	concepts := e.catalog.ConceptsForProfile(profile)
	out := make([]ConceptStatus, 0, len(concepts))
	for _, c := range concepts {
		missions, err := e.catalog.MissionsByConcept(c.ID)
		if err != nil {
			continue
		}
		out = append(out, Evaluate(c, missions, p))
	}
	return out
}

// NextMission returns the first available mission in traversal order: the
// lowest incomplete level of the first incomplete visible concept.
func (e *Engine) NextMission(profile catalog.ProfileID, p Progress) (*catalog.Mission, bool) {
	for _, status := range e.VisibleConcepts(profile, p) {
		if status.IsCompleted() {
			continue
		}
		if id, ok := status.FirstAvailable(); ok {
			m, err := e.catalog.Mission(id)
			return m, err == nil
		}
	}
	return nil, false
}

// AvailableMissions lists every available mission across visible concepts
// in traversal order.
func (e *Engine) AvailableMissions(profile catalog.ProfileID, p Progress) []*catalog.Mission {
	var out []*catalog.Mission
	for _, status := range e.VisibleConcepts(profile, p) {
		for _, l := range status.Levels {
			for _, ms := range l.Missions {
				if ms.Availability() != Available {
					continue
				}
				if m, err := e.catalog.Mission(ms.ID); err == nil {
					out = append(out, m)
				}
			}
		}
	}
	return out
}
