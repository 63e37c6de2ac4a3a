// Package gating computes which levels and missions a student can play. It is
// pure: every answer is derived from the catalog and the completion records
// passed in, so nothing it returns can go stale.
package gating

import (
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/catalog"
)

// Progress answers whether a mission has a completion record.
// progression.Snapshot satisfies it.
type Progress interface {
	IsCompleted(missionID string) bool
}

// Availability is the play state of a single mission.
type Availability string

const (
	Available Availability = "available"
	Locked    Availability = "locked"
	Completed Availability = "completed"
)

// MissionState is the gating view of one mission.
type MissionState struct {
	ID        string `json:"id"`
	Completed bool   `json:"completed"`
	Locked    bool   `json:"locked"`
}

// Availability derives the play state.
func (m MissionState) Availability() Availability {
	switch {
	case m.Completed:
		return Completed
	case m.Locked:
		return Locked
	default:
		return Available
	}
}

// LevelState is the gating view of one tier of a concept.
type LevelState struct {
	Level    catalog.Level
	Locked   bool
	Missions []MissionState
}

// ConceptStatus is the gating view of a whole concept. Levels holds only the
// tiers that have missions, ascending.
type ConceptStatus struct {
	Concept        *catalog.Concept
	Levels         []LevelState
	CompletedCount int
	TotalCount     int
}

// IsCompleted reports whether every mission of the concept is completed.
func (c ConceptStatus) IsCompleted() bool {
	return c.CompletedCount == c.TotalCount
}

// Explored reports whether at least one mission was completed.
func (c ConceptStatus) Explored() bool {
	return c.CompletedCount > 0
}

// LockedLevels lists the locked tiers.
func (c ConceptStatus) LockedLevels() []catalog.Level {
	var out []catalog.Level
	for _, l := range c.Levels {
		if l.Locked {
			out = append(out, l.Level)
		}
	}
	return out
}

// Mission finds the state of one mission in the concept.
func (c ConceptStatus) Mission(id string) (MissionState, bool) {
	for _, l := range c.Levels {
		for _, m := range l.Missions {
			if m.ID == id {
				return m, true
			}
		}
	}
	return MissionState{}, false
}

// FirstAvailable returns the first available mission in level order.
func (c ConceptStatus) FirstAvailable() (string, bool) {
	for _, l := range c.Levels {
		for _, m := range l.Missions {
			if m.Availability() == Available {
				return m.ID, true
			}
		}
	}
	return "", false
}

// Evaluate applies the lock rule to one concept: a tier is locked iff some
// mission in a strictly lower tier of the same concept is incomplete. The
// entry tier is never locked.
func Evaluate(concept *catalog.Concept, missions []*catalog.Mission, p Progress) ConceptStatus {
	status := ConceptStatus{Concept: concept, TotalCount: len(missions)}

	byLevel := make(map[catalog.Level][]*catalog.Mission, len(catalog.Levels))
	for _, m := range missions {
		byLevel[m.Level] = append(byLevel[m.Level], m)
	}

	lowerComplete := true
	for _, level := range catalog.Levels {
		ms := byLevel[level]
		if len(ms) == 0 {
			continue
		}
		state := LevelState{Level: level, Locked: !lowerComplete}
		levelComplete := true
		for _, m := range ms {
			done := p.IsCompleted(m.ID)
			if done {
				status.CompletedCount++
			} else {
				levelComplete = false
			}
			state.Missions = append(state.Missions, MissionState{
				ID:        m.ID,
				Completed: done,
				Locked:    state.Locked && !done,
			})
		}
		status.Levels = append(status.Levels, state)
		lowerComplete = lowerComplete && levelComplete
	}
	return status
}
