// Package catalog holds the read-only game content: concepts, their leveled
// missions and the contextual events that modify mission impacts. A Catalog
// is immutable once built and is identified by a content fingerprint.
package catalog

import (
	"slices"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/metrics"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONCEPT
// ══════════════════════════════════════════════════════════════════════════════

// Concept is a topic area containing leveled missions.
type Concept struct {
	ID          string
	Name        string
	Domain      string
	Description string

	// Fundamental concepts are traversed before specialized ones.
	Fundamental bool

	// Profiles lists the tracks this concept is visible to. Empty means the
	// concept is never visible.
	Profiles []ProfileID

	// Missions is ordered by level, then by authoring order.
	Missions []string
}

// VisibleTo reports whether students on profile p can see the concept.
func (c *Concept) VisibleTo(p ProfileID) bool {
	return p.IsSet() && slices.Contains(c.Profiles, p)
}

// ══════════════════════════════════════════════════════════════════════════════
// MISSION
// ══════════════════════════════════════════════════════════════════════════════

// Choice is one option of a mission.
type Choice struct {
	Key         string
	Description string
	Impact      metrics.Vector
	Feedback    string
}

// Mission is a scenario with two or more choices.
type Mission struct {
	ID             string
	ConceptID      string
	Level          Level
	Title          string
	Context        string
	Objective      string
	Tags           []string
	Choices        []Choice
	PossibleEvents []string
}

// Choice looks up a choice by key.
func (m *Mission) Choice(key string) (Choice, bool) {
	for _, c := range m.Choices {
		if c.Key == key {
			return c, true
		}
	}
	return Choice{}, false
}

// ChoiceKeys returns the keys in authoring order.
func (m *Mission) ChoiceKeys() []string {
	keys := make([]string, len(m.Choices))
	for i, c := range m.Choices {
		keys[i] = c.Key
	}
	return keys
}

// ══════════════════════════════════════════════════════════════════════════════
// EVENT
// ══════════════════════════════════════════════════════════════════════════════

// EventContext describes the narrative framing of an event.
type EventContext struct {
	Type      string
	Narrative map[string]string
}

// Event conditionally alters the impacts of a mission's choices.
type Event struct {
	ID      string
	Title   string
	Message string
	Context EventContext

	// Levels restricts the event to missions of these tiers. Empty means any.
	Levels []Level

	Conditions      metrics.Predicate
	ChoiceModifiers map[string]metrics.Vector
}

// ActiveFor reports whether the event applies to a mission of the given
// level for a student with the given metrics.
func (e *Event) ActiveFor(level Level, current metrics.Vector) bool {
	if len(e.Levels) > 0 && !slices.Contains(e.Levels, level) {
		return false
	}
	return e.Conditions.Eval(current)
}

// Modifier returns the delta the event adds to a choice.
func (e *Event) Modifier(choice string) metrics.Vector {
	return e.ChoiceModifiers[choice]
}
