package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
)

// Reader exposes read-only lookups over the game content.
type Reader interface {
	// Concept returns a concept by id.
	Concept(id string) (*Concept, error)

	// Concepts returns every concept in catalog order.
	Concepts() []*Concept

	// ConceptsForProfile returns the concepts visible to p, fundamentals
	// first, then catalog order.
	ConceptsForProfile(p ProfileID) []*Concept

	// MissionsByConcept returns a concept's missions ordered by level.
	MissionsByConcept(conceptID string) ([]*Mission, error)

	// MissionsByLevel returns a concept's missions of one tier.
	MissionsByLevel(conceptID string, level Level) ([]*Mission, error)

	// Mission returns a mission by id.
	Mission(id string) (*Mission, error)

	// Event returns an event by id.
	Event(id string) (*Event, error)

	// Fingerprint identifies this version of the content.
	Fingerprint() string
}

// Catalog is an indexed, immutable content set. Build it with New.
type Catalog struct {
	concepts    []*Concept
	conceptByID map[string]*Concept
	missionByID map[string]*Mission
	missions    map[string][]*Mission
	eventByID   map[string]*Event
	fingerprint string
	warnings    []string
}

var _ Reader = (*Catalog)(nil)

// Content is the raw input to New.
type Content struct {
	Concepts []Concept
	Missions []Mission
	Events   []Event
}

// New validates content and indexes it. Missions are attached to their
// concept through Mission.ConceptID, so each mission belongs to exactly one
// concept and one level by construction. Every structural problem is
// reported at once.
func New(content Content, fingerprint string) (*Catalog, error) {
	c := &Catalog{
		conceptByID: make(map[string]*Concept, len(content.Concepts)),
		missionByID: make(map[string]*Mission, len(content.Missions)),
		missions:    make(map[string][]*Mission, len(content.Concepts)),
		eventByID:   make(map[string]*Event, len(content.Events)),
		fingerprint: fingerprint,
	}

	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	for i := range content.Events {
		e := content.Events[i]
		if e.ID == "" {
			fail("event #%d: id is required", i)
			continue
		}
		if _, dup := c.eventByID[e.ID]; dup {
			fail("event %q: duplicate id", e.ID)
			continue
		}
		if err := e.Conditions.Validate(); err != nil {
			fail("event %q: conditions: %w", e.ID, err)
		}
		for _, l := range e.Levels {
			if !l.IsValid() {
				fail("event %q: invalid level %d", e.ID, int(l))
			}
		}
		c.eventByID[e.ID] = &e
	}

	for i := range content.Concepts {
		concept := content.Concepts[i]
		if concept.ID == "" {
			fail("concept #%d: id is required", i)
			continue
		}
		if _, dup := c.conceptByID[concept.ID]; dup {
			fail("concept %q: duplicate id", concept.ID)
			continue
		}
		for _, p := range concept.Profiles {
			if !p.IsValid() {
				fail("concept %q: unknown profile %d", concept.ID, int(p))
			}
		}
		if len(concept.Profiles) == 0 {
			c.warnings = append(c.warnings, fmt.Sprintf("concept %q has no profiles and is never visible", concept.ID))
		}
		concept.Missions = nil
		c.conceptByID[concept.ID] = &concept
		c.concepts = append(c.concepts, &concept)
	}

	for i := range content.Missions {
		m := content.Missions[i]
		if m.ID == "" {
			fail("mission #%d: id is required", i)
			continue
		}
		if _, dup := c.missionByID[m.ID]; dup {
			fail("mission %q: duplicate id", m.ID)
			continue
		}
		if _, ok := c.conceptByID[m.ConceptID]; !ok {
			fail("mission %q: unknown concept %q", m.ID, m.ConceptID)
			continue
		}
		if !m.Level.IsValid() {
			fail("mission %q: invalid level %d", m.ID, int(m.Level))
		}
		if len(m.Choices) < 2 {
			fail("mission %q: needs at least 2 choices, has %d", m.ID, len(m.Choices))
		}
		seen := make(map[string]bool, len(m.Choices))
		for _, ch := range m.Choices {
			if ch.Key == "" || seen[ch.Key] {
				fail("mission %q: empty or duplicate choice key %q", m.ID, ch.Key)
			}
			seen[ch.Key] = true
		}
		for _, eid := range m.PossibleEvents {
			if _, ok := c.eventByID[eid]; !ok {
				fail("mission %q: unknown event %q", m.ID, eid)
			}
		}
		c.missionByID[m.ID] = &m
		c.missions[m.ConceptID] = append(c.missions[m.ConceptID], &m)
	}

	if len(errs) > 0 {
		return nil, shared.WrapError("catalog", "Load", shared.ErrValidation, "invalid catalog", errors.Join(errs...))
	}

	for _, concept := range c.concepts {
		ms := c.missions[concept.ID]
		slices.SortStableFunc(ms, func(a, b *Mission) int { return int(a.Level) - int(b.Level) })
		for _, m := range ms {
			concept.Missions = append(concept.Missions, m.ID)
		}
		if len(ms) == 0 {
			c.warnings = append(c.warnings, fmt.Sprintf("concept %q has no missions", concept.ID))
		}
	}

	return c, nil
}

// Warnings lists authoring problems that do not prevent loading.
func (c *Catalog) Warnings() []string {
	return slices.Clone(c.warnings)
}

// Fingerprint implements Reader.
func (c *Catalog) Fingerprint() string {
	return c.fingerprint
}

// Concept implements Reader.
func (c *Catalog) Concept(id string) (*Concept, error) {
	if concept, ok := c.conceptByID[id]; ok {
		return concept, nil
	}
	return nil, notFound("FindConcept", "concept", id, shared.ErrConceptNotFound)
}

// Concepts implements Reader.
func (c *Catalog) Concepts() []*Concept {
	return slices.Clone(c.concepts)
}

// ConceptsForProfile implements Reader.
func (c *Catalog) ConceptsForProfile(p ProfileID) []*Concept {
	if !p.IsSet() {
		return nil
	}
	var fundamentals, specialized []*Concept
	for _, concept := range c.concepts {
		if !concept.VisibleTo(p) {
			continue
		}
		if concept.Fundamental {
			fundamentals = append(fundamentals, concept)
		} else {
			specialized = append(specialized, concept)
		}
	}
	return append(fundamentals, specialized...)
}

// MissionsByConcept implements Reader.
func (c *Catalog) MissionsByConcept(conceptID string) ([]*Mission, error) {
	if _, err := c.Concept(conceptID); err != nil {
		return nil, err
	}
	return slices.Clone(c.missions[conceptID]), nil
}

// MissionsByLevel implements Reader.
func (c *Catalog) MissionsByLevel(conceptID string, level Level) ([]*Mission, error) {
	ms, err := c.MissionsByConcept(conceptID)
	if err != nil {
		return nil, err
	}
	out := ms[:0]
	for _, m := range ms {
		if m.Level == level {
			out = append(out, m)
		}
	}
	return out, nil
}

// Mission implements Reader.
func (c *Catalog) Mission(id string) (*Mission, error) {
	if m, ok := c.missionByID[id]; ok {
		return m, nil
	}
	return nil, notFound("FindMission", "mission", id, shared.ErrMissionNotFound)
}

// Event implements Reader.
func (c *Catalog) Event(id string) (*Event, error) {
	if e, ok := c.eventByID[id]; ok {
		return e, nil
	}
	return nil, notFound("FindEvent", "event", id, shared.ErrEventNotFound)
}

// Stats summarizes the catalog size.
type Stats struct {
	Concepts int
	Missions int
	Events   int
}

// Stats returns entity counts.
func (c *Catalog) Stats() Stats {
	return Stats{Concepts: len(c.concepts), Missions: len(c.missionByID), Events: len(c.eventByID)}
}

func notFound(op, kind, id string, base error) error {
	return shared.WrapError("catalog", op, shared.ErrNotFound,
		fmt.Sprintf("%s %q not found", kind, strings.TrimSpace(id)), base)
}
