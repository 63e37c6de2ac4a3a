package query

import (
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/catalog"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/metrics"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// ConceptDTO is the public view of a concept.
type ConceptDTO struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Domain       string   `json:"domain"`
	Description  string   `json:"description,omitempty"`
	Fundamental  bool     `json:"fundamental"`
	Profiles     []int    `json:"profiles"`
	MissionCount int      `json:"mission_count"`
	Missions     []string `json:"missions"`
}

// ChoiceDTO is one option of a mission. Feedback is only revealed after
// submission.
type ChoiceDTO struct {
	Key         string         `json:"key"`
	Description string         `json:"description"`
	Impact      metrics.Vector `json:"impact"`
}

// MissionDTO is the public view of a mission.
type MissionDTO struct {
	ID             string        `json:"id"`
	Concept        string        `json:"concept"`
	Level          catalog.Level `json:"niveau"`
	Title          string        `json:"title,omitempty"`
	Context        string        `json:"contexte"`
	Objective      string        `json:"objectif,omitempty"`
	Tags           []string      `json:"tags"`
	Choices        []ChoiceDTO   `json:"choix"`
	PossibleEvents []string      `json:"evenements_possibles"`
}

// EventDTO is the public view of an event.
type EventDTO struct {
	ID        string            `json:"id"`
	Title     string            `json:"titre"`
	Message   string            `json:"message"`
	Type      string            `json:"type,omitempty"`
	Narrative map[string]string `json:"narrative,omitempty"`
}

// NewConceptDTO maps a concept.
func NewConceptDTO(c *catalog.Concept) ConceptDTO {
	return ConceptDTO{
		ID:           c.ID,
		Name:         c.Name,
		Domain:       c.Domain,
		Description:  c.Description,
		Fundamental:  c.Fundamental,
		Profiles:     profilesOf(c),
		MissionCount: len(c.Missions),
		Missions:     append([]string{}, c.Missions...),
	}
}

// NewMissionDTO maps a mission.
func NewMissionDTO(m *catalog.Mission) MissionDTO {
	dto := MissionDTO{
		ID:             m.ID,
		Concept:        m.ConceptID,
		Level:          m.Level,
		Title:          m.Title,
		Context:        m.Context,
		Objective:      m.Objective,
		Tags:           append([]string{}, m.Tags...),
		Choices:        make([]ChoiceDTO, 0, len(m.Choices)),
		PossibleEvents: append([]string{}, m.PossibleEvents...),
	}
	for _, ch := range m.Choices {
		dto.Choices = append(dto.Choices, ChoiceDTO{Key: ch.Key, Description: ch.Description, Impact: ch.Impact})
	}
	return dto
}

// NewEventDTO maps an event.
func NewEventDTO(e *catalog.Event) EventDTO {
	return EventDTO{
		ID:        e.ID,
		Title:     e.Title,
		Message:   e.Message,
		Type:      e.Context.Type,
		Narrative: e.Context.Narrative,
	}
}

// CatalogHandler answers content reads.
type CatalogHandler struct {
	catalog catalog.Reader
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(c catalog.Reader) *CatalogHandler {
	return &CatalogHandler{catalog: c}
}

// Fingerprint returns the catalog version.
func (h *CatalogHandler) Fingerprint() string {
	return h.catalog.Fingerprint()
}

// Concepts lists concepts. A set profile filters to the visible ones.
func (h *CatalogHandler) Concepts(profile catalog.ProfileID) []ConceptDTO {
	concepts := h.catalog.Concepts()
	if profile.IsSet() {
		concepts = h.catalog.ConceptsForProfile(profile)
	}
	out := make([]ConceptDTO, 0, len(concepts))
	for _, c := range concepts {
		out = append(out, NewConceptDTO(c))
	}
	return out
}

// Missions lists the missions of a concept, optionally one tier only.
func (h *CatalogHandler) Missions(conceptID string, level *catalog.Level) ([]MissionDTO, error) {
	var (
		missions []*catalog.Mission
		err      error
	)
	if level != nil {
		missions, err = h.catalog.MissionsByLevel(conceptID, *level)
	} else {
		missions, err = h.catalog.MissionsByConcept(conceptID)
	}
	if err != nil {
		return nil, err
	}
	out := make([]MissionDTO, 0, len(missions))
	for _, m := range missions {
		out = append(out, NewMissionDTO(m))
	}
	return out, nil
}

// Mission returns one mission.
func (h *CatalogHandler) Mission(id string) (*MissionDTO, error) {
	m, err := h.catalog.Mission(id)
	if err != nil {
		return nil, err
	}
	dto := NewMissionDTO(m)
	return &dto, nil
}
