// Package catalogfile loads game content from YAML. Field names follow the
// authoring vocabulary of the content team (niveau, contexte, choix, ...).
// The catalog fingerprint is the BLAKE2b-256 of the file bytes.
package catalogfile

import (
	"bytes"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"

	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v3"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/catalog"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/metrics"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
)

//go:embed seed/catalog.yaml
var seed []byte

// ══════════════════════════════════════════════════════════════════════════════
// FILE FORMAT
// ══════════════════════════════════════════════════════════════════════════════

type fileDTO struct {
	Concepts []conceptDTO `yaml:"concepts"`
	Missions []missionDTO `yaml:"missions"`
	Events   []eventDTO   `yaml:"evenements"`
}

type conceptDTO struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"nom"`
	Domain      string `yaml:"domaine"`
	Description string `yaml:"description"`
	Fundamental bool   `yaml:"fondamental"`
	Profiles    []int  `yaml:"profils"`
}

type choiceDTO struct {
	Description string         `yaml:"description"`
	Impact      metrics.Vector `yaml:"impact"`
	Feedback    string         `yaml:"feedback"`
}

type missionDTO struct {
	ID             string               `yaml:"id"`
	Concept        string               `yaml:"concept"`
	Level          string               `yaml:"niveau"`
	Title          string               `yaml:"titre"`
	Context        string               `yaml:"contexte"`
	Objective      string               `yaml:"objectif"`
	Tags           []string             `yaml:"tags"`
	Choices        map[string]choiceDTO `yaml:"choix"`
	PossibleEvents []string             `yaml:"evenements_possibles"`
}

type eventContextDTO struct {
	Type      string            `yaml:"type"`
	Narrative map[string]string `yaml:"narration"`
}

type eventDTO struct {
	ID         string                    `yaml:"id"`
	Title      string                    `yaml:"titre"`
	Message    string                    `yaml:"message"`
	Context    eventContextDTO           `yaml:"contexte"`
	Levels     []string                  `yaml:"niveaux"`
	Conditions metrics.Predicate         `yaml:"conditions"`
	Modifiers  map[string]metrics.Vector `yaml:"modificateurs"`
}

// ══════════════════════════════════════════════════════════════════════════════
// LOADING
// ══════════════════════════════════════════════════════════════════════════════

// Seed returns the embedded catalog file.
func Seed() []byte {
	return slices.Clone(seed)
}

// Load reads and builds the catalog at path, or the embedded seed when path
// is empty.
func Load(path string) (*catalog.Catalog, error) {
	if path == "" {
		return Parse(seed)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// Fingerprint returns the hex BLAKE2b-256 digest of data.
func Fingerprint(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Parse decodes a catalog file. Unknown fields are rejected so that typos in
// content do not silently drop data. All problems are reported together.
func Parse(data []byte) (*catalog.Catalog, error) {
	var file fileDTO
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, shared.WrapError("catalog", "Load", shared.ErrValidation, "invalid catalog file", err)
	}

	content, err := file.content()
	if err != nil {
		return nil, err
	}
	return catalog.New(content, Fingerprint(data))
}

func (f fileDTO) content() (catalog.Content, error) {
	var (
		content catalog.Content
		errs    []error
	)

	for _, c := range f.Concepts {
		concept := catalog.Concept{
			ID:          c.ID,
			Name:        c.Name,
			Domain:      c.Domain,
			Description: c.Description,
			Fundamental: c.Fundamental,
		}
		for _, p := range c.Profiles {
			concept.Profiles = append(concept.Profiles, catalog.ProfileID(p))
		}
		content.Concepts = append(content.Concepts, concept)
	}

	for _, m := range f.Missions {
		level, err := catalog.ParseLevel(m.Level)
		if err != nil {
			errs = append(errs, fmt.Errorf("mission %q: %w", m.ID, err))
			continue
		}
		mission := catalog.Mission{
			ID:             m.ID,
			ConceptID:      m.Concept,
			Level:          level,
			Title:          m.Title,
			Context:        m.Context,
			Objective:      m.Objective,
			Tags:           m.Tags,
			PossibleEvents: m.PossibleEvents,
		}
		for _, key := range sortedKeys(m.Choices) {
			ch := m.Choices[key]
			mission.Choices = append(mission.Choices, catalog.Choice{
				Key:         key,
				Description: ch.Description,
				Impact:      ch.Impact,
				Feedback:    ch.Feedback,
			})
		}
		content.Missions = append(content.Missions, mission)
	}

	for _, e := range f.Events {
		event := catalog.Event{
			ID:              e.ID,
			Title:           e.Title,
			Message:         e.Message,
			Context:         catalog.EventContext{Type: e.Context.Type, Narrative: e.Context.Narrative},
			Conditions:      e.Conditions,
			ChoiceModifiers: e.Modifiers,
		}
		for _, l := range e.Levels {
			level, err := catalog.ParseLevel(l)
			if err != nil {
				errs = append(errs, fmt.Errorf("event %q: %w", e.ID, err))
				continue
			}
			event.Levels = append(event.Levels, level)
		}
		content.Events = append(content.Events, event)
	}

	if len(errs) > 0 {
		return content, shared.WrapError("catalog", "Load", shared.ErrValidation, "invalid catalog file", errors.Join(errs...))
	}
	return content, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
