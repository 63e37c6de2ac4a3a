// Package resolution turns a chosen mission option into an outcome: active
// events, effective impact, score and feedback. It performs no I/O; the
// submission command runs it inside the per-student unit of work.
package resolution

import (
	"fmt"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/catalog"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/metrics"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
)

// Outcome is the scored result of one choice.
type Outcome struct {
	Mission         *catalog.Mission
	Choice          catalog.Choice
	ActiveEvents    []*catalog.Event
	EffectiveImpact metrics.Vector
	Score           int
	Feedback        string
}

// EventIDs lists the ids of the active events.
func (o Outcome) EventIDs() []string {
	ids := make([]string, len(o.ActiveEvents))
	for i, e := range o.ActiveEvents {
		ids[i] = e.ID
	}
	return ids
}

// ActiveEvents returns the mission's possible events whose conditions hold
// against current.
func ActiveEvents(c catalog.Reader, m *catalog.Mission, current metrics.Vector) ([]*catalog.Event, error) {
	var active []*catalog.Event
	for _, id := range m.PossibleEvents {
		e, err := c.Event(id)
		if err != nil {
			return nil, fmt.Errorf("mission %s: %w", m.ID, err)
		}
		if e.ActiveFor(m.Level, current) {
			active = append(active, e)
		}
	}
	return active, nil
}

// EffectiveImpact adds every active event's modifier for choice to the base
// impact.
func EffectiveImpact(choice catalog.Choice, events []*catalog.Event) metrics.Vector {
	impact := choice.Impact
	for _, e := range events {
		impact = impact.Add(e.Modifier(choice.Key))
	}
	return impact
}

// Resolver scores choices under a policy.
type Resolver struct {
	catalog  catalog.Reader
	scoring  ScoringPolicy
	feedback FeedbackComposer
}

// NewResolver creates a Resolver.
func NewResolver(c catalog.Reader, scoring ScoringPolicy, feedback FeedbackComposer) *Resolver {
	return &Resolver{catalog: c, scoring: scoring, feedback: feedback}
}

// Resolve computes the outcome of choosing choiceKey in m for a student whose
// metrics are current. current must be read inside the same unit of work
// that commits the outcome.
func (r *Resolver) Resolve(m *catalog.Mission, choiceKey string, current metrics.Vector) (Outcome, error) {
	choice, ok := m.Choice(choiceKey)
	if !ok {
		return Outcome{}, shared.WrapError("submission", "Resolve", shared.ErrInvalidSubmission,
			fmt.Sprintf("mission %s has no choice %q", m.ID, choiceKey), shared.ErrUnknownChoice)
	}

	events, err := ActiveEvents(r.catalog, m, current)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{
		Mission:         m,
		Choice:          choice,
		ActiveEvents:    events,
		EffectiveImpact: EffectiveImpact(choice, events),
	}
	out.Score = r.scoring.Score(m.Level, out.EffectiveImpact)
	out.Feedback = r.feedback.Compose(out)
	return out, nil
}

// Preview returns each choice's effective impact for display, using the
// events active for current.
func (r *Resolver) Preview(m *catalog.Mission, current metrics.Vector) (map[string]metrics.Vector, []*catalog.Event, error) {
	events, err := ActiveEvents(r.catalog, m, current)
	if err != nil {
		return nil, nil, err
	}
	out := make(map[string]metrics.Vector, len(m.Choices))
	for _, ch := range m.Choices {
		out[ch.Key] = EffectiveImpact(ch, events)
	}
	return out, events, nil
}
