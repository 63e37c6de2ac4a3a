package metrics

import (
	"fmt"
	"strings"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
)

// Built-in labels.
const (
	LabelPrudent     = "Prudent"
	LabelBalanced    = "Equilibré"
	LabelSpeculative = "Spéculatif"
)

// LabelRule assigns Label when its condition holds.
type LabelRule struct {
	Label string    `json:"label" yaml:"label"`
	When  Predicate `json:"when" yaml:"when"`
}

// LabelPolicy derives the qualitative label of a metrics snapshot. Rules are
// evaluated in order and the first match wins; Default applies otherwise.
type LabelPolicy struct {
	Rules   []LabelRule `json:"rules" yaml:"rules"`
	Default string      `json:"default" yaml:"default"`
}

// DefaultLabelPolicy returns the thresholds used when no policy file is set.
func DefaultLabelPolicy() LabelPolicy {
	return LabelPolicy{
		Rules: []LabelRule{
			{
				Label: LabelSpeculative,
				When:  AnyOf(Leaf(Stress, OpGreaterEqual, 40), Leaf(Profitability, OpGreaterEqual, 80)),
			},
			{
				Label: LabelBalanced,
				When:  AnyOf(Leaf(Stress, OpGreaterEqual, 20), Leaf(Profitability, OpGreaterEqual, 65)),
			},
		},
		Default: LabelPrudent,
	}
}

// Derive maps v to a label.
func (p LabelPolicy) Derive(v Vector) string {
	for _, r := range p.Rules {
		if r.When.Eval(v) {
			return r.Label
		}
	}
	return p.Default
}

// Validate checks every rule.
func (p LabelPolicy) Validate() error {
	if strings.TrimSpace(p.Default) == "" {
		return shared.WrapError("metrics", "ValidateLabelPolicy", shared.ErrEmptyValue, "default label is required", nil)
	}
	for i, r := range p.Rules {
		if strings.TrimSpace(r.Label) == "" {
			return shared.WrapError("metrics", "ValidateLabelPolicy", shared.ErrEmptyValue,
				fmt.Sprintf("rule %d has no label", i), nil)
		}
		if r.When.Kind() == KindTrue {
			return shared.WrapError("metrics", "ValidateLabelPolicy", shared.ErrInvalidInput,
				fmt.Sprintf("rule %q has no condition", r.Label), nil)
		}
		if err := r.When.Validate(); err != nil {
			return fmt.Errorf("rule %q: %w", r.Label, err)
		}
	}
	return nil
}
