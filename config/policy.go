package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/metrics"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/recommendation"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/resolution"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/strategy"
)

// Policy groups the tunable game rules.
type Policy struct {
	Scoring        resolution.ScoringPolicy `yaml:"scoring"`
	Labels         metrics.LabelPolicy      `yaml:"labels"`
	Recommendation recommendation.Policy    `yaml:"recommendation"`
	Features       strategy.FeatureSpec     `yaml:"features"`
}

// DefaultPolicy returns the built-in rules.
func DefaultPolicy() Policy {
	return Policy{
		Scoring:        resolution.DefaultScoringPolicy(),
		Labels:         metrics.DefaultLabelPolicy(),
		Recommendation: recommendation.DefaultPolicy(),
		Features:       strategy.DefaultFeatureSpec(),
	}
}

// LoadPolicy reads a policy file on top of the defaults: sections missing
// from the file keep their default values. An empty path returns the
// defaults.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("failed to read policy file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return Policy{}, fmt.Errorf("failed to parse policy file: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Validate checks every section.
func (p Policy) Validate() error {
	var errs []error
	if err := p.Scoring.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("scoring: %w", err))
	}
	if err := p.Labels.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("labels: %w", err))
	}
	if err := p.Recommendation.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("recommendation: %w", err))
	}
	if p.Features.Window < 1 || p.Features.HalfLife <= 0 {
		errs = append(errs, errors.New("features: window must be >= 1 and half_life > 0"))
	}
	return errors.Join(errs...)
}
