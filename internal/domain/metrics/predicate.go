package metrics

import (
	"fmt"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
)

// Operator compares a metric value with a threshold.
type Operator string

const (
	OpLess         Operator = "lt"
	OpLessEqual    Operator = "lte"
	OpGreater      Operator = "gt"
	OpGreaterEqual Operator = "gte"
	OpEqual        Operator = "eq"
)

// IsValid reports whether op is a known comparison.
func (op Operator) IsValid() bool {
	switch op {
	case OpLess, OpLessEqual, OpGreater, OpGreaterEqual, OpEqual:
		return true
	default:
		return false
	}
}

func (op Operator) compare(value, threshold int) bool {
	switch op {
	case OpLess:
		return value < threshold
	case OpLessEqual:
		return value <= threshold
	case OpGreater:
		return value > threshold
	case OpGreaterEqual:
		return value >= threshold
	case OpEqual:
		return value == threshold
	default:
		return false
	}
}

// PredicateKind tags the active variant of a Predicate.
type PredicateKind int

const (
	KindTrue PredicateKind = iota
	KindLeaf
	KindAll
	KindAny
)

// Predicate is a condition over a student's metrics. Exactly one variant is
// set: All (conjunction), Any (disjunction) or a leaf comparison. The zero
// value always holds.
type Predicate struct {
	All    []Predicate `json:"all,omitempty" yaml:"all,omitempty"`
	Any    []Predicate `json:"any,omitempty" yaml:"any,omitempty"`
	Metric Metric      `json:"metric,omitempty" yaml:"metric,omitempty"`
	Op     Operator    `json:"op,omitempty" yaml:"op,omitempty"`
	Value  int         `json:"value,omitempty" yaml:"value,omitempty"`
}

// Leaf builds a single comparison.
func Leaf(m Metric, op Operator, value int) Predicate {
	return Predicate{Metric: m, Op: op, Value: value}
}

// AllOf builds a conjunction.
func AllOf(ps ...Predicate) Predicate {
	return Predicate{All: ps}
}

// AnyOf builds a disjunction.
func AnyOf(ps ...Predicate) Predicate {
	return Predicate{Any: ps}
}

// Kind returns the active variant.
func (p Predicate) Kind() PredicateKind {
	switch {
	case len(p.All) > 0:
		return KindAll
	case len(p.Any) > 0:
		return KindAny
	case p.Metric != "":
		return KindLeaf
	default:
		return KindTrue
	}
}

// Eval reports whether the predicate holds for v.
func (p Predicate) Eval(v Vector) bool {
	switch p.Kind() {
	case KindAll:
		for _, c := range p.All {
			if !c.Eval(v) {
				return false
			}
		}
		return true
	case KindAny:
		for _, c := range p.Any {
			if c.Eval(v) {
				return true
			}
		}
		return false
	case KindLeaf:
		return p.Op.compare(v.Get(p.Metric), p.Value)
	default:
		return true
	}
}

// Validate checks that exactly one variant is populated at every node.
func (p Predicate) Validate() error {
	set := 0
	if len(p.All) > 0 {
		set++
	}
	if len(p.Any) > 0 {
		set++
	}
	if p.Metric != "" || p.Op != "" {
		set++
	}
	if set > 1 {
		return invalidPredicate("node mixes all/any/leaf")
	}

	switch p.Kind() {
	case KindAll:
		for i, c := range p.All {
			if err := c.Validate(); err != nil {
				return fmt.Errorf("all[%d]: %w", i, err)
			}
		}
	case KindAny:
		for i, c := range p.Any {
			if err := c.Validate(); err != nil {
				return fmt.Errorf("any[%d]: %w", i, err)
			}
		}
	case KindLeaf:
		if !p.Metric.IsValid() {
			return invalidPredicate(fmt.Sprintf("unknown metric %q", p.Metric))
		}
		if !p.Op.IsValid() {
			return invalidPredicate(fmt.Sprintf("unknown operator %q", p.Op))
		}
	default:
		if p.Op != "" {
			return invalidPredicate("operator without metric")
		}
	}
	return nil
}

func invalidPredicate(msg string) error {
	return shared.WrapError("metrics", "ValidatePredicate", shared.ErrInvalidInput, msg, nil)
}
