// Package metrics models the five-axis financial state of a student and the
// rules for combining it: vector addition, threshold predicates and the
// configurable label policy.
package metrics

import (
	"fmt"
	"strings"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Metric names one axis of the vector. Values are the wire names used by the
// game content and the HTTP API.
type Metric string

const (
	Cashflow      Metric = "cashflow"
	Control       Metric = "controle"
	Stress        Metric = "stress"
	Profitability Metric = "rentabilite"
	Reputation    Metric = "reputation"
)

// All lists the axes in canonical order.
var All = []Metric{Cashflow, Control, Stress, Profitability, Reputation}

// ParseMetric accepts a wire name or its English alias.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cashflow":
		return Cashflow, nil
	case "controle", "control":
		return Control, nil
	case "stress":
		return Stress, nil
	case "rentabilite", "profitability":
		return Profitability, nil
	case "reputation":
		return Reputation, nil
	default:
		return "", shared.WrapError("metrics", "ParseMetric", shared.ErrInvalidInput,
			fmt.Sprintf("unknown metric %q", s), nil)
	}
}

// IsValid reports whether m is one of the five axes.
func (m Metric) IsValid() bool {
	switch m {
	case Cashflow, Control, Stress, Profitability, Reputation:
		return true
	default:
		return false
	}
}

// Favourable orients a raw delta so that positive always means "better".
// Stress is the only axis where a decrease is an improvement.
func (m Metric) Favourable(delta int) int {
	if m == Stress {
		return -delta
	}
	return delta
}

// Label is the human-readable axis name used in feedback and rationale.
func (m Metric) Label() string {
	switch m {
	case Cashflow:
		return "cashflow"
	case Control:
		return "control"
	case Stress:
		return "stress"
	case Profitability:
		return "profitability"
	case Reputation:
		return "reputation"
	default:
		return string(m)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// VECTOR
// ══════════════════════════════════════════════════════════════════════════════

// Vector is the fixed five-axis state or delta. Values are raw integers and
// are never clamped.
type Vector struct {
	Cashflow      int `json:"cashflow" yaml:"cashflow"`
	Control       int `json:"controle" yaml:"controle"`
	Stress        int `json:"stress" yaml:"stress"`
	Profitability int `json:"rentabilite" yaml:"rentabilite"`
	Reputation    int `json:"reputation" yaml:"reputation"`
}

// Initial is the state every new student starts from.
func Initial() Vector {
	return Vector{
		Cashflow:      100,
		Control:       50,
		Stress:        10,
		Profitability: 50,
		Reputation:    50,
	}
}

// Apply returns base + delta.
func Apply(base, delta Vector) Vector {
	return base.Add(delta)
}

// Add returns the component-wise sum.
func (v Vector) Add(o Vector) Vector {
	return Vector{
		Cashflow:      v.Cashflow + o.Cashflow,
		Control:       v.Control + o.Control,
		Stress:        v.Stress + o.Stress,
		Profitability: v.Profitability + o.Profitability,
		Reputation:    v.Reputation + o.Reputation,
	}
}

// Sub returns the component-wise difference v - o.
func (v Vector) Sub(o Vector) Vector {
	return Vector{
		Cashflow:      v.Cashflow - o.Cashflow,
		Control:       v.Control - o.Control,
		Stress:        v.Stress - o.Stress,
		Profitability: v.Profitability - o.Profitability,
		Reputation:    v.Reputation - o.Reputation,
	}
}

// Get returns the value of one axis.
func (v Vector) Get(m Metric) int {
	switch m {
	case Cashflow:
		return v.Cashflow
	case Control:
		return v.Control
	case Stress:
		return v.Stress
	case Profitability:
		return v.Profitability
	case Reputation:
		return v.Reputation
	default:
		return 0
	}
}

// With returns a copy with one axis replaced.
func (v Vector) With(m Metric, value int) Vector {
	switch m {
	case Cashflow:
		v.Cashflow = value
	case Control:
		v.Control = value
	case Stress:
		v.Stress = value
	case Profitability:
		v.Profitability = value
	case Reputation:
		v.Reputation = value
	}
	return v
}

// IsZero reports whether every axis is zero.
func (v Vector) IsZero() bool {
	return v == Vector{}
}

// NonZero counts the axes that moved.
func (v Vector) NonZero() int {
	n := 0
	for _, m := range All {
		if v.Get(m) != 0 {
			n++
		}
	}
	return n
}

// Map returns the vector keyed by wire name.
func (v Vector) Map() map[string]int {
	out := make(map[string]int, len(All))
	for _, m := range All {
		out[string(m)] = v.Get(m)
	}
	return out
}

// String renders the vector in canonical order.
func (v Vector) String() string {
	parts := make([]string, 0, len(All))
	for _, m := range All {
		parts = append(parts, fmt.Sprintf("%s=%d", m, v.Get(m)))
	}
	return "{" + strings.Join(parts, " ") + "}"
}
