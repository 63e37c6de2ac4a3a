// Package recommendation ranks a student's currently available missions
// against an improvement goal and explains the pick.
package recommendation

import (
	"fmt"
	"math"
	"slices"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/metrics"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/strategy"
)

// Projection scores impact toward goal given the student's current metrics.
// Higher is better.
func Projection(goal strategy.Goal, current, impact metrics.Vector, scale float64) float64 {
	switch goal {
	case strategy.GoalReduceStress:
		return float64(-impact.Stress)
	case strategy.GoalBoostProfitability:
		return float64(impact.Profitability)
	case strategy.GoalPreserveLiquidity:
		return float64(impact.Cashflow)
	default:
		return spread(current, scale) - spread(metrics.Apply(current, impact), scale)
	}
}

// spread is the population variance of the oriented, normalized axes of v,
// expressed in hundredths so that small moves remain readable.
func spread(v metrics.Vector, scale float64) float64 {
	if scale <= 0 {
		scale = 100
	}
	xs := make([]float64, len(metrics.All))
	mean := 0.0
	for i, m := range metrics.All {
		x := float64(m.Favourable(v.Get(m))) / scale
		xs[i] = x
		mean += x
	}
	mean /= float64(len(xs))
	variance := 0.0
	for _, x := range xs {
		variance += (x - mean) * (x - mean)
	}
	return variance / float64(len(xs)) * 100
}

// primaryMetric is the axis a goal optimizes, empty for balance.
func primaryMetric(goal strategy.Goal) metrics.Metric {
	switch goal {
	case strategy.GoalReduceStress:
		return metrics.Stress
	case strategy.GoalBoostProfitability:
		return metrics.Profitability
	case strategy.GoalPreserveLiquidity:
		return metrics.Cashflow
	default:
		return ""
	}
}

// Why lists at most three statements about how impact serves goal.
func Why(goal strategy.Goal, current, impact metrics.Vector, scale float64) []string {
	var why []string
	primary := primaryMetric(goal)

	if primary == "" {
		switch p := Projection(goal, current, impact, scale); {
		case p > 0:
			why = append(why, "narrows the gap between metrics")
		case p < 0:
			why = append(why, "widens the gap between metrics")
		default:
			why = append(why, "keeps metrics balanced")
		}
	} else {
		why = append(why, primaryWhy(primary, impact.Get(primary)))
	}

	// Secondary favourable axes, strongest first.
	type gain struct {
		metric metrics.Metric
		value  int
	}
	var gains []gain
	for _, m := range metrics.All {
		if m == primary {
			continue
		}
		if v := m.Favourable(impact.Get(m)); v > 0 {
			gains = append(gains, gain{m, v})
		}
	}
	slices.SortStableFunc(gains, func(a, b gain) int { return b.value - a.value })
	for _, g := range gains {
		if len(why) == 3 {
			break
		}
		why = append(why, "also "+improves(g.metric, g.value))
	}

	if len(why) < 3 && primary != metrics.Cashflow && impact.Cashflow == 0 {
		why = append(why, "preserves cashflow")
	}
	return why
}

func primaryWhy(m metrics.Metric, raw int) string {
	if raw == 0 {
		if m == metrics.Cashflow {
			return "preserves cashflow"
		}
		return fmt.Sprintf("keeps %s stable", m.Label())
	}
	if m.Favourable(raw) > 0 {
		return improves(m, m.Favourable(raw))
	}
	if m == metrics.Stress {
		return fmt.Sprintf("adds %d stress, the least among its choices", raw)
	}
	return fmt.Sprintf("limits the %s loss to %d", m.Label(), int(math.Abs(float64(raw))))
}

func improves(m metrics.Metric, by int) string {
	if m == metrics.Stress {
		return fmt.Sprintf("reduces stress by %d", by)
	}
	return fmt.Sprintf("improves %s by %d", m.Label(), by)
}
