// Package strategy derives behavioural features from a student's recent
// completions and turns them into the strategic context shown next to the
// goal picker: stage, coverage, alerts, opportunities and goal priorities.
package strategy

import (
	"fmt"
	"strings"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
)

// Goal is an improvement target a student can optimize for.
type Goal string

const (
	GoalReduceStress       Goal = "reduce_stress"
	GoalBoostProfitability Goal = "boost_rentabilite"
	GoalPreserveLiquidity  Goal = "preserve_liquidity"
	GoalBalance            Goal = "balance"
)

// Goals lists every goal in display order.
var Goals = []Goal{GoalReduceStress, GoalBoostProfitability, GoalPreserveLiquidity, GoalBalance}

// ParseGoal parses a goal name. The empty string selects GoalBalance.
func ParseGoal(s string) (Goal, error) {
	g := Goal(strings.ToLower(strings.TrimSpace(s)))
	if g == "" {
		return GoalBalance, nil
	}
	switch g {
	case GoalReduceStress, GoalBoostProfitability, GoalPreserveLiquidity, GoalBalance:
		return g, nil
	default:
		return "", shared.WrapError("recommendation", "ParseGoal", shared.ErrInvalidInput,
			fmt.Sprintf("unknown goal %q", s), shared.ErrUnknownGoal)
	}
}
