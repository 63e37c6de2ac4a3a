package resolution_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/catalog"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/catalog/catalogtest"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/metrics"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/resolution"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
)

func newResolver() (*resolution.Resolver, *catalog.Catalog) {
	c := catalogtest.New()
	return resolution.NewResolver(c, resolution.DefaultScoringPolicy(), resolution.DefaultFeedbackComposer()), c
}

func TestResolve_BeginnerNoEvents(t *testing.T) {
	r, c := newResolver()
	m, _ := c.Mission(catalogtest.M1)

	out, err := r.Resolve(m, "a", metrics.Initial())
	require.NoError(t, err)

	assert.Empty(t, out.ActiveEvents)
	assert.Equal(t, metrics.Vector{Stress: -2, Cashflow: 1}, out.EffectiveImpact)
	assert.Equal(t, 13, out.Score)
	assert.Equal(t,
		"Vous avez choisi : Diversify.<br/>"+
			"Points positifs : amélioration de cashflow, stress.<br/>"+
			"Bonne approche stratégique avec des bénéfices multiples."+
			" <br/><br/> Conseil : Diversification lowers risk.",
		out.Feedback)
}

func TestResolve_EventsEvaluatedAgainstCurrentMetrics(t *testing.T) {
	r, c := newResolver()
	m, _ := c.Mission(catalogtest.M3)

	calm, err := r.Resolve(m, "a", metrics.Initial())
	require.NoError(t, err)
	assert.Empty(t, calm.EventIDs())
	assert.Equal(t, metrics.Vector{Cashflow: -2, Control: 2}, calm.EffectiveImpact)

	stressed := metrics.Initial().With(metrics.Cashflow, 60)
	crash, err := r.Resolve(m, "a", stressed)
	require.NoError(t, err)
	assert.Equal(t, []string{catalogtest.EventCrash}, crash.EventIDs(), "bull_run is restricted to advanced missions")
	assert.Equal(t, metrics.Vector{Cashflow: -7, Control: 2}, crash.EffectiveImpact)
	assert.Equal(t, 14, crash.Score, "(10 + 2) * 1.2 truncated")
	assert.Contains(t, crash.Feedback, "1 événement(s) actif(s)")
	assert.Contains(t, crash.Feedback, "Market crash : Markets fell 20% overnight.")

	other, err := r.Resolve(m, "b", stressed)
	require.NoError(t, err)
	assert.Equal(t, metrics.Vector{Reputation: 3, Stress: 1}, other.EffectiveImpact, "no modifier for choice b")
}

func TestResolve_UnknownChoice(t *testing.T) {
	r, c := newResolver()
	m, _ := c.Mission(catalogtest.M1)

	_, err := r.Resolve(m, "z", metrics.Initial())
	assert.True(t, shared.IsInvalidSubmission(err))
	assert.ErrorIs(t, err, shared.ErrUnknownChoice)
}

func TestPreview(t *testing.T) {
	r, c := newResolver()
	m, _ := c.Mission(catalogtest.M3)

	impacts, events, err := r.Preview(m, metrics.Vector{Cashflow: 0})
	require.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, metrics.Vector{Cashflow: -7, Control: 2}, impacts["a"])
	assert.Equal(t, metrics.Vector{Reputation: 3, Stress: 1}, impacts["b"])
}

func TestScoringPolicy_Score(t *testing.T) {
	p := resolution.DefaultScoringPolicy()

	tests := []struct {
		name   string
		level  catalog.Level
		impact metrics.Vector
		want   int
	}{
		{"base only", catalog.Beginner, metrics.Vector{}, 10},
		{"gain capped per axis", catalog.Beginner, metrics.Vector{Cashflow: 40}, 20},
		{"penalty and breadth", catalog.Beginner, metrics.Vector{Cashflow: -20, Profitability: 5, Reputation: 3}, 15},
		{"clamped low", catalog.Beginner, metrics.Vector{Cashflow: -100}, 1},
		{"clamped high", catalog.Advanced, metrics.Vector{Cashflow: 10, Control: 10, Stress: -10, Profitability: 10, Reputation: 10}, 25},
		{"advanced multiplier", catalog.Advanced, metrics.Vector{Reputation: 4}, 21},
		{"stress increase is not a gain", catalog.Beginner, metrics.Vector{Stress: 5}, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Score(tt.level, tt.impact)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
		})
	}

	p.OrientStress = false
	assert.Equal(t, 15, p.Score(catalog.Beginner, metrics.Vector{Stress: 5}))
}

func TestScoringPolicy_Validate(t *testing.T) {
	assert.NoError(t, resolution.DefaultScoringPolicy().Validate())

	p := resolution.DefaultScoringPolicy()
	p.Min = -1
	assert.Error(t, p.Validate())

	p = resolution.DefaultScoringPolicy()
	p.Max = 0
	assert.Error(t, p.Validate())

	p = resolution.DefaultScoringPolicy()
	p.Multipliers.Advanced = 0
	assert.Error(t, p.Validate())
}

func TestFeedback_ManyLosses(t *testing.T) {
	f := resolution.DefaultFeedbackComposer()
	out := resolution.Outcome{
		Choice:          catalog.Choice{Description: "Sell everything"},
		EffectiveImpact: metrics.Vector{Cashflow: -1, Control: -1, Reputation: -1},
	}

	text := f.Compose(out)
	assert.Contains(t, text, "Points d'attention : impact négatif sur cashflow, controle, reputation.")
	assert.Contains(t, text, "Attention aux impacts négatifs multiples")
	assert.NotContains(t, text, "Conseil")
}
