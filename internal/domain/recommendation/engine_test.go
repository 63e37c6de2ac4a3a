package recommendation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/catalog"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/catalog/catalogtest"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/gating"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/metrics"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/progression"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/recommendation"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/strategy"
)

func newEngine(c catalog.Reader) *recommendation.Engine {
	g := gating.NewEngine(c)
	return recommendation.NewEngine(g, strategy.NewBuilder(g, strategy.DefaultFeatureSpec()), recommendation.DefaultPolicy())
}

func snapshot(profile catalog.ProfileID, done ...progression.Completion) progression.Snapshot {
	snap := progression.Snapshot{
		Student: progression.Student{
			ID:         "s1",
			Profile:    profile,
			Metrics:    metrics.Initial(),
			LevelLabel: metrics.LabelPrudent,
		},
		Completions: map[string]progression.Completion{},
	}
	for i, c := range done {
		c.CompletedAt = time.Date(2025, 1, 1, 0, i, 0, 0, time.UTC)
		snap.Completions[c.MissionID] = c
	}
	return snap
}

// twoMissions builds a catalog with one beginner mission per concept.
func twoMissions(t *testing.T, alpha, beta [2]metrics.Vector) *catalog.Catalog {
	t.Helper()
	mission := func(id, concept string, impacts [2]metrics.Vector) catalog.Mission {
		return catalog.Mission{
			ID: id, ConceptID: concept, Level: catalog.Beginner,
			Choices: []catalog.Choice{
				{Key: "a", Impact: impacts[0]},
				{Key: "b", Impact: impacts[1]},
			},
		}
	}
	c, err := catalog.New(catalog.Content{
		Concepts: []catalog.Concept{
			{ID: "alpha", Name: "Alpha", Profiles: []catalog.ProfileID{1}},
			{ID: "beta", Name: "Beta", Profiles: []catalog.ProfileID{1}},
		},
		Missions: []catalog.Mission{
			mission("alpha-1", "alpha", alpha),
			mission("beta-1", "beta", beta),
		},
	}, "test")
	require.NoError(t, err)
	return c
}

func ids(b recommendation.Bundle) []string {
	out := make([]string, len(b.Missions))
	for i, m := range b.Missions {
		out[i] = m.MissionID
	}
	return out
}

func TestSuggest_PreserveLiquidityRanksCashflowGainFirst(t *testing.T) {
	c := twoMissions(t,
		[2]metrics.Vector{{Cashflow: -4}, {Cashflow: -3}},
		[2]metrics.Vector{{Cashflow: 5}, {Cashflow: 1}},
	)

	b, err := newEngine(c).Suggest(snapshot(catalog.ProfilePortfolioManager), recommendation.Request{
		Goal: strategy.GoalPreserveLiquidity,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"beta-1", "alpha-1"}, ids(b))
	assert.Equal(t, "b", b.Missions[1].BestChoice)
	assert.Equal(t, 5.0, b.Missions[0].Projection)
	assert.Equal(t, "improves cashflow by 5", b.Missions[0].Why[0])
	assert.True(t, b.Partial)
	assert.Contains(t, b.Explanation, "Couverture partielle : 2 mission(s) disponible(s) sur 3")
}

func TestSuggest_ReduceStressNeverRanksIncreaseAboveDecrease(t *testing.T) {
	// alpha sorts first by concept id, so only the projection can put beta
	// ahead.
	c := twoMissions(t,
		[2]metrics.Vector{{Stress: 2}, {Stress: 3}},
		[2]metrics.Vector{{Stress: -1}, {Stress: 4}},
	)

	b, err := newEngine(c).Suggest(snapshot(catalog.ProfilePortfolioManager), recommendation.Request{
		Goal: strategy.GoalReduceStress,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"beta-1", "alpha-1"}, ids(b))
	assert.Equal(t, "reduces stress by 1", b.Missions[0].Why[0])
	assert.Equal(t, "adds 2 stress, the least among its choices", b.Missions[1].Why[0])
}

func TestSuggest_TieBreaksByConceptID(t *testing.T) {
	same := [2]metrics.Vector{{Profitability: 2}, {Profitability: 1}}
	c := twoMissions(t, same, same)

	b, err := newEngine(c).Suggest(snapshot(catalog.ProfilePortfolioManager), recommendation.Request{
		Goal: strategy.GoalBoostProfitability,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha-1", "beta-1"}, ids(b))
}

func TestSuggest_BundleSizeClamped(t *testing.T) {
	c := twoMissions(t,
		[2]metrics.Vector{{Cashflow: 1}, {Cashflow: 2}},
		[2]metrics.Vector{{Cashflow: 3}, {Cashflow: 4}},
	)
	e := newEngine(c)
	snap := snapshot(catalog.ProfilePortfolioManager)

	b, err := e.Suggest(snap, recommendation.Request{Goal: strategy.GoalBalance, MaxBundle: 1})
	require.NoError(t, err)
	assert.Len(t, b.Missions, 1)
	assert.False(t, b.Partial)

	b, err = e.Suggest(snap, recommendation.Request{MaxBundle: 50})
	require.NoError(t, err)
	assert.Equal(t, 6, b.Requested)
	assert.Equal(t, strategy.GoalBalance, b.Goal)

	p := recommendation.DefaultPolicy()
	assert.Equal(t, 3, p.ClampBundle(0))
	assert.Equal(t, 1, p.ClampBundle(1))
	assert.Equal(t, 6, p.ClampBundle(7))
}

func TestSuggest_ConceptWhitelist(t *testing.T) {
	c := twoMissions(t,
		[2]metrics.Vector{{Cashflow: 1}, {Cashflow: 2}},
		[2]metrics.Vector{{Cashflow: 3}, {Cashflow: 4}},
	)
	b, err := newEngine(c).Suggest(snapshot(catalog.ProfilePortfolioManager), recommendation.Request{
		Goal:             strategy.GoalPreserveLiquidity,
		ConceptWhitelist: []string{"alpha"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha-1"}, ids(b))
}

func TestSuggest_ActiveEventsShapeBestChoice(t *testing.T) {
	c := catalogtest.New()
	snap := snapshot(catalog.ProfilePortfolioManager,
		progression.Completion{MissionID: catalogtest.M1, ConceptID: catalogtest.ConceptRisk, Choice: "a"},
		progression.Completion{MissionID: catalogtest.M2, ConceptID: catalogtest.ConceptRisk, Choice: "a"},
	)
	snap.Student.Metrics = snap.Student.Metrics.With(metrics.Cashflow, 70)

	b, err := newEngine(c).Suggest(snap, recommendation.Request{
		Goal:             strategy.GoalPreserveLiquidity,
		ConceptWhitelist: []string{catalogtest.ConceptRisk},
	})
	require.NoError(t, err)

	require.Len(t, b.Missions, 1)
	item := b.Missions[0]
	assert.Equal(t, catalogtest.M3, item.MissionID)
	assert.Equal(t, "b", item.BestChoice, "crash pushes choice a to -7 cashflow")
	assert.True(t, item.HasEvent)
	assert.Equal(t, []string{catalogtest.EventCrash}, item.ActiveEvents)
	assert.Equal(t, []recommendation.Card{{Kind: "event_context", MissionID: catalogtest.M3, EventID: catalogtest.EventCrash}}, b.Cards)
}

func TestSuggest_UnsetProfile(t *testing.T) {
	b, err := newEngine(catalogtest.New()).Suggest(snapshot(catalog.ProfileUnset), recommendation.Request{})
	require.NoError(t, err)
	assert.Empty(t, b.Missions)
	assert.Equal(t, "Choisis un profil pour recevoir des recommandations.", b.Explanation)
	assert.Equal(t, catalog.ProfileUnset.Label(), b.Job)
}

func TestSuggest_UnknownGoal(t *testing.T) {
	_, err := newEngine(catalogtest.New()).Suggest(snapshot(catalog.ProfilePortfolioManager), recommendation.Request{Goal: "yolo"})
	assert.ErrorIs(t, err, shared.ErrUnknownGoal)
}

func TestSuggest_Tips(t *testing.T) {
	e := newEngine(catalogtest.New())

	stressed := snapshot(catalog.ProfilePortfolioManager,
		progression.Completion{MissionID: catalogtest.M1, ConceptID: catalogtest.ConceptRisk, Choice: "b", Delta: metrics.Vector{Stress: 3, Profitability: 4}},
	)
	b, err := e.Suggest(stressed, recommendation.Request{Goal: strategy.GoalBalance})
	require.NoError(t, err)
	assert.Equal(t, "too_much_stress", b.Tip.ID)
	assert.Equal(t, metrics.LabelPrudent, b.Tip.Audience)

	poor := snapshot(catalog.ProfilePortfolioManager)
	poor.Student.Metrics = poor.Student.Metrics.With(metrics.Cashflow, 20)
	b, err = e.Suggest(poor, recommendation.Request{Goal: strategy.GoalBalance})
	require.NoError(t, err)
	assert.Equal(t, "low_cashflow", b.Tip.ID)

	b, err = e.Suggest(snapshot(catalog.ProfilePortfolioManager), recommendation.Request{Goal: strategy.GoalReduceStress})
	require.NoError(t, err)
	assert.Equal(t, "goal_reduce_stress", b.Tip.ID)
}

func TestWhy_IsBounded(t *testing.T) {
	why := recommendation.Why(strategy.GoalBalance, metrics.Initial(),
		metrics.Vector{Cashflow: 1, Control: 2, Stress: -3, Profitability: 4, Reputation: 5}, 100)
	assert.Len(t, why, 3)

	why = recommendation.Why(strategy.GoalReduceStress, metrics.Initial(), metrics.Vector{Stress: -2}, 100)
	assert.Equal(t, []string{"reduces stress by 2", "preserves cashflow"}, why)
}

func TestProjection_Balance(t *testing.T) {
	current := metrics.Vector{Cashflow: 100, Control: 50, Stress: 10, Profitability: 50, Reputation: 50}
	narrowing := recommendation.Projection(strategy.GoalBalance, current, metrics.Vector{Cashflow: -10}, 100)
	widening := recommendation.Projection(strategy.GoalBalance, current, metrics.Vector{Cashflow: 10}, 100)
	assert.Greater(t, narrowing, 0.0)
	assert.Less(t, widening, 0.0)
}

func TestPolicy_Validate(t *testing.T) {
	assert.NoError(t, recommendation.DefaultPolicy().Validate())

	p := recommendation.DefaultPolicy()
	p.DefaultBundle = 9
	assert.Error(t, p.Validate())
}
