package strategy_test

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
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/strategy"
)

var t0 = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func snapshot(profile catalog.ProfileID, comps ...progression.Completion) progression.Snapshot {
	snap := progression.Snapshot{
		Student: progression.Student{
			ID:         "s1",
			Profile:    profile,
			Metrics:    metrics.Initial(),
			LevelLabel: metrics.LabelPrudent,
		},
		Completions: map[string]progression.Completion{},
	}
	for i, c := range comps {
		c.CompletedAt = t0.Add(time.Duration(i) * time.Minute)
		snap.Completions[c.MissionID] = c
	}
	return snap
}

func completion(missionID, conceptID, choice string, delta metrics.Vector) progression.Completion {
	return progression.Completion{MissionID: missionID, ConceptID: conceptID, Choice: choice, Delta: delta}
}

func newBuilder() *strategy.Builder {
	return strategy.NewBuilder(gating.NewEngine(catalogtest.New()), strategy.DefaultFeatureSpec())
}

func TestParseGoal(t *testing.T) {
	g, err := strategy.ParseGoal("")
	require.NoError(t, err)
	assert.Equal(t, strategy.GoalBalance, g)

	g, err = strategy.ParseGoal(" Reduce_Stress ")
	require.NoError(t, err)
	assert.Equal(t, strategy.GoalReduceStress, g)

	_, err = strategy.ParseGoal("get_rich")
	assert.ErrorIs(t, err, shared.ErrUnknownGoal)
}

func TestComputeFeatures(t *testing.T) {
	c := catalogtest.New()
	comps := []progression.Completion{
		completion(catalogtest.M1, catalogtest.ConceptRisk, "b", metrics.Vector{Stress: 3, Profitability: 4}),
		completion(catalogtest.M2, catalogtest.ConceptRisk, "a", metrics.Vector{Stress: 1, Profitability: -1}),
		completion(catalogtest.L1, catalogtest.ConceptLiquidity, "a", metrics.Vector{Cashflow: 1}),
	}

	f := strategy.ComputeFeatures(c, comps, strategy.DefaultFeatureSpec())

	assert.Equal(t, 2, f.Missions, "neutral decision filtered out")
	assert.InDelta(t, 1.0, f.PctStressUp, 1e-9)
	assert.InDelta(t, 1.0, f.ChoiceEntropy, 1e-9)
	assert.Equal(t, 1, f.ConceptsTouched)
	assert.Greater(t, f.PctHighRisk, 0.0)
	assert.Greater(t, f.PctLowRisk, 0.0)
	assert.Zero(t, f.EventExposureRate)
}

func TestComputeFeatures_WindowAndEmpty(t *testing.T) {
	c := catalogtest.New()
	assert.Equal(t, strategy.Features{}, strategy.ComputeFeatures(c, nil, strategy.DefaultFeatureSpec()))

	var comps []progression.Completion
	for range 12 {
		comps = append(comps, completion("x", "risk", "a", metrics.Vector{Cashflow: -2, Profitability: 3}))
	}
	f := strategy.ComputeFeatures(c, comps, strategy.DefaultFeatureSpec())
	assert.Equal(t, 8, f.Missions)
	assert.InDelta(t, 1.0, f.ReturnOverCostRatio, 1e-9)
	assert.Zero(t, f.PctStressUp)
}

func TestBuild_ColdStart(t *testing.T) {
	ctx := newBuilder().Build(snapshot(catalog.ProfilePortfolioManager))

	assert.Equal(t, strategy.StageColdStart, ctx.Stage)
	assert.Equal(t, strategy.FullAnalysisAfter, ctx.Progress.MissionsToFullAnalysis)
	assert.Equal(t, strategy.GoalPriority{Priority: 2, Badge: "🎯"}, ctx.GoalRecommendations[strategy.GoalBalance])
	assert.Len(t, ctx.GoalRecommendations, len(strategy.Goals))
	assert.NotEmpty(t, ctx.OnboardingTips)
	assert.Equal(t, 2, ctx.Concepts.Total)
	assert.Zero(t, ctx.Concepts.CoveragePct)
	assert.Equal(t, []string{"Risk", "Liquidity"}, ctx.Concepts.UnexploredPreview)
	assert.Nil(t, ctx.AdvancedMetrics)
}

func TestBuild_Early(t *testing.T) {
	snap := snapshot(catalog.ProfilePortfolioManager,
		completion(catalogtest.M1, catalogtest.ConceptRisk, "b", metrics.Vector{Stress: 3, Profitability: 4}),
		completion(catalogtest.M2, catalogtest.ConceptRisk, "b", metrics.Vector{Stress: 2, Profitability: 3}),
	)

	ctx := newBuilder().Build(snap)

	assert.Equal(t, strategy.StageEarly, ctx.Stage)
	assert.Equal(t, "Tu prends tes marques, c'est bien !", ctx.Progress.Message)
	assert.Equal(t, 4, ctx.Progress.MissionsToFullAnalysis)
	require.Len(t, ctx.Alerts, 1)
	assert.Equal(t, strategy.GoalReduceStress, ctx.Alerts[0].SuggestedGoal)
	assert.Equal(t, strategy.GoalPriority{Priority: 2, Badge: "💡"}, ctx.GoalRecommendations[strategy.GoalReduceStress])
	assert.Equal(t, 50, ctx.Concepts.CoveragePct)
	assert.Nil(t, ctx.AdvancedMetrics)
}

func TestBuild_Experienced(t *testing.T) {
	delta := metrics.Vector{Stress: 3, Profitability: 2}
	snap := snapshot(catalog.ProfilePortfolioManager,
		completion(catalogtest.M1, catalogtest.ConceptRisk, "b", delta),
		completion(catalogtest.M2, catalogtest.ConceptRisk, "b", delta),
		completion(catalogtest.M3, catalogtest.ConceptRisk, "b", delta),
		completion(catalogtest.L1, catalogtest.ConceptLiquidity, "b", delta),
		completion(catalogtest.H1, catalogtest.ConceptHidden, "b", delta),
		completion(catalogtest.B1, catalogtest.ConceptBanking, "b", delta),
	)

	ctx := newBuilder().Build(snap)

	assert.Equal(t, strategy.StageExperienced, ctx.Stage)
	assert.Zero(t, ctx.Progress.MissionsToFullAnalysis)
	require.NotNil(t, ctx.AdvancedMetrics)
	assert.Equal(t, 6, ctx.AdvancedMetrics.Missions)

	var types []string
	for _, a := range ctx.Alerts {
		types = append(types, a.Type)
	}
	assert.Equal(t, []string{"high_stress", "low_diversity"}, types)
	assert.Empty(t, ctx.Opportunities)
	assert.Equal(t, strategy.GoalPriority{Priority: 2, Badge: "⚠️"}, ctx.GoalRecommendations[strategy.GoalReduceStress])
	assert.Equal(t, strategy.GoalPriority{Priority: 2, Badge: "🔄"}, ctx.GoalRecommendations[strategy.GoalBalance])
	assert.Equal(t, 100, ctx.Concepts.CoveragePct)
}

func TestBuild_UnsetProfile(t *testing.T) {
	ctx := newBuilder().Build(snapshot(catalog.ProfileUnset))
	assert.Zero(t, ctx.Concepts.Total)
	assert.Equal(t, catalog.ProfileUnset.Label(), ctx.Job)
}
