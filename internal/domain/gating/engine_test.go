package gating_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/catalog"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/catalog/catalogtest"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/gating"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
)

type completed map[string]bool

func (c completed) IsCompleted(id string) bool { return c[id] }

func availability(t *testing.T, e *gating.Engine, id string, done completed) gating.Availability {
	t.Helper()
	a, err := e.MissionAvailability(id, catalog.ProfilePortfolioManager, done)
	require.NoError(t, err)
	return a
}

func TestRiskScenario(t *testing.T) {
	e := gating.NewEngine(catalogtest.New())
	done := completed{}

	status, err := e.ConceptStatus(catalogtest.ConceptRisk, done)
	require.NoError(t, err)
	assert.Equal(t, []catalog.Level{catalog.Intermediate}, status.LockedLevels())
	assert.Equal(t, gating.Available, availability(t, e, catalogtest.M1, done))
	assert.Equal(t, gating.Locked, availability(t, e, catalogtest.M3, done))

	done[catalogtest.M1] = true
	status, _ = e.ConceptStatus(catalogtest.ConceptRisk, done)
	assert.Equal(t, []catalog.Level{catalog.Intermediate}, status.LockedLevels(), "intermediate still locked after M1")
	assert.Equal(t, gating.Completed, availability(t, e, catalogtest.M1, done))
	assert.Equal(t, gating.Available, availability(t, e, catalogtest.M2, done))
	assert.Equal(t, gating.Locked, availability(t, e, catalogtest.M3, done))

	done[catalogtest.M2] = true
	status, _ = e.ConceptStatus(catalogtest.ConceptRisk, done)
	assert.Empty(t, status.LockedLevels(), "intermediate unlocks exactly when the last beginner mission completes")
	assert.Equal(t, gating.Available, availability(t, e, catalogtest.M3, done))
	assert.False(t, status.IsCompleted())
	assert.Equal(t, 2, status.CompletedCount)

	done[catalogtest.M3] = true
	status, _ = e.ConceptStatus(catalogtest.ConceptRisk, done)
	assert.True(t, status.IsCompleted())
	assert.Equal(t, status.TotalCount, status.CompletedCount)
}

func TestLockRule_AllTiers(t *testing.T) {
	concept := &catalog.Concept{ID: "c", Profiles: []catalog.ProfileID{1}}
	missions := []*catalog.Mission{
		{ID: "b1", Level: catalog.Beginner},
		{ID: "i1", Level: catalog.Intermediate},
		{ID: "i2", Level: catalog.Intermediate},
		{ID: "a1", Level: catalog.Advanced},
	}

	tests := []struct {
		name   string
		done   completed
		locked []catalog.Level
	}{
		{"nothing done", completed{}, []catalog.Level{catalog.Intermediate, catalog.Advanced}},
		{"beginner done", completed{"b1": true}, []catalog.Level{catalog.Advanced}},
		{"partial intermediate", completed{"b1": true, "i1": true}, []catalog.Level{catalog.Advanced}},
		{"skipped beginner", completed{"i1": true, "i2": true}, []catalog.Level{catalog.Intermediate, catalog.Advanced}},
		{"all lower done", completed{"b1": true, "i1": true, "i2": true}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := gating.Evaluate(concept, missions, tt.done)
			assert.Equal(t, tt.locked, s.LockedLevels())
			assert.Equal(t, len(tt.done), s.CompletedCount)
			assert.Equal(t, s.CompletedCount == s.TotalCount, s.IsCompleted())
		})
	}
}

func TestMissionAvailability_Profile(t *testing.T) {
	e := gating.NewEngine(catalogtest.New())

	a, err := e.MissionAvailability(catalogtest.B1, catalog.ProfilePortfolioManager, completed{})
	require.NoError(t, err)
	assert.Equal(t, gating.Locked, a, "concept not visible to profile")

	a, err = e.MissionAvailability(catalogtest.M1, catalog.ProfileUnset, completed{})
	require.NoError(t, err)
	assert.Equal(t, gating.Locked, a)

	_, err = e.MissionAvailability("ghost", catalog.ProfilePortfolioManager, completed{})
	assert.True(t, shared.IsNotFound(err))
}

func TestNextMission(t *testing.T) {
	e := gating.NewEngine(catalogtest.New())

	m, ok := e.NextMission(catalog.ProfilePortfolioManager, completed{})
	require.True(t, ok)
	assert.Equal(t, catalogtest.M1, m.ID)

	m, ok = e.NextMission(catalog.ProfilePortfolioManager, completed{catalogtest.M1: true, catalogtest.M2: true})
	require.True(t, ok)
	assert.Equal(t, catalogtest.M3, m.ID)

	all := completed{catalogtest.M1: true, catalogtest.M2: true, catalogtest.M3: true}
	m, ok = e.NextMission(catalog.ProfilePortfolioManager, all)
	require.True(t, ok)
	assert.Equal(t, catalogtest.L1, m.ID)

	all[catalogtest.L1] = true
	_, ok = e.NextMission(catalog.ProfilePortfolioManager, all)
	assert.False(t, ok)

	_, ok = e.NextMission(catalog.ProfileUnset, completed{})
	assert.False(t, ok)
}

func TestAvailableMissions(t *testing.T) {
	e := gating.NewEngine(catalogtest.New())

	var ids []string
	for _, m := range e.AvailableMissions(catalog.ProfilePortfolioManager, completed{catalogtest.M1: true}) {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{catalogtest.M2, catalogtest.L1}, ids)
}

func TestStage(t *testing.T) {
	e := gating.NewEngine(catalogtest.New())

	assert.Equal(t, gating.StageProfileSelection, e.Stage(catalog.ProfileUnset, completed{}).Stage)

	r := e.Stage(catalog.ProfilePortfolioManager, completed{})
	assert.Equal(t, gating.StageFundamentals, r.Stage)
	assert.Equal(t, catalogtest.ConceptRisk, r.CurrentConcept.ID)
	assert.Zero(t, r.ProgressPercentage)

	done := completed{catalogtest.M1: true, catalogtest.M2: true, catalogtest.M3: true}
	r = e.Stage(catalog.ProfilePortfolioManager, done)
	assert.Equal(t, gating.StageSpecialized, r.Stage)
	assert.Equal(t, catalogtest.ConceptLiquidity, r.CurrentConcept.ID)

	done[catalogtest.L1] = true
	r = e.Stage(catalog.ProfilePortfolioManager, done)
	assert.Equal(t, gating.StageCompleted, r.Stage)
	assert.Equal(t, 100.0, r.ProgressPercentage)
}
