package catalog_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/catalog"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/catalog/catalogtest"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/metrics"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
)

func TestCatalog_Lookups(t *testing.T) {
	c := catalogtest.New()

	concept, err := c.Concept(catalogtest.ConceptRisk)
	require.NoError(t, err)
	assert.Equal(t, []string{catalogtest.M1, catalogtest.M2, catalogtest.M3}, concept.Missions,
		"missions are ordered by level then authoring order")

	m, err := c.Mission(catalogtest.M3)
	require.NoError(t, err)
	assert.Equal(t, catalog.Intermediate, m.Level)

	beginner, err := c.MissionsByLevel(catalogtest.ConceptRisk, catalog.Beginner)
	require.NoError(t, err)
	assert.Len(t, beginner, 2)

	all, err := c.MissionsByConcept(catalogtest.ConceptRisk)
	require.NoError(t, err)
	assert.Len(t, all, 3, "level filtering must not alias the index")

	_, err = c.Event(catalogtest.EventCrash)
	assert.NoError(t, err)
}

func TestCatalog_NotFound(t *testing.T) {
	c := catalogtest.New()

	_, err := c.Mission("nope")
	assert.True(t, shared.IsNotFound(err))
	_, err = c.Concept("nope")
	assert.True(t, shared.IsNotFound(err))
	_, err = c.Event("nope")
	assert.True(t, shared.IsNotFound(err))
	_, err = c.MissionsByConcept("nope")
	assert.True(t, shared.IsNotFound(err))
}

func TestCatalog_ConceptsForProfile(t *testing.T) {
	c := catalogtest.New()

	ids := func(cs []*catalog.Concept) []string {
		out := make([]string, len(cs))
		for i, concept := range cs {
			out[i] = concept.ID
		}
		return out
	}

	assert.Equal(t, []string{catalogtest.ConceptRisk, catalogtest.ConceptLiquidity}, ids(c.ConceptsForProfile(1)))
	assert.Equal(t, []string{catalogtest.ConceptBanking}, ids(c.ConceptsForProfile(3)))
	assert.Empty(t, c.ConceptsForProfile(catalog.ProfileUnset))

	for _, p := range catalog.Profiles {
		assert.NotContains(t, ids(c.ConceptsForProfile(p)), catalogtest.ConceptHidden)
	}
	assert.Contains(t, c.Warnings(), `concept "orphan" has no profiles and is never visible`)
}

func TestNew_RejectsStructuralErrors(t *testing.T) {
	content := catalog.Content{
		Concepts: []catalog.Concept{{ID: "c", Profiles: []catalog.ProfileID{1, 9}}},
		Missions: []catalog.Mission{
			{ID: "m1", ConceptID: "c", Choices: []catalog.Choice{{Key: "a"}}},
			{ID: "m2", ConceptID: "missing", Choices: []catalog.Choice{{Key: "a"}, {Key: "b"}}},
			{ID: "m3", ConceptID: "c", Choices: []catalog.Choice{{Key: "a"}, {Key: "b"}}, PossibleEvents: []string{"ghost"}},
		},
		Events: []catalog.Event{
			{ID: "e", Conditions: metrics.Leaf("liquidity", metrics.OpLess, 1)},
		},
	}

	_, err := catalog.New(content, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrValidation)
	for _, want := range []string{
		"unknown profile 9",
		`mission "m1": needs at least 2 choices`,
		`mission "m2": unknown concept "missing"`,
		`mission "m3": unknown event "ghost"`,
		`event "e": conditions`,
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestEvent_ActiveFor(t *testing.T) {
	c := catalogtest.New()
	crash, _ := c.Event(catalogtest.EventCrash)
	boom, _ := c.Event(catalogtest.EventBoom)

	assert.True(t, crash.ActiveFor(catalog.Intermediate, metrics.Vector{Cashflow: 79}))
	assert.False(t, crash.ActiveFor(catalog.Intermediate, metrics.Vector{Cashflow: 80}))
	assert.False(t, boom.ActiveFor(catalog.Intermediate, metrics.Vector{}), "level restricted")
	assert.True(t, boom.ActiveFor(catalog.Advanced, metrics.Vector{}), "empty conditions hold")
	assert.Equal(t, metrics.Vector{Cashflow: -5}, crash.Modifier("a"))
	assert.True(t, crash.Modifier("b").IsZero())
}

func TestLevel_Text(t *testing.T) {
	var l catalog.Level
	require.NoError(t, json.Unmarshal([]byte(`"intermédiaire"`), &l))
	assert.Equal(t, catalog.Intermediate, l)

	b, err := json.Marshal(catalog.Advanced)
	require.NoError(t, err)
	assert.JSONEq(t, `"advanced"`, string(b))

	_, err = catalog.ParseLevel("expert")
	assert.True(t, shared.IsValidation(err))
	assert.Less(t, catalog.Beginner, catalog.Intermediate)
}

func TestProfile(t *testing.T) {
	p, err := catalog.ParseProfile("2")
	require.NoError(t, err)
	assert.Equal(t, "Analyste financier", p.Label())
	assert.Equal(t, "Choisis un profil", catalog.ProfileUnset.Label())

	_, err = catalog.ParseProfile("7")
	assert.True(t, shared.IsValidation(err))
}
