package catalogfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/catalog"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/metrics"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
)

func TestLoad_Seed(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, catalog.Stats{Concepts: 5, Missions: 12, Events: 3}, c.Stats())
	assert.Empty(t, c.Warnings())
	assert.Equal(t, Fingerprint(Seed()), c.Fingerprint())
	assert.Len(t, c.Fingerprint(), 64)

	m, err := c.Mission("budget-i1")
	require.NoError(t, err)
	assert.Equal(t, catalog.Intermediate, m.Level)
	assert.Equal(t, []string{"a", "b"}, m.ChoiceKeys())

	e, err := c.Event("euphorie")
	require.NoError(t, err)
	assert.Equal(t, []catalog.Level{catalog.Intermediate, catalog.Advanced}, e.Levels)
	assert.False(t, e.ActiveFor(catalog.Beginner, metrics.Vector{Profitability: 90}))
	assert.True(t, e.ActiveFor(catalog.Advanced, metrics.Vector{Profitability: 90}))

	var visible []string
	for _, concept := range c.ConceptsForProfile(catalog.ProfileInvestmentBanker) {
		visible = append(visible, concept.ID)
	}
	assert.Equal(t, []string{"budget", "risque", "levee-fonds"}, visible)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
concepts:
  - {id: c1, nom: Concept, profils: [1]}
missions:
  - id: m1
    concept: c1
    niveau: avancé
    choix:
      b: {impact: {stress: -1}}
      a: {impact: {cashflow: 2}}
evenements: []
`), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	m, err := c.Mission("m1")
	require.NoError(t, err)
	assert.Equal(t, catalog.Advanced, m.Level)
	assert.Equal(t, []string{"a", "b"}, m.ChoiceKeys())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown field", "concepts:\n  - {id: c1, couleur: rouge}\n"},
		{"unknown level", "concepts:\n  - {id: c1, profils: [1]}\nmissions:\n  - {id: m1, concept: c1, niveau: expert, choix: {a: {}, b: {}}}\n"},
		{"single choice", "concepts:\n  - {id: c1, profils: [1]}\nmissions:\n  - {id: m1, concept: c1, niveau: débutant, choix: {a: {}}}\n"},
		{"dangling event", "concepts:\n  - {id: c1, profils: [1]}\nmissions:\n  - {id: m1, concept: c1, niveau: débutant, choix: {a: {}, b: {}}, evenements_possibles: [ghost]}\n"},
		{"unknown concept", "missions:\n  - {id: m1, concept: nope, niveau: débutant, choix: {a: {}, b: {}}}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			require.Error(t, err)
			assert.True(t, shared.IsValidation(err), err)
		})
	}
}

func TestParse_WarnsOnInvisibleConcept(t *testing.T) {
	c, err := Parse([]byte("concepts:\n  - {id: orphan}\n"))
	require.NoError(t, err)
	assert.NotEmpty(t, c.Warnings())
}

func TestFingerprint_ChangesWithContent(t *testing.T) {
	assert.NotEqual(t, Fingerprint([]byte("a")), Fingerprint([]byte("b")))
	assert.Equal(t, Fingerprint([]byte("a")), Fingerprint([]byte("a")))
}
