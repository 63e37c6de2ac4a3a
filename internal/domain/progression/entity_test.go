package progression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/catalog"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/metrics"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
)

func newTestStudent(t *testing.T) *Student {
	t.Helper()
	s, err := NewStudent(NewStudentParams{
		ID:    "7b0c8a8e-2f43-4a4e-9d1b-4b7d5f3c2a10",
		Name:  "Amina",
		Email: "amina@example.com",
		Label: metrics.DefaultLabelPolicy(),
		Now:   time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	require.NoError(t, err)
	return s
}

func TestNewStudent_Defaults(t *testing.T) {
	s := newTestStudent(t)

	assert.Equal(t, catalog.ProfileUnset, s.Profile)
	assert.Equal(t, metrics.Initial(), s.Metrics)
	assert.Equal(t, metrics.LabelPrudent, s.LevelLabel)
	assert.Zero(t, s.TotalScore)
	assert.EqualValues(t, 1, s.Version)

	_, err := NewStudent(NewStudentParams{ID: "x", Name: " ", Email: "a@b.c"})
	assert.True(t, shared.IsValidation(err))
}

func TestStudent_WithProfile(t *testing.T) {
	s := newTestStudent(t)

	next, err := s.WithProfile(catalog.ProfileFinancialAnalyst, time.Now())
	require.NoError(t, err)
	assert.Equal(t, catalog.ProfileFinancialAnalyst, next.Profile)
	assert.Equal(t, s.Metrics, next.Metrics)

	_, err = s.WithProfile(catalog.ProfileID(42), time.Now())
	assert.ErrorIs(t, err, shared.ErrInvalidProfile)
}

func completionCommit(s Student, delta metrics.Vector, score int) *Commit {
	next := s.WithCompletion(delta, score, metrics.DefaultLabelPolicy(), time.Now())
	return &Commit{
		Student: next,
		Completion: &Completion{
			StudentID:   s.ID,
			MissionID:   "m1",
			Delta:       delta,
			ScoreEarned: score,
		},
	}
}

func TestCommit_Verify(t *testing.T) {
	s := *newTestStudent(t)
	before := Snapshot{Student: s, Completions: map[string]Completion{}}
	delta := metrics.Vector{Stress: -3, Cashflow: 4}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, completionCommit(s, delta, 11).Verify(before))
	})

	t.Run("metrics drift", func(t *testing.T) {
		c := completionCommit(s, delta, 11)
		c.Student.Metrics.Stress++
		assert.True(t, shared.IsInconsistentState(c.Verify(before)))
	})

	t.Run("score drift", func(t *testing.T) {
		c := completionCommit(s, delta, 11)
		c.Student.TotalScore = 0
		assert.True(t, shared.IsInconsistentState(c.Verify(before)))
	})

	t.Run("duplicate", func(t *testing.T) {
		done := Snapshot{Student: s, Completions: map[string]Completion{"m1": {MissionID: "m1"}}}
		assert.True(t, shared.IsDuplicateSubmission(completionCommit(s, delta, 11).Verify(done)))
	})

	t.Run("stale version", func(t *testing.T) {
		c := completionCommit(s, delta, 11)
		c.Student.Version++
		assert.True(t, shared.IsInconsistentState(c.Verify(before)))
	})

	t.Run("profile change keeps metrics", func(t *testing.T) {
		next, _ := s.WithProfile(catalog.ProfilePortfolioManager, time.Now())
		assert.NoError(t, (&Commit{Student: next}).Verify(before))

		next.TotalScore = 5
		assert.True(t, shared.IsInconsistentState((&Commit{Student: next}).Verify(before)))
	})
}

func TestSnapshot_Ordered(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{Completions: map[string]Completion{
		"b": {MissionID: "b", CompletedAt: t0.Add(time.Minute)},
		"a": {MissionID: "a", CompletedAt: t0.Add(time.Minute)},
		"c": {MissionID: "c", CompletedAt: t0},
	}}

	var ids []string
	for _, c := range snap.Ordered() {
		ids = append(ids, c.MissionID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
	assert.True(t, snap.IsCompleted("a"))
	assert.False(t, snap.IsCompleted("z"))
}
