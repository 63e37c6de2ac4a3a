package memory_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/metrics"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/notification"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/progression"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/infrastructure/persistence/memory"
)

func seed(t *testing.T, s *memory.Store, id, email string) {
	t.Helper()
	e, err := shared.NewEmail(email)
	require.NoError(t, err)
	st, err := progression.NewStudent(progression.NewStudentParams{
		ID: id, Name: "Test", Email: e, Label: metrics.DefaultLabelPolicy(),
	})
	require.NoError(t, err)
	_, created, err := s.CreateStudent(context.Background(), st)
	require.NoError(t, err)
	require.True(t, created)
}

func complete(missionID string, delta metrics.Vector, score int) progression.UpdateFunc {
	return func(cur progression.Snapshot) (*progression.Commit, error) {
		next := cur.Student.WithCompletion(delta, score, metrics.DefaultLabelPolicy(), time.Now())
		return &progression.Commit{
			Student: next,
			Completion: &progression.Completion{
				StudentID: cur.Student.ID, MissionID: missionID, Delta: delta, ScoreEarned: score,
			},
			History: &progression.MetricSnapshot{StudentID: cur.Student.ID, MissionID: missionID, Metrics: next.Metrics},
		}, nil
	}
}

func TestStore_CreateStudentByEmail(t *testing.T) {
	s := memory.NewStore()
	seed(t, s, "s1", "ada@example.com")

	e, _ := shared.NewEmail("ADA@example.com")
	other, err := progression.NewStudent(progression.NewStudentParams{ID: "s2", Name: "Other", Email: e, Label: metrics.DefaultLabelPolicy()})
	require.NoError(t, err)

	stored, created, err := s.CreateStudent(context.Background(), other)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "s1", stored.ID)
}

func TestStore_UpdateAppliesAtomically(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	seed(t, s, "s1", "a@example.com")

	snap, err := s.Update(ctx, "s1", complete("m1", metrics.Vector{Cashflow: 3}, 12))
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.Student.Version)
	assert.Equal(t, 103, snap.Student.Metrics.Cashflow)
	assert.True(t, snap.IsCompleted("m1"))

	_, err = s.Update(ctx, "s1", complete("m1", metrics.Vector{Cashflow: 3}, 12))
	assert.True(t, shared.IsDuplicateSubmission(err))

	after, err := s.Snapshot(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, snap.Student, after.Student, "rejected commit leaves state unchanged")

	history, err := s.MetricHistory(ctx, "s1", shared.NewPagination(1, 10))
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestStore_RejectsInconsistentCommit(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	seed(t, s, "s1", "a@example.com")

	_, err := s.Update(ctx, "s1", func(cur progression.Snapshot) (*progression.Commit, error) {
		next := cur.Student
		next.TotalScore += 5
		return &progression.Commit{Student: next}, nil
	})
	assert.True(t, shared.IsInconsistentState(err))

	snap, _ := s.Snapshot(ctx, "s1")
	assert.Zero(t, snap.Student.TotalScore)
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	seed(t, s, "s1", "a@example.com")
	_, err := s.Update(ctx, "s1", complete("m1", metrics.Vector{}, 1))
	require.NoError(t, err)

	snap, _ := s.Snapshot(ctx, "s1")
	delete(snap.Completions, "m1")

	again, _ := s.Snapshot(ctx, "s1")
	assert.True(t, again.IsCompleted("m1"))
}

func TestStore_ConcurrentUpdatesSerializePerStudent(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	seed(t, s, "s1", "a@example.com")
	seed(t, s, "s2", "b@example.com")

	const n = 50
	var g errgroup.Group
	for i := range n {
		for _, id := range []string{"s1", "s2"} {
			g.Go(func() error {
				_, err := s.Update(ctx, id, complete(fmt.Sprintf("m%d", i), metrics.Vector{Stress: 1}, 2))
				return err
			})
		}
	}
	require.NoError(t, g.Wait())

	for _, id := range []string{"s1", "s2"} {
		snap, err := s.Snapshot(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, n, snap.CompletionCount())
		assert.Equal(t, 2*n, snap.Student.TotalScore)
		assert.Equal(t, 10+n, snap.Student.Metrics.Stress)
		assert.Equal(t, int64(n+1), snap.Student.Version)
	}
}

func TestStore_UnknownStudent(t *testing.T) {
	_, err := memory.NewStore().Snapshot(context.Background(), "nope")
	assert.True(t, shared.IsNotFound(err))
}

func TestNotificationStore(t *testing.T) {
	ctx := context.Background()
	s := memory.NewNotificationStore()
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []notification.NotificationID{"a", "b"} {
		n, err := notification.NewNotification(notification.NewNotificationParams{
			ID: id, StudentID: "s1", Type: notification.NotificationTypeLevelUp, Message: "hi",
			Now: t0.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
		require.NoError(t, s.Save(ctx, n))
	}

	list, err := s.ListByStudent(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, notification.NotificationID("b"), list[0].ID)

	require.NoError(t, s.MarkRead(ctx, "s1", "a"))
	assert.ErrorIs(t, s.MarkRead(ctx, "s2", "a"), notification.ErrNotificationNotFound)

	list, _ = s.ListByStudent(ctx, "s1")
	assert.True(t, list[1].IsRead)
}
