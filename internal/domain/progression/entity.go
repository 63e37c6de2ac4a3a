// Package progression holds per-student mutable state: the chosen profile,
// the metric vector, the total score and the append-only mission completion
// log. All writes go through Store.Update so that one student's
// read-modify-write cycles are serialized.
package progression

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/catalog"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/metrics"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT
// ══════════════════════════════════════════════════════════════════════════════

// Student is the mutable progression record of one player.
type Student struct {
	ID         string
	Name       string
	Email      string
	Profile    catalog.ProfileID
	Metrics    metrics.Vector
	TotalScore int
	LevelLabel string

	// Version increases by one on every committed change.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewStudentParams are the inputs to NewStudent.
type NewStudentParams struct {
	ID    string
	Name  string
	Email shared.Email
	Label metrics.LabelPolicy
	Now   time.Time
}

// NewStudent creates a student with the initial metric vector and no profile.
func NewStudent(params NewStudentParams) (*Student, error) {
	if params.ID == "" {
		return nil, shared.NewDomainError("student", "Create", shared.ErrInvalidID, "student id is required")
	}
	name := strings.TrimSpace(params.Name)
	if name == "" || len(name) > 100 {
		return nil, shared.NewDomainError("student", "Create", shared.ErrInvalidInput, "name must be 1-100 chars")
	}
	if params.Email == "" {
		return nil, shared.ErrInvalidEmail
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	initial := metrics.Initial()
	return &Student{
		ID:         params.ID,
		Name:       name,
		Email:      params.Email.String(),
		Profile:    catalog.ProfileUnset,
		Metrics:    initial,
		LevelLabel: params.Label.Derive(initial),
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// WithProfile returns a copy on the given track. Metrics are never reset.
func (s Student) WithProfile(p catalog.ProfileID, now time.Time) (Student, error) {
	if !p.IsValid() {
		return s, shared.ErrInvalidProfile
	}
	s.Profile = p
	s.UpdatedAt = now.UTC()
	return s, nil
}

// WithCompletion returns a copy with a mission outcome applied.
func (s Student) WithCompletion(delta metrics.Vector, score int, policy metrics.LabelPolicy, now time.Time) Student {
	s.Metrics = metrics.Apply(s.Metrics, delta)
	s.TotalScore += score
	s.LevelLabel = policy.Derive(s.Metrics)
	s.UpdatedAt = now.UTC()
	return s
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETION LOG
// ══════════════════════════════════════════════════════════════════════════════

// Completion records one committed mission outcome. At most one exists per
// (student, mission).
type Completion struct {
	ID               string
	StudentID        string
	MissionID        string
	ConceptID        string
	Level            catalog.Level
	Choice           string
	Delta            metrics.Vector
	ScoreEarned      int
	EventsApplied    []string
	TimeSpentSeconds int
	CompletedAt      time.Time
}

// MetricSnapshot is the post-commit state recorded for history charts.
type MetricSnapshot struct {
	StudentID  string
	MissionID  string
	Metrics    metrics.Vector
	TotalScore int
	LevelLabel string
	RecordedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT & COMMIT
// ══════════════════════════════════════════════════════════════════════════════

// Snapshot is a consistent view of a student and their completions.
type Snapshot struct {
	Student     Student
	Completions map[string]Completion
}

// IsCompleted reports whether the mission has a completion record.
func (s Snapshot) IsCompleted(missionID string) bool {
	_, ok := s.Completions[missionID]
	return ok
}

// CompletionCount returns the number of completed missions.
func (s Snapshot) CompletionCount() int {
	return len(s.Completions)
}

// Ordered returns completions oldest first.
func (s Snapshot) Ordered() []Completion {
	out := make([]Completion, 0, len(s.Completions))
	for _, c := range s.Completions {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b Completion) int {
		if c := a.CompletedAt.Compare(b.CompletedAt); c != 0 {
			return c
		}
		return strings.Compare(a.MissionID, b.MissionID)
	})
	return out
}

// Commit is the change an Update callback asks the store to apply.
type Commit struct {
	// Student is the full new state. The store assigns Version.
	Student Student

	// Completion is appended when set.
	Completion *Completion

	// History is appended when set.
	History *MetricSnapshot
}

// Verify checks that applying c on top of before keeps the vector-addition
// and score invariants. Stores call it before writing anything.
func (c *Commit) Verify(before Snapshot) error {
	prev := before.Student
	next := c.Student

	if next.ID != prev.ID {
		return inconsistent(fmt.Sprintf("commit targets %q, snapshot is %q", next.ID, prev.ID))
	}
	if next.Version != prev.Version {
		return shared.ErrStudentVersionGap
	}

	if c.Completion == nil {
		if next.Metrics != prev.Metrics || next.TotalScore != prev.TotalScore {
			return inconsistent("metrics or score changed without a completion")
		}
		return nil
	}

	comp := c.Completion
	if comp.StudentID != prev.ID {
		return inconsistent("completion belongs to another student")
	}
	if before.IsCompleted(comp.MissionID) {
		return shared.WrapError("submission", "Commit", shared.ErrDuplicateSubmission,
			"Mission already completed", nil)
	}
	if comp.ScoreEarned < 0 {
		return inconsistent("negative score")
	}
	if next.Metrics != metrics.Apply(prev.Metrics, comp.Delta) {
		return inconsistent("new metrics differ from previous metrics plus delta")
	}
	if next.TotalScore != prev.TotalScore+comp.ScoreEarned {
		return inconsistent("total score differs from previous score plus earned")
	}
	return nil
}

func inconsistent(msg string) error {
	return shared.WrapError("progression", "Commit", shared.ErrInconsistentState, msg, nil)
}
