// Package memory provides in-process implementations of the progression and
// notification stores. They hold the same invariants as the Postgres and
// Redis stores and back the service when DATABASE_URL is empty.
package memory

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/progression"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
)

// entry is one student's state guarded by its own lock.
type entry struct {
	mu      sync.RWMutex
	snap    progression.Snapshot
	history []progression.MetricSnapshot
}

// Store is a progression.Store kept in memory.
type Store struct {
	mu       sync.RWMutex
	students map[string]*entry
	byEmail  map[string]string
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		students: make(map[string]*entry),
		byEmail:  make(map[string]string),
	}
}

var _ progression.Store = (*Store)(nil)

// CreateStudent implements progression.Store.
func (s *Store) CreateStudent(_ context.Context, st *progression.Student) (*progression.Student, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(st.Email)
	if id, ok := s.byEmail[email]; ok {
		e := s.students[id]
		e.mu.RLock()
		existing := e.snap.Student
		e.mu.RUnlock()
		return &existing, false, nil
	}
	if _, ok := s.students[st.ID]; ok {
		return nil, false, shared.WrapError("student", "Create", shared.ErrAlreadyExists, "student id already used", nil)
	}

	stored := *st
	s.students[st.ID] = &entry{snap: progression.Snapshot{
		Student:     stored,
		Completions: map[string]progression.Completion{},
	}}
	s.byEmail[email] = st.ID
	return &stored, true, nil
}

func (s *Store) get(id string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.students[id]
	if !ok {
		return nil, shared.ErrStudentNotFound
	}
	return e, nil
}

// Snapshot implements progression.Store.
func (s *Store) Snapshot(ctx context.Context, studentID string) (progression.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return progression.Snapshot{}, err
	}
	e, err := s.get(studentID)
	if err != nil {
		return progression.Snapshot{}, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return clone(e.snap), nil
}

// Update implements progression.Store.
func (s *Store) Update(ctx context.Context, studentID string, fn progression.UpdateFunc) (progression.Snapshot, error) {
	e, err := s.get(studentID)
	if err != nil {
		return progression.Snapshot{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return progression.Snapshot{}, err
	}

	before := clone(e.snap)
	commit, err := fn(clone(e.snap))
	if err != nil {
		return progression.Snapshot{}, err
	}
	if commit == nil {
		return before, nil
	}
	if err := commit.Verify(before); err != nil {
		return progression.Snapshot{}, err
	}

	next := clone(before)
	next.Student = commit.Student
	next.Student.Version = before.Student.Version + 1
	if commit.Completion != nil {
		next.Completions[commit.Completion.MissionID] = *commit.Completion
	}
	if commit.History != nil {
		e.history = append(e.history, *commit.History)
	}
	e.snap = next
	return clone(next), nil
}

// MetricHistory implements progression.Store.
func (s *Store) MetricHistory(_ context.Context, studentID string, page shared.Pagination) ([]progression.MetricSnapshot, error) {
	e, err := s.get(studentID)
	if err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()

	start := min(page.Offset(), len(e.history))
	end := min(start+page.Limit(), len(e.history))
	return slices.Clone(e.history[start:end]), nil
}

func clone(s progression.Snapshot) progression.Snapshot {
	out := progression.Snapshot{Student: s.Student, Completions: maps.Clone(s.Completions)}
	if out.Completions == nil {
		out.Completions = map[string]progression.Completion{}
	}
	for k, c := range out.Completions {
		c.EventsApplied = slices.Clone(c.EventsApplied)
		out.Completions[k] = c
	}
	return out
}
