package progression

import (
	"context"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateFunc computes a commit from an exclusively held snapshot. Returning
// a nil commit and nil error leaves the student untouched. Returning an
// error aborts without writing.
type UpdateFunc func(current Snapshot) (*Commit, error)

// Store persists students and their completion log.
type Store interface {
	// CreateStudent inserts s unless a student with the same email exists,
	// in which case the existing record is returned with created=false.
	CreateStudent(ctx context.Context, s *Student) (stored *Student, created bool, err error)

	// Snapshot returns a consistent view: the student row and the
	// completions it reflects are read together.
	// Returns ErrStudentNotFound if the student does not exist.
	Snapshot(ctx context.Context, studentID string) (Snapshot, error)

	// Update runs fn against an exclusively held snapshot and applies the
	// returned commit atomically. Calls for the same student are serialized;
	// calls for different students never contend.
	// Returns the post-commit snapshot.
	Update(ctx context.Context, studentID string, fn UpdateFunc) (Snapshot, error)

	// MetricHistory returns recorded snapshots, oldest first.
	MetricHistory(ctx context.Context, studentID string, page shared.Pagination) ([]MetricSnapshot, error)
}
