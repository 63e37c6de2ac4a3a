package command

import (
	"context"
	"time"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/catalog"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/progression"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SELECT PROFILE COMMAND
// Sets the specialization track. Metrics and score are left untouched.
// ══════════════════════════════════════════════════════════════════════════════

// SelectProfileCommand selects a track for a student.
type SelectProfileCommand struct {
	StudentID string
	Profile   catalog.ProfileID
}

// Validate validates the command.
func (c SelectProfileCommand) Validate() error {
	if c.StudentID == "" {
		return shared.NewDomainError("student", "SelectProfile", shared.ErrInvalidInput, "student_id is required")
	}
	if !c.Profile.IsValid() {
		return shared.ErrInvalidProfile
	}
	return nil
}

// SelectProfileHandler handles SelectProfileCommand.
type SelectProfileHandler struct {
	store     progression.Store
	publisher shared.EventPublisher
	now       func() time.Time
}

// NewSelectProfileHandler creates a new SelectProfileHandler.
func NewSelectProfileHandler(store progression.Store, publisher shared.EventPublisher) *SelectProfileHandler {
	return &SelectProfileHandler{store: store, publisher: publisher, now: time.Now}
}

// Handle executes the command and returns the updated student. Selecting the
// current profile again is a no-op.
func (h *SelectProfileHandler) Handle(ctx context.Context, cmd SelectProfileCommand) (*progression.Student, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	previous := catalog.ProfileUnset
	snap, err := h.store.Update(ctx, cmd.StudentID, func(cur progression.Snapshot) (*progression.Commit, error) {
		previous = cur.Student.Profile
		if previous == cmd.Profile {
			return nil, nil
		}
		next, err := cur.Student.WithProfile(cmd.Profile, h.now())
		if err != nil {
			return nil, err
		}
		return &progression.Commit{Student: next}, nil
	})
	if err != nil {
		return nil, err
	}

	if previous != cmd.Profile && h.publisher != nil {
		_ = h.publisher.Publish(shared.NewProfileSelectedEvent(cmd.StudentID, int(previous), int(cmd.Profile)))
	}
	return &snap.Student, nil
}
