package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/metrics"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/progression"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE STUDENT COMMAND
// Registers a player. Registering a known email returns the existing record.
// ══════════════════════════════════════════════════════════════════════════════

// CreateStudentCommand contains the registration data.
type CreateStudentCommand struct {
	Name  string
	Email string
}

// Validate validates the command.
func (c CreateStudentCommand) Validate() error {
	if c.Name == "" {
		return shared.NewDomainError("student", "Create", shared.ErrInvalidInput, "name is required")
	}
	if _, err := shared.NewEmail(c.Email); err != nil {
		return err
	}
	return nil
}

// CreateStudentResult is the stored student.
type CreateStudentResult struct {
	Student progression.Student
	Created bool
}

// CreateStudentHandler handles CreateStudentCommand.
type CreateStudentHandler struct {
	store     progression.Store
	labels    metrics.LabelPolicy
	publisher shared.EventPublisher
	newID     func() string
	now       func() time.Time
}

// NewCreateStudentHandler creates a new CreateStudentHandler.
func NewCreateStudentHandler(store progression.Store, labels metrics.LabelPolicy, publisher shared.EventPublisher) *CreateStudentHandler {
	return &CreateStudentHandler{
		store:     store,
		labels:    labels,
		publisher: publisher,
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// Handle executes the command.
func (h *CreateStudentHandler) Handle(ctx context.Context, cmd CreateStudentCommand) (*CreateStudentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	email, _ := shared.NewEmail(cmd.Email)

	s, err := progression.NewStudent(progression.NewStudentParams{
		ID:    h.newID(),
		Name:  cmd.Name,
		Email: email,
		Label: h.labels,
		Now:   h.now(),
	})
	if err != nil {
		return nil, err
	}

	stored, created, err := h.store.CreateStudent(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("create_student: failed to store student: %w", err)
	}

	if created && h.publisher != nil {
		_ = h.publisher.Publish(shared.NewStudentRegisteredEvent(stored.ID, stored.Name, stored.Email))
	}
	return &CreateStudentResult{Student: *stored, Created: created}, nil
}
