// Package query contains read operations (CQRS - Queries).
// Every query derives its answer from one consistent progression snapshot.
package query

import (
	"context"
	"time"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/catalog"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/gating"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/progression"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STUDENT QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetStudentQuery identifies one student.
type GetStudentQuery struct {
	StudentID string
}

// Validate checks the query.
func (q GetStudentQuery) Validate() error {
	if q.StudentID == "" {
		return shared.NewDomainError("student", "Find", shared.ErrInvalidInput, "student_id is required")
	}
	return nil
}

// StudentDTO is the public view of a student.
type StudentDTO struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Profile      int       `json:"profile"`
	ProfileLabel string    `json:"profile_label"`
	Cashflow     int       `json:"cashflow"`
	Control      int       `json:"controle"`
	Stress       int       `json:"stress"`
	Profit       int       `json:"rentabilite"`
	Reputation   int       `json:"reputation"`
	TotalScore   int       `json:"total_score"`
	LevelAI      string    `json:"level_ai"`
	Version      int64     `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewStudentDTO maps a student to its public view.
func NewStudentDTO(s progression.Student) StudentDTO {
	return StudentDTO{
		ID:           s.ID,
		Name:         s.Name,
		Email:        s.Email,
		Profile:      int(s.Profile),
		ProfileLabel: s.Profile.Label(),
		Cashflow:     s.Metrics.Cashflow,
		Control:      s.Metrics.Control,
		Stress:       s.Metrics.Stress,
		Profit:       s.Metrics.Profitability,
		Reputation:   s.Metrics.Reputation,
		TotalScore:   s.TotalScore,
		LevelAI:      s.LevelLabel,
		Version:      s.Version,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// ProfileDTO is the profile part of a student.
type ProfileDTO struct {
	Profile      int    `json:"profile"`
	ProfileLabel string `json:"profile_label"`
}

// GetStudentHandler reads student records.
type GetStudentHandler struct {
	store progression.Store
}

// NewGetStudentHandler creates a new GetStudentHandler.
func NewGetStudentHandler(store progression.Store) *GetStudentHandler {
	return &GetStudentHandler{store: store}
}

// Handle returns the student.
func (h *GetStudentHandler) Handle(ctx context.Context, q GetStudentQuery) (*StudentDTO, error) {
	snap, err := h.snapshot(ctx, q)
	if err != nil {
		return nil, err
	}
	dto := NewStudentDTO(snap.Student)
	return &dto, nil
}

// Profile returns the student's track.
func (h *GetStudentHandler) Profile(ctx context.Context, q GetStudentQuery) (*ProfileDTO, error) {
	snap, err := h.snapshot(ctx, q)
	if err != nil {
		return nil, err
	}
	return &ProfileDTO{Profile: int(snap.Student.Profile), ProfileLabel: snap.Student.Profile.Label()}, nil
}

func (h *GetStudentHandler) snapshot(ctx context.Context, q GetStudentQuery) (progression.Snapshot, error) {
	if err := q.Validate(); err != nil {
		return progression.Snapshot{}, err
	}
	return h.store.Snapshot(ctx, q.StudentID)
}

// ══════════════════════════════════════════════════════════════════════════════
// GET STAGE QUERY
// ══════════════════════════════════════════════════════════════════════════════

// StageDTO is the learning stage of a student.
type StageDTO struct {
	StudentID          string  `json:"student_id"`
	Stage              string  `json:"stage"`
	ProgressPercentage float64 `json:"progress_percentage"`
	NextAction         string  `json:"next_action"`
	CompletedConcepts  int     `json:"completed_concepts"`
	TotalConcepts      int     `json:"total_concepts"`
	CurrentConcept     string  `json:"current_concept,omitempty"`
	ProfileLabel       string  `json:"profile_label"`
}

// GetStageHandler computes learning stages.
type GetStageHandler struct {
	store  progression.Store
	gating *gating.Engine
}

// NewGetStageHandler creates a new GetStageHandler.
func NewGetStageHandler(store progression.Store, engine *gating.Engine) *GetStageHandler {
	return &GetStageHandler{store: store, gating: engine}
}

// Handle returns the stage.
func (h *GetStageHandler) Handle(ctx context.Context, q GetStudentQuery) (*StageDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	snap, err := h.store.Snapshot(ctx, q.StudentID)
	if err != nil {
		return nil, err
	}

	r := h.gating.Stage(snap.Student.Profile, snap)
	dto := &StageDTO{
		StudentID:          snap.Student.ID,
		Stage:              string(r.Stage),
		ProgressPercentage: r.ProgressPercentage,
		NextAction:         r.NextAction,
		CompletedConcepts:  r.CompletedConcepts,
		TotalConcepts:      r.TotalConcepts,
		ProfileLabel:       snap.Student.Profile.Label(),
	}
	if r.CurrentConcept != nil {
		dto.CurrentConcept = r.CurrentConcept.ID
	}
	return dto, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GET METRIC HISTORY QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetMetricHistoryQuery pages through post-commit snapshots.
type GetMetricHistoryQuery struct {
	StudentID string
	Page      int
	PageSize  int
}

// MetricPointDTO is one recorded commit.
type MetricPointDTO struct {
	MissionID  string    `json:"mission_id"`
	Cashflow   int       `json:"cashflow"`
	Control    int       `json:"controle"`
	Stress     int       `json:"stress"`
	Profit     int       `json:"rentabilite"`
	Reputation int       `json:"reputation"`
	TotalScore int       `json:"total_score"`
	LevelAI    string    `json:"level_ai"`
	RecordedAt time.Time `json:"recorded_at"`
}

// MetricHistoryDTO is one page of history, oldest first.
type MetricHistoryDTO struct {
	StudentID string           `json:"student_id"`
	Page      int              `json:"page"`
	PageSize  int              `json:"page_size"`
	Points    []MetricPointDTO `json:"points"`
}

// GetMetricHistoryHandler reads metric history.
type GetMetricHistoryHandler struct {
	store progression.Store
}

// NewGetMetricHistoryHandler creates a new GetMetricHistoryHandler.
func NewGetMetricHistoryHandler(store progression.Store) *GetMetricHistoryHandler {
	return &GetMetricHistoryHandler{store: store}
}

// Handle returns one page of history.
func (h *GetMetricHistoryHandler) Handle(ctx context.Context, q GetMetricHistoryQuery) (*MetricHistoryDTO, error) {
	if err := (GetStudentQuery{StudentID: q.StudentID}).Validate(); err != nil {
		return nil, err
	}
	// Unknown students are a 404, not an empty page.
	if _, err := h.store.Snapshot(ctx, q.StudentID); err != nil {
		return nil, err
	}

	page := shared.NewPagination(q.Page, q.PageSize)
	history, err := h.store.MetricHistory(ctx, q.StudentID, page)
	if err != nil {
		return nil, err
	}

	dto := &MetricHistoryDTO{
		StudentID: q.StudentID,
		Page:      page.Page,
		PageSize:  page.PageSize,
		Points:    make([]MetricPointDTO, 0, len(history)),
	}
	for _, p := range history {
		dto.Points = append(dto.Points, MetricPointDTO{
			MissionID:  p.MissionID,
			Cashflow:   p.Metrics.Cashflow,
			Control:    p.Metrics.Control,
			Stress:     p.Metrics.Stress,
			Profit:     p.Metrics.Profitability,
			Reputation: p.Metrics.Reputation,
			TotalScore: p.TotalScore,
			LevelAI:    p.LevelLabel,
			RecordedAt: p.RecordedAt,
		})
	}
	return dto, nil
}

// profilesOf converts profile ids to plain ints for JSON.
func profilesOf(c *catalog.Concept) []int {
	out := make([]int, len(c.Profiles))
	for i, p := range c.Profiles {
		out[i] = int(p)
	}
	return out
}
