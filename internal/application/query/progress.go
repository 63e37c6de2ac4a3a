package query

import (
	"context"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/catalog"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/gating"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/progression"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONCEPT PROGRESS QUERIES
// Gating output shaped for the client. Nothing here is cached: the answers
// are recomputed from completions on every call.
// ══════════════════════════════════════════════════════════════════════════════

// ConceptProgressDTO summarizes one concept.
type ConceptProgressDTO struct {
	Concept           string `json:"concept"`
	ConceptName       string `json:"concept_name"`
	Profiles          []int  `json:"profiles"`
	MissionsCompleted int    `json:"missions_completed"`
	TotalMissions     int    `json:"total_missions"`
	IsCompleted       bool   `json:"is_completed"`
}

// LevelProgressDTO is the per-level gating view of one concept. Tiers with
// no missions are omitted.
type LevelProgressDTO struct {
	Concept         string                                 `json:"concept"`
	ProgressByLevel map[catalog.Level][]gating.MissionState `json:"progress_by_level"`
	LockedLevels    []catalog.Level                        `json:"locked_levels"`
}

// LevelSummaryDTO counts completions in one tier.
type LevelSummaryDTO struct {
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// ProgressSummaryDTO is the overall progress of a student.
type ProgressSummaryDTO struct {
	StudentID         string                            `json:"student_id"`
	LevelAI           string                            `json:"current_level"`
	TotalScore        int                               `json:"total_score"`
	MissionsCompleted int                               `json:"missions_completed"`
	CurrentMetrics    map[string]int                    `json:"current_metrics"`
	LevelProgress     map[catalog.Level]LevelSummaryDTO `json:"level_progress"`
}

// GetConceptLevelsQuery identifies one concept of one student.
type GetConceptLevelsQuery struct {
	StudentID string
	ConceptID string
}

// Validate checks the query.
func (q GetConceptLevelsQuery) Validate() error {
	if q.StudentID == "" || q.ConceptID == "" {
		return shared.NewDomainError("progress", "ConceptLevels", shared.ErrInvalidInput, "student_id and concept_id are required")
	}
	return nil
}

// ProgressHandler answers the concept progress queries.
type ProgressHandler struct {
	store  progression.Store
	gating *gating.Engine
}

// NewProgressHandler creates a new ProgressHandler.
func NewProgressHandler(store progression.Store, engine *gating.Engine) *ProgressHandler {
	return &ProgressHandler{store: store, gating: engine}
}

// Concepts lists the concepts visible to the student. A student without a
// profile sees none.
func (h *ProgressHandler) Concepts(ctx context.Context, q GetStudentQuery) ([]ConceptProgressDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	snap, err := h.store.Snapshot(ctx, q.StudentID)
	if err != nil {
		return nil, err
	}

	statuses := h.statuses(snap)
	out := make([]ConceptProgressDTO, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, ConceptProgressDTO{
			Concept:           s.Concept.ID,
			ConceptName:       s.Concept.Name,
			Profiles:          profilesOf(s.Concept),
			MissionsCompleted: s.CompletedCount,
			TotalMissions:     s.TotalCount,
			IsCompleted:       s.IsCompleted(),
		})
	}
	return out, nil
}

// Levels returns the per-level state of one concept. A concept hidden from
// the student's profile is reported as not found.
func (h *ProgressHandler) Levels(ctx context.Context, q GetConceptLevelsQuery) (*LevelProgressDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	snap, err := h.store.Snapshot(ctx, q.StudentID)
	if err != nil {
		return nil, err
	}
	if !snap.Student.Profile.IsSet() {
		return nil, shared.ErrProfileNotSelected
	}
	concept, err := h.gating.Catalog().Concept(q.ConceptID)
	if err != nil {
		return nil, err
	}
	if !concept.VisibleTo(snap.Student.Profile) {
		return nil, shared.ErrConceptNotFound
	}
	status, err := h.gating.ConceptStatus(q.ConceptID, snap)
	if err != nil {
		return nil, err
	}

	dto := &LevelProgressDTO{
		Concept:         q.ConceptID,
		ProgressByLevel: make(map[catalog.Level][]gating.MissionState, len(status.Levels)),
		LockedLevels:    status.LockedLevels(),
	}
	if dto.LockedLevels == nil {
		dto.LockedLevels = []catalog.Level{}
	}
	for _, l := range status.Levels {
		dto.ProgressByLevel[l.Level] = l.Missions
	}
	return dto, nil
}

// Summary counts completions per level over the concepts Concepts returns.
func (h *ProgressHandler) Summary(ctx context.Context, q GetStudentQuery) (*ProgressSummaryDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	snap, err := h.store.Snapshot(ctx, q.StudentID)
	if err != nil {
		return nil, err
	}
	statuses := h.statuses(snap)

	levels := make(map[catalog.Level]LevelSummaryDTO, len(catalog.Levels))
	for _, l := range catalog.Levels {
		levels[l] = LevelSummaryDTO{}
	}
	for _, s := range statuses {
		for _, l := range s.Levels {
			sum := levels[l.Level]
			sum.Total += len(l.Missions)
			for _, m := range l.Missions {
				if m.Completed {
					sum.Completed++
				}
			}
			levels[l.Level] = sum
		}
	}
	for l, sum := range levels {
		if sum.Total > 0 {
			sum.Percentage = float64(sum.Completed) / float64(sum.Total) * 100
		}
		levels[l] = sum
	}

	return &ProgressSummaryDTO{
		StudentID:         snap.Student.ID,
		LevelAI:           snap.Student.LevelLabel,
		TotalScore:        snap.Student.TotalScore,
		MissionsCompleted: snap.CompletionCount(),
		CurrentMetrics:    snap.Student.Metrics.Map(),
		LevelProgress:     levels,
	}, nil
}

func (h *ProgressHandler) statuses(snap progression.Snapshot) []gating.ConceptStatus {
	if !snap.Student.Profile.IsSet() {
		return []gating.ConceptStatus{}
	}
	return h.gating.VisibleConcepts(snap.Student.Profile, snap)
}
