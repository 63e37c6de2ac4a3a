package gating

import (
	"fmt"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/catalog"
)

// LearningStage is the coarse position of a student in the curriculum.
// Transitions are profile_selection -> fundamentals -> specialized_learning ->
// completed and are recomputed from completions on every call.
type LearningStage string

const (
	StageProfileSelection LearningStage = "profile_selection"
	StageFundamentals     LearningStage = "fundamentals"
	StageSpecialized      LearningStage = "specialized_learning"
	StageCompleted        LearningStage = "completed"
)

// StageReport describes the current stage and how far along it is.
type StageReport struct {
	Stage              LearningStage
	ProgressPercentage float64
	NextAction         string
	CompletedConcepts  int
	TotalConcepts      int
	CurrentConcept     *catalog.Concept
}

// Stage computes the learning stage of a student.
func (e *Engine) Stage(profile catalog.ProfileID, p Progress) StageReport {
	if !profile.IsSet() {
		return StageReport{
			Stage:      StageProfileSelection,
			NextAction: "Select a specialization profile",
		}
	}

	var fundamentals, specialized []ConceptStatus
	for _, s := range e.VisibleConcepts(profile, p) {
		if s.Concept.Fundamental {
			fundamentals = append(fundamentals, s)
		} else {
			specialized = append(specialized, s)
		}
	}

	if r, ok := stageOf(StageFundamentals, fundamentals); ok {
		r.NextAction = "Complete fundamental concepts"
		return r
	}
	if r, ok := stageOf(StageSpecialized, specialized); ok {
		r.NextAction = fmt.Sprintf("Continue the %s track", profile.Label())
		return r
	}
	return StageReport{
		Stage:              StageCompleted,
		ProgressPercentage: 100,
		NextAction:         "All concepts completed",
		CompletedConcepts:  len(fundamentals) + len(specialized),
		TotalConcepts:      len(fundamentals) + len(specialized),
	}
}

// stageOf returns a report for stage when some concept in group is still
// incomplete.
func stageOf(stage LearningStage, group []ConceptStatus) (StageReport, bool) {
	r := StageReport{Stage: stage, TotalConcepts: len(group)}
	for _, s := range group {
		if s.IsCompleted() {
			r.CompletedConcepts++
		} else if r.CurrentConcept == nil {
			r.CurrentConcept = s.Concept
		}
	}
	if r.CurrentConcept == nil {
		return StageReport{}, false
	}
	r.ProgressPercentage = float64(r.CompletedConcepts) / float64(r.TotalConcepts) * 100
	return r, true
}
