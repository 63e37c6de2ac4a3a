// Package command contains write operations (CQRS - Commands).
// Commands are the only way progression state changes.
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/catalog"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/gating"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/metrics"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/progression"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/resolution"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
	"github.com/ChoraichiFadwa/ECOLead-Finance/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT MISSION COMMAND
// The mission resolution pipeline: Requested -> Validated -> Scored ->
// Committed, or Rejected at Validated. Nothing is written on rejection.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitMissionCommand contains one choice submission.
type SubmitMissionCommand struct {
	StudentID        string
	MissionID        string
	Choice           string
	TimeSpentSeconds int

	// CorrelationID for tracing across services.
	CorrelationID string
}

// Validate validates the command.
func (c SubmitMissionCommand) Validate() error {
	switch {
	case c.StudentID == "":
		return shared.NewDomainError("submission", "Validate", shared.ErrInvalidInput, "student_id is required")
	case c.MissionID == "":
		return shared.NewDomainError("submission", "Validate", shared.ErrInvalidInput, "mission_id is required")
	case c.Choice == "":
		return shared.NewDomainError("submission", "Validate", shared.ErrInvalidInput, "choices.main is required")
	case c.TimeSpentSeconds < 0:
		return shared.NewDomainError("submission", "Validate", shared.ErrInvalidInput, "time_spent_seconds cannot be negative")
	}
	return nil
}

// SubmitMissionResult is the committed outcome.
type SubmitMissionResult struct {
	StudentID      string
	MissionID      string
	ScoreEarned    int
	TotalScore     int
	MetricsChanges metrics.Vector
	NewMetrics     metrics.Vector
	Feedback       string
	LevelUp        bool
	PreviousLevel  string
	NewLevel       string
	EventsApplied  []string

	ConceptCompleted bool
	UnlockedLevel    *catalog.Level
	UnlockedMission  string
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES (Interfaces)
// ══════════════════════════════════════════════════════════════════════════════

// SubmissionMetrics records pipeline outcomes.
type SubmissionMetrics interface {
	// ObserveSubmission records one attempt. outcome is "committed",
	// "invalid", "duplicate" or "error".
	ObserveSubmission(outcome string, level catalog.Level, score int)
}

type nopMetrics struct{}

func (nopMetrics) ObserveSubmission(string, catalog.Level, int) {}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// SubmitMissionHandler handles SubmitMissionCommand.
type SubmitMissionHandler struct {
	store     progression.Store
	gating    *gating.Engine
	resolver  *resolution.Resolver
	labels    metrics.LabelPolicy
	publisher shared.EventPublisher
	metrics   SubmissionMetrics
	log       *logger.Logger

	newID func() string
	now   func() time.Time
}

// SubmitMissionHandlerConfig contains the handler collaborators that have
// defaults.
type SubmitMissionHandlerConfig struct {
	Labels    metrics.LabelPolicy
	Publisher shared.EventPublisher
	Metrics   SubmissionMetrics
	Logger    *logger.Logger
	NewID     func() string
	Now       func() time.Time
}

// NewSubmitMissionHandler creates a new SubmitMissionHandler.
func NewSubmitMissionHandler(
	store progression.Store,
	engine *gating.Engine,
	resolver *resolution.Resolver,
	config SubmitMissionHandlerConfig,
) *SubmitMissionHandler {
	if len(config.Labels.Rules) == 0 && config.Labels.Default == "" {
		config.Labels = metrics.DefaultLabelPolicy()
	}
	if config.Metrics == nil {
		config.Metrics = nopMetrics{}
	}
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}
	if config.NewID == nil {
		config.NewID = uuid.NewString
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &SubmitMissionHandler{
		store:     store,
		gating:    engine,
		resolver:  resolver,
		labels:    config.Labels,
		publisher: config.Publisher,
		metrics:   config.Metrics,
		log:       config.Logger.With(logger.Component("submit_mission")),
		newID:     config.NewID,
		now:       config.Now,
	}
}

// Handle executes the pipeline.
func (h *SubmitMissionHandler) Handle(ctx context.Context, cmd SubmitMissionCommand) (*SubmitMissionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	log := h.log.With(logger.StudentID(cmd.StudentID), logger.MissionID(cmd.MissionID))

	mission, err := h.gating.Catalog().Mission(cmd.MissionID)
	if err != nil {
		return nil, err
	}

	var (
		before  progression.Snapshot
		outcome resolution.Outcome
	)
	after, err := h.store.Update(ctx, cmd.StudentID, func(cur progression.Snapshot) (*progression.Commit, error) {
		if err := h.validate(mission, cur); err != nil {
			return nil, err
		}

		out, err := h.resolver.Resolve(mission, cmd.Choice, cur.Student.Metrics)
		if err != nil {
			return nil, err
		}

		now := h.now().UTC()
		next := cur.Student.WithCompletion(out.EffectiveImpact, out.Score, h.labels, now)
		before, outcome = cur, out
		return &progression.Commit{
			Student: next,
			Completion: &progression.Completion{
				ID:               h.newID(),
				StudentID:        cur.Student.ID,
				MissionID:        mission.ID,
				ConceptID:        mission.ConceptID,
				Level:            mission.Level,
				Choice:           cmd.Choice,
				Delta:            out.EffectiveImpact,
				ScoreEarned:      out.Score,
				EventsApplied:    out.EventIDs(),
				TimeSpentSeconds: cmd.TimeSpentSeconds,
				CompletedAt:      now,
			},
			History: &progression.MetricSnapshot{
				StudentID:  cur.Student.ID,
				MissionID:  mission.ID,
				Metrics:    next.Metrics,
				TotalScore: next.TotalScore,
				LevelLabel: next.LevelLabel,
				RecordedAt: now,
			},
		}, nil
	})
	if err != nil {
		h.reject(log, mission, err)
		return nil, err
	}

	result := &SubmitMissionResult{
		StudentID:      cmd.StudentID,
		MissionID:      mission.ID,
		ScoreEarned:    outcome.Score,
		TotalScore:     after.Student.TotalScore,
		MetricsChanges: outcome.EffectiveImpact,
		NewMetrics:     after.Student.Metrics,
		Feedback:       outcome.Feedback,
		PreviousLevel:  before.Student.LevelLabel,
		NewLevel:       after.Student.LevelLabel,
		LevelUp:        before.Student.LevelLabel != after.Student.LevelLabel,
		EventsApplied:  outcome.EventIDs(),
	}
	h.milestones(mission, before, after, result)

	h.metrics.ObserveSubmission("committed", mission.Level, result.ScoreEarned)
	log.Info("mission committed",
		logger.ChoiceKey(cmd.Choice),
		logger.Score(result.ScoreEarned),
		logger.Int("total_score", result.TotalScore),
		logger.Bool("level_up", result.LevelUp),
	)

	h.publish(log, cmd, mission, result)
	return result, nil
}

// validate rejects submissions the gating engine does not allow.
func (h *SubmitMissionHandler) validate(m *catalog.Mission, cur progression.Snapshot) error {
	if !cur.Student.Profile.IsSet() {
		return shared.ErrProfileNotSelected
	}
	availability, err := h.gating.MissionAvailability(m.ID, cur.Student.Profile, cur)
	if err != nil {
		return err
	}
	switch availability {
	case gating.Completed:
		return shared.ErrMissionCompleted
	case gating.Locked:
		concept, err := h.gating.Catalog().Concept(m.ConceptID)
		if err == nil && !concept.VisibleTo(cur.Student.Profile) {
			return shared.ErrConceptNotVisible
		}
		return shared.ErrMissionLocked
	}
	return nil
}

// milestones fills concept completion and level unlock by comparing the
// concept status before and after the commit.
func (h *SubmitMissionHandler) milestones(m *catalog.Mission, before, after progression.Snapshot, r *SubmitMissionResult) {
	prev, err := h.gating.ConceptStatus(m.ConceptID, before)
	if err != nil {
		return
	}
	next, err := h.gating.ConceptStatus(m.ConceptID, after)
	if err != nil {
		return
	}

	r.ConceptCompleted = next.IsCompleted() && !prev.IsCompleted()

	stillLocked := make(map[catalog.Level]bool)
	for _, l := range next.LockedLevels() {
		stillLocked[l] = true
	}
	for _, l := range prev.LockedLevels() {
		if stillLocked[l] {
			continue
		}
		level := l
		r.UnlockedLevel = &level
		for _, ls := range next.Levels {
			if ls.Level == l && len(ls.Missions) > 0 {
				r.UnlockedMission = ls.Missions[0].ID
			}
		}
		break
	}
}

func (h *SubmitMissionHandler) reject(log *logger.Logger, m *catalog.Mission, err error) {
	switch {
	case shared.IsDuplicateSubmission(err):
		h.metrics.ObserveSubmission("duplicate", m.Level, 0)
		log.Warn("duplicate submission rejected")
	case shared.IsInvalidSubmission(err):
		h.metrics.ObserveSubmission("invalid", m.Level, 0)
		log.Warn("submission rejected", logger.Err(err))
	case shared.IsInconsistentState(err):
		h.metrics.ObserveSubmission("error", m.Level, 0)
		log.Error("inconsistent state during commit", logger.Err(err))
	case errors.Is(err, context.Canceled):
	default:
		h.metrics.ObserveSubmission("error", m.Level, 0)
		log.Error("submission failed", logger.Err(err))
	}
}

// publish emits MissionCompletedEvent. Failures never affect the result.
func (h *SubmitMissionHandler) publish(log *logger.Logger, cmd SubmitMissionCommand, m *catalog.Mission, r *SubmitMissionResult) {
	if h.publisher == nil {
		return
	}
	event := shared.NewMissionCompletedEvent(r.StudentID, m.ID, m.ConceptID)
	if concept, err := h.gating.Catalog().Concept(m.ConceptID); err == nil {
		event.ConceptName = concept.Name
	}
	event.Level = m.Level.String()
	event.Choice = cmd.Choice
	event.ScoreEarned = r.ScoreEarned
	event.TotalScore = r.TotalScore
	event.PreviousLabel = r.PreviousLevel
	event.NewLabel = r.NewLevel
	event.ConceptCompleted = r.ConceptCompleted
	if r.UnlockedLevel != nil {
		event.UnlockedLevel = r.UnlockedLevel.String()
		event.UnlockedMission = r.UnlockedMission
	}
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}

	if err := h.publisher.Publish(event); err != nil {
		log.Warn("failed to publish mission completed event", logger.Err(fmt.Errorf("publish: %w", err)))
	}
}
