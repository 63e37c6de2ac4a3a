package query

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/progression"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/recommendation"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/strategy"
	"github.com/ChoraichiFadwa/ECOLead-Finance/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUGGEST BUNDLE QUERY
// Goal-directed mini-bundle of available missions.
// ══════════════════════════════════════════════════════════════════════════════

// SuggestBundleQuery asks for a bundle.
type SuggestBundleQuery struct {
	StudentID string

	// Goal is one of the strategy goals. Empty means balance.
	Goal string

	// MaxBundle is the requested size. Zero selects the default.
	MaxBundle int

	// Concepts restricts candidates when set.
	Concepts []string
}

// Validate checks the query.
func (q SuggestBundleQuery) Validate() error {
	if q.StudentID == "" {
		return shared.NewDomainError("recommendation", "Suggest", shared.ErrInvalidInput, "student_id is required")
	}
	if _, err := strategy.ParseGoal(q.Goal); err != nil {
		return err
	}
	return nil
}

// BundleMissionsDTO wraps the ranked missions.
type BundleMissionsDTO struct {
	Missions []recommendation.Item `json:"missions"`
}

// SuggestionDTO is the bundle response.
type SuggestionDTO struct {
	StudentID   string                `json:"student_id"`
	Goal        strategy.Goal         `json:"goal"`
	Job         string                `json:"job"`
	ProfileTilt string                `json:"profile_tilt"`
	Bundle      BundleMissionsDTO     `json:"bundle"`
	Cards       []recommendation.Card `json:"cards"`
	Tip         recommendation.Tip    `json:"tip"`
	Explanation string                `json:"explanation"`
	Requested   int                   `json:"requested"`
	Partial     bool                  `json:"partial"`
}

// SuggestBundleHandler produces bundles.
type SuggestBundleHandler struct {
	store  progression.Store
	engine *recommendation.Engine
	cache  ReadCache
	log    *logger.Logger

	fingerprint string
}

// NewSuggestBundleHandler creates a new SuggestBundleHandler. cache and log
// may be nil.
func NewSuggestBundleHandler(
	store progression.Store,
	engine *recommendation.Engine,
	fingerprint string,
	cache ReadCache,
	log *logger.Logger,
) *SuggestBundleHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &SuggestBundleHandler{
		store:       store,
		engine:      engine,
		cache:       cache,
		log:         log.With(logger.Component("suggest_bundle")),
		fingerprint: fingerprint,
	}
}

// Handle returns the bundle.
func (h *SuggestBundleHandler) Handle(ctx context.Context, q SuggestBundleQuery) (*SuggestionDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	goal, _ := strategy.ParseGoal(q.Goal)

	snap, err := h.store.Snapshot(ctx, q.StudentID)
	if err != nil {
		return nil, err
	}

	concepts := slices.Clone(q.Concepts)
	slices.Sort(concepts)
	key := cacheKey("suggest", h.fingerprint, snap,
		string(goal), strconv.Itoa(h.engine.Policy().ClampBundle(q.MaxBundle)), strings.Join(concepts, ","))

	var dto SuggestionDTO
	if h.cache != nil {
		hit, err := h.cache.Get(ctx, key, &dto)
		if err != nil {
			h.log.Warn("cache read failed", logger.StudentID(q.StudentID), logger.Err(err))
		}
		if hit {
			return &dto, nil
		}
	}

	b, err := h.engine.Suggest(snap, recommendation.Request{
		Goal:             goal,
		MaxBundle:        q.MaxBundle,
		ConceptWhitelist: q.Concepts,
	})
	if err != nil {
		return nil, err
	}

	dto = SuggestionDTO{
		StudentID:   snap.Student.ID,
		Goal:        b.Goal,
		Job:         b.Job,
		ProfileTilt: b.ProfileTilt,
		Bundle:      BundleMissionsDTO{Missions: b.Missions},
		Cards:       b.Cards,
		Tip:         b.Tip,
		Explanation: b.Explanation,
		Requested:   b.Requested,
		Partial:     b.Partial,
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, dto); err != nil {
			h.log.Warn("cache write failed", logger.StudentID(q.StudentID), logger.Err(err))
		}
	}
	h.log.Debug("bundle suggested",
		logger.StudentID(q.StudentID),
		logger.Goal(string(goal)),
		logger.Int("missions", len(dto.Bundle.Missions)),
	)
	return &dto, nil
}
