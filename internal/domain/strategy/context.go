package strategy

import (
	"fmt"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/gating"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/progression"
)

// ═══════════════════════════════════════════════════════════════════════════
// ENUMS
// ═══════════════════════════════════════════════════════════════════════════

// Stage is the analysis depth available for a student.
type Stage string

const (
	StageColdStart   Stage = "cold_start"
	StageEarly       Stage = "early"
	StageExperienced Stage = "experienced"
)

// FullAnalysisAfter is the number of missions after which the context
// switches to the experienced stage.
const FullAnalysisAfter = 6

// Severity of an alert.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// ═══════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ═══════════════════════════════════════════════════════════════════════════

// Alert flags a behaviour worth correcting.
type Alert struct {
	Type          string   `json:"type"`
	Severity      Severity `json:"severity"`
	Message       string   `json:"message"`
	SuggestedGoal Goal     `json:"suggested_goal"`
	Icon          string   `json:"icon"`
}

// Opportunity highlights a behaviour worth building on.
type Opportunity struct {
	Type          string `json:"type"`
	Message       string `json:"message"`
	SuggestedGoal Goal   `json:"suggested_goal,omitempty"`
	Icon          string `json:"icon"`
}

// GoalPriority ranks a goal in the picker.
type GoalPriority struct {
	Priority int    `json:"priority"`
	Badge    string `json:"badge,omitempty"`
}

// ConceptCoverage summarizes how much of the visible catalog was explored.
type ConceptCoverage struct {
	Explored          int      `json:"explored"`
	Total             int      `json:"total"`
	UnexploredPreview []string `json:"unexplored_preview"`
	CoveragePct       int      `json:"coverage_pct"`
	Message           string   `json:"message"`
}

// Fraction returns explored/total, 0 for an empty catalog.
func (c ConceptCoverage) Fraction() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Explored) / float64(c.Total)
}

// Progress is the early-stage progress banner.
type Progress struct {
	MissionsCompleted      int    `json:"missions_completed"`
	MissionsToFullAnalysis int    `json:"missions_to_full_analysis"`
	Message                string `json:"message"`
}

// Context is the strategic context of one student.
type Context struct {
	Stage               Stage                 `json:"stage"`
	Welcome             string                `json:"welcome,omitempty"`
	Progress            Progress              `json:"progress"`
	Alerts              []Alert               `json:"alerts"`
	Opportunities       []Opportunity         `json:"opportunities"`
	GoalRecommendations map[Goal]GoalPriority `json:"goal_recommendations"`
	Concepts            ConceptCoverage       `json:"concepts"`
	OnboardingTips      []string              `json:"onboarding_tips,omitempty"`
	ProfileTilt         string                `json:"profile_tilt"`
	Job                 string                `json:"job"`
	AdvancedMetrics     *Features             `json:"advanced_metrics,omitempty"`
}

// ═══════════════════════════════════════════════════════════════════════════
// BUILDER
// ═══════════════════════════════════════════════════════════════════════════

var progressMessages = map[int]string{
	1: "Première mission accomplie ! Continue sur ta lancée",
	2: "Tu prends tes marques, c'est bien !",
	3: "Ton profil d'investisseur commence à se dessiner...",
	4: "Encore quelques missions pour débloquer l'analyse complète",
	5: "Bientôt, tu auras accès à toutes les recommandations avancées !",
}

// Builder assembles strategic contexts.
type Builder struct {
	engine *gating.Engine
	spec   FeatureSpec
}

// NewBuilder creates a Builder.
func NewBuilder(engine *gating.Engine, spec FeatureSpec) *Builder {
	return &Builder{engine: engine, spec: spec}
}

// Features computes the behavioural features of snap.
func (b *Builder) Features(snap progression.Snapshot) Features {
	return ComputeFeatures(b.engine.Catalog(), snap.Ordered(), b.spec)
}

// Coverage computes concept coverage over the concepts visible to the
// student's profile.
func (b *Builder) Coverage(snap progression.Snapshot) ConceptCoverage {
	statuses := b.engine.VisibleConcepts(snap.Student.Profile, snap)
	cov := ConceptCoverage{Total: len(statuses), UnexploredPreview: []string{}}
	for _, s := range statuses {
		if s.Explored() {
			cov.Explored++
		} else if len(cov.UnexploredPreview) < 3 {
			cov.UnexploredPreview = append(cov.UnexploredPreview, s.Concept.Name)
		}
	}
	if cov.Total > 0 {
		cov.CoveragePct = int(float64(cov.Explored) / float64(cov.Total) * 100)
	}
	cov.Message = fmt.Sprintf("Tu as exploré %d concept(s) sur %d", cov.Explored, cov.Total)
	return cov
}

// Build computes the strategic context of snap.
func (b *Builder) Build(snap progression.Snapshot) Context {
	n := snap.CompletionCount()
	ctx := Context{
		Progress: Progress{
			MissionsCompleted:      n,
			MissionsToFullAnalysis: max(0, FullAnalysisAfter-n),
		},
		Alerts:              []Alert{},
		Opportunities:       []Opportunity{},
		GoalRecommendations: map[Goal]GoalPriority{},
		Concepts:            b.Coverage(snap),
		ProfileTilt:         snap.Student.LevelLabel,
		Job:                 snap.Student.Profile.Label(),
	}
	for _, g := range Goals {
		ctx.GoalRecommendations[g] = GoalPriority{}
	}

	switch StageFor(n) {
	case StageColdStart:
		b.coldStart(&ctx)
	case StageEarly:
		b.early(&ctx, b.Features(snap))
	default:
		f := b.Features(snap)
		b.experienced(&ctx, f)
		ctx.AdvancedMetrics = &f
	}
	return ctx
}

func (b *Builder) coldStart(ctx *Context) {
	ctx.Stage = StageColdStart
	ctx.Welcome = "Bienvenue ! Commence par une première mission pour découvrir ton profil."
	ctx.Progress.Message = "Aucune mission terminée pour l'instant"
	ctx.GoalRecommendations[GoalBalance] = GoalPriority{Priority: 2, Badge: "🎯"}
	ctx.OnboardingTips = []string{
		"Chaque choix modifie tes métriques : cashflow, contrôle, stress, rentabilité et réputation.",
		"L'objectif 'balance' est idéal pour débuter.",
		"Après 6 missions, tu débloques l'analyse complète de ton style.",
	}
}

func (b *Builder) early(ctx *Context, f Features) {
	ctx.Stage = StageEarly
	ctx.Progress.Message = progressMessage(ctx.Progress.MissionsCompleted)

	if f.PctStressUp >= 0.6 {
		ctx.Alerts = append(ctx.Alerts, Alert{
			Type:          "stress_trend",
			Severity:      SeverityInfo,
			Message:       "Tes derniers choix augmentent souvent le stress",
			SuggestedGoal: GoalReduceStress,
			Icon:          "💡",
		})
	}

	ctx.Opportunities = append(ctx.Opportunities, Opportunity{
		Type:    "learning",
		Message: "Chaque mission affine ton profil",
		Icon:    "📈",
	})
	if ctx.Concepts.Explored == 1 && ctx.Concepts.Total >= 3 {
		ctx.Opportunities = append(ctx.Opportunities, Opportunity{
			Type:          "diversity",
			Message:       "Essaie un autre concept pour élargir ton expérience",
			SuggestedGoal: GoalBalance,
			Icon:          "🌍",
		})
	}
	b.prioritize(ctx)
}

func (b *Builder) experienced(ctx *Context, f Features) {
	ctx.Stage = StageExperienced
	ctx.Progress.Message = "Analyse complète disponible"

	if f.PctStressUp >= 0.5 {
		ctx.Alerts = append(ctx.Alerts, Alert{
			Type:          "high_stress",
			Severity:      SeverityWarning,
			Message:       fmt.Sprintf("%d%% de tes choix récents augmentent le stress", int(f.PctStressUp*100)),
			SuggestedGoal: GoalReduceStress,
			Icon:          "⚠️",
		})
	}
	if f.ReturnOverCostRatio >= 0.6 {
		ctx.Alerts = append(ctx.Alerts, Alert{
			Type:          "cashflow_risk",
			Severity:      SeverityWarning,
			Message:       "Tu sacrifies souvent ta trésorerie ou ton contrôle pour la rentabilité",
			SuggestedGoal: GoalPreserveLiquidity,
			Icon:          "💰",
		})
	}
	if f.ChoiceEntropy < 0.4 {
		ctx.Alerts = append(ctx.Alerts, Alert{
			Type:          "low_diversity",
			Severity:      SeverityInfo,
			Message:       "Tes choix se ressemblent beaucoup, varie tes stratégies",
			SuggestedGoal: GoalBalance,
			Icon:          "🔄",
		})
	}
	if ctx.Concepts.Total > 0 && ctx.Concepts.Fraction() < 0.4 {
		ctx.Alerts = append(ctx.Alerts, Alert{
			Type:          "low_coverage",
			Severity:      SeverityInfo,
			Message:       "Explore d'autres concepts pour compléter ta formation",
			SuggestedGoal: GoalBalance,
			Icon:          "📚",
		})
	}

	if f.AvgRiskRank > 0 && f.PctStressUp < 0.3 {
		ctx.Opportunities = append(ctx.Opportunities, Opportunity{
			Type:          "momentum",
			Message:       "Tu prends des risques maîtrisés, tu peux viser plus de rentabilité",
			SuggestedGoal: GoalBoostProfitability,
			Icon:          "🚀",
		})
	}
	if f.PctStressUp < 0.3 && f.ReturnOverCostRatio < 0.4 {
		ctx.Opportunities = append(ctx.Opportunities, Opportunity{
			Type:          "stable",
			Message:       "Ton approche est stable, consolide ton équilibre",
			SuggestedGoal: GoalBalance,
			Icon:          "⚖️",
		})
	}
	if f.TimeZ > 1.5 {
		ctx.Opportunities = append(ctx.Opportunities, Opportunity{
			Type:    "pacing",
			Message: "Tu prends plus de temps que d'habitude, c'est bien de réfléchir",
			Icon:    "⏱️",
		})
	}
	b.prioritize(ctx)
}

// prioritize raises the goals suggested by alerts (+2) and opportunities
// (+1). An alert badge wins over an opportunity badge.
func (b *Builder) prioritize(ctx *Context) {
	for _, a := range ctx.Alerts {
		gp := ctx.GoalRecommendations[a.SuggestedGoal]
		gp.Priority += 2
		gp.Badge = a.Icon
		ctx.GoalRecommendations[a.SuggestedGoal] = gp
	}
	for _, o := range ctx.Opportunities {
		if o.SuggestedGoal == "" {
			continue
		}
		gp := ctx.GoalRecommendations[o.SuggestedGoal]
		gp.Priority++
		if gp.Badge == "" {
			gp.Badge = o.Icon
		}
		ctx.GoalRecommendations[o.SuggestedGoal] = gp
	}
}

func progressMessage(n int) string {
	if msg, ok := progressMessages[n]; ok {
		return msg
	}
	return "Continue comme ça !"
}

// StageFor maps a completion count to a stage.
func StageFor(completions int) Stage {
	switch {
	case completions == 0:
		return StageColdStart
	case completions < FullAnalysisAfter:
		return StageEarly
	default:
		return StageExperienced
	}
}
