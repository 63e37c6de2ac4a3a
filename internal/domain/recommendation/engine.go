package recommendation

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/catalog"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/gating"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/metrics"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/progression"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/resolution"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/strategy"
)

// ═══════════════════════════════════════════════════════════════════════════
// POLICY
// ═══════════════════════════════════════════════════════════════════════════

// Policy tunes bundle sizing, the balance normalization and tip thresholds.
type Policy struct {
	DefaultBundle int     `json:"default_bundle" yaml:"default_bundle"`
	MaxBundle     int     `json:"max_bundle" yaml:"max_bundle"`
	BalanceScale  float64 `json:"balance_scale" yaml:"balance_scale"`

	// StressUpTip is the recent stress-increase rate that triggers the
	// too_much_stress tip.
	StressUpTip float64 `json:"stress_up_tip" yaml:"stress_up_tip"`

	// HighStress and LowCashflow are absolute metric thresholds for tips.
	HighStress  int `json:"high_stress" yaml:"high_stress"`
	LowCashflow int `json:"low_cashflow" yaml:"low_cashflow"`
}

// DefaultPolicy returns the built-in policy.
func DefaultPolicy() Policy {
	return Policy{
		DefaultBundle: 3,
		MaxBundle:     6,
		BalanceScale:  100,
		StressUpTip:   0.45,
		HighStress:    40,
		LowCashflow:   50,
	}
}

// Validate checks bundle bounds.
func (p Policy) Validate() error {
	switch {
	case p.MaxBundle < 1:
		return invalidPolicy("max_bundle must be >= 1")
	case p.DefaultBundle < 1 || p.DefaultBundle > p.MaxBundle:
		return invalidPolicy(fmt.Sprintf("default_bundle must be within [1, %d]", p.MaxBundle))
	case p.BalanceScale <= 0:
		return invalidPolicy("balance_scale must be > 0")
	}
	return nil
}

// ClampBundle maps a requested size to [1, MaxBundle]. Zero or negative
// selects DefaultBundle.
func (p Policy) ClampBundle(n int) int {
	if n <= 0 {
		return p.DefaultBundle
	}
	return max(1, min(n, p.MaxBundle))
}

func invalidPolicy(msg string) error {
	return shared.WrapError("recommendation", "ValidatePolicy", shared.ErrInvalidInput, msg, nil)
}

// ═══════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ═══════════════════════════════════════════════════════════════════════════

// Request is one suggestion query.
type Request struct {
	Goal strategy.Goal

	// MaxBundle is the requested size. Zero selects the default.
	MaxBundle int

	// ConceptWhitelist restricts candidates to these concepts when set.
	ConceptWhitelist []string
}

// Item is one recommended mission.
type Item struct {
	MissionID    string         `json:"mission_id"`
	ConceptID    string         `json:"concept"`
	ConceptName  string         `json:"concept_name"`
	Level        catalog.Level  `json:"niveau"`
	Title        string         `json:"title,omitempty"`
	BestChoice   string         `json:"best_choice"`
	Impact       metrics.Vector `json:"projected_impact"`
	Projection   float64        `json:"projection"`
	Why          []string       `json:"why"`
	HasEvent     bool           `json:"has_event"`
	ActiveEvents []string       `json:"active_events,omitempty"`
}

// Card is extra context attached to a bundle.
type Card struct {
	Kind      string `json:"kind"`
	MissionID string `json:"mission_id"`
	EventID   string `json:"event_id"`
}

// Tip is a short deterministic advice line.
type Tip struct {
	ID       string `json:"id"`
	Audience string `json:"audience"`
	Text     string `json:"text"`
}

// Bundle is the ranked suggestion result.
type Bundle struct {
	Goal        strategy.Goal `json:"goal"`
	Missions    []Item        `json:"missions"`
	Cards       []Card        `json:"cards"`
	Tip         Tip           `json:"tip"`
	Explanation string        `json:"explanation"`
	Requested   int           `json:"requested"`
	Partial     bool          `json:"partial"`
	ProfileTilt string        `json:"profile_tilt"`
	Job         string        `json:"job"`
}

// ═══════════════════════════════════════════════════════════════════════════
// ENGINE
// ═══════════════════════════════════════════════════════════════════════════

// Engine builds recommendation bundles. It never mutates state.
type Engine struct {
	gating   *gating.Engine
	features *strategy.Builder
	policy   Policy
}

// NewEngine creates an Engine.
func NewEngine(g *gating.Engine, features *strategy.Builder, policy Policy) *Engine {
	return &Engine{gating: g, features: features, policy: policy}
}

// Policy returns the engine policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Suggest ranks the available missions of snap for req.Goal.
func (e *Engine) Suggest(snap progression.Snapshot, req Request) (Bundle, error) {
	goal := req.Goal
	if goal == "" {
		goal = strategy.GoalBalance
	}
	if _, err := strategy.ParseGoal(string(goal)); err != nil {
		return Bundle{}, err
	}

	student := snap.Student
	size := e.policy.ClampBundle(req.MaxBundle)
	b := Bundle{
		Goal:        goal,
		Missions:    []Item{},
		Cards:       []Card{},
		Requested:   size,
		ProfileTilt: student.LevelLabel,
		Job:         student.Profile.Label(),
	}

	if !student.Profile.IsSet() {
		b.Explanation = "Choisis un profil pour recevoir des recommandations."
		b.Tip = e.tip(goal, snap)
		return b, nil
	}

	candidates, err := e.candidates(snap, goal, req.ConceptWhitelist)
	if err != nil {
		return Bundle{}, err
	}
	slices.SortFunc(candidates, compareItems)

	if len(candidates) > size {
		candidates = candidates[:size]
	}
	b.Missions = candidates
	b.Partial = len(candidates) < size

	for _, it := range candidates {
		if !it.HasEvent {
			continue
		}
		card := Card{Kind: "event_context", MissionID: it.MissionID}
		if len(it.ActiveEvents) > 0 {
			card.EventID = it.ActiveEvents[0]
		} else if m, err := e.gating.Catalog().Mission(it.MissionID); err == nil {
			card.EventID = m.PossibleEvents[0]
		}
		b.Cards = append(b.Cards, card)
	}

	b.Tip = e.tip(goal, snap)
	b.Explanation = fmt.Sprintf("Mini-bundle aligné sur %s, respect des pré-requis par concept et du track %s.", goal, b.Job)
	switch {
	case len(candidates) == 0:
		b.Explanation += " Aucune mission n'est disponible pour le moment."
	case b.Partial:
		b.Explanation += fmt.Sprintf(" Couverture partielle : %d mission(s) disponible(s) sur %d demandée(s).", len(candidates), size)
	}
	return b, nil
}

func (e *Engine) candidates(snap progression.Snapshot, goal strategy.Goal, whitelist []string) ([]Item, error) {
	current := snap.Student.Metrics
	allowed := func(string) bool { return true }
	if len(whitelist) > 0 {
		allowed = func(id string) bool { return slices.Contains(whitelist, id) }
	}

	cat := e.gating.Catalog()
	var items []Item
	for _, m := range e.gating.AvailableMissions(snap.Student.Profile, snap) {
		if !allowed(m.ConceptID) {
			continue
		}
		events, err := resolution.ActiveEvents(cat, m, current)
		if err != nil {
			return nil, err
		}

		best := Item{Projection: 0}
		found := false
		for _, ch := range m.Choices {
			impact := resolution.EffectiveImpact(ch, events)
			p := Projection(goal, current, impact, e.policy.BalanceScale)
			if !found || p > best.Projection {
				best = Item{BestChoice: ch.Key, Impact: impact, Projection: p}
				found = true
			}
		}
		if !found {
			continue
		}

		concept, err := cat.Concept(m.ConceptID)
		if err != nil {
			return nil, err
		}
		best.MissionID = m.ID
		best.ConceptID = m.ConceptID
		best.ConceptName = concept.Name
		best.Level = m.Level
		best.Title = m.Title
		best.Why = Why(goal, current, best.Impact, e.policy.BalanceScale)
		best.HasEvent = len(m.PossibleEvents) > 0
		for _, ev := range events {
			best.ActiveEvents = append(best.ActiveEvents, ev.ID)
		}
		items = append(items, best)
	}
	return items, nil
}

// compareItems orders by projection descending, then lower level, concept
// id and mission id.
func compareItems(a, b Item) int {
	if c := cmp.Compare(b.Projection, a.Projection); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Level, b.Level); c != 0 {
		return c
	}
	if c := cmp.Compare(a.ConceptID, b.ConceptID); c != 0 {
		return c
	}
	return cmp.Compare(a.MissionID, b.MissionID)
}

// tip picks the advice line. Behaviour beats absolute thresholds which beat
// the goal default.
func (e *Engine) tip(goal strategy.Goal, snap progression.Snapshot) Tip {
	audience := snap.Student.LevelLabel
	current := snap.Student.Metrics

	if snap.CompletionCount() > 0 && e.features != nil {
		f := e.features.Features(snap)
		if f.Missions > 0 && f.PctStressUp >= e.policy.StressUpTip {
			return Tip{ID: "too_much_stress", Audience: audience,
				Text: "Tu acceptes trop de hausses de stress; pense à couvrir avant une prise de risque."}
		}
	}
	if current.Stress >= e.policy.HighStress {
		return Tip{ID: "high_stress", Audience: audience,
			Text: "Ton niveau de stress est élevé; privilégie les missions qui le font baisser."}
	}
	if current.Cashflow < e.policy.LowCashflow {
		return Tip{ID: "low_cashflow", Audience: audience,
			Text: "Ta trésorerie est basse; préserve ta liquidité avant d'investir."}
	}

	switch goal {
	case strategy.GoalReduceStress:
		return Tip{ID: "goal_reduce_stress", Audience: audience,
			Text: "Réduis ton exposition avant de chercher du rendement."}
	case strategy.GoalBoostProfitability:
		return Tip{ID: "goal_boost_rentabilite", Audience: audience,
			Text: "Le rendement se paie souvent en stress; surveille ton équilibre."}
	case strategy.GoalPreserveLiquidity:
		return Tip{ID: "goal_preserve_liquidity", Audience: audience,
			Text: "La trésorerie est ton filet de sécurité."}
	default:
		return Tip{ID: "goal_balance", Audience: audience,
			Text: "Un portefeuille équilibré résiste mieux aux chocs."}
	}
}
