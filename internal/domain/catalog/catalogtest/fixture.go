// Package catalogtest provides a small in-memory catalog for tests.
package catalogtest

import (
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/catalog"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/metrics"
)

// Mission and concept ids of the fixture.
const (
	ConceptRisk      = "risk"
	ConceptLiquidity = "liquidity"
	ConceptHidden    = "orphan"
	ConceptBanking   = "banking"

	M1 = "risk-b1"
	M2 = "risk-b2"
	M3 = "risk-i1"
	L1 = "liq-b1"
	H1 = "orphan-b1"
	B1 = "bank-b1"

	EventCrash = "market_crash"
	EventBoom  = "bull_run"
)

// Content returns the fixture content. Concept "risk" has two beginner
// missions (M1, M2) and one intermediate mission (M3) and is visible to
// profile 1. "liquidity" is a second profile-1 concept. "orphan" has no
// profiles and "banking" is only visible to profile 3.
func Content() catalog.Content {
	return catalog.Content{
		Concepts: []catalog.Concept{
			{ID: ConceptRisk, Name: "Risk", Domain: "finance", Fundamental: true, Profiles: []catalog.ProfileID{1, 2}},
			{ID: ConceptLiquidity, Name: "Liquidity", Domain: "finance", Profiles: []catalog.ProfileID{1}},
			{ID: ConceptHidden, Name: "Orphan", Domain: "finance"},
			{ID: ConceptBanking, Name: "Banking", Domain: "finance", Profiles: []catalog.ProfileID{3}},
		},
		Missions: []catalog.Mission{
			{
				ID: M3, ConceptID: ConceptRisk, Level: catalog.Intermediate,
				Context: "A supplier asks for early payment.",
				Choices: []catalog.Choice{
					{Key: "a", Description: "Pay early", Impact: metrics.Vector{Cashflow: -2, Control: 2}, Feedback: "Liquidity matters."},
					{Key: "b", Description: "Negotiate", Impact: metrics.Vector{Reputation: 3, Stress: 1}, Feedback: "Good relations."},
				},
				PossibleEvents: []string{EventCrash, EventBoom},
			},
			{
				ID: M1, ConceptID: ConceptRisk, Level: catalog.Beginner,
				Context: "Your first portfolio.",
				Choices: []catalog.Choice{
					{Key: "a", Description: "Diversify", Impact: metrics.Vector{Stress: -2, Cashflow: 1}, Feedback: "Diversification lowers risk."},
					{Key: "b", Description: "Go all in", Impact: metrics.Vector{Stress: 3, Profitability: 4}, Feedback: "Concentration is risky."},
				},
			},
			{
				ID: M2, ConceptID: ConceptRisk, Level: catalog.Beginner,
				Context: "A client wants a loan.",
				Choices: []catalog.Choice{
					{Key: "a", Description: "Refuse", Impact: metrics.Vector{Stress: 1, Profitability: -1}, Feedback: "Safe."},
					{Key: "b", Description: "Accept", Impact: metrics.Vector{Stress: 2, Profitability: 3}, Feedback: "Risky."},
				},
			},
			{
				ID: L1, ConceptID: ConceptLiquidity, Level: catalog.Beginner,
				Context: "Cash is tight.",
				Choices: []catalog.Choice{
					{Key: "a", Description: "Cut costs", Impact: metrics.Vector{Cashflow: 5, Reputation: -1}, Feedback: "Lean."},
					{Key: "b", Description: "Borrow", Impact: metrics.Vector{Cashflow: -3, Stress: 2}, Feedback: "Debt."},
				},
			},
			{
				ID: H1, ConceptID: ConceptHidden, Level: catalog.Beginner,
				Choices: []catalog.Choice{
					{Key: "a", Impact: metrics.Vector{Cashflow: 50}},
					{Key: "b", Impact: metrics.Vector{Cashflow: 40}},
				},
			},
			{
				ID: B1, ConceptID: ConceptBanking, Level: catalog.Beginner,
				Choices: []catalog.Choice{
					{Key: "a", Impact: metrics.Vector{Reputation: 2}},
					{Key: "b", Impact: metrics.Vector{Reputation: -2}},
				},
			},
		},
		Events: []catalog.Event{
			{
				ID: EventCrash, Title: "Market crash", Message: "Markets fell 20% overnight.",
				Context:         catalog.EventContext{Type: "market", Narrative: map[string]string{"impact": "Liquidity dries up."}},
				Conditions:      metrics.Leaf(metrics.Cashflow, metrics.OpLess, 80),
				ChoiceModifiers: map[string]metrics.Vector{"a": {Cashflow: -5}},
			},
			{
				ID: EventBoom, Title: "Bull run", Message: "Investors are euphoric.",
				Levels:          []catalog.Level{catalog.Advanced},
				ChoiceModifiers: map[string]metrics.Vector{"b": {Profitability: 10}},
			},
		},
	}
}

// New builds the fixture catalog.
func New() *catalog.Catalog {
	c, err := catalog.New(Content(), "fixture")
	if err != nil {
		panic(err)
	}
	return c
}
