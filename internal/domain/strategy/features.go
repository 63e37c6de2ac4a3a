package strategy

import (
	"math"
	"slices"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/catalog"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/metrics"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/progression"
)

// FeatureSpec tunes the feature window.
type FeatureSpec struct {
	// Window is the number of most recent qualifying missions considered.
	Window int `json:"window" yaml:"window"`

	// HalfLife controls exponential decay: a mission HalfLife positions
	// older weighs half as much.
	HalfLife float64 `json:"half_life" yaml:"half_life"`

	// IntensityThreshold drops near-neutral decisions whose total absolute
	// delta is below it.
	IntensityThreshold float64 `json:"intensity_threshold" yaml:"intensity_threshold"`
}

// DefaultFeatureSpec returns the built-in window.
func DefaultFeatureSpec() FeatureSpec {
	return FeatureSpec{Window: 8, HalfLife: 4, IntensityThreshold: 1.5}
}

// Features summarizes recent decision behaviour. Rates are in [0, 1].
type Features struct {
	Missions            int     `json:"missions"`
	PctHighRisk         float64 `json:"pct_high_risk"`
	PctLowRisk          float64 `json:"pct_low_risk"`
	AvgRiskRank         float64 `json:"avg_risk_rank"`
	RiskRankStd         float64 `json:"risk_rank_std"`
	ReturnOverCostRatio float64 `json:"ratio_ret_up_vs_ctrl_cf_down"`
	PctStressUp         float64 `json:"pct_stress_up"`
	MedianNetTradeoff   float64 `json:"median_net_tradeoff"`
	TimeZ               float64 `json:"time_z"`
	ChoiceEntropy       float64 `json:"choice_entropy"`
	EventExposureRate   float64 `json:"event_exposure_rate"`
	ConceptsTouched     int     `json:"concepts_touched"`
}

// ComputeFeatures derives Features from completions ordered oldest first.
func ComputeFeatures(c catalog.Reader, completions []progression.Completion, spec FeatureSpec) Features {
	var qualifying []progression.Completion
	for _, comp := range completions {
		if intensity(comp.Delta) >= spec.IntensityThreshold {
			qualifying = append(qualifying, comp)
		}
	}
	if len(qualifying) == 0 {
		return Features{}
	}
	if spec.Window > 0 && len(qualifying) > spec.Window {
		qualifying = qualifying[len(qualifying)-spec.Window:]
	}

	n := len(qualifying)
	w := decayWeights(n, spec.HalfLife)

	ranks := make([]float64, n)
	tradeoffs := make([]float64, n)
	times := make([]float64, n)
	var stressUp, retOverCost, high, low []float64
	var choices []string
	concepts := make(map[string]bool)
	eventHits := 0

	for i, comp := range qualifying {
		d := comp.Delta
		rank := riskRank(d, alternatives(c, comp))
		ranks[i] = float64(rank)
		high = append(high, indicator(rank == 2))
		low = append(low, indicator(rank == 0))

		ret := math.Max(0, float64(d.Profitability))
		cost := math.Max(0, float64(-d.Cashflow)) + math.Max(0, float64(-d.Control))
		tradeoffs[i] = (ret - cost) / intensity(d)

		stressUp = append(stressUp, indicator(d.Stress > 0))
		retOverCost = append(retOverCost, indicator(d.Profitability > 0 && (d.Cashflow < 0 || d.Control < 0)))
		times[i] = float64(comp.TimeSpentSeconds)
		choices = append(choices, comp.Choice)
		concepts[comp.ConceptID] = true
		if len(comp.EventsApplied) > 0 {
			eventHits++
		}
	}

	avgRank := weightedMean(ranks, w)
	variance := 0.0
	for i, r := range ranks {
		variance += w[i] * (r - avgRank) * (r - avgRank)
	}

	return Features{
		Missions:            n,
		PctHighRisk:         weightedMean(high, w),
		PctLowRisk:          weightedMean(low, w),
		AvgRiskRank:         avgRank,
		RiskRankStd:         math.Sqrt(math.Max(1e-9, variance)),
		ReturnOverCostRatio: weightedMean(retOverCost, w),
		PctStressUp:         weightedMean(stressUp, w),
		MedianNetTradeoff:   median(tradeoffs),
		TimeZ:               timeZ(times, w),
		ChoiceEntropy:       entropy(choices),
		EventExposureRate:   float64(eventHits) / float64(n),
		ConceptsTouched:     len(concepts),
	}
}

// alternatives lists every option's impact of the completed mission, with the
// chosen one replaced by the delta actually applied.
func alternatives(c catalog.Reader, comp progression.Completion) []metrics.Vector {
	m, err := c.Mission(comp.MissionID)
	if err != nil {
		return []metrics.Vector{comp.Delta}
	}
	out := make([]metrics.Vector, 0, len(m.Choices))
	for _, ch := range m.Choices {
		if ch.Key == comp.Choice {
			out = append(out, comp.Delta)
		} else {
			out = append(out, ch.Impact)
		}
	}
	return out
}

func intensity(d metrics.Vector) float64 {
	total := 0.0
	for _, m := range metrics.All {
		total += math.Abs(float64(d.Get(m)))
	}
	return total
}

// rawRisk weighs profit seeking and downside exposure.
func rawRisk(d metrics.Vector) float64 {
	return 0.5*math.Max(0, float64(d.Profitability)) +
		0.3*math.Max(0, float64(d.Stress)) +
		0.3*math.Max(0, float64(-d.Cashflow)) +
		0.2*math.Max(0, float64(-d.Control)) +
		0.1*math.Max(0, float64(-d.Reputation))
}

// riskRank buckets the chosen option among its alternatives into tertiles:
// 0 safe, 1 mid, 2 risky.
func riskRank(chosen metrics.Vector, all []metrics.Vector) int {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range all {
		r := rawRisk(v)
		lo = math.Min(lo, r)
		hi = math.Max(hi, r)
	}
	x := 0.0
	if hi > lo {
		x = (rawRisk(chosen) - lo) / (hi - lo)
	}
	switch {
	case x < 1.0/3:
		return 0
	case x < 2.0/3:
		return 1
	default:
		return 2
	}
}

func decayWeights(n int, halfLife float64) []float64 {
	if halfLife <= 0 {
		halfLife = 1
	}
	lambda := math.Ln2 / halfLife
	w := make([]float64, n)
	sum := 0.0
	for i := range w {
		w[i] = math.Exp(lambda * float64(i-(n-1)))
		sum += w[i]
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}

func weightedMean(x, w []float64) float64 {
	total := 0.0
	for i := range x {
		total += x[i] * w[i]
	}
	return total
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func median(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	s := slices.Clone(x)
	slices.Sort(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

// timeZ is the decay-weighted robust z-score of time spent: negative means
// recently faster than usual.
func timeZ(times, w []float64) float64 {
	med := median(times)
	if med == 0 {
		med = 1
	}
	dev := make([]float64, len(times))
	for i, t := range times {
		dev[i] = math.Abs(t - med)
	}
	mad := median(dev)
	if mad == 0 {
		mad = 1
	}
	den := 1.4826 * mad
	z := 0.0
	for i, t := range times {
		z += w[i] * (t - med) / den
	}
	return z
}

// entropy is the Shannon entropy (bits) of the choice-key distribution.
func entropy(keys []string) float64 {
	if len(keys) == 0 {
		return 0
	}
	counts := make(map[string]int)
	for _, k := range keys {
		counts[k]++
	}
	h := 0.0
	for _, c := range counts {
		p := float64(c) / float64(len(keys))
		h -= p * math.Log2(p)
	}
	return h
}
