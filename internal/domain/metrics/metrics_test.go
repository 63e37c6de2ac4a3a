package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
)

func TestApply_IsPureAddition(t *testing.T) {
	base := Initial()
	delta := Vector{Cashflow: -120, Control: 3, Stress: -15, Profitability: 40, Reputation: 0}

	got := Apply(base, delta)

	assert.Equal(t, Vector{Cashflow: -20, Control: 53, Stress: -5, Profitability: 90, Reputation: 50}, got)
	assert.Equal(t, delta, got.Sub(base))
	assert.Equal(t, Initial(), base, "base must not be mutated")
}

func TestVector_GetWith(t *testing.T) {
	v := Vector{}
	for i, m := range All {
		v = v.With(m, i+1)
	}
	for i, m := range All {
		assert.Equal(t, i+1, v.Get(m))
	}
	assert.Equal(t, 5, v.NonZero())
	assert.Equal(t, map[string]int{
		"cashflow": 1, "controle": 2, "stress": 3, "rentabilite": 4, "reputation": 5,
	}, v.Map())
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("Profitability")
	require.NoError(t, err)
	assert.Equal(t, Profitability, m)

	_, err = ParseMetric("liquidity")
	assert.True(t, shared.IsValidation(err))
}

func TestMetric_Favourable(t *testing.T) {
	assert.Equal(t, 4, Stress.Favourable(-4))
	assert.Equal(t, -4, Cashflow.Favourable(-4))
}

func TestPredicate_Eval(t *testing.T) {
	v := Vector{Cashflow: 30, Stress: 50}

	tests := []struct {
		name string
		p    Predicate
		want bool
	}{
		{"zero value holds", Predicate{}, true},
		{"lt", Leaf(Cashflow, OpLess, 50), true},
		{"gte boundary", Leaf(Stress, OpGreaterEqual, 50), true},
		{"gt boundary", Leaf(Stress, OpGreater, 50), false},
		{"eq", Leaf(Control, OpEqual, 0), true},
		{"all", AllOf(Leaf(Cashflow, OpLess, 50), Leaf(Stress, OpGreater, 40)), true},
		{"all fails", AllOf(Leaf(Cashflow, OpLess, 50), Leaf(Stress, OpLess, 40)), false},
		{"any", AnyOf(Leaf(Cashflow, OpGreater, 500), Leaf(Stress, OpGreater, 40)), true},
		{"nested", AnyOf(AllOf(Leaf(Cashflow, OpLess, 10)), Leaf(Reputation, OpLessEqual, 0)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.Eval(v))
		})
	}
}

func TestPredicate_Validate(t *testing.T) {
	assert.NoError(t, AllOf(Leaf(Stress, OpLess, 3), AnyOf(Leaf(Cashflow, OpEqual, 1))).Validate())

	mixed := Predicate{All: []Predicate{Leaf(Stress, OpLess, 3)}, Metric: Cashflow, Op: OpEqual}
	assert.Error(t, mixed.Validate())

	assert.Error(t, Leaf("liquidity", OpLess, 3).Validate())
	assert.Error(t, Leaf(Stress, "<", 3).Validate())
	assert.Error(t, AllOf(Leaf(Stress, "bad", 1)).Validate())
}

func TestPredicate_YAML(t *testing.T) {
	src := `
any:
  - metric: cashflow
    op: lt
    value: 40
  - all:
      - {metric: stress, op: gte, value: 30}
      - {metric: controle, op: lte, value: 20}
`
	var p Predicate
	require.NoError(t, yaml.Unmarshal([]byte(src), &p))
	require.NoError(t, p.Validate())

	assert.True(t, p.Eval(Vector{Cashflow: 10}))
	assert.True(t, p.Eval(Vector{Cashflow: 90, Stress: 30, Control: 20}))
	assert.False(t, p.Eval(Vector{Cashflow: 90, Stress: 30, Control: 21}))
}

func TestDefaultLabelPolicy(t *testing.T) {
	p := DefaultLabelPolicy()
	require.NoError(t, p.Validate())

	assert.Equal(t, LabelPrudent, p.Derive(Initial()))
	assert.Equal(t, LabelBalanced, p.Derive(Vector{Stress: 20}))
	assert.Equal(t, LabelBalanced, p.Derive(Vector{Profitability: 65}))
	assert.Equal(t, LabelSpeculative, p.Derive(Vector{Stress: 45, Profitability: 70}))
}

func TestLabelPolicy_Validate(t *testing.T) {
	assert.Error(t, LabelPolicy{}.Validate())
	assert.Error(t, LabelPolicy{Default: "x", Rules: []LabelRule{{Label: "y"}}}.Validate())
	assert.Error(t, LabelPolicy{Default: "x", Rules: []LabelRule{{When: Leaf(Stress, OpLess, 1)}}}.Validate())
}
