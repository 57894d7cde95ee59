package estimator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveIndex(t *testing.T) {
	features := []string{"TV", "standard_price", "minmax_distribution", "promo", "tv_x_promo"}
	tests := []struct {
		name string
		want int
	}{
		{"TV", 0},
		{"tv", 0},
		{"price", 1},
		{"Standard_Price", 1},
		{"minmax_price", 1},
		{"distribution", 2},
		{"tv_x_promo", 4},
		{"radio", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveIndex(features, tt.name))
		})
	}
}

func TestBuild(t *testing.T) {
	features := []string{"tv", "standard_price", "promo", "tv_x_promo", "standard_price_x_promo"}
	specs := Constraints{Negative: []string{"price", "missing"}, Positive: []string{"tv", "promo"}}.Specs()

	t.Run("simple", func(t *testing.T) {
		m := Build(features, specs, TopologySimple)
		assert.Equal(t, TopologySimple, m.Topology)
		assert.Equal(t, map[int]Sign{1: Negative, 0: Positive, 2: Positive}, m.Simple)
		assert.Empty(t, m.Groups)
		assert.Equal(t, []string{"missing"}, m.Unresolved)
	})

	t.Run("combination", func(t *testing.T) {
		m := Build(features, specs, TopologyCombination)
		assert.Equal(t, []Group{
			{Base: 1, Interactions: []int{4}, Sign: Negative},
			{Base: 0, Interactions: []int{3}, Sign: Positive},
			{Base: 2, Interactions: []int{3, 4}, Sign: Positive},
		}, m.Groups)
		assert.Empty(t, m.Simple)
	})

	t.Run("base without interactions degrades to simple", func(t *testing.T) {
		m := Build([]string{"tv", "radio"}, []ConstraintSpec{{Name: "radio", Sign: Positive}}, TopologyCombination)
		assert.Equal(t, map[int]Sign{1: Positive}, m.Simple)
		assert.Empty(t, m.Groups)
	})

	t.Run("default topology", func(t *testing.T) {
		m := Build(features, nil, "")
		assert.Equal(t, TopologySimple, m.Topology)
		assert.True(t, m.Empty())
	})
}

func TestProjectSimple(t *testing.T) {
	m := ConstraintMap{Simple: map[int]Sign{0: Negative, 1: Positive}}
	w := []float64{2, -3, 5}

	got := Project(w, m)
	assert.Equal(t, []float64{0, 0, 5}, got)
	assert.Equal(t, []float64{2, -3, 5}, w, "input is not modified")

	assert.Equal(t, []float64{-1, 4, 5}, Project([]float64{-1, 4, 5}, m))
}

func TestProjectCombination(t *testing.T) {
	m := ConstraintMap{Groups: []Group{{Base: 0, Interactions: []int{1, 2}, Sign: Negative}}}

	got := Project([]float64{1, 3, -5}, m)
	// base+first = 4 is split: base 1-2 = -1, first 3-2 = 1.
	assert.Equal(t, []float64{-1, 1, -5}, got)
	for _, j := range []int{1, 2} {
		assert.LessOrEqual(t, got[0]+got[j], 0.0)
	}

	pos := ConstraintMap{Groups: []Group{{Base: 0, Interactions: []int{1}, Sign: Positive}}}
	got = Project([]float64{-1, -3}, pos)
	assert.Equal(t, []float64{1, -1}, got)
}

func TestProjectSharedInteraction(t *testing.T) {
	features := []string{"price", "tv", "price_x_tv"}
	w := []float64{1, -5, 3}

	tests := []struct {
		name  string
		specs []ConstraintSpec
		want  []float64
		left  Violation
	}{
		{
			name:  "price first",
			specs: []ConstraintSpec{{Name: "price", Sign: Negative}, {Name: "tv", Sign: Positive}},
			want:  []float64{-1, -3, 3},
			left:  Violation{Index: 0, Name: "price+price_x_tv", Value: 2, Sign: Negative, Interaction: 2},
		},
		{
			name:  "tv first",
			specs: []ConstraintSpec{{Name: "tv", Sign: Positive}, {Name: "price", Sign: Negative}},
			want:  []float64{-1.5, -4, 1.5},
			left:  Violation{Index: 1, Name: "tv+price_x_tv", Value: -2.5, Sign: Positive, Interaction: 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Build(features, tt.specs, TopologyCombination)
			require.Len(t, m.Groups, 2)

			got := Project(w, m)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, []Violation{tt.left}, Validate(got, features, m, 1e-10))
		})
	}
}

func TestValidate(t *testing.T) {
	features := []string{"price", "tv", "tv_x_promo"}
	m := ConstraintMap{
		Simple: map[int]Sign{0: Negative},
		Groups: []Group{{Base: 1, Interactions: []int{2}, Sign: Positive}},
	}

	assert.Empty(t, Validate([]float64{-1, 1, -0.5}, features, m, 1e-10))
	assert.Empty(t, Validate([]float64{5e-11, 0, 0}, features, m, 1e-10))

	got := Validate([]float64{0.2, 1, -3}, features, m, 1e-10)
	assert.Equal(t, []Violation{
		{Index: 0, Name: "price", Value: 0.2, Sign: Negative, Interaction: -1},
		{Index: 1, Name: "tv+tv_x_promo", Value: -2, Sign: Positive, Interaction: 2},
	}, got)
	assert.Equal(t, "price = 0.2 violates <=0", got[0].String())
}
