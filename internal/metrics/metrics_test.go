package metrics

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"mmmcli/internal/frame"
	"mmmcli/internal/transform"
)

func TestBackTransformNoneIsIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		beta := rng.NormFloat64() * 10
		md := map[string]transform.Metadata{"promo": {Variable: "promo", Role: transform.RoleNone}}
		bt := BackTransform([]string{"promo"}, []string{"promo"}, []float64{beta}, 3, md)
		require.Len(t, bt.Coefficients, 1)
		assert.Equal(t, beta, bt.Coefficients[0].Original)
		assert.Equal(t, beta, bt.Coefficients[0].ElasticityBeta)
		assert.Equal(t, 3.0, bt.Intercept)
	}
}

func TestBackTransformStandardizeInverse(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 100; i++ {
		beta := rng.NormFloat64() * 5
		std := 0.01 + rng.Float64()*20
		mean := rng.NormFloat64() * 100
		md := map[string]transform.Metadata{"price": {Role: transform.RoleStandardize, Mean: mean, Std: std}}

		bt := BackTransform([]string{"standard_price"}, []string{"price"}, []float64{beta}, 10, md)
		c := bt.Coefficients[0]
		assert.InDelta(t, beta, c.Original*std, 1e-12*math.Max(1, math.Abs(beta)))
		assert.InDelta(t, 10-c.Original*mean, bt.Intercept, 1e-9)
		assert.Equal(t, "price", c.Variable)
		assert.Equal(t, "standard_price", c.Feature)
	}

	zero := map[string]transform.Metadata{"flat": {Role: transform.RoleStandardize, Mean: 4, Std: 0}}
	bt := BackTransform([]string{"standard_flat"}, []string{"flat"}, []float64{1}, 2, zero)
	assert.True(t, math.IsNaN(bt.Coefficients[0].Original))
	assert.Equal(t, 2.0, bt.Intercept)
}

func TestBackTransformMinMax(t *testing.T) {
	md := map[string]transform.Metadata{"dist": {Role: transform.RoleMinMax, Min: 10, Max: 30, Range: 20}}
	bt := BackTransform([]string{"minmax_dist", "dist_x_promo"}, []string{"dist", ""}, []float64{4, 1.5}, 1, md)

	assert.Equal(t, 0.2, bt.Coefficients[0].Original)
	assert.Equal(t, 1-0.2*10, bt.Intercept)

	inter, ok := bt.Find("dist_x_promo")
	require.True(t, ok)
	assert.Equal(t, transform.RoleNone, inter.Role)
	assert.Equal(t, 1.5, inter.Original)
}

func TestMediaElasticityBeta(t *testing.T) {
	md := transform.Metadata{
		Role:         transform.RoleMedia,
		Params:       &transform.Params{Decay: 0.5, Growth: 2, Midpoint: 0},
		AdstockStd:   4,
		LogisticMean: 0.5,
		LogisticMin:  0.1,
		LogisticMax:  0.9,
	}
	// 3 · 2·0.5·0.5 / (4·0.8)
	assert.InDelta(t, 3*0.5/3.2, MediaElasticityBeta(3, md), 1e-15)

	bt := BackTransform([]string{"tv"}, []string{"tv"}, []float64{3}, 0, map[string]transform.Metadata{"tv": md})
	assert.Equal(t, 3.0, bt.Coefficients[0].Original, "nominal coefficient is kept")
	assert.InDelta(t, 3*0.5/3.2, bt.Coefficients[0].ElasticityBeta, 1e-15)

	md.AdstockStd = 0
	assert.True(t, math.IsNaN(MediaElasticityBeta(3, md)))
	md.Params = nil
	assert.True(t, math.IsNaN(MediaElasticityBeta(3, md)))
}

func TestDerivative(t *testing.T) {
	tests := []struct {
		kind      TransformKind
		power     float64
		m         float64
		want      float64
		undefined bool
	}{
		{kind: KindLog, m: 4, want: 0.25},
		{kind: KindLog, m: 0, undefined: true},
		{kind: KindLog, m: -2, undefined: true},
		{kind: KindSqrt, m: 4, want: 0.25},
		{kind: KindSqrt, m: 0, undefined: true},
		{kind: KindSquare, m: 3, want: 6},
		{kind: KindSquare, m: -3, want: -6},
		{kind: KindPower, power: 3, m: 2, want: 12},
		{kind: KindPower, power: 2, m: -1, want: -2},
		{kind: KindPower, power: 0.5, m: -1, undefined: true},
		{kind: KindExp, m: 0, want: 1},
		{kind: KindExp, m: 1000, undefined: true},
		{kind: KindDirect, m: -7, want: 1},
		{kind: "cube", m: 1, undefined: true},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			got := Derivative(tt.kind, tt.power, tt.m)
			if tt.undefined {
				assert.True(t, math.IsNaN(got), "got %g", got)
				return
			}
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestLogElasticityProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	def := ColumnTransform{Name: "log_tv", Base: "tv", Kind: KindLog}
	for i := 0; i < 50; i++ {
		m := 0.1 + rng.Float64()*100
		assert.InDelta(t, 1/m, def.Derivative(m), 1e-15)
	}
	assert.True(t, math.IsNaN(def.Derivative(-1)))

	// With a log column the elasticity is β/mean(Y).
	assert.InDelta(t, 2.0/50, TransformElasticity(2, def, 7, 50), 1e-15)
	assert.True(t, math.IsNaN(TransformElasticity(2, def, 0, 50)))
}

func TestElasticityHelpers(t *testing.T) {
	assert.Equal(t, 0.5, DirectElasticity(2, 5, 20))
	assert.True(t, math.IsNaN(DirectElasticity(2, 5, 0)))

	assert.InDelta(t, 0.5*2, MediaElasticity(2, 5, 20, 0.5), 1e-15)
	assert.Equal(t, 0.0, MediaElasticity(2, 5, 20, 1))
}

func TestColumnTransforms(t *testing.T) {
	defs, err := NewColumnTransforms([]ColumnTransform{
		{Name: "Log_TV", Base: "TV", Kind: KindLog},
		{Name: "price_sq", Base: "price", Kind: KindSquare},
	})
	require.NoError(t, err)

	d, ok := defs.Lookup("log_tv")
	require.True(t, ok)
	assert.Equal(t, "tv", d.Base)

	_, err = NewColumnTransforms([]ColumnTransform{{Name: "a"}, {Name: "A"}})
	assert.Error(t, err)

	var none ColumnTransforms
	_, ok = none.Lookup("x")
	assert.False(t, ok)
}

func TestContributionShares(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	for i := 0; i < 100; i++ {
		scores := map[string]float64{
			"tv":    rng.NormFloat64() * 100,
			"radio": rng.NormFloat64() * 10,
			"price": -math.Abs(rng.NormFloat64()) * 50,
		}
		shares := ContributionShares(scores, Absolute)
		total := 0.0
		for _, s := range shares {
			assert.GreaterOrEqual(t, s, 0.0)
			total += s
		}
		assert.InDelta(t, 1.0, total, 1e-6)
	}

	simple := ContributionShares(map[string]float64{"a": 3, "b": -1}, Simple)
	assert.Equal(t, map[string]float64{"a": 1.5, "b": -0.5}, simple)
	assert.InDelta(t, 1.0, floats.Sum([]float64{simple["a"], simple["b"]}), 1e-12)

	zero := ContributionShares(map[string]float64{"a": 0, "b": 0}, Absolute)
	assert.True(t, math.IsNaN(zero["a"]))

	assert.Equal(t, "simple", Simple.String())
	assert.Equal(t, "absolute", Absolute.String())
}

func TestContributionSharesStable(t *testing.T) {
	scores := map[string]float64{
		"tv": 1e9, "radio": -3.3e-7, "print": 0.1, "ooh": 7.77e5,
		"search": -2.5e3, "social": 1e-12, "display": 42.42, "video": -1e8,
		"email": 0.3, "price": -12345.678, "promo": 9.999e-3, "events": 3.14159e2,
	}
	for _, mode := range []ShareMode{Absolute, Simple} {
		t.Run(mode.String(), func(t *testing.T) {
			want := make(map[string]uint64, len(scores))
			for name, s := range ContributionShares(scores, mode) {
				want[name] = math.Float64bits(s)
			}
			for i := 0; i < 500; i++ {
				for name, s := range ContributionShares(scores, mode) {
					require.Equal(t, want[name], math.Float64bits(s), "call %d, %s", i, name)
				}
			}
		})
	}
}

func TestPriceIndices(t *testing.T) {
	p := NewPriceIndices(-2, 5)
	assert.Equal(t, 1.5, p.CSF)
	assert.Equal(t, 7.5, p.MCV)

	for _, e := range []float64{0, math.NaN(), math.Inf(-1)} {
		p := NewPriceIndices(e, 5)
		assert.True(t, math.IsNaN(p.CSF))
		assert.True(t, math.IsNaN(p.MCV))
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRateTableLookup(t *testing.T) {
	global := dec("1")
	table := &RateTable{
		Global: &global,
		Default: map[string]decimal.Decimal{
			"TV":    dec("100"),
			"radio": dec("20"),
		},
		Scopes: map[string]map[string]decimal.Decimal{
			"north": {"tv": dec("150"), "digital": dec("5")},
		},
	}

	tests := []struct {
		scope, feature string
		want           string
		source         string
	}{
		{"north", "tv", "150", "scope:north:tv"},
		{"north", "TV", "150", "scope:north:tv"},
		{"north", "digital_display", "5", "scope:north:digital"},
		{"south", "tv", "100", "default:TV"},
		{"", "TV", "100", "default:TV"},
		{"", "radio_spend", "20", "default:radio"},
		{"", "print", "1", "global"},
	}
	for _, tt := range tests {
		t.Run(tt.scope+"/"+tt.feature, func(t *testing.T) {
			r, ok := table.Lookup(tt.scope, tt.feature)
			require.True(t, ok)
			assert.True(t, dec(tt.want).Equal(r.Value), "got %s", r.Value)
			assert.Equal(t, tt.source, r.Source)
		})
	}

	noGlobal := &RateTable{Default: map[string]decimal.Decimal{"tv": dec("1")}}
	_, ok := noGlobal.Lookup("", "print")
	assert.False(t, ok)

	var empty *RateTable
	assert.True(t, empty.Empty())
	_, ok = empty.Lookup("", "tv")
	assert.False(t, ok)
}

func TestComputeROI(t *testing.T) {
	r := ComputeROI(10, []float64{0.5, 1}, []float64{2, 4}, Rate{Value: dec("2.5"), Source: "global"}, 3)

	assert.Equal(t, 15.0, r.ContributionSum)
	assert.Equal(t, 6.0, r.SpendSum)
	assert.True(t, dec("15").Equal(r.CostSum))
	assert.InDelta(t, 15.0/15*3, r.ROI, 1e-12)
	assert.Equal(t, 2, r.Window)

	zero := ComputeROI(10, []float64{1}, []float64{0}, Rate{Value: dec("2")}, 3)
	assert.True(t, math.IsNaN(zero.ROI))
}

func TestCalculatorCompute(t *testing.T) {
	n := 24
	cols := map[string][]float64{
		"tv":     make([]float64, n),
		"price":  make([]float64, n),
		"volume": make([]float64, n),
	}
	for i := 0; i < n; i++ {
		cols["tv"][i] = float64((i*37)%11) * 10
		cols["price"][i] = 5 + float64(i%4)*0.25
		cols["volume"][i] = 1000 + 3*cols["tv"][i] - 40*cols["price"][i]
	}
	f, err := frame.FromColumns(cols, nil)
	require.NoError(t, err)

	design, err := transform.NewEngine(nil).Apply(context.Background(), f,
		[]transform.Variable{{Name: "tv", Role: transform.RoleMedia}, {Name: "price", Role: transform.RoleStandardize}},
		map[string]transform.Params{"tv": {Decay: 0.5, Growth: 2, Midpoint: 0}},
	)
	require.NoError(t, err)

	means := make([]float64, len(design.Columns))
	for i, c := range design.Columns {
		means[i] = floats.Sum(c) / float64(len(c))
	}

	global := dec("0.5")
	res := NewCalculator(nil).Compute(context.Background(), Input{
		Features:      design.Features,
		Variables:     design.Variables,
		Coefficients:  []float64{120, -15},
		Intercept:     900,
		Metadata:      design.Metadata,
		FeatureMeans:  means,
		TargetMean:    floats.Sum(cols["volume"]) / float64(n),
		PriceVariable: "Price",
		Frame:         f,
		Rates:         &RateTable{Global: &global},
	})

	assert.Equal(t, 120.0, res.Coefficients["tv"])
	assert.InDelta(t, -15/design.Metadata["price"].Std, res.Coefficients["price"], 1e-12)
	assert.Less(t, res.Elasticities["price"], 0.0)
	assert.Greater(t, res.Elasticities["tv"], 0.0)
	assert.Equal(t, res.Elasticities["price"], res.PriceElasticity)
	assert.InDelta(t, 1-1/res.PriceElasticity, res.CSF, 1e-12)

	total := 0.0
	for _, s := range res.Contributions {
		total += s
	}
	assert.InDelta(t, 1.0, total, 1e-6)

	require.Contains(t, res.ROI, "tv")
	assert.Equal(t, DefaultROIWindow, res.ROI["tv"].Window)
	assert.Equal(t, "global", res.ROI["tv"].RateSource)
	assert.Contains(t, res.ROI, "price")
}
