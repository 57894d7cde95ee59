package training

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v2"
)

func TestMAPE(t *testing.T) {
	tests := []struct {
		name      string
		actual    []float64
		predicted []float64
		want      float64
	}{
		{name: "perfect", actual: []float64{1, 2, 3}, predicted: []float64{1, 2, 3}, want: 0},
		{name: "zero actual excluded", actual: []float64{100, 0, 200}, predicted: []float64{110, 5, 180}, want: 10},
		{name: "negative actual", actual: []float64{-50}, predicted: []float64{-25}, want: 50},
		{name: "all zero", actual: []float64{0, 0}, predicted: []float64{1, 2}, want: math.NaN()},
		{name: "empty", want: math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MAPE(tt.actual, tt.predicted)
			if math.IsNaN(tt.want) {
				assert.True(t, math.IsNaN(got))
				return
			}
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestRSquared(t *testing.T) {
	assert.InDelta(t, 1.0, RSquared([]float64{1, 2, 3, 4}, []float64{1, 2, 3, 4}), 1e-12)
	assert.InDelta(t, 0.0, RSquared([]float64{1, 2, 3, 4}, []float64{2.5, 2.5, 2.5, 2.5}), 1e-12)
	assert.True(t, math.IsNaN(RSquared([]float64{1}, []float64{1})))
	assert.True(t, math.IsNaN(RSquared([]float64{3, 3, 3}, []float64{1, 2, 3})))
}

func TestInformationCriteria(t *testing.T) {
	aic, bic := InformationCriteria(10, 10, 2)
	logL := -5 * (math.Log(2*math.Pi) + 1)
	assert.InDelta(t, 4-2*logL, aic, 1e-12)
	assert.InDelta(t, 2*math.Log(10)-2*logL, bic, 1e-12)

	for _, rss := range []float64{0, -1, math.NaN()} {
		aic, bic := InformationCriteria(rss, 10, 2)
		assert.True(t, math.IsNaN(aic))
		assert.True(t, math.IsNaN(bic))
	}
	aic, _ = InformationCriteria(1, 0, 2)
	assert.True(t, math.IsNaN(aic))
}

func TestSplit(t *testing.T) {
	train, test := Split(24, 0.2, 42)
	assert.Len(t, test, 5)
	assert.Len(t, train, 19)
	assert.IsIncreasing(t, train)
	assert.IsIncreasing(t, test)

	seen := make(map[int]bool)
	for _, i := range append(append([]int{}, train...), test...) {
		assert.False(t, seen[i], "row %d assigned twice", i)
		seen[i] = true
	}
	assert.Len(t, seen, 24)

	train2, test2 := Split(24, 0.2, 42)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)

	_, other := Split(24, 0.2, 7)
	assert.NotEqual(t, test, other)
}

func TestSplitDegenerate(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		fraction float64
	}{
		{name: "zero fraction", n: 10, fraction: 0},
		{name: "rounds to zero", n: 2, fraction: 0.2},
		{name: "everything", n: 3, fraction: 1},
		{name: "empty", n: 0, fraction: 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			train, test := Split(tt.n, tt.fraction, 42)
			assert.Len(t, train, tt.n)
			assert.Empty(t, test)
		})
	}
}

func TestAlphaGrid(t *testing.T) {
	grid := DefaultAlphaGrid()
	want := []float64{1e-3, 1e-2, 1e-1, 1, 10, 100, 1000}
	assert.Len(t, grid, len(want))
	for i := range want {
		assert.InEpsilon(t, want[i], grid[i], 1e-9)
	}
	assert.Equal(t, []float64{10}, AlphaGrid(1, 3, 1))
}

func TestAlphaDecoding(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    Alpha
		wantErr bool
	}{
		{name: "auto", yaml: "name: r\nkind: ridge\nalpha: auto\n", want: AutoAlpha},
		{name: "auto upper case", yaml: "name: r\nkind: ridge\nalpha: AUTO\n", want: AutoAlpha},
		{name: "fixed", yaml: "name: r\nkind: ridge\nalpha: 0.5\n", want: FixedAlpha(0.5)},
		{name: "absent", yaml: "name: r\nkind: linear\n", want: Alpha{}},
		{name: "negative", yaml: "name: r\nkind: ridge\nalpha: -1\n", wantErr: true},
		{name: "garbage", yaml: "name: r\nkind: ridge\nalpha: lots\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var spec ModelSpec
			err := yaml.Unmarshal([]byte(tt.yaml), &spec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, spec.Alpha)
		})
	}
}

func TestAlphaJSON(t *testing.T) {
	for _, a := range []Alpha{AutoAlpha, FixedAlpha(2.5), FixedAlpha(0)} {
		data, err := a.MarshalJSON()
		assert.NoError(t, err)

		var back Alpha
		assert.NoError(t, back.UnmarshalJSON(data))
		assert.Equal(t, a, back)
	}
	assert.Equal(t, "auto", AutoAlpha.String())
	assert.Equal(t, "0.25", FixedAlpha(0.25).String())
}

func TestModelSpecValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    ModelSpec
		wantErr bool
	}{
		{name: "linear", spec: ModelSpec{Name: "ols", Kind: KindLinear}},
		{name: "ridge auto", spec: ModelSpec{Name: "r", Kind: KindRidge, Alpha: AutoAlpha}},
		{name: "adam", spec: ModelSpec{Name: "a", Kind: KindLinear, Method: "adam"}},
		{name: "missing name", spec: ModelSpec{Kind: KindLinear}, wantErr: true},
		{name: "unknown kind", spec: ModelSpec{Name: "x", Kind: "lasso"}, wantErr: true},
		{name: "unknown method", spec: ModelSpec{Name: "x", Kind: KindLinear, Method: "newton"}, wantErr: true},
		{name: "linear with alpha", spec: ModelSpec{Name: "x", Kind: KindLinear, Alpha: FixedAlpha(1)}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInteractionName(t *testing.T) {
	assert.Equal(t, "tv_x_price", Interaction{A: "TV", B: "Price"}.Name())
}
