package numeric

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiv(t *testing.T) {
	tests := []struct {
		name    string
		a, b    float64
		want    float64
		defined bool
	}{
		{"regular", 6, 3, 2, true},
		{"zero denominator", 1, 0, 0, false},
		{"nan numerator", math.NaN(), 2, 0, false},
		{"infinite denominator", 1, math.Inf(1), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Div(tt.a, tt.b)
			assert.Equal(t, tt.defined, IsDefined(got))
			if tt.defined {
				assert.InDelta(t, tt.want, got, 1e-12)
			}
		})
	}
}

func TestFloatJSON(t *testing.T) {
	payload := struct {
		A Float            `json:"a"`
		B Float            `json:"b"`
		M map[string]Float `json:"m"`
	}{
		A: 1.5,
		B: Float(math.NaN()),
		M: Map(map[string]float64{"x": math.Inf(-1)}),
	}

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1.5,"b":null,"m":{"x":null}}`, string(data))

	var decoded struct {
		A Float `json:"a"`
		B Float `json:"b"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 1.5, decoded.A.Value())
	assert.False(t, decoded.B.Defined())
}
