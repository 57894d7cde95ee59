// Package numeric carries the "undefined" convention shared by the metric
// calculators: a division by zero or an out-of-domain input yields NaN instead
// of an error, and NaN travels to callers as a JSON null.
package numeric

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Undefined returns the value used for results that have no defined value.
func Undefined() float64 {
	return math.NaN()
}

// IsDefined reports whether v is a finite number.
func IsDefined(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Div returns a/b, or Undefined when b is zero or either operand is not finite.
func Div(a, b float64) float64 {
	if b == 0 || !IsDefined(a) || !IsDefined(b) {
		return Undefined()
	}
	return a / b
}

// Float is a float64 that marshals non-finite values as JSON null.
type Float float64

// Value returns the underlying float64.
func (f Float) Value() float64 {
	return float64(f)
}

// Defined reports whether f holds a finite number.
func (f Float) Defined() bool {
	return IsDefined(float64(f))
}

// MarshalJSON implements json.Marshaler
func (f Float) MarshalJSON() ([]byte, error) {
	if !f.Defined() {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, float64(f), 'g', -1, 64), nil
}

// UnmarshalJSON implements json.Unmarshaler; null decodes to NaN.
func (f *Float) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = Float(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// Map converts a map of raw values into Floats.
func Map(values map[string]float64) map[string]Float {
	out := make(map[string]Float, len(values))
	for k, v := range values {
		out[k] = Float(v)
	}
	return out
}
