package metrics

import (
	"fmt"
	"math"
	"strings"

	"mmmcli/internal/numeric"
)

// TransformKind is the analytic transform a create-column stage applied to a
// base variable.
type TransformKind string

const (
	KindDirect TransformKind = "direct"
	KindLog    TransformKind = "log"
	KindSqrt   TransformKind = "sqrt"
	KindSquare TransformKind = "square"
	KindPower  TransformKind = "power"
	KindExp    TransformKind = "exp"
)

// ColumnTransform describes a model column created upstream from a single base
// variable, e.g. log_tv = log(tv).
type ColumnTransform struct {
	Name  string        `yaml:"name" json:"name" validate:"required"`
	Base  string        `yaml:"base" json:"base" validate:"required"`
	Kind  TransformKind `yaml:"kind" json:"kind" validate:"required,oneof=direct log sqrt square power exp"`
	Power float64       `yaml:"power,omitempty" json:"power,omitempty"`
}

// Derivative returns d f(base)/d base at the given base mean. Out-of-domain
// means yield an undefined value.
func (c ColumnTransform) Derivative(baseMean float64) float64 {
	return Derivative(c.Kind, c.Power, baseMean)
}

// Derivative returns the derivative of an analytic transform at m:
// log 1/m, sqrt 1/(2√m), square 2m, power p·m^(p−1), exp e^m, direct 1.
// log and sqrt require m > 0; a fractional power requires m > 0.
func Derivative(kind TransformKind, power, m float64) float64 {
	if !numeric.IsDefined(m) {
		return numeric.Undefined()
	}

	var d float64
	switch TransformKind(strings.ToLower(string(kind))) {
	case KindDirect, "":
		d = 1
	case KindLog:
		if m <= 0 {
			return numeric.Undefined()
		}
		d = 1 / m
	case KindSqrt:
		if m <= 0 {
			return numeric.Undefined()
		}
		d = 1 / (2 * math.Sqrt(m))
	case KindSquare:
		d = 2 * m
	case KindPower:
		if m <= 0 && power != math.Trunc(power) {
			return numeric.Undefined()
		}
		d = power * math.Pow(m, power-1)
	case KindExp:
		d = math.Exp(m)
	default:
		return numeric.Undefined()
	}

	if !numeric.IsDefined(d) {
		return numeric.Undefined()
	}
	return d
}

// DirectElasticity is β·mean(x)/mean(Y).
func DirectElasticity(beta, featureMean, targetMean float64) float64 {
	return numeric.Div(beta*featureMean, targetMean)
}

// TransformElasticity is the elasticity of Y with respect to the base variable
// of a created column: β·f'(m)·m/mean(Y) with m the base mean.
func TransformElasticity(beta float64, c ColumnTransform, baseMean, targetMean float64) float64 {
	d := c.Derivative(baseMean)
	if !numeric.IsDefined(d) {
		return numeric.Undefined()
	}
	return numeric.Div(beta*d*baseMean, targetMean)
}

// MediaElasticity is β_elast·mean(x)/mean(Y)·1/(1−decay). It is 0 when decay
// is not below 1.
func MediaElasticity(elasticityBeta, meanSpend, targetMean, decay float64) float64 {
	if decay >= 1 {
		return 0
	}
	return numeric.Div(elasticityBeta*meanSpend, targetMean) / (1 - decay)
}

// ColumnTransforms indexes create-column definitions by the created column.
type ColumnTransforms map[string]ColumnTransform

// NewColumnTransforms builds the index, rejecting duplicate column names.
func NewColumnTransforms(defs []ColumnTransform) (ColumnTransforms, error) {
	out := make(ColumnTransforms, len(defs))
	for _, d := range defs {
		name := strings.ToLower(strings.TrimSpace(d.Name))
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("duplicate column transform %q", d.Name)
		}
		d.Base = strings.ToLower(strings.TrimSpace(d.Base))
		out[name] = d
	}
	return out, nil
}

// Lookup returns the definition of a created column.
func (c ColumnTransforms) Lookup(name string) (ColumnTransform, bool) {
	d, ok := c[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}
