package transform

import (
	"errors"
	"fmt"
)

// ErrNonFinite is returned when an input series contains NaN or Inf.
var ErrNonFinite = errors.New("non-finite input")

// Role selects the transformation pipeline of a variable.
type Role string

const (
	// RoleMedia applies adstock, standardize, logistic and minmax.
	RoleMedia Role = "media"
	// RoleStandardize applies standardize only.
	RoleStandardize Role = "standardize"
	// RoleMinMax applies minmax only.
	RoleMinMax Role = "minmax"
	// RoleNone passes the variable through unchanged.
	RoleNone Role = "none"
)

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// Step names recorded in Metadata.Steps.
const (
	StepAdstock     = "adstock"
	StepStandardize = "standardize"
	StepLogistic    = "logistic"
	StepMinMax      = "minmax"
)

// Defaults substituted for out-of-range parameters.
const (
	DefaultDecay  = 0.5
	DefaultGrowth = 1.0
)

// Params are the concrete transformation parameters of one media variable.
type Params struct {
	Decay    float64 `json:"decay" yaml:"decay"`
	Growth   float64 `json:"growth" yaml:"growth"`
	Midpoint float64 `json:"midpoint" yaml:"midpoint"`
}

// String returns a compact representation used in logs.
func (p Params) String() string {
	return fmt.Sprintf("decay=%g growth=%g midpoint=%g", p.Decay, p.Growth, p.Midpoint)
}

// Stats summarises a series.
type Stats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// StepStats are the statistics of a step's output.
type StepStats struct {
	Step string `json:"step"`
	Stats
}

// Metadata captures everything needed to map a coefficient fitted on the
// transformed feature back to the original variable.
type Metadata struct {
	Variable string `json:"variable"`
	Feature  string `json:"feature"`
	Role     Role   `json:"role"`

	// Original are the statistics of the untransformed variable.
	Original Stats `json:"original"`
	// Steps holds the output statistics of every step, in pipeline order.
	Steps []StepStats `json:"steps,omitempty"`

	// Params are the media parameters actually used, after substitution.
	Params        *Params  `json:"params,omitempty"`
	Substitutions []string `json:"substitutions,omitempty"`

	// Standardize step scale (standardize role, or media after adstock).
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`

	// Minmax step scale (minmax role, or media after logistic).
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Range float64 `json:"range"`

	// Media only: σ_A and the pre-minmax logistic statistics L_t, L_min, L_max.
	AdstockStd   float64 `json:"adstock_std,omitempty"`
	LogisticMean float64 `json:"logistic_mean,omitempty"`
	LogisticMin  float64 `json:"logistic_min,omitempty"`
	LogisticMax  float64 `json:"logistic_max,omitempty"`

	// TransformedMean is the mean of the final transformed feature.
	TransformedMean float64 `json:"transformed_mean"`
}

// Step returns the recorded statistics of the named step.
func (m Metadata) Step(name string) (StepStats, bool) {
	for _, s := range m.Steps {
		if s.Step == name {
			return s, true
		}
	}
	return StepStats{}, false
}
