package sweep

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"

	"mmmcli/internal/frame"
	"mmmcli/internal/transform"
	"mmmcli/internal/validation"
)

var (
	// ErrNoVariables is returned when a sweep is requested without variables.
	ErrNoVariables = errors.New("no variables configured")
	// ErrDuplicateVariable is returned when two configs name the same variable.
	ErrDuplicateVariable = errors.New("duplicate variable")
	// ErrTooManyCombinations is returned when the cross-product exceeds MaxCombinations.
	ErrTooManyCombinations = errors.New("too many parameter combinations")
)

// MaxCombinations bounds the size of a single sweep.
const MaxCombinations = 1 << 20

// Frequency is the detected sampling frequency of the input frame.
type Frequency string

const (
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

// VariableConfig configures one model variable and, for media variables, its
// candidate transformation parameters. Empty candidate lists fall back to the
// frequency-aware defaults. Candidates outside the valid ranges are accepted
// here; the transform engine substitutes the defaults and records it.
type VariableConfig struct {
	Name      string         `yaml:"name" json:"name" validate:"required"`
	Role      transform.Role `yaml:"role" json:"role" validate:"required"`
	Decays    []float64      `yaml:"decays,omitempty" json:"decays,omitempty"`
	Growths   []float64      `yaml:"growths,omitempty" json:"growths,omitempty"`
	Midpoints []float64      `yaml:"midpoints,omitempty" json:"midpoints,omitempty"`
}

// Validate checks the struct rules and that the role is registered.
func (c VariableConfig) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("variable %q: %w", c.Name, err)
	}
	if _, err := transform.Lookup(c.Role); err != nil {
		return fmt.Errorf("variable %q: %w", c.Name, err)
	}
	return nil
}

// Variable returns the engine view of the config.
func (c VariableConfig) Variable() transform.Variable {
	return transform.Variable{Name: frame.Normalize(c.Name), Role: c.Role}
}

// Variables converts configs into engine variables, preserving order.
func Variables(configs []VariableConfig) []transform.Variable {
	out := make([]transform.Variable, 0, len(configs))
	for _, c := range configs {
		out = append(out, c.Variable())
	}
	return out
}

// DetectFrequency classifies the sampling frequency from the gaps between
// consecutive dates. A mean gap of at most 7 days with a gap standard deviation
// of at most 2 days is weekly; everything else, including fewer than two dates,
// is monthly.
func DetectFrequency(dates []time.Time) Frequency {
	if len(dates) < 2 {
		return Monthly
	}

	sorted := slices.Clone(dates)
	slices.SortFunc(sorted, func(a, b time.Time) int { return a.Compare(b) })

	gaps := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		gaps = append(gaps, sorted[i].Sub(sorted[i-1]).Hours()/24)
	}

	mean, std := stat.PopMeanStdDev(gaps, nil)
	if mean <= 7 && std <= 2 {
		return Weekly
	}
	return Monthly
}

// DefaultDecays returns the decay candidates used when a media variable
// supplies none.
func DefaultDecays(f Frequency) []float64 {
	if f == Weekly {
		return []float64{0.3, 0.5, 0.7, 0.9}
	}
	return []float64{0.1, 0.3, 0.5}
}

// Default growth and midpoint candidates.
var (
	DefaultGrowths   = []float64{transform.DefaultGrowth}
	DefaultMidpoints = []float64{0.0}
)

// candidates are the resolved candidate lists of one media variable.
type candidates struct {
	decays    []float64
	growths   []float64
	midpoints []float64
}

func (c candidates) equal(o candidates) bool {
	return slices.Equal(c.decays, o.decays) &&
		slices.Equal(c.growths, o.growths) &&
		slices.Equal(c.midpoints, o.midpoints)
}

func resolve(cfg VariableConfig, freq Frequency) candidates {
	pick := func(values, fallback []float64) []float64 {
		if len(values) == 0 {
			return slices.Clone(fallback)
		}
		return dedupe(values)
	}
	return candidates{
		decays:    pick(cfg.Decays, DefaultDecays(freq)),
		growths:   pick(cfg.Growths, DefaultGrowths),
		midpoints: pick(cfg.Midpoints, DefaultMidpoints),
	}
}

// dedupe drops repeated values, keeping first occurrences in order.
func dedupe(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
