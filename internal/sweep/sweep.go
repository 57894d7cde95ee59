package sweep

import (
	"fmt"
	"iter"
	"time"

	"mmmcli/internal/frame"
	"mmmcli/internal/transform"
)

// Mode tells how candidate lists are combined.
type Mode string

const (
	// ModeShared applies one (decay, growth, midpoint) tuple to every media
	// variable. Used when all media variables have identical candidate lists.
	ModeShared Mode = "shared"
	// ModeIndependent takes the full cross-product across all media variables.
	ModeIndependent Mode = "independent"
)

// Sweep is a finite, restartable sequence of parameter combinations. Combinations
// are decoded on demand from their index, so a sweep holds only the candidate
// lists.
type Sweep struct {
	mode      Mode
	frequency Frequency
	media     []string
	// axes are the candidate lists in decode order, three per tuple
	// (decay, growth, midpoint); one tuple in shared mode, one per media
	// variable otherwise. The last axis varies fastest.
	axes [][]float64
	size int
}

// Generate builds the sweep for a set of variable configs. dates are the sample
// dates of the input frame and drive the default decay candidates; nil dates
// select the monthly defaults. A config set without media variables yields a
// single empty combination.
func Generate(configs []VariableConfig, dates []time.Time) (*Sweep, error) {
	if len(configs) == 0 {
		return nil, ErrNoVariables
	}

	freq := DetectFrequency(dates)
	seen := make(map[string]bool, len(configs))

	var (
		media []string
		lists []candidates
	)
	for _, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		name := frame.Normalize(cfg.Name)
		if seen[name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateVariable, name)
		}
		seen[name] = true

		if cfg.Role != transform.RoleMedia {
			continue
		}
		media = append(media, name)
		lists = append(lists, resolve(cfg, freq))
	}

	s := &Sweep{
		mode:      ModeShared,
		frequency: freq,
		media:     media,
	}

	for _, l := range lists[min(1, len(lists)):] {
		if !l.equal(lists[0]) {
			s.mode = ModeIndependent
			break
		}
	}

	tuples := lists
	if s.mode == ModeShared && len(lists) > 0 {
		tuples = lists[:1]
	}
	for _, l := range tuples {
		s.axes = append(s.axes, l.decays, l.growths, l.midpoints)
	}

	s.size = 1
	for _, axis := range s.axes {
		s.size *= len(axis)
		if s.size > MaxCombinations {
			return nil, fmt.Errorf("%w: more than %d", ErrTooManyCombinations, MaxCombinations)
		}
	}

	return s, nil
}

// Mode returns how the candidate lists were combined.
func (s *Sweep) Mode() Mode {
	return s.mode
}

// Frequency returns the detected sampling frequency.
func (s *Sweep) Frequency() Frequency {
	return s.frequency
}

// Media returns the media variables of the sweep.
func (s *Sweep) Media() []string {
	return append([]string(nil), s.media...)
}

// Len returns the number of combinations.
func (s *Sweep) Len() int {
	return s.size
}

// At decodes the i-th combination. It panics if i is out of range.
func (s *Sweep) At(i int) ParameterCombination {
	if i < 0 || i >= s.size {
		panic(fmt.Sprintf("sweep: index %d out of range [0,%d)", i, s.size))
	}

	// Mixed-radix decode, last axis fastest.
	values := make([]float64, len(s.axes))
	rest := i
	for a := len(s.axes) - 1; a >= 0; a-- {
		n := len(s.axes[a])
		values[a] = s.axes[a][rest%n]
		rest /= n
	}

	c := ParameterCombination{
		index:     i,
		variables: append([]string(nil), s.media...),
		params:    make([]transform.Params, len(s.media)),
	}
	for m := range s.media {
		tuple := 0
		if s.mode == ModeIndependent {
			tuple = m
		}
		c.params[m] = transform.Params{
			Decay:    values[3*tuple],
			Growth:   values[3*tuple+1],
			Midpoint: values[3*tuple+2],
		}
	}
	return c
}

// All returns an iterator over every combination in index order. Each call
// starts a fresh pass.
func (s *Sweep) All() iter.Seq[ParameterCombination] {
	return func(yield func(ParameterCombination) bool) {
		for i := 0; i < s.size; i++ {
			if !yield(s.At(i)) {
				return
			}
		}
	}
}
