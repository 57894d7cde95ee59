package estimator

import (
	"fmt"
	"slices"
	"strings"
)

// Sign is the required sign of a constrained coefficient or coefficient sum.
type Sign int

const (
	// Negative requires a value ≤ 0.
	Negative Sign = -1
	// Positive requires a value ≥ 0.
	Positive Sign = 1
)

// String returns the string representation of the sign
func (s Sign) String() string {
	switch s {
	case Negative:
		return "<=0"
	case Positive:
		return ">=0"
	default:
		return fmt.Sprintf("Sign(%d)", int(s))
	}
}

// holds reports whether v satisfies the sign within tol.
func (s Sign) holds(v, tol float64) bool {
	if s == Negative {
		return v <= tol
	}
	return v >= -tol
}

// ConstraintSpec names a coefficient and its required sign.
type ConstraintSpec struct {
	Name string
	Sign Sign
}

// Constraints are the two name lists supplied by the caller.
type Constraints struct {
	Negative []string `yaml:"negative,omitempty" json:"negative,omitempty"`
	Positive []string `yaml:"positive,omitempty" json:"positive,omitempty"`
}

// Specs flattens the lists into ConstraintSpecs, negatives first.
func (c Constraints) Specs() []ConstraintSpec {
	specs := make([]ConstraintSpec, 0, len(c.Negative)+len(c.Positive))
	for _, n := range c.Negative {
		specs = append(specs, ConstraintSpec{Name: n, Sign: Negative})
	}
	for _, n := range c.Positive {
		specs = append(specs, ConstraintSpec{Name: n, Sign: Positive})
	}
	return specs
}

// Empty reports whether no constraint is requested.
func (c Constraints) Empty() bool {
	return len(c.Negative) == 0 && len(c.Positive) == 0
}

// Topology selects how constraint names are interpreted.
type Topology string

const (
	// TopologySimple constrains single coefficients.
	TopologySimple Topology = "simple"
	// TopologyCombination constrains the sum of a base coefficient and each of
	// its interaction coefficients.
	TopologyCombination Topology = "combination"
)

// InteractionSeparator joins the parts of an interaction feature name.
const InteractionSeparator = "_x_"

// scalingPrefixes are the name prefixes added by upstream scaling.
var scalingPrefixes = []string{"standard_", "minmax_"}

// Group is a base coefficient and the interactions whose sums with it are
// sign-constrained.
type Group struct {
	Base         int
	Interactions []int
	Sign         Sign
}

// ConstraintMap is the resolved constraint set of one fit. Simple holds
// single-coefficient constraints; Groups holds combination constraints. A
// combination-constrained base without any interaction feature is recorded as a
// simple constraint on the base.
type ConstraintMap struct {
	Topology Topology
	Simple   map[int]Sign
	Groups   []Group
	// Unresolved are the requested names that matched no feature.
	Unresolved []string
}

// Empty reports whether the map constrains anything.
func (m ConstraintMap) Empty() bool {
	return len(m.Simple) == 0 && len(m.Groups) == 0
}

// stripPrefix removes one scaling prefix from a lower-cased name.
func stripPrefix(name string) string {
	for _, p := range scalingPrefixes {
		if strings.HasPrefix(name, p) {
			return name[len(p):]
		}
	}
	return name
}

// ResolveIndex returns the index of the feature matching name, or -1. Matching
// tries an exact match, then a case-insensitive match, then a match with the
// standard_/minmax_ prefixes removed from both sides.
func ResolveIndex(features []string, name string) int {
	if i := slices.Index(features, name); i >= 0 {
		return i
	}

	lower := strings.ToLower(strings.TrimSpace(name))
	for i, f := range features {
		if strings.ToLower(f) == lower {
			return i
		}
	}

	bare := stripPrefix(lower)
	for i, f := range features {
		if stripPrefix(strings.ToLower(f)) == bare {
			return i
		}
	}
	return -1
}

// interactionsOf returns the indices of the interaction features that include
// the feature at base as one of their parts.
func interactionsOf(features []string, base int) []int {
	bare := stripPrefix(strings.ToLower(features[base]))

	var out []int
	for j, f := range features {
		if j == base || !strings.Contains(f, InteractionSeparator) {
			continue
		}
		for _, part := range strings.Split(strings.ToLower(f), InteractionSeparator) {
			if stripPrefix(part) == bare {
				out = append(out, j)
				break
			}
		}
	}
	return out
}

// Build resolves specs against the feature names once, before fitting.
func Build(features []string, specs []ConstraintSpec, topology Topology) ConstraintMap {
	if topology == "" {
		topology = TopologySimple
	}
	m := ConstraintMap{
		Topology: topology,
		Simple:   make(map[int]Sign),
	}

	for _, spec := range specs {
		i := ResolveIndex(features, spec.Name)
		if i < 0 {
			m.Unresolved = append(m.Unresolved, spec.Name)
			continue
		}

		if topology == TopologyCombination {
			if inter := interactionsOf(features, i); len(inter) > 0 {
				m.Groups = append(m.Groups, Group{Base: i, Interactions: inter, Sign: spec.Sign})
				continue
			}
		}
		m.Simple[i] = spec.Sign
	}
	return m
}

// Project maps w onto the feasible set of m and returns the projected copy. Simple
// constraints clip the coefficient to the required side of zero. For every
// violating (base, interaction) pair the deficit is split equally between the
// two coefficients, which restores the pair's sum to zero.
//
// Groups are projected one after another in m.Groups order. Groups of opposite
// sign that share an interaction can undo each other, so the result depends on
// that order and is not guaranteed feasible; Validate reports what remains.
func Project(w []float64, m ConstraintMap) []float64 {
	out := slices.Clone(w)

	for i, s := range m.Simple {
		if !s.holds(out[i], 0) {
			out[i] = 0
		}
	}

	for _, g := range m.Groups {
		for _, j := range g.Interactions {
			sum := out[g.Base] + out[j]
			if s := g.Sign; s.holds(sum, 0) {
				continue
			}
			half := sum / 2
			out[g.Base] -= half
			out[j] -= half
		}
	}
	return out
}

// Violation is a constraint that does not hold on the final coefficients.
type Violation struct {
	Index int     `json:"index"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Sign  Sign    `json:"sign"`
	// Interaction is the interaction index of a combination constraint, -1 for
	// a simple constraint. Value is then the base+interaction sum.
	Interaction int `json:"interaction"`
}

// String returns a human readable description of the violation.
func (v Violation) String() string {
	return fmt.Sprintf("%s = %g violates %s", v.Name, v.Value, v.Sign)
}

// Validate checks w against m with tolerance tol and reports every violation.
func Validate(w []float64, features []string, m ConstraintMap, tol float64) []Violation {
	var out []Violation

	simple := make([]int, 0, len(m.Simple))
	for i := range m.Simple {
		simple = append(simple, i)
	}
	slices.Sort(simple)

	for _, i := range simple {
		s := m.Simple[i]
		if !s.holds(w[i], tol) {
			out = append(out, Violation{Index: i, Name: nameAt(features, i), Value: w[i], Sign: s, Interaction: -1})
		}
	}

	for _, g := range m.Groups {
		for _, j := range g.Interactions {
			sum := w[g.Base] + w[j]
			if !g.Sign.holds(sum, tol) {
				out = append(out, Violation{
					Index:       g.Base,
					Name:        nameAt(features, g.Base) + "+" + nameAt(features, j),
					Value:       sum,
					Sign:        g.Sign,
					Interaction: j,
				})
			}
		}
	}
	return out
}

func nameAt(features []string, i int) string {
	if i < len(features) {
		return features[i]
	}
	return fmt.Sprintf("w[%d]", i)
}
