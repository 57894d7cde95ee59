package metrics

import (
	"maps"
	"math"
	"slices"

	"mmmcli/internal/numeric"
)

// ShareMode selects the contribution-share denominator.
type ShareMode int

const (
	// Absolute divides by Σ|score|; shares of mixed-sign scores are magnitudes
	// and always sum to 1. Used for training output records.
	Absolute ShareMode = iota
	// Simple divides by Σscore and keeps signs. Used by the direct recomputation
	// path over saved records.
	Simple
)

// String returns the string representation of the mode
func (m ShareMode) String() string {
	if m == Simple {
		return "simple"
	}
	return "absolute"
}

// ContributionScore is β·mean(x). Media variables pass the transformed
// coefficient and the transformed-feature mean so scores compare across
// variables.
func ContributionScore(beta, mean float64) float64 {
	return beta * mean
}

// ContributionShares normalises scores into shares. The intercept is never part
// of scores. A zero denominator yields undefined shares. The denominator is
// summed in name order so repeated calls give identical bits.
func ContributionShares(scores map[string]float64, mode ShareMode) map[string]float64 {
	var total float64
	for _, name := range slices.Sorted(maps.Keys(scores)) {
		s := scores[name]
		if !numeric.IsDefined(s) {
			continue
		}
		if mode == Absolute {
			total += math.Abs(s)
		} else {
			total += s
		}
	}

	shares := make(map[string]float64, len(scores))
	for name, s := range scores {
		if mode == Absolute {
			s = math.Abs(s)
		}
		shares[name] = numeric.Div(s, total)
	}
	return shares
}

// PriceIndices are the price-elasticity derived indices.
type PriceIndices struct {
	Elasticity float64
	// CSF is the consumer-surplus fraction 1 − 1/e.
	CSF float64
	// MCV is the marginal consumer value CSF·mean(price).
	MCV float64
}

// NewPriceIndices derives CSF and MCV from the price elasticity. Both are
// undefined when the elasticity is zero or not finite.
func NewPriceIndices(elasticity, meanPrice float64) PriceIndices {
	p := PriceIndices{
		Elasticity: elasticity,
		CSF:        numeric.Undefined(),
		MCV:        numeric.Undefined(),
	}
	inv := numeric.Div(1, elasticity)
	if !numeric.IsDefined(inv) {
		return p
	}
	p.CSF = 1 - inv
	if numeric.IsDefined(meanPrice) {
		p.MCV = p.CSF * meanPrice
	}
	return p
}
