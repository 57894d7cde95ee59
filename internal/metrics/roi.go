package metrics

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"mmmcli/internal/numeric"
)

// DefaultROIWindow is the number of trailing periods ROI is computed over.
const DefaultROIWindow = 12

// RateTable holds campaign cost rates (CPRP). Rates are looked up in the table of
// the current scope, then in the default table, then the global rate applies.
type RateTable struct {
	Global  *decimal.Decimal                      `json:"global,omitempty"`
	Default map[string]decimal.Decimal            `json:"default,omitempty"`
	Scopes  map[string]map[string]decimal.Decimal `json:"scopes,omitempty"`
}

// Rate is a resolved rate and where it came from.
type Rate struct {
	Value  decimal.Decimal
	Source string
}

// Empty reports whether the table holds no rate at all.
func (t *RateTable) Empty() bool {
	return t == nil || (t.Global == nil && len(t.Default) == 0 && len(t.Scopes) == 0)
}

// Lookup resolves the rate of a feature. Within a table an exact key wins over
// a case-insensitive key, which wins over a substring match.
func (t *RateTable) Lookup(scope, feature string) (Rate, bool) {
	if t == nil {
		return Rate{}, false
	}
	if scoped, ok := t.Scopes[scope]; ok && scope != "" {
		if key, ok := matchKey(scoped, feature); ok {
			return Rate{Value: scoped[key], Source: "scope:" + scope + ":" + key}, true
		}
	}
	if key, ok := matchKey(t.Default, feature); ok {
		return Rate{Value: t.Default[key], Source: "default:" + key}, true
	}
	if t.Global != nil {
		return Rate{Value: *t.Global, Source: "global"}, true
	}
	return Rate{}, false
}

func matchKey(table map[string]decimal.Decimal, feature string) (string, bool) {
	if len(table) == 0 {
		return "", false
	}
	if _, ok := table[feature]; ok {
		return feature, true
	}

	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	// Longest keys first so the most specific substring wins.
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	for _, k := range keys {
		if strings.EqualFold(k, feature) {
			return k, true
		}
	}

	lf := strings.ToLower(feature)
	for _, k := range keys {
		lk := strings.ToLower(k)
		if lk != "" && (strings.Contains(lf, lk) || strings.Contains(lk, lf)) {
			return k, true
		}
	}
	return "", false
}

// ROIResult is the return on investment of one feature.
type ROIResult struct {
	Rate       decimal.Decimal
	RateSource string
	Beta       float64
	// ContributionSum is Σ β·transformed(x_t) over the window.
	ContributionSum float64
	// SpendSum is Σ x_t and CostSum is Σ rate·x_t over the window.
	SpendSum  float64
	CostSum   decimal.Decimal
	MeanPrice float64
	Window    int
	ROI       float64
}

// ComputeROI evaluates ROI = Σ β·transformed(x_t) / Σ rate·x_t · meanPrice.
// transformed and spend must cover the same window.
func ComputeROI(beta float64, transformed, spend []float64, rate Rate, meanPrice float64) ROIResult {
	r := ROIResult{
		Rate:       rate.Value,
		RateSource: rate.Source,
		Beta:       beta,
		CostSum:    decimal.Zero,
		MeanPrice:  meanPrice,
		Window:     len(spend),
	}

	for _, v := range transformed {
		r.ContributionSum += beta * v
	}
	for _, x := range spend {
		r.SpendSum += x
		r.CostSum = r.CostSum.Add(rate.Value.Mul(decimal.NewFromFloat(x)))
	}

	cost, _ := r.CostSum.Float64()
	r.ROI = numeric.Div(r.ContributionSum, cost) * meanPrice
	return r
}
