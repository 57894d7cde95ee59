package training

import (
	"cmp"
	"math"
	"slices"
	"time"

	"mmmcli/internal/estimator"
	"mmmcli/internal/metrics"
	"mmmcli/internal/numeric"
	"mmmcli/internal/sweep"
	"mmmcli/internal/transform"
)

// ROIRecord is the serialised ROI of one feature.
type ROIRecord struct {
	Rate            string        `json:"rate"`
	RateSource      string        `json:"rate_source"`
	Beta            numeric.Float `json:"beta"`
	ContributionSum numeric.Float `json:"contribution_sum"`
	SpendSum        numeric.Float `json:"spend_sum"`
	CostSum         string        `json:"cost_sum"`
	MeanPrice       numeric.Float `json:"mean_price"`
	Window          int           `json:"window"`
	ROI             numeric.Float `json:"roi"`
}

func newROIRecord(r metrics.ROIResult) ROIRecord {
	return ROIRecord{
		Rate:            r.Rate.String(),
		RateSource:      r.RateSource,
		Beta:            numeric.Float(r.Beta),
		ContributionSum: numeric.Float(r.ContributionSum),
		SpendSum:        numeric.Float(r.SpendSum),
		CostSum:         r.CostSum.String(),
		MeanPrice:       numeric.Float(r.MeanPrice),
		Window:          r.Window,
		ROI:             numeric.Float(r.ROI),
	}
}

// Record is the output of one (combination × model) unit. Undefined numbers
// serialise as null.
type Record struct {
	RunID     string        `json:"run_id"`
	Scope     string        `json:"scope,omitempty"`
	ModelName string        `json:"model_name"`
	ModelKind ModelKind     `json:"model_kind"`
	Alpha     numeric.Float `json:"alpha"`

	MAPETrain   numeric.Float `json:"mape_train"`
	MAPETest    numeric.Float `json:"mape_test"`
	R2Train     numeric.Float `json:"r2_train"`
	R2Test      numeric.Float `json:"r2_test"`
	AIC         numeric.Float `json:"aic"`
	BIC         numeric.Float `json:"bic"`
	NParameters int           `json:"n_parameters"`

	Coefficients  map[string]numeric.Float `json:"coefficients"`
	Intercept     numeric.Float            `json:"intercept"`
	Elasticities  map[string]numeric.Float `json:"elasticities"`
	Contributions map[string]numeric.Float `json:"contributions"`

	PriceElasticity numeric.Float        `json:"price_elasticity"`
	CSF             numeric.Float        `json:"csf"`
	MCV             numeric.Float        `json:"mcv"`
	ROIResults      map[string]ROIRecord `json:"roi_results,omitempty"`

	ParameterCombination   sweep.ParameterCombination    `json:"parameter_combination"`
	TransformationMetadata map[string]transform.Metadata `json:"transformation_metadata"`

	// Fit diagnostics and the transformed-space view, kept so metrics can be
	// recomputed from stored records without refitting.
	Features                []string              `json:"features"`
	FeatureVariables        []string              `json:"feature_variables"`
	TransformedCoefficients []float64             `json:"transformed_coefficients"`
	TransformedIntercept    float64               `json:"transformed_intercept"`
	FeatureMeans            []float64             `json:"feature_means"`
	TargetMean              float64               `json:"target_mean"`
	Iterations              int                   `json:"iterations"`
	Converged               bool                  `json:"converged"`
	Violations              []estimator.Violation `json:"constraint_violations,omitempty"`
}

// Failure is a unit that produced no record.
type Failure struct {
	Combination int    `json:"combination"`
	Model       string `json:"model"`
	Error       string `json:"error"`
}

// Best is the selected record of one model.
type Best struct {
	Model       string        `json:"model"`
	Combination int           `json:"combination"`
	Key         string        `json:"key"`
	MAPETest    numeric.Float `json:"mape_test"`
	AIC         numeric.Float `json:"aic"`
}

// Summary aggregates a run.
type Summary struct {
	Records    int    `json:"records"`
	Failures   int    `json:"failures"`
	Violations int    `json:"violations"`
	Best       []Best `json:"best"`
}

// Run is the merged output of a sweep.
type Run struct {
	ID           string          `json:"id"`
	Scope        string          `json:"scope,omitempty"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   time.Time       `json:"finished_at"`
	Mode         sweep.Mode      `json:"mode"`
	Frequency    sweep.Frequency `json:"frequency"`
	Combinations int             `json:"combinations"`
	Records      []Record        `json:"records,omitempty"`
	Failures     []Failure       `json:"failures,omitempty"`
	Summary      Summary         `json:"summary"`
}

// rankValue orders undefined values after every defined one.
func rankValue(f numeric.Float) float64 {
	if !f.Defined() {
		return math.Inf(1)
	}
	return f.Value()
}

// Summarize picks the best record per model by test MAPE, breaking ties by
// AIC, and counts failures and constraint violations.
func Summarize(records []Record, failures []Failure) Summary {
	s := Summary{Records: len(records), Failures: len(failures)}

	best := make(map[string]Record)
	var order []string
	for _, r := range records {
		s.Violations += len(r.Violations)

		cur, ok := best[r.ModelName]
		if !ok {
			order = append(order, r.ModelName)
			best[r.ModelName] = r
			continue
		}
		if c := cmp.Compare(rankValue(r.MAPETest), rankValue(cur.MAPETest)); c < 0 ||
			(c == 0 && rankValue(r.AIC) < rankValue(cur.AIC)) {
			best[r.ModelName] = r
		}
	}

	slices.Sort(order)
	for _, name := range order {
		r := best[name]
		s.Best = append(s.Best, Best{
			Model:       name,
			Combination: r.ParameterCombination.Index(),
			Key:         r.ParameterCombination.Key(),
			MAPETest:    r.MAPETest,
			AIC:         r.AIC,
		})
	}
	return s
}
