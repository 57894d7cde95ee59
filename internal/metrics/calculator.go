package metrics

import (
	"context"
	"log/slog"

	"gonum.org/v1/gonum/stat"

	"mmmcli/internal/frame"
	"mmmcli/internal/numeric"
	"mmmcli/internal/transform"
)

// Input is everything one (combination × model) unit hands to the calculator.
// Metadata must be the metadata of the same combination that produced the
// design the coefficients were fitted on.
type Input struct {
	Features     []string
	Variables    []string
	Coefficients []float64
	Intercept    float64
	Metadata     map[string]transform.Metadata
	// FeatureMeans are the means of the fitted design columns.
	FeatureMeans []float64
	TargetMean   float64

	// PriceVariable names the price variable; empty disables CSF/MCV.
	PriceVariable string
	// Transforms are the create-column definitions of derived model columns.
	Transforms ColumnTransforms

	// Frame is the original frame; it supplies base-variable means and the
	// ROI window.
	Frame     *frame.Frame
	Rates     *RateTable
	Scope     string
	ROIWindow int

	// ShareMode selects the contribution denominator; the zero value is
	// Absolute.
	ShareMode ShareMode
}

// Result is the original-scale view of one fitted model.
type Result struct {
	Coefficients    map[string]float64
	Intercept       float64
	ElasticityBetas map[string]float64
	Elasticities    map[string]float64
	Scores          map[string]float64
	Contributions   map[string]float64
	PriceElasticity float64
	CSF             float64
	MCV             float64
	ROI             map[string]ROIResult
}

// Calculator derives original-scale coefficients and business metrics.
type Calculator struct {
	logger *slog.Logger
}

// NewCalculator creates a metrics calculator
func NewCalculator(logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{logger: logger}
}

// Compute back-transforms the coefficients and derives elasticities,
// contribution shares, price indices and ROI. Undefined
// values are NaN, never errors.
func (c *Calculator) Compute(ctx context.Context, in Input) *Result {
	bt := BackTransform(in.Features, in.Variables, in.Coefficients, in.Intercept, in.Metadata)

	res := &Result{
		Coefficients:    make(map[string]float64, len(bt.Coefficients)),
		Intercept:       bt.Intercept,
		ElasticityBetas: make(map[string]float64, len(bt.Coefficients)),
		Elasticities:    make(map[string]float64, len(bt.Coefficients)),
		Scores:          make(map[string]float64, len(bt.Coefficients)),
		PriceElasticity: numeric.Undefined(),
		CSF:             numeric.Undefined(),
		MCV:             numeric.Undefined(),
		ROI:             make(map[string]ROIResult),
	}

	for i, coef := range bt.Coefficients {
		name := coef.Variable
		md, hasMeta := in.Metadata[name]

		mean := featureMean(in, i)
		if hasMeta {
			mean = md.Original.Mean
		}

		res.Coefficients[name] = coef.Original
		res.ElasticityBetas[name] = coef.ElasticityBeta

		switch {
		case coef.Role == transform.RoleMedia:
			decay := transform.DefaultDecay
			if md.Params != nil {
				decay = md.Params.Decay
			}
			res.Elasticities[name] = MediaElasticity(coef.ElasticityBeta, mean, in.TargetMean, decay)
			res.Scores[name] = ContributionScore(coef.Transformed, md.TransformedMean)
		default:
			res.Elasticities[name] = c.elasticity(ctx, in, coef, mean)
			res.Scores[name] = ContributionScore(coef.Original, mean)
		}
	}

	res.Contributions = ContributionShares(res.Scores, in.ShareMode)

	if in.PriceVariable != "" {
		price := frame.Normalize(in.PriceVariable)
		if e, ok := res.Elasticities[price]; ok {
			p := NewPriceIndices(e, in.Metadata[price].Original.Mean)
			res.PriceElasticity, res.CSF, res.MCV = p.Elasticity, p.CSF, p.MCV
		}
	}

	if !in.Rates.Empty() && in.Frame != nil {
		c.roi(ctx, in, bt, res)
	}
	return res
}

// elasticity of a non-media coefficient: analytic create-column transforms
// differentiate with respect to their base, everything else is direct.
func (c *Calculator) elasticity(ctx context.Context, in Input, coef Coefficient, mean float64) float64 {
	def, ok := in.Transforms.Lookup(coef.Variable)
	if !ok {
		return DirectElasticity(coef.Original, mean, in.TargetMean)
	}

	baseMean := numeric.Undefined()
	if in.Frame != nil {
		if base, err := in.Frame.Column(def.Base); err == nil {
			baseMean = stat.Mean(base, nil)
		}
	}
	e := TransformElasticity(coef.Original, def, baseMean, in.TargetMean)
	if !numeric.IsDefined(e) {
		c.logger.DebugContext(ctx, "elasticity undefined",
			slog.String("variable", coef.Variable),
			slog.String("base", def.Base),
			slog.String("kind", string(def.Kind)),
			slog.Float64("base_mean", baseMean),
		)
	}
	return e
}

// roi re-applies each variable's pipeline to the trailing window of the
// original frame and evaluates ROI for every variable with a rate.
func (c *Calculator) roi(ctx context.Context, in Input, bt BackTransformed, res *Result) {
	window := in.ROIWindow
	if window <= 0 {
		window = DefaultROIWindow
	}
	tail := in.Frame.Tail(window)

	meanPrice := 1.0
	if in.PriceVariable != "" {
		if price, err := tail.Column(in.PriceVariable); err == nil {
			meanPrice = stat.Mean(price, nil)
		}
	}

	for _, coef := range bt.Coefficients {
		md, ok := in.Metadata[coef.Variable]
		if !ok {
			continue
		}
		rate, ok := in.Rates.Lookup(in.Scope, coef.Variable)
		if !ok {
			continue
		}
		spend, err := tail.Column(coef.Variable)
		if err != nil {
			continue
		}

		params := transform.Params{}
		if md.Params != nil {
			params = *md.Params
		}
		transformed, _, err := transform.ApplyOne(coef.Variable, md.Role, spend, params)
		if err != nil {
			c.logger.WarnContext(ctx, "roi window transform failed",
				slog.String("variable", coef.Variable),
				slog.String("error", err.Error()),
			)
			continue
		}

		r := ComputeROI(coef.Transformed, transformed, spend, rate, meanPrice)
		res.ROI[coef.Variable] = r
	}
}

func featureMean(in Input, i int) float64 {
	if i < len(in.FeatureMeans) {
		return in.FeatureMeans[i]
	}
	return numeric.Undefined()
}
