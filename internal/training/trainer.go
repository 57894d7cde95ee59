package training

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	apperrors "mmmcli/internal/errors"
	"mmmcli/internal/estimator"
	"mmmcli/internal/frame"
	"mmmcli/internal/metrics"
	"mmmcli/internal/numeric"
	"mmmcli/internal/sweep"
	"mmmcli/internal/transform"
	"mmmcli/internal/validation"
)

// Options configures the orchestrator.
type Options struct {
	TestFraction   float64           `yaml:"test_fraction" json:"test_fraction" validate:"gte=0,lt=1"`
	Seed           int64             `yaml:"seed" json:"seed"`
	MaxConcurrency int               `yaml:"max_concurrency" json:"max_concurrency" validate:"gte=1"`
	ROIWindow      int               `yaml:"roi_window" json:"roi_window" validate:"gte=1"`
	CVFolds        int               `yaml:"cv_folds" json:"cv_folds" validate:"gte=2"`
	AlphaGrid      []float64         `yaml:"alpha_grid,omitempty" json:"alpha_grid,omitempty" validate:"omitempty,dive,gt=0"`
	Estimator      estimator.Options `yaml:"estimator" json:"estimator"`
}

// DefaultOptions returns the default orchestrator options.
func DefaultOptions() Options {
	return Options{
		TestFraction:   0.2,
		Seed:           42,
		MaxConcurrency: 4,
		ROIWindow:      metrics.DefaultROIWindow,
		CVFolds:        5,
		AlphaGrid:      DefaultAlphaGrid(),
		Estimator:      estimator.DefaultOptions(),
	}
}

// MetadataCache stores transformed designs across runs. Keys combine the scope,
// a fingerprint of the frame and variable list, and the combination
// fingerprint.
type MetadataCache interface {
	Get(key string) (*transform.Design, bool)
	Put(key string, design *transform.Design)
}

// Request is one training run over a frame.
type Request struct {
	// RunID identifies the run; a random one is assigned when empty.
	RunID string
	Scope string

	Frame        *frame.Frame
	Target       string
	Variables    []sweep.VariableConfig
	Interactions []Interaction
	// Models defaults to DefaultModels when empty.
	Models []ModelSpec

	PriceVariable string
	Rates         *metrics.RateTable
	Transforms    metrics.ColumnTransforms

	// Cache is optional.
	Cache MetadataCache
}

// Trainer runs every (combination × model) unit of a sweep.
type Trainer struct {
	opts   Options
	logger *slog.Logger
	engine *transform.Engine
	calc   *metrics.Calculator
	tel    *telemetry
}

// New creates a trainer. Zero-valued options fall back to the defaults.
func New(opts Options, logger *slog.Logger) *Trainer {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultOptions()
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = def.MaxConcurrency
	}
	if opts.ROIWindow <= 0 {
		opts.ROIWindow = def.ROIWindow
	}
	if opts.CVFolds < 2 {
		opts.CVFolds = def.CVFolds
	}
	if len(opts.AlphaGrid) == 0 {
		opts.AlphaGrid = def.AlphaGrid
	}

	logger = logger.With(slog.String("component", "trainer"))
	return &Trainer{
		opts:   opts,
		logger: logger,
		engine: transform.NewEngine(logger),
		calc:   metrics.NewCalculator(logger),
		tel:    newTelemetry(),
	}
}

// Options returns the effective options.
func (t *Trainer) Options() Options {
	return t.opts
}

// unit is the output slot of one combination.
type unit struct {
	records  []Record
	failures []Failure
}

// shared is the per-run state every unit reads and never writes.
type shared struct {
	req       Request
	models    []ModelSpec
	variables []transform.Variable
	y         []float64
	train     []int
	test      []int
	// inputKey fingerprints the frame and variables; set only with a cache.
	inputKey string
}

// Run generates the sweep and trains every unit. Unit failures are collected
// in the run; only invalid requests and cancellation return an error.
func (t *Trainer) Run(ctx context.Context, req Request) (*Run, error) {
	started := time.Now()
	if req.RunID == "" {
		req.RunID = uuid.New().String()
	}

	ctx, span := t.tel.tracer.Start(ctx, "training.Run",
		trace.WithAttributes(
			attribute.String("run.id", req.RunID),
			attribute.String("run.scope", req.Scope),
		))
	defer span.End()

	s, err := t.prepare(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	sw, err := sweep.Generate(req.Variables, req.Frame.Dates())
	if err != nil {
		err = apperrors.NewValidationError("generate parameter sweep", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("sweep.combinations", sw.Len()))

	t.logger.InfoContext(ctx, "starting training run",
		"run_id", req.RunID,
		"scope", req.Scope,
		"rows", req.Frame.Len(),
		"train_rows", len(s.train),
		"test_rows", len(s.test),
		"combinations", sw.Len(),
		"models", len(s.models),
		"mode", sw.Mode(),
		"frequency", sw.Frequency(),
	)

	slots := make([]unit, sw.Len())
	var g errgroup.Group
	g.SetLimit(t.opts.MaxConcurrency)
	for i := range sw.Len() {
		if ctx.Err() != nil {
			break
		}
		comb := sw.At(i)
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			slots[i] = t.trainCombination(ctx, s, comb)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		t.logger.WarnContext(ctx, "training run cancelled", "run_id", req.RunID, "error", err)
		return nil, err
	}

	run := &Run{
		ID:           req.RunID,
		Scope:        req.Scope,
		StartedAt:    started,
		Mode:         sw.Mode(),
		Frequency:    sw.Frequency(),
		Combinations: sw.Len(),
		Records:      make([]Record, 0, sw.Len()*len(s.models)),
	}
	for _, u := range slots {
		run.Records = append(run.Records, u.records...)
		run.Failures = append(run.Failures, u.failures...)
	}
	run.Summary = Summarize(run.Records, run.Failures)
	run.FinishedAt = time.Now()

	t.logger.InfoContext(ctx, "training run completed",
		"run_id", req.RunID,
		"records", run.Summary.Records,
		"failures", run.Summary.Failures,
		"violations", run.Summary.Violations,
		"duration", run.FinishedAt.Sub(started),
	)
	return run, nil
}

// prepare validates the request and resolves what every unit shares.
func (t *Trainer) prepare(req Request) (*shared, error) {
	if req.Frame == nil || req.Frame.Len() == 0 {
		return nil, apperrors.NewDataError("input frame is empty", frame.ErrEmptyFrame)
	}
	if req.Target == "" {
		return nil, apperrors.NewValidationError("target variable is required", nil)
	}

	models := req.Models
	if len(models) == 0 {
		models = DefaultModels()
	}
	seen := make(map[string]bool, len(models))
	for _, m := range models {
		if err := m.Validate(); err != nil {
			return nil, apperrors.NewValidationError("invalid model", err)
		}
		if seen[m.Name] {
			return nil, apperrors.NewValidationError(fmt.Sprintf("duplicate model %q", m.Name), nil)
		}
		seen[m.Name] = true
	}
	for _, in := range req.Interactions {
		if err := validation.Struct(in); err != nil {
			return nil, apperrors.NewValidationError("invalid interaction", err)
		}
	}

	y, err := req.Frame.Column(req.Target)
	if err != nil {
		return nil, apperrors.NewDataError("target variable", err).WithContext("target", req.Target)
	}
	for _, v := range y {
		if !numeric.IsDefined(v) {
			return nil, apperrors.NewDataError("target variable", transform.ErrNonFinite).WithContext("target", req.Target)
		}
	}

	train, test := Split(req.Frame.Len(), t.opts.TestFraction, t.opts.Seed)
	s := &shared{
		req:       req,
		models:    models,
		variables: sweep.Variables(req.Variables),
		y:         y,
		train:     train,
		test:      test,
	}
	if req.Cache != nil {
		s.inputKey = inputFingerprint(req.Frame, s.variables)
	}
	return s, nil
}

// trainCombination transforms the frame once and fits every model on it.
func (t *Trainer) trainCombination(ctx context.Context, s *shared, comb sweep.ParameterCombination) unit {
	var u unit

	design, err := t.design(ctx, s, comb)
	if err == nil {
		err = addInteractions(design, s.req.Interactions)
	}
	if err != nil {
		err = apperrors.NewDataError("transform combination", err).WithContext("combination", comb.Index())
		t.logger.WarnContext(ctx, "combination failed",
			"combination", comb.Index(),
			"error", err,
		)
		for _, m := range s.models {
			t.tel.recordUnit(ctx, m.Name, 0, 0, 0, err)
			u.failures = append(u.failures, Failure{Combination: comb.Index(), Model: m.Name, Error: err.Error()})
		}
		return u
	}

	for _, m := range s.models {
		rec, err := t.trainUnit(ctx, s, comb, design, m)
		if err != nil {
			u.failures = append(u.failures, Failure{Combination: comb.Index(), Model: m.Name, Error: err.Error()})
			continue
		}
		u.records = append(u.records, *rec)
	}
	return u
}

// design returns the transformed design of a combination, from the cache when
// one is configured.
func (t *Trainer) design(ctx context.Context, s *shared, comb sweep.ParameterCombination) (*transform.Design, error) {
	cache := s.req.Cache
	key := s.req.Scope + "/" + s.inputKey + "/" + comb.Key()
	if cache != nil {
		if d, ok := cache.Get(key); ok {
			return clone(d), nil
		}
	}

	d, err := t.engine.Apply(ctx, s.req.Frame, s.variables, comb.Map())
	if err != nil {
		return nil, err
	}
	if cache != nil {
		cache.Put(key, clone(d))
	}
	return d, nil
}

// clone copies the slice headers of a design so interaction columns appended
// by one unit never reach the cached value. Column data is shared read-only.
func clone(d *transform.Design) *transform.Design {
	c := *d
	c.Features = append([]string(nil), d.Features...)
	c.Variables = append([]string(nil), d.Variables...)
	c.Columns = append([][]float64(nil), d.Columns...)
	return &c
}

// addInteractions appends the product column of every interaction.
func addInteractions(d *transform.Design, interactions []Interaction) error {
	base := len(d.Features)
	for _, in := range interactions {
		a := estimator.ResolveIndex(d.Features[:base], in.A)
		b := estimator.ResolveIndex(d.Features[:base], in.B)
		if a < 0 || b < 0 {
			return fmt.Errorf("interaction %s: %w", in.Name(), frame.ErrMissingColumn)
		}
		col := make([]float64, d.Rows())
		for r := range col {
			col[r] = d.Columns[a][r] * d.Columns[b][r]
		}
		d.Features = append(d.Features, in.Name())
		d.Variables = append(d.Variables, in.Name())
		d.Columns = append(d.Columns, col)
	}
	return nil
}

// trainUnit fits one model on the design and derives every metric.
func (t *Trainer) trainUnit(ctx context.Context, s *shared, comb sweep.ParameterCombination, d *transform.Design, spec ModelSpec) (rec *Record, err error) {
	start := time.Now()
	ctx, span := t.tel.tracer.Start(ctx, "training.Unit",
		trace.WithAttributes(
			attribute.Int("combination", comb.Index()),
			attribute.String("model", spec.Name),
		))
	defer func() {
		iterations, violations := 0, 0
		if rec != nil {
			iterations, violations = rec.Iterations, len(rec.Violations)
		}
		t.tel.recordUnit(ctx, spec.Name, time.Since(start), iterations, violations, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			t.logger.WarnContext(ctx, "unit failed",
				"combination", comb.Index(),
				"model", spec.Name,
				"error", err,
			)
		}
		span.End()
	}()

	cm := estimator.Build(d.Features, spec.Constraints.Specs(), spec.Topology)
	if len(cm.Unresolved) > 0 {
		t.logger.WarnContext(ctx, "constraint names not found in design",
			"combination", comb.Index(),
			"model", spec.Name,
			"names", cm.Unresolved,
		)
	}

	opts := t.opts.Estimator
	if spec.Method != "" {
		opts.Method = spec.Method
	}

	trainX := pickColumns(d.Columns, s.train)
	trainY := pick(s.y, s.train)

	alpha, err := t.alpha(spec, trainX, trainY, d.Features, cm, opts)
	if err != nil {
		return nil, apperrors.NewNumericalError("select ridge penalty", err).WithContext("model", spec.Name)
	}
	opts.Alpha = alpha

	fit, err := estimator.New(opts, t.logger).Fit(trainX, trainY, d.Features, cm)
	if err != nil {
		return nil, apperrors.NewDataError("fit model", err).
			WithContext("model", spec.Name).
			WithContext("combination", comb.Index())
	}

	predTrain, err := fit.Predict(trainX)
	if err != nil {
		return nil, apperrors.NewDataError("predict training rows", err)
	}
	testY := pick(s.y, s.test)
	predTest, err := fit.Predict(pickColumns(d.Columns, s.test))
	if err != nil {
		return nil, apperrors.NewDataError("predict test rows", err)
	}

	aic, bic := InformationCriteria(RSS(trainY, predTrain), len(trainY), len(fit.Coefficients)+1)

	means := make([]float64, len(d.Columns))
	for i, col := range d.Columns {
		means[i] = stat.Mean(col, nil)
	}
	targetMean := stat.Mean(s.y, nil)

	res := t.calc.Compute(ctx, metrics.Input{
		Features:      d.Features,
		Variables:     d.Variables,
		Coefficients:  fit.Coefficients,
		Intercept:     fit.Intercept,
		Metadata:      d.Metadata,
		FeatureMeans:  means,
		TargetMean:    targetMean,
		PriceVariable: s.req.PriceVariable,
		Transforms:    s.req.Transforms,
		Frame:         s.req.Frame,
		Rates:         s.req.Rates,
		Scope:         s.req.Scope,
		ROIWindow:     t.opts.ROIWindow,
	})

	rec = &Record{
		RunID:       s.req.RunID,
		Scope:       s.req.Scope,
		ModelName:   spec.Name,
		ModelKind:   spec.Kind,
		Alpha:       numeric.Float(alpha),
		MAPETrain:   numeric.Float(MAPE(trainY, predTrain)),
		MAPETest:    numeric.Float(MAPE(testY, predTest)),
		R2Train:     numeric.Float(RSquared(trainY, predTrain)),
		R2Test:      numeric.Float(RSquared(testY, predTest)),
		AIC:         numeric.Float(aic),
		BIC:         numeric.Float(bic),
		NParameters: len(fit.Coefficients) + 1,

		Coefficients:  numeric.Map(res.Coefficients),
		Intercept:     numeric.Float(res.Intercept),
		Elasticities:  numeric.Map(res.Elasticities),
		Contributions: numeric.Map(res.Contributions),

		PriceElasticity: numeric.Float(res.PriceElasticity),
		CSF:             numeric.Float(res.CSF),
		MCV:             numeric.Float(res.MCV),

		ParameterCombination:   comb,
		TransformationMetadata: d.Metadata,

		Features:                d.Features,
		FeatureVariables:        d.Variables,
		TransformedCoefficients: fit.Coefficients,
		TransformedIntercept:    fit.Intercept,
		FeatureMeans:            means,
		TargetMean:              targetMean,
		Iterations:              fit.Iterations,
		Converged:               fit.Converged,
		Violations:              fit.Violations,
	}
	if len(res.ROI) > 0 {
		rec.ROIResults = make(map[string]ROIRecord, len(res.ROI))
		for name, r := range res.ROI {
			rec.ROIResults[name] = newROIRecord(r)
		}
	}

	span.SetAttributes(
		attribute.Int("fit.iterations", fit.Iterations),
		attribute.Bool("fit.converged", fit.Converged),
		attribute.Int("fit.violations", len(fit.Violations)),
	)
	t.logger.DebugContext(ctx, "unit trained",
		"combination", comb.Index(),
		"model", spec.Name,
		"alpha", alpha,
		"iterations", fit.Iterations,
		"converged", fit.Converged,
		"violations", len(fit.Violations),
		"mape_test", rec.MAPETest.Value(),
	)
	return rec, nil
}

// alpha resolves the penalty of a model spec, cross-validating on the
// training rows when it is "auto".
func (t *Trainer) alpha(spec ModelSpec, x [][]float64, y []float64, features []string, cm estimator.ConstraintMap, opts estimator.Options) (float64, error) {
	if spec.Kind != KindRidge {
		return 0, nil
	}
	if !spec.Alpha.Auto {
		return spec.Alpha.Value, nil
	}
	return SelectAlpha(x, y, features, cm, opts, t.opts.CVFolds, t.opts.AlphaGrid)
}
