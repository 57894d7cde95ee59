package services

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v2"

	"mmmcli/internal/config"
	apperrors "mmmcli/internal/errors"
	"mmmcli/internal/infrastructure"
	"mmmcli/internal/metrics"
	"mmmcli/internal/numeric"
	"mmmcli/internal/sweep"
	"mmmcli/internal/training"
)

// TrainingService loads job inputs, runs the trainer and persists the results.
type TrainingService struct {
	trainer    *training.Trainer
	calc       *metrics.Calculator
	paths      *config.Paths
	frames     FrameSource
	records    RecordStore
	transforms TransformStore
	cache      training.MetadataCache
	metrics    *infrastructure.CommandMetrics
	logger     *slog.Logger
}

// Option customises a TrainingService.
type Option func(*TrainingService)

// WithFrameSource replaces the filesystem frame source.
func WithFrameSource(src FrameSource) Option {
	return func(s *TrainingService) { s.frames = src }
}

// WithRecordStore replaces the JSON record store.
func WithRecordStore(store RecordStore) Option {
	return func(s *TrainingService) { s.records = store }
}

// WithTransformStore replaces the YAML transform store.
func WithTransformStore(store TransformStore) Option {
	return func(s *TrainingService) { s.transforms = store }
}

// WithMetadataCache sets the design cache shared by the service's runs.
func WithMetadataCache(cache training.MetadataCache) Option {
	return func(s *TrainingService) { s.cache = cache }
}

// WithCommandMetrics records persisted records on the given instruments.
func WithCommandMetrics(m *infrastructure.CommandMetrics) Option {
	return func(s *TrainingService) { s.metrics = m }
}

// NewTrainingService creates a training service. Collaborators default to
// the filesystem implementations rooted at paths and an in-memory cache.
func NewTrainingService(trainer *training.Trainer, paths *config.Paths, logger *slog.Logger, opts ...Option) *TrainingService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = infrastructure.WithComponent(logger, "training_service")

	s := &TrainingService{
		trainer: trainer,
		calc:    metrics.NewCalculator(logger),
		paths:   paths,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.frames == nil {
		s.frames = NewFileFrameSource(paths, logger)
	}
	if s.records == nil {
		s.records = NewJSONRecordStore(paths, logger)
	}
	if s.transforms == nil {
		s.transforms = NewYAMLTransformStore(paths, logger)
	}
	if s.cache == nil {
		s.cache = NewMemoryMetadataCache()
	}
	return s
}

// Train runs a job end to end: load the frame, merge the job's column
// transforms into the scope's saved set, train, and persist the run together
// with the job that produced it.
func (s *TrainingService) Train(ctx context.Context, job *Job) (*training.Run, error) {
	if err := job.Validate(); err != nil {
		return nil, apperrors.NewValidationError("job", err)
	}

	f, err := s.frames.Load(ctx, job.Ref())
	if err != nil {
		return nil, err
	}

	transforms, err := s.mergeTransforms(ctx, job)
	if err != nil {
		return nil, err
	}

	rates, err := job.Rates.Table()
	if err != nil {
		return nil, apperrors.NewValidationError("rates", err)
	}

	runID := job.RunID
	if runID == "" {
		runID = uuid.New().String()
	}
	ctx = infrastructure.WithRunID(ctx, runID)

	run, err := s.trainer.Run(ctx, training.Request{
		RunID:         runID,
		Scope:         job.Scope,
		Frame:         f,
		Target:        job.Target,
		Variables:     job.Variables,
		Interactions:  job.Interactions,
		Models:        job.ModelsOrDefault(),
		PriceVariable: job.PriceVariable,
		Rates:         rates,
		Transforms:    transforms,
		Cache:         s.cache,
	})
	if err != nil {
		return nil, err
	}

	if err := s.records.SaveRun(ctx, run); err != nil {
		return nil, err
	}
	if err := s.saveJob(run.ID, job); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordsWritten.Add(ctx, int64(len(run.Records)))
	}
	infrastructure.AddSpanEvent(ctx, "run.stored", map[string]interface{}{
		"run_id":   run.ID,
		"records":  len(run.Records),
		"failures": len(run.Failures),
	})

	s.logger.InfoContext(ctx, "Training run stored",
		slog.String("run_id", run.ID),
		slog.Int("records", run.Summary.Records),
		slog.Int("failures", run.Summary.Failures),
		slog.Int("violations", run.Summary.Violations),
		slog.Duration("duration", run.FinishedAt.Sub(run.StartedAt)))
	return run, nil
}

// mergeTransforms overlays the job's definitions on the scope's saved ones and
// saves the result when the job added any.
func (s *TrainingService) mergeTransforms(ctx context.Context, job *Job) (metrics.ColumnTransforms, error) {
	saved, err := s.transforms.Load(ctx, job.Scope)
	if err != nil {
		return nil, err
	}
	if len(job.Transforms) == 0 {
		return saved, nil
	}

	own, err := metrics.NewColumnTransforms(job.Transforms)
	if err != nil {
		return nil, apperrors.NewValidationError("transforms", err)
	}
	merged := make(metrics.ColumnTransforms, len(saved)+len(own))
	maps.Copy(merged, saved)
	maps.Copy(merged, own)

	defs := make([]metrics.ColumnTransform, 0, len(merged))
	for _, name := range slices.Sorted(maps.Keys(merged)) {
		defs = append(defs, merged[name])
	}
	if err := s.transforms.Save(ctx, job.Scope, defs); err != nil {
		return nil, err
	}
	return merged, nil
}

func (s *TrainingService) saveJob(runID string, job *Job) error {
	stored := *job
	stored.RunID = runID
	data, err := yaml.Marshal(&stored)
	if err != nil {
		return apperrors.NewStorageError("encode job", err)
	}
	if err := os.MkdirAll(s.paths.GetRunDir(runID), 0755); err != nil {
		return apperrors.NewStorageError("create run directory", err)
	}
	if err := os.WriteFile(s.paths.GetJobPath(runID), data, 0644); err != nil {
		return apperrors.NewStorageError("write job", err)
	}
	return nil
}

// Combinations returns the sweep a job would train. The frame is read only
// when the job names a date column, to detect the data frequency.
func (s *TrainingService) Combinations(ctx context.Context, job *Job) (*sweep.Sweep, error) {
	if err := job.Validate(); err != nil {
		return nil, apperrors.NewValidationError("job", err)
	}

	var dates []time.Time
	if job.DateColumn != "" {
		f, err := s.frames.Load(ctx, job.Ref())
		if err != nil {
			return nil, err
		}
		dates = f.Dates()
	}

	sw, err := sweep.Generate(job.Variables, dates)
	if err != nil {
		return nil, apperrors.NewValidationError("generate parameter sweep", err)
	}
	return sw, nil
}

// ElasticityResult is the recomputed view of one stored record.
type ElasticityResult struct {
	Combination     int                      `json:"combination"`
	Key             string                   `json:"key"`
	Model           string                   `json:"model"`
	Elasticities    map[string]numeric.Float `json:"elasticities"`
	Contributions   map[string]numeric.Float `json:"contributions"`
	PriceElasticity numeric.Float            `json:"price_elasticity"`
	CSF             numeric.Float            `json:"csf"`
	MCV             numeric.Float            `json:"mcv"`
}

// RecomputeElasticities derives elasticities and contribution shares of a
// stored run again without refitting, using the given column transforms (the
// scope's saved ones when nil). Shares use the signed denominator.
func (s *TrainingService) RecomputeElasticities(ctx context.Context, runID string, transforms metrics.ColumnTransforms) ([]ElasticityResult, error) {
	run, err := s.records.LoadRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if len(run.Records) == 0 {
		return nil, apperrors.NewDataError(fmt.Sprintf("run %s", runID), ErrNoRecords)
	}

	job, err := LoadJob(s.paths.GetJobPath(runID))
	if err != nil {
		return nil, apperrors.NewDataError("load job of run "+runID, err)
	}
	if transforms == nil {
		if transforms, err = s.transforms.Load(ctx, job.Scope); err != nil {
			return nil, err
		}
	}

	f, err := s.frames.Load(ctx, job.Ref())
	if err != nil {
		return nil, err
	}

	results := make([]ElasticityResult, 0, len(run.Records))
	for _, rec := range run.Records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := s.calc.Compute(ctx, metrics.Input{
			Features:      rec.Features,
			Variables:     rec.FeatureVariables,
			Coefficients:  rec.TransformedCoefficients,
			Intercept:     rec.TransformedIntercept,
			Metadata:      rec.TransformationMetadata,
			FeatureMeans:  rec.FeatureMeans,
			TargetMean:    rec.TargetMean,
			PriceVariable: job.PriceVariable,
			Transforms:    transforms,
			Frame:         f,
			Scope:         run.Scope,
			ShareMode:     metrics.Simple,
		})
		results = append(results, ElasticityResult{
			Combination:     rec.ParameterCombination.Index(),
			Key:             rec.ParameterCombination.Key(),
			Model:           rec.ModelName,
			Elasticities:    numeric.Map(res.Elasticities),
			Contributions:   numeric.Map(res.Contributions),
			PriceElasticity: numeric.Float(res.PriceElasticity),
			CSF:             numeric.Float(res.CSF),
			MCV:             numeric.Float(res.MCV),
		})
	}

	s.logger.InfoContext(ctx, "Recomputed elasticities",
		slog.String("run_id", runID),
		slog.Int("records", len(results)),
		slog.Int("transforms", len(transforms)))
	return results, nil
}

// LoadRun returns a stored run.
func (s *TrainingService) LoadRun(ctx context.Context, runID string) (*training.Run, error) {
	return s.records.LoadRun(ctx, runID)
}

// ListRuns returns the IDs of the stored runs.
func (s *TrainingService) ListRuns(ctx context.Context) ([]string, error) {
	return s.records.ListRuns(ctx)
}
