package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"mmmcli/internal/estimator"
	"mmmcli/internal/training"
	"mmmcli/internal/validation"
)

// Config represents the complete application configuration
type Config struct {
	Training  TrainingConfig  `yaml:"training" envconfig:"TRAINING"`
	Estimator EstimatorConfig `yaml:"estimator" envconfig:"ESTIMATOR"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// TrainingConfig contains the orchestrator settings
type TrainingConfig struct {
	TestFraction   float64   `yaml:"test_fraction" envconfig:"TEST_FRACTION" validate:"gte=0,lt=1"`
	Seed           int64     `yaml:"seed" envconfig:"SEED"`
	MaxConcurrency int       `yaml:"max_concurrency" envconfig:"MAX_CONCURRENCY" validate:"gte=1,lte=256"`
	ROIWindow      int       `yaml:"roi_window" envconfig:"ROI_WINDOW" validate:"gte=1"`
	CVFolds        int       `yaml:"cv_folds" envconfig:"CV_FOLDS" validate:"gte=2"`
	AlphaGrid      []float64 `yaml:"alpha_grid" envconfig:"ALPHA_GRID" validate:"omitempty,dive,gt=0"`
}

// EstimatorConfig contains the fit settings shared by every model
type EstimatorConfig struct {
	Method             string  `yaml:"method" envconfig:"METHOD" validate:"oneof=gd adam"`
	LearningRate       float64 `yaml:"learning_rate" envconfig:"LEARNING_RATE" validate:"gte=0"`
	MaxIterations      int     `yaml:"max_iterations" envconfig:"MAX_ITERATIONS" validate:"gt=0"`
	Tolerance          float64 `yaml:"tolerance" envconfig:"TOLERANCE" validate:"gt=0"`
	CheckEvery         int     `yaml:"check_every" envconfig:"CHECK_EVERY" validate:"gt=0"`
	ViolationTolerance float64 `yaml:"violation_tolerance" envconfig:"VIOLATION_TOLERANCE" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Output      string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	// FilePath is resolved against the logs directory when relative.
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PathsConfig contains file system paths configuration. Relative paths are
// resolved against BaseDir, which defaults to the working directory.
type PathsConfig struct {
	BaseDir       string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir       string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	RunsDir       string `yaml:"runs_dir" envconfig:"RUNS_DIR" validate:"required"`
	TransformsDir string `yaml:"transforms_dir" envconfig:"TRANSFORMS_DIR" validate:"required"`
	LogsDir       string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
}

// TelemetryConfig contains tracing and metrics configuration
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	TracingEnabled bool   `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED"`
	MetricsEnabled bool   `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
	// MetricsAddr serves /metrics when set, e.g. ":9464".
	MetricsAddr string `yaml:"metrics_addr" envconfig:"METRICS_ADDR" validate:"omitempty,hostname_port"`
}

// Load builds the configuration in three layers: defaults, then the YAML file
// at path (or the first file found in the well-known locations when path is
// empty), then MMM_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg; keys absent from the file keep
// their current value.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}

// findConfigFile returns the first existing well-known config file, or "".
func findConfigFile() string {
	for _, location := range configLocations {
		if FileExists(location) {
			return location
		}
	}
	return ""
}

// Validate checks the struct rules of every section
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging.file_path is required for output %q", c.Logging.Output)
	}
	return nil
}

// TrainingOptions returns the orchestrator options described by the config.
func (c *Config) TrainingOptions() training.Options {
	opts := training.DefaultOptions()
	opts.TestFraction = c.Training.TestFraction
	opts.Seed = c.Training.Seed
	opts.MaxConcurrency = c.Training.MaxConcurrency
	opts.ROIWindow = c.Training.ROIWindow
	opts.CVFolds = c.Training.CVFolds
	if len(c.Training.AlphaGrid) > 0 {
		opts.AlphaGrid = c.Training.AlphaGrid
	}
	opts.Estimator = c.EstimatorOptions()
	return opts
}

// EstimatorOptions returns the fit options described by the config.
func (c *Config) EstimatorOptions() estimator.Options {
	opts := estimator.DefaultOptions()
	opts.Method = estimator.Method(c.Estimator.Method)
	opts.LearningRate = c.Estimator.LearningRate
	opts.MaxIterations = c.Estimator.MaxIterations
	opts.Tolerance = c.Estimator.Tolerance
	opts.CheckEvery = c.Estimator.CheckEvery
	opts.ViolationTolerance = c.Estimator.ViolationTolerance
	return opts
}

// Default returns default configuration
func Default() *Config {
	topts := training.DefaultOptions()
	eopts := estimator.DefaultOptions()
	return &Config{
		Training: TrainingConfig{
			TestFraction:   topts.TestFraction,
			Seed:           topts.Seed,
			MaxConcurrency: topts.MaxConcurrency,
			ROIWindow:      topts.ROIWindow,
			CVFolds:        topts.CVFolds,
		},
		Estimator: EstimatorConfig{
			Method:             string(eopts.Method),
			MaxIterations:      eopts.MaxIterations,
			Tolerance:          eopts.Tolerance,
			CheckEvery:         eopts.CheckEvery,
			ViolationTolerance: eopts.ViolationTolerance,
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Output:   DefaultLogOutput,
			FilePath: DefaultLogFile,
		},
		Paths: PathsConfig{
			DataDir:       DefaultDataDir,
			RunsDir:       DefaultRunsDir,
			TransformsDir: DefaultTransformsDir,
			LogsDir:       DefaultLogsDir,
		},
		Telemetry: TelemetryConfig{
			ServiceName: AppName,
		},
	}
}
