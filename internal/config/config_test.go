package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mmmcli/internal/estimator"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults without file or env",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 0.2, cfg.Training.TestFraction)
				assert.Equal(t, int64(42), cfg.Training.Seed)
				assert.Equal(t, 4, cfg.Training.MaxConcurrency)
				assert.Equal(t, 12, cfg.Training.ROIWindow)
				assert.Equal(t, 5, cfg.Training.CVFolds)

				assert.Equal(t, "gd", cfg.Estimator.Method)
				assert.Equal(t, 10000, cfg.Estimator.MaxIterations)
				assert.Equal(t, 1e-6, cfg.Estimator.Tolerance)
				assert.Equal(t, 100, cfg.Estimator.CheckEvery)
				assert.Equal(t, 1e-10, cfg.Estimator.ViolationTolerance)

				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "console", cfg.Logging.Output)
				assert.Equal(t, AppName, cfg.Telemetry.ServiceName)
			},
		},
		{
			name: "file overrides defaults",
			file: "training:\n  test_fraction: 0.25\n  seed: 7\nestimator:\n  method: adam\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 0.25, cfg.Training.TestFraction)
				assert.Equal(t, int64(7), cfg.Training.Seed)
				assert.Equal(t, 4, cfg.Training.MaxConcurrency)
				assert.Equal(t, "adam", cfg.Estimator.Method)
			},
		},
		{
			name: "env overrides file",
			file: "training:\n  seed: 7\n  max_concurrency: 2\n",
			env: map[string]string{
				"MMM_TRAINING_SEED":          "99",
				"MMM_LOGGING_LEVEL":          "debug",
				"MMM_TRAINING_ALPHA_GRID":    "0.1,1,10",
				"MMM_TELEMETRY_METRICS_ADDR": ":9464",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, int64(99), cfg.Training.Seed)
				assert.Equal(t, 2, cfg.Training.MaxConcurrency)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, []float64{0.1, 1, 10}, cfg.Training.AlphaGrid)
				assert.Equal(t, ":9464", cfg.Telemetry.MetricsAddr)
			},
		},
		{
			name:    "unknown file key",
			file:    "training:\n  test_fractoin: 0.3\n",
			wantErr: true,
		},
		{
			name:    "invalid test fraction",
			file:    "training:\n  test_fraction: 1.5\n",
			wantErr: true,
		},
		{
			name:    "invalid method from env",
			env:     map[string]string{"MMM_ESTIMATOR_METHOD": "newton"},
			wantErr: true,
		},
		{
			name:    "malformed env value",
			env:     map[string]string{"MMM_TRAINING_SEED": "forty-two"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeConfig(t, tt.file)
			}
			cfg, err := Load(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "default", mutate: func(*Config) {}},
		{name: "file output without path", mutate: func(c *Config) { c.Logging.Output = "file"; c.Logging.FilePath = "" }, wantErr: true},
		{name: "bad level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: true},
		{name: "zero concurrency", mutate: func(c *Config) { c.Training.MaxConcurrency = 0 }, wantErr: true},
		{name: "one fold", mutate: func(c *Config) { c.Training.CVFolds = 1 }, wantErr: true},
		{name: "negative alpha", mutate: func(c *Config) { c.Training.AlphaGrid = []float64{1, -1} }, wantErr: true},
		{name: "missing runs dir", mutate: func(c *Config) { c.Paths.RunsDir = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTrainingOptions(t *testing.T) {
	cfg := Default()
	cfg.Training.Seed = 3
	cfg.Training.AlphaGrid = []float64{0.5, 5}
	cfg.Estimator.Method = "adam"
	cfg.Estimator.LearningRate = 0.05

	opts := cfg.TrainingOptions()
	assert.Equal(t, int64(3), opts.Seed)
	assert.Equal(t, 0.2, opts.TestFraction)
	assert.Equal(t, []float64{0.5, 5}, opts.AlphaGrid)
	assert.Equal(t, estimator.MethodAdam, opts.Estimator.Method)
	assert.Equal(t, 0.05, opts.Estimator.LearningRate)
	assert.Equal(t, 0.9, opts.Estimator.Beta1)

	assert.Len(t, Default().TrainingOptions().AlphaGrid, 7)
}

func TestResolvePaths(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.Paths.BaseDir = base
	cfg.Paths.LogsDir = filepath.Join(base, "elsewhere", "logs")

	paths, err := cfg.ResolvePaths()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, "data"), paths.DataDir)
	assert.Equal(t, filepath.Join(base, "data", "runs"), paths.RunsDir)
	assert.Equal(t, filepath.Join(base, "elsewhere", "logs"), paths.LogsDir)
	assert.Equal(t, filepath.Join(base, "data", "runs", "r1", RecordsFileName), paths.GetRecordsPath("r1"))
	assert.Equal(t, filepath.Join(base, "data", "runs", "r1", RunFileName), paths.GetRunFilePath("r1"))
	assert.Equal(t, filepath.Join(base, "data", "runs", "r1", JobFileName), paths.GetJobPath("r1"))
	assert.Equal(t, filepath.Join(base, "data", "transforms", TransformFileName), paths.GetTransformPath(""))
	assert.Equal(t, filepath.Join(base, "data", "transforms", "north_region.yaml"), paths.GetTransformPath("north/region"))
	assert.Equal(t, filepath.Join(base, "data", "sales.csv"), paths.GetDataPath("sales.csv"))
	assert.Equal(t, "/abs/sales.csv", paths.GetDataPath("/abs/sales.csv"))
	assert.Equal(t, filepath.Join(base, "elsewhere", "logs", DefaultLogFile), paths.GetLogPath(DefaultLogFile))
	assert.Equal(t, "/var/log/t.log", paths.GetLogPath("/var/log/t.log"))

	require.NoError(t, paths.EnsureDirectories())
	for _, dir := range []string{paths.DataDir, paths.RunsDir, paths.TransformsDir, paths.LogsDir} {
		assert.DirExists(t, dir)
	}
}

func TestSafeName(t *testing.T) {
	tests := map[string]string{
		"run-1":        "run-1",
		"../etc":       "__etc",
		"north/region": "north_region",
		"":             "_",
		" a b ":        "a_b",
	}
	for in, want := range tests {
		assert.Equal(t, want, SafeName(in), in)
	}
}
