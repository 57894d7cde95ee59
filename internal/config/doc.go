// Package config provides centralized configuration management for the
// trainer. It loads configuration from layered sources, validates it and
// resolves the directories every command works in.
//
// # Configuration Sources
//
// Configuration is assembled in the following order, later layers winning:
//
//	1. Default values
//	2. A YAML file (--config, or mmm.yaml / config.yaml / configs/config.yaml)
//	3. Environment variables
//
// # Environment Variables
//
// All environment variables follow the pattern MMM_<SECTION>_<KEY>:
//
//	MMM_TRAINING_TEST_FRACTION=0.25
//	MMM_TRAINING_MAX_CONCURRENCY=8
//	MMM_ESTIMATOR_METHOD=adam
//	MMM_LOGGING_LEVEL=debug
//	MMM_TELEMETRY_METRICS_ADDR=:9464
//
// # Path Management
//
// Relative directories are resolved against paths.base_dir (the working
// directory by default):
//
//	paths, err := cfg.ResolvePaths()
//	recordsPath := paths.GetRecordsPath(runID)
//
// # Usage
//
//	cfg, err := config.Load(configPath)
//	if err != nil {
//	    return err
//	}
//	trainer := training.New(cfg.TrainingOptions(), logger)
package config
