// Package training orchestrates a marketing-mix sweep.
//
// For every parameter combination the trainer transforms the full frame, fits
// each requested model on a seeded train/test split, scores it (MAPE, R², AIC,
// BIC) and hands the coefficients to the metrics calculator. Each
// (combination × model) unit produces one Record carrying the combination
// verbatim, or one Failure; a failing unit never aborts the run.
//
// Units run on a bounded errgroup. Each unit writes only its own slot and the
// slots are merged in combination order once every unit has finished, so the
// output does not depend on the concurrency level.
//
// Basic usage:
//
//	t := training.New(training.DefaultOptions(), logger)
//	run, err := t.Run(ctx, training.Request{
//		Frame:     f,
//		Target:    "volume",
//		Variables: configs,
//		Models:    training.DefaultModels(),
//	})
package training
