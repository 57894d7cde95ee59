// Package transform implements the per-variable transformation pipeline applied
// to marketing-mix drivers before fitting.
//
// Every variable has a role that selects its pipeline:
//
//   - media:       adstock -> standardize -> logistic -> minmax
//   - standardize: standardize
//   - minmax:      minmax
//   - none:        identity
//
// Roles are strategies registered in a registry (see Register and Lookup), so a
// new role is added by registering a Transformer rather than by editing the
// existing ones.
//
// Every pipeline returns Metadata with the statistics of each step. Media
// variables additionally record the standard deviation right after adstock and
// the mean, minimum and maximum right after the logistic step, before the final
// min-max scaling. The back-transformation in package metrics needs those values
// to turn a coefficient fitted on the transformed scale into a derivative on the
// original scale.
//
// All functions are pure and deterministic: the same input and parameters give
// bit-identical output.
package transform
