// Package metrics maps coefficients fitted on transformed features back to
// original units and derives the business metrics of a fitted model:
// elasticities, contribution shares, the price indices CSF and MCV, and ROI
// against campaign cost rates.
//
// Values with no defined result (division by zero, out-of-domain means) are
// NaN. Callers serialise them as null.
package metrics
