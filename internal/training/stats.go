package training

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"mmmcli/internal/numeric"
)

// MAPE is the mean absolute percentage error in percent. Rows with a zero
// actual are excluded; it is undefined when no row remains.
func MAPE(actual, predicted []float64) float64 {
	var (
		sum float64
		n   int
	)
	for i, a := range actual {
		if a == 0 {
			continue
		}
		sum += math.Abs((a - predicted[i]) / a)
		n++
	}
	if n == 0 {
		return numeric.Undefined()
	}
	return 100 * sum / float64(n)
}

// RSquared is the coefficient of determination of predicted against actual.
// It is undefined for fewer than two rows or a constant actual series.
func RSquared(actual, predicted []float64) float64 {
	if len(actual) < 2 {
		return numeric.Undefined()
	}
	r2 := stat.RSquaredFrom(predicted, actual, nil)
	if !numeric.IsDefined(r2) {
		return numeric.Undefined()
	}
	return r2
}

// RSS is the residual sum of squares.
func RSS(actual, predicted []float64) float64 {
	var rss float64
	for i, a := range actual {
		d := a - predicted[i]
		rss += d * d
	}
	return rss
}

// InformationCriteria returns AIC and BIC from the Gaussian log-likelihood
//
//	logL = −n/2·(ln 2π + ln(RSS/n) + 1)
//
// with k parameters. Both are undefined when RSS is zero or n is zero.
func InformationCriteria(rss float64, n, k int) (aic, bic float64) {
	if n == 0 || !(rss > 0) || !numeric.IsDefined(rss) {
		return numeric.Undefined(), numeric.Undefined()
	}
	fn := float64(n)
	logL := -fn / 2 * (math.Log(2*math.Pi) + math.Log(rss/fn) + 1)
	aic = 2*float64(k) - 2*logL
	bic = float64(k)*math.Log(fn) - 2*logL
	return aic, bic
}
