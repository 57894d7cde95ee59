package training

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"

	"mmmcli/internal/estimator"
)

// ErrNoValidFolds is returned when no fold could be evaluated.
var ErrNoValidFolds = errors.New("no valid cross-validation folds")

// AlphaGrid returns n log-spaced penalties between 10^lo and 10^hi.
func AlphaGrid(lo, hi float64, n int) []float64 {
	if n < 2 {
		return []float64{math.Pow(10, lo)}
	}
	return floats.LogSpan(make([]float64, n), math.Pow(10, lo), math.Pow(10, hi))
}

// DefaultAlphaGrid is 10^-3 … 10^3 with one point per decade.
func DefaultAlphaGrid() []float64 {
	return AlphaGrid(-3, 3, 7)
}

// SelectAlpha picks the penalty with the lowest mean validation MSE over
// contiguous folds. Ties keep the smaller penalty.
func SelectAlpha(columns [][]float64, y []float64, features []string, cm estimator.ConstraintMap, opts estimator.Options, folds int, grid []float64) (float64, error) {
	best, bestScore := 0.0, math.Inf(1)
	for _, alpha := range grid {
		o := opts
		o.Alpha = alpha
		score, err := crossValidate(columns, y, features, cm, o, folds)
		if err != nil {
			return 0, err
		}
		if score < bestScore {
			best, bestScore = alpha, score
		}
	}
	if math.IsInf(bestScore, 1) {
		return 0, ErrNoValidFolds
	}
	return best, nil
}

// crossValidate returns the mean validation MSE over k contiguous folds; the
// last fold takes the remainder.
func crossValidate(columns [][]float64, y []float64, features []string, cm estimator.ConstraintMap, opts estimator.Options, k int) (float64, error) {
	n := len(y)
	if k < 2 {
		k = 2
	}
	foldSize := n / k
	if foldSize == 0 {
		return 0, ErrNoValidFolds
	}

	e := estimator.New(opts, nil)
	var scores []float64
	for fold := 0; fold < k; fold++ {
		testStart := fold * foldSize
		testEnd := testStart + foldSize
		if fold == k-1 {
			testEnd = n
		}

		var trainIdx, testIdx []int
		for i := 0; i < n; i++ {
			if i >= testStart && i < testEnd {
				testIdx = append(testIdx, i)
			} else {
				trainIdx = append(trainIdx, i)
			}
		}
		if len(testIdx) == 0 || len(trainIdx) == 0 {
			continue
		}

		m, err := e.Fit(pickColumns(columns, trainIdx), pick(y, trainIdx), features, cm)
		if err != nil {
			return 0, err
		}
		pred, err := m.Predict(pickColumns(columns, testIdx))
		if err != nil {
			return 0, err
		}
		mse := RSS(pick(y, testIdx), pred) / float64(len(testIdx))
		if !math.IsNaN(mse) {
			scores = append(scores, mse)
		}
	}

	if len(scores) == 0 {
		return math.Inf(1), nil
	}
	return floats.Sum(scores) / float64(len(scores)), nil
}
