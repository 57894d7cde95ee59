package transform

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// logisticSaturation bounds the logistic exponent so the output never rounds to
// exactly 0 or 1.
const logisticSaturation = 30.0

// Adstock applies the carry-over filter y[0]=x[0], y[t]=x[t]+decay*y[t-1].
// A decay outside (0,1) is replaced by DefaultDecay; the decay actually used is
// returned together with a flag telling whether the substitution happened.
func Adstock(x []float64, decay float64) (y []float64, used float64, substituted bool) {
	used = decay
	if !(decay > 0 && decay < 1) {
		used = DefaultDecay
		substituted = true
	}

	y = make([]float64, len(x))
	for t, v := range x {
		if t == 0 {
			y[t] = v
			continue
		}
		y[t] = v + used*y[t-1]
	}
	return y, used, substituted
}

// Standardize returns z=(x-mean)/std using the population standard deviation.
// A constant series has std 0 and maps to all zeros.
func Standardize(x []float64) (z []float64, mean, std float64) {
	z = make([]float64, len(x))
	if len(x) == 0 {
		return z, 0, 0
	}
	mean, std = stat.PopMeanStdDev(x, nil)
	if std == 0 || math.IsNaN(std) {
		return z, mean, 0
	}
	for i, v := range x {
		z[i] = (v - mean) / std
	}
	return z, mean, std
}

// Logistic applies L=1/(1+exp(-growth*(z-midpoint))). A non-positive growth is
// replaced by DefaultGrowth; the growth actually used is returned with the
// substitution flag. Output always lies in the open interval (0,1).
func Logistic(z []float64, growth, midpoint float64) (l []float64, used float64, substituted bool) {
	used = growth
	if !(growth > 0) {
		used = DefaultGrowth
		substituted = true
	}

	l = make([]float64, len(z))
	for i, v := range z {
		l[i] = logistic(used * (v - midpoint))
	}
	return l, used, substituted
}

func logistic(arg float64) float64 {
	if arg > logisticSaturation {
		arg = logisticSaturation
	} else if arg < -logisticSaturation {
		arg = -logisticSaturation
	}
	return 1.0 / (1.0 + math.Exp(-arg))
}

// MinMax scales x to [0,1] using the observed minimum and maximum. A constant
// series has range 0 and maps to all zeros.
func MinMax(x []float64) (y []float64, min, max float64) {
	y = make([]float64, len(x))
	if len(x) == 0 {
		return y, 0, 0
	}
	min, max = floats.Min(x), floats.Max(x)
	span := max - min
	if span == 0 {
		return y, min, max
	}
	for i, v := range x {
		y[i] = (v - min) / span
	}
	return y, min, max
}

// Describe returns the mean, population standard deviation, minimum and maximum of x.
func Describe(x []float64) Stats {
	if len(x) == 0 {
		return Stats{}
	}
	mean, std := stat.PopMeanStdDev(x, nil)
	return Stats{
		Mean: mean,
		Std:  std,
		Min:  floats.Min(x),
		Max:  floats.Max(x),
	}
}
