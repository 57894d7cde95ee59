package training

import (
	"math"
	"math/rand"
	"slices"
)

// Split shuffles row indices with a fixed seed and cuts off the test share.
// Both index sets are returned in ascending row order. A fraction that would
// leave either side empty keeps every row for training.
func Split(n int, testFraction float64, seed int64) (train, test []int) {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	nTest := int(math.Round(float64(n) * testFraction))
	if nTest <= 0 || nTest >= n {
		return idx, nil
	}

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	test = slices.Clone(idx[:nTest])
	train = slices.Clone(idx[nTest:])
	slices.Sort(test)
	slices.Sort(train)
	return train, test
}

// pick returns the values of x at idx.
func pick(x []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = x[j]
	}
	return out
}

// pickColumns applies pick to every column.
func pickColumns(columns [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(columns))
	for j, col := range columns {
		out[j] = pick(col, idx)
	}
	return out
}
