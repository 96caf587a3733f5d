// Package robust provides small NaN-aware summary statistics used across the
// rotation pipeline.
//
// Medians follow the common numerical convention: for an even number of
// values the result is the mean of the two middle values.
package robust

import (
	"math"
	"sort"
)

// Finite returns the finite values of x in their original order.
func Finite(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// Median returns the median of x. It returns NaN for an empty slice or when
// any value is NaN. x is not modified.
func Median(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	for _, v := range x {
		if math.IsNaN(v) {
			return math.NaN()
		}
	}
	s := append([]float64(nil), x...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// NanMedian returns the median of the finite values of x, or NaN if there are
// none.
func NanMedian(x []float64) float64 {
	return Median(Finite(x))
}

// Mean returns the arithmetic mean of x using Kahan summation. It returns NaN
// for an empty slice.
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	var sum, c float64
	for _, v := range x {
		y := v - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}
	return sum / float64(len(x))
}

// NanMean returns the mean of the finite values of x, or NaN if there are
// none.
func NanMean(x []float64) float64 {
	return Mean(Finite(x))
}

// ArgMax returns the index of the first maximum of x, ignoring NaN values.
// It returns -1 if x has no comparable values.
func ArgMax(x []float64) int {
	idx := -1
	best := math.Inf(-1)
	for i, v := range x {
		if math.IsNaN(v) {
			continue
		}
		if idx < 0 || v > best {
			idx = i
			best = v
		}
	}
	return idx
}

// ArgNearest returns the index of the element of x closest to target.
// Ties resolve to the lowest index. It returns -1 for an empty slice.
func ArgNearest(x []float64, target float64) int {
	idx := -1
	best := math.Inf(1)
	for i, v := range x {
		d := math.Abs(v - target)
		if d < best {
			idx = i
			best = d
		}
	}
	return idx
}
