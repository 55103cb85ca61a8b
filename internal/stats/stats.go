package stats

import (
	"errors"
	"math"
	"sort"
)

// ErrEmptyInput is returned when an operation that needs at least one
// value receives none.
var ErrEmptyInput = errors.New("stats: empty input")

// Summary holds the descriptive statistics for one value sequence.
//
// StdDev and Variance are the Bessel-corrected sample statistics
// (divide by n−1). For a single observation both are reported as 0 by
// convention — there is no spread to estimate, and downstream capability
// math treats 0 as the degenerate-variance case.
type Summary struct {
	Mean     float64
	StdDev   float64
	Variance float64
	Min      float64
	Max      float64
	Range    float64
	Count    int
	Median   float64
	Q1       float64
	Q3       float64
	IQR      float64
}

// Describe computes the full Summary for values.
//
// Quartiles are selected by index on a sorted copy (no interpolation):
// Q1 is the element at n/4, Q3 the element at 3n/4, and the median is
// the middle element, or the mean of the two middle elements for even n.
// The input slice is not modified.
func Describe(values []float64) (Summary, error) {
	n := len(values)
	if n == 0 {
		return Summary{}, ErrEmptyInput
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)

	var variance float64
	if n >= 2 {
		var ss float64
		for _, v := range values {
			d := v - mean
			ss += d * d
		}
		variance = ss / float64(n-1)
	}

	s := Summary{
		Mean:     mean,
		Variance: variance,
		StdDev:   math.Sqrt(variance),
		Min:      sorted[0],
		Max:      sorted[n-1],
		Range:    sorted[n-1] - sorted[0],
		Count:    n,
		Median:   medianSorted(sorted),
		Q1:       sorted[n/4],
		Q3:       sorted[3*n/4],
	}
	s.IQR = s.Q3 - s.Q1
	return s, nil
}

// Median returns the median of values without computing a full Summary.
func Median(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmptyInput
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return medianSorted(sorted), nil
}

// MAD returns the median absolute deviation of values around their median.
// It is the robust spread estimate behind the modified z-score.
func MAD(values []float64) (float64, error) {
	med, err := Median(values)
	if err != nil {
		return 0, err
	}
	dev := make([]float64, len(values))
	for i, v := range values {
		dev[i] = math.Abs(v - med)
	}
	sort.Float64s(dev)
	return medianSorted(dev), nil
}

func medianSorted(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
