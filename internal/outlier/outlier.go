package outlier

import (
	"errors"
	"fmt"
	"math"

	"github.com/syczk301/EWMA-Cusum-pro/internal/stats"
)

// ErrEmptyInput is returned when there are no values to score.
var ErrEmptyInput = errors.New("outlier: empty input")

// Method selects the scoring strategy.
type Method string

const (
	// MethodIQR flags values outside the Tukey fences Q1−m·IQR / Q3+m·IQR.
	MethodIQR Method = "iqr"

	// MethodZScore flags values whose |value−mean|/stddev exceeds the threshold.
	MethodZScore Method = "zscore"

	// MethodModifiedZ flags values by the MAD-based robust z-score
	// 0.6745·(value−median)/MAD.
	MethodModifiedZ Method = "modified_z"
)

// Default thresholds per method.
const (
	DefaultIQRMultiplier = 1.5
	DefaultZThreshold    = 3.0
	DefaultModZThreshold = 3.5

	// madScale makes the MAD comparable to the standard deviation under
	// normality.
	madScale = 0.6745
)

// Result is the score for one input value. Results preserve input order
// and length.
type Result struct {
	Value     float64
	Score     float64
	Threshold float64
	IsOutlier bool
	Method    Method
}

// Detect scores every value in values with the given method.
//
// threshold <= 0 selects the method's default (1.5 for IQR, 3 for
// z-score, 3.5 for modified z). The call is deterministic and
// side-effect-free; degenerate spreads (stddev or MAD of 0) mark every
// point an inlier rather than failing.
func Detect(values []float64, method Method, threshold float64) ([]Result, error) {
	if len(values) == 0 {
		return nil, ErrEmptyInput
	}

	switch method {
	case MethodIQR:
		if threshold <= 0 {
			threshold = DefaultIQRMultiplier
		}
		return detectIQR(values, threshold)
	case MethodZScore:
		if threshold <= 0 {
			threshold = DefaultZThreshold
		}
		return detectZ(values, threshold)
	case MethodModifiedZ:
		if threshold <= 0 {
			threshold = DefaultModZThreshold
		}
		return detectModZ(values, threshold)
	default:
		return nil, fmt.Errorf("outlier: unknown method %q", method)
	}
}

// detectIQR applies Tukey fences. The score is the distance past the
// violated fence; inliers score 0.
func detectIQR(values []float64, mult float64) ([]Result, error) {
	s, err := stats.Describe(values)
	if err != nil {
		return nil, err
	}
	lower := s.Q1 - mult*s.IQR
	upper := s.Q3 + mult*s.IQR

	out := make([]Result, len(values))
	for i, v := range values {
		r := Result{Value: v, Threshold: mult, Method: MethodIQR}
		switch {
		case v < lower:
			r.IsOutlier = true
			r.Score = lower - v
		case v > upper:
			r.IsOutlier = true
			r.Score = v - upper
		}
		out[i] = r
	}
	return out, nil
}

func detectZ(values []float64, threshold float64) ([]Result, error) {
	s, err := stats.Describe(values)
	if err != nil {
		return nil, err
	}

	out := make([]Result, len(values))
	for i, v := range values {
		r := Result{Value: v, Threshold: threshold, Method: MethodZScore}
		if s.StdDev > 0 {
			r.Score = math.Abs(v-s.Mean) / s.StdDev
			r.IsOutlier = r.Score > threshold
		}
		out[i] = r
	}
	return out, nil
}

func detectModZ(values []float64, threshold float64) ([]Result, error) {
	med, err := stats.Median(values)
	if err != nil {
		return nil, err
	}
	mad, err := stats.MAD(values)
	if err != nil {
		return nil, err
	}

	out := make([]Result, len(values))
	for i, v := range values {
		r := Result{Value: v, Threshold: threshold, Method: MethodModifiedZ}
		// MAD of 0 (half the values equal the median) would divide by
		// zero — define every point as an inlier instead.
		if mad > 0 {
			r.Score = madScale * (v - med) / mad
			r.IsOutlier = math.Abs(r.Score) > threshold
		}
		out[i] = r
	}
	return out, nil
}
