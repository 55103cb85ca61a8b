package cusum

import (
	"errors"
	"fmt"
	"math"

	"github.com/syczk301/EWMA-Cusum-pro/internal/series"
)

// ErrInvalidConfig is returned when a chart parameter is outside its
// valid domain. The wrapping error names the parameter.
var ErrInvalidConfig = errors.New("cusum: invalid config")

// Signal strength grades, by accumulator magnitude relative to the
// decision interval H.
const (
	StrengthLow    = "low"
	StrengthMedium = "medium"
	StrengthHigh   = "high"
)

// Strength grade cutoffs as fractions of H.
const (
	strengthHighFrac   = 0.8
	strengthMediumFrac = 0.5
)

// Config holds the CUSUM chart parameters.
//
// K and H are expressed in sigma units — the one convention this engine
// accepts. The engine multiplies by Sigma exactly once; callers never
// pre-scale.
type Config struct {
	// Target is the process target the deviations accumulate against.
	Target float64

	// Sigma is the process standard deviation, > 0.
	Sigma float64

	// K is the reference (allowance) value in sigma units, ≥ 0.
	// 0.5 detects a 1σ shift fastest.
	K float64

	// H is the decision interval in sigma units, > 0. 4–5 is customary.
	H float64

	// FastInitialResponse seeds the accumulators at ±H/2 instead of 0,
	// halving the distance to the decision interval for a process that
	// starts already shifted.
	FastInitialResponse bool
}

// Point is one fully annotated chart point.
type Point struct {
	series.Measurement

	// High and Low are the one-sided cumulative sums C⁺ (≥ 0) and C⁻ (≤ 0).
	High float64
	Low  float64

	// UpperLimit and LowerLimit are ±H in measurement units.
	UpperLimit float64
	LowerLimit float64

	OutOfControl bool

	// ChangePoint flags a suspected shift location: the transition into
	// out-of-control, or a single-step accumulator jump larger than H/2.
	// An approximate heuristic, not a formal change-point estimator.
	ChangePoint bool

	// Strength grades the combined accumulator magnitude: low, medium, high.
	Strength string
}

func (c Config) validate() error {
	if c.Sigma <= 0 {
		return fmt.Errorf("%w: sigma %v must be positive", ErrInvalidConfig, c.Sigma)
	}
	if c.K < 0 {
		return fmt.Errorf("%w: k %v must be non-negative", ErrInvalidConfig, c.K)
	}
	if c.H <= 0 {
		return fmt.Errorf("%w: h %v must be positive", ErrInvalidConfig, c.H)
	}
	return nil
}

// accumulator is the recursion state threaded through the fold.
type accumulator struct {
	high float64 // C⁺_{i−1}
	low  float64 // C⁻_{i−1}
	out  bool    // previous point out of control
}

// Compute runs the two-sided tabular CUSUM over measurements.
//
// With K = k·σ and H = h·σ:
//
//	C⁺_i = max(0, C⁺_{i−1} + (v_i − target) − K)
//	C⁻_i = min(0, C⁻_{i−1} + (v_i − target) + K)
//
// Both sides are evaluated every step. Measurements are assumed finite.
// An empty sequence yields an empty result and no error.
func Compute(measurements []series.Measurement, cfg Config) ([]Point, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if len(measurements) == 0 {
		return nil, nil
	}

	kAbs := cfg.K * cfg.Sigma
	hAbs := cfg.H * cfg.Sigma

	acc := accumulator{}
	if cfg.FastInitialResponse {
		acc.high = hAbs / 2
		acc.low = -hAbs / 2
	}

	points := make([]Point, 0, len(measurements))
	for _, m := range measurements {
		dev := m.Value - cfg.Target
		high := math.Max(0, acc.high+dev-kAbs)
		low := math.Min(0, acc.low+dev+kAbs)

		p := Point{
			Measurement: m,
			High:        high,
			Low:         low,
			UpperLimit:  hAbs,
			LowerLimit:  -hAbs,
		}
		p.OutOfControl = high > hAbs || low < -hAbs
		p.ChangePoint = (p.OutOfControl && !acc.out) ||
			math.Abs(high-acc.high) > hAbs/2 ||
			math.Abs(low-acc.low) > hAbs/2
		p.Strength = strength(high, low, hAbs)

		points = append(points, p)
		acc = accumulator{high: high, low: low, out: p.OutOfControl}
	}
	return points, nil
}

// strength grades the combined accumulator magnitude against H.
func strength(high, low, hAbs float64) string {
	magnitude := math.Sqrt(high*high + low*low)
	switch {
	case magnitude > strengthHighFrac*hAbs:
		return StrengthHigh
	case magnitude > strengthMediumFrac*hAbs:
		return StrengthMedium
	default:
		return StrengthLow
	}
}

// RunLength is the empirical average run length of an annotated
// sequence: the sequence is segmented at out-of-control points (each
// signal closes its segment) and the segment lengths are averaged. A
// trailing stretch with no signal counts as a segment.
//
// This is an empirical summary of the realized sequence, not the
// theoretical ARL of the chart.
func RunLength(points []Point) float64 {
	if len(points) == 0 {
		return 0
	}

	var lengths []int
	run := 0
	for _, p := range points {
		run++
		if p.OutOfControl {
			lengths = append(lengths, run)
			run = 0
		}
	}
	if run > 0 {
		lengths = append(lengths, run)
	}

	var sum int
	for _, l := range lengths {
		sum += l
	}
	return float64(sum) / float64(len(lengths))
}
