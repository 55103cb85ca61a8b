package ewma

import (
	"errors"
	"fmt"
	"math"

	"github.com/syczk301/EWMA-Cusum-pro/internal/series"
)

// ErrInvalidConfig is returned when a chart parameter is outside its
// valid domain. The wrapping error names the parameter.
var ErrInvalidConfig = errors.New("ewma: invalid config")

// LimitMode selects how control limits are computed.
type LimitMode string

const (
	// LimitTimeVarying uses the exact per-sample limit, which widens from
	// the center line and converges to the asymptote. This is the default.
	LimitTimeVarying LimitMode = "time_varying"

	// LimitFixed applies the asymptotic limit uniformly from the first
	// sample.
	LimitFixed LimitMode = "fixed"
)

// Trend classifications over the trailing EWMA slope.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// trendBand is the slope threshold for trend classification, in units
// of the process sigma.
const trendBand = 0.1

// Config holds the EWMA chart parameters.
type Config struct {
	// Lambda is the smoothing weight in (0, 1]. Small values give long
	// memory; 1 degenerates to the raw individuals chart.
	Lambda float64

	// Target is the process target μ0, used as center line and as the
	// recursion seed (z_0 = Target).
	Target float64

	// Sigma is the process standard deviation, > 0.
	Sigma float64

	// L is the control limit width in sigma units, > 0. 3 is customary.
	L float64

	// LimitMode selects time-varying (default) or fixed limits.
	LimitMode LimitMode
}

// Point is one fully annotated chart point.
type Point struct {
	series.Measurement

	EWMA       float64
	UCL        float64
	LCL        float64
	CenterLine float64

	// SigmaLevel is |EWMA−Target| expressed in process sigma units.
	SigmaLevel float64

	OutOfControl bool
	Rules        []Rule
	Trend        string
}

func (c Config) validate() error {
	if c.Lambda <= 0 || c.Lambda > 1 {
		return fmt.Errorf("%w: lambda %v outside (0, 1]", ErrInvalidConfig, c.Lambda)
	}
	if c.Sigma <= 0 {
		return fmt.Errorf("%w: sigma %v must be positive", ErrInvalidConfig, c.Sigma)
	}
	if c.L <= 0 {
		return fmt.Errorf("%w: L %v must be positive", ErrInvalidConfig, c.L)
	}
	switch c.LimitMode {
	case LimitTimeVarying, LimitFixed, "":
	default:
		return fmt.Errorf("%w: unknown limit mode %q", ErrInvalidConfig, c.LimitMode)
	}
	return nil
}

// accumulator is the recursion state threaded through the fold: the only
// mutable state of a chart pass, owned by that pass and discarded on
// return.
type accumulator struct {
	z float64 // z_{i−1}
	i int     // 1-based sample counter
}

// Compute runs the EWMA recursion over measurements and annotates every
// point with its statistic, limits, rule violations and trend.
//
// The recursion is seeded at the center line: z_0 = Target,
// z_i = λ·v_i + (1−λ)·z_{i−1}. Measurements are assumed finite —
// resolve gaps with preprocess.Interpolate first.
//
// An empty sequence yields an empty (nil) result and no error; an
// out-of-domain parameter yields ErrInvalidConfig and no output.
func Compute(measurements []series.Measurement, cfg Config) ([]Point, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if len(measurements) == 0 {
		return nil, nil
	}
	mode := cfg.LimitMode
	if mode == "" {
		mode = LimitTimeVarying
	}

	acc := accumulator{z: cfg.Target}
	points := make([]Point, 0, len(measurements))
	zs := make([]float64, 0, len(measurements))

	for _, m := range measurements {
		acc.i++
		acc.z = cfg.Lambda*m.Value + (1-cfg.Lambda)*acc.z
		zs = append(zs, acc.z)

		spread := sigmaZ(cfg, mode, acc.i)
		p := Point{
			Measurement: m,
			EWMA:        acc.z,
			CenterLine:  cfg.Target,
			UCL:         cfg.Target + cfg.L*spread,
			LCL:         cfg.Target - cfg.L*spread,
			SigmaLevel:  math.Abs(acc.z-cfg.Target) / cfg.Sigma,
		}
		p.OutOfControl = acc.z > p.UCL || acc.z < p.LCL
		p.Trend = classifyTrend(zs, cfg.Sigma)

		points = append(points, p)
		points[len(points)-1].Rules = evaluateRules(points, cfg)
	}
	return points, nil
}

// sigmaZ is the standard deviation of the EWMA statistic at 1-based
// sample i under the given limit mode.
func sigmaZ(cfg Config, mode LimitMode, i int) float64 {
	ratio := cfg.Lambda / (2 - cfg.Lambda)
	if mode == LimitFixed {
		return cfg.Sigma * math.Sqrt(ratio)
	}
	decay := 1 - math.Pow(1-cfg.Lambda, float64(2*i))
	return cfg.Sigma * math.Sqrt(ratio*decay)
}

// classifyTrend averages the slope over the trailing ≤3 EWMA values and
// compares it to ±0.1σ.
func classifyTrend(zs []float64, sigma float64) string {
	n := len(zs)
	if n < 2 {
		return TrendStable
	}
	lo := n - 3
	if lo < 0 {
		lo = 0
	}
	slope := (zs[n-1] - zs[lo]) / float64(n-1-lo)

	switch {
	case slope > trendBand*sigma:
		return TrendIncreasing
	case slope < -trendBand*sigma:
		return TrendDecreasing
	default:
		return TrendStable
	}
}
