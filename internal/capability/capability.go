package capability

import (
	"errors"
	"fmt"
	"math"

	"github.com/syczk301/EWMA-Cusum-pro/internal/stats"
)

var (
	// ErrEmptyInput is returned when there are no values to assess.
	ErrEmptyInput = errors.New("capability: empty input")

	// ErrInvalidSpec is returned when the specification limits are not a
	// valid interval (USL must exceed LSL).
	ErrInvalidSpec = errors.New("capability: invalid spec limits")
)

// UnboundedIndex is the sentinel reported for Cp/Cpk/Pp/Ppk when the
// process has zero variance. The indices are mathematically infinite
// there, but a zero-variance process is a valid degenerate input — the
// capped sentinel keeps the result a plain number for display and
// comparison, and Unbounded marks the substitution.
const UnboundedIndex = 1e9

// longTermFactor inflates the short-term sigma into the "long-term"
// sigma behind Pp/Ppk. A fixed heuristic multiplier — not a subgroup
// variance decomposition — documented as an approximation.
const longTermFactor = 1.5

// Capability holds the process capability and performance indices for
// one sequence against its specification limits.
type Capability struct {
	Cp  float64
	Cpk float64

	// Cpm is the Taguchi index; 0 unless a target was supplied.
	Cpm float64

	Pp  float64
	Ppk float64

	Mean   float64
	StdDev float64

	// ProcessSpread is 6× the short-term sigma; SpecSpread is USL−LSL.
	ProcessSpread float64
	SpecSpread    float64

	// Unbounded is true when zero variance forced the UnboundedIndex
	// sentinel into the sigma-based indices.
	Unbounded bool
}

// Compute derives the capability indices for values against [lsl, usl].
// target is optional; when non-nil it additionally yields Cpm.
//
//	Cp  = (USL−LSL) / 6σ
//	Cpk = min((USL−mean)/3σ, (mean−LSL)/3σ)
//	Cpm = (USL−LSL) / (6·sqrt(σ² + (mean−target)²))
//
// Pp and Ppk use the same formulas with the long-term sigma (1.5× the
// short-term sample sigma).
func Compute(values []float64, lsl, usl float64, target *float64) (Capability, error) {
	if usl <= lsl {
		return Capability{}, fmt.Errorf("%w: usl %v must exceed lsl %v", ErrInvalidSpec, usl, lsl)
	}
	s, err := stats.Describe(values)
	if err != nil {
		return Capability{}, ErrEmptyInput
	}

	c := Capability{
		Mean:          s.Mean,
		StdDev:        s.StdDev,
		ProcessSpread: 6 * s.StdDev,
		SpecSpread:    usl - lsl,
	}

	if s.StdDev == 0 {
		c.Unbounded = true
		c.Cp, c.Cpk, c.Pp, c.Ppk = UnboundedIndex, UnboundedIndex, UnboundedIndex, UnboundedIndex
	} else {
		c.Cp = c.SpecSpread / (6 * s.StdDev)
		c.Cpk = math.Min((usl-s.Mean)/(3*s.StdDev), (s.Mean-lsl)/(3*s.StdDev))

		longSigma := longTermFactor * s.StdDev
		c.Pp = c.SpecSpread / (6 * longSigma)
		c.Ppk = math.Min((usl-s.Mean)/(3*longSigma), (s.Mean-lsl)/(3*longSigma))
	}

	if target != nil {
		// Cpm stays finite at σ=0 as long as the mean is off target.
		denom := 6 * math.Sqrt(s.Variance+(s.Mean-*target)*(s.Mean-*target))
		if denom == 0 {
			c.Cpm = UnboundedIndex
			c.Unbounded = true
		} else {
			c.Cpm = c.SpecSpread / denom
		}
	}
	return c, nil
}
