package preprocess

import (
	"github.com/syczk301/EWMA-Cusum-pro/internal/series"
)

// Interpolate returns a copy of values with non-finite interior gaps
// replaced by the linear weighting of the nearest finite neighbor on
// each side.
//
// A gap with a finite neighbor on only one side — which includes every
// gap touching a sequence boundary — is left unmodified. That is a
// documented limitation, not a silent repair: extrapolating past the
// edge would invent data the chart recursions then treat as real.
func Interpolate(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)

	for i, v := range values {
		if series.Finite(v) {
			continue
		}

		left := -1
		for j := i - 1; j >= 0; j-- {
			if series.Finite(values[j]) {
				left = j
				break
			}
		}
		right := -1
		for j := i + 1; j < len(values); j++ {
			if series.Finite(values[j]) {
				right = j
				break
			}
		}
		if left < 0 || right < 0 {
			continue
		}

		w := float64(i-left) / float64(right-left)
		out[i] = values[left] + (values[right]-values[left])*w
	}
	return out
}

// Smooth returns the centered moving average of values over the given
// window. At the edges the window is clamped to the sequence bounds, so
// edge windows are narrower than window — no padding values are invented.
// Even windows take the extra element on the left.
//
// window <= 1 returns values unchanged (as a copy).
func Smooth(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	if window <= 1 {
		return out
	}

	left := window / 2
	right := (window - 1) / 2

	for i := range values {
		lo := i - left
		if lo < 0 {
			lo = 0
		}
		hi := i + right
		if hi > len(values)-1 {
			hi = len(values) - 1
		}

		var sum float64
		for j := lo; j <= hi; j++ {
			sum += values[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}
