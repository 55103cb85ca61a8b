package series

import (
	"math"
	"time"
)

// Measurement is one quality observation in an ordered sequence.
// Order of acquisition is load-bearing: every chart recursion consumes
// measurements strictly in sequence order.
type Measurement struct {
	// Index is the ordinal position of the measurement within its sequence.
	Index int

	// At is the acquisition time. Zero when the source has no clock
	// (manually entered data) — Index carries the ordering either way.
	At time.Time

	// Value is the measured quantity.
	Value float64

	// SampleSize is the subgroup size the value was averaged over.
	// 1 for individual observations.
	SampleSize int
}

// New returns a Measurement for value at ordinal idx taken at t.
func New(idx int, t time.Time, value float64) Measurement {
	return Measurement{Index: idx, At: t, Value: value, SampleSize: 1}
}

// Values extracts the raw value sequence from ms, preserving order.
func Values(ms []Measurement) []float64 {
	out := make([]float64, len(ms))
	for i, m := range ms {
		out[i] = m.Value
	}
	return out
}

// FromValues wraps a raw value slice into a Measurement sequence with
// ordinal indices starting at 0 and no timestamps.
func FromValues(values []float64) []Measurement {
	out := make([]Measurement, len(values))
	for i, v := range values {
		out[i] = Measurement{Index: i, Value: v, SampleSize: 1}
	}
	return out
}

// Finite reports whether v is a usable number (not NaN, not ±Inf).
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// AllFinite reports whether every value in vs is finite.
func AllFinite(vs []float64) bool {
	for _, v := range vs {
		if !Finite(v) {
			return false
		}
	}
	return true
}
