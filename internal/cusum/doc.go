// Package cusum implements the two-sided tabular cumulative-sum control
// chart with optional fast initial response, a change-point heuristic,
// signal strength grading, and an empirical run-length summary.
//
// Compute is a pure batch function; the recursion state (C⁺, C⁻) is an
// explicit accumulator threaded through the pass and discarded on
// return. k and h are accepted in sigma units only — the engine scales
// by sigma exactly once.
package cusum
