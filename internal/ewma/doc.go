// Package ewma implements the exponentially weighted moving average
// control chart: the smoothing recursion z_i = λ·v_i + (1−λ)·z_{i−1}
// seeded at the target, exact time-varying (or asymptotic fixed) control
// limits, Western Electric style run rules over bounded trailing
// windows, and a trailing-slope trend classification.
//
// Compute is a pure batch function: one ordered sequence in, one fully
// annotated sequence out. The recursion state is an explicit accumulator
// owned by the pass, so repeated calls with identical input are
// bit-identical.
package ewma
