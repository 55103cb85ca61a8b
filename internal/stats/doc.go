// Package stats provides the descriptive statistics every chart engine
// builds on: mean, Bessel-corrected sample variance, index-selected
// quartiles on a sorted copy, and the derived min/max/range/IQR.
//
// Describe is a pure O(n log n) batch function (the sort dominates).
// The single-observation convention — variance reported as 0 — is
// documented on Summary.
package stats
