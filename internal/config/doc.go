// Package config loads and validates the YAML analysis profile: the
// sampling loop settings and, per monitored variable, the chart
// parameters (target, sigma, EWMA λ/L, CUSUM k/h, spec limits) and the
// measurement source.
//
// Validation enforces the same parameter domains the chart engines do,
// so a profile that loads is a profile the engines accept. Watch
// provides fsnotify-backed hot reload that keeps the previous profile
// when a reload fails.
package config
