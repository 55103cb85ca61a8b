// Package monitor ties the chart engines together. It keeps a bounded
// sliding window of measurements per variable and, on every new
// observation, reruns the full pipeline: gap interpolation, optional
// smoothing, EWMA and CUSUM charting, outlier scoring, and — when spec
// limits are configured — capability analysis.
//
// State transitions (a variable going out of control or recovering) are
// logged once, on the tick where they happen.
package monitor
