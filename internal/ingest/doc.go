// Package ingest supplies measurement values to the monitor loop. The
// bundled Sampler reads one metric family from a Prometheus
// text-exposition endpoint (summing labeled children) with optional
// API-key, bearer, or basic authentication.
//
// The chart engines themselves never see this package — they take plain
// ordered sequences — so any other source can stand in by implementing
// Sampler.
package ingest
