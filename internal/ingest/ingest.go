package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/syczk301/EWMA-Cusum-pro/internal/config"
)

const defaultSampleTimeout = 10 * time.Second

// Sampler produces one measurement value per call. The monitor loop
// records a gap (NaN) when a call fails, so transient source outages
// become interior gaps the preprocessing step can heal.
type Sampler interface {
	Sample(ctx context.Context) (float64, error)
}

// New returns a Sampler for the given source configuration.
// It builds the HTTP client once and reuses it across sample calls.
func New(src config.Source) (Sampler, error) {
	client, err := buildHTTPClient(src)
	if err != nil {
		return nil, fmt.Errorf("ingest %q: build http client: %w", src.Metric, err)
	}
	return &promSampler{src: src, client: client}, nil
}

// promSampler reads one metric family from a Prometheus text-exposition
// endpoint.
type promSampler struct {
	src    config.Source
	client *http.Client
}

// Sample fetches the endpoint and returns the configured family's value.
// Labeled children are summed, so a family split across label sets
// still yields one measurement.
func (s *promSampler) Sample(ctx context.Context) (float64, error) {
	mfs, err := fetchMetrics(ctx, s.client, s.src.Endpoint)
	if err != nil {
		return 0, fmt.Errorf("ingest: fetch %q: %w", s.src.Endpoint, err)
	}
	mf, ok := mfs[s.src.Metric]
	if !ok {
		return 0, fmt.Errorf("ingest: metric %q not present at %q", s.src.Metric, s.src.Endpoint)
	}
	return sumFamily(mf), nil
}

// authRoundTripper injects authentication headers into every outgoing request.
type authRoundTripper struct {
	base http.RoundTripper
	auth config.AuthConfig
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	switch t.auth.Mode {
	case "apikey":
		req = req.Clone(req.Context())
		req.Header.Set(t.auth.Header, t.auth.Key())
	case "bearer":
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+t.auth.Token())
	case "basic":
		req = req.Clone(req.Context())
		req.SetBasicAuth(t.auth.Username, t.auth.Password())
	}
	return t.base.RoundTrip(req)
}

// buildHTTPClient constructs an http.Client for the source's auth settings.
func buildHTTPClient(src config.Source) (*http.Client, error) {
	transport := &authRoundTripper{
		base: http.DefaultTransport,
		auth: src.Auth,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   defaultSampleTimeout,
	}, nil
}

// fetchMetrics performs an HTTP GET to url and returns parsed metric families.
func fetchMetrics(ctx context.Context, client *http.Client, url string) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return parseMetrics(resp.Body)
}

// parseMetrics decodes a Prometheus text exposition from r into metric families.
// A partial result with a non-fatal parse warning is still returned successfully.
func parseMetrics(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("parse prometheus text: %w", err)
	}
	// Non-empty result with a non-nil err means partial parse (trailing lines,
	// format warnings). Treat as success.
	return mfs, nil
}

// sumFamily adds up all counter, gauge, or untyped values in a MetricFamily.
// Returns 0 if mf is nil (metric not present in the exposition).
func sumFamily(mf *dto.MetricFamily) float64 {
	if mf == nil {
		return 0
	}
	var total float64
	for _, m := range mf.GetMetric() {
		switch {
		case m.Counter != nil:
			total += m.Counter.GetValue()
		case m.Gauge != nil:
			total += m.Gauge.GetValue()
		case m.Untyped != nil:
			total += m.Untyped.GetValue()
		}
	}
	return total
}
