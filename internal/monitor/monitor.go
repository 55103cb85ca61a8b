package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/syczk301/EWMA-Cusum-pro/internal/capability"
	"github.com/syczk301/EWMA-Cusum-pro/internal/config"
	"github.com/syczk301/EWMA-Cusum-pro/internal/cusum"
	"github.com/syczk301/EWMA-Cusum-pro/internal/ewma"
	"github.com/syczk301/EWMA-Cusum-pro/internal/ingest"
	"github.com/syczk301/EWMA-Cusum-pro/internal/outlier"
	"github.com/syczk301/EWMA-Cusum-pro/internal/preprocess"
	"github.com/syczk301/EWMA-Cusum-pro/internal/series"
	"github.com/syczk301/EWMA-Cusum-pro/internal/stats"
)

// Report is the fully annotated analysis of one variable's current
// window, rebuilt from scratch on every observation.
type Report struct {
	Variable string
	At       time.Time

	Stats    stats.Summary
	EWMA     []ewma.Point
	CUSUM    []cusum.Point
	Outliers []outlier.Result

	// Capability is nil unless the variable has spec limits configured.
	Capability *capability.Capability

	// RunLength is the empirical average run length of the CUSUM chart.
	RunLength float64

	// OutOfControl is true when the newest point violates either chart.
	OutOfControl bool
}

// Monitor maintains per-variable measurement windows and recomputes the
// full chart analysis on every new observation.
//
// All exported methods are safe for concurrent use.
type Monitor struct {
	mu       sync.Mutex
	size     int
	vars     map[string]*varState
	samplers map[string]ingest.Sampler
}

// varState holds one variable's window and transition state.
type varState struct {
	cfg       config.Variable
	window    []series.Measurement
	next      int // ordinal of the next measurement
	wasOut    bool
	lastRules map[ewma.Rule]bool
	latest    *Report
}

// New builds a Monitor for every variable in the profile.
func New(p *config.Profile) *Monitor {
	m := &Monitor{
		size: p.Monitor.Window,
		vars: make(map[string]*varState, len(p.Variables)),
	}
	for _, v := range p.Variables {
		m.vars[v.ID] = &varState{cfg: v}
	}
	return m
}

// UpdateProfile swaps in a hot-reloaded profile. Windows of variables
// that keep their ID survive the reload; removed variables are dropped
// and new ones start empty.
func (m *Monitor) UpdateProfile(p *config.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.size = p.Monitor.Window
	next := make(map[string]*varState, len(p.Variables))
	for _, v := range p.Variables {
		if st, ok := m.vars[v.ID]; ok {
			st.cfg = v
			next[v.ID] = st
			continue
		}
		next[v.ID] = &varState{cfg: v}
	}
	m.vars = next
}

// Observe appends value to the variable's window and reruns the full
// analysis. A NaN value records a gap (failed sample) that the
// preprocessing step heals once a later sample succeeds.
//
// now is passed explicitly so callers (and tests) control the clock.
func (m *Monitor) Observe(id string, value float64, now time.Time) (*Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.vars[id]
	if !ok {
		return nil, fmt.Errorf("monitor: unknown variable %q", id)
	}

	st.window = append(st.window, series.New(st.next, now, value))
	st.next++
	if len(st.window) > m.size {
		st.window = st.window[len(st.window)-m.size:]
	}

	rep, err := m.analyze(st, now)
	if err != nil {
		return nil, err
	}
	m.logTransitions(st, rep)
	st.latest = rep
	st.wasOut = rep.OutOfControl
	return rep, nil
}

// Snapshot returns the latest Report for the variable, if any.
func (m *Monitor) Snapshot(id string) (*Report, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.vars[id]
	if !ok || st.latest == nil {
		return nil, false
	}
	return st.latest, true
}

// analyze recomputes every chart over the variable's current window.
func (m *Monitor) analyze(st *varState, now time.Time) (*Report, error) {
	cfg := st.cfg

	values := series.Values(st.window)
	if cfg.Preprocess.Interpolate {
		values = preprocess.Interpolate(values)
	}

	// Boundary gaps cannot be interpolated; the engines require finite
	// input, so unhealed gaps are excluded from the analyzed sequence.
	// Exclusion happens before smoothing — a NaN must never average
	// into the finite measurements around it.
	clean := make([]series.Measurement, 0, len(st.window))
	for i, meas := range st.window {
		if !series.Finite(values[i]) {
			continue
		}
		meas.Value = values[i]
		clean = append(clean, meas)
	}
	if len(clean) == 0 {
		return nil, fmt.Errorf("monitor: variable %q has no finite measurements", cfg.ID)
	}

	cleanValues := series.Values(clean)
	if w := cfg.Preprocess.SmoothWindow; w > 1 {
		cleanValues = preprocess.Smooth(cleanValues, w)
		for i := range clean {
			clean[i].Value = cleanValues[i]
		}
	}

	summary, err := stats.Describe(cleanValues)
	if err != nil {
		return nil, fmt.Errorf("monitor: %w", err)
	}

	ewmaPoints, err := ewma.Compute(clean, ewma.Config{
		Lambda:    cfg.EWMA.Lambda,
		Target:    cfg.Target,
		Sigma:     cfg.Sigma,
		L:         cfg.EWMA.L,
		LimitMode: ewma.LimitMode(cfg.EWMA.LimitMode),
	})
	if err != nil {
		return nil, fmt.Errorf("monitor: %w", err)
	}

	cusumPoints, err := cusum.Compute(clean, cusum.Config{
		Target:              cfg.Target,
		Sigma:               cfg.Sigma,
		K:                   cfg.CUSUM.K,
		H:                   cfg.CUSUM.H,
		FastInitialResponse: cfg.CUSUM.FIR,
	})
	if err != nil {
		return nil, fmt.Errorf("monitor: %w", err)
	}

	outliers, err := outlier.Detect(cleanValues, outlier.Method(cfg.Outlier.Method), cfg.Outlier.Threshold)
	if err != nil {
		return nil, fmt.Errorf("monitor: %w", err)
	}

	rep := &Report{
		Variable:  cfg.ID,
		At:        now,
		Stats:     summary,
		EWMA:      ewmaPoints,
		CUSUM:     cusumPoints,
		Outliers:  outliers,
		RunLength: cusum.RunLength(cusumPoints),
	}

	if cfg.SpecLimits != nil {
		capRes, err := capability.Compute(cleanValues, cfg.SpecLimits.LSL, cfg.SpecLimits.USL, cfg.SpecLimits.Target)
		if err != nil {
			return nil, fmt.Errorf("monitor: %w", err)
		}
		rep.Capability = &capRes
	}

	lastE := ewmaPoints[len(ewmaPoints)-1]
	lastC := cusumPoints[len(cusumPoints)-1]
	rep.OutOfControl = lastE.OutOfControl || lastC.OutOfControl
	return rep, nil
}

// logTransitions reports chart state changes once, not on every tick.
func (m *Monitor) logTransitions(st *varState, rep *Report) {
	lastE := rep.EWMA[len(rep.EWMA)-1]
	lastC := rep.CUSUM[len(rep.CUSUM)-1]

	if rep.OutOfControl && !st.wasOut {
		slog.Warn("monitor: variable out of control",
			"variable", rep.Variable,
			"ewma", lastE.EWMA,
			"ewma_rules", lastE.Rules,
			"cusum_high", lastC.High,
			"cusum_low", lastC.Low,
		)
	}
	if !rep.OutOfControl && st.wasOut {
		slog.Info("monitor: variable back in control", "variable", rep.Variable)
	}
	if lastC.ChangePoint {
		slog.Info("monitor: suspected process shift",
			"variable", rep.Variable,
			"strength", lastC.Strength,
		)
	}

	// Report rules the moment they start firing, not on every tick they
	// keep firing.
	current := make(map[ewma.Rule]bool, len(lastE.Rules))
	for _, r := range lastE.Rules {
		current[r] = true
		if !st.lastRules[r] {
			slog.Warn("monitor: control rule violated",
				"variable", rep.Variable,
				"rule", int(r),
			)
		}
	}
	st.lastRules = current
}

// SetSamplers replaces the measurement sources used by Run. Called on
// startup and again whenever a hot-reload changes variable sources.
func (m *Monitor) SetSamplers(samplers map[string]ingest.Sampler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samplers = samplers
}

func (m *Monitor) currentSamplers() map[string]ingest.Sampler {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.samplers
}

// Run samples every variable on each tick until ctx is cancelled.
// A failed sample is recorded as a gap (NaN) rather than dropped, so
// the window keeps one slot per tick and interior gaps can be healed
// by interpolation.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			for id, s := range m.currentSamplers() {
				value, err := s.Sample(ctx)
				if err != nil {
					slog.Warn("monitor: sample failed, recording gap", "variable", id, "err", err)
					value = math.NaN()
				}
				if _, err := m.Observe(id, value, t); err != nil {
					slog.Warn("monitor: analysis skipped", "variable", id, "err", err)
				}
			}
		}
	}
}
