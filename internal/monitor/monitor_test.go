package monitor

import (
	"math"
	"testing"
	"time"

	"github.com/syczk301/EWMA-Cusum-pro/internal/config"
)

func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}

func testProfile() *config.Profile {
	return &config.Profile{
		Monitor: config.MonitorConfig{Interval: time.Second, Window: 200},
		Variables: []config.Variable{
			{
				ID:     "fill_weight",
				Target: 100,
				Sigma:  5,
				EWMA:   config.EWMAChart{Lambda: 0.2, L: 3},
				CUSUM:  config.CUSUMChart{K: 0.5, H: 5},
				Preprocess: config.PreprocessConfig{
					Interpolate: true,
				},
				Outlier: config.OutlierConfig{Method: "zscore", Threshold: 3},
			},
		},
	}
}

func observeAll(t *testing.T, m *Monitor, id string, values ...float64) *Report {
	t.Helper()
	var rep *Report
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, v := range values {
		var err error
		rep, err = m.Observe(id, v, at.Add(time.Duration(i)*time.Second))
		if err != nil {
			t.Fatalf("Observe(%v): %v", v, err)
		}
	}
	return rep
}

// --- Observe ---

func TestObserveUnknownVariable(t *testing.T) {
	m := New(testProfile())
	if _, err := m.Observe("nope", 1, time.Now()); err == nil {
		t.Fatal("expected error for unknown variable")
	}
}

func TestObserveBuildsFullReport(t *testing.T) {
	m := New(testProfile())
	rep := observeAll(t, m, "fill_weight", 99, 101, 100, 98, 102)

	if rep.Variable != "fill_weight" {
		t.Fatalf("Variable = %q", rep.Variable)
	}
	if rep.Stats.Count != 5 {
		t.Fatalf("Stats.Count = %d, want 5", rep.Stats.Count)
	}
	if !almostEqual(rep.Stats.Mean, 100, 1e-9) {
		t.Fatalf("Stats.Mean = %v, want 100", rep.Stats.Mean)
	}
	if len(rep.EWMA) != 5 || len(rep.CUSUM) != 5 || len(rep.Outliers) != 5 {
		t.Fatalf("chart lengths = %d/%d/%d, want 5 each",
			len(rep.EWMA), len(rep.CUSUM), len(rep.Outliers))
	}
	if rep.Capability != nil {
		t.Fatal("Capability should be nil without spec limits")
	}
	if rep.OutOfControl {
		t.Fatal("stable process flagged out of control")
	}
}

func TestWindowIsBounded(t *testing.T) {
	p := testProfile()
	p.Monitor.Window = 3
	m := New(p)

	rep := observeAll(t, m, "fill_weight", 100, 100, 100, 100, 107)
	if len(rep.EWMA) != 3 {
		t.Fatalf("window length = %d, want 3", len(rep.EWMA))
	}
	// The oldest two observations have fallen off the front.
	if got := rep.EWMA[0].Measurement.Index; got != 2 {
		t.Fatalf("first retained ordinal = %d, want 2", got)
	}
	if got := rep.EWMA[2].Measurement.Value; got != 107 {
		t.Fatalf("newest value = %v, want 107", got)
	}
}

// --- Gap handling ---

func TestInteriorGapIsHealed(t *testing.T) {
	m := New(testProfile())
	rep := observeAll(t, m, "fill_weight", 100, math.NaN(), 104)

	if len(rep.EWMA) != 3 {
		t.Fatalf("analyzed length = %d, want 3 (gap healed)", len(rep.EWMA))
	}
	if got := rep.EWMA[1].Measurement.Value; !almostEqual(got, 102, 1e-9) {
		t.Fatalf("interpolated value = %v, want 102", got)
	}
}

func TestBoundaryGapIsExcluded(t *testing.T) {
	m := New(testProfile())
	// A lone gap leaves nothing to analyze yet.
	if _, err := m.Observe("fill_weight", math.NaN(), time.Now()); err == nil {
		t.Fatal("expected error while the window holds only a gap")
	}
	rep := observeAll(t, m, "fill_weight", 101, 99)

	// A leading gap has no left neighbor and cannot be healed.
	if len(rep.EWMA) != 2 {
		t.Fatalf("analyzed length = %d, want 2", len(rep.EWMA))
	}
	if got := rep.EWMA[0].Measurement.Index; got != 1 {
		t.Fatalf("first analyzed ordinal = %d, want 1", got)
	}
}

func TestSmoothingIgnoresUnhealedGaps(t *testing.T) {
	p := testProfile()
	p.Variables[0].Preprocess.SmoothWindow = 3
	m := New(p)

	// A leading gap must not average into the real measurement after it.
	if _, err := m.Observe("fill_weight", math.NaN(), time.Now()); err == nil {
		t.Fatal("expected error while the window holds only a gap")
	}
	rep := observeAll(t, m, "fill_weight", 100)
	if len(rep.EWMA) != 1 {
		t.Fatalf("analyzed length = %d, want 1", len(rep.EWMA))
	}
	if got := rep.EWMA[0].Measurement.Value; got != 100 {
		t.Fatalf("smoothed value = %v, want 100", got)
	}
}

func TestSmoothingRunsAfterGapHealing(t *testing.T) {
	p := testProfile()
	p.Variables[0].Preprocess.SmoothWindow = 3
	m := New(p)

	rep := observeAll(t, m, "fill_weight", 100, math.NaN(), 104)
	if len(rep.EWMA) != 3 {
		t.Fatalf("analyzed length = %d, want 3", len(rep.EWMA))
	}
	// Gap heals to 102 first, then the centered window smooths.
	want := []float64{101, 102, 103}
	for i, w := range want {
		if got := rep.EWMA[i].Measurement.Value; !almostEqual(got, w, 1e-9) {
			t.Fatalf("smoothed[%d] = %v, want %v", i, got, w)
		}
	}
}

func TestAllGapsIsAnError(t *testing.T) {
	m := New(testProfile())
	if _, err := m.Observe("fill_weight", math.NaN(), time.Now()); err == nil {
		t.Fatal("expected error when the window has no finite measurements")
	}
}

// --- Capability ---

func TestCapabilityComputedWithSpecLimits(t *testing.T) {
	p := testProfile()
	target := 100.0
	p.Variables[0].SpecLimits = &config.SpecLimits{LSL: 70, USL: 130, Target: &target}
	m := New(p)

	rep := observeAll(t, m, "fill_weight", 99, 101, 100, 98, 102)
	if rep.Capability == nil {
		t.Fatal("Capability missing despite spec limits")
	}
	if rep.Capability.Cp <= 0 {
		t.Fatalf("Cp = %v, want > 0", rep.Capability.Cp)
	}
}

// --- Out-of-control state ---

func TestOutOfControlAndSnapshot(t *testing.T) {
	p := testProfile()
	p.Variables[0].EWMA.Lambda = 1 // chart tracks the raw values
	m := New(p)

	rep := observeAll(t, m, "fill_weight", 100, 100, 130)
	if !rep.OutOfControl {
		t.Fatal("130 with target 100 sigma 5 L 3 should be out of control")
	}

	snap, ok := m.Snapshot("fill_weight")
	if !ok {
		t.Fatal("Snapshot missing after Observe")
	}
	if snap != rep {
		t.Fatal("Snapshot should return the latest report")
	}
	if _, ok := m.Snapshot("nope"); ok {
		t.Fatal("Snapshot for unknown variable should report absence")
	}
}

func TestRecoveryClearsOutOfControl(t *testing.T) {
	p := testProfile()
	p.Variables[0].EWMA.Lambda = 1
	p.Variables[0].CUSUM.H = 100 // keep CUSUM quiet for this test
	m := New(p)

	rep := observeAll(t, m, "fill_weight", 130, 100)
	if rep.OutOfControl {
		t.Fatal("newest point is on target, chart should be back in control")
	}
}

// --- Hot reload ---

func TestUpdateProfileKeepsSurvivingWindows(t *testing.T) {
	m := New(testProfile())
	observeAll(t, m, "fill_weight", 100, 101, 99)

	next := testProfile()
	next.Variables[0].EWMA.Lambda = 0.4
	next.Variables = append(next.Variables, config.Variable{
		ID:     "seal_temp",
		Target: 150,
		Sigma:  2,
		EWMA:   config.EWMAChart{Lambda: 0.2, L: 3},
		CUSUM:  config.CUSUMChart{K: 0.5, H: 5},
		Outlier: config.OutlierConfig{
			Method: "zscore", Threshold: 3,
		},
	})
	m.UpdateProfile(next)

	rep := observeAll(t, m, "fill_weight", 100)
	if len(rep.EWMA) != 4 {
		t.Fatalf("window length after reload = %d, want 4 (kept)", len(rep.EWMA))
	}

	rep = observeAll(t, m, "seal_temp", 150)
	if len(rep.EWMA) != 1 {
		t.Fatalf("new variable window length = %d, want 1", len(rep.EWMA))
	}
}

func TestUpdateProfileDropsRemovedVariables(t *testing.T) {
	m := New(testProfile())
	observeAll(t, m, "fill_weight", 100)

	next := testProfile()
	next.Variables = nil
	m.UpdateProfile(next)

	if _, err := m.Observe("fill_weight", 100, time.Now()); err == nil {
		t.Fatal("removed variable should be unknown after reload")
	}
}
