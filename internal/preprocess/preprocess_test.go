package preprocess

import (
	"math"
	"testing"
)

func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

var nan = math.NaN()

// --- Interpolate ---

func TestInterpolate_InteriorGap(t *testing.T) {
	got := Interpolate([]float64{1, nan, 3})
	want := []float64{1, 2, 3}
	for i := range want {
		if !almostEqual(got[i], want[i], 1e-12) {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestInterpolate_WideGapIsLinearlyWeighted(t *testing.T) {
	got := Interpolate([]float64{0, nan, nan, nan, 4})
	want := []float64{0, 1, 2, 3, 4}
	for i := range want {
		if !almostEqual(got[i], want[i], 1e-12) {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestInterpolate_BoundaryGapLeftAlone(t *testing.T) {
	got := Interpolate([]float64{nan, 1, 2})
	if !math.IsNaN(got[0]) {
		t.Errorf("leading gap was modified to %v; boundary gaps must stay", got[0])
	}
	if got[1] != 1 || got[2] != 2 {
		t.Errorf("finite values changed: %v", got)
	}

	got = Interpolate([]float64{1, 2, nan})
	if !math.IsNaN(got[2]) {
		t.Errorf("trailing gap was modified to %v", got[2])
	}
}

func TestInterpolate_AllGaps(t *testing.T) {
	got := Interpolate([]float64{nan, nan})
	for i, v := range got {
		if !math.IsNaN(v) {
			t.Errorf("got[%d] = %v, want NaN (no finite neighbors anywhere)", i, v)
		}
	}
}

func TestInterpolate_DoesNotModifyInput(t *testing.T) {
	in := []float64{1, nan, 3}
	_ = Interpolate(in)
	if !math.IsNaN(in[1]) {
		t.Errorf("input modified in place")
	}
}

// --- Smooth ---

func TestSmooth_WindowOneIsIdentity(t *testing.T) {
	in := []float64{3, 1, 4, 1, 5}
	got := Smooth(in, 1)
	for i := range in {
		if got[i] != in[i] {
			t.Errorf("got[%d] = %v, want %v", i, got[i], in[i])
		}
	}
}

func TestSmooth_CenteredWindow(t *testing.T) {
	got := Smooth([]float64{1, 2, 3, 4, 5}, 3)
	// interior points average their neighbors; edges clamp.
	want := []float64{1.5, 2, 3, 4, 4.5}
	for i := range want {
		if !almostEqual(got[i], want[i], 1e-12) {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSmooth_EdgesNarrower(t *testing.T) {
	// window 5 over 3 points: every window clamps to the whole slice.
	got := Smooth([]float64{3, 6, 9}, 5)
	for i, v := range got {
		if !almostEqual(v, 6, 1e-12) {
			t.Errorf("got[%d] = %v, want 6 (clamped full-slice mean)", i, v)
		}
	}
}

func TestSmooth_EvenWindowExtendsLeft(t *testing.T) {
	got := Smooth([]float64{1, 2, 3, 4}, 2)
	// window 2 → one element left, none right.
	want := []float64{1, 1.5, 2.5, 3.5}
	for i := range want {
		if !almostEqual(got[i], want[i], 1e-12) {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSmooth_SameLength(t *testing.T) {
	in := []float64{1, 2, 3, 4, 5, 6, 7}
	for _, w := range []int{1, 2, 3, 4, 7, 100} {
		if got := Smooth(in, w); len(got) != len(in) {
			t.Errorf("window %d: len = %d, want %d", w, len(got), len(in))
		}
	}
}
