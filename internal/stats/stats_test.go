package stats

import (
	"errors"
	"math"
	"testing"
)

// almostEqual returns true if a and b are within epsilon of each other.
func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

// --- Describe ---

func TestDescribe_Empty(t *testing.T) {
	_, err := Describe(nil)
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("Describe(nil) err = %v, want ErrEmptyInput", err)
	}
}

func TestDescribe_SingleValue(t *testing.T) {
	s, err := Describe([]float64{42})
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if s.Mean != 42 || s.Median != 42 || s.Min != 42 || s.Max != 42 {
		t.Errorf("single value location stats = %+v, want all 42", s)
	}
	// n=1 convention: no spread to estimate, report 0.
	if s.StdDev != 0 || s.Variance != 0 {
		t.Errorf("single value StdDev=%v Variance=%v, want 0", s.StdDev, s.Variance)
	}
}

func TestDescribe_SampleStdDev(t *testing.T) {
	// Known sample: mean 5, sample variance 2.5 (divide by n−1).
	s, err := Describe([]float64{3, 4, 5, 6, 7})
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if !almostEqual(s.Mean, 5, 1e-12) {
		t.Errorf("Mean = %v, want 5", s.Mean)
	}
	if !almostEqual(s.Variance, 2.5, 1e-12) {
		t.Errorf("Variance = %v, want 2.5 (Bessel-corrected)", s.Variance)
	}
	if !almostEqual(s.StdDev, math.Sqrt(2.5), 1e-12) {
		t.Errorf("StdDev = %v, want sqrt(2.5)", s.StdDev)
	}
}

func TestDescribe_Quartiles(t *testing.T) {
	// sorted: [9 10 10 11 11 1000], q1 = idx 1 = 10, q3 = idx 4 = 11.
	s, err := Describe([]float64{10, 11, 9, 10, 11, 1000})
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if s.Q1 != 10 || s.Q3 != 11 {
		t.Errorf("Q1=%v Q3=%v, want 10 and 11", s.Q1, s.Q3)
	}
	if s.IQR != 1 {
		t.Errorf("IQR = %v, want 1", s.IQR)
	}
	if !almostEqual(s.Median, 10.5, 1e-12) {
		t.Errorf("Median = %v, want 10.5 (mean of middle pair)", s.Median)
	}
}

func TestDescribe_ConstantSequence(t *testing.T) {
	s, err := Describe([]float64{5, 5, 5, 5, 5})
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if s.StdDev != 0 {
		t.Errorf("constant sequence StdDev = %v, want 0", s.StdDev)
	}
	if s.IQR != 0 {
		t.Errorf("constant sequence IQR = %v, want 0", s.IQR)
	}
	if s.Range != 0 {
		t.Errorf("constant sequence Range = %v, want 0", s.Range)
	}
}

func TestDescribe_DoesNotModifyInput(t *testing.T) {
	in := []float64{3, 1, 2}
	if _, err := Describe(in); err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if in[0] != 3 || in[1] != 1 || in[2] != 2 {
		t.Errorf("input modified: %v", in)
	}
}

// --- Median / MAD ---

func TestMedian(t *testing.T) {
	tests := []struct {
		in   []float64
		want float64
	}{
		{[]float64{1, 2, 3}, 2},
		{[]float64{1, 2, 3, 4}, 2.5},
		{[]float64{7}, 7},
		{[]float64{5, 1}, 3},
	}
	for _, tc := range tests {
		got, err := Median(tc.in)
		if err != nil {
			t.Fatalf("Median(%v): %v", tc.in, err)
		}
		if !almostEqual(got, tc.want, 1e-12) {
			t.Errorf("Median(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestMAD(t *testing.T) {
	// median = 3, |v−3| = [2 1 0 1 2], MAD = 1.
	got, err := MAD([]float64{1, 2, 3, 4, 5})
	if err != nil {
		t.Fatalf("MAD: %v", err)
	}
	if !almostEqual(got, 1, 1e-12) {
		t.Errorf("MAD = %v, want 1", got)
	}
}

func TestMAD_ConstantSequence(t *testing.T) {
	got, err := MAD([]float64{4, 4, 4})
	if err != nil {
		t.Fatalf("MAD: %v", err)
	}
	if got != 0 {
		t.Errorf("constant MAD = %v, want 0", got)
	}
}
