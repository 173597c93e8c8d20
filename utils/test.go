package utils

import (
	"math"
	"testing"
)

func AssertTrue(t *testing.T, a bool) {
	t.Helper()
	if !a {
		t.Fatalf("Expected true, got false")
	}
}

func AssertClose(t *testing.T, a, b, tolerance float64) {
	t.Helper()
	if math.Abs(a-b) > tolerance {
		t.Fatalf("Expected close: %v != %v (tolerance %v)\n", a, b, tolerance)
	}
}

// AssertFloatsClose compares element-wise; NaNs compare equal to each other.
func AssertFloatsClose(t *testing.T, a, b []float64, tolerance float64) {
	t.Helper()
	if len(a) != len(b) {
		t.Fatalf("Expected equal lengths: %d != %d\n", len(a), len(b))
	}
	for i := range a {
		if math.IsNaN(a[i]) && math.IsNaN(b[i]) {
			continue
		}
		if math.Abs(a[i]-b[i]) > tolerance {
			t.Fatalf("Expected close at %d: %v != %v\n", i, a[i], b[i])
		}
	}
}
