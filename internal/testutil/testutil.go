// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common numeric test helpers to reduce code
// duplication across test files and improve test maintainability.
package testutil

import (
	"math"
	"testing"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertInDelta checks that got is within delta of want.
func AssertInDelta(t *testing.T, got, want, delta float64) {
	t.Helper()
	if math.IsNaN(got) || math.Abs(got-want) > delta {
		t.Errorf("got %.12g, want %.12g (±%g)", got, want, delta)
	}
}

// AssertSimplexRow checks that row is a probability distribution: all
// entries non-negative and summing to 1 within tol.
func AssertSimplexRow(t *testing.T, row []float64, tol float64) {
	t.Helper()
	sum := 0.0
	for i, p := range row {
		if p < 0 {
			t.Errorf("entry %d is negative: %g", i, p)
		}
		sum += p
	}
	if math.Abs(sum-1) > tol {
		t.Errorf("row sums to %.12f, want 1 (±%g)", sum, tol)
	}
}
