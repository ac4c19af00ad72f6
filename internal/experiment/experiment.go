// Package experiment contains the two diagnostics this harness exists
// for: a trajectory overlay of every scheme against the analytical
// solution, and a strong-order-of-convergence study.
//
// Both experiments hold the noise realization fixed while varying the
// scheme (and, for the convergence study, the step size). With the
// randomness shared, the measured error is pure discretization error,
// which is what makes the log-log slope an estimate of strong order.
package experiment

import (
	"fmt"
	"path/filepath"
)

// artifactDir is the subdirectory under the output root where every plot
// artifact is written.
const artifactDir = "srk_diagonal"

// artifactPath returns outDir/srk_diagonal/name.
func artifactPath(outDir, name string) string {
	return filepath.Join(outDir, artifactDir, name)
}

// linspace returns n evenly spaced points from t0 to t1 inclusive.
func linspace(t0, t1 float64, n int) ([]float64, error) {
	if n < 2 {
		return nil, fmt.Errorf("experiment: time grid needs at least 2 points, got %d", n)
	}
	if t1 <= t0 {
		return nil, fmt.Errorf("experiment: t1 (%v) must exceed t0 (%v)", t1, t0)
	}
	ts := make([]float64, n)
	for i := range ts {
		ts[i] = t0 + (t1-t0)*float64(i)/float64(n-1)
	}
	ts[n-1] = t1
	return ts, nil
}
