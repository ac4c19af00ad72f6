// Package fit provides the single regression primitive the harness
// consumes: ordinary least squares on two equal-length series, plus the
// strong-order fit built on it.
package fit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Line fits y = intercept + slope*x by ordinary least squares.
// It requires equal-length series with at least two points.
func Line(xs, ys []float64) (slope, intercept float64, err error) {
	if len(xs) != len(ys) {
		return 0, 0, fmt.Errorf("fit: series lengths differ: %d vs %d", len(xs), len(ys))
	}
	if len(xs) < 2 {
		return 0, 0, fmt.Errorf("fit: need at least two points, got %d", len(xs))
	}
	intercept, slope = stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		return 0, 0, fmt.Errorf("fit: regression produced non-finite slope")
	}
	return slope, intercept, nil
}

// StrongOrder estimates the empirical strong order of convergence from a
// step-size series and its index-aligned error series by regressing
// ln(err)/2 on ln(dt). The division by two converts a mean-squared error,
// which scales as dt^(2p), into the textbook exponent p.
//
// Every step size must be positive and every error strictly positive: a
// zero error has no logarithm, so it is rejected here rather than turning
// the fitted slope into NaN or Inf downstream.
func StrongOrder(dts, errs []float64) (float64, error) {
	if len(dts) != len(errs) {
		return 0, fmt.Errorf("fit: %d step sizes but %d errors", len(dts), len(errs))
	}
	logDts := make([]float64, len(dts))
	halfLogErrs := make([]float64, len(errs))
	for i, dt := range dts {
		if dt <= 0 {
			return 0, fmt.Errorf("fit: step size at index %d is %v, want > 0", i, dt)
		}
		if errs[i] <= 0 {
			return 0, fmt.Errorf("fit: error at index %d is %v; a degenerate (zero or negative) error cannot enter the log-log fit", i, errs[i])
		}
		logDts[i] = math.Log(dt)
		halfLogErrs[i] = math.Log(errs[i]) / 2
	}

	slope, _, err := Line(logDts, halfLogErrs)
	if err != nil {
		return 0, err
	}
	return slope, nil
}
