// Package metric provides the scalar error metric used to compare a
// numerical scheme's output against the analytical reference.
package metric

import (
	"fmt"

	"github.com/sdelab/sdecheck/internal/tensor"
)

// MSE returns the mean squared error between two state batches: the mean,
// over every (batch, dimension) entry, of the squared elementwise
// difference. Batches of different shapes are rejected, never broadcast.
func MSE(a, b tensor.Batch) (float64, error) {
	if err := tensor.CheckShape(a, b); err != nil {
		return 0, fmt.Errorf("mse: %w", err)
	}
	r, c := a.Dims()
	if r == 0 || c == 0 {
		return 0, fmt.Errorf("mse: empty batch (%d,%d)", r, c)
	}

	var sum float64
	for i := 0; i < r; i++ {
		ra, rb := a.RawRowView(i), b.RawRowView(i)
		for j := 0; j < c; j++ {
			d := ra[j] - rb[j]
			sum += d * d
		}
	}
	return sum / float64(r*c), nil
}
