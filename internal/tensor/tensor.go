// Package tensor provides the state-batch representation shared by the
// solvers, the analytical sampler, and the experiments.
//
// A batch is a gonum *mat.Dense with shape (batch size, dimension): one row
// per independent sample trajectory, one column per state dimension. The
// package also provides the bridging helpers that turn batches back into
// plain host slices for plotting and regression.
package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Batch is a rectangular state batch indexed by (batch index, dimension).
type Batch = *mat.Dense

// Zeros returns a (batch, dim) batch with every entry set to zero.
func Zeros(batch, dim int) Batch {
	return mat.NewDense(batch, dim, nil)
}

// Ones returns a (batch, dim) batch with every entry set to one.
func Ones(batch, dim int) Batch {
	data := make([]float64, batch*dim)
	for i := range data {
		data[i] = 1
	}
	return mat.NewDense(batch, dim, data)
}

// ZerosLike returns a zero batch with the same shape as m.
func ZerosLike(m Batch) Batch {
	r, c := m.Dims()
	return mat.NewDense(r, c, nil)
}

// Clone returns a deep copy of m.
func Clone(m Batch) Batch {
	var out mat.Dense
	out.CloneFrom(m)
	return &out
}

// SameShape reports whether a and b have identical dimensions.
func SameShape(a, b Batch) bool {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	return ar == br && ac == bc
}

// CheckShape returns an error if a and b differ in shape.
func CheckShape(a, b Batch) error {
	if !SameShape(a, b) {
		ar, ac := a.Dims()
		br, bc := b.Dims()
		return fmt.Errorf("shape mismatch: (%d,%d) vs (%d,%d)", ar, ac, br, bc)
	}
	return nil
}

// Flatten copies every entry of m into a fresh slice in row-major order.
func Flatten(m Batch) []float64 {
	r, c := m.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		out = append(out, m.RawRowView(i)...)
	}
	return out
}

// Column copies column j of m into a fresh slice.
func Column(m Batch, j int) []float64 {
	r, _ := m.Dims()
	out := make([]float64, r)
	mat.Col(out, j, m)
	return out
}

// Rows copies m into a fresh slice of row slices.
func Rows(m Batch) [][]float64 {
	r, c := m.Dims()
	out := make([][]float64, r)
	for i := 0; i < r; i++ {
		row := make([]float64, c)
		copy(row, m.RawRowView(i))
		out[i] = row
	}
	return out
}

// TimeSeries extracts, from a trajectory of batches, the scalar series for
// one (batch, dimension) entry across all time points. The trajectory is
// indexed by time; the result is aligned with it index-for-index.
func TimeSeries(traj []Batch, batchIdx, dim int) []float64 {
	out := make([]float64, len(traj))
	for i, m := range traj {
		out[i] = m.At(batchIdx, dim)
	}
	return out
}
