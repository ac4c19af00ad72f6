package sde

import (
	"fmt"
	"math"

	"github.com/sdelab/sdecheck/internal/brownian"
	"github.com/sdelab/sdecheck/internal/tensor"
)

// GeometricBM is geometric Brownian motion with diagonal noise,
//
//	dY = mu Y dt + sigma Y dW,
//
// whose exact solution under a realization W is
//
//	Y(t) = Y(t0) * exp((mu - sigma^2/2)(t - t0) + sigma (W(t) - W(t0))).
//
// Every dimension evolves independently with the same coefficients, which
// is what makes the per-entry comparison against the schemes exact.
type GeometricBM struct {
	Mu    float64
	Sigma float64
	D     int
}

// NewGeometricBM returns a d-dimensional geometric Brownian motion model.
func NewGeometricBM(mu, sigma float64, d int) *GeometricBM {
	return &GeometricBM{Mu: mu, Sigma: sigma, D: d}
}

// Dim returns the state dimensionality.
func (m *GeometricBM) Dim() int { return m.D }

// Drift writes mu*y into dst.
func (m *GeometricBM) Drift(_ float64, y, dst tensor.Batch) {
	dst.Scale(m.Mu, y)
}

// Diffusion writes sigma*y into dst.
func (m *GeometricBM) Diffusion(_ float64, y, dst tensor.Batch) {
	dst.Scale(m.Sigma, y)
}

// DiffusionGrad writes the constant elementwise derivative sigma into dst.
func (m *GeometricBM) DiffusionGrad(_ float64, y, dst tensor.Batch) {
	r, c := y.Dims()
	for i := 0; i < r; i++ {
		row := dst.RawRowView(i)
		for j := 0; j < c; j++ {
			row[j] = m.Sigma
		}
	}
}

// AnalyticalSample evaluates the closed-form solution at every requested
// time under the shared realization bm. The realization is only queried,
// never advanced, so the same bm can drive every scheme afterwards.
func (m *GeometricBM) AnalyticalSample(y0 tensor.Batch, ts []float64, bm brownian.Source) ([]tensor.Batch, error) {
	if len(ts) == 0 {
		return nil, fmt.Errorf("sde: empty time grid")
	}

	w0, err := bm.Query(ts[0])
	if err != nil {
		return nil, fmt.Errorf("sde: query noise at t0: %w", err)
	}

	r, c := y0.Dims()
	out := make([]tensor.Batch, len(ts))
	drift := m.Mu - 0.5*m.Sigma*m.Sigma

	for k, t := range ts {
		wt, err := bm.Query(t)
		if err != nil {
			return nil, fmt.Errorf("sde: query noise at t=%v: %w", t, err)
		}
		y := tensor.ZerosLike(y0)
		for i := 0; i < r; i++ {
			yr, y0r, wr, w0r := y.RawRowView(i), y0.RawRowView(i), wt.RawRowView(i), w0.RawRowView(i)
			for j := 0; j < c; j++ {
				yr[j] = y0r[j] * math.Exp(drift*(t-ts[0])+m.Sigma*(wr[j]-w0r[j]))
			}
		}
		out[k] = y
	}
	return out, nil
}
