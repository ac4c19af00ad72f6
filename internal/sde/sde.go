// Package sde defines the dynamics specification consumed by the solvers
// and the analytical-sampling service the experiments compare against.
//
// Models describe diagonal-noise Itô SDEs
//
//	dY = f(t, Y) dt + g(t, Y) dW
//
// where f and g act elementwise on a (batch, dim) state batch and W is a
// Brownian motion of the same shape.
package sde

import (
	"github.com/sdelab/sdecheck/internal/brownian"
	"github.com/sdelab/sdecheck/internal/tensor"
)

// Model is a drift/diffusion specification with diagonal noise.
type Model interface {
	// Dim returns the state dimensionality d.
	Dim() int

	// Drift writes f(t, y) into dst. dst has the same shape as y.
	Drift(t float64, y, dst tensor.Batch)

	// Diffusion writes the diagonal diffusion g(t, y) into dst.
	Diffusion(t float64, y, dst tensor.Batch)
}

// DiffusionGradient is implemented by models that can evaluate the
// elementwise state derivative of the diffusion in closed form. Solvers
// that need it (Milstein) fall back to finite differences otherwise.
type DiffusionGradient interface {
	// DiffusionGrad writes dg/dy evaluated elementwise at (t, y) into dst.
	DiffusionGrad(t float64, y, dst tensor.Batch)
}

// Analytical is implemented by models with a closed-form solution that can
// be sampled exactly under a given noise realization.
type Analytical interface {
	// AnalyticalSample returns the exact trajectory at the times ts, one
	// batch per time point, driven by the realization bm.
	AnalyticalSample(y0 tensor.Batch, ts []float64, bm brownian.Source) ([]tensor.Batch, error)
}

// AnalyticalModel is a dynamics specification together with its exact
// solution; the experiments require both halves.
type AnalyticalModel interface {
	Model
	Analytical
}
