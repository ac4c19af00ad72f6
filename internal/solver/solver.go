// Package solver implements the fixed-step SDE integration service: three
// one-step schemes for diagonal-noise Itô SDEs, all driven by a shared
// noise realization so that their outputs are directly comparable.
package solver

import (
	"fmt"
	"math"

	"github.com/sdelab/sdecheck/internal/brownian"
	"github.com/sdelab/sdecheck/internal/sde"
	"github.com/sdelab/sdecheck/internal/tensor"
	"gonum.org/v1/gonum/diff/fd"
)

// Scheme selects an integration scheme.
type Scheme string

const (
	// Euler is the first-order explicit Euler-Maruyama scheme,
	// strong order 0.5 under multiplicative noise.
	Euler Scheme = "euler"
	// Milstein adds the diffusion-derivative correction term,
	// strong order 1.0.
	Milstein Scheme = "milstein"
	// SRK is a two-stage derivative-free stochastic Runge-Kutta scheme,
	// strong order 1.0 for diagonal noise.
	SRK Scheme = "srk"
)

// Schemes returns every supported scheme in display order.
func Schemes() []Scheme {
	return []Scheme{Euler, Milstein, SRK}
}

// Options carries scheme-specific configuration.
type Options struct {
	// TrapezoidalApprox makes the SRK scheme average the drift over the
	// step endpoints instead of freezing it at the left endpoint.
	// Ignored by the other schemes.
	TrapezoidalApprox bool
}

// timeTol absorbs float accumulation when marching toward a grid point.
const timeTol = 1e-12

// Integrate runs one scheme over the time grid ts with step size dt,
// driven by the realization bm, and returns the state at every grid time.
// ts must be strictly increasing with at least two points; the first point
// is where bm is expected to be anchored. The realization is only queried,
// never advanced.
func Integrate(m sde.Model, y0 tensor.Batch, ts []float64, dt float64, bm brownian.Source, scheme Scheme, opts *Options) ([]tensor.Batch, error) {
	if err := validate(m, y0, ts, dt); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &Options{}
	}

	step, err := stepper(m, scheme, *opts)
	if err != nil {
		return nil, err
	}

	out := make([]tensor.Batch, len(ts))
	out[0] = tensor.Clone(y0)
	y := tensor.Clone(y0)
	t := ts[0]

	for k := 1; k < len(ts); k++ {
		target := ts[k]
		for target-t > timeTol {
			h := math.Min(dt, target-t)
			y, err = step(t, h, y, bm)
			if err != nil {
				return nil, fmt.Errorf("solver: %s step at t=%v: %w", scheme, t, err)
			}
			t += h
		}
		t = target
		out[k] = tensor.Clone(y)
	}
	return out, nil
}

func validate(m sde.Model, y0 tensor.Batch, ts []float64, dt float64) error {
	if dt <= 0 {
		return fmt.Errorf("solver: step size must be positive, got %v", dt)
	}
	if len(ts) < 2 {
		return fmt.Errorf("solver: time grid needs at least two points, got %d", len(ts))
	}
	for i := 1; i < len(ts); i++ {
		if ts[i] <= ts[i-1] {
			return fmt.Errorf("solver: time grid not strictly increasing at index %d", i)
		}
	}
	if _, c := y0.Dims(); c != m.Dim() {
		return fmt.Errorf("solver: initial value has %d dims, model has %d", c, m.Dim())
	}
	return nil
}

// stepFunc advances the state from t by h under the given realization.
type stepFunc func(t, h float64, y tensor.Batch, bm brownian.Source) (tensor.Batch, error)

func stepper(m sde.Model, scheme Scheme, opts Options) (stepFunc, error) {
	switch scheme {
	case Euler:
		return eulerStep(m), nil
	case Milstein:
		return milsteinStep(m), nil
	case SRK:
		return srkStep(m, opts), nil
	default:
		return nil, fmt.Errorf("solver: unknown scheme %q", scheme)
	}
}

// increment returns W(t+h) - W(t).
func increment(bm brownian.Source, t, h float64) (tensor.Batch, error) {
	w0, err := bm.Query(t)
	if err != nil {
		return nil, err
	}
	w1, err := bm.Query(t + h)
	if err != nil {
		return nil, err
	}
	w1.Sub(w1, w0)
	return w1, nil
}

func eulerStep(m sde.Model) stepFunc {
	return func(t, h float64, y tensor.Batch, bm brownian.Source) (tensor.Batch, error) {
		dw, err := increment(bm, t, h)
		if err != nil {
			return nil, err
		}
		f := tensor.ZerosLike(y)
		g := tensor.ZerosLike(y)
		m.Drift(t, y, f)
		m.Diffusion(t, y, g)

		next := tensor.Clone(y)
		addScaled(next, f, h)
		addProduct(next, g, dw)
		return next, nil
	}
}

func milsteinStep(m sde.Model) stepFunc {
	return func(t, h float64, y tensor.Batch, bm brownian.Source) (tensor.Batch, error) {
		dw, err := increment(bm, t, h)
		if err != nil {
			return nil, err
		}
		f := tensor.ZerosLike(y)
		g := tensor.ZerosLike(y)
		gp := tensor.ZerosLike(y)
		m.Drift(t, y, f)
		m.Diffusion(t, y, g)
		diffusionGrad(m, t, y, gp)

		next := tensor.Clone(y)
		addScaled(next, f, h)
		addProduct(next, g, dw)

		// Correction: 0.5 * g * dg/dy * (dW^2 - h), elementwise.
		r, c := y.Dims()
		for i := 0; i < r; i++ {
			nr, gr, gpr, dwr := next.RawRowView(i), g.RawRowView(i), gp.RawRowView(i), dw.RawRowView(i)
			for j := 0; j < c; j++ {
				nr[j] += 0.5 * gr[j] * gpr[j] * (dwr[j]*dwr[j] - h)
			}
		}
		return next, nil
	}
}

func srkStep(m sde.Model, opts Options) stepFunc {
	return func(t, h float64, y tensor.Batch, bm brownian.Source) (tensor.Batch, error) {
		dw, err := increment(bm, t, h)
		if err != nil {
			return nil, err
		}
		sqh := math.Sqrt(h)

		f := tensor.ZerosLike(y)
		g := tensor.ZerosLike(y)
		m.Drift(t, y, f)
		m.Diffusion(t, y, g)

		// Support stage for the derivative-free diffusion correction.
		stage := tensor.Clone(y)
		addScaled(stage, f, h)
		addScaled(stage, g, sqh)

		gs := tensor.ZerosLike(y)
		m.Diffusion(t+h, stage, gs)

		next := tensor.Clone(y)
		if opts.TrapezoidalApprox {
			fs := tensor.ZerosLike(y)
			m.Drift(t+h, stage, fs)
			addScaled(next, f, 0.5*h)
			addScaled(next, fs, 0.5*h)
		} else {
			addScaled(next, f, h)
		}
		addProduct(next, g, dw)

		// (g(stage) - g(y)) * (dW^2 - h) / (2 sqrt(h)), elementwise.
		r, c := y.Dims()
		for i := 0; i < r; i++ {
			nr, gr, gsr, dwr := next.RawRowView(i), g.RawRowView(i), gs.RawRowView(i), dw.RawRowView(i)
			for j := 0; j < c; j++ {
				nr[j] += (gsr[j] - gr[j]) * (dwr[j]*dwr[j] - h) / (2 * sqh)
			}
		}
		return next, nil
	}
}

// diffusionGrad uses the model's closed-form gradient when available and
// falls back to a central finite difference otherwise.
func diffusionGrad(m sde.Model, t float64, y, dst tensor.Batch) {
	if dg, ok := m.(sde.DiffusionGradient); ok {
		dg.DiffusionGrad(t, y, dst)
		return
	}

	settings := &fd.Settings{Formula: fd.Central}
	r, c := y.Dims()
	work := tensor.Clone(y)
	g := tensor.ZerosLike(y)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			orig := y.At(i, j)
			dst.Set(i, j, fd.Derivative(func(x float64) float64 {
				work.Set(i, j, x)
				m.Diffusion(t, work, g)
				work.Set(i, j, orig)
				return g.At(i, j)
			}, orig, settings))
		}
	}
}

// addScaled computes dst += s*a, elementwise.
func addScaled(dst, a tensor.Batch, s float64) {
	r, c := dst.Dims()
	for i := 0; i < r; i++ {
		dr, ar := dst.RawRowView(i), a.RawRowView(i)
		for j := 0; j < c; j++ {
			dr[j] += s * ar[j]
		}
	}
}

// addProduct computes dst += a*b, elementwise.
func addProduct(dst, a, b tensor.Batch) {
	r, c := dst.Dims()
	for i := 0; i < r; i++ {
		dr, ar, br := dst.RawRowView(i), a.RawRowView(i), b.RawRowView(i)
		for j := 0; j < c; j++ {
			dr[j] += ar[j] * br[j]
		}
	}
}
