package solver

import (
	"math"
	"testing"

	"github.com/sdelab/sdecheck/internal/brownian"
	"github.com/sdelab/sdecheck/internal/sde"
	"github.com/sdelab/sdecheck/internal/tensor"
	"gonum.org/v1/gonum/mat"
)

// decay is dY = -Y dt with no noise. Euler on it must track exp(-t).
type decay struct{ d int }

func (m decay) Dim() int                                 { return m.d }
func (m decay) Drift(_ float64, y, dst tensor.Batch)     { dst.Scale(-1, y) }
func (m decay) Diffusion(_ float64, _, dst tensor.Batch) { dst.Zero() }

// gbmNoGrad is geometric Brownian motion without a closed-form diffusion
// gradient, forcing the Milstein finite-difference fallback.
type gbmNoGrad struct {
	mu, sigma float64
	d         int
}

func (m gbmNoGrad) Dim() int                                 { return m.d }
func (m gbmNoGrad) Drift(_ float64, y, dst tensor.Batch)     { dst.Scale(m.mu, y) }
func (m gbmNoGrad) Diffusion(_ float64, y, dst tensor.Batch) { dst.Scale(m.sigma, y) }

func grid(t0, t1 float64, n int) []float64 {
	ts := make([]float64, n)
	for i := range ts {
		ts[i] = t0 + (t1-t0)*float64(i)/float64(n-1)
	}
	return ts
}

func TestValidation(t *testing.T) {
	m := sde.NewGeometricBM(1, 0.5, 2)
	y0 := tensor.Ones(2, 2)
	bm := brownian.New(0, tensor.Zeros(2, 2), 1)
	ts := []float64{0, 1}

	cases := []struct {
		name   string
		y0     tensor.Batch
		ts     []float64
		dt     float64
		scheme Scheme
	}{
		{"zero step size", y0, ts, 0, Euler},
		{"negative step size", y0, ts, -0.1, Euler},
		{"single grid point", y0, []float64{0}, 0.1, Euler},
		{"non-increasing grid", y0, []float64{0, 1, 1}, 0.1, Euler},
		{"dim mismatch", tensor.Ones(2, 3), ts, 0.1, Euler},
		{"unknown scheme", y0, ts, 0.1, Scheme("heun")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Integrate(m, tc.y0, tc.ts, tc.dt, bm, tc.scheme, nil); err == nil {
				t.Error("Integrate accepted invalid input, want error")
			}
		})
	}
}

func TestTrajectoryShape(t *testing.T) {
	m := sde.NewGeometricBM(1, 0.5, 3)
	y0 := tensor.Ones(4, 3)
	bm := brownian.New(0, tensor.Zeros(4, 3), 2)
	ts := grid(0, 1, 11)

	out, err := Integrate(m, y0, ts, 0.05, bm, Euler, nil)
	if err != nil {
		t.Fatalf("Integrate error: %v", err)
	}
	if len(out) != len(ts) {
		t.Fatalf("trajectory length = %d, want %d", len(out), len(ts))
	}
	for i, y := range out {
		r, c := y.Dims()
		if r != 4 || c != 3 {
			t.Errorf("out[%d] shape = (%d,%d), want (4,3)", i, r, c)
		}
	}
	if !mat.Equal(out[0], y0) {
		t.Error("trajectory does not start at y0")
	}
}

func TestTwoPointGridGivesInitialTerminalPair(t *testing.T) {
	m := sde.NewGeometricBM(1, 0.5, 1)
	y0 := tensor.Ones(2, 1)
	bm := brownian.New(0, tensor.Zeros(2, 1), 3)

	out, err := Integrate(m, y0, []float64{0, 1}, 0.25, bm, SRK, nil)
	if err != nil {
		t.Fatalf("Integrate error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d batches, want (initial, terminal) pair", len(out))
	}
	if !mat.Equal(out[0], y0) {
		t.Error("first batch is not the initial value")
	}
}

func TestDeterminismUnderSharedRealization(t *testing.T) {
	m := sde.NewGeometricBM(1, 0.5, 2)
	y0 := tensor.Ones(3, 2)
	bm := brownian.New(0, tensor.Zeros(3, 2), 5)
	ts := grid(0, 2, 9)

	for _, scheme := range Schemes() {
		first, err := Integrate(m, y0, ts, 0.1, bm, scheme, nil)
		if err != nil {
			t.Fatalf("%s: first run error: %v", scheme, err)
		}
		second, err := Integrate(m, y0, ts, 0.1, bm, scheme, nil)
		if err != nil {
			t.Fatalf("%s: second run error: %v", scheme, err)
		}
		for i := range first {
			if !mat.Equal(first[i], second[i]) {
				t.Errorf("%s: output differs at grid index %d under the same realization", scheme, i)
			}
		}
	}
}

func TestZeroDiffusionReducesToODE(t *testing.T) {
	m := decay{d: 1}
	y0 := tensor.Ones(1, 1)
	bm := brownian.New(0, tensor.Zeros(1, 1), 1)
	ts := []float64{0, 1}
	dt := 1e-3

	for _, scheme := range Schemes() {
		out, err := Integrate(m, y0, ts, dt, bm, scheme, nil)
		if err != nil {
			t.Fatalf("%s: Integrate error: %v", scheme, err)
		}
		got := out[1].At(0, 0)
		want := math.Exp(-1)
		// First-order drift handling: error O(dt).
		if math.Abs(got-want) > 5e-3 {
			t.Errorf("%s: terminal = %v, want ~%v", scheme, got, want)
		}
	}
}

func TestMilsteinFiniteDifferenceFallback(t *testing.T) {
	// The same dynamics with and without a closed-form diffusion gradient
	// must produce nearly identical Milstein trajectories.
	withGrad := sde.NewGeometricBM(1, 0.5, 1)
	withoutGrad := gbmNoGrad{mu: 1, sigma: 0.5, d: 1}
	y0 := tensor.Ones(2, 1)
	ts := grid(0, 1, 5)

	bm := brownian.New(0, tensor.Zeros(2, 1), 9)
	exact, err := Integrate(withGrad, y0, ts, 0.1, bm, Milstein, nil)
	if err != nil {
		t.Fatalf("closed-form run error: %v", err)
	}
	numeric, err := Integrate(withoutGrad, y0, ts, 0.1, bm, Milstein, nil)
	if err != nil {
		t.Fatalf("finite-difference run error: %v", err)
	}

	for i := range exact {
		var diff mat.Dense
		diff.Sub(exact[i], numeric[i])
		if norm := mat.Norm(&diff, 2); norm > 1e-6 {
			t.Errorf("grid index %d: fd gradient drifts from closed form by %v", i, norm)
		}
	}
}

func TestSchemesAgreeForAdditiveNoise(t *testing.T) {
	// With constant diffusion the correction terms vanish, so all three
	// schemes collapse to Euler-Maruyama.
	m := additive{d: 1}
	y0 := tensor.Ones(2, 1)
	bm := brownian.New(0, tensor.Zeros(2, 1), 13)
	ts := grid(0, 1, 5)

	var ref []tensor.Batch
	for _, scheme := range Schemes() {
		out, err := Integrate(m, y0, ts, 0.1, bm, scheme, nil)
		if err != nil {
			t.Fatalf("%s: Integrate error: %v", scheme, err)
		}
		if ref == nil {
			ref = out
			continue
		}
		for i := range out {
			var diff mat.Dense
			diff.Sub(ref[i], out[i])
			if norm := mat.Norm(&diff, 2); norm > 1e-10 {
				t.Errorf("%s: differs from euler by %v at index %d under additive noise", scheme, norm, i)
			}
		}
	}
}

// additive is dY = -Y dt + 0.2 dW.
type additive struct{ d int }

func (m additive) Dim() int                             { return m.d }
func (m additive) Drift(_ float64, y, dst tensor.Batch) { dst.Scale(-1, y) }
func (m additive) Diffusion(_ float64, y, dst tensor.Batch) {
	r, c := y.Dims()
	for i := 0; i < r; i++ {
		row := dst.RawRowView(i)
		for j := 0; j < c; j++ {
			row[j] = 0.2
		}
	}
}
