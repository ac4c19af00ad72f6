// Package brownian provides the shared noise realization consumed by the
// solvers and the analytical sampler.
//
// A Path is one sampled instance of a Brownian motion, anchored at a fixed
// time and value, queryable at arbitrary later times. Values are sampled
// lazily: a query past the last known time extends the path with an
// independent Gaussian increment, and a query between two known times is
// filled in with a Brownian bridge conditioned on both neighbors. Once a
// time has been sampled its value is fixed forever, so sharing one Path
// across every scheme and step size yields a single consistent noise
// realization. That consistency is the invariant the whole harness rests
// on: measured error is discretization error, not re-sampled randomness.
package brownian

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/sdelab/sdecheck/internal/tensor"
)

// Source is the query surface the solvers and analytical sampler consume.
// Implementations must return the same value for repeated queries at the
// same time.
type Source interface {
	// Query returns the noise value at time t. The returned batch is a
	// copy; callers may mutate it freely.
	Query(t float64) (tensor.Batch, error)
}

// sample is one pinned (time, value) point of the realization.
type sample struct {
	t float64
	w tensor.Batch
}

// Path is a lazily sampled Brownian path. It is safe for concurrent use.
type Path struct {
	mu      sync.Mutex
	rng     *rand.Rand
	samples []sample // sorted by time, samples[0] is the anchor
	batch   int
	dim     int
}

// New creates a path anchored at t0 with value w0, deterministic for a
// fixed seed and query order.
func New(t0 float64, w0 tensor.Batch, seed int64) *Path {
	batch, dim := w0.Dims()
	return &Path{
		rng:     rand.New(rand.NewSource(seed)),
		samples: []sample{{t: t0, w: tensor.Clone(w0)}},
		batch:   batch,
		dim:     dim,
	}
}

// Query returns the path value at time t >= the anchor time.
func (p *Path) Query(t float64) (tensor.Batch, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if t < p.samples[0].t {
		return nil, fmt.Errorf("brownian: query time %v precedes anchor %v", t, p.samples[0].t)
	}

	i := sort.Search(len(p.samples), func(i int) bool { return p.samples[i].t >= t })
	if i < len(p.samples) && p.samples[i].t == t {
		return tensor.Clone(p.samples[i].w), nil
	}

	var w tensor.Batch
	if i == len(p.samples) {
		w = p.extend(t)
	} else {
		w = p.bridge(i, t)
	}
	p.samples = append(p.samples, sample{})
	copy(p.samples[i+1:], p.samples[i:])
	p.samples[i] = sample{t: t, w: w}
	return tensor.Clone(w), nil
}

// extend samples past the last pinned time with a fresh increment.
func (p *Path) extend(t float64) tensor.Batch {
	last := p.samples[len(p.samples)-1]
	std := math.Sqrt(t - last.t)
	w := tensor.Clone(last.w)
	p.addNoise(w, std)
	return w
}

// bridge samples between samples[i-1] and samples[i] conditioned on both.
// The conditional law is Gaussian with the linear interpolant as mean and
// variance (t1-t)(t-t0)/(t1-t0).
func (p *Path) bridge(i int, t float64) tensor.Batch {
	lo, hi := p.samples[i-1], p.samples[i]
	frac := (t - lo.t) / (hi.t - lo.t)
	std := math.Sqrt((hi.t - t) * (t - lo.t) / (hi.t - lo.t))

	w := tensor.ZerosLike(lo.w)
	for r := 0; r < p.batch; r++ {
		wr, lor, hir := w.RawRowView(r), lo.w.RawRowView(r), hi.w.RawRowView(r)
		for c := 0; c < p.dim; c++ {
			wr[c] = lor[c] + frac*(hir[c]-lor[c])
		}
	}
	p.addNoise(w, std)
	return w
}

func (p *Path) addNoise(w tensor.Batch, std float64) {
	if std == 0 {
		return
	}
	for r := 0; r < p.batch; r++ {
		row := w.RawRowView(r)
		for c := 0; c < p.dim; c++ {
			row[c] += std * p.rng.NormFloat64()
		}
	}
}
