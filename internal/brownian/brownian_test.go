package brownian

import (
	"math"
	"testing"

	"github.com/sdelab/sdecheck/internal/tensor"
	"gonum.org/v1/gonum/mat"
)

func TestAnchorValue(t *testing.T) {
	w0 := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	p := New(0, w0, 1)

	got, err := p.Query(0)
	if err != nil {
		t.Fatalf("Query(0) error: %v", err)
	}
	if !mat.Equal(got, w0) {
		t.Errorf("Query at anchor = %v, want anchor value %v", mat.Formatted(got), mat.Formatted(w0))
	}
}

func TestQueryBeforeAnchorFails(t *testing.T) {
	p := New(1.0, tensor.Zeros(1, 1), 1)
	if _, err := p.Query(0.5); err == nil {
		t.Error("Query before anchor returned nil error, want error")
	}
}

func TestRepeatedQueryIsStable(t *testing.T) {
	p := New(0, tensor.Zeros(4, 2), 7)

	first, err := p.Query(1.5)
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	// Interleave other queries, including ones that trigger bridge inserts.
	for _, tq := range []float64{3.0, 0.25, 1.0, 2.2} {
		if _, err := p.Query(tq); err != nil {
			t.Fatalf("Query(%v) error: %v", tq, err)
		}
	}
	again, err := p.Query(1.5)
	if err != nil {
		t.Fatalf("re-Query error: %v", err)
	}
	if !mat.Equal(first, again) {
		t.Error("re-query at a sampled time changed its value")
	}
}

func TestReturnedBatchIsACopy(t *testing.T) {
	p := New(0, tensor.Zeros(1, 1), 3)
	w, err := p.Query(1)
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	w.Set(0, 0, 12345)

	again, err := p.Query(1)
	if err != nil {
		t.Fatalf("re-Query error: %v", err)
	}
	if again.At(0, 0) == 12345 {
		t.Error("mutating a returned batch leaked into the path")
	}
}

func TestDeterministicForSeedAndQueryOrder(t *testing.T) {
	times := []float64{0.5, 1.0, 0.75, 2.0, 1.5}

	run := func(seed int64) []tensor.Batch {
		p := New(0, tensor.Zeros(2, 2), seed)
		out := make([]tensor.Batch, len(times))
		for i, tq := range times {
			w, err := p.Query(tq)
			if err != nil {
				t.Fatalf("Query(%v) error: %v", tq, err)
			}
			out[i] = w
		}
		return out
	}

	a, b := run(42), run(42)
	for i := range a {
		if !mat.Equal(a[i], b[i]) {
			t.Errorf("same seed, query %d differs", i)
		}
	}

	c := run(43)
	same := true
	for i := range a {
		if !mat.Equal(a[i], c[i]) {
			same = false
		}
	}
	if same {
		t.Error("different seeds produced identical paths")
	}
}

func TestBridgeStaysBetweenNeighborsInMean(t *testing.T) {
	// With many independent entries, the bridge sample mean at the midpoint
	// should be near the average of the pinned neighbors.
	const n = 4096
	p := New(0, tensor.Zeros(n, 1), 11)

	w2, err := p.Query(2)
	if err != nil {
		t.Fatalf("Query(2) error: %v", err)
	}
	w1, err := p.Query(1)
	if err != nil {
		t.Fatalf("Query(1) error: %v", err)
	}

	var meanDiff float64
	for i := 0; i < n; i++ {
		meanDiff += w1.At(i, 0) - w2.At(i, 0)/2
	}
	meanDiff /= n
	// Bridge at midpoint: mean w2/2, variance 1/2. Std of the sample mean
	// is about sqrt(0.5/n) ~ 0.011; 5 sigma gives a safe band.
	if math.Abs(meanDiff) > 0.06 {
		t.Errorf("bridge midpoint sample mean off by %v, want ~0", meanDiff)
	}
}

func TestIncrementVariance(t *testing.T) {
	const n = 8192
	dt := 0.7
	p := New(0, tensor.Zeros(n, 1), 5)

	w, err := p.Query(dt)
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}

	var sumSq float64
	for i := 0; i < n; i++ {
		v := w.At(i, 0)
		sumSq += v * v
	}
	variance := sumSq / n
	if math.Abs(variance-dt) > 0.1 {
		t.Errorf("increment variance = %v, want ~%v", variance, dt)
	}
}
