package upload_test

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"ocrdrop/internal/config"
	"ocrdrop/internal/upload"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu       sync.Mutex
	progress []float64
	outcomes []bool
	done     chan struct{}
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{}, 1)}
}

func (r *recorder) callbacks() upload.Callbacks {
	return upload.Callbacks{
		Progress: func(p float64) {
			r.mu.Lock()
			r.progress = append(r.progress, p)
			r.mu.Unlock()
		},
		Done: func(ok bool) {
			r.mu.Lock()
			r.outcomes = append(r.outcomes, ok)
			r.mu.Unlock()
			r.done <- struct{}{}
		},
	}
}

func (r *recorder) snapshot() ([]float64, []bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.progress...), append([]bool(nil), r.outcomes...)
}

func waitDone(t *testing.T, r *recorder) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("upload did not resolve")
	}
}

func TestRandomStrategyIsReproducible(t *testing.T) {
	a := upload.NewRandomStrategy(rand.NewSource(7), 15, 0.8)
	b := upload.NewRandomStrategy(rand.NewSource(7), 15, 0.8)
	for i := 0; i < 50; i++ {
		x := a.Increment()
		require.Equal(t, x, b.Increment())
		assert.GreaterOrEqual(t, x, 0.0)
		assert.Less(t, x, 15.0)
		assert.Equal(t, a.Succeeds(), b.Succeeds())
	}
}

func TestRandomStrategyOutcomeBounds(t *testing.T) {
	never := upload.NewRandomStrategy(rand.NewSource(1), 15, 0)
	always := upload.NewRandomStrategy(rand.NewSource(1), 15, 1)
	for i := 0; i < 100; i++ {
		assert.False(t, never.Succeeds())
		assert.True(t, always.Succeeds())
	}
}

func TestScriptedStrategy(t *testing.T) {
	s := upload.NewScriptedStrategy([]float64{10, 20}, false, true)
	assert.Equal(t, []float64{10, 20, 10}, []float64{s.Increment(), s.Increment(), s.Increment()})
	assert.False(t, s.Succeeds())
	assert.True(t, s.Succeeds())
	assert.True(t, s.Succeeds(), "exhausted outcomes default to success")

	assert.Equal(t, 100.0, upload.NewScriptedStrategy(nil).Increment())
}

func TestFromConfig(t *testing.T) {
	cfg := config.New()
	assert.IsType(t, &upload.RandomStrategy{}, upload.FromConfig(cfg, rand.NewSource(1)))
	assert.IsType(t, &upload.RandomStrategy{}, upload.FromConfig(cfg, nil))

	cfg.Upload.Strategy = config.StrategyInstant
	assert.Equal(t, upload.InstantStrategy{}, upload.FromConfig(cfg, nil))
}

func TestSimulatorProgressReaches100(t *testing.T) {
	sim := upload.NewSimulator(upload.NewScriptedStrategy([]float64{30, 0, 45, 40}, true), time.Millisecond, time.Millisecond)
	defer sim.Close()

	r := newRecorder()
	sim.Start(context.Background(), "a", r.callbacks())
	waitDone(t, r)

	progress, outcomes := r.snapshot()
	assert.Equal(t, []float64{30, 30, 75, 100}, progress, "clamped to 100 and non-decreasing")
	assert.Equal(t, []bool{true}, outcomes)
	assert.False(t, sim.Running("a"))
}

func TestSimulatorRandomIsMonotonic(t *testing.T) {
	sim := upload.NewSimulator(upload.NewRandomStrategy(rand.NewSource(42), 15, 0.5), time.Millisecond, 0)
	defer sim.Close()

	r := newRecorder()
	sim.Start(context.Background(), "a", r.callbacks())
	waitDone(t, r)

	progress, _ := r.snapshot()
	require.NotEmpty(t, progress)
	assert.IsNonDecreasing(t, progress)
	assert.Equal(t, 100.0, progress[len(progress)-1])
	for _, p := range progress[:len(progress)-1] {
		assert.Less(t, p, 100.0)
	}
}

func TestSimulatorFailure(t *testing.T) {
	sim := upload.NewSimulator(upload.NewScriptedStrategy(nil, false), time.Millisecond, time.Millisecond)
	defer sim.Close()

	r := newRecorder()
	sim.Start(context.Background(), "a", r.callbacks())
	waitDone(t, r)

	_, outcomes := r.snapshot()
	assert.Equal(t, []bool{false}, outcomes)
}

func TestSimulatorCancel(t *testing.T) {
	sim := upload.NewSimulator(upload.NewScriptedStrategy([]float64{1}), 5*time.Millisecond, 0)
	defer sim.Close()

	r := newRecorder()
	sim.Start(context.Background(), "a", r.callbacks())
	require.Eventually(t, func() bool {
		p, _ := r.snapshot()
		return len(p) > 0
	}, time.Second, time.Millisecond)

	assert.True(t, sim.Running("a"))
	assert.True(t, sim.Cancel("a"))
	assert.False(t, sim.Cancel("a"))
	assert.False(t, sim.Running("a"))

	before, _ := r.snapshot()
	time.Sleep(30 * time.Millisecond)
	after, outcomes := r.snapshot()
	assert.Equal(t, before, after, "no callbacks after cancel")
	assert.Empty(t, outcomes)
}

func TestSimulatorCancelDuringSettle(t *testing.T) {
	sim := upload.NewSimulator(upload.InstantStrategy{}, time.Millisecond, time.Hour)
	defer sim.Close()

	r := newRecorder()
	sim.Start(context.Background(), "a", r.callbacks())
	require.Eventually(t, func() bool {
		p, _ := r.snapshot()
		return len(p) == 1
	}, time.Second, time.Millisecond)

	sim.Cancel("a")
	_, outcomes := r.snapshot()
	assert.Empty(t, outcomes)
}

func TestSimulatorRestartSupersedes(t *testing.T) {
	sim := upload.NewSimulator(upload.NewScriptedStrategy([]float64{1}), 2*time.Millisecond, 0)
	defer sim.Close()

	first := newRecorder()
	sim.Start(context.Background(), "a", first.callbacks())
	require.Eventually(t, func() bool {
		p, _ := first.snapshot()
		return len(p) > 0
	}, time.Second, time.Millisecond)

	second := newRecorder()
	sim.Start(context.Background(), "a", second.callbacks())
	stale, _ := first.snapshot()

	time.Sleep(20 * time.Millisecond)
	after, _ := first.snapshot()
	assert.Equal(t, stale, after, "superseded task stops reporting")
	assert.True(t, sim.Running("a"))
}

func TestSimulatorIndependentTasks(t *testing.T) {
	sim := upload.NewSimulator(upload.NewScriptedStrategy([]float64{25}), time.Millisecond, 0)
	defer sim.Close()

	a, b := newRecorder(), newRecorder()
	sim.Start(context.Background(), "a", a.callbacks())
	sim.Start(context.Background(), "b", b.callbacks())
	waitDone(t, a)
	waitDone(t, b)

	pa, _ := a.snapshot()
	pb, _ := b.snapshot()
	assert.Equal(t, 100.0, pa[len(pa)-1])
	assert.Equal(t, 100.0, pb[len(pb)-1])
}

func TestSimulatorContextCancel(t *testing.T) {
	sim := upload.NewSimulator(upload.NewScriptedStrategy([]float64{1}), time.Millisecond, 0)
	ctx, cancel := context.WithCancel(context.Background())

	r := newRecorder()
	sim.Start(ctx, "a", r.callbacks())
	cancel()
	sim.Close()

	_, outcomes := r.snapshot()
	assert.Empty(t, outcomes)
}
