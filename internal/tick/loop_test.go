package tick

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/l1jgo/arena/internal/metrics"
)

type countingRunner struct {
	calls  atomic.Int64
	failAt int64
	err    error
	clock  *clockwork.FakeClock
	cost   time.Duration
}

func (r *countingRunner) Tick(dt time.Duration) error {
	n := r.calls.Add(1)
	if r.cost > 0 {
		r.clock.Advance(r.cost)
	}
	if r.failAt > 0 && n == r.failAt {
		return r.err
	}
	return nil
}

const interval = 50 * time.Millisecond

func TestLoop_TicksOnInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	runner := &countingRunner{}
	loop := NewLoop(runner, clock, interval, 0, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	clock.BlockUntilContext(context.Background(), 1) //nolint:errcheck
	for i := 1; i <= 3; i++ {
		clock.Advance(interval)
		want := int64(i)
		require.Eventually(t, func() bool { return runner.calls.Load() == want },
			time.Second, time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop on cancel")
	}
	assert.Equal(t, uint64(3), loop.Ticks())
}

func TestLoop_NoTickBeforeInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	runner := &countingRunner{}
	loop := NewLoop(runner, clock, interval, 0, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	clock.BlockUntilContext(context.Background(), 1) //nolint:errcheck
	clock.Advance(interval - time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, runner.calls.Load())
}

func TestLoop_FatalTickStopsLoop(t *testing.T) {
	clock := clockwork.NewFakeClock()
	boom := errors.New("engine gone")
	runner := &countingRunner{failAt: 2, err: boom}
	loop := NewLoop(runner, clock, interval, 0, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- loop.Run(context.Background()) }()

	clock.BlockUntilContext(context.Background(), 1) //nolint:errcheck
	clock.Advance(interval)
	require.Eventually(t, func() bool { return runner.calls.Load() == 1 }, time.Second, time.Millisecond)
	clock.Advance(interval)

	select {
	case err := <-done:
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "tick 2")
	case <-time.After(time.Second):
		t.Fatal("loop did not stop on fatal tick")
	}
}

func TestLoop_StepCountsSlowTicks(t *testing.T) {
	clock := clockwork.NewFakeClock()
	runner := &countingRunner{clock: clock, cost: 2 * interval}
	loop := NewLoop(runner, clock, interval, 0, zap.NewNop())

	before := testutil.ToFloat64(metrics.SlowTicks)
	require.NoError(t, loop.Step())
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.SlowTicks))

	runner.cost = 0
	require.NoError(t, loop.Step())
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.SlowTicks))
}

func TestLoop_RejectsZeroInterval(t *testing.T) {
	loop := NewLoop(&countingRunner{}, clockwork.NewFakeClock(), 0, 0, zap.NewNop())
	assert.Error(t, loop.Run(context.Background()))
}
