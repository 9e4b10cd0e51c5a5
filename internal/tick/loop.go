// Package tick drives the fixed-rate simulation loop.
package tick

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/l1jgo/arena/internal/metrics"
)

// Runner runs one tick's worth of systems.
type Runner interface {
	Tick(dt time.Duration) error
}

// Loop calls Runner once per interval. Ticks fire on interval boundaries
// measured from Run's start, so a slow tick delays the next one without
// shifting the schedule; ticks missed while a slow tick runs are skipped.
type Loop struct {
	runner   Runner
	clock    clockwork.Clock
	interval time.Duration
	slowWarn time.Duration
	ticks    uint64
	log      *zap.Logger
}

// NewLoop builds a loop. A zero slowWarn defaults to interval.
func NewLoop(runner Runner, clock clockwork.Clock, interval, slowWarn time.Duration, log *zap.Logger) *Loop {
	if slowWarn <= 0 {
		slowWarn = interval
	}
	return &Loop{
		runner:   runner,
		clock:    clock,
		interval: interval,
		slowWarn: slowWarn,
		log:      log,
	}
}

// Run ticks until ctx is cancelled or a tick fails. Cancellation returns nil.
func (l *Loop) Run(ctx context.Context) error {
	if l.interval <= 0 {
		return fmt.Errorf("tick: interval must be positive, got %s", l.interval)
	}
	ticker := l.clock.NewTicker(l.interval)
	defer ticker.Stop()

	l.log.Info("tick loop started", zap.Duration("interval", l.interval))
	for {
		select {
		case <-ticker.Chan():
			if err := l.Step(); err != nil {
				l.log.Error("tick failed", zap.Uint64("tick", l.ticks), zap.Error(err))
				return err
			}
		case <-ctx.Done():
			l.log.Info("tick loop stopped", zap.Uint64("ticks", l.ticks))
			return nil
		}
	}
}

// Step runs exactly one tick.
func (l *Loop) Step() error {
	start := l.clock.Now()
	err := l.runner.Tick(l.interval)
	elapsed := l.clock.Since(start)
	l.ticks++

	metrics.TickDuration.Observe(elapsed.Seconds())
	if elapsed > l.slowWarn {
		metrics.SlowTicks.Inc()
		l.log.Warn("slow tick",
			zap.Uint64("tick", l.ticks),
			zap.Duration("elapsed", elapsed),
			zap.Duration("budget", l.interval),
		)
	}
	if err != nil {
		return fmt.Errorf("tick %d: %w", l.ticks, err)
	}
	return nil
}

// Ticks returns how many ticks have run.
func (l *Loop) Ticks() uint64 { return l.ticks }
