// Package broadcast fans one snapshot per tick out to every connection.
package broadcast

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/l1jgo/arena/internal/core/event"
	"github.com/l1jgo/arena/internal/metrics"
	"github.com/l1jgo/arena/internal/protocol"
)

// Target is one recipient. TrySend must not block: it either queues the frame
// or reports false.
type Target interface {
	ConnID() event.ConnID
	TrySend(frame []byte) bool
}

// Result counts the outcome of one Publish.
type Result struct {
	Delivered int
	Dropped   int
}

// Sink delivers snapshots at most once. A recipient whose queue is full misses
// this tick's snapshot; the next tick supersedes it, so nothing is retried.
type Sink struct {
	log *zap.Logger
}

func NewSink(log *zap.Logger) *Sink {
	return &Sink{log: log}
}

// Publish serializes snap once and offers the same frame to every target.
func (s *Sink) Publish(snap protocol.Snapshot, targets []Target) (Result, error) {
	frame, err := json.Marshal(snap)
	if err != nil {
		return Result{}, fmt.Errorf("marshal snapshot %d: %w", snap.Tick, err)
	}

	var res Result
	for _, t := range targets {
		if t.TrySend(frame) {
			res.Delivered++
			continue
		}
		res.Dropped++
		s.log.Debug("snapshot dropped", zap.Uint64("conn", uint64(t.ConnID())), zap.Uint64("tick", snap.Tick))
	}
	metrics.SnapshotsSent.Add(float64(res.Delivered))
	metrics.SnapshotsDropped.Add(float64(res.Dropped))
	return res, nil
}
