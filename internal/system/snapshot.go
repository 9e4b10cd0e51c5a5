package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/l1jgo/arena/internal/core/system"
	"github.com/l1jgo/arena/internal/metrics"
	"github.com/l1jgo/arena/internal/physics"
	"github.com/l1jgo/arena/internal/protocol"
	"github.com/l1jgo/arena/internal/session"
)

// Frame carries the snapshot built in the snapshot phase to the output phase
// of the same tick.
type Frame struct {
	Snapshot protocol.Snapshot
	Ready    bool
}

// SnapshotSystem captures every session's transform into a new snapshot with
// the next tick number. Only sessions whose connection is still registered
// for output are included. Phase 3 (Snapshot).
type SnapshotSystem struct {
	sessions *session.Registry
	engine   physics.Engine
	outbound Outbound
	frame    *Frame
	tick     uint64
	log      *zap.Logger
}

func NewSnapshotSystem(sessions *session.Registry, engine physics.Engine, outbound Outbound, frame *Frame, log *zap.Logger) *SnapshotSystem {
	return &SnapshotSystem{sessions: sessions, engine: engine, outbound: outbound, frame: frame, log: log}
}

func (s *SnapshotSystem) Phase() coresys.Phase { return coresys.PhaseSnapshot }

func (s *SnapshotSystem) Update(_ time.Duration) error {
	live := s.outbound.Live()
	entities := make([]protocol.EntityState, 0, s.sessions.Len())
	s.sessions.Each(func(sess *session.Session) {
		if _, ok := live[sess.ID]; !ok {
			return
		}
		tr, ok := s.engine.Transform(sess.Handle)
		if !ok {
			s.log.Debug("transform lookup missed", zap.Uint64("conn", uint64(sess.ID)))
			return
		}
		entities = append(entities, protocol.EntityState{
			X:   tr.Position.X,
			Y:   tr.Position.Y,
			Cos: tr.Cos,
			Sin: tr.Sin,
		})
	})

	s.tick++
	// A fresh slice every tick: a published snapshot is never mutated.
	*s.frame = Frame{
		Snapshot: protocol.Snapshot{Tick: s.tick, Entities: entities},
		Ready:    true,
	}
	metrics.Tick.Set(float64(s.tick))
	return nil
}

// Tick returns the sequence number of the last snapshot built.
func (s *SnapshotSystem) Tick() uint64 { return s.tick }
