package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/l1jgo/arena/internal/core/system"
	"github.com/l1jgo/arena/internal/session"
)

// ReconcileSystem heals the session registry against the outbound registry
// every `every` ticks, covering Connect and Disconnect events the event
// queue dropped. Phase 1 (Reconcile).
type ReconcileSystem struct {
	sessions *session.Registry
	outbound Outbound
	every    int
	count    int
	log      *zap.Logger
}

func NewReconcileSystem(sessions *session.Registry, outbound Outbound, every int, log *zap.Logger) *ReconcileSystem {
	if every < 1 {
		every = 1
	}
	return &ReconcileSystem{sessions: sessions, outbound: outbound, every: every, log: log}
}

func (s *ReconcileSystem) Phase() coresys.Phase { return coresys.PhaseReconcile }

func (s *ReconcileSystem) Update(_ time.Duration) error {
	s.count++
	if s.count < s.every {
		return nil
	}
	s.count = 0

	removed, added, err := s.sessions.Reconcile(s.outbound.Live())
	if len(removed) > 0 || len(added) > 0 {
		s.log.Info("sessions reconciled",
			zap.Int("removed", len(removed)),
			zap.Int("added", len(added)),
			zap.Int("players", s.sessions.Len()),
		)
	}
	return err
}
