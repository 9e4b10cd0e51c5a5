package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/arena/internal/core/event"
	coresys "github.com/l1jgo/arena/internal/core/system"
	"github.com/l1jgo/arena/internal/metrics"
	"github.com/l1jgo/arena/internal/session"
)

// InputSystem drains the event queue and applies each event to the session
// registry in arrival order. Phase 0 (Input).
type InputSystem struct {
	queue    *event.Queue
	sessions *session.Registry
	outbound Outbound
	log      *zap.Logger
}

func NewInputSystem(queue *event.Queue, sessions *session.Registry, outbound Outbound, log *zap.Logger) *InputSystem {
	return &InputSystem{queue: queue, sessions: sessions, outbound: outbound, log: log}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

// Update stops applying events after a fatal engine error but still drains
// the queue, so the error is reported once with the queue left empty.
func (s *InputSystem) Update(_ time.Duration) error {
	var fatal error
	s.queue.Drain(func(ev event.Event) {
		if fatal != nil {
			return
		}
		metrics.EventsProcessed.WithLabelValues(ev.Kind.String()).Inc()

		switch ev.Kind {
		case event.KindConnect:
			before := s.sessions.Len()
			if err := s.sessions.OnConnect(ev.Conn); err != nil {
				fatal = err
				return
			}
			if s.sessions.Len() != before {
				s.logCounts("player joined", ev.Conn)
			}
		case event.KindDisconnect:
			if s.sessions.OnDisconnect(ev.Conn) {
				s.logCounts("player left", ev.Conn)
			}
		case event.KindInput:
			s.sessions.OnInput(ev.Conn, ev.Payload)
		default:
			s.log.Debug("unknown event kind", zap.Uint8("kind", uint8(ev.Kind)))
		}
	})
	return fatal
}

func (s *InputSystem) logCounts(msg string, id event.ConnID) {
	s.log.Info(msg,
		zap.Uint64("conn", uint64(id)),
		zap.Int("players", s.sessions.Len()),
		zap.Int("connections", s.outbound.Len()),
	)
}
