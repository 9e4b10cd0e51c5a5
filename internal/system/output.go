package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/arena/internal/broadcast"
	coresys "github.com/l1jgo/arena/internal/core/system"
)

// OutputSystem publishes the tick's snapshot to every registered connection.
// Phase 4 (Output).
type OutputSystem struct {
	sink     *broadcast.Sink
	outbound Outbound
	frame    *Frame
	log      *zap.Logger
}

func NewOutputSystem(sink *broadcast.Sink, outbound Outbound, frame *Frame, log *zap.Logger) *OutputSystem {
	return &OutputSystem{sink: sink, outbound: outbound, frame: frame, log: log}
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(_ time.Duration) error {
	if !s.frame.Ready {
		return nil
	}
	s.frame.Ready = false

	if _, err := s.sink.Publish(s.frame.Snapshot, s.outbound.Targets()); err != nil {
		// An unencodable snapshot only costs this tick's broadcast.
		s.log.Warn("snapshot not published", zap.Error(err))
	}
	return nil
}
