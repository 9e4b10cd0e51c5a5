package system

import (
	"time"

	coresys "github.com/l1jgo/arena/internal/core/system"
	"github.com/l1jgo/arena/internal/physics"
)

// PhysicsSystem advances the engine by one fixed step per tick, whatever
// wall time the tick actually took. Phase 2 (Step).
type PhysicsSystem struct {
	engine physics.Engine
}

func NewPhysicsSystem(engine physics.Engine) *PhysicsSystem {
	return &PhysicsSystem{engine: engine}
}

func (s *PhysicsSystem) Phase() coresys.Phase { return coresys.PhaseStep }

func (s *PhysicsSystem) Update(_ time.Duration) error {
	s.engine.Step()
	return nil
}
