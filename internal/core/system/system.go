package system

import "time"

// Phase defines execution order within a single tick.
type Phase int

const (
	PhaseInput     Phase = iota // 0: drain the event queue
	PhaseReconcile              // 1: heal sessions against live connections
	PhaseStep                   // 2: advance the simulation one fixed step
	PhaseSnapshot               // 3: capture entity transforms
	PhaseOutput                 // 4: fan the snapshot out to connections
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhaseReconcile:
		return "reconcile"
	case PhaseStep:
		return "step"
	case PhaseSnapshot:
		return "snapshot"
	case PhaseOutput:
		return "output"
	}
	return "unknown"
}

// System is one unit of per-tick work. A non-nil error from Update is fatal
// to the tick loop; recoverable conditions must be handled inside the system.
type System interface {
	Phase() Phase
	Update(dt time.Duration) error
}
