// Package physics is the simulation engine behind the tick loop. Bodies are
// addressed by generational entity handles; the engine is not safe for
// concurrent use and is driven only from the tick loop goroutine.
package physics

import (
	"errors"

	"github.com/l1jgo/arena/internal/core/ecs"
)

// ErrInvalidBody is returned when a body cannot be created from the given state.
var ErrInvalidBody = errors.New("invalid body state")

type Vec2 struct {
	X, Y float64
}

func (v Vec2) Scale(f float64) Vec2 { return Vec2{X: v.X * f, Y: v.Y * f} }

// Transform is a body's position plus its rotation as (cos, sin).
type Transform struct {
	Position Vec2
	Cos, Sin float64
}

// BodyState is the initial state of a new dynamic body.
type BodyState struct {
	Position Vec2
	Angle    float64
	Velocity Vec2
}

// Engine is the contract the tick loop relies on.
type Engine interface {
	CreateBody(state BodyState) (ecs.EntityID, error)
	// RemoveBody drops the body and all of its shapes. Unknown handles are ignored.
	RemoveBody(id ecs.EntityID) bool
	SetVelocity(id ecs.EntityID, v Vec2) bool
	// Step advances the simulation by one fixed step.
	Step()
	Transform(id ecs.EntityID) (Transform, bool)
	Alive(id ecs.EntityID) bool
	Len() int
}
