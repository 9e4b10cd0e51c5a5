// Package spawn decides where a newly connected player's body appears.
package spawn

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/l1jgo/arena/internal/core/event"
	"github.com/l1jgo/arena/internal/physics"
)

// Policy produces the initial state for the body of connection id.
type Policy interface {
	Spawn(id event.ConnID) (physics.BodyState, error)
}

// Random drops bodies at a random point of a rectangle above the floor.
// The generator is seeded, so a replayed connect sequence spawns identically.
type Random struct {
	rng        *rand.Rand
	minX, maxX float64
	minY, maxY float64
}

// NewRandom spawns in x ∈ [-1, 1), y ∈ [0.5, 1).
func NewRandom(seed int64) *Random {
	return &Random{
		rng:  rand.New(rand.NewSource(seed)),
		minX: -1, maxX: 1,
		minY: 0.5, maxY: 1,
	}
}

func (r *Random) Spawn(event.ConnID) (physics.BodyState, error) {
	return physics.BodyState{
		Position: physics.Vec2{
			X: r.minX + r.rng.Float64()*(r.maxX-r.minX),
			Y: r.minY + r.rng.Float64()*(r.maxY-r.minY),
		},
	}, nil
}

// Fixed spawns every body at the same point.
type Fixed struct {
	Position physics.Vec2
}

func (f Fixed) Spawn(event.ConnID) (physics.BodyState, error) {
	return physics.BodyState{Position: f.Position}, nil
}

// WithFallback uses primary and falls back when it fails, so a broken spawn
// script never costs a player their session.
func WithFallback(primary, fallback Policy, log *zap.Logger) Policy {
	return &fallbackPolicy{primary: primary, fallback: fallback, log: log}
}

type fallbackPolicy struct {
	primary  Policy
	fallback Policy
	log      *zap.Logger
}

func (p *fallbackPolicy) Spawn(id event.ConnID) (physics.BodyState, error) {
	st, err := p.primary.Spawn(id)
	if err == nil {
		return st, nil
	}
	p.log.Warn("spawn policy failed, using fallback", zap.Uint64("conn", uint64(id)), zap.Error(err))
	return p.fallback.Spawn(id)
}
