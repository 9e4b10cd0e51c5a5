// Package session binds connections to simulated bodies.
//
// The Registry is owned by the tick loop goroutine and is not safe for
// concurrent use. Every Session's handle denotes a live body in the engine;
// OnDisconnect breaks that only between removing the body and erasing the
// entry.
package session

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/l1jgo/arena/internal/core/ecs"
	"github.com/l1jgo/arena/internal/core/event"
	"github.com/l1jgo/arena/internal/metrics"
	"github.com/l1jgo/arena/internal/physics"
	"github.com/l1jgo/arena/internal/protocol"
	"github.com/l1jgo/arena/internal/spawn"
)

// ErrEngine wraps a body-creation failure. It is fatal to the tick loop.
var ErrEngine = errors.New("simulation engine failure")

// Session is the live binding between a connection and its body.
type Session struct {
	ID     event.ConnID
	Handle ecs.EntityID
	// Input is the last accepted input; zero until HasInput is set.
	Input    protocol.Input
	HasInput bool
}

// InputConfig bounds and scales inbound input.
type InputConfig struct {
	MaxComponent float64 // inputs with |x| or |y| above this are dropped
	Scale        float64 // velocity = input * Scale
}

type Registry struct {
	sessions map[event.ConnID]*Session
	engine   physics.Engine
	spawner  spawn.Policy
	input    InputConfig
	log      *zap.Logger
}

func NewRegistry(engine physics.Engine, spawner spawn.Policy, input InputConfig, log *zap.Logger) *Registry {
	return &Registry{
		sessions: make(map[event.ConnID]*Session, 64),
		engine:   engine,
		spawner:  spawner,
		input:    input,
		log:      log,
	}
}

// OnConnect creates the session and body for id. Connecting an id that
// already has a session is a no-op.
func (r *Registry) OnConnect(id event.ConnID) error {
	if _, ok := r.sessions[id]; ok {
		return nil
	}
	state, err := r.spawner.Spawn(id)
	if err != nil {
		return fmt.Errorf("%w: spawn conn %d: %v", ErrEngine, id, err)
	}
	handle, err := r.engine.CreateBody(state)
	if err != nil {
		return fmt.Errorf("%w: create body for conn %d: %v", ErrEngine, id, err)
	}
	r.sessions[id] = &Session{ID: id, Handle: handle}
	metrics.Sessions.Set(float64(len(r.sessions)))
	r.log.Debug("session created",
		zap.Uint64("conn", uint64(id)),
		zap.Float64("x", state.Position.X),
		zap.Float64("y", state.Position.Y),
	)
	return nil
}

// OnDisconnect removes id's body and session and reports whether there was
// one. Repeated calls are no-ops.
func (r *Registry) OnDisconnect(id event.ConnID) bool {
	s, ok := r.sessions[id]
	if !ok {
		return false
	}
	r.engine.RemoveBody(s.Handle)
	delete(r.sessions, id)
	metrics.Sessions.Set(float64(len(r.sessions)))
	r.log.Debug("session removed", zap.Uint64("conn", uint64(id)))
	return true
}

// OnInput applies a raw input frame to id's body. Frames for unknown ids and
// frames that fail to decode are dropped.
func (r *Registry) OnInput(id event.ConnID, payload []byte) {
	s, ok := r.sessions[id]
	if !ok {
		return
	}
	in, err := protocol.DecodeInput(payload, r.input.MaxComponent)
	if err != nil {
		metrics.InputsRejected.Inc()
		r.log.Debug("input dropped", zap.Uint64("conn", uint64(id)), zap.Error(err))
		return
	}
	v := physics.Vec2{X: in.X, Y: in.Y}.Scale(r.input.Scale)
	if !r.engine.SetVelocity(s.Handle, v) {
		return
	}
	s.Input = in
	s.HasInput = true
}

// Reconcile makes the session set match live, the connection IDs the
// transport currently holds. Sessions whose connection is gone are removed as
// if their Disconnect had arrived; live connections without a session get
// one as if their Connect had arrived. Both happen when the event queue
// overflowed.
func (r *Registry) Reconcile(live map[event.ConnID]struct{}) (removed, added []event.ConnID, err error) {
	for id := range r.sessions {
		if _, ok := live[id]; !ok {
			removed = append(removed, id)
		}
	}
	sortIDs(removed)
	for _, id := range removed {
		r.OnDisconnect(id)
	}

	for id := range live {
		if _, ok := r.sessions[id]; !ok {
			added = append(added, id)
		}
	}
	sortIDs(added)
	for _, id := range added {
		if err := r.OnConnect(id); err != nil {
			return removed, added, err
		}
	}

	if len(removed) > 0 {
		metrics.Reconciled.WithLabelValues("disconnect").Add(float64(len(removed)))
	}
	if len(added) > 0 {
		metrics.Reconciled.WithLabelValues("connect").Add(float64(len(added)))
	}
	return removed, added, nil
}

func (r *Registry) Get(id event.ConnID) (*Session, bool) {
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) Len() int { return len(r.sessions) }

// IDs returns every session's connection ID in ascending order.
func (r *Registry) IDs() []event.ConnID {
	ids := make([]event.ConnID, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

// Each visits sessions in ascending connection ID order.
func (r *Registry) Each(fn func(*Session)) {
	for _, id := range r.IDs() {
		fn(r.sessions[id])
	}
}

func sortIDs(ids []event.ConnID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
