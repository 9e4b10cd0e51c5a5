package physics

import (
	"fmt"
	"math"

	"github.com/jakecoffman/cp"
	"go.uber.org/zap"

	"github.com/l1jgo/arena/internal/core/ecs"
)

// BodyTemplate shapes every dynamic body the engine creates.
type BodyTemplate struct {
	HalfWidth      float64
	HalfHeight     float64
	Density        float64
	Elasticity     float64
	Friction       float64
	// AngularDamping is the angular damping rate per second, applied on top
	// of the space's damping: spin decays by exp(-AngularDamping*t).
	AngularDamping float64
}

// DefaultBodyTemplate is a 0.6 x 0.4 box of unit density.
func DefaultBodyTemplate() BodyTemplate {
	return BodyTemplate{
		HalfWidth:      0.3,
		HalfHeight:     0.2,
		Density:        1,
		Elasticity:     0.45,
		Friction:       0.5,
		AngularDamping: 2,
	}
}

// Params fixes the integration parameters for the life of a Space.
type Params struct {
	Gravity Vec2
	// Damping is the linear damping rate per second; velocity decays by
	// exp(-Damping*t).
	Damping float64
	// Step is the fixed step length in seconds.
	Step float64
	Body BodyTemplate
}

// Space is an Engine backed by a Chipmunk2D space.
type Space struct {
	space  *cp.Space
	world  *ecs.World
	bodies *ecs.Store[cp.Body]
	params Params
	log    *zap.Logger
}

var _ Engine = (*Space)(nil)

// NewSpace builds a space with the static geometry of arena.
func NewSpace(params Params, arena *Arena, log *zap.Logger) (*Space, error) {
	if params.Step <= 0 || math.IsNaN(params.Step) {
		return nil, fmt.Errorf("physics: step must be positive, got %v", params.Step)
	}
	if params.Body.HalfWidth <= 0 || params.Body.HalfHeight <= 0 || params.Body.Density <= 0 {
		return nil, fmt.Errorf("physics: body template must have positive size and density")
	}
	if params.Body.AngularDamping < 0 || !finite(params.Body.AngularDamping) {
		return nil, fmt.Errorf("physics: angular damping must be a non-negative number, got %v", params.Body.AngularDamping)
	}

	space := cp.NewSpace()
	space.SetGravity(cp.Vector{X: params.Gravity.X, Y: params.Gravity.Y})
	space.SetDamping(math.Exp(-params.Damping))

	s := &Space{
		space:  space,
		world:  ecs.NewWorld(),
		bodies: ecs.NewStore[cp.Body](),
		params: params,
		log:    log,
	}
	s.world.Registry().Register(s.bodies)

	if arena != nil {
		for _, b := range arena.Boxes {
			s.addStaticBox(b)
		}
		log.Debug("arena loaded", zap.Int("boxes", len(arena.Boxes)))
	}
	return s, nil
}

func (s *Space) addStaticBox(b StaticBox) {
	body := cp.NewStaticBody()
	body.SetPosition(cp.Vector{X: b.X, Y: b.Y})
	body.SetAngle(b.Angle)
	s.space.AddBody(body)

	shape := cp.NewBox(body, 2*b.HalfWidth, 2*b.HalfHeight, 0)
	shape.SetElasticity(b.Elasticity)
	shape.SetFriction(b.Friction)
	s.space.AddShape(shape)
}

func (s *Space) CreateBody(state BodyState) (ecs.EntityID, error) {
	if !finite(state.Position.X, state.Position.Y, state.Angle, state.Velocity.X, state.Velocity.Y) {
		return 0, fmt.Errorf("%w: non-finite %+v", ErrInvalidBody, state)
	}

	tmpl := s.params.Body
	w, h := 2*tmpl.HalfWidth, 2*tmpl.HalfHeight
	mass := tmpl.Density * w * h

	body := cp.NewBody(mass, cp.MomentForBox(mass, w, h))
	body.SetPosition(cp.Vector{X: state.Position.X, Y: state.Position.Y})
	body.SetAngle(state.Angle)
	body.SetVelocity(state.Velocity.X, state.Velocity.Y)
	if tmpl.AngularDamping > 0 {
		body.SetVelocityUpdateFunc(angularDamper(tmpl.AngularDamping))
	}
	s.space.AddBody(body)

	shape := cp.NewBox(body, w, h, 0)
	shape.SetElasticity(tmpl.Elasticity)
	shape.SetFriction(tmpl.Friction)
	s.space.AddShape(shape)

	id := s.world.CreateEntity()
	s.bodies.Set(id, body)
	return id, nil
}

// angularDamper integrates velocity as usual, then decays spin by
// exp(-rate*dt).
func angularDamper(rate float64) cp.BodyVelocityFunc {
	return func(body *cp.Body, gravity cp.Vector, damping, dt float64) {
		cp.BodyUpdateVelocity(body, gravity, damping, dt)
		body.SetAngularVelocity(body.AngularVelocity() * math.Exp(-rate*dt))
	}
}

func (s *Space) RemoveBody(id ecs.EntityID) bool {
	body, ok := s.bodies.Get(id)
	if !ok {
		return false
	}
	var shapes []*cp.Shape
	body.EachShape(func(shape *cp.Shape) {
		shapes = append(shapes, shape)
	})
	for _, shape := range shapes {
		s.space.RemoveShape(shape)
	}
	s.space.RemoveBody(body)
	return s.world.Destroy(id)
}

func (s *Space) SetVelocity(id ecs.EntityID, v Vec2) bool {
	body, ok := s.bodies.Get(id)
	if !ok || !finite(v.X, v.Y) {
		return false
	}
	body.SetVelocity(v.X, v.Y)
	return true
}

// Velocity reports a body's current linear velocity.
func (s *Space) Velocity(id ecs.EntityID) (Vec2, bool) {
	body, ok := s.bodies.Get(id)
	if !ok {
		return Vec2{}, false
	}
	v := body.Velocity()
	return Vec2{X: v.X, Y: v.Y}, true
}

func (s *Space) Step() {
	s.space.Step(s.params.Step)
}

func (s *Space) Transform(id ecs.EntityID) (Transform, bool) {
	body, ok := s.bodies.Get(id)
	if !ok {
		return Transform{}, false
	}
	pos := body.Position()
	rot := body.Rotation()
	return Transform{
		Position: Vec2{X: pos.X, Y: pos.Y},
		Cos:      rot.X,
		Sin:      rot.Y,
	}, true
}

func (s *Space) Alive(id ecs.EntityID) bool { return s.world.Alive(id) }

func (s *Space) Len() int { return s.world.Len() }

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
