// Package protocol defines the JSON frames exchanged with clients.
//
// Inbound, a client sends its steering direction:
//
//	{"x": 1.0, "y": 0.0}
//
// Outbound, every tick the server sends the transform of every live entity
// followed by the tick sequence number:
//
//	[[[x, y, cos, sin], ...], tick]
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var (
	ErrMalformed  = errors.New("malformed input")
	ErrOutOfRange = errors.New("input out of range")
)

// Input is a 2D direction command from one client.
type Input struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type wireInput struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

// DecodeInput parses an inbound frame. Both components must be present and
// within [-limit, limit].
func DecodeInput(data []byte, limit float64) (Input, error) {
	var w wireInput
	if err := json.Unmarshal(data, &w); err != nil {
		return Input{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if w.X == nil || w.Y == nil {
		return Input{}, fmt.Errorf("%w: x and y are required", ErrMalformed)
	}
	in := Input{X: *w.X, Y: *w.Y}
	if !inRange(in.X, limit) || !inRange(in.Y, limit) {
		return Input{}, fmt.Errorf("%w: (%g, %g) exceeds %g", ErrOutOfRange, in.X, in.Y, limit)
	}
	return in, nil
}

func inRange(v, limit float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && math.Abs(v) <= limit
}

// EntityState is one entity's position and orientation. The rotation is
// given as the unit complex number (cos, sin).
type EntityState struct {
	X, Y     float64
	Cos, Sin float64
}

func (e EntityState) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]float64{e.X, e.Y, e.Cos, e.Sin})
}

func (e *EntityState) UnmarshalJSON(data []byte) error {
	var v [4]float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	e.X, e.Y, e.Cos, e.Sin = v[0], v[1], v[2], v[3]
	return nil
}

// Snapshot is the immutable per-tick broadcast. Entities are ordered by
// connection ID.
type Snapshot struct {
	Tick     uint64
	Entities []EntityState
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	entities := s.Entities
	if entities == nil {
		entities = []EntityState{}
	}
	return json.Marshal([]any{entities, s.Tick})
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) != 2 {
		return fmt.Errorf("snapshot: want 2 elements, got %d", len(parts))
	}
	if err := json.Unmarshal(parts[0], &s.Entities); err != nil {
		return fmt.Errorf("snapshot entities: %w", err)
	}
	if err := json.Unmarshal(parts[1], &s.Tick); err != nil {
		return fmt.Errorf("snapshot tick: %w", err)
	}
	return nil
}
