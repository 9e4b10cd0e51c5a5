package physics

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StaticBox is one fixed box of arena geometry, given by its center and
// half extents.
type StaticBox struct {
	Name       string  `yaml:"name"`
	X          float64 `yaml:"x"`
	Y          float64 `yaml:"y"`
	Angle      float64 `yaml:"angle"`
	HalfWidth  float64 `yaml:"half_width"`
	HalfHeight float64 `yaml:"half_height"`
	Elasticity float64 `yaml:"elasticity"`
	Friction   float64 `yaml:"friction"`
}

// Arena is the static geometry every body collides with.
type Arena struct {
	Boxes []StaticBox `yaml:"boxes"`
}

// DefaultArena is a single 200 x 2 floor whose top surface sits at y = 0.
func DefaultArena() *Arena {
	return &Arena{
		Boxes: []StaticBox{{
			Name:       "ground",
			X:          0,
			Y:          -1,
			HalfWidth:  100,
			HalfHeight: 1,
			Elasticity: 1,
			Friction:   1,
		}},
	}
}

// LoadArena reads an arena layout from a YAML file.
func LoadArena(path string) (*Arena, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read arena %s: %w", path, err)
	}
	return ParseArena(raw)
}

func ParseArena(raw []byte) (*Arena, error) {
	var a Arena
	if err := yaml.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("parse arena: %w", err)
	}
	for i, b := range a.Boxes {
		if b.HalfWidth <= 0 || b.HalfHeight <= 0 {
			return nil, fmt.Errorf("arena box %d (%s): half extents must be positive", i, b.Name)
		}
		if !finite(b.X, b.Y, b.Angle) {
			return nil, fmt.Errorf("arena box %d (%s): non-finite placement", i, b.Name)
		}
	}
	return &a, nil
}
