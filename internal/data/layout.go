// Package data loads designer-authored static geometry for the local
// simulation. Layout boxes only exist locally; the remote scene already
// visualizes its own geometry.
package data

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"ballpit/bridge/internal/world"
)

// VecEntry is a vector as authored in the layout document.
type VecEntry struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	Z float64 `yaml:"z" json:"z"`
}

// Vec converts the entry to a world vector.
func (e VecEntry) Vec() world.Vec3 {
	return world.Vec3{X: e.X, Y: e.Y, Z: e.Z}
}

// BoxEntry is one static collidable box. Rotation is authored as a yaw in
// degrees; full orientations come from remote discovery, not the layout file.
type BoxEntry struct {
	Name       string   `yaml:"name" json:"name,omitempty"`
	Position   VecEntry `yaml:"position" json:"position"`
	Size       VecEntry `yaml:"size" json:"size"`
	YawDegrees float64  `yaml:"yaw_degrees" json:"yaw_degrees,omitempty"`
}

// Rotation returns the entry's yaw as a quaternion.
func (e BoxEntry) Rotation() world.Quat {
	return world.FromAxisAngle(world.Vec3{Y: 1}, e.YawDegrees*math.Pi/180)
}

// Layout is the static-geometry document for one bridge run.
type Layout struct {
	Name  string     `yaml:"name" json:"name,omitempty"`
	Boxes []BoxEntry `yaml:"boxes" json:"boxes"`
}

// LoadLayout loads a layout document from a YAML file.
func LoadLayout(path string) (*Layout, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	var layout Layout
	if err := yaml.Unmarshal(raw, &layout); err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	for i := range layout.Boxes {
		box := &layout.Boxes[i]
		if box.Name == "" {
			box.Name = fmt.Sprintf("box_%d", i)
		}
		if box.Size.X <= 0 || box.Size.Y <= 0 || box.Size.Z <= 0 {
			return nil, fmt.Errorf("layout box %d (%s): size must be positive on every axis", i, box.Name)
		}
	}
	return &layout, nil
}

// DefaultLayout is the floor the demo scene drops its balls onto, used when
// no layout file is configured.
func DefaultLayout() *Layout {
	return &Layout{
		Name: "default",
		Boxes: []BoxEntry{
			{
				Name:     "floor",
				Position: VecEntry{Y: -0.5},
				Size:     VecEntry{X: 20, Y: 1, Z: 20},
			},
		},
	}
}
