package scene

import "ballpit/bridge/internal/world"

// ComponentSnapshot is a read-only view of one component attached to a
// remote slot.
type ComponentSnapshot struct {
	ID     string  `json:"id,omitempty"`
	Type   string  `json:"type"`
	Fields []Field `json:"fields,omitempty"`
}

// Field returns the named field when present.
func (c ComponentSnapshot) Field(name string) (Field, bool) {
	for _, field := range c.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// SlotSnapshot is a recursively-fetched read-only view of a remote node.
// ReferenceOnly marks a placeholder whose subtree was not expanded inline and
// must be fetched separately before inspection.
type SlotSnapshot struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Active        bool                `json:"active"`
	Persistent    bool                `json:"persistent"`
	Position      world.Vec3          `json:"position"`
	Rotation      world.Quat          `json:"rotation"`
	Scale         world.Vec3          `json:"scale"`
	Components    []ComponentSnapshot `json:"components,omitempty"`
	Children      []SlotSnapshot      `json:"children,omitempty"`
	ReferenceOnly bool                `json:"referenceOnly,omitempty"`
}
