// Package scene models the remote scene-graph operations the bridge submits
// and the snapshots it reads back. Operation and field variants are closed
// unions; the encode boundary handles every kind exhaustively and rejects
// anything outside the taxonomy.
package scene

import (
	"encoding/json"
	"fmt"

	"ballpit/bridge/internal/world"
)

// OpKind identifies the remote operation variant.
type OpKind string

const (
	// OpCreateSlot creates a node in the remote scene graph.
	OpCreateSlot OpKind = "createSlot"
	// OpCreateComponent attaches a typed component to an existing slot.
	OpCreateComponent OpKind = "createComponent"
	// OpUpdateSlot rewrites fields on an existing slot.
	OpUpdateSlot OpKind = "updateSlot"
	// OpRemoveSlot deletes a slot and everything attached to it.
	OpRemoveSlot OpKind = "removeSlot"
)

// Component type identifiers shared with the remote side.
const (
	ComponentSphereMesh     = "proceduralSphereMesh"
	ComponentSphereCollider = "sphereCollider"
	ComponentMeshRenderer   = "meshRenderer"
	ComponentBoxCollider    = "boxCollider"
	ComponentMaterial       = "metallicMaterial"
)

// Field names read or written by more than one package.
const (
	FieldNamePosition = "position"
	FieldNameRotation = "rotation"
	FieldNameSize     = "size"
)

// Operation is one remote mutation. ID is the identifier the operation
// targets; SlotID and ComponentType are populated for component creation
// only. Operations expose the identifiers they declare and reference so the
// submission-order invariant is checkable by construction.
type Operation struct {
	Kind          OpKind
	ID            string
	SlotID        string
	ComponentType string
	Fields        []Field
}

// CreateSlot builds a slot-creation operation.
func CreateSlot(id string, fields ...Field) Operation {
	return Operation{Kind: OpCreateSlot, ID: id, Fields: fields}
}

// CreateComponent builds a component-creation operation attached to slotID.
func CreateComponent(id, slotID, componentType string, fields ...Field) Operation {
	return Operation{
		Kind:          OpCreateComponent,
		ID:            id,
		SlotID:        slotID,
		ComponentType: componentType,
		Fields:        fields,
	}
}

// UpdateSlot builds a field-update operation for an existing slot.
func UpdateSlot(id string, fields ...Field) Operation {
	return Operation{Kind: OpUpdateSlot, ID: id, Fields: fields}
}

// RemoveSlot builds a removal operation for an existing slot.
func RemoveSlot(id string) Operation {
	return Operation{Kind: OpRemoveSlot, ID: id}
}

// Declares lists identifiers this operation brings into existence.
func (op Operation) Declares() []string {
	switch op.Kind {
	case OpCreateSlot, OpCreateComponent:
		return []string{op.ID}
	default:
		return nil
	}
}

// References lists identifiers this operation requires to already exist.
func (op Operation) References() []string {
	var refs []string
	switch op.Kind {
	case OpCreateComponent:
		refs = append(refs, op.SlotID)
	case OpUpdateSlot, OpRemoveSlot:
		refs = append(refs, op.ID)
	}
	for _, field := range op.Fields {
		switch field.Kind {
		case FieldRef:
			refs = append(refs, field.Ref)
		case FieldRefList:
			refs = append(refs, field.Refs...)
		}
	}
	return refs
}

// MarshalJSON renders the wire frame for the operation variant.
func (op Operation) MarshalJSON() ([]byte, error) {
	switch op.Kind {
	case OpCreateSlot:
		frame := struct {
			Op     OpKind  `json:"op"`
			ID     string  `json:"id"`
			Fields []Field `json:"fields,omitempty"`
		}{Op: op.Kind, ID: op.ID, Fields: op.Fields}
		return json.Marshal(frame)
	case OpCreateComponent:
		frame := struct {
			Op            OpKind  `json:"op"`
			ID            string  `json:"id"`
			SlotID        string  `json:"slot"`
			ComponentType string  `json:"componentType"`
			Fields        []Field `json:"fields,omitempty"`
		}{Op: op.Kind, ID: op.ID, SlotID: op.SlotID, ComponentType: op.ComponentType, Fields: op.Fields}
		return json.Marshal(frame)
	case OpUpdateSlot:
		frame := struct {
			Op     OpKind  `json:"op"`
			ID     string  `json:"id"`
			Fields []Field `json:"fields,omitempty"`
		}{Op: op.Kind, ID: op.ID, Fields: op.Fields}
		return json.Marshal(frame)
	case OpRemoveSlot:
		frame := struct {
			Op OpKind `json:"op"`
			ID string `json:"id"`
		}{Op: op.Kind, ID: op.ID}
		return json.Marshal(frame)
	default:
		return nil, fmt.Errorf("unknown operation kind %q", op.Kind)
	}
}

// ValidateOrdering checks that every referenced identifier was declared by an
// earlier operation in ops or belongs to the known set (identifiers created
// by earlier batches).
func ValidateOrdering(ops []Operation, known []string) error {
	declared := make(map[string]struct{}, len(ops)+len(known))
	for _, id := range known {
		declared[id] = struct{}{}
	}
	for i, op := range ops {
		for _, ref := range op.References() {
			if ref == "" {
				return fmt.Errorf("operation %d (%s) carries an empty reference", i, op.Kind)
			}
			if _, ok := declared[ref]; !ok {
				return fmt.Errorf("operation %d (%s) references %q before its creation", i, op.Kind, ref)
			}
		}
		for _, id := range op.Declares() {
			declared[id] = struct{}{}
		}
	}
	return nil
}

// FieldKind identifies the payload variant carried by a field.
type FieldKind string

const (
	FieldFloat      FieldKind = "float"
	FieldInt        FieldKind = "int"
	FieldBool       FieldKind = "bool"
	FieldString     FieldKind = "string"
	FieldVector3    FieldKind = "vector3"
	FieldQuaternion FieldKind = "quaternion"
	FieldColor      FieldKind = "color"
	FieldRef        FieldKind = "ref"
	FieldRefList    FieldKind = "refList"
)

// Field is one typed value on an operation or component snapshot. Exactly one
// payload member is meaningful, selected by Kind.
type Field struct {
	Name       string
	Kind       FieldKind
	Float      float64
	Int        int64
	Bool       bool
	String     string
	Vector     world.Vec3
	Quaternion world.Quat
	Color      Color
	Ref        string
	Refs       []string
}

// FloatField builds a scalar float field.
func FloatField(name string, value float64) Field {
	return Field{Name: name, Kind: FieldFloat, Float: value}
}

// IntField builds a scalar integer field.
func IntField(name string, value int64) Field {
	return Field{Name: name, Kind: FieldInt, Int: value}
}

// BoolField builds a boolean field.
func BoolField(name string, value bool) Field {
	return Field{Name: name, Kind: FieldBool, Bool: value}
}

// StringField builds a string field.
func StringField(name, value string) Field {
	return Field{Name: name, Kind: FieldString, String: value}
}

// VectorField builds a 3-vector field.
func VectorField(name string, value world.Vec3) Field {
	return Field{Name: name, Kind: FieldVector3, Vector: value}
}

// QuaternionField builds a rotation field.
func QuaternionField(name string, value world.Quat) Field {
	return Field{Name: name, Kind: FieldQuaternion, Quaternion: value}
}

// ColorField builds a color field carrying its color-space profile.
func ColorField(name string, value Color) Field {
	return Field{Name: name, Kind: FieldColor, Color: value}
}

// RefField builds a reference-by-identifier field.
func RefField(name, target string) Field {
	return Field{Name: name, Kind: FieldRef, Ref: target}
}

// RefListField builds a list-of-references field.
func RefListField(name string, targets ...string) Field {
	return Field{Name: name, Kind: FieldRefList, Refs: targets}
}

type fieldFrame struct {
	Name  string          `json:"name"`
	Type  FieldKind       `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON renders the wire frame for the field variant.
func (f Field) MarshalJSON() ([]byte, error) {
	var value any
	switch f.Kind {
	case FieldFloat:
		value = f.Float
	case FieldInt:
		value = f.Int
	case FieldBool:
		value = f.Bool
	case FieldString:
		value = f.String
	case FieldVector3:
		value = f.Vector
	case FieldQuaternion:
		value = f.Quaternion
	case FieldColor:
		value = f.Color
	case FieldRef:
		value = f.Ref
	case FieldRefList:
		refs := f.Refs
		if refs == nil {
			refs = []string{}
		}
		value = refs
	default:
		return nil, fmt.Errorf("unknown field kind %q", f.Kind)
	}
	frame := struct {
		Name  string    `json:"name"`
		Type  FieldKind `json:"type"`
		Value any       `json:"value"`
	}{Name: f.Name, Type: f.Kind, Value: value}
	return json.Marshal(frame)
}

// UnmarshalJSON decodes a field frame back into the typed union.
func (f *Field) UnmarshalJSON(payload []byte) error {
	var frame fieldFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		return err
	}
	decoded := Field{Name: frame.Name, Kind: frame.Type}
	var err error
	switch frame.Type {
	case FieldFloat:
		err = json.Unmarshal(frame.Value, &decoded.Float)
	case FieldInt:
		err = json.Unmarshal(frame.Value, &decoded.Int)
	case FieldBool:
		err = json.Unmarshal(frame.Value, &decoded.Bool)
	case FieldString:
		err = json.Unmarshal(frame.Value, &decoded.String)
	case FieldVector3:
		err = json.Unmarshal(frame.Value, &decoded.Vector)
	case FieldQuaternion:
		err = json.Unmarshal(frame.Value, &decoded.Quaternion)
	case FieldColor:
		err = json.Unmarshal(frame.Value, &decoded.Color)
	case FieldRef:
		err = json.Unmarshal(frame.Value, &decoded.Ref)
	case FieldRefList:
		err = json.Unmarshal(frame.Value, &decoded.Refs)
	default:
		return fmt.Errorf("unknown field kind %q", frame.Type)
	}
	if err != nil {
		return fmt.Errorf("decode %s field %q: %w", frame.Type, frame.Name, err)
	}
	*f = decoded
	return nil
}

// OperationResult is the remote verdict for one submitted operation.
type OperationResult struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// BatchOutcome carries per-operation results, ordered 1:1 with submission.
type BatchOutcome struct {
	Results []OperationResult `json:"results"`
}
