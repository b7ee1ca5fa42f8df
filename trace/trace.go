package trace

import (
	"encoding/json"
	"io"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/objmodel/errors"
	"github.com/wippyai/objmodel/layout"
)

// Op names a trace operation.
type Op string

const (
	OpCreateRegion  Op = "create_region"
	OpCreateObject  Op = "create_object"
	OpDestroyObject Op = "destroy_object"
	OpCast          Op = "cast"
	OpAdd           Op = "add"
	OpDereference   Op = "dereference"
	OpDestroyRegion Op = "destroy_region"
)

// PtrRef names a pointer operand: either the pointer produced by an
// earlier operation, or the address of an object.
type PtrRef struct {
	// Result is the index of the operation whose pointer result to use.
	Result *int `json:"result,omitempty"`
	// Object takes the address of the object with this id.
	Object uint32 `json:"object,omitempty"`
}

// Record is one trace operation.
type Record struct {
	Op     Op      `json:"op"`
	Size   uint32  `json:"size,omitempty"`   // create_region
	Region uint32  `json:"region,omitempty"` // create_object, destroy_region
	Offset uint32  `json:"offset,omitempty"` // create_object
	Type   string  `json:"type,omitempty"`   // create_object, cast
	Object uint32  `json:"object,omitempty"` // destroy_object
	Ptr    *PtrRef `json:"ptr,omitempty"`    // cast, add, dereference
	N      int64   `json:"n,omitempty"`      // add
}

// TypeDef is the JSON form of a structural type. Elem and field types
// reference other entries of the type table, or builtin names.
//
// The enum and flags kinds are sized through the WIT canonical rules
// (layout.FromWIT) from their case count, so traces name those layouts
// instead of hand-writing discriminant widths.
type TypeDef struct {
	Kind   string     `json:"kind"` // byte, char, schar, int, uint, float, array, struct, enum, flags
	Width  uint32     `json:"width,omitempty"`
	Elem   string     `json:"elem,omitempty"`
	Count  uint32     `json:"count,omitempty"` // array length, or enum/flags case count
	Fields []FieldDef `json:"fields,omitempty"`
	Class  bool       `json:"class,omitempty"`
}

// FieldDef is one struct member in a TypeDef.
type FieldDef struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Trace is a decoded operation trace plus its type table.
type Trace struct {
	Types map[string]*TypeDef `json:"types,omitempty"`
	Ops   []Record            `json:"ops"`
}

// Decode reads a JSON trace.
func Decode(r io.Reader) (*Trace, error) {
	var t Trace
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&t); err != nil {
		return nil, errors.Wrap(errors.PhaseTrace, errors.KindInvalidTrace, err, "decode trace")
	}
	return &t, nil
}

// builtins are type names every trace may use without declaring them.
func builtins() map[string]*layout.Type {
	return map[string]*layout.Type{
		"byte":    layout.Byte(),
		"u8":      layout.Byte(),
		"char":    layout.Char(),
		"schar":   layout.SChar(),
		"int8":    layout.Int(1),
		"int16":   layout.Int(2),
		"int32":   layout.Int(4),
		"int64":   layout.Int(8),
		"int":     layout.Int(4),
		"uint16":  layout.UInt(2),
		"uint32":  layout.UInt(4),
		"uint64":  layout.UInt(8),
		"float32": layout.Float(4),
		"float64": layout.Float(8),
	}
}

// ResolveTypes builds layout descriptors for the trace's type table,
// seeded with the builtin names. References may point at builtins or other
// table entries; cycles are rejected.
func (t *Trace) ResolveTypes() (map[string]*layout.Type, error) {
	out := builtins()
	building := make(map[string]bool)

	var build func(name string) (*layout.Type, error)
	build = func(name string) (*layout.Type, error) {
		if typ, ok := out[name]; ok {
			return typ, nil
		}
		def, ok := t.Types[name]
		if !ok {
			return nil, errors.InvalidTrace("unknown type %q", name)
		}
		if building[name] {
			return nil, errors.InvalidTrace("type %q is recursively defined", name)
		}
		building[name] = true
		defer delete(building, name)

		var typ *layout.Type
		switch def.Kind {
		case "byte":
			typ = layout.Byte()
		case "char":
			typ = layout.Char()
		case "schar":
			typ = layout.SChar()
		case "int":
			typ = layout.Int(def.Width)
		case "uint":
			typ = layout.UInt(def.Width)
		case "float":
			typ = layout.Float(def.Width)
		case "array":
			elem, err := build(def.Elem)
			if err != nil {
				return nil, err
			}
			typ = layout.ArrayOf(elem, def.Count)
		case "struct":
			fields := make([]layout.Field, 0, len(def.Fields))
			for _, f := range def.Fields {
				ft, err := build(f.Type)
				if err != nil {
					return nil, err
				}
				fields = append(fields, layout.Field{Name: f.Name, Type: ft})
			}
			typ = layout.StructOf(name, fields...)
			typ.Class = def.Class
		case "enum", "flags":
			if def.Count == 0 {
				return nil, errors.InvalidTrace("type %q: %s needs a case count", name, def.Kind)
			}
			var kind wit.TypeDefKind
			if def.Kind == "enum" {
				kind = &wit.Enum{Cases: make([]wit.EnumCase, def.Count)}
			} else {
				kind = &wit.Flags{Flags: make([]wit.Flag, def.Count)}
			}
			wt, err := layout.FromWIT(&wit.TypeDef{Name: &name, Kind: kind})
			if err != nil {
				return nil, err
			}
			typ = wt
		default:
			return nil, errors.InvalidTrace("type %q has unknown kind %q", name, def.Kind)
		}

		out[name] = typ
		return typ, nil
	}

	for name := range t.Types {
		if _, err := build(name); err != nil {
			return nil, err
		}
	}
	return out, nil
}
