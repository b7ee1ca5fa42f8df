package layout

import (
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/objmodel/errors"
)

// FromWIT converts a WIT type into a structural descriptor, so conformance
// traces can name aggregate layouts in WIT instead of hand-writing offset
// tables. Only types with a direct in-place representation convert; strings,
// lists, and resources carry indirection and are rejected.
func FromWIT(t wit.Type) (*Type, error) {
	switch typ := t.(type) {
	case wit.U8, wit.Bool:
		return Byte(), nil
	case wit.S8:
		return SChar(), nil
	case wit.U16:
		return UInt(2), nil
	case wit.S16:
		return Int(2), nil
	case wit.U32, wit.Char:
		return UInt(4), nil
	case wit.S32:
		return Int(4), nil
	case wit.U64:
		return UInt(8), nil
	case wit.S64:
		return Int(8), nil
	case wit.F32:
		return Float(4), nil
	case wit.F64:
		return Float(8), nil
	case *wit.TypeDef:
		return fromTypeDef(typ)
	default:
		return nil, errors.Unsupported(errors.PhaseLayout, "WIT type has no in-place representation")
	}
}

func fromTypeDef(t *wit.TypeDef) (*Type, error) {
	name := ""
	if t.Name != nil {
		name = *t.Name
	}

	switch kind := t.Kind.(type) {
	case *wit.Record:
		fields := make([]Field, 0, len(kind.Fields))
		for _, f := range kind.Fields {
			ft, err := FromWIT(f.Type)
			if err != nil {
				return nil, errors.Wrap(errors.PhaseLayout, errors.KindUnsupported, err, "record field "+f.Name)
			}
			fields = append(fields, Field{Name: f.Name, Type: ft})
		}
		return StructOf(name, fields...), nil
	case *wit.Tuple:
		fields := make([]Field, 0, len(kind.Types))
		for i, tt := range kind.Types {
			ft, err := FromWIT(tt)
			if err != nil {
				return nil, errors.Wrap(errors.PhaseLayout, errors.KindUnsupported, err, "tuple element")
			}
			fields = append(fields, Field{Name: tupleField(i), Type: ft})
		}
		return StructOf(name, fields...), nil
	case *wit.Enum:
		return UInt(discriminantSize(len(kind.Cases))), nil
	case *wit.Flags:
		n := len(kind.Flags)
		switch {
		case n == 0:
			return nil, errors.InvalidLayout(name, "flags with no cases")
		case n <= 8:
			return Byte(), nil
		case n <= 16:
			return UInt(2), nil
		case n <= 32:
			return UInt(4), nil
		case n <= 64:
			return UInt(8), nil
		}
		return ArrayOf(UInt(4), uint32((n+31)/32)), nil
	case wit.Type:
		return FromWIT(kind)
	default:
		return nil, errors.Unsupported(errors.PhaseLayout, "WIT kind has no in-place representation")
	}
}

func discriminantSize(numCases int) uint32 {
	switch {
	case numCases <= 256:
		return 1
	case numCases <= 65536:
		return 2
	default:
		return 4
	}
}

func tupleField(i int) string {
	const digits = "0123456789"
	if i < 10 {
		return "f" + digits[i:i+1]
	}
	return "f" + digits[i/10:i/10+1] + digits[i%10:i%10+1]
}
