package layout

import (
	"math"

	"github.com/wippyai/objmodel/errors"
)

// Subobject is a nested object location within an aggregate.
type Subobject struct {
	Offset uint32
	Type   *Type
}

// Info is the oracle's answer for one type.
type Info struct {
	Size             uint32
	Align            uint32
	Contiguous       bool
	SelfRepresenting bool
	ByteLike         bool
	Subobjects       []Subobject
}

// Oracle answers layout queries. The default implementation is Calc;
// drivers may substitute a table of precomputed answers.
type Oracle interface {
	LayoutOf(t *Type) (Info, error)
}

// Calc computes layouts structurally with a per-descriptor cache.
type Calc struct {
	cache map[*Type]Info
}

// NewCalc creates a layout calculator.
func NewCalc() *Calc {
	return &Calc{
		cache: make(map[*Type]Info),
	}
}

// LayoutOf implements Oracle.
func (c *Calc) LayoutOf(t *Type) (Info, error) {
	if t == nil {
		return Info{}, errors.InvalidLayout("nil", "nil type descriptor")
	}
	if cached, ok := c.cache[t]; ok {
		return cached, nil
	}

	info, err := c.compute(t)
	if err != nil {
		return Info{}, err
	}

	info.Contiguous = !t.NonContiguous
	info.SelfRepresenting = t.SelfRepresenting()
	info.ByteLike = t.ByteLike()

	c.cache[t] = info
	return info, nil
}

func (c *Calc) compute(t *Type) (Info, error) {
	switch t.Kind {
	case KindByte, KindChar, KindSChar:
		return Info{Size: 1, Align: 1}, nil
	case KindInt, KindUInt:
		switch t.Width {
		case 1, 2, 4, 8:
			return Info{Size: t.Width, Align: t.Width}, nil
		}
		return Info{}, errors.InvalidLayout(t.String(), "integer width must be 1, 2, 4, or 8")
	case KindFloat:
		switch t.Width {
		case 4, 8:
			return Info{Size: t.Width, Align: t.Width}, nil
		}
		return Info{}, errors.InvalidLayout(t.String(), "float width must be 4 or 8")
	case KindArray:
		return c.computeArray(t)
	case KindStruct:
		return c.computeStruct(t)
	}
	return Info{}, errors.InvalidLayout(t.String(), "unknown type kind")
}

func (c *Calc) computeArray(t *Type) (Info, error) {
	if t.Count == 0 {
		return Info{}, errors.InvalidLayout(t.String(), "zero-length array")
	}
	elem, err := c.LayoutOf(t.Elem)
	if err != nil {
		return Info{}, err
	}

	size, ok := safeMulU32(elem.Size, t.Count)
	if !ok {
		return Info{}, errors.InvalidLayout(t.String(), "array size overflows")
	}

	subs := make([]Subobject, t.Count)
	for i := uint32(0); i < t.Count; i++ {
		subs[i] = Subobject{Offset: i * elem.Size, Type: t.Elem}
	}

	return Info{Size: size, Align: elem.Align, Subobjects: subs}, nil
}

func (c *Calc) computeStruct(t *Type) (Info, error) {
	if len(t.Fields) == 0 {
		// Empty aggregates still occupy one byte so distinct objects have
		// distinct addresses.
		return Info{Size: 1, Align: 1}, nil
	}

	maxAlign := uint32(1)
	offset := uint32(0)
	subs := make([]Subobject, 0, len(t.Fields))

	for _, field := range t.Fields {
		fieldLayout, err := c.LayoutOf(field.Type)
		if err != nil {
			return Info{}, errors.Wrap(errors.PhaseLayout, errors.KindInvalidLayout, err, t.String()+"."+field.Name)
		}

		offset = alignTo(offset, fieldLayout.Align)
		subs = append(subs, Subobject{Offset: offset, Type: field.Type})

		if fieldLayout.Align > maxAlign {
			maxAlign = fieldLayout.Align
		}

		next, ok := safeAddU32(offset, fieldLayout.Size)
		if !ok {
			return Info{}, errors.InvalidLayout(t.String(), "struct size overflows")
		}
		offset = next
	}

	return Info{
		Size:       alignTo(offset, maxAlign),
		Align:      maxAlign,
		Subobjects: subs,
	}, nil
}

func alignTo(offset, align uint32) uint32 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

func safeMulU32(a, b uint32) (uint32, bool) {
	if b != 0 && a > math.MaxUint32/b {
		return 0, false
	}
	return a * b, true
}

func safeAddU32(a, b uint32) (uint32, bool) {
	if a > math.MaxUint32-b {
		return 0, false
	}
	return a + b, true
}
