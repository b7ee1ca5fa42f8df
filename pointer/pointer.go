package pointer

import (
	"github.com/wippyai/objmodel"
	"github.com/wippyai/objmodel/errors"
	"github.com/wippyai/objmodel/graph"
	"github.com/wippyai/objmodel/layout"
	"github.com/wippyai/objmodel/resolve"
)

// Pointer is a non-owning reference: a byte address, a static type, and the
// provenance it was derived from. A pointer may dangle: its addressed byte
// can hold no live object, or a different one than expected; that is
// diagnosed at dereference, not at construction.
type Pointer struct {
	Addr objmodel.Address
	Type *layout.Type

	// Obj is the provenance object, 0 when unknown.
	Obj objmodel.ObjectID
	// Elem is the representation element index within Obj, or -1 when the
	// pointer designates the whole object.
	Elem int
}

// IsElement reports whether the pointer designates a representation
// element.
func (p Pointer) IsElement() bool { return p.Elem >= 0 }

// Model implements pointer operations over an object graph.
type Model struct {
	graph *graph.Graph
	eng   *resolve.Engine
}

// NewModel creates a pointer model.
func NewModel(g *graph.Graph, eng *resolve.Engine) *Model {
	return &Model{graph: g, eng: eng}
}

// To returns a pointer to a live object.
func (m *Model) To(id objmodel.ObjectID) (Pointer, error) {
	obj, err := m.graph.Get(id)
	if err != nil {
		return Pointer{}, err
	}
	if m.graph.Destroyed(id) {
		return Pointer{}, errors.UseAfterDestroy(errors.PhasePointer, "object", uint32(id))
	}
	return Pointer{
		Addr: objmodel.Address{Region: obj.Region, Offset: obj.Offset},
		Type: obj.Type,
		Obj:  id,
		Elem: -1,
	}, nil
}

// ToElement returns a pointer to element i of a representation view. The
// pointer's static type is the byte type.
func (m *Model) ToElement(v graph.View, i uint32) (Pointer, error) {
	elem, err := v.Element(i)
	if err != nil {
		return Pointer{}, err
	}
	if !m.graph.Live(v.Owner) {
		return Pointer{}, errors.UseAfterDestroy(errors.PhasePointer, "object", uint32(v.Owner))
	}
	return Pointer{
		Addr: objmodel.Address{Region: v.Region, Offset: elem.Offset},
		Type: layout.Byte(),
		Obj:  v.Owner,
		Elem: int(i),
	}, nil
}

// addressed returns the entity the pointer currently designates, following
// provenance first and falling back to resolution at the address.
func (m *Model) addressed(p Pointer) (resolve.Entity, bool) {
	if p.Obj != 0 && m.graph.Live(p.Obj) {
		obj, err := m.graph.Get(p.Obj)
		if err == nil && obj.Covers(p.Addr.Offset) {
			elem := p.Elem
			if elem < 0 && obj.Offset != p.Addr.Offset {
				elem = int(p.Addr.Offset - obj.Offset)
			}
			return resolve.Entity{Object: obj, Element: elem}, true
		}
	}
	ent, err := m.eng.Resolve(p.Addr, p.Type, nil)
	if err != nil {
		return resolve.Entity{}, false
	}
	return ent, true
}

// isByteScalar reports a single self-representing byte type.
func isByteScalar(t *layout.Type) bool {
	return t != nil && t.Kind == layout.KindByte
}

// isByteLikeScalar reports a single byte-like type: byte, char, or signed
// char. Reads through these see specified representation bytes.
func isByteLikeScalar(t *layout.Type) bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case layout.KindByte, layout.KindChar, layout.KindSChar:
		return true
	}
	return false
}
