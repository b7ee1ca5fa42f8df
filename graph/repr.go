package graph

import (
	"github.com/wippyai/objmodel"
	"github.com/wippyai/objmodel/errors"
)

// ViewKind discriminates representation views.
type ViewKind uint8

const (
	// ViewSelf: the object is of self-representing type, so it serves as
	// its own representation. No distinct entity exists.
	ViewSelf ViewKind = iota
	// ViewElements: the representation is a sequence of derived byte-sized
	// elements over the object's storage range.
	ViewElements
)

// View is a lazily-derived representation of an object: either the object
// itself (self-representing types) or a sequence of byte-sized elements
// occupying exactly the object's range. Views are computed from the
// object's layout, never materialized as objects, so representations have
// no representation of their own.
type View struct {
	Owner  objmodel.ObjectID
	Region objmodel.RegionID
	Offset uint32 // region offset of element 0
	Count  uint32 // number of elements == object size
	Kind   ViewKind

	// Specified reports whether element reads yield the underlying byte
	// value. True only for byte-like owners; all other element values are
	// unspecified.
	Specified bool

	// Array reports whether the elements form an array: true for owners in
	// contiguous storage, enabling pointer arithmetic across elements.
	Array bool
}

// Element is one byte of a representation.
type Element struct {
	Owner     objmodel.ObjectID
	Index     uint32
	Offset    uint32 // region offset
	Specified bool
}

// Element returns the descriptor of element i.
func (v View) Element(i uint32) (Element, error) {
	if i >= v.Count {
		return Element{}, errors.OutOfBounds(errors.PhaseObject, i, 1, v.Count)
	}
	return Element{
		Owner:     v.Owner,
		Index:     i,
		Offset:    v.Offset + i,
		Specified: v.Specified,
	}, nil
}

// RepresentationOf derives the representation view of a live object. The
// representation's lifetime is bound to the object's: once the object is
// destroyed the view is gone too.
func (g *Graph) RepresentationOf(id objmodel.ObjectID) (View, error) {
	obj, err := g.lookup(id)
	if err != nil {
		return View{}, err
	}
	if g.store.Destroyed(obj.Region) {
		return View{}, errors.UseAfterDestroy(errors.PhaseObject, "region", uint32(obj.Region))
	}
	if obj.destroyed {
		return View{}, errors.UseAfterDestroy(errors.PhaseObject, "object", uint32(id))
	}

	kind := ViewElements
	if obj.Type.SelfRepresenting() {
		kind = ViewSelf
	}

	return View{
		Owner:     id,
		Region:    obj.Region,
		Offset:    obj.Offset,
		Count:     obj.Size(),
		Kind:      kind,
		Specified: obj.Layout.ByteLike,
		Array:     obj.Layout.Contiguous,
	}, nil
}

// ReadElement reads element i of a representation view. Byte-like owners
// yield the storage byte's value; every other owner's element values are
// unspecified, which is a legal result, not an error.
func (g *Graph) ReadElement(v View, i uint32) (objmodel.Value, error) {
	elem, err := v.Element(i)
	if err != nil {
		return objmodel.Value{}, err
	}
	if !g.Live(v.Owner) {
		return objmodel.Value{}, errors.UseAfterDestroy(errors.PhaseObject, "object", uint32(v.Owner))
	}
	if !elem.Specified {
		return objmodel.Unspecified(), nil
	}

	b, err := g.store.Read(v.Region, elem.Offset, 1)
	if err != nil {
		return objmodel.Value{}, err
	}
	return objmodel.Concrete(uint64(b[0])), nil
}
