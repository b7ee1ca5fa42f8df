package pointer

import (
	"math"

	"github.com/wippyai/objmodel"
	"github.com/wippyai/objmodel/errors"
	"github.com/wippyai/objmodel/layout"
	"github.com/wippyai/objmodel/resolve"
)

// Cast implements the generalized static-cast rule. Casting to a byte type
// projects onto the representation element at the same offset; casting an
// element pointer back to the represented type resolves the represented
// object through the resolution engine; any other cast preserves the
// address and updates the static type, leaving later dereferences to flag
// a mismatch.
func (m *Model) Cast(p Pointer, target *layout.Type) (Pointer, error) {
	if err := m.regionLive(p); err != nil {
		return Pointer{}, err
	}
	if p.Type.Similar(target) {
		p.Type = target
		return p, nil
	}

	if isByteScalar(target) {
		if ent, ok := m.addressed(p); ok {
			if ent.Object.Type.SelfRepresenting() && !ent.IsElement() {
				// already its own representation
				return Pointer{Addr: p.Addr, Type: target, Obj: ent.Object.ID, Elem: -1}, nil
			}
			elem := ent.Element
			if elem < 0 {
				elem = int(p.Addr.Offset - ent.Object.Offset)
			}
			return Pointer{Addr: p.Addr, Type: target, Obj: ent.Object.ID, Elem: elem}, nil
		}
		// dangling: address preserved, diagnosed at dereference
		return Pointer{Addr: p.Addr, Type: target, Obj: p.Obj, Elem: p.Elem}, nil
	}

	// Inverse cast: an element pointer whose address begins an object of
	// the target type resolves to that object, tie-broken by the engine
	// when several overlap.
	ent, err := m.eng.Resolve(p.Addr, target, func(c resolve.Entity) bool {
		return !c.IsElement() && c.Type().Similar(target)
	})
	if err == nil && ent.Object.Offset == p.Addr.Offset {
		return Pointer{Addr: p.Addr, Type: target, Obj: ent.Object.ID, Elem: -1}, nil
	}

	// Address preserved, static type updated; provenance unchanged.
	p.Type = target
	return p, nil
}

// Add offsets the pointer by n elements of its static type. Valid only when
// the static type is similar to the addressed entity's type, or the static
// type is the byte type and the addressed entity is a representation
// element of an arithmetic-addable (contiguous) representation. The result
// may be out of range: one-past-end is a valid, non-dereferenceable
// pointer, and anything further dangles and is flagged at dereference.
func (m *Model) Add(p Pointer, n int64) (Pointer, error) {
	if err := m.regionLive(p); err != nil {
		return Pointer{}, err
	}
	info, err := m.graph.Oracle().LayoutOf(p.Type)
	if err != nil {
		return Pointer{}, err
	}

	ent, ok := m.addressed(p)
	if !ok {
		// one-past-end pointers address no entity but remain valid for
		// arithmetic back into range
		if p.Obj != 0 && m.graph.Live(p.Obj) {
			if obj, err := m.graph.Get(p.Obj); err == nil && p.Addr.Offset == obj.End() {
				ent, ok = resolve.Entity{Object: obj, Element: p.Elem}, true
			}
		}
	}
	if !ok {
		return Pointer{}, errors.InvalidArithmetic(p.Type.String(), "no live entity")
	}

	switch {
	case !ent.IsElement() && ent.Object.Type.Similar(p.Type):
		// arithmetic over the object itself
	case ent.IsElement() || ent.Object.Type.SelfRepresenting():
		if !isByteScalar(p.Type) {
			return Pointer{}, errors.InvalidArithmetic(p.Type.String(), ent.Object.Type.String())
		}
		if !ent.Object.Layout.Contiguous {
			return Pointer{}, errors.New(errors.PhasePointer, errors.KindInvalidArithmetic).
				Type(p.Type.String()).
				Detail("representation of non-contiguous object is not an array").
				Build()
		}
	default:
		return Pointer{}, errors.InvalidArithmetic(p.Type.String(), ent.Object.Type.String())
	}

	delta, ok := mulInt64(n, int64(info.Size))
	if !ok || delta > math.MaxUint32 || delta < -math.MaxUint32 {
		return Pointer{}, errors.New(errors.PhasePointer, errors.KindInvalidArithmetic).
			Type(p.Type.String()).
			Detail("offset by %d elements out of address range", n).
			Build()
	}
	next := int64(p.Addr.Offset) + delta
	if next < 0 || next > math.MaxUint32 {
		return Pointer{}, errors.New(errors.PhasePointer, errors.KindInvalidArithmetic).
			Type(p.Type.String()).
			Detail("offset %d out of address range", next).
			Build()
	}

	out := Pointer{
		Addr: objmodel.Address{Region: p.Addr.Region, Offset: uint32(next)},
		Type: p.Type,
		Obj:  ent.Object.ID,
		Elem: -1,
	}
	if ent.IsElement() || ent.Object.Type.SelfRepresenting() {
		out.Elem = int(out.Addr.Offset) - int(ent.Object.Offset)
	}

	// Re-resolve: if a live object of the static type begins at the new
	// address, rebind provenance to it; otherwise keep the owner and let
	// dereference decide.
	if ent2, err := m.eng.Resolve(out.Addr, p.Type, func(c resolve.Entity) bool {
		return !c.IsElement() && c.Type().Similar(p.Type)
	}); err == nil && ent2.Object.Offset == out.Addr.Offset && !out.IsElement() {
		out.Obj = ent2.Object.ID
	}

	return out, nil
}

// Deref reads through the pointer. It fails UseAfterDestroy when the region
// or the provenance object is gone, UndefinedRead when no entity occupies
// the byte, and TypeMismatch when entities exist but none is statically
// compatible. Reading an unspecified representation element yields the
// unspecified value, which is a legal result.
func (m *Model) Deref(p Pointer) (objmodel.Value, error) {
	if err := m.regionLive(p); err != nil {
		return objmodel.Value{}, err
	}
	if p.Obj != 0 && m.graph.Destroyed(p.Obj) {
		return objmodel.Value{}, errors.UseAfterDestroy(errors.PhasePointer, "object", uint32(p.Obj))
	}

	// Provenance decides what the pointer means; free re-resolution would
	// let an overlapping byte object hijack a read derived from another
	// object's representation.
	ent, ok := m.provenanceEntity(p)
	if !ok {
		cands := m.eng.CandidatesAt(p.Addr)
		if len(cands) == 0 {
			return objmodel.Value{}, errors.UndefinedRead("no live entity at %s", p.Addr)
		}
		var err error
		ent, err = m.eng.Resolve(p.Addr, p.Type, func(c resolve.Entity) bool {
			return m.compatible(p.Type, c)
		})
		if err != nil {
			return objmodel.Value{}, errors.TypeMismatch(errors.PhasePointer, p.Type.String(), cands[0].Type().String())
		}
	}

	if !m.compatible(p.Type, ent) {
		return objmodel.Value{}, errors.TypeMismatch(errors.PhasePointer, p.Type.String(), ent.Type().String())
	}

	// A byte-typed read of a byte-like object projects onto the element at
	// the addressed byte.
	if !ent.IsElement() && isByteLikeScalar(p.Type) && !ent.Object.Type.Similar(p.Type) {
		ent.Element = int(p.Addr.Offset - ent.Object.Offset)
	}

	if ent.IsElement() {
		view, err := m.graph.RepresentationOf(ent.Object.ID)
		if err != nil {
			return objmodel.Value{}, err
		}
		return m.graph.ReadElement(view, uint32(ent.Element))
	}

	info, err := m.graph.Oracle().LayoutOf(ent.Object.Type)
	if err != nil {
		return objmodel.Value{}, err
	}
	switch info.Size {
	case 1, 2, 4, 8:
		v, err := m.graph.Storage().ReadUint(p.Addr.Region, ent.Object.Offset, info.Size)
		if err != nil {
			return objmodel.Value{}, err
		}
		return objmodel.Concrete(v), nil
	}
	b, err := m.graph.Storage().Read(p.Addr.Region, ent.Object.Offset, info.Size)
	if err != nil {
		return objmodel.Value{}, err
	}
	return objmodel.Raw(b), nil
}

// provenanceEntity recovers the entity a pointer was derived from, when the
// provenance object is live and still covers the address.
func (m *Model) provenanceEntity(p Pointer) (resolve.Entity, bool) {
	if p.Obj == 0 || !m.graph.Live(p.Obj) {
		return resolve.Entity{}, false
	}
	obj, err := m.graph.Get(p.Obj)
	if err != nil || !obj.Covers(p.Addr.Offset) {
		return resolve.Entity{}, false
	}
	elem := p.Elem
	if elem < 0 && obj.Offset != p.Addr.Offset {
		elem = int(p.Addr.Offset - obj.Offset)
	}
	return resolve.Entity{Object: obj, Element: elem}, true
}

// compatible reports whether an entity may be read through the static type:
// whole objects through a similar type, representation elements and
// byte-like objects through a byte-like scalar.
func (m *Model) compatible(static *layout.Type, ent resolve.Entity) bool {
	if ent.IsElement() {
		return isByteLikeScalar(static)
	}
	if ent.Object.Type.Similar(static) {
		return true
	}
	return isByteLikeScalar(static) && ent.Object.Type.ByteLike()
}

func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	r := a * b
	if r/b != a {
		return 0, false
	}
	return r, true
}

func (m *Model) regionLive(p Pointer) error {
	store := m.graph.Storage()
	if !store.Exists(p.Addr.Region) {
		return errors.NotFound(errors.PhasePointer, "region", uint32(p.Addr.Region))
	}
	if store.Destroyed(p.Addr.Region) {
		return errors.UseAfterDestroy(errors.PhasePointer, "region", uint32(p.Addr.Region))
	}
	return nil
}
