package pointer

import (
	stderrors "errors"
	"math"
	"testing"

	"github.com/wippyai/objmodel"
	"github.com/wippyai/objmodel/errors"
	"github.com/wippyai/objmodel/graph"
	"github.com/wippyai/objmodel/layout"
	"github.com/wippyai/objmodel/resolve"
	"github.com/wippyai/objmodel/storage"
)

func setup(t *testing.T, regionSize uint32) (*Model, *graph.Graph, objmodel.RegionID) {
	t.Helper()
	store := storage.NewManager()
	g := graph.New(store, layout.NewCalc())
	r := store.CreateRegion(regionSize)
	return NewModel(g, resolve.New(g)), g, r
}

func isKind(t *testing.T, err error, phase errors.Phase, kind errors.Kind) {
	t.Helper()
	if !stderrors.Is(err, &errors.Error{Phase: phase, Kind: kind}) {
		t.Fatalf("got %v, want %s/%s", err, phase, kind)
	}
}

// Region of size 4 holding one int object: cast to byte, walk the
// representation, read it, cast back.
func TestIntRepresentationScenario(t *testing.T) {
	m, g, r := setup(t, 4)

	intID, err := g.Create(r, 0, layout.Int(4))
	if err != nil {
		t.Fatal(err)
	}
	p, err := m.To(intID)
	if err != nil {
		t.Fatal(err)
	}

	// cast to byte type: representation element 0
	bp, err := m.Cast(p, layout.Byte())
	if err != nil {
		t.Fatal(err)
	}
	if !bp.IsElement() || bp.Elem != 0 || bp.Obj != intID {
		t.Fatalf("cast to byte: %+v", bp)
	}

	// add 1: element 1, distinct address
	bp1, err := m.Add(bp, 1)
	if err != nil {
		t.Fatal(err)
	}
	if bp1.Elem != 1 || bp1.Addr.Offset != 1 {
		t.Fatalf("add 1: %+v", bp1)
	}

	// reading the int's representation is unspecified: int is not byte-like
	v, err := m.Deref(bp1)
	if err != nil {
		t.Fatal(err)
	}
	if !v.IsUnspecified() {
		t.Fatalf("element read = %s, want unspecified", v)
	}

	// cast element 0 back to int: resolves to the original object
	back, err := m.Cast(bp, layout.Int(4))
	if err != nil {
		t.Fatal(err)
	}
	if back.Obj != intID || back.IsElement() {
		t.Fatalf("round trip: %+v", back)
	}
}

// Region of size 5 holding unsigned char arr[5]: the array is its own
// representation, and byte pointers walk it with specified values.
func TestSelfRepresentingArrayScenario(t *testing.T) {
	m, g, r := setup(t, 5)

	if err := g.Storage().Write(r, 0, []byte{10, 11, 12, 13, 14}); err != nil {
		t.Fatal(err)
	}
	arrID, err := g.Create(r, 0, layout.ArrayOf(layout.Byte(), 5))
	if err != nil {
		t.Fatal(err)
	}

	view, err := g.RepresentationOf(arrID)
	if err != nil {
		t.Fatal(err)
	}
	if view.Kind != graph.ViewSelf {
		t.Fatal("byte array must be its own representation")
	}

	p, err := m.To(arrID)
	if err != nil {
		t.Fatal(err)
	}
	bp, err := m.Cast(p, layout.Byte())
	if err != nil {
		t.Fatal(err)
	}
	// already self-representing: no element projection
	if bp.IsElement() || bp.Obj != arrID {
		t.Fatalf("cast of self-representing array: %+v", bp)
	}

	bp3, err := m.Add(bp, 3)
	if err != nil {
		t.Fatal(err)
	}
	v, err := m.Deref(bp3)
	if err != nil {
		t.Fatal(err)
	}
	if v.IsUnspecified() || v.Uint64() != 13 {
		t.Fatalf("arr[3] = %s, want 13", v)
	}
}

func TestDerefConcreteObject(t *testing.T) {
	m, g, r := setup(t, 4)

	if err := g.Storage().WriteUint(r, 0, 0x01020304, 4); err != nil {
		t.Fatal(err)
	}
	id, err := g.Create(r, 0, layout.Int(4))
	if err != nil {
		t.Fatal(err)
	}
	p, err := m.To(id)
	if err != nil {
		t.Fatal(err)
	}

	v, err := m.Deref(p)
	if err != nil {
		t.Fatal(err)
	}
	if v.Uint64() != 0x01020304 {
		t.Fatalf("got %#x", v.Uint64())
	}
}

func TestArithmeticValidity(t *testing.T) {
	m, g, r := setup(t, 16)

	arrID, err := g.Create(r, 0, layout.ArrayOf(layout.Int(4), 3))
	if err != nil {
		t.Fatal(err)
	}
	// elements are registered members; point at element 0
	elems := g.StartingAt(objmodel.Address{Region: r, Offset: 0})
	var first *graph.Object
	for _, o := range elems {
		if o.Subobject && o.Parent == arrID {
			first = o
		}
	}
	if first == nil {
		t.Fatal("array element not registered")
	}

	p, err := m.To(first.ID)
	if err != nil {
		t.Fatal(err)
	}
	p1, err := m.Add(p, 1)
	if err != nil {
		t.Fatalf("similar-type arithmetic rejected: %v", err)
	}
	if p1.Addr.Offset != 4 {
		t.Fatalf("offset = %d, want 4", p1.Addr.Offset)
	}

	// float static type over int storage is not similar: UB
	fp := p
	fp.Type = layout.Float(4)
	_, err = m.Add(fp, 1)
	isKind(t, err, errors.PhasePointer, errors.KindInvalidArithmetic)
}

func TestAddExtremeCountRejected(t *testing.T) {
	m, g, r := setup(t, 4)

	id, err := g.Create(r, 0, layout.Int(4))
	if err != nil {
		t.Fatal(err)
	}
	p, err := m.To(id)
	if err != nil {
		t.Fatal(err)
	}

	// Counts whose byte delta overflows int64 must not wrap back into the
	// address range.
	for _, n := range []int64{1 << 62, -(1 << 62), math.MaxInt64} {
		_, err := m.Add(p, n)
		isKind(t, err, errors.PhasePointer, errors.KindInvalidArithmetic)
	}
}

func TestOnePastEnd(t *testing.T) {
	m, g, r := setup(t, 8)

	id, err := g.Create(r, 0, layout.Int(4))
	if err != nil {
		t.Fatal(err)
	}
	p, err := m.To(id)
	if err != nil {
		t.Fatal(err)
	}

	// one-past-end is a valid pointer
	end, err := m.Add(p, 1)
	if err != nil {
		t.Fatal(err)
	}
	if end.Addr.Offset != 4 {
		t.Fatalf("offset = %d", end.Addr.Offset)
	}

	// but not dereferenceable
	if _, err := m.Deref(end); err == nil {
		t.Fatal("one-past-end dereference must fail")
	}

	// arithmetic back into range is fine
	back, err := m.Add(end, -1)
	if err != nil {
		t.Fatalf("arithmetic from one-past-end: %v", err)
	}
	if back.Addr.Offset != 0 {
		t.Fatalf("offset = %d, want 0", back.Addr.Offset)
	}
	if _, err := m.Deref(back); err != nil {
		t.Fatalf("deref after walking back: %v", err)
	}
}

func TestDerefAfterDestroyIsUseAfterDestroy(t *testing.T) {
	m, g, r := setup(t, 4)

	id, err := g.Create(r, 0, layout.Int(4))
	if err != nil {
		t.Fatal(err)
	}
	p, err := m.To(id)
	if err != nil {
		t.Fatal(err)
	}
	bp, err := m.Cast(p, layout.Byte())
	if err != nil {
		t.Fatal(err)
	}

	if err := g.Destroy(id); err != nil {
		t.Fatal(err)
	}

	// pointer into the former representation: use-after-destroy even
	// though the implicit byte coverage is still live at that address
	_, err = m.Deref(bp)
	isKind(t, err, errors.PhasePointer, errors.KindUseAfterDestroy)
}

func TestDerefDestroyedRegion(t *testing.T) {
	m, g, r := setup(t, 4)

	id, err := g.Create(r, 0, layout.Int(4))
	if err != nil {
		t.Fatal(err)
	}
	p, err := m.To(id)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Storage().DestroyRegion(r); err != nil {
		t.Fatal(err)
	}

	_, err = m.Deref(p)
	isKind(t, err, errors.PhasePointer, errors.KindUseAfterDestroy)
}

func TestDerefTypeMismatch(t *testing.T) {
	m, g, r := setup(t, 4)

	id, err := g.Create(r, 0, layout.Int(4))
	if err != nil {
		t.Fatal(err)
	}
	p, err := m.To(id)
	if err != nil {
		t.Fatal(err)
	}

	// address-preserving cast to an unrelated type
	fp, err := m.Cast(p, layout.Float(4))
	if err != nil {
		t.Fatal(err)
	}
	if fp.Addr != p.Addr {
		t.Fatal("cast must preserve the address")
	}

	_, err = m.Deref(fp)
	isKind(t, err, errors.PhasePointer, errors.KindTypeMismatch)
}

func TestDerefEmptyAddressUndefinedRead(t *testing.T) {
	m, _, r := setup(t, 4)

	p := Pointer{
		Addr: objmodel.Address{Region: r, Offset: 0},
		Type: layout.Byte(),
		Elem: -1,
	}
	_, err := m.Deref(p)
	isKind(t, err, errors.PhasePointer, errors.KindUndefinedRead)
}

func TestCharReadsRepresentationBytes(t *testing.T) {
	m, g, r := setup(t, 4)

	if err := g.Storage().WriteUint(r, 0, 0xaabbccdd, 4); err != nil {
		t.Fatal(err)
	}
	id, err := g.Create(r, 0, layout.ArrayOf(layout.Char(), 4))
	if err != nil {
		t.Fatal(err)
	}
	p, err := m.To(id)
	if err != nil {
		t.Fatal(err)
	}

	// char array is byte-like: element values are the storage bytes
	cp, err := m.Cast(p, layout.Char())
	if err != nil {
		t.Fatal(err)
	}
	v, err := m.Deref(cp)
	if err != nil {
		t.Fatal(err)
	}
	if v.IsUnspecified() || v.Uint64() != 0xdd {
		t.Fatalf("got %s, want 0xdd", v)
	}
}
