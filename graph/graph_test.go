package graph

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/objmodel"
	"github.com/wippyai/objmodel/errors"
	"github.com/wippyai/objmodel/layout"
	"github.com/wippyai/objmodel/storage"
)

func newGraph(t *testing.T) (*Graph, *storage.Manager) {
	t.Helper()
	store := storage.NewManager()
	return New(store, layout.NewCalc()), store
}

func TestCreateCoversFreshBytesImplicitly(t *testing.T) {
	g, store := newGraph(t)
	r := store.CreateRegion(4)

	id, err := g.Create(r, 0, layout.Int(4))
	if err != nil {
		t.Fatal(err)
	}

	covering := g.Covering(objmodel.Address{Region: r, Offset: 0})
	var implicit *Object
	for _, o := range covering {
		if o.Implicit {
			implicit = o
		}
	}
	if implicit == nil {
		t.Fatal("expected implicit byte object covering the int's range")
	}
	if !implicit.Type.SelfRepresenting() {
		t.Error("implicit object must be self-representing")
	}
	if implicit.Size() != 4 {
		t.Errorf("implicit object size = %d, want 4", implicit.Size())
	}
	if implicit.Parent != id {
		t.Errorf("implicit object parent = %d, want %d", implicit.Parent, id)
	}
}

func TestCreateOverCoveredBytesAddsNoImplicit(t *testing.T) {
	g, store := newGraph(t)
	r := store.CreateRegion(4)

	if _, err := g.Create(r, 0, layout.ArrayOf(layout.Byte(), 4)); err != nil {
		t.Fatal(err)
	}
	before := len(g.objects)

	// Coincident int over already-covered bytes: no new implicit objects.
	if _, err := g.Create(r, 0, layout.Int(4)); err != nil {
		t.Fatal(err)
	}
	if len(g.objects) != before+1 {
		t.Errorf("object count grew by %d, want 1", len(g.objects)-before)
	}
}

func TestRepresentationOptionSuppressesImplicitCreation(t *testing.T) {
	g, store := newGraph(t)
	r := store.CreateRegion(4)

	_, err := g.CreateWith(r, 0, layout.ArrayOf(layout.Byte(), 4), Opts{Representation: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(g.objects) != 1 {
		t.Errorf("got %d objects, want exactly 1 (no double-creation)", len(g.objects))
	}
}

func TestAggregateMembersRegisteredAndNested(t *testing.T) {
	g, store := newGraph(t)
	r := store.CreateRegion(8)

	s := layout.StructOf("pair",
		layout.Field{Name: "tag", Type: layout.Byte()},
		layout.Field{Name: "value", Type: layout.Int(4)},
	)
	id, err := g.Create(r, 0, s)
	if err != nil {
		t.Fatal(err)
	}

	value := g.StartingAt(objmodel.Address{Region: r, Offset: 4})
	var member *Object
	for _, o := range value {
		if o.Subobject {
			member = o
		}
	}
	if member == nil {
		t.Fatal("expected member object at offset 4")
	}
	if member.Parent != id {
		t.Errorf("member parent = %d, want %d", member.Parent, id)
	}

	// Nesting invariant: the member's representation range is a contiguous
	// sub-range of the aggregate's.
	parentView, err := g.RepresentationOf(id)
	if err != nil {
		t.Fatal(err)
	}
	memberView, err := g.RepresentationOf(member.ID)
	if err != nil {
		t.Fatal(err)
	}
	if memberView.Offset < parentView.Offset ||
		memberView.Offset+memberView.Count > parentView.Offset+parentView.Count {
		t.Error("member representation range escapes the aggregate's range")
	}
}

func TestPartialOverlapRejected(t *testing.T) {
	g, store := newGraph(t)
	r := store.CreateRegion(8)

	if _, err := g.Create(r, 0, layout.Int(4)); err != nil {
		t.Fatal(err)
	}
	_, err := g.Create(r, 2, layout.Int(4))
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseStorage, Kind: errors.KindOverlapViolation}) {
		t.Fatalf("expected overlap violation, got %v", err)
	}
}

func TestCreateOutOfBoundsIsViolation(t *testing.T) {
	g, store := newGraph(t)
	r := store.CreateRegion(4)

	_, err := g.Create(r, 2, layout.Int(4))
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseObject, Kind: errors.KindBoundsViolation}) {
		t.Fatalf("expected bounds violation, got %v", err)
	}
	if _, ok := errors.Violation(err); !ok {
		t.Error("bounds violation must classify as modeled-program UB")
	}
}

func TestDestroyLifecycle(t *testing.T) {
	g, store := newGraph(t)
	r := store.CreateRegion(4)

	id, err := g.Create(r, 0, layout.Int(4))
	if err != nil {
		t.Fatal(err)
	}

	if err := g.Destroy(id); err != nil {
		t.Fatal(err)
	}
	if g.Live(id) {
		t.Error("destroyed object still live")
	}

	err = g.Destroy(id)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseObject, Kind: errors.KindDoubleDestroy}) {
		t.Fatalf("expected double destroy, got %v", err)
	}
}

func TestDestroyAggregateDestroysMembers(t *testing.T) {
	g, store := newGraph(t)
	r := store.CreateRegion(8)

	s := layout.StructOf("pair",
		layout.Field{Name: "tag", Type: layout.Byte()},
		layout.Field{Name: "value", Type: layout.Int(4)},
	)
	id, err := g.Create(r, 0, s)
	if err != nil {
		t.Fatal(err)
	}

	members := g.StartingAt(objmodel.Address{Region: r, Offset: 4})
	if len(members) == 0 {
		t.Fatal("no member at offset 4")
	}

	if err := g.Destroy(id); err != nil {
		t.Fatal(err)
	}
	for _, m := range members {
		if m.Subobject && g.Live(m.ID) {
			t.Errorf("member %d survived aggregate destruction", m.ID)
		}
	}
}

func TestDestroyFreesStorageForReuse(t *testing.T) {
	g, store := newGraph(t)
	r := store.CreateRegion(8)

	id, err := g.Create(r, 2, layout.Int(4))
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Destroy(id); err != nil {
		t.Fatal(err)
	}

	// The int's span is gone; a partially-overlapping create now only has
	// to coexist with the implicit byte coverage.
	if _, err := g.Create(r, 0, layout.ArrayOf(layout.Byte(), 8)); err != nil {
		t.Fatalf("create over freed span: %v", err)
	}
}

func TestRegionDestroyInvalidatesObjects(t *testing.T) {
	g, store := newGraph(t)
	r := store.CreateRegion(4)

	id, err := g.Create(r, 0, layout.Int(4))
	if err != nil {
		t.Fatal(err)
	}
	if err := store.DestroyRegion(r); err != nil {
		t.Fatal(err)
	}

	if g.Live(id) {
		t.Error("object in destroyed region reported live")
	}
	_, err = g.RepresentationOf(id)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseObject, Kind: errors.KindUseAfterDestroy}) {
		t.Fatalf("expected use-after-destroy, got %v", err)
	}
}
