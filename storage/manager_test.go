package storage

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/objmodel/errors"
)

func TestCreateRegionZeroInitialized(t *testing.T) {
	m := NewManager()

	id := m.CreateRegion(8)
	if id == 0 {
		t.Fatal("expected non-zero region id")
	}

	b, err := m.Read(id, 0, 8)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range b {
		if v != 0 {
			t.Fatalf("byte %d = %d, want 0", i, v)
		}
	}
}

func TestReadWriteRoundTrip(t *testing.T) {
	m := NewManager()
	id := m.CreateRegion(16)

	if err := m.Write(id, 4, []byte{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	b, err := m.Read(id, 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	if b[0] != 1 || b[3] != 4 {
		t.Fatalf("got %v", b)
	}

	if err := m.WriteUint(id, 8, 0xdeadbeef, 4); err != nil {
		t.Fatal(err)
	}
	v, err := m.ReadUint(id, 8, 4)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0xdeadbeef {
		t.Fatalf("got %#x", v)
	}

	// little-endian: low byte first
	lo, err := m.ReadUint(id, 8, 1)
	if err != nil {
		t.Fatal(err)
	}
	if lo != 0xef {
		t.Fatalf("low byte = %#x", lo)
	}
}

func TestBounds(t *testing.T) {
	m := NewManager()
	id := m.CreateRegion(4)

	if _, err := m.Read(id, 2, 4); err == nil {
		t.Error("expected out-of-bounds read to fail")
	}
	if err := m.Write(id, 4, []byte{1}); err == nil {
		t.Error("expected out-of-bounds write to fail")
	}
	// offset+size overflow must not wrap
	if err := m.MarkOccupied(id, 0xffffffff, 2, 1); err == nil {
		t.Error("expected wrapped range to fail")
	}
}

func TestDestroyRegion(t *testing.T) {
	m := NewManager()
	id := m.CreateRegion(4)

	if err := m.DestroyRegion(id); err != nil {
		t.Fatal(err)
	}
	if !m.Destroyed(id) {
		t.Error("Destroyed should report true")
	}

	wantUAD := &errors.Error{Phase: errors.PhaseStorage, Kind: errors.KindUseAfterDestroy}
	if _, err := m.Read(id, 0, 1); !stderrors.Is(err, wantUAD) {
		t.Errorf("read after destroy: %v", err)
	}
	if err := m.DestroyRegion(id); !stderrors.Is(err, wantUAD) {
		t.Errorf("second destroy: %v", err)
	}
}

func TestUnknownRegion(t *testing.T) {
	m := NewManager()

	if _, err := m.Read(99, 0, 1); err == nil {
		t.Error("expected not-found error")
	}
	if m.Exists(0) {
		t.Error("region 0 is reserved")
	}
}

func TestOccupancyInvariant(t *testing.T) {
	overlap := &errors.Error{Phase: errors.PhaseStorage, Kind: errors.KindOverlapViolation}

	cases := []struct {
		name               string
		firstOff, firstLen uint32
		nextOff, nextLen   uint32
		ok                 bool
	}{
		{"disjoint", 0, 4, 4, 4, true},
		{"coincident", 0, 4, 0, 4, true},
		{"nested_inside", 0, 8, 2, 4, true},
		{"contains", 2, 4, 0, 8, true},
		{"zero_size", 0, 4, 2, 0, true},
		{"partial_left", 0, 4, 2, 4, false},
		{"partial_right", 4, 4, 2, 4, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewManager()
			id := m.CreateRegion(16)
			if err := m.MarkOccupied(id, tc.firstOff, tc.firstLen, 1); err != nil {
				t.Fatal(err)
			}
			err := m.MarkOccupied(id, tc.nextOff, tc.nextLen, 2)
			if tc.ok && err != nil {
				t.Fatalf("expected success: %v", err)
			}
			if !tc.ok && !stderrors.Is(err, overlap) {
				t.Fatalf("expected overlap violation, got %v", err)
			}
		})
	}
}

func TestMarkFreeAllowsReuse(t *testing.T) {
	m := NewManager()
	id := m.CreateRegion(8)

	if err := m.MarkOccupied(id, 0, 8, 1); err != nil {
		t.Fatal(err)
	}
	// partial overlap with the live span is rejected
	if err := m.MarkOccupied(id, 4, 8, 2); err == nil {
		t.Fatal("expected overlap")
	}

	if err := m.MarkFree(id, 1); err != nil {
		t.Fatal(err)
	}
	if err := m.MarkOccupied(id, 4, 4, 2); err != nil {
		t.Fatalf("freed range should be reusable: %v", err)
	}
}
