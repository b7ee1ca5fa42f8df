package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	err := New(PhasePointer, KindTypeMismatch).
		Path("ops", "3").
		Type("int").
		Want("unsigned char").
		Detail("dereference through incompatible static type").
		Build()

	msg := err.Error()
	for _, want := range []string{"[pointer]", "type_mismatch", "ops.3", "type int", "want unsigned char", "incompatible"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestErrorIs(t *testing.T) {
	err := Overlap(1, 4, 8)

	if !stderrors.Is(err, &Error{Phase: PhaseStorage, Kind: KindOverlapViolation}) {
		t.Error("expected Is match on phase+kind")
	}
	if stderrors.Is(err, &Error{Phase: PhaseObject, Kind: KindOverlapViolation}) {
		t.Error("unexpected Is match with different phase")
	}
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("inner")
	err := Wrap(PhaseTrace, KindInvalidTrace, cause, "decode op 2")

	if stderrors.Unwrap(err) != cause {
		t.Error("Unwrap did not return cause")
	}
	if !strings.Contains(err.Error(), "caused by: inner") {
		t.Errorf("message %q missing cause", err.Error())
	}
}

func TestViolationClassification(t *testing.T) {
	cases := []struct {
		err  error
		kind Kind
		ub   bool
	}{
		{Overlap(1, 0, 4), KindOverlapViolation, true},
		{Bounds(1, 2, 4, 4), KindBoundsViolation, true},
		{DoubleDestroy("object", 7), KindDoubleDestroy, true},
		{UseAfterDestroy(PhasePointer, "region", 2), KindUseAfterDestroy, true},
		{InvalidArithmetic("int", "float"), KindInvalidArithmetic, true},
		{UndefinedRead("no live object"), KindUndefinedRead, true},
		{NoCandidate("r1+0", "int"), KindNoCandidate, true},
		{NotFound(PhaseObject, "object", 9), "", false},
		{InvalidTrace("bad op %d", 3), "", false},
		{InvalidLayout("foo", "zero align"), "", false},
	}

	for _, tc := range cases {
		kind, ok := Violation(tc.err)
		if ok != tc.ub {
			t.Errorf("Violation(%v) = %v, want %v", tc.err, ok, tc.ub)
		}
		if ok && kind != tc.kind {
			t.Errorf("Violation(%v) kind = %s, want %s", tc.err, kind, tc.kind)
		}
	}
}

func TestViolationUnwrapsWrapped(t *testing.T) {
	inner := UndefinedRead("no live object")
	outer := fmt.Errorf("op 4: %w", inner)

	kind, ok := Violation(outer)
	if !ok || kind != KindUndefinedRead {
		t.Fatalf("Violation through wrap = (%s, %v)", kind, ok)
	}
}
