package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates which component reported the error
type Phase string

const (
	PhaseStorage Phase = "storage" // region and occupancy management
	PhaseObject  Phase = "object"  // object graph operations
	PhasePointer Phase = "pointer" // cast, arithmetic, dereference
	PhaseResolve Phase = "resolve" // overlapping-object resolution
	PhaseLayout  Phase = "layout"  // type layout lookup
	PhaseTrace   Phase = "trace"   // trace decoding and evaluation
)

// Kind categorizes the error
type Kind string

const (
	// Violations: the modeled program's behavior is undefined or a storage
	// invariant was broken. These are the diagnostics the simulator exists
	// to produce, not internal faults.
	KindOverlapViolation  Kind = "overlap_violation"
	KindBoundsViolation   Kind = "bounds_violation"
	KindDoubleDestroy     Kind = "double_destroy"
	KindUseAfterDestroy   Kind = "use_after_destroy"
	KindInvalidArithmetic Kind = "invalid_arithmetic"
	KindTypeMismatch      Kind = "type_mismatch"
	KindUndefinedRead     Kind = "undefined_read"
	KindNoCandidate       Kind = "no_candidate"

	// Library misuse and input problems, never attributed to the modeled
	// program.
	KindOutOfBounds   Kind = "out_of_bounds"
	KindNotFound      Kind = "not_found"
	KindInvalidLayout Kind = "invalid_layout"
	KindInvalidTrace  Kind = "invalid_trace"
	KindUnsupported   Kind = "unsupported"
)

// IsViolation reports whether kind is a modeled-program violation, as
// opposed to a misuse of the library API or malformed input.
func IsViolation(kind Kind) bool {
	switch kind {
	case KindOverlapViolation, KindBoundsViolation, KindDoubleDestroy,
		KindUseAfterDestroy, KindInvalidArithmetic, KindTypeMismatch,
		KindUndefinedRead, KindNoCandidate:
		return true
	}
	return false
}

// Error is the structured error type used throughout the library
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Type   string // static type involved, if any
	Want   string // expected type, if any
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Type != "" || e.Want != "" {
		b.WriteString(": ")
		if e.Type != "" && e.Want != "" {
			b.WriteString("type ")
			b.WriteString(e.Type)
			b.WriteString(", want ")
			b.WriteString(e.Want)
		} else if e.Type != "" {
			b.WriteString("type ")
			b.WriteString(e.Type)
		} else {
			b.WriteString("want ")
			b.WriteString(e.Want)
		}
	}

	if e.Detail != "" {
		if e.Type != "" || e.Want != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Violation reports whether err is a modeled-program violation, and
// returns the violation kind when it is.
func Violation(err error) (Kind, bool) {
	var e *Error
	if !stderrors.As(err, &e) || !IsViolation(e.Kind) {
		return "", false
	}
	return e.Kind, true
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Type sets the static type name
func (b *Builder) Type(t string) *Builder {
	b.err.Type = t
	return b
}

// Want sets the expected type name
func (b *Builder) Want(t string) *Builder {
	b.err.Want = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Overlap creates a storage-overlap violation
func Overlap(region, offset, size uint32) *Error {
	return &Error{
		Phase:  PhaseStorage,
		Kind:   KindOverlapViolation,
		Detail: fmt.Sprintf("range [%d,%d) in region %d partially overlaps an occupied range", offset, offset+size, region),
	}
}

// Bounds creates a region-bounds violation: the modeled program placed an
// object outside its region
func Bounds(region, offset, size, limit uint32) *Error {
	return &Error{
		Phase:  PhaseObject,
		Kind:   KindBoundsViolation,
		Detail: fmt.Sprintf("range [%d,%d) exceeds region %d size %d", offset, offset+size, region, limit),
	}
}

// DoubleDestroy creates a repeated-destroy violation
func DoubleDestroy(what string, id uint32) *Error {
	return &Error{
		Phase:  PhaseObject,
		Kind:   KindDoubleDestroy,
		Detail: fmt.Sprintf("%s %d already destroyed", what, id),
	}
}

// UseAfterDestroy creates a use-after-destroy violation
func UseAfterDestroy(phase Phase, what string, id uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUseAfterDestroy,
		Detail: fmt.Sprintf("%s %d destroyed", what, id),
	}
}

// InvalidArithmetic creates a pointer-arithmetic violation
func InvalidArithmetic(staticType, actualType string) *Error {
	return &Error{
		Phase:  PhasePointer,
		Kind:   KindInvalidArithmetic,
		Type:   staticType,
		Want:   actualType,
		Detail: "pointer arithmetic over unrelated object",
	}
}

// TypeMismatch creates a static/dynamic type mismatch violation
func TypeMismatch(phase Phase, staticType, actualType string) *Error {
	return &Error{
		Phase: phase,
		Kind:  KindTypeMismatch,
		Type:  staticType,
		Want:  actualType,
	}
}

// UndefinedRead creates an undefined-read violation
func UndefinedRead(detail string, args ...any) *Error {
	return &Error{
		Phase:  PhasePointer,
		Kind:   KindUndefinedRead,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// NoCandidate creates a resolution-failure violation
func NoCandidate(addr string, preferred string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindNoCandidate,
		Want:   preferred,
		Detail: fmt.Sprintf("no well-defined candidate at %s", addr),
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, offset, size, limit uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("range [%d,%d) exceeds size %d", offset, offset+size, limit),
		Value:  offset,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what string, id uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %d not found", what, id),
	}
}

// InvalidLayout creates a layout error
func InvalidLayout(typeName, detail string) *Error {
	return &Error{
		Phase:  PhaseLayout,
		Kind:   KindInvalidLayout,
		Type:   typeName,
		Detail: detail,
	}
}

// InvalidTrace creates a malformed-trace error
func InvalidTrace(detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseTrace,
		Kind:   KindInvalidTrace,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
