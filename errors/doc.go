// Package errors provides structured error types for the objmodel library.
//
// Errors are categorized by Phase (which component reported them) and Kind
// (error category). Kinds split into two groups: violations, which mean the
// modeled program's behavior is undefined or a storage invariant was broken,
// and input/misuse errors, which mean the library itself was driven wrong.
// Violations are the primary output of the simulator; use Violation to
// classify:
//
//	if kind, ok := errors.Violation(err); ok {
//		// report UB diagnostic, optionally continue the trace
//	}
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhasePointer, errors.KindTypeMismatch).
//		Type("int").
//		Want("unsigned char").
//		Detail("dereference through incompatible static type").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Overlap(1, 4, 8)
//	err := errors.UndefinedRead("no live object at r1+4")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
