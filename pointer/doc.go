// Package pointer models pointer values: (region, byte offset, static
// type, provenance) tuples with cast, arithmetic, and dereference over an
// object graph.
//
// Provenance is load-bearing. A pointer remembers the object (or
// representation element) it was derived from, and dereference reads
// through that entity while it stays live. An overlapping byte object
// never hijacks a read derived from another object's representation, and a
// pointer into a destroyed object's former representation diagnoses
// UseAfterDestroy even when other live objects occupy the same bytes.
//
// Arithmetic follows one-past-end semantics: the result of Add may address
// no entity and still be a valid pointer; it only becomes a violation when
// dereferenced.
package pointer
