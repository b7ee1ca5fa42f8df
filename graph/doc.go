// Package graph maintains the set of live objects: their storage ranges,
// types, nesting relationships, and derived object representations.
//
// # Representations are derived, not stored
//
// Every live object of size N has a representation of N byte-sized
// elements occupying exactly its range. The graph never materializes these
// as objects; RepresentationOf computes a View from the owner's layout and
// the View's lifetime follows the owner's arithmetically. Self-representing
// owners (byte type, arrays of it) are their own representation, which is
// what stops representation-of-representation recursion.
//
// # Implicit byte objects
//
// Creating an object over previously-uncreated storage bytes implicitly
// covers those bytes with self-representing byte objects, modeled as an
// explicit side effect of Create. The Representation option suppresses
// this: a create that itself begins a representation's lifetime must not
// double-create the bytes it represents.
package graph
