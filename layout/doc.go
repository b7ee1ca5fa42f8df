// Package layout is the type layout oracle: given a structural type
// descriptor it answers size, alignment, contiguity, nested-subobject
// offsets, and the two classifications the memory model turns on.
//
// # Classification
//
// A type is self-representing when its objects serve as their own object
// representation: the unsigned-byte type and arrays of it, ignoring
// cv-qualification. A type is byte-like when reading its objects' storage
// bytes yields specified values: narrow characters, the byte type, and
// arrays thereof. Every self-representing type is byte-like; the converse
// does not hold (signed char is byte-like but not self-representing).
//
// # Oracle
//
// The Oracle interface lets a driver supply precomputed layouts. Calc is
// the default structural implementation:
//
//	calc := layout.NewCalc()
//	info, err := calc.LayoutOf(layout.ArrayOf(layout.Byte(), 5))
//	// info.Size == 5, info.SelfRepresenting == true
//
// FromWIT bridges WIT-described records and tuples into descriptors for
// drivers that keep their conformance fixtures in WIT.
package layout
