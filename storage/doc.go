// Package storage owns byte-addressed regions: fixed-size blocks created
// once, destroyed once, zero-initialized. It also keeps the per-region
// occupancy bookkeeping the object graph relies on: every occupied range
// must be disjoint from, nested within, or exactly coincident with every
// other, which is the storage half of the object-overlap invariant.
//
// Region ids are never recycled. A pointer holding a destroyed region's id
// fails with UseAfterDestroy rather than reading new storage.
package storage
