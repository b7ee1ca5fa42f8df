// Package objmodel provides an executable model of object lifetime, object
// representation, and pointer semantics over abstract storage.
//
// The model answers, for a trace of allocation, cast, arithmetic, and
// dereference operations, whether each operation is well-defined, and what
// value (possibly the unspecified value) a well-defined read produces.
// Violations mark the modeled program's undefined behavior; the model
// itself never crashes on them.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	objmodel/            Root package with core identifiers, Address, and Value
//	├── sim/             High-level evaluator for operation traces
//	├── trace/           JSON trace format and result records
//	├── pointer/         Typed pointers: cast, arithmetic, dereference
//	├── resolve/         Overlapping-candidate resolution at an address
//	├── graph/           Object graph, lifetime, and representation views
//	├── storage/         Byte regions and the occupancy invariant
//	├── layout/          Structural types, size/alignment calculation, WIT import
//	└── errors/          Structured error types separating violations from misuse
//
// # Quick Start
//
// Evaluate a trace:
//
//	tr, err := trace.Decode(f)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ev := sim.New(sim.Config{})
//	results, err := ev.Run(tr)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, res := range results {
//	    fmt.Println(res)
//	}
//
// Or drive the model directly:
//
//	store := storage.NewManager()
//	g := graph.New(store, layout.NewCalc())
//	model := pointer.NewModel(g, resolve.New(g))
//
//	region := store.CreateRegion(8)
//	obj, _ := g.Create(region, 0, layout.Int(4))
//	p, _ := model.To(obj)
//	v, _ := model.Deref(p)
//
// # Violations vs. Misuse
//
// Two failure families flow through package errors. Violations (overlap,
// double destroy, use after destroy, invalid arithmetic, type mismatch,
// undefined read, no candidate) mean the modeled program hit undefined
// behavior; a conformance checker reports them and may continue. Misuse
// (out of bounds, not found, invalid layout, invalid trace, unsupported)
// means the caller fed the library bad input. errors.Violation
// distinguishes the two.
//
// # Thread Safety
//
// The model is single-threaded by design: a trace is a strictly ordered
// operation sequence. Evaluator, Graph, and Manager are not safe for
// concurrent use; run one evaluation per goroutine.
package objmodel
