// Package sim evaluates operation traces against the abstract machine.
//
// An Evaluator owns a fresh storage manager, object graph, and pointer
// model, and runs a decoded trace one operation at a time. Each operation
// yields one result record: a concrete value, a pointer, an unspecified
// value, or a violation. Violations mark the modeled program's undefined
// behavior and never abort the evaluator unless HaltOnUB is set; errors
// returned by Run mean the trace itself is unusable.
package sim
