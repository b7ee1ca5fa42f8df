// Package trace defines the operation trace a driver feeds the evaluator:
// an ordered sequence of records (create-region, create-object, cast, add,
// dereference, destroy) plus a type table, and the per-record result
// records the evaluation produces. The JSON form is the only external
// interface of the library; everything else is programmatic.
package trace
