// Package flow provides the typed channel combinators the pipeline is wired with.
//
// A Channel is an ordered, finite, materialized stream of records. Combinators
// derive new channels without mutating their inputs, so a channel value can be
// consumed by several downstream stages independently.
//
// Ordering contract:
//   - Map, Filter and Concat preserve the order of their input(s).
//   - Branch preserves, per output, the sub-order of the input.
//   - Combine emits row-major: every right record for the first left record,
//     then every right record for the second, and so on.
//   - JoinByKey emits in left-channel order; GroupByKey emits groups in
//     first-appearance order of their keys.
//
// Joins and groups operate on fully materialized inputs; there is no partial
// emission while an input is still being produced.
package flow
