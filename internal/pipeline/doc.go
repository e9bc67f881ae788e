// Package pipeline assembles and executes the processing graph for a slide.
//
// It is intentionally split into:
//   - Plan (Build): the frozen unit graph, including every compute-or-reuse
//     decision, derived once from the corpus and the artifact stores
//   - Execution (Pipeline.Run): depth-staged dispatch of the plan's units
//     against a job runner, with per-unit outcome tracking
//
// Unit failures are isolated: a failed unit aborts only the units that need
// its outputs, never its siblings. The run always produces a full report.
package pipeline
