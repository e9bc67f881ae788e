// Package corpus discovers and validates the slide/scene/round/tile hierarchy
// a pipeline run operates on.
//
// It is intentionally split into:
//   - Discovery (I/O): a single read-only pass over the slide directory that
//     gathers the manifest and the per-scene round listings.
//   - Validation and selection (pure): manifest cross-checking and
//     intersection of the requested scene/round names with what was found.
//
// The filesystem is authoritative. A manifest that disagrees with the
// directory tree produces a warning, never a failure, and processing proceeds
// with the discovered set.
package corpus
