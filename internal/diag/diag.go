// Package diag collects non-fatal warnings raised while a pipeline is being
// assembled. Warnings are values, not errors: they are recorded, reported at
// the end of the run, and never change control flow.
package diag

import (
	"fmt"
	"sync"
)

// Kind discriminates warning categories. The string values appear in run
// reports; do not rename.
type Kind string

const (
	// KindManifestMismatch reports that the manifest-declared scene set and
	// the filesystem-discovered scene set differ. The filesystem wins.
	KindManifestMismatch Kind = "ManifestMismatch"

	// KindSelectionMismatch reports a requested scene or round name that is
	// absent from the discovered universe. The name is dropped.
	KindSelectionMismatch Kind = "SelectionMismatch"
)

// Warning is one recorded diagnostic.
type Warning struct {
	Kind    Kind   `json:"kind"`
	Subject string `json:"subject"`
	Detail  string `json:"detail"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s: %s", w.Kind, w.Subject, w.Detail)
}

// Sink receives warnings. Record must be inert: it must not panic and it
// must not influence the caller. Callers should assume Record may be a no-op.
type Sink interface {
	Record(w Warning)
}

// NopSink discards all warnings.
type NopSink struct{}

func (NopSink) Record(Warning) {}

// SafeRecord records a warning and guarantees inertness even against a buggy
// or nil sink.
func SafeRecord(s Sink, w Warning) {
	if s == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	s.Record(w)
}

// Recorder is a concurrency-safe in-memory sink that preserves record order.
type Recorder struct {
	mu       sync.Mutex
	warnings []Warning
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Record(w Warning) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.warnings = append(r.warnings, w)
	r.mu.Unlock()
}

// Warnings returns a snapshot of everything recorded so far, in record order.
func (r *Recorder) Warnings() []Warning {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Warning, len(r.warnings))
	copy(out, r.warnings)
	return out
}
