package job

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// StubRunner creates empty placeholder files for every declared output
// instead of invoking anything. It exists for structural dry runs: the whole
// pipeline can be exercised end to end without the scientific tools
// installed. It also records every submission, which is what the tests count.
type StubRunner struct {
	mu        sync.Mutex
	submitted []Spec
}

func NewStubRunner() *StubRunner { return &StubRunner{} }

func (r *StubRunner) Submit(ctx context.Context, spec Spec) error {
	if err := ctx.Err(); err != nil {
		return &ExternalJobFailure{Stage: spec.Stage, Key: spec.Key, Program: spec.Program,
			Err: fmt.Errorf("cancelled: %w", err)}
	}
	for _, out := range spec.Outputs {
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return &ExternalJobFailure{Stage: spec.Stage, Key: spec.Key, Program: spec.Program,
				Err: &ArtifactWriteError{Path: out, Err: err}}
		}
		if err := os.WriteFile(out, nil, 0o644); err != nil {
			return &ExternalJobFailure{Stage: spec.Stage, Key: spec.Key, Program: spec.Program,
				Err: &ArtifactWriteError{Path: out, Err: err}}
		}
	}
	r.mu.Lock()
	r.submitted = append(r.submitted, spec)
	r.mu.Unlock()
	return nil
}

// Submitted returns a snapshot of every spec submitted so far.
func (r *StubRunner) Submitted() []Spec {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Spec, len(r.submitted))
	copy(out, r.submitted)
	return out
}

// SubmittedFor returns the submitted specs belonging to one stage.
func (r *StubRunner) SubmittedFor(stage string) []Spec {
	var out []Spec
	for _, s := range r.Submitted() {
		if s.Stage == stage {
			out = append(out, s)
		}
	}
	return out
}
