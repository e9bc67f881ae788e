package job

import (
	"context"
	"fmt"
	"os"
)

// Runner submits one job and blocks until it has completed and its declared
// outputs exist. Implementations must be safe for concurrent Submit calls;
// the pipeline fans out across goroutines.
type Runner interface {
	Submit(ctx context.Context, spec Spec) error
}

// verifyOutputs checks that every declared output exists as a regular file.
// A missing output converts a "successful" program exit into a unit failure.
func verifyOutputs(spec Spec) error {
	for _, out := range spec.Outputs {
		info, err := os.Stat(out)
		if err != nil {
			return &ExternalJobFailure{
				Stage:   spec.Stage,
				Key:     spec.Key,
				Program: spec.Program,
				Err:     &ArtifactWriteError{Path: out, Err: err},
			}
		}
		if !info.Mode().IsRegular() {
			return &ExternalJobFailure{
				Stage:   spec.Stage,
				Key:     spec.Key,
				Program: spec.Program,
				Err:     &ArtifactWriteError{Path: out, Err: fmt.Errorf("not a regular file")},
			}
		}
	}
	return nil
}
