package job

import "fmt"

// ExternalJobFailure reports a job that exited non-zero, could not be
// started, or finished without producing its declared outputs. It is fatal to
// the unit it belongs to and to that unit's dependents, never to siblings.
type ExternalJobFailure struct {
	Stage    string
	Key      string
	Program  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExternalJobFailure) Error() string {
	msg := fmt.Sprintf("%s[%s]: %s failed", e.Stage, e.Key, e.Program)
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit %d)", e.ExitCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Stderr != "" {
		msg += "\nstderr: " + e.Stderr
	}
	return msg
}

func (e *ExternalJobFailure) Unwrap() error { return e.Err }

// ArtifactWriteError reports a declared output that a job did not leave
// behind, or that cannot be read back. It always travels wrapped inside an
// ExternalJobFailure.
type ArtifactWriteError struct {
	Path string
	Err  error
}

func (e *ArtifactWriteError) Error() string {
	return fmt.Sprintf("declared output not written: %s: %v", e.Path, e.Err)
}

func (e *ArtifactWriteError) Unwrap() error { return e.Err }
