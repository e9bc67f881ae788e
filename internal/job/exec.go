package job

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// stderrTailBytes bounds how much captured stderr is carried into a failure.
const stderrTailBytes = 4096

// ExecRunner invokes jobs as local subprocesses.
//
// Jobs run in their own process group so that a context cancellation kills
// the whole process tree, not just the direct child. Stdout is discarded
// (jobs write files, not protocol output); stderr is captured and its tail
// attached to failures.
type ExecRunner struct {
	// Dir is the working directory jobs run in. Empty means the pipeline
	// process's working directory.
	Dir string

	// Env is the environment jobs see. Nil inherits the pipeline's
	// environment, which the scientific tools need for their interpreter
	// and library setup; set it explicitly to pin the environment down.
	Env []string
}

func (r *ExecRunner) Submit(ctx context.Context, spec Spec) error {
	if spec.Program == "" {
		return fmt.Errorf("job %s[%s]: empty program", spec.Stage, spec.Key)
	}

	cmd := exec.CommandContext(ctx, spec.Program, spec.Args...)
	cmd.Dir = r.Dir
	if r.Env != nil {
		cmd.Env = r.Env
	} else {
		cmd.Env = os.Environ()
	}

	// Own process group, so cancellation can kill the entire tree.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stderr bytes.Buffer
	cmd.Stdout = nil
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return &ExternalJobFailure{Stage: spec.Stage, Key: spec.Key, Program: spec.Program, Err: err}
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var waitErr error
	select {
	case <-ctx.Done():
		if cmd.Process != nil {
			_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		}
		<-done
		return &ExternalJobFailure{
			Stage:   spec.Stage,
			Key:     spec.Key,
			Program: spec.Program,
			Err:     fmt.Errorf("cancelled: %w", ctx.Err()),
		}
	case waitErr = <-done:
	}

	if waitErr != nil {
		failure := &ExternalJobFailure{
			Stage:   spec.Stage,
			Key:     spec.Key,
			Program: spec.Program,
			Stderr:  tail(stderr.Bytes(), stderrTailBytes),
			Err:     waitErr,
		}
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			failure.ExitCode = exitErr.ExitCode()
			failure.Err = nil
		}
		return failure
	}

	return verifyOutputs(spec)
}

func tail(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[len(b)-n:])
}
