// Package cli implements the slidepress command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Semantic exit codes. Unit failures and cancellation map to ExitRunFailure;
// anything wrong with the invocation, configuration or corpus fails before a
// single job runs.
const (
	ExitSuccess           = 0
	ExitRunFailure        = 1
	ExitInvalidInvocation = 2
	ExitCorpusConfigError = 3
	ExitInternalError     = 4
)

// exitError carries a semantic exit code through the command error return.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func exitErr(code int, err error) error { return &exitError{code: code, err: err} }

// Run executes the CLI with the given argument slice (excluding argv[0]) and
// returns the process exit code. It never panics; internal faults map to
// ExitInternalError.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(stderr, "slidepress: internal error: %v\n", r)
			code = ExitInternalError
		}
	}()

	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "slidepress: %v\n", err)
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		// Everything the flag layer rejects is a usage problem.
		return ExitInvalidInvocation
	}
	return ExitSuccess
}
