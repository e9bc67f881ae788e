package corpus

import "fmt"

// InvalidCorpusError reports a slide root that cannot be processed at all:
// a missing location, or a missing/unreadable manifest. It aborts the run
// before any pipeline is built.
type InvalidCorpusError struct {
	Location string
	Reason   string
	Err      error
}

func (e *InvalidCorpusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid corpus at %s: %s: %v", e.Location, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid corpus at %s: %s", e.Location, e.Reason)
}

func (e *InvalidCorpusError) Unwrap() error { return e.Err }
