package job

import "fmt"

// Resources carries the hints a job is scheduled and invoked with. CPUs is
// used as the admission weight by the Scheduler and forwarded to the program;
// Memory is forwarded verbatim (e.g. "16GB").
type Resources struct {
	CPUs   int
	Memory string
}

// Args returns the standard resource flags appended to every job invocation.
func (r Resources) Args() []string {
	out := make([]string, 0, 4)
	if r.CPUs > 0 {
		out = append(out, "--n-cpus", fmt.Sprintf("%d", r.CPUs))
	}
	if r.Memory != "" {
		out = append(out, "--memory-limit", r.Memory)
	}
	return out
}

// Spec is one external job: which stage and unit it belongs to, what to run,
// and what it must leave behind.
type Spec struct {
	// Stage is the owning stage name ("illumination", "stitching", ...).
	Stage string

	// Key identifies the unit within the stage: a round name, a scene name,
	// or "scene/round".
	Key string

	// Program is the external program to invoke.
	Program string

	// Args is the complete argument list, resource flags included.
	Args []string

	// Outputs are the absolute paths the job must create. They are verified
	// after the program exits.
	Outputs []string

	Resources Resources
}

func (s Spec) String() string {
	return fmt.Sprintf("%s[%s] %s", s.Stage, s.Key, s.Program)
}
