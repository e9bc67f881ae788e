package stage

import "slidepress/internal/job"

// StackingParams configures the per-(scene, round) stacking job.
type StackingParams struct {
	// Program is the external tool, conventionally stack_tiles.
	Program string

	DarkDir         string
	ScalesShiftsDir string

	Resources job.Resources
}

// StackingSpec builds the job for one (scene, round) unit. Stacks are never
// cached: every run recomputes them into dst.
func StackingSpec(p StackingParams, scene, round, tilesList, flatfield, darkfield, dst string) job.Spec {
	args := []string{
		"--tiles-path", tilesList,
		"--flatfield-path", flatfield,
		"--darkfield-path", darkfield,
	}
	if p.DarkDir != "" {
		args = append(args, "--dark-dir", p.DarkDir)
	}
	if p.ScalesShiftsDir != "" {
		args = append(args, "--scales-shifts-dir", p.ScalesShiftsDir)
	}
	args = append(args, "--dst", dst)
	args = append(args, p.Resources.Args()...)

	return job.Spec{
		Stage:     Stacking,
		Key:       UnitKey(scene, round),
		Program:   p.Program,
		Args:      args,
		Outputs:   []string{dst},
		Resources: p.Resources,
	}
}
