package stage

import "slidepress/internal/job"

// IlluminationParams configures the per-round illumination profile job.
type IlluminationParams struct {
	// Program is the external tool, conventionally make_illum_profiles.
	Program string

	// Darkfield selects whether the job estimates a darkfield component or
	// writes a neutral one.
	Darkfield bool

	// DarkDir is the directory of dark reference frames.
	DarkDir string

	Resources job.Resources
}

// IlluminationSpec builds the job for one round. tilesList is the round's
// pooled tile listing across all selected scenes; flatfield and darkfield are
// the destination artifact paths.
func IlluminationSpec(p IlluminationParams, round, tilesList, flatfield, darkfield string) job.Spec {
	args := []string{
		"--tiles-path", tilesList,
		"--flatfield-path", flatfield,
		"--darkfield-path", darkfield,
	}
	if p.Darkfield {
		args = append(args, "--darkfield")
	} else {
		args = append(args, "--no-darkfield")
	}
	if p.DarkDir != "" {
		args = append(args, "--dark-dir", p.DarkDir)
	}
	args = append(args, p.Resources.Args()...)

	return job.Spec{
		Stage:     Illumination,
		Key:       round,
		Program:   p.Program,
		Args:      args,
		Outputs:   []string{flatfield, darkfield},
		Resources: p.Resources,
	}
}
