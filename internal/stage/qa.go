package stage

import (
	"strconv"

	"slidepress/internal/job"
)

// QAParams configures the optional per-round illumination QA job.
type QAParams struct {
	// Program is the external tool, conventionally assess_illum_profiles.
	Program string

	// SampleTiles is how many tiles the assessment renders.
	SampleTiles int

	DarkDir string

	Resources job.Resources
}

// IllumQASpec builds the QA job for one round. It consumes the same profile
// paths the compute units produce or reference, so it runs identically for
// computed and reused profiles. QA never gates downstream stages.
func IllumQASpec(p QAParams, round, tilesList string, sampled int, flatfield, darkfield, report string) job.Spec {
	args := []string{
		"--round-name", round,
		"--tiles-path", tilesList,
		"--n-tiles", strconv.Itoa(sampled),
		"--flatfield-path", flatfield,
		"--darkfield-path", darkfield,
	}
	if p.DarkDir != "" {
		args = append(args, "--dark-dir", p.DarkDir)
	}
	args = append(args, "--dst", report)
	args = append(args, p.Resources.Args()...)

	return job.Spec{
		Stage:     IlluminationQA,
		Key:       round,
		Program:   p.Program,
		Args:      args,
		Outputs:   []string{report},
		Resources: p.Resources,
	}
}
