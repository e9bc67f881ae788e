package stage

import (
	"strconv"

	"slidepress/internal/job"
)

// UnmixingParams configures the per-round unmixing mosaic job.
type UnmixingParams struct {
	// Program is the external tool, conventionally make_unmixing_mosaic.
	Program string

	// SampleTiles is how many of the round's tiles feed the mosaic.
	SampleTiles int

	MidChunkSize    int
	Downsample      int
	DarkDir         string
	ScalesShiftsDir string

	// RefChannel is the reference channel index used for normalization.
	RefChannel int

	Resources job.Resources
}

// UnmixingSpec builds the job for one round. tilesList holds the sampled
// tile subset; mosaic is the destination artifact path.
func UnmixingSpec(p UnmixingParams, round, tilesList string, sampled int, flatfield, darkfield, mosaic string) job.Spec {
	args := []string{
		"--tiles-path", tilesList,
		"--n-tiles", strconv.Itoa(sampled),
		"--flatfield-path", flatfield,
		"--darkfield-path", darkfield,
		"--mid-chunk-size", strconv.Itoa(p.MidChunkSize),
		"--downsample", strconv.Itoa(p.Downsample),
	}
	if p.DarkDir != "" {
		args = append(args, "--dark-dir", p.DarkDir)
	}
	if p.ScalesShiftsDir != "" {
		args = append(args, "--scales-shifts-dir", p.ScalesShiftsDir)
	}
	args = append(args,
		"--ref-channel", strconv.Itoa(p.RefChannel),
		"--dst", mosaic,
	)
	args = append(args, p.Resources.Args()...)

	return job.Spec{
		Stage:     Unmixing,
		Key:       round,
		Program:   p.Program,
		Args:      args,
		Outputs:   []string{mosaic},
		Resources: p.Resources,
	}
}

// Sample picks up to n tiles, evenly spaced across the listing. Even spacing
// keeps the subset reproducible run to run and spread over the acquisition
// area, which a random draw would not guarantee.
func Sample(tiles []string, n int) []string {
	if n <= 0 || len(tiles) <= n {
		out := make([]string, len(tiles))
		copy(out, tiles)
		return out
	}
	out := make([]string, 0, n)
	stride := float64(len(tiles)) / float64(n)
	for i := 0; i < n; i++ {
		out = append(out, tiles[int(float64(i)*stride)])
	}
	return out
}
