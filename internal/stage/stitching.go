package stage

import (
	"strconv"

	"slidepress/internal/job"
)

// StitchingParams configures the per-scene registration and stitching job.
type StitchingParams struct {
	// Program is the external tool, conventionally register_and_stitch.
	Program string

	// AlignChannel is the channel index registration aligns on.
	AlignChannel int

	// FilterSigma is the Gaussian sigma applied before correlation.
	FilterSigma float64

	// MaximumShift bounds the per-tile registration shift, in micrometers.
	MaximumShift float64

	// TileSize is the output pyramid tile size.
	TileSize int

	Resources job.Resources
}

// StitchingSpec builds the job for one scene. stacksList is a file list of
// the scene's stack paths, already sorted by round name; the stitcher reads
// round order positionally from it.
func StitchingSpec(p StitchingParams, scene, stacksList, output string) job.Spec {
	args := []string{
		"--output", output,
		"--stacks-path", stacksList,
		"--align-channel", strconv.Itoa(p.AlignChannel),
		"--filter-sigma", strconv.FormatFloat(p.FilterSigma, 'g', -1, 64),
		"--maximum-shift", strconv.FormatFloat(p.MaximumShift, 'g', -1, 64),
		"--tile-size", strconv.Itoa(p.TileSize),
	}
	args = append(args, p.Resources.Args()...)

	return job.Spec{
		Stage:     Stitching,
		Key:       scene,
		Program:   p.Program,
		Args:      args,
		Outputs:   []string{output},
		Resources: p.Resources,
	}
}
