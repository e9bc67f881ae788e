package stage

import "slidepress/internal/job"

// MetadataParams configures the per-scene OME metadata job. It consumes the
// sorted stack list and tile table, so it runs alongside stitching rather
// than after it.
type MetadataParams struct {
	// Program is the external tool, conventionally write_ome_metadata.
	Program string

	Resources job.Resources
}

// MetadataSpec builds the job for one scene. stacksList mirrors the stitch
// input; tilesTSV maps each round to its tile list, in the same round order,
// so channel metadata lines up with the stitched planes.
func MetadataSpec(p MetadataParams, scene, stacksList, tilesTSV, dst, imageName string) job.Spec {
	args := []string{
		"--stacks-path", stacksList,
		"--tiles-path", tilesTSV,
		"--dst", dst,
		"--ome-image-name", imageName,
	}
	args = append(args, p.Resources.Args()...)

	return job.Spec{
		Stage:     Metadata,
		Key:       scene,
		Program:   p.Program,
		Args:      args,
		Outputs:   []string{dst},
		Resources: p.Resources,
	}
}
