// Package stage defines the pipeline stages as data: the record shapes that
// flow between them and the construction of the external job spec for each
// unit of work.
//
// The stages, in dependency order:
//
//	illumination   per round     flatfield + darkfield calibration pair
//	unmixing       per round     spectral-unmixing reference mosaic
//	stacking       per scene and round   corrected, flattened stack
//	stitching      per scene     registered merge of the scene's stacks
//	metadata       per scene     OME metadata for the stitched output
//	illumination-qa  per round   optional QA report on the profile
//
// Stage code builds specs and records only; submitting jobs and deciding
// what runs is the pipeline's business.
package stage
