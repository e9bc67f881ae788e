package pipeline

import (
	"path/filepath"

	"slidepress/internal/artifact"
)

// Workspace fixes where scratch inputs and final outputs live for one run.
// Scratch files (tile lists, stacks) go under WorkDir; stitched scenes go
// under OutDir. Artifact locations for calibration products are owned by the
// artifact store, not by the workspace.
type Workspace struct {
	WorkDir string
	OutDir  string
}

func (w Workspace) listsDir() string  { return filepath.Join(w.WorkDir, "lists") }
func (w Workspace) stacksDir() string { return filepath.Join(w.WorkDir, "stacks") }

// QADir holds per-round illumination assessment reports.
func (w Workspace) QADir() string { return filepath.Join(w.WorkDir, "qa") }

// RoundTilesList is the pooled tile list for a round across all selected
// scenes, the input to illumination profiling.
func (w Workspace) RoundTilesList(round string) string {
	return filepath.Join(w.listsDir(), round+"_tiles.txt")
}

// RoundSampleList is the evenly sampled subset used for the unmixing mosaic.
func (w Workspace) RoundSampleList(round string) string {
	return filepath.Join(w.listsDir(), round+"_sample.txt")
}

// UnitTilesList is the per-scene, per-round tile list consumed by stacking.
func (w Workspace) UnitTilesList(scene, round string) string {
	return filepath.Join(w.listsDir(), scene+"_"+round+"_tiles.txt")
}

// StackPath is where the corrected stack for one scene/round lands.
func (w Workspace) StackPath(scene, round string) string {
	return filepath.Join(w.stacksDir(), scene+"_"+round+".tiff")
}

// SceneStacksList is the round-ordered stack list handed to stitching.
func (w Workspace) SceneStacksList(scene string) string {
	return filepath.Join(w.listsDir(), scene+"_stacks.txt")
}

// SceneTilesTable is the round-to-tiles table handed to metadata assembly.
func (w Workspace) SceneTilesTable(scene string) string {
	return filepath.Join(w.listsDir(), scene+"_tiles.tsv")
}

// SceneDir is the per-scene output directory.
func (w Workspace) SceneDir(scene string) string {
	return filepath.Join(w.OutDir, scene)
}

// StitchedPath is the final stitched image for a scene.
func (w Workspace) StitchedPath(scene string) string {
	return filepath.Join(w.SceneDir(scene), artifact.StitchedFileName)
}

// MetadataPath is the OME metadata document for a scene.
func (w Workspace) MetadataPath(scene string) string {
	return filepath.Join(w.SceneDir(scene), artifact.MetadataFileName)
}
