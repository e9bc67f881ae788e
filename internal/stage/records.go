package stage

import (
	"sort"
)

// Stage names, used as job spec stage identifiers and report keys.
const (
	Illumination   = "illumination"
	Unmixing       = "unmixing"
	Stacking       = "stacking"
	Stitching      = "stitching"
	Metadata       = "metadata"
	IlluminationQA = "illumination-qa"
)

// Profile is the per-round illumination calibration record. A reused profile
// is structurally identical to a computed one; provenance lives only in
// Reused, which downstream stages never consult.
type Profile struct {
	Round     string
	Flatfield string
	Darkfield string
	Reused    bool
}

// Mosaic is the per-round unmixing reference record.
type Mosaic struct {
	Round  string
	Path   string
	Reused bool
}

// TileSet is the per-(scene, round) tile collection record. ListPath is the
// file list written for the external jobs; Count is how many tiles it holds.
type TileSet struct {
	Scene    string
	Round    string
	ListPath string
	Count    int
}

// Stack is the per-(scene, round) corrected stack record. The tile list
// travels with it because the metadata stage needs both, index-aligned.
type Stack struct {
	Scene     string
	Round     string
	Path      string
	TilesList string
}

// SceneStacks aggregates one scene's stacks ahead of stitching. Rounds,
// TileLists and Stacks are three parallel, index-aligned lists.
type SceneStacks struct {
	Scene     string
	Rounds    []string
	TileLists []string
	Stacks    []string
}

// SortByRound reorders the three parallel lists together, by round name.
// The stitcher encodes round order positionally, so the lists must move as
// one; sorting any list on its own would silently mispair rounds and stacks.
func (s *SceneStacks) SortByRound() {
	idx := make([]int, len(s.Rounds))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return s.Rounds[idx[a]] < s.Rounds[idx[b]]
	})

	rounds := make([]string, len(idx))
	tileLists := make([]string, len(idx))
	stacks := make([]string, len(idx))
	for pos, i := range idx {
		rounds[pos] = s.Rounds[i]
		tileLists[pos] = s.TileLists[i]
		stacks[pos] = s.Stacks[i]
	}
	s.Rounds = rounds
	s.TileLists = tileLists
	s.Stacks = stacks
}

// UnitKey renders the "scene/round" form used in job specs and reports.
func UnitKey(scene, round string) string {
	return scene + "/" + round
}
