package corpus

import (
	"path/filepath"
	"slices"
)

// Slide is the root of a discovered corpus. It is constructed once by Open
// and must be treated as read-only afterwards.
type Slide struct {
	// Location is the slide root directory.
	Location string

	// Name is the declared slide name from the manifest, falling back to the
	// base name of Location when the manifest leaves it empty.
	Name string

	// AllScenes holds every scene name discovered on disk, sorted.
	AllScenes []string

	// DeclaredScenes holds the scene names the manifest declares, sorted.
	// It is informational only; AllScenes is authoritative.
	DeclaredScenes []string

	// Scenes holds the selected scenes in name order.
	Scenes []*Scene
}

// Scene is one spatial region of a slide, scanned across acquisition rounds.
type Scene struct {
	// Name is the scene directory name.
	Name string

	// Location is the scene directory.
	Location string

	// AllRounds holds every round name discovered under the scene's tiles
	// directory, sorted.
	AllRounds []string

	// Rounds holds the selected rounds for this scene, sorted. A round
	// selected for the run but absent from this scene simply does not
	// appear here.
	Rounds []string
}

// SceneNames returns the selected scene names in order.
func (s *Slide) SceneNames() []string {
	out := make([]string, 0, len(s.Scenes))
	for _, sc := range s.Scenes {
		out = append(out, sc.Name)
	}
	return out
}

// Scene returns the selected scene with the given name, or nil.
func (s *Slide) Scene(name string) *Scene {
	for _, sc := range s.Scenes {
		if sc.Name == name {
			return sc
		}
	}
	return nil
}

// RoundUniverse returns the sorted union of selected rounds across all
// selected scenes. Round-level stages operate over this set.
func (s *Slide) RoundUniverse() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, sc := range s.Scenes {
		for _, r := range sc.Rounds {
			if _, ok := seen[r]; ok {
				continue
			}
			seen[r] = struct{}{}
			out = append(out, r)
		}
	}
	slices.Sort(out)
	return out
}

// HasRound reports whether the round was discovered and selected for this
// scene.
func (sc *Scene) HasRound(name string) bool {
	return slices.Contains(sc.Rounds, name)
}

// TilesDir returns the directory holding the given round's tiles. The
// directory may not exist when the round is absent from this scene.
func (sc *Scene) TilesDir(round string) string {
	return filepath.Join(sc.Location, tilesDirName, round)
}
