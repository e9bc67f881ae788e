package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// tilePattern recognizes tile image files: a sequential numeric identifier
// with the fixed suffix, e.g. 00042.tiff.
var tilePattern = regexp.MustCompile(`^\d+\.tiff$`)

// ListTiles enumerates the tile files for one round of this scene, in
// directory listing order filtered by the tile filename pattern. The listing
// happens at call time and is never cached, so the result reflects the
// directory as it is right now.
func (sc *Scene) ListTiles(round string) ([]string, error) {
	dir := sc.TilesDir(round)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list tiles for %s/%s: %w", sc.Name, round, err)
	}
	var tiles []string
	for _, e := range entries {
		if e.IsDir() || !tilePattern.MatchString(e.Name()) {
			continue
		}
		tiles = append(tiles, filepath.Join(dir, e.Name()))
	}
	return tiles, nil
}
