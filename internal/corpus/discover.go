package corpus

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"slidepress/internal/diag"
)

const tilesDirName = "tiles"

// roundPattern recognizes round directories by their identifier prefix, e.g.
// R0, R12, R3_retake. Directories not matching it are ignored.
var roundPattern = regexp.MustCompile(`^R\d+`)

// Options restricts a run to a subset of the discovered corpus. Empty slices
// mean "everything discovered".
type Options struct {
	Scenes []string
	Rounds []string
}

// sceneListing is the raw discovery result for one scene directory, before
// any selection is applied.
type sceneListing struct {
	name     string
	location string
	rounds   []string
}

// Open discovers the slide at location, cross-checks it against its manifest,
// applies the selection in opts and returns the immutable result.
//
// Open fails only for a missing location or a missing/unreadable manifest.
// Everything else (manifest disagreeing with the tree, selection naming
// unknown scenes or rounds) is recorded on sink and processing continues
// with what the filesystem actually holds.
func Open(ctx context.Context, location string, opts Options, sink diag.Sink) (*Slide, error) {
	info, err := os.Stat(location)
	if err != nil {
		return nil, &InvalidCorpusError{Location: location, Reason: "location not accessible", Err: err}
	}
	if !info.IsDir() {
		return nil, &InvalidCorpusError{Location: location, Reason: "location is not a directory"}
	}

	manifest, err := readManifest(filepath.Join(location, ManifestFile))
	if err != nil {
		return nil, &InvalidCorpusError{Location: location, Reason: "manifest missing or unreadable", Err: err}
	}

	listings, err := listScenes(ctx, location)
	if err != nil {
		return nil, &InvalidCorpusError{Location: location, Reason: "scene discovery failed", Err: err}
	}

	return assemble(location, manifest, listings, opts, sink), nil
}

// listScenes performs the read-only discovery pass: every subdirectory with a
// tiles directory is a scene, and its round directories are listed in
// parallel.
func listScenes(ctx context.Context, location string) ([]sceneListing, error) {
	entries, err := os.ReadDir(location)
	if err != nil {
		return nil, err
	}

	var listings []sceneListing
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		sceneDir := filepath.Join(location, e.Name())
		tilesDir := filepath.Join(sceneDir, tilesDirName)
		if info, err := os.Stat(tilesDir); err != nil || !info.IsDir() {
			continue
		}
		listings = append(listings, sceneListing{name: e.Name(), location: sceneDir})
	}

	g, _ := errgroup.WithContext(ctx)
	for i := range listings {
		i := i
		g.Go(func() error {
			rounds, err := listRounds(filepath.Join(listings[i].location, tilesDirName))
			if err != nil {
				return err
			}
			listings[i].rounds = rounds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(listings, func(a, b sceneListing) int {
		return strings.Compare(a.name, b.name)
	})
	return listings, nil
}

func listRounds(tilesDir string) ([]string, error) {
	entries, err := os.ReadDir(tilesDir)
	if err != nil {
		return nil, err
	}
	var rounds []string
	for _, e := range entries {
		if e.IsDir() && roundPattern.MatchString(e.Name()) {
			rounds = append(rounds, e.Name())
		}
	}
	slices.Sort(rounds)
	return rounds, nil
}
