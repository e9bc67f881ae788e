package corpus

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"slidepress/internal/diag"
)

// assemble is the pure half of Open: it cross-checks the manifest, applies
// the selection and builds the immutable Slide. It touches no I/O, so the
// whole validation/selection behavior is testable from synthetic listings.
func assemble(location string, manifest Manifest, listings []sceneListing, opts Options, sink diag.Sink) *Slide {
	discovered := make([]string, 0, len(listings))
	for _, l := range listings {
		discovered = append(discovered, l.name)
	}

	declared := slices.Clone(manifest.Scenes)
	slices.Sort(declared)
	crossCheckManifest(manifest.Name, declared, discovered, sink)

	selectedScenes := selectNames(opts.Scenes, discovered, "scene", sink)

	// Round selection warns against the union of rounds across the scenes in
	// play. A round present in one selected scene and absent in another is
	// normal and warns nowhere.
	var union []string
	for _, l := range listings {
		if slices.Contains(selectedScenes, l.name) {
			union = append(union, l.rounds...)
		}
	}
	slices.Sort(union)
	union = slices.Compact(union)
	selectedRounds := selectNames(opts.Rounds, union, "round", sink)

	name := manifest.Name
	if name == "" {
		name = filepath.Base(location)
	}

	slide := &Slide{
		Location:       location,
		Name:           name,
		AllScenes:      discovered,
		DeclaredScenes: declared,
	}
	for _, l := range listings {
		if !slices.Contains(selectedScenes, l.name) {
			continue
		}
		slide.Scenes = append(slide.Scenes, &Scene{
			Name:      l.name,
			Location:  l.location,
			AllRounds: l.rounds,
			Rounds:    intersect(selectedRounds, l.rounds),
		})
	}
	return slide
}

// crossCheckManifest compares the declared and discovered scene sets. On any
// difference it records a single warning naming both directions; the
// discovered set stays authoritative either way.
func crossCheckManifest(slideName string, declared, discovered []string, sink diag.Sink) {
	if slices.Equal(declared, discovered) {
		return
	}
	missing := subtract(declared, discovered)
	extra := subtract(discovered, declared)

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, fmt.Sprintf("declared but not on disk: %s", strings.Join(missing, ", ")))
	}
	if len(extra) > 0 {
		parts = append(parts, fmt.Sprintf("on disk but not declared: %s", strings.Join(extra, ", ")))
	}
	diag.SafeRecord(sink, diag.Warning{
		Kind:    diag.KindManifestMismatch,
		Subject: slideName,
		Detail:  strings.Join(parts, "; "),
	})
}

// selectNames intersects the requested names with the discovered universe.
// Unknown requested names are dropped, each with its own warning. An empty
// request selects the whole universe.
func selectNames(requested, universe []string, what string, sink diag.Sink) []string {
	if len(requested) == 0 {
		return slices.Clone(universe)
	}
	req := slices.Clone(requested)
	slices.Sort(req)
	req = slices.Compact(req)

	out := make([]string, 0, len(req))
	for _, name := range req {
		if slices.Contains(universe, name) {
			out = append(out, name)
			continue
		}
		diag.SafeRecord(sink, diag.Warning{
			Kind:    diag.KindSelectionMismatch,
			Subject: name,
			Detail:  fmt.Sprintf("requested %s not found in slide", what),
		})
	}
	return out
}

func intersect(a, b []string) []string {
	out := make([]string, 0, len(a))
	for _, v := range a {
		if slices.Contains(b, v) {
			out = append(out, v)
		}
	}
	return out
}

func subtract(a, b []string) []string {
	var out []string
	for _, v := range a {
		if !slices.Contains(b, v) {
			out = append(out, v)
		}
	}
	return out
}
