package pipeline

import (
	"context"
	"path/filepath"

	"slidepress/internal/artifact"
	"slidepress/internal/corpus"
	"slidepress/internal/flow"
	"slidepress/internal/stage"
)

// RoundPlan fixes everything a round's calibration units need before any job
// runs: the pooled tiles, the sampled subset for the mosaic, and the frozen
// compute-or-reuse decision for each artifact.
type RoundPlan struct {
	Round string

	// Tiles pools every selected scene's tiles for this round, in scene
	// order. Illumination profiling consumes the whole pool.
	Tiles     []string
	TilesList string

	// Sample is the evenly spaced subset fed to the unmixing mosaic.
	Sample     []string
	SampleList string

	ComputeProfile bool
	ComputeMosaic  bool

	Flatfield string
	Darkfield string
	Mosaic    string

	// QAReport is set only when illumination assessment is enabled.
	QAReport string
}

// UnitPlan is one valid (scene, round) pairing with its tiles and the stack
// it will produce.
type UnitPlan struct {
	Scene     string
	Round     string
	Tiles     []string
	TilesList string
	Stack     string
}

// Key renders the scene/round unit key.
func (u UnitPlan) Key() string { return stage.UnitKey(u.Scene, u.Round) }

// ScenePlan is a scene's output targets. Rounds holds the selected rounds
// actually present in the scene; a scene where none survive gets no stitch.
type ScenePlan struct {
	Scene      string
	Rounds     []string
	StacksList string
	TilesTable string
	Stitched   string
	Metadata   string
}

// Plan is the resolved unit graph for one run. It is assembled before
// anything executes; recompute decisions are frozen here and never revisited,
// so artifacts appearing or vanishing mid-run cannot change what happens.
type Plan struct {
	Slide     *corpus.Slide
	Rounds    []RoundPlan
	Units     []UnitPlan
	Scenes    []ScenePlan
	QAEnabled bool
}

// Round returns the plan for one round, or nil.
func (p *Plan) Round(name string) *RoundPlan {
	for i := range p.Rounds {
		if p.Rounds[i].Round == name {
			return &p.Rounds[i]
		}
	}
	return nil
}

// UnitsForScene returns the plan's units belonging to one scene, in order.
func (p *Plan) UnitsForScene(scene string) []UnitPlan {
	return flow.Filter(flow.FromSlice(p.Units), func(u UnitPlan) bool {
		return u.Scene == scene
	}).Items()
}

// Build assembles the unit graph for a discovered slide. Scene/round pairing
// goes through the dataflow combinators: the cross product of selected scenes
// and rounds is filtered down to pairs the corpus actually contains, and
// round-level pools are derived from those units. Tile listings and cache
// policy checks are the only I/O here; no scratch files are written yet.
func Build(ctx context.Context, slide *corpus.Slide, pol *artifact.Policy, ws Workspace, params StageParams) (*Plan, error) {
	scenes := flow.FromSet(slide.SceneNames())
	rounds := flow.FromSet(slide.RoundUniverse())

	pairs := flow.Filter(flow.Combine(scenes, rounds), func(p flow.Pair[string, string]) bool {
		sc := slide.Scene(p.Left)
		return sc != nil && sc.HasRound(p.Right)
	})

	units := make([]UnitPlan, 0, pairs.Len())
	for _, p := range pairs.Items() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sc := slide.Scene(p.Left)
		tiles, err := sc.ListTiles(p.Right)
		if err != nil {
			return nil, err
		}
		if len(tiles) == 0 {
			return nil, &corpus.InvalidCorpusError{
				Location: sc.TilesDir(p.Right),
				Reason:   "round directory contains no tiles",
			}
		}
		units = append(units, UnitPlan{
			Scene:     p.Left,
			Round:     p.Right,
			Tiles:     tiles,
			TilesList: ws.UnitTilesList(p.Left, p.Right),
			Stack:     ws.StackPath(p.Left, p.Right),
		})
	}
	unitCh := flow.FromSlice(units)

	// Freeze the cache decisions now. Nothing re-checks existence later.
	computeProfile := make(map[string]bool, rounds.Len())
	computeMosaic := make(map[string]bool, rounds.Len())
	for _, r := range rounds.Items() {
		need, err := pol.NeedsIlluminationProfile(r)
		if err != nil {
			return nil, err
		}
		computeProfile[r] = need
		need, err = pol.NeedsUnmixingMosaic(r)
		if err != nil {
			return nil, err
		}
		computeMosaic[r] = need
	}

	roundPlans := flow.Map(rounds, func(r string) RoundPlan {
		var pooled []string
		perRound := flow.Filter(unitCh, func(u UnitPlan) bool { return u.Round == r })
		for _, u := range perRound.Items() {
			pooled = append(pooled, u.Tiles...)
		}
		flat, dark := pol.IlluminationPaths(r)
		rp := RoundPlan{
			Round:          r,
			Tiles:          pooled,
			TilesList:      ws.RoundTilesList(r),
			Sample:         stage.Sample(pooled, params.Unmixing.SampleTiles),
			SampleList:     ws.RoundSampleList(r),
			ComputeProfile: computeProfile[r],
			ComputeMosaic:  computeMosaic[r],
			Flatfield:      flat,
			Darkfield:      dark,
			Mosaic:         pol.MosaicPath(r),
		}
		if params.QAEnabled {
			rp.QAReport = filepath.Join(ws.QADir(), artifact.IllumReportName(r))
		}
		return rp
	})

	scenePlans := make([]ScenePlan, 0, len(slide.Scenes))
	for _, sc := range slide.Scenes {
		scenePlans = append(scenePlans, ScenePlan{
			Scene:      sc.Name,
			Rounds:     append([]string(nil), sc.Rounds...),
			StacksList: ws.SceneStacksList(sc.Name),
			TilesTable: ws.SceneTilesTable(sc.Name),
			Stitched:   ws.StitchedPath(sc.Name),
			Metadata:   ws.MetadataPath(sc.Name),
		})
	}

	return &Plan{
		Slide:     slide,
		Rounds:    roundPlans.Items(),
		Units:     units,
		Scenes:    scenePlans,
		QAEnabled: params.QAEnabled,
	}, nil
}
