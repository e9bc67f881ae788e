package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"slidepress/internal/diag"
	"slidepress/internal/flow"
	"slidepress/internal/job"
	"slidepress/internal/stage"
)

// StageParams bundles the external-tool configuration for every stage.
type StageParams struct {
	Illumination stage.IlluminationParams
	Unmixing     stage.UnmixingParams
	Stacking     stage.StackingParams
	Stitching    stage.StitchingParams
	Metadata     stage.MetadataParams
	QA           stage.QAParams

	// QAEnabled turns the per-round illumination assessment units on. QA
	// outcomes never gate other units.
	QAEnabled bool
}

// Pipeline executes a plan against a job runner. Units are dispatched in
// topological stages: calibration rounds first, then per-scene stacks, then
// per-scene stitching and metadata. Within a stage every unit runs on its own
// goroutine; the runner bounds how many external jobs are actually in flight.
//
// A failed unit never cancels its siblings. It only aborts the units that
// need its outputs.
type Pipeline struct {
	Runner job.Runner
	Params StageParams
	Work   Workspace

	// Log receives progress events. Nil means silent.
	Log *slog.Logger

	// Warnings carries discovery and selection warnings into the report.
	Warnings *diag.Recorder

	// Journal, when set, persists the report after the run.
	Journal *Journal
}

// Run executes every unit of the plan and reports per-unit outcomes. The
// returned error is non-nil only for cancellation or internal faults; unit
// failures live in the report.
func (p *Pipeline) Run(ctx context.Context, plan *Plan) (*Report, error) {
	if p.Log == nil {
		p.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	started := time.Now()
	runID := uuid.NewString()
	log := p.Log.With("run_id", runID, "slide", plan.Slide.Name)
	tr := NewTracker()

	if err := p.register(tr, plan); err != nil {
		return nil, fmt.Errorf("register units: %w", err)
	}
	log.Info("run started",
		"scenes", len(plan.Scenes),
		"rounds", len(plan.Rounds),
		"stack_units", len(plan.Units))

	// Depth 0: illumination profiles, one unit per round.
	p.eachRound(plan, func(rp *RoundPlan) {
		p.runIllumination(ctx, tr, rp, log)
	})
	if err := ctx.Err(); err != nil {
		return p.finish(tr, plan, runID, started, log), err
	}

	// Depth 1: unmixing mosaics and optional QA, per round.
	p.eachRound(plan, func(rp *RoundPlan) {
		ok := profileUsable(tr, rp.Round)
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.runUnmixing(ctx, tr, rp, ok, log)
		}()
		if plan.QAEnabled {
			wg.Add(1)
			go func() {
				defer wg.Done()
				p.runQA(ctx, tr, rp, ok, log)
			}()
		}
		wg.Wait()
	})
	if err := ctx.Err(); err != nil {
		return p.finish(tr, plan, runID, started, log), err
	}

	// Depth 2: per-scene, per-round stacks. The join attaches each round's
	// profile to every tile set of that round; tile sets whose profile never
	// materialized fall out of the join and are aborted explicitly first.
	p.runStacks(ctx, tr, plan, log)
	if err := ctx.Err(); err != nil {
		return p.finish(tr, plan, runID, started, log), err
	}

	// Depth 3: group stacks per scene, sort by round, stitch and write
	// metadata for every scene whose stacks all arrived.
	p.runScenes(ctx, tr, plan, log)

	report := p.finish(tr, plan, runID, started, log)
	return report, ctx.Err()
}

func (p *Pipeline) register(tr *Tracker, plan *Plan) error {
	for _, rp := range plan.Rounds {
		if err := tr.Register(stage.Illumination, rp.Round); err != nil {
			return err
		}
		if err := tr.Register(stage.Unmixing, rp.Round); err != nil {
			return err
		}
		if plan.QAEnabled {
			if err := tr.Register(stage.IlluminationQA, rp.Round); err != nil {
				return err
			}
		}
	}
	for _, u := range plan.Units {
		if err := tr.Register(stage.Stacking, u.Key()); err != nil {
			return err
		}
	}
	for _, sp := range plan.Scenes {
		if err := tr.RegisterScene(sp.Scene); err != nil {
			return err
		}
		if len(sp.Rounds) == 0 {
			// Selected scene with none of the selected rounds. Nothing to
			// stitch; the selection warnings already said why.
			if err := tr.AdvanceScene(sp.Scene, SceneIncomplete); err != nil {
				return err
			}
			continue
		}
		if err := tr.Register(stage.Stitching, sp.Scene); err != nil {
			return err
		}
		if err := tr.Register(stage.Metadata, sp.Scene); err != nil {
			return err
		}
	}
	return nil
}

// eachRound runs fn for every round on its own goroutine and waits.
func (p *Pipeline) eachRound(plan *Plan, fn func(*RoundPlan)) {
	var wg sync.WaitGroup
	for i := range plan.Rounds {
		rp := &plan.Rounds[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(rp)
		}()
	}
	wg.Wait()
}

// track logs tracker violations instead of propagating them; they indicate
// wiring bugs, not runtime conditions, and must not mask the unit outcome.
func (p *Pipeline) track(err error) {
	if err != nil {
		p.Log.Error("state tracking inconsistency", "error", err)
	}
}

func profileUsable(tr *Tracker, round string) bool {
	st, ok := tr.State(stage.Illumination, round)
	return ok && (st == UnitComputed || st == UnitSkipped)
}

func (p *Pipeline) runIllumination(ctx context.Context, tr *Tracker, rp *RoundPlan, log *slog.Logger) {
	if !rp.ComputeProfile {
		p.track(tr.Skip(stage.Illumination, rp.Round, []string{rp.Flatfield, rp.Darkfield}))
		log.Info("unit skipped", "stage", stage.Illumination, "unit", rp.Round, "reason", "artifacts exist")
		return
	}
	if err := ctx.Err(); err != nil {
		p.track(tr.Abort(stage.Illumination, rp.Round, "run cancelled"))
		return
	}
	p.track(tr.Start(stage.Illumination, rp.Round))
	if err := job.WriteList(rp.TilesList, rp.Tiles); err != nil {
		p.failUnit(tr, stage.Illumination, rp.Round, fmt.Errorf("write tiles list: %w", err), log)
		return
	}
	spec := stage.IlluminationSpec(p.Params.Illumination, rp.Round, rp.TilesList, rp.Flatfield, rp.Darkfield)
	if err := p.Runner.Submit(ctx, spec); err != nil {
		p.failUnit(tr, stage.Illumination, rp.Round, err, log)
		return
	}
	p.track(tr.Complete(stage.Illumination, rp.Round, []string{rp.Flatfield, rp.Darkfield}))
	log.Info("unit computed", "stage", stage.Illumination, "unit", rp.Round, "tiles", len(rp.Tiles))
}

func (p *Pipeline) runUnmixing(ctx context.Context, tr *Tracker, rp *RoundPlan, profileOK bool, log *slog.Logger) {
	if !rp.ComputeMosaic {
		// The mosaic already exists, so the unit is satisfied no matter what
		// happened to the round's profile.
		p.track(tr.Skip(stage.Unmixing, rp.Round, []string{rp.Mosaic}))
		log.Info("unit skipped", "stage", stage.Unmixing, "unit", rp.Round, "reason", "artifact exists")
		return
	}
	if !profileOK {
		cause := unitID(stage.Illumination, rp.Round)
		p.track(tr.Abort(stage.Unmixing, rp.Round, cause))
		log.Warn("unit aborted", "stage", stage.Unmixing, "unit", rp.Round, "cause", cause)
		return
	}
	if err := ctx.Err(); err != nil {
		p.track(tr.Abort(stage.Unmixing, rp.Round, "run cancelled"))
		return
	}
	p.track(tr.Start(stage.Unmixing, rp.Round))
	if err := job.WriteList(rp.SampleList, rp.Sample); err != nil {
		p.failUnit(tr, stage.Unmixing, rp.Round, fmt.Errorf("write sample list: %w", err), log)
		return
	}
	spec := stage.UnmixingSpec(p.Params.Unmixing, rp.Round, rp.SampleList, len(rp.Sample), rp.Flatfield, rp.Darkfield, rp.Mosaic)
	if err := p.Runner.Submit(ctx, spec); err != nil {
		p.failUnit(tr, stage.Unmixing, rp.Round, err, log)
		return
	}
	p.track(tr.Complete(stage.Unmixing, rp.Round, []string{rp.Mosaic}))
	log.Info("unit computed", "stage", stage.Unmixing, "unit", rp.Round, "sampled", len(rp.Sample))
}

func (p *Pipeline) runQA(ctx context.Context, tr *Tracker, rp *RoundPlan, profileOK bool, log *slog.Logger) {
	if !profileOK {
		cause := unitID(stage.Illumination, rp.Round)
		p.track(tr.Abort(stage.IlluminationQA, rp.Round, cause))
		log.Warn("unit aborted", "stage", stage.IlluminationQA, "unit", rp.Round, "cause", cause)
		return
	}
	if err := ctx.Err(); err != nil {
		p.track(tr.Abort(stage.IlluminationQA, rp.Round, "run cancelled"))
		return
	}
	p.track(tr.Start(stage.IlluminationQA, rp.Round))
	if err := job.WriteList(rp.TilesList, rp.Tiles); err != nil {
		p.failUnit(tr, stage.IlluminationQA, rp.Round, fmt.Errorf("write tiles list: %w", err), log)
		return
	}
	sampled := len(stage.Sample(rp.Tiles, p.Params.QA.SampleTiles))
	spec := stage.IllumQASpec(p.Params.QA, rp.Round, rp.TilesList, sampled, rp.Flatfield, rp.Darkfield, rp.QAReport)
	if err := p.Runner.Submit(ctx, spec); err != nil {
		p.failUnit(tr, stage.IlluminationQA, rp.Round, err, log)
		return
	}
	p.track(tr.Complete(stage.IlluminationQA, rp.Round, []string{rp.QAReport}))
	log.Info("unit computed", "stage", stage.IlluminationQA, "unit", rp.Round)
}

// runStacks wires profiles to tile sets through the dataflow engine and runs
// one stacking unit per joined pair.
func (p *Pipeline) runStacks(ctx context.Context, tr *Tracker, plan *Plan, log *slog.Logger) {
	// Merge computed and reused profiles into one stream. Downstream the two
	// are indistinguishable.
	var computed, reused []stage.Profile
	for _, rp := range plan.Rounds {
		prof := stage.Profile{Round: rp.Round, Flatfield: rp.Flatfield, Darkfield: rp.Darkfield}
		st, _ := tr.State(stage.Illumination, rp.Round)
		switch st {
		case UnitComputed:
			computed = append(computed, prof)
		case UnitSkipped:
			prof.Reused = true
			reused = append(reused, prof)
		}
	}
	profiles := flow.Concat(flow.FromSlice(computed), flow.FromSlice(reused))

	// Abort the tile sets whose round produced no profile; the join below
	// drops them, and the report must say why.
	for _, u := range plan.Units {
		if !profileUsable(tr, u.Round) {
			cause := unitID(stage.Illumination, u.Round)
			p.track(tr.Abort(stage.Stacking, u.Key(), cause))
			log.Warn("unit aborted", "stage", stage.Stacking, "unit", u.Key(), "cause", cause)
		}
	}

	// Broadcast profiles across scenes, keep the pairs the corpus actually
	// has, and join them with the tile sets on the scene/round key.
	sceneNames := flow.FromSet(plan.Slide.SceneNames())
	broadcast := flow.Filter(flow.Combine(sceneNames, profiles), func(pr flow.Pair[string, stage.Profile]) bool {
		sc := plan.Slide.Scene(pr.Left)
		return sc != nil && sc.HasRound(pr.Right.Round)
	})
	tileSets := flow.Map(flow.FromSlice(plan.Units), func(u UnitPlan) stage.TileSet {
		return stage.TileSet{Scene: u.Scene, Round: u.Round, ListPath: u.TilesList, Count: len(u.Tiles)}
	})
	inputs := flow.JoinByKey(tileSets, broadcast,
		func(ts stage.TileSet) string { return stage.UnitKey(ts.Scene, ts.Round) },
		func(pr flow.Pair[string, stage.Profile]) string { return stage.UnitKey(pr.Left, pr.Right.Round) },
	)

	unitsByKey := make(map[string]UnitPlan, len(plan.Units))
	for _, u := range plan.Units {
		unitsByKey[u.Key()] = u
	}

	var wg sync.WaitGroup
	for _, in := range inputs.Items() {
		u := unitsByKey[stage.UnitKey(in.Left.Scene, in.Left.Round)]
		prof := in.Right.Right
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.runStacking(ctx, tr, u, prof, log)
		}()
	}
	wg.Wait()
}

func (p *Pipeline) runStacking(ctx context.Context, tr *Tracker, u UnitPlan, prof stage.Profile, log *slog.Logger) {
	key := u.Key()
	if err := ctx.Err(); err != nil {
		p.track(tr.Abort(stage.Stacking, key, "run cancelled"))
		return
	}
	p.track(tr.Start(stage.Stacking, key))
	if err := job.WriteList(u.TilesList, u.Tiles); err != nil {
		p.failUnit(tr, stage.Stacking, key, fmt.Errorf("write tiles list: %w", err), log)
		return
	}
	spec := stage.StackingSpec(p.Params.Stacking, u.Scene, u.Round, u.TilesList, prof.Flatfield, prof.Darkfield, u.Stack)
	if err := p.Runner.Submit(ctx, spec); err != nil {
		p.failUnit(tr, stage.Stacking, key, err, log)
		return
	}
	p.track(tr.Complete(stage.Stacking, key, []string{u.Stack}))
	log.Info("unit computed", "stage", stage.Stacking, "unit", key, "tiles", len(u.Tiles))
}

// runScenes collects each scene's stacks, sorts the parallel lists by round,
// and runs stitching and metadata for scenes whose stacks all arrived.
func (p *Pipeline) runScenes(ctx context.Context, tr *Tracker, plan *Plan, log *slog.Logger) {
	var stacks []stage.Stack
	for _, u := range plan.Units {
		if st, _ := tr.State(stage.Stacking, u.Key()); st == UnitComputed {
			stacks = append(stacks, stage.Stack{Scene: u.Scene, Round: u.Round, Path: u.Stack, TilesList: u.TilesList})
		}
	}
	grouped := flow.GroupByKey(flow.FromSlice(stacks), func(s stage.Stack) string { return s.Scene })
	perScene := make(map[string]stage.SceneStacks, grouped.Len())
	for _, g := range grouped.Items() {
		ss := stage.SceneStacks{Scene: g.Key}
		for _, st := range g.Items {
			ss.Rounds = append(ss.Rounds, st.Round)
			ss.TileLists = append(ss.TileLists, st.TilesList)
			ss.Stacks = append(ss.Stacks, st.Path)
		}
		perScene[g.Key] = ss
	}

	var wg sync.WaitGroup
	for _, sp := range plan.Scenes {
		sp := sp
		if len(sp.Rounds) == 0 {
			continue
		}
		ss, ok := perScene[sp.Scene]
		if !ok || len(ss.Rounds) < len(sp.Rounds) {
			cause := p.firstIncompleteStack(tr, plan, sp.Scene)
			p.track(tr.Abort(stage.Stitching, sp.Scene, cause))
			p.track(tr.Abort(stage.Metadata, sp.Scene, cause))
			p.track(tr.AdvanceScene(sp.Scene, SceneIncomplete))
			log.Warn("scene incomplete", "scene", sp.Scene, "cause", cause)
			continue
		}
		p.track(tr.AdvanceScene(sp.Scene, SceneStacksBuilt))
		ss.SortByRound()
		p.track(tr.AdvanceScene(sp.Scene, SceneSorted))

		wg.Add(1)
		go func() {
			defer wg.Done()
			p.runScene(ctx, tr, sp, ss, plan.Slide.Name, log)
		}()
	}
	wg.Wait()
}

func (p *Pipeline) firstIncompleteStack(tr *Tracker, plan *Plan, scene string) string {
	for _, u := range plan.UnitsForScene(scene) {
		if st, _ := tr.State(stage.Stacking, u.Key()); st != UnitComputed {
			return unitID(stage.Stacking, u.Key())
		}
	}
	return ""
}

// runScene writes the shared scene inputs, then runs stitching and metadata
// in parallel. Both consume the sorted stack list; metadata additionally
// takes the round-to-tiles table.
func (p *Pipeline) runScene(ctx context.Context, tr *Tracker, sp ScenePlan, ss stage.SceneStacks, slideName string, log *slog.Logger) {
	if err := ctx.Err(); err != nil {
		p.track(tr.Abort(stage.Stitching, sp.Scene, "run cancelled"))
		p.track(tr.Abort(stage.Metadata, sp.Scene, "run cancelled"))
		return
	}
	if err := job.WriteList(sp.StacksList, ss.Stacks); err != nil {
		err = fmt.Errorf("write stacks list: %w", err)
		p.track(tr.Start(stage.Stitching, sp.Scene))
		p.failUnit(tr, stage.Stitching, sp.Scene, err, log)
		p.track(tr.Start(stage.Metadata, sp.Scene))
		p.failUnit(tr, stage.Metadata, sp.Scene, err, log)
		p.track(tr.AdvanceScene(sp.Scene, SceneIncomplete))
		return
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.track(tr.Start(stage.Stitching, sp.Scene))
		spec := stage.StitchingSpec(p.Params.Stitching, sp.Scene, sp.StacksList, sp.Stitched)
		if err := p.Runner.Submit(ctx, spec); err != nil {
			p.failUnit(tr, stage.Stitching, sp.Scene, err, log)
			p.track(tr.AdvanceScene(sp.Scene, SceneIncomplete))
			return
		}
		p.track(tr.Complete(stage.Stitching, sp.Scene, []string{sp.Stitched}))
		p.track(tr.AdvanceScene(sp.Scene, SceneStitched))
		log.Info("unit computed", "stage", stage.Stitching, "unit", sp.Scene, "rounds", len(ss.Rounds))
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		p.track(tr.Start(stage.Metadata, sp.Scene))
		rows := make([][2]string, len(ss.Rounds))
		for i := range ss.Rounds {
			rows[i] = [2]string{ss.Rounds[i], ss.TileLists[i]}
		}
		if err := job.WriteTSV(sp.TilesTable, rows); err != nil {
			p.failUnit(tr, stage.Metadata, sp.Scene, fmt.Errorf("write tiles table: %w", err), log)
			return
		}
		imageName := slideName + "_" + sp.Scene
		spec := stage.MetadataSpec(p.Params.Metadata, sp.Scene, sp.StacksList, sp.TilesTable, sp.Metadata, imageName)
		if err := p.Runner.Submit(ctx, spec); err != nil {
			p.failUnit(tr, stage.Metadata, sp.Scene, err, log)
			return
		}
		p.track(tr.Complete(stage.Metadata, sp.Scene, []string{sp.Metadata}))
		log.Info("unit computed", "stage", stage.Metadata, "unit", sp.Scene)
	}()
	wg.Wait()
}

func (p *Pipeline) failUnit(tr *Tracker, stageName, key string, err error, log *slog.Logger) {
	p.track(tr.Fail(stageName, key, err))
	log.Error("unit failed", "stage", stageName, "unit", key, "error", err)
}

// finish aborts anything still unseen, settles scene states, builds the
// report and persists it.
func (p *Pipeline) finish(tr *Tracker, plan *Plan, runID string, started time.Time, log *slog.Logger) *Report {
	for _, u := range tr.Units() {
		if u.State == UnitUnseen {
			p.track(tr.Abort(u.Stage, u.Key, "run cancelled"))
		}
	}
	for _, sp := range plan.Scenes {
		st, ok := tr.SceneStateOf(sp.Scene)
		if ok && st != SceneStitched && st != SceneIncomplete {
			p.track(tr.AdvanceScene(sp.Scene, SceneIncomplete))
		}
	}

	units, summary := buildUnitReports(tr.Units())
	scenes := make([]SceneReport, 0, len(plan.Scenes))
	for _, sp := range plan.Scenes {
		st, _ := tr.SceneStateOf(sp.Scene)
		sr := SceneReport{Name: sp.Scene, State: st}
		if st == SceneStitched {
			sr.Stitched = sp.Stitched
		}
		if mst, ok := tr.State(stage.Metadata, sp.Scene); ok && mst == UnitComputed {
			sr.Metadata = sp.Metadata
		}
		scenes = append(scenes, sr)
	}

	report := &Report{
		RunID:      runID,
		Slide:      plan.Slide.Name,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Summary:    summary,
		Units:      units,
		Scenes:     scenes,
	}
	if p.Warnings != nil {
		report.Warnings = p.Warnings.Warnings()
	}

	log.Info("run finished",
		"computed", summary.Computed,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"aborted", summary.Aborted,
		"duration", report.FinishedAt.Sub(report.StartedAt))

	if p.Journal != nil {
		if path, err := p.Journal.WriteReport(*report); err != nil {
			log.Error("persist report", "error", err)
		} else {
			log.Info("report written", "path", path)
		}
	}
	return report
}
