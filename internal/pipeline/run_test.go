package pipeline

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slidepress/internal/artifact"
	"slidepress/internal/corpus"
	"slidepress/internal/job"
	"slidepress/internal/stage"
)

// failingRunner wraps a runner and fails the configured units.
type failingRunner struct {
	inner job.Runner
	fail  map[string]bool
}

func (f *failingRunner) Submit(ctx context.Context, spec job.Spec) error {
	if f.fail[spec.Stage+"/"+spec.Key] {
		return &job.ExternalJobFailure{Stage: spec.Stage, Key: spec.Key, Program: spec.Program, ExitCode: 3}
	}
	return f.inner.Submit(ctx, spec)
}

func runPlan(t *testing.T, f *fixture, runner job.Runner, force artifact.Force) *Report {
	t.Helper()
	plan := f.build(t, force)
	p := &Pipeline{Runner: runner, Params: f.params, Work: f.ws}
	report, err := p.Run(context.Background(), plan)
	require.NoError(t, err)
	return report
}

func unitState(t *testing.T, r *Report, stageName, key string) UnitState {
	t.Helper()
	for _, u := range r.Units {
		if u.Stage == stageName && u.Key == key {
			return u.State
		}
	}
	t.Fatalf("unit %s/%s not in report", stageName, key)
	return ""
}

func sceneState(t *testing.T, r *Report, scene string) SceneState {
	t.Helper()
	for _, s := range r.Scenes {
		if s.Name == scene {
			return s.State
		}
	}
	t.Fatalf("scene %s not in report", scene)
	return ""
}

func TestRun_StubEndToEnd(t *testing.T) {
	f := newFixture(t, map[string][]string{
		"sceneA": {"R0", "R1"},
		"sceneB": {"R0", "R1"},
	}, 3)
	stub := job.NewStubRunner()

	report := runPlan(t, f, stub, artifact.Force{})

	assert.Len(t, stub.SubmittedFor(stage.Illumination), 2)
	assert.Len(t, stub.SubmittedFor(stage.Unmixing), 2)
	assert.Len(t, stub.SubmittedFor(stage.Stacking), 4)
	assert.Len(t, stub.SubmittedFor(stage.Stitching), 2)
	assert.Len(t, stub.SubmittedFor(stage.Metadata), 2)

	assert.Equal(t, Summary{Computed: 12}, report.Summary)
	assert.True(t, report.Succeeded())
	assert.Equal(t, SceneStitched, sceneState(t, report, "sceneA"))
	assert.Equal(t, SceneStitched, sceneState(t, report, "sceneB"))

	for _, scene := range []string{"sceneA", "sceneB"} {
		_, err := os.Stat(f.ws.StitchedPath(scene))
		assert.NoError(t, err, "stitched output for %s", scene)
		_, err = os.Stat(f.ws.MetadataPath(scene))
		assert.NoError(t, err, "metadata output for %s", scene)
	}
	for _, round := range []string{"R0", "R1"} {
		ok, err := f.illum.Exists(artifact.FlatfieldName(round))
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = f.unmix.Exists(artifact.MosaicName(round))
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestRun_ExistingArtifactsAreSkipped(t *testing.T) {
	f := newFixture(t, map[string][]string{"sceneA": {"R0", "R1"}}, 3)
	require.NoError(t, f.illum.Write(artifact.FlatfieldName("R0"), nil))
	require.NoError(t, f.illum.Write(artifact.DarkfieldName("R0"), nil))
	require.NoError(t, f.unmix.Write(artifact.MosaicName("R0"), nil))
	stub := job.NewStubRunner()

	report := runPlan(t, f, stub, artifact.Force{})

	assert.Equal(t, UnitSkipped, unitState(t, report, stage.Illumination, "R0"))
	assert.Equal(t, UnitSkipped, unitState(t, report, stage.Unmixing, "R0"))
	assert.Equal(t, UnitComputed, unitState(t, report, stage.Illumination, "R1"))

	// Only R1 calibrations reached the runner.
	illum := stub.SubmittedFor(stage.Illumination)
	require.Len(t, illum, 1)
	assert.Equal(t, "R1", illum[0].Key)

	// Stacking for R0 consumed the pre-existing profile paths.
	var r0Stack *job.Spec
	for _, s := range stub.SubmittedFor(stage.Stacking) {
		if s.Key == "sceneA/R0" {
			r0Stack = &s
			break
		}
	}
	require.NotNil(t, r0Stack)
	assert.Contains(t, r0Stack.Args, f.illum.Locate(artifact.FlatfieldName("R0")))

	assert.Equal(t, 2, report.Summary.Skipped)
	assert.Equal(t, 0, report.Summary.Failed)
	assert.True(t, report.Succeeded())
	assert.Equal(t, SceneStitched, sceneState(t, report, "sceneA"))
}

func TestRun_ForceRecomputesEverything(t *testing.T) {
	f := newFixture(t, map[string][]string{"sceneA": {"R0"}}, 3)
	require.NoError(t, f.illum.Write(artifact.FlatfieldName("R0"), nil))
	require.NoError(t, f.illum.Write(artifact.DarkfieldName("R0"), nil))
	require.NoError(t, f.unmix.Write(artifact.MosaicName("R0"), nil))
	stub := job.NewStubRunner()

	report := runPlan(t, f, stub, artifact.Force{Illumination: true, Unmixing: true})

	assert.Equal(t, 0, report.Summary.Skipped)
	assert.Len(t, stub.SubmittedFor(stage.Illumination), 1)
	assert.Len(t, stub.SubmittedFor(stage.Unmixing), 1)
}

func TestRun_FailedIlluminationAbortsOnlyDependents(t *testing.T) {
	f := newFixture(t, map[string][]string{
		"sceneA": {"R0", "R1"},
		"sceneB": {"R1"},
	}, 3)
	runner := &failingRunner{
		inner: job.NewStubRunner(),
		fail:  map[string]bool{stage.Illumination + "/R0": true},
	}

	report := runPlan(t, f, runner, artifact.Force{})

	assert.Equal(t, UnitFailed, unitState(t, report, stage.Illumination, "R0"))
	assert.Equal(t, UnitAborted, unitState(t, report, stage.Unmixing, "R0"))
	assert.Equal(t, UnitAborted, unitState(t, report, stage.Stacking, "sceneA/R0"))

	// R1 never depended on R0 and keeps computing.
	assert.Equal(t, UnitComputed, unitState(t, report, stage.Illumination, "R1"))
	assert.Equal(t, UnitComputed, unitState(t, report, stage.Unmixing, "R1"))
	assert.Equal(t, UnitComputed, unitState(t, report, stage.Stacking, "sceneA/R1"))
	assert.Equal(t, UnitComputed, unitState(t, report, stage.Stacking, "sceneB/R1"))

	// sceneA is missing a stack, so it is excluded from stitching; sceneB is
	// untouched by the failure.
	assert.Equal(t, UnitAborted, unitState(t, report, stage.Stitching, "sceneA"))
	assert.Equal(t, UnitAborted, unitState(t, report, stage.Metadata, "sceneA"))
	assert.Equal(t, SceneIncomplete, sceneState(t, report, "sceneA"))
	assert.Equal(t, UnitComputed, unitState(t, report, stage.Stitching, "sceneB"))
	assert.Equal(t, SceneStitched, sceneState(t, report, "sceneB"))

	assert.Equal(t, 1, report.Summary.Failed)
	assert.False(t, report.Succeeded())
}

func TestRun_FailureCausesNameTheFailedUnit(t *testing.T) {
	f := newFixture(t, map[string][]string{"sceneA": {"R0"}}, 3)
	runner := &failingRunner{
		inner: job.NewStubRunner(),
		fail:  map[string]bool{stage.Illumination + "/R0": true},
	}

	report := runPlan(t, f, runner, artifact.Force{})

	for _, u := range report.Units {
		switch {
		case u.Stage == stage.Illumination:
			assert.Contains(t, u.Error, "exit")
		case u.Stage == stage.Unmixing || u.Stage == stage.Stacking:
			assert.Equal(t, "illumination/R0", u.Cause)
		case u.Stage == stage.Stitching || u.Stage == stage.Metadata:
			assert.Equal(t, "stacking/sceneA/R0", u.Cause)
		}
	}
}

func TestRun_ExistingMosaicSkipsEvenWhenProfileFails(t *testing.T) {
	f := newFixture(t, map[string][]string{"sceneA": {"R0"}}, 3)
	require.NoError(t, f.unmix.Write(artifact.MosaicName("R0"), nil))
	runner := &failingRunner{
		inner: job.NewStubRunner(),
		fail:  map[string]bool{stage.Illumination + "/R0": true},
	}

	report := runPlan(t, f, runner, artifact.Force{})

	// The mosaic exists, so the unit is satisfied regardless of the profile.
	assert.Equal(t, UnitSkipped, unitState(t, report, stage.Unmixing, "R0"))
	assert.Equal(t, UnitAborted, unitState(t, report, stage.Stacking, "sceneA/R0"))
}

func TestRun_FailedStackExcludesSceneFromStitching(t *testing.T) {
	f := newFixture(t, map[string][]string{
		"sceneA": {"R0"},
		"sceneB": {"R0"},
	}, 3)
	runner := &failingRunner{
		inner: job.NewStubRunner(),
		fail:  map[string]bool{stage.Stacking + "/sceneA/R0": true},
	}

	report := runPlan(t, f, runner, artifact.Force{})

	assert.Equal(t, UnitFailed, unitState(t, report, stage.Stacking, "sceneA/R0"))
	assert.Equal(t, UnitAborted, unitState(t, report, stage.Stitching, "sceneA"))
	assert.Equal(t, SceneIncomplete, sceneState(t, report, "sceneA"))

	assert.Equal(t, UnitComputed, unitState(t, report, stage.Stitching, "sceneB"))
	assert.Equal(t, SceneStitched, sceneState(t, report, "sceneB"))
}

func TestRun_QANeverGatesDownstream(t *testing.T) {
	f := newFixture(t, map[string][]string{"sceneA": {"R0"}}, 3)
	f.params.QAEnabled = true
	runner := &failingRunner{
		inner: job.NewStubRunner(),
		fail:  map[string]bool{stage.IlluminationQA + "/R0": true},
	}

	report := runPlan(t, f, runner, artifact.Force{})

	assert.Equal(t, UnitFailed, unitState(t, report, stage.IlluminationQA, "R0"))
	assert.Equal(t, UnitComputed, unitState(t, report, stage.Stacking, "sceneA/R0"))
	assert.Equal(t, SceneStitched, sceneState(t, report, "sceneA"))
	assert.False(t, report.Succeeded())
}

func TestRun_QAUnitsRunForReusedProfiles(t *testing.T) {
	f := newFixture(t, map[string][]string{"sceneA": {"R0"}}, 3)
	f.params.QAEnabled = true
	require.NoError(t, f.illum.Write(artifact.FlatfieldName("R0"), nil))
	require.NoError(t, f.illum.Write(artifact.DarkfieldName("R0"), nil))
	stub := job.NewStubRunner()

	report := runPlan(t, f, stub, artifact.Force{})

	assert.Equal(t, UnitSkipped, unitState(t, report, stage.Illumination, "R0"))
	assert.Equal(t, UnitComputed, unitState(t, report, stage.IlluminationQA, "R0"))
	qa := stub.SubmittedFor(stage.IlluminationQA)
	require.Len(t, qa, 1)
	assert.Contains(t, qa[0].Args, f.illum.Locate(artifact.FlatfieldName("R0")))
}

func TestRun_SceneWithNoSelectedRoundsIsIncomplete(t *testing.T) {
	root := buildSlideDir(t, map[string][]string{
		"sceneA": {"R0"},
		"sceneB": {"R1"},
	}, 2)
	f := &fixture{
		slide:  openSlide(t, root, corpus.Options{Rounds: []string{"R0"}}),
		illum:  artifact.NewDirStore(t.TempDir()),
		unmix:  artifact.NewDirStore(t.TempDir()),
		ws:     Workspace{WorkDir: t.TempDir(), OutDir: t.TempDir()},
		params: testParams(),
	}
	stub := job.NewStubRunner()

	report := runPlan(t, f, stub, artifact.Force{})

	assert.Equal(t, SceneStitched, sceneState(t, report, "sceneA"))
	assert.Equal(t, SceneIncomplete, sceneState(t, report, "sceneB"))
	// No stitch unit was ever created for the empty scene.
	for _, u := range report.Units {
		if u.Stage == stage.Stitching {
			assert.NotEqual(t, "sceneB", u.Key)
		}
	}
}

func TestRun_ReportIsJournaled(t *testing.T) {
	f := newFixture(t, map[string][]string{"sceneA": {"R0"}}, 2)
	journal, err := NewJournal(f.ws.WorkDir)
	require.NoError(t, err)
	stub := job.NewStubRunner()

	plan := f.build(t, artifact.Force{})
	p := &Pipeline{Runner: stub, Params: f.params, Work: f.ws, Journal: journal}
	report, err := p.Run(context.Background(), plan)
	require.NoError(t, err)
	require.NotEmpty(t, report.RunID)

	loaded, err := journal.ReadReport(report.RunID)
	require.NoError(t, err)
	assert.Equal(t, report.RunID, loaded.RunID)
	assert.Equal(t, report.Summary, loaded.Summary)
	assert.Len(t, loaded.Units, len(report.Units))

	ids, err := journal.ListRunIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{report.RunID}, ids)
}

func TestRun_CancelledContextAbortsRemainingUnits(t *testing.T) {
	f := newFixture(t, map[string][]string{"sceneA": {"R0"}}, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stub := job.NewStubRunner()

	plan := f.build(t, artifact.Force{})
	p := &Pipeline{Runner: stub, Params: f.params, Work: f.ws}
	report, err := p.Run(ctx, plan)

	require.Error(t, err)
	require.NotNil(t, report)
	assert.Equal(t, 0, report.Summary.Computed)
	for _, u := range report.Units {
		assert.Equal(t, UnitAborted, u.State, "unit %s/%s", u.Stage, u.Key)
	}
	assert.Equal(t, SceneIncomplete, sceneState(t, report, "sceneA"))
}
