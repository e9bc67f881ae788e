package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_ComputePath(t *testing.T) {
	tr := NewTracker()
	require.NoError(t, tr.Register("illumination", "R0"))

	require.NoError(t, tr.Start("illumination", "R0"))
	require.NoError(t, tr.Complete("illumination", "R0", []string{"/a/flat.tiff"}))

	st, ok := tr.State("illumination", "R0")
	require.True(t, ok)
	assert.Equal(t, UnitComputed, st)

	units := tr.Units()
	require.Len(t, units, 1)
	assert.Equal(t, []string{"/a/flat.tiff"}, units[0].Artifacts)
}

func TestTracker_SkipAndAbortLeaveUnseen(t *testing.T) {
	tr := NewTracker()
	require.NoError(t, tr.Register("unmixing", "R0"))
	require.NoError(t, tr.Register("unmixing", "R1"))

	require.NoError(t, tr.Skip("unmixing", "R0", []string{"/a/mosaic.tiff"}))
	require.NoError(t, tr.Abort("unmixing", "R1", "illumination/R1"))

	st, _ := tr.State("unmixing", "R0")
	assert.Equal(t, UnitSkipped, st)
	st, _ = tr.State("unmixing", "R1")
	assert.Equal(t, UnitAborted, st)

	units := tr.Units()
	assert.Equal(t, "illumination/R1", units[1].Cause)
}

func TestTracker_TerminalStatesAreFinal(t *testing.T) {
	tr := NewTracker()
	require.NoError(t, tr.Register("stacking", "sceneA/R0"))
	require.NoError(t, tr.Start("stacking", "sceneA/R0"))
	require.NoError(t, tr.Fail("stacking", "sceneA/R0", errors.New("exit 3")))

	assert.Error(t, tr.Start("stacking", "sceneA/R0"))
	assert.Error(t, tr.Complete("stacking", "sceneA/R0", nil))
	assert.Error(t, tr.Abort("stacking", "sceneA/R0", "x"))

	st, _ := tr.State("stacking", "sceneA/R0")
	assert.Equal(t, UnitFailed, st)
}

func TestTracker_SkippedUnitCannotStart(t *testing.T) {
	tr := NewTracker()
	require.NoError(t, tr.Register("illumination", "R0"))
	require.NoError(t, tr.Skip("illumination", "R0", nil))

	assert.Error(t, tr.Start("illumination", "R0"))
}

func TestTracker_DuplicateRegistrationIsRejected(t *testing.T) {
	tr := NewTracker()
	require.NoError(t, tr.Register("illumination", "R0"))
	assert.Error(t, tr.Register("illumination", "R0"))
}

func TestTracker_UnknownUnitIsRejected(t *testing.T) {
	tr := NewTracker()
	assert.Error(t, tr.Start("illumination", "R9"))
	_, ok := tr.State("illumination", "R9")
	assert.False(t, ok)
}

func TestTracker_UnitsKeepRegistrationOrder(t *testing.T) {
	tr := NewTracker()
	require.NoError(t, tr.Register("illumination", "R1"))
	require.NoError(t, tr.Register("illumination", "R0"))
	require.NoError(t, tr.Register("stacking", "sceneA/R0"))

	units := tr.Units()
	require.Len(t, units, 3)
	assert.Equal(t, "R1", units[0].Key)
	assert.Equal(t, "R0", units[1].Key)
	assert.Equal(t, "stacking", units[2].Stage)
}

func TestSceneMachine_HappyPath(t *testing.T) {
	tr := NewTracker()
	require.NoError(t, tr.RegisterScene("sceneA"))

	require.NoError(t, tr.AdvanceScene("sceneA", SceneStacksBuilt))
	require.NoError(t, tr.AdvanceScene("sceneA", SceneSorted))
	require.NoError(t, tr.AdvanceScene("sceneA", SceneStitched))

	st, ok := tr.SceneStateOf("sceneA")
	require.True(t, ok)
	assert.Equal(t, SceneStitched, st)
}

func TestSceneMachine_CannotSkipSorting(t *testing.T) {
	tr := NewTracker()
	require.NoError(t, tr.RegisterScene("sceneA"))
	require.NoError(t, tr.AdvanceScene("sceneA", SceneStacksBuilt))

	assert.Error(t, tr.AdvanceScene("sceneA", SceneStitched))
}

func TestSceneMachine_IncompleteIsTerminal(t *testing.T) {
	tr := NewTracker()
	require.NoError(t, tr.RegisterScene("sceneA"))
	require.NoError(t, tr.AdvanceScene("sceneA", SceneIncomplete))

	assert.Error(t, tr.AdvanceScene("sceneA", SceneStacksBuilt))
	assert.Error(t, tr.AdvanceScene("sceneA", SceneStitched))
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(UnitUnseen))
	assert.False(t, IsTerminal(UnitComputing))
	assert.True(t, IsTerminal(UnitComputed))
	assert.True(t, IsTerminal(UnitSkipped))
	assert.True(t, IsTerminal(UnitFailed))
	assert.True(t, IsTerminal(UnitAborted))
}
