package pipeline

import (
	"fmt"
	"sync"
)

// UnitState is the lifecycle state of one pipeline unit (a round-level
// calibration, a scene/round stack, a scene stitch, ...). Transitions are
// monotonic; a unit never leaves a terminal state.
type UnitState string

const (
	UnitUnseen    UnitState = "UNSEEN"
	UnitComputing UnitState = "COMPUTING"
	UnitComputed  UnitState = "COMPUTED"
	UnitSkipped   UnitState = "SKIPPED"
	UnitFailed    UnitState = "FAILED"
	UnitAborted   UnitState = "ABORTED"
)

// IsTerminal reports whether the unit has finished, one way or another.
func IsTerminal(s UnitState) bool {
	switch s {
	case UnitComputed, UnitSkipped, UnitFailed, UnitAborted:
		return true
	default:
		return false
	}
}

func allowedTransition(from, to UnitState) bool {
	switch from {
	case UnitUnseen:
		return to == UnitComputing || to == UnitSkipped || to == UnitAborted
	case UnitComputing:
		return to == UnitComputed || to == UnitFailed
	default:
		return false
	}
}

// SceneState is the per-scene progression toward a stitched output.
type SceneState string

const (
	SceneTilesCollected SceneState = "TILES_COLLECTED"
	SceneStacksBuilt    SceneState = "STACKS_BUILT"
	SceneSorted         SceneState = "SORTED"
	SceneStitched       SceneState = "STITCHED"
	SceneIncomplete     SceneState = "INCOMPLETE"
)

func allowedSceneTransition(from, to SceneState) bool {
	switch from {
	case SceneTilesCollected:
		return to == SceneStacksBuilt || to == SceneIncomplete
	case SceneStacksBuilt:
		return to == SceneSorted || to == SceneIncomplete
	case SceneSorted:
		return to == SceneStitched || to == SceneIncomplete
	default:
		return false
	}
}

// Unit is the tracked record for one unit of work.
type Unit struct {
	Stage     string
	Key       string
	State     UnitState
	Artifacts []string
	Cause     string
	Err       error
}

// Tracker records unit and scene states under validated transitions. It is
// safe for concurrent use; iteration order is registration order, so reports
// come out deterministic.
type Tracker struct {
	mu     sync.Mutex
	units  map[string]*Unit
	order  []string
	scenes map[string]SceneState
}

func NewTracker() *Tracker {
	return &Tracker{
		units:  make(map[string]*Unit),
		scenes: make(map[string]SceneState),
	}
}

func unitID(stage, key string) string { return stage + "/" + key }

// Register adds a unit in UNSEEN state. Registering the same unit twice is a
// wiring bug.
func (t *Tracker) Register(stage, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := unitID(stage, key)
	if _, ok := t.units[id]; ok {
		return fmt.Errorf("unit %s registered twice", id)
	}
	t.units[id] = &Unit{Stage: stage, Key: key, State: UnitUnseen}
	t.order = append(t.order, id)
	return nil
}

func (t *Tracker) transition(stage, key string, from, to UnitState) (*Unit, error) {
	id := unitID(stage, key)
	u, ok := t.units[id]
	if !ok {
		return nil, fmt.Errorf("unknown unit %s", id)
	}
	if u.State != from {
		return nil, fmt.Errorf("invalid transition for %s: expected %s, got %s", id, from, u.State)
	}
	if !allowedTransition(from, to) {
		return nil, fmt.Errorf("disallowed transition for %s: %s -> %s", id, from, to)
	}
	u.State = to
	return u, nil
}

// Start moves a unit into COMPUTING.
func (t *Tracker) Start(stage, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.transition(stage, key, UnitUnseen, UnitComputing)
	return err
}

// Complete moves a computing unit to COMPUTED and records its artifacts.
func (t *Tracker) Complete(stage, key string, artifacts []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	u, err := t.transition(stage, key, UnitComputing, UnitComputed)
	if err != nil {
		return err
	}
	u.Artifacts = append([]string(nil), artifacts...)
	return nil
}

// Skip marks a unit as satisfied by existing artifacts. The recorded
// artifacts are the reference paths the unit substitutes downstream.
func (t *Tracker) Skip(stage, key string, artifacts []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	u, err := t.transition(stage, key, UnitUnseen, UnitSkipped)
	if err != nil {
		return err
	}
	u.Artifacts = append([]string(nil), artifacts...)
	return nil
}

// Fail marks a computing unit as failed with its error.
func (t *Tracker) Fail(stage, key string, cause error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	u, err := t.transition(stage, key, UnitComputing, UnitFailed)
	if err != nil {
		return err
	}
	u.Err = cause
	return nil
}

// Abort marks a unit that never ran because something it depends on failed.
func (t *Tracker) Abort(stage, key, cause string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	u, err := t.transition(stage, key, UnitUnseen, UnitAborted)
	if err != nil {
		return err
	}
	u.Cause = cause
	return nil
}

// State returns the current state of a unit, or UNSEEN-zero for unknown ids.
func (t *Tracker) State(stage, key string) (UnitState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	u, ok := t.units[unitID(stage, key)]
	if !ok {
		return "", false
	}
	return u.State, true
}

// Units returns a snapshot of all units in registration order.
func (t *Tracker) Units() []Unit {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Unit, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, *t.units[id])
	}
	return out
}

// RegisterScene starts a scene's progression at TILES_COLLECTED.
func (t *Tracker) RegisterScene(scene string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.scenes[scene]; ok {
		return fmt.Errorf("scene %s registered twice", scene)
	}
	t.scenes[scene] = SceneTilesCollected
	return nil
}

// AdvanceScene performs one validated scene transition.
func (t *Tracker) AdvanceScene(scene string, to SceneState) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	cur, ok := t.scenes[scene]
	if !ok {
		return fmt.Errorf("unknown scene %s", scene)
	}
	if !allowedSceneTransition(cur, to) {
		return fmt.Errorf("disallowed scene transition for %s: %s -> %s", scene, cur, to)
	}
	t.scenes[scene] = to
	return nil
}

// SceneStateOf returns the scene's current state.
func (t *Tracker) SceneStateOf(scene string) (SceneState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.scenes[scene]
	return s, ok
}
