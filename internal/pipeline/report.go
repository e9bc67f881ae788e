package pipeline

import (
	"time"

	"slidepress/internal/diag"
)

// UnitReport is the reported outcome of one unit.
type UnitReport struct {
	Stage     string    `json:"stage"`
	Key       string    `json:"key"`
	State     UnitState `json:"state"`
	Artifacts []string  `json:"artifacts,omitempty"`
	Cause     string    `json:"cause,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// SceneReport is the reported outcome of one scene.
type SceneReport struct {
	Name     string     `json:"name"`
	State    SceneState `json:"state"`
	Stitched string     `json:"stitched,omitempty"`
	Metadata string     `json:"metadata,omitempty"`
}

// Summary tallies unit outcomes across the run.
type Summary struct {
	Computed int `json:"computed"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
	Aborted  int `json:"aborted"`
}

// Report is the persisted record of one pipeline run.
type Report struct {
	RunID      string         `json:"run_id"`
	Slide      string         `json:"slide"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Summary    Summary        `json:"summary"`
	Warnings   []diag.Warning `json:"warnings,omitempty"`
	Units      []UnitReport   `json:"units"`
	Scenes     []SceneReport  `json:"scenes"`
}

// Succeeded reports whether every unit finished without failure. Aborted
// units count as failures: their work never happened.
func (r Report) Succeeded() bool {
	return r.Summary.Failed == 0 && r.Summary.Aborted == 0
}

func buildUnitReports(units []Unit) ([]UnitReport, Summary) {
	out := make([]UnitReport, 0, len(units))
	var sum Summary
	for _, u := range units {
		ur := UnitReport{
			Stage:     u.Stage,
			Key:       u.Key,
			State:     u.State,
			Artifacts: u.Artifacts,
			Cause:     u.Cause,
		}
		if u.Err != nil {
			ur.Error = u.Err.Error()
		}
		switch u.State {
		case UnitComputed:
			sum.Computed++
		case UnitSkipped:
			sum.Skipped++
		case UnitFailed:
			sum.Failed++
		case UnitAborted:
			sum.Aborted++
		}
		out = append(out, ur)
	}
	return out, sum
}
