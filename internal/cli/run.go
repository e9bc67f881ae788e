package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"slidepress/internal/job"
	"slidepress/internal/pipeline"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var fl selectionFlags
	var stub bool
	var jobs int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the pipeline for a slide",
		Long: `run discovers the slide, freezes the compute-or-reuse decision for every
calibration artifact, and executes all units. A failed unit aborts only the
units depending on it; the rest of the slide keeps processing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd.Context(), opts, fl, stub, jobs)
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&fl.scenes, "scenes", nil, "restrict the run to these scenes")
	f.StringSliceVar(&fl.rounds, "rounds", nil, "restrict the run to these rounds")
	f.BoolVar(&fl.forceIllum, "force-illumination", false, "recompute illumination profiles even when present")
	f.BoolVar(&fl.forceUnmix, "force-unmixing", false, "recompute unmixing mosaics even when present")
	f.BoolVar(&stub, "stub", false, "write empty placeholder outputs instead of invoking the tools")
	f.IntVar(&jobs, "jobs", 0, "CPU budget for concurrent jobs (0 means all host CPUs)")
	return cmd
}

func runPipeline(ctx context.Context, opts *rootOptions, fl selectionFlags, stub bool, jobs int) error {
	log := opts.logger()

	cfg, err := loadConfig(opts, fl)
	if err != nil {
		return err
	}
	cfg.Stub = cfg.Stub || stub
	if jobs > 0 {
		cfg.TotalCPUs = jobs
	}

	plan, rec, err := openAndBuild(ctx, cfg, log)
	if err != nil {
		return err
	}

	var runner job.Runner
	if cfg.Stub {
		runner = job.NewStubRunner()
	} else {
		runner = &job.ExecRunner{}
	}
	budget := cfg.TotalCPUs
	if budget <= 0 {
		budget = runtime.NumCPU()
	}
	runner = job.NewScheduler(runner, budget)

	journal, err := pipeline.NewJournal(cfg.WorkDir)
	if err != nil {
		return exitErr(ExitCorpusConfigError, err)
	}

	p := &pipeline.Pipeline{
		Runner:   runner,
		Params:   cfg.StageParams(),
		Work:     cfg.Workspace(),
		Log:      log,
		Warnings: rec,
		Journal:  journal,
	}
	report, runErr := p.Run(ctx, plan)
	if report != nil {
		printSummary(opts.stdout, report)
	}
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
			return exitErr(ExitRunFailure, fmt.Errorf("run cancelled: %w", runErr))
		}
		return exitErr(ExitInternalError, runErr)
	}
	if !report.Succeeded() {
		return exitErr(ExitRunFailure, fmt.Errorf("%d of %d units did not complete",
			report.Summary.Failed+report.Summary.Aborted, len(report.Units)))
	}
	return nil
}

func printSummary(w io.Writer, r *pipeline.Report) {
	fmt.Fprintf(w, "run %s: %d computed, %d skipped, %d failed, %d aborted\n",
		r.RunID, r.Summary.Computed, r.Summary.Skipped, r.Summary.Failed, r.Summary.Aborted)
	for _, s := range r.Scenes {
		switch s.State {
		case pipeline.SceneStitched:
			fmt.Fprintf(w, "  %s: stitched -> %s\n", s.Name, s.Stitched)
		default:
			fmt.Fprintf(w, "  %s: incomplete\n", s.Name)
		}
	}
}
