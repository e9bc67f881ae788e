package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"slidepress/internal/diag"
	"slidepress/internal/pipeline"
)

func newPlanCmd(opts *rootOptions) *cobra.Command {
	var fl selectionFlags

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what a run would do, without running anything",
		Long: `plan discovers the slide and prints every unit with its frozen
compute-or-reuse decision. Nothing is executed and no scratch files are
written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts, fl)
			if err != nil {
				return err
			}
			plan, rec, err := openAndBuild(cmd.Context(), cfg, opts.logger())
			if err != nil {
				return err
			}
			printPlan(opts.stdout, plan, rec)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&fl.scenes, "scenes", nil, "restrict the plan to these scenes")
	f.StringSliceVar(&fl.rounds, "rounds", nil, "restrict the plan to these rounds")
	f.BoolVar(&fl.forceIllum, "force-illumination", false, "plan as if illumination profiles were missing")
	f.BoolVar(&fl.forceUnmix, "force-unmixing", false, "plan as if unmixing mosaics were missing")
	return cmd
}

func printPlan(w io.Writer, plan *pipeline.Plan, rec *diag.Recorder) {
	fmt.Fprintf(w, "slide %s: %d scenes, %d rounds, %d stack units\n",
		plan.Slide.Name, len(plan.Scenes), len(plan.Rounds), len(plan.Units))

	for _, rp := range plan.Rounds {
		fmt.Fprintf(w, "round %s: profile %s, mosaic %s (%d tiles, sample %d)\n",
			rp.Round, decision(rp.ComputeProfile), decision(rp.ComputeMosaic),
			len(rp.Tiles), len(rp.Sample))
	}
	for _, sp := range plan.Scenes {
		if len(sp.Rounds) == 0 {
			fmt.Fprintf(w, "scene %s: no selected rounds, nothing to stitch\n", sp.Scene)
			continue
		}
		fmt.Fprintf(w, "scene %s: rounds %s -> %s\n",
			sp.Scene, strings.Join(sp.Rounds, " "), sp.Stitched)
	}
	if plan.QAEnabled {
		fmt.Fprintf(w, "illumination QA enabled for %d rounds\n", len(plan.Rounds))
	}
	for _, warn := range rec.Warnings() {
		fmt.Fprintf(w, "warning: %s\n", warn.String())
	}
}

func decision(compute bool) string {
	if compute {
		return "compute"
	}
	return "reuse"
}
