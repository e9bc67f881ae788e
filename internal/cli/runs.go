package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"slidepress/internal/pipeline"
)

func newRunsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List persisted run reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts, selectionFlags{})
			if err != nil {
				return err
			}
			journal, err := pipeline.NewJournal(cfg.WorkDir)
			if err != nil {
				return exitErr(ExitCorpusConfigError, err)
			}
			ids, err := journal.ListRunIDs()
			if err != nil {
				return exitErr(ExitInternalError, err)
			}
			for _, id := range ids {
				r, err := journal.ReadReport(id)
				if err != nil {
					fmt.Fprintf(opts.stdout, "%s: unreadable report: %v\n", id, err)
					continue
				}
				fmt.Fprintf(opts.stdout, "%s %s %s: %d computed, %d skipped, %d failed, %d aborted\n",
					r.FinishedAt.Format("2006-01-02T15:04:05Z07:00"), r.RunID, r.Slide,
					r.Summary.Computed, r.Summary.Skipped, r.Summary.Failed, r.Summary.Aborted)
			}
			if len(ids) == 0 {
				fmt.Fprintln(opts.stdout, "no runs recorded")
			}
			return nil
		},
	}
	return cmd
}
