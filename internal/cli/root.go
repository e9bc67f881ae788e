package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"slidepress/internal/logging"
)

// version is overridden at build time via -ldflags.
var version = "dev"

type rootOptions struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	verbose    bool
	quiet      bool
	logJSON    bool
}

func (o *rootOptions) logger() *slog.Logger {
	return logging.Setup(o.stderr, logging.Options{Verbose: o.verbose, Quiet: o.quiet, JSON: o.logJSON})
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "slidepress",
		Short: "Orchestrate whole-slide image processing",
		Long: `slidepress discovers a slide's scenes, rounds and tiles, decides which
calibration artifacts need computing, and drives the external processing
tools through illumination profiling, unmixing, stacking and stitching.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "slidepress.yaml", "run configuration file")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVarP(&opts.quiet, "quiet", "q", false, "log warnings and errors only")
	pf.BoolVar(&opts.logJSON, "log-json", false, "force JSON log output")

	root.AddCommand(newRunCmd(opts), newPlanCmd(opts), newRunsCmd(opts))
	return root
}
