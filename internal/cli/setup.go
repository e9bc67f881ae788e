package cli

import (
	"context"
	"log/slog"

	"slidepress/internal/artifact"
	"slidepress/internal/config"
	"slidepress/internal/corpus"
	"slidepress/internal/diag"
	"slidepress/internal/pipeline"
)

// selectionFlags are the corpus and cache overrides shared by run and plan.
type selectionFlags struct {
	scenes     []string
	rounds     []string
	forceIllum bool
	forceUnmix bool
}

// loadConfig reads the configuration file and overlays the command flags.
func loadConfig(opts *rootOptions, fl selectionFlags) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, exitErr(ExitCorpusConfigError, err)
	}
	if len(fl.scenes) > 0 {
		cfg.Scenes = fl.scenes
	}
	if len(fl.rounds) > 0 {
		cfg.Rounds = fl.rounds
	}
	cfg.Force.Illumination = cfg.Force.Illumination || fl.forceIllum
	cfg.Force.Unmixing = cfg.Force.Unmixing || fl.forceUnmix
	return cfg, nil
}

// openAndBuild discovers the corpus and assembles the plan. Warnings land in
// the returned recorder and are logged as they are already known.
func openAndBuild(ctx context.Context, cfg config.Config, log *slog.Logger) (*pipeline.Plan, *diag.Recorder, error) {
	rec := diag.NewRecorder()
	slide, err := corpus.Open(ctx, cfg.SlidePath, corpus.Options{Scenes: cfg.Scenes, Rounds: cfg.Rounds}, rec)
	if err != nil {
		return nil, nil, exitErr(ExitCorpusConfigError, err)
	}
	for _, w := range rec.Warnings() {
		log.Warn("corpus warning", "kind", string(w.Kind), "subject", w.Subject, "detail", w.Detail)
	}

	pol := artifact.NewPolicy(
		artifact.NewDirStore(cfg.IllumDir),
		artifact.NewDirStore(cfg.UnmixDir),
		cfg.ForceFlags(),
	)
	plan, err := pipeline.Build(ctx, slide, pol, cfg.Workspace(), cfg.StageParams())
	if err != nil {
		return nil, nil, exitErr(ExitCorpusConfigError, err)
	}
	return plan, rec, nil
}
