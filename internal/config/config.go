package config

import (
	"path/filepath"

	"slidepress/internal/artifact"
	"slidepress/internal/job"
	"slidepress/internal/pipeline"
	"slidepress/internal/stage"
)

// Resources mirrors the per-stage resource hints. Zero values mean "let the
// tool decide" and are omitted from the invocation.
type Resources struct {
	CPUs   int    `yaml:"cpus" validate:"gte=0"`
	Memory string `yaml:"memory"`
}

func (r Resources) hints() job.Resources {
	return job.Resources{CPUs: r.CPUs, Memory: r.Memory}
}

// IlluminationConfig configures the per-round illumination profile stage.
type IlluminationConfig struct {
	Program   string    `yaml:"program" validate:"required"`
	Darkfield bool      `yaml:"darkfield"`
	DarkDir   string    `yaml:"dark_dir"`
	Resources Resources `yaml:"resources"`
}

// UnmixingConfig configures the per-round unmixing mosaic stage.
type UnmixingConfig struct {
	Program         string    `yaml:"program" validate:"required"`
	SampleTiles     int       `yaml:"sample_tiles" validate:"gte=1"`
	MidChunkSize    int       `yaml:"mid_chunk_size" validate:"gte=1"`
	Downsample      int       `yaml:"downsample" validate:"gte=1"`
	DarkDir         string    `yaml:"dark_dir"`
	ScalesShiftsDir string    `yaml:"scales_shifts_dir"`
	RefChannel      int       `yaml:"ref_channel" validate:"gte=0"`
	Resources       Resources `yaml:"resources"`
}

// StackingConfig configures the per-(scene, round) stacking stage.
type StackingConfig struct {
	Program         string    `yaml:"program" validate:"required"`
	DarkDir         string    `yaml:"dark_dir"`
	ScalesShiftsDir string    `yaml:"scales_shifts_dir"`
	Resources       Resources `yaml:"resources"`
}

// StitchingConfig configures the per-scene registration and stitching stage.
type StitchingConfig struct {
	Program      string    `yaml:"program" validate:"required"`
	AlignChannel int       `yaml:"align_channel" validate:"gte=0"`
	FilterSigma  float64   `yaml:"filter_sigma" validate:"gt=0"`
	MaximumShift float64   `yaml:"maximum_shift" validate:"gt=0"`
	TileSize     int       `yaml:"tile_size" validate:"gte=1"`
	Resources    Resources `yaml:"resources"`
}

// MetadataConfig configures the per-scene OME metadata stage.
type MetadataConfig struct {
	Program   string    `yaml:"program" validate:"required"`
	Resources Resources `yaml:"resources"`
}

// QAConfig configures the optional illumination assessment stage.
type QAConfig struct {
	Enabled     bool      `yaml:"enabled"`
	Program     string    `yaml:"program" validate:"required_if=Enabled true"`
	SampleTiles int       `yaml:"sample_tiles" validate:"gte=1"`
	Resources   Resources `yaml:"resources"`
}

// Stages groups the per-stage blocks.
type Stages struct {
	Illumination IlluminationConfig `yaml:"illumination"`
	Unmixing     UnmixingConfig     `yaml:"unmixing"`
	Stacking     StackingConfig     `yaml:"stacking"`
	Stitching    StitchingConfig    `yaml:"stitching"`
	Metadata     MetadataConfig     `yaml:"metadata"`
	QA           QAConfig           `yaml:"qa"`
}

// ForceConfig mirrors the explicit overwrite switches.
type ForceConfig struct {
	Illumination bool `yaml:"illumination"`
	Unmixing     bool `yaml:"unmixing"`
}

// Config is the complete run configuration. Load starts from Default and
// overlays the file, so absent keys keep their defaults.
type Config struct {
	// SlidePath is the slide root directory holding the manifest.
	SlidePath string `yaml:"slide_path" validate:"required"`

	// Scenes and Rounds restrict the run. Empty means everything discovered.
	Scenes []string `yaml:"scenes"`
	Rounds []string `yaml:"rounds"`

	// IllumDir and UnmixDir are the calibration artifact stores.
	IllumDir string `yaml:"illum_dir" validate:"required"`
	UnmixDir string `yaml:"unmix_dir" validate:"required"`

	// OutputDir receives per-scene stitched outputs; WorkDir holds scratch
	// lists and stacks, defaulting to <output_dir>/work.
	OutputDir string `yaml:"output_dir" validate:"required"`
	WorkDir   string `yaml:"work_dir"`

	Force ForceConfig `yaml:"force"`

	// Stub replaces every external job with an empty placeholder write.
	Stub bool `yaml:"stub"`

	// TotalCPUs bounds concurrent job admission. Zero means all host CPUs.
	TotalCPUs int `yaml:"total_cpus" validate:"gte=0"`

	Stages Stages `yaml:"stages"`
}

// Default returns the configuration with every tool and tuning knob at its
// conventional value. Paths have no defaults; they must come from the file.
func Default() Config {
	return Config{
		Stages: Stages{
			Illumination: IlluminationConfig{
				Program:   "make_illum_profiles",
				Darkfield: true,
				Resources: Resources{CPUs: 4, Memory: "16GB"},
			},
			Unmixing: UnmixingConfig{
				Program:      "make_unmixing_mosaic",
				SampleTiles:  24,
				MidChunkSize: 512,
				Downsample:   4,
				Resources:    Resources{CPUs: 8, Memory: "48GB"},
			},
			Stacking: StackingConfig{
				Program:   "stack_tiles",
				Resources: Resources{CPUs: 4, Memory: "16GB"},
			},
			Stitching: StitchingConfig{
				Program:      "register_and_stitch",
				AlignChannel: 0,
				FilterSigma:  1.0,
				MaximumShift: 30.0,
				TileSize:     1024,
				Resources:    Resources{CPUs: 8, Memory: "48GB"},
			},
			Metadata: MetadataConfig{
				Program:   "write_ome_metadata",
				Resources: Resources{CPUs: 1, Memory: "2GB"},
			},
			QA: QAConfig{
				Program:     "assess_illum_profiles",
				SampleTiles: 12,
				Resources:   Resources{CPUs: 2, Memory: "8GB"},
			},
		},
	}
}

// Workspace returns the scratch and output locations.
func (c Config) Workspace() pipeline.Workspace {
	return pipeline.Workspace{WorkDir: c.WorkDir, OutDir: c.OutputDir}
}

// ForceFlags returns the artifact overwrite switches.
func (c Config) ForceFlags() artifact.Force {
	return artifact.Force{Illumination: c.Force.Illumination, Unmixing: c.Force.Unmixing}
}

// StageParams maps the configuration onto the stage parameter bundle.
func (c Config) StageParams() pipeline.StageParams {
	s := c.Stages
	return pipeline.StageParams{
		Illumination: stage.IlluminationParams{
			Program:   s.Illumination.Program,
			Darkfield: s.Illumination.Darkfield,
			DarkDir:   s.Illumination.DarkDir,
			Resources: s.Illumination.Resources.hints(),
		},
		Unmixing: stage.UnmixingParams{
			Program:         s.Unmixing.Program,
			SampleTiles:     s.Unmixing.SampleTiles,
			MidChunkSize:    s.Unmixing.MidChunkSize,
			Downsample:      s.Unmixing.Downsample,
			DarkDir:         s.Unmixing.DarkDir,
			ScalesShiftsDir: s.Unmixing.ScalesShiftsDir,
			RefChannel:      s.Unmixing.RefChannel,
			Resources:       s.Unmixing.Resources.hints(),
		},
		Stacking: stage.StackingParams{
			Program:         s.Stacking.Program,
			DarkDir:         s.Stacking.DarkDir,
			ScalesShiftsDir: s.Stacking.ScalesShiftsDir,
			Resources:       s.Stacking.Resources.hints(),
		},
		Stitching: stage.StitchingParams{
			Program:      s.Stitching.Program,
			AlignChannel: s.Stitching.AlignChannel,
			FilterSigma:  s.Stitching.FilterSigma,
			MaximumShift: s.Stitching.MaximumShift,
			TileSize:     s.Stitching.TileSize,
			Resources:    s.Stitching.Resources.hints(),
		},
		Metadata: stage.MetadataParams{
			Program:   s.Metadata.Program,
			Resources: s.Metadata.Resources.hints(),
		},
		QA: stage.QAParams{
			Program:     s.QA.Program,
			SampleTiles: s.QA.SampleTiles,
			Resources:   s.QA.Resources.hints(),
		},
		QAEnabled: s.QA.Enabled,
	}
}

// normalize fills derived fields after the file overlay.
func (c *Config) normalize() {
	if c.WorkDir == "" && c.OutputDir != "" {
		c.WorkDir = filepath.Join(c.OutputDir, "work")
	}
}
