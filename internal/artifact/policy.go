package artifact

import "fmt"

// Force carries the explicit overwrite configuration. It is the only way to
// make the policy recompute an artifact that already exists.
type Force struct {
	Illumination bool
	Unmixing     bool
}

// Policy decides, per round, whether a calibration artifact must be
// (re)computed. Existence of the artifact files is the sole recompute signal;
// there are no checksums and no timestamps. The policy is consulted once when
// the pipeline is assembled, never re-checked mid-run.
type Policy struct {
	illum Store
	unmix Store
	force Force
}

func NewPolicy(illum, unmix Store, force Force) *Policy {
	return &Policy{illum: illum, unmix: unmix, force: force}
}

// NeedsIlluminationProfile reports whether the round's illumination profile
// must be computed: true when either the flatfield or the darkfield file is
// missing, or when force-illumination is set.
func (p *Policy) NeedsIlluminationProfile(round string) (bool, error) {
	if p.force.Illumination {
		return true, nil
	}
	flat, err := p.illum.Exists(FlatfieldName(round))
	if err != nil {
		return false, fmt.Errorf("illumination policy for %s: %w", round, err)
	}
	dark, err := p.illum.Exists(DarkfieldName(round))
	if err != nil {
		return false, fmt.Errorf("illumination policy for %s: %w", round, err)
	}
	return !flat || !dark, nil
}

// NeedsUnmixingMosaic reports whether the round's unmixing mosaic must be
// computed: true when the mosaic file is missing or force-unmixing is set.
func (p *Policy) NeedsUnmixingMosaic(round string) (bool, error) {
	if p.force.Unmixing {
		return true, nil
	}
	mosaic, err := p.unmix.Exists(MosaicName(round))
	if err != nil {
		return false, fmt.Errorf("unmixing policy for %s: %w", round, err)
	}
	return !mosaic, nil
}

// IlluminationPaths returns the absolute flatfield and darkfield paths for a
// round, regardless of whether they exist yet. Skipped units reference these
// same paths, so downstream consumers cannot tell reused artifacts from
// freshly computed ones.
func (p *Policy) IlluminationPaths(round string) (flatfield, darkfield string) {
	return p.illum.Locate(FlatfieldName(round)), p.illum.Locate(DarkfieldName(round))
}

// MosaicPath returns the absolute unmixing mosaic path for a round.
func (p *Policy) MosaicPath(round string) string {
	return p.unmix.Locate(MosaicName(round))
}
