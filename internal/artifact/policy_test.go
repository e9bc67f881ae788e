package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storesWith(t *testing.T, illumFiles, unmixFiles []string) (*MemStore, *MemStore) {
	t.Helper()
	illum := NewMemStore("/artifacts/illumination")
	unmix := NewMemStore("/artifacts/unmixing")
	for _, f := range illumFiles {
		require.NoError(t, illum.Write(f, nil))
	}
	for _, f := range unmixFiles {
		require.NoError(t, unmix.Write(f, nil))
	}
	return illum, unmix
}

func TestPolicy_CompleteProfileIsNotRecomputed(t *testing.T) {
	illum, unmix := storesWith(t,
		[]string{FlatfieldName("R0"), DarkfieldName("R0")}, nil)
	p := NewPolicy(illum, unmix, Force{})

	needs, err := p.NeedsIlluminationProfile("R0")
	require.NoError(t, err)
	assert.False(t, needs)
}

func TestPolicy_MissingEitherHalfRequiresCompute(t *testing.T) {
	illum, unmix := storesWith(t, []string{FlatfieldName("R0")}, nil)
	p := NewPolicy(illum, unmix, Force{})

	needs, err := p.NeedsIlluminationProfile("R0")
	require.NoError(t, err)
	assert.True(t, needs, "darkfield missing")

	needs, err = p.NeedsIlluminationProfile("R1")
	require.NoError(t, err)
	assert.True(t, needs, "both missing")
}

func TestPolicy_ForceOverridesExistence(t *testing.T) {
	illum, unmix := storesWith(t,
		[]string{FlatfieldName("R0"), DarkfieldName("R0")},
		[]string{MosaicName("R0")})
	p := NewPolicy(illum, unmix, Force{Illumination: true, Unmixing: true})

	needsIllum, err := p.NeedsIlluminationProfile("R0")
	require.NoError(t, err)
	needsMosaic, err := p.NeedsUnmixingMosaic("R0")
	require.NoError(t, err)

	assert.True(t, needsIllum)
	assert.True(t, needsMosaic)
}

func TestPolicy_MosaicExistenceIsSoleSignal(t *testing.T) {
	illum, unmix := storesWith(t, nil, []string{MosaicName("R1")})
	p := NewPolicy(illum, unmix, Force{})

	needs, err := p.NeedsUnmixingMosaic("R1")
	require.NoError(t, err)
	assert.False(t, needs)

	needs, err = p.NeedsUnmixingMosaic("R2")
	require.NoError(t, err)
	assert.True(t, needs)
}

func TestPolicy_PathsAreIdenticalForComputedAndReused(t *testing.T) {
	illum, unmix := storesWith(t, nil, nil)
	p := NewPolicy(illum, unmix, Force{})

	flat, dark := p.IlluminationPaths("R3")
	assert.Equal(t, illum.Locate(FlatfieldName("R3")), flat)
	assert.Equal(t, illum.Locate(DarkfieldName("R3")), dark)
	assert.Equal(t, unmix.Locate(MosaicName("R3")), p.MosaicPath("R3"))
}
