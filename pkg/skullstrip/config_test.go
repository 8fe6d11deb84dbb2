package skullstrip

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
recipes:
  1A:
    seed_low_percentile: 0.6
    grow_max_iterations: 12
  2:
    aux_percentile: 0.7
`

func TestLoadFileConfigParsesPerRecipeOverrides(t *testing.T) {
	cfg, err := LoadFileConfig(strings.NewReader(sampleConfig))
	require.NoError(t, err)

	require.Contains(t, cfg.Recipes, Recipe1A)
	assert.Equal(t, 0.6, cfg.Recipes[Recipe1A].SeedLowPercentile)
	assert.Equal(t, 12, cfg.Recipes[Recipe1A].GrowMaxIterations)
	assert.Equal(t, 0.7, cfg.Recipes[Recipe2].AuxPercentile)
}

func TestLoadFileConfigRejectsUnknownField(t *testing.T) {
	_, err := LoadFileConfig(strings.NewReader("recipes:\n  1A:\n    bogus_field: 1\n"))
	assert.Error(t, err)
}

func TestApplyOverridesOnlyFillsZeroFields(t *testing.T) {
	cfg, err := LoadFileConfig(strings.NewReader(sampleConfig))
	require.NoError(t, err)

	params := Params{Recipe: Recipe1A, SeedHighPercentile: 0.99}
	merged := cfg.ApplyOverrides(params)

	assert.Equal(t, 0.6, merged.SeedLowPercentile)
	assert.Equal(t, 0.99, merged.SeedHighPercentile, "already-set field must not be overwritten by the file")
	assert.Equal(t, 12, merged.GrowMaxIterations)
}

func TestApplyOverridesOnNilConfigIsIdentity(t *testing.T) {
	var cfg *FileConfig
	params := Params{Recipe: Recipe1A, SeedLowPercentile: 0.4}
	assert.Equal(t, params, cfg.ApplyOverrides(params))
}

func TestApplyOverridesWithNoEntryForRecipeIsIdentity(t *testing.T) {
	cfg, err := LoadFileConfig(strings.NewReader(sampleConfig))
	require.NoError(t, err)
	params := Params{Recipe: Recipe3, SeedLowPercentile: 0.4}
	assert.Equal(t, params, cfg.ApplyOverrides(params))
}
