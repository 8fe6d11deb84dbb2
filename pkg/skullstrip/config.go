package skullstrip

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// FileConfig is the YAML shape recipe parameter overrides are read from:
// top-level keys name a Recipe, each mapping to the subset of Params
// fields the caller wants to override over that recipe's builtin
// defaults. Unset (zero-valued) fields in a recipe's block leave the
// builtin default untouched, same as a zero-valued Params field passed
// directly to Strip.
type FileConfig struct {
	Recipes map[Recipe]ParamOverrides `yaml:"recipes"`
}

// ParamOverrides mirrors Params' tunable fields (Recipe and
// VoxelSizeOverride/RemoveBrainStem are set by the CLI, not the file).
type ParamOverrides struct {
	SeedLowPercentile  float64 `yaml:"seed_low_percentile"`
	SeedHighPercentile float64 `yaml:"seed_high_percentile"`
	AuxPercentile      float64 `yaml:"aux_percentile"`
	CompactnessWeight  float64 `yaml:"compactness_weight"`
	GrowTolerance      float64 `yaml:"grow_tolerance"`
	GrowLessNeighbors  int     `yaml:"grow_less_neighbors"`
	GrowMaxIterations  int     `yaml:"grow_max_iterations"`
}

// LoadFileConfig parses a recipe-parameter override file with strict
// field checking, so a typo'd key is a load error rather than a
// silently-ignored no-op.
func LoadFileConfig(r io.Reader) (*FileConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("skullstrip: reading config: %w", err)
	}
	var cfg FileConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("skullstrip: parsing config: %w", err)
	}
	return &cfg, nil
}

// ApplyOverrides merges a FileConfig's entry for params.Recipe onto
// params, field by field, using the same "non-zero wins" rule Strip
// itself applies over the recipe's builtin defaults. A missing entry
// for the recipe leaves params untouched.
func (c *FileConfig) ApplyOverrides(params Params) Params {
	if c == nil {
		return params
	}
	o, ok := c.Recipes[params.Recipe]
	if !ok {
		return params
	}
	if params.SeedLowPercentile == 0 {
		params.SeedLowPercentile = o.SeedLowPercentile
	}
	if params.SeedHighPercentile == 0 {
		params.SeedHighPercentile = o.SeedHighPercentile
	}
	if params.AuxPercentile == 0 {
		params.AuxPercentile = o.AuxPercentile
	}
	if params.CompactnessWeight == 0 {
		params.CompactnessWeight = o.CompactnessWeight
	}
	if params.GrowTolerance == 0 {
		params.GrowTolerance = o.GrowTolerance
	}
	if params.GrowLessNeighbors == 0 {
		params.GrowLessNeighbors = o.GrowLessNeighbors
	}
	if params.GrowMaxIterations == 0 {
		params.GrowMaxIterations = o.GrowMaxIterations
	}
	return params
}
