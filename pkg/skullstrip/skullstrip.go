// Package skullstrip orchestrates pkg/volume's filters into the fixed
// recipes (1A, 1B, 2, 3) that reduce a head MRI to its brain volume,
// plus the brain-stem removal post-pass (SPEC_FULL.md §4.4).
package skullstrip

import (
	"math"

	"github.com/esicore/esicore/internal/esierr"
	"github.com/esicore/esicore/pkg/gauge"
	"github.com/esicore/esicore/pkg/histogram"
	"github.com/esicore/esicore/pkg/numeric"
	"github.com/esicore/esicore/pkg/volume"
)

// Recipe selects one of the four fixed filter sequences.
type Recipe string

const (
	Recipe1A Recipe = "1A"
	Recipe1B Recipe = "1B"
	Recipe2  Recipe = "2"
	Recipe3  Recipe = "3"
)

// kernelSize scales a base voxel-unit radius by the estimated voxel size,
// rounding to the nearest odd diameter >= 1 the way pkg/volume's
// structuring elements expect.
func kernelSize(base, voxelSizeMM float64) int {
	d := int(math.Round(base / voxelSizeMM))
	if d < 1 {
		d = 1
	}
	if d%2 == 0 {
		d++
	}
	return d
}

// EstimateVoxelSize returns the larger of the volume's declared voxel
// size and 170mm divided by the mean extent of its head bounding box —
// the heuristic spec.md §4.4 specifies so morphological radii scale
// sensibly even when the declared voxel size is wrong or missing.
func EstimateVoxelSize(v *volume.Volume) float64 {
	declared := (v.VoxelSize.X + v.VoxelSize.Y + v.VoxelSize.Z) / 3
	bb := v.BoundingBox()
	fromExtent := 170.0 / bb.MeanExtent()
	if fromExtent > declared {
		return fromExtent
	}
	return declared
}

// Params bundles per-recipe knobs. Non-zero fields override the
// recipe's builtin defaults; the empirical constants 3.47 and 2.83 used
// by 1A/1B are reproduced verbatim (SPEC_FULL.md §9 open question) and
// must never be "simplified".
type Params struct {
	Recipe            Recipe
	VoxelSizeOverride float64 // 0 means estimate from the volume
	RemoveBrainStem   bool

	SeedLowPercentile  float64 // CDF percentile for the low seed threshold
	SeedHighPercentile float64 // CDF percentile for the high seed threshold
	AuxPercentile      float64 // CDF percentile for the CoV/PercentFullness clip
	CompactnessWeight  float64
	GrowTolerance      float64
	GrowLessNeighbors  int
	GrowMaxIterations  int
}

func defaultParams(recipe Recipe) Params {
	switch recipe {
	case Recipe1B:
		return Params{Recipe: recipe, SeedLowPercentile: 0.55, SeedHighPercentile: 0.97,
			AuxPercentile: 0.80, CompactnessWeight: 0.002, GrowTolerance: 2.5,
			GrowLessNeighbors: 2, GrowMaxIterations: 8}
	case Recipe2:
		return Params{Recipe: recipe, SeedLowPercentile: 0.40, SeedHighPercentile: 0.95,
			AuxPercentile: 0.75, CompactnessWeight: 0.0015, GrowTolerance: 3.0,
			GrowLessNeighbors: 2, GrowMaxIterations: 10}
	case Recipe3:
		return Params{Recipe: recipe, SeedLowPercentile: 0.45, SeedHighPercentile: 0.96,
			AuxPercentile: 0.78, CompactnessWeight: 0.0015, GrowTolerance: 2.8,
			GrowLessNeighbors: 1, GrowMaxIterations: 10}
	default: // Recipe1A
		return Params{Recipe: recipe, SeedLowPercentile: 0.50, SeedHighPercentile: 0.98,
			AuxPercentile: 0.82, CompactnessWeight: 0.002, GrowTolerance: 2.0,
			GrowLessNeighbors: 2, GrowMaxIterations: 8}
	}
}

// sensitivityField dispatches between MeanSubtraction (1A/1B) and
// MeanDivision (2/3) per spec.md §4.4 step 2.
func sensitivityField(v *volume.Volume, recipe Recipe, width int, collab *gauge.Collaborators) (*volume.Volume, error) {
	switch recipe {
	case Recipe1A, Recipe1B:
		return volume.MeanSubtraction(v, width, collab)
	default:
		return volume.MeanDivision(v, width, collab)
	}
}

// auxiliaryField dispatches between CoV (1A/1B, computed in its own
// local-statistics pass) and PercentFullness (2/3).
func auxiliaryField(v *volume.Volume, recipe Recipe, width int, collab *gauge.Collaborators) (*volume.Volume, error) {
	switch recipe {
	case Recipe1A, Recipe1B:
		return volume.CoV(v, width, collab)
	default:
		return volume.PercentFullness(v, width, collab)
	}
}

// Strip runs the common backbone (spec.md §4.4) under the selected
// recipe's parameters and returns the masked brain volume. It aborts
// early with esierr.Degenerate if any intermediate mask comes back
// empty, per the recipe's documented local-recovery policy.
func Strip(input *volume.Volume, params Params, collab *gauge.Collaborators) (*volume.Volume, error) {
	if collab == nil {
		collab = gauge.Headless()
	}
	if input.IsEmpty() {
		return nil, esierr.Degenerate
	}
	p := defaultParams(params.Recipe)
	if params.SeedLowPercentile != 0 {
		p.SeedLowPercentile = params.SeedLowPercentile
	}
	if params.SeedHighPercentile != 0 {
		p.SeedHighPercentile = params.SeedHighPercentile
	}
	if params.AuxPercentile != 0 {
		p.AuxPercentile = params.AuxPercentile
	}
	if params.CompactnessWeight != 0 {
		p.CompactnessWeight = params.CompactnessWeight
	}
	if params.GrowTolerance != 0 {
		p.GrowTolerance = params.GrowTolerance
	}
	if params.GrowLessNeighbors != 0 {
		p.GrowLessNeighbors = params.GrowLessNeighbors
	}
	if params.GrowMaxIterations != 0 {
		p.GrowMaxIterations = params.GrowMaxIterations
	}

	voxelSize := params.VoxelSizeOverride
	if voxelSize <= 0 {
		voxelSize = EstimateVoxelSize(input)
	}

	// Step 1: head mask via ToMask over the background threshold.
	headMask, err := volume.ToMask(input, input.Background, 1, true, collab)
	if err != nil {
		return nil, err
	}
	if headMask.IsEmpty() {
		return nil, esierr.Degenerate
	}

	// Step 2: sensitivity field, scaled by the recipe's local-stats window.
	statsWidth := kernelSize(3.47, voxelSize)
	sensitivity, err := sensitivityField(input, p.Recipe, statsWidth, collab)
	if err != nil {
		return nil, err
	}

	// Step 3: threshold the sensitivity field at two CDF percentiles.
	hist, err := histogram.NewFromVolume(sensitivity.Data, histogram.Options{Mask: headMask.Data, IgnoreNulls: true})
	if err != nil {
		return nil, esierr.Degenerate
	}
	lowT := hist.PercentilePosition(p.SeedLowPercentile)
	highT := hist.PercentilePosition(p.SeedHighPercentile)
	seed, err := volume.ThresholdBinarize(sensitivity, lowT, highT, 1, collab)
	if err != nil {
		return nil, err
	}
	if seed.IsEmpty() {
		return nil, esierr.Degenerate
	}

	// Step 4: clip with an auxiliary CoV/PercentFullness field.
	auxWidth := kernelSize(2.83, voxelSize)
	aux, err := auxiliaryField(input, p.Recipe, auxWidth, collab)
	if err != nil {
		return nil, err
	}
	auxHist, err := histogram.NewFromVolume(aux.Data, histogram.Options{Mask: seed.Data, IgnoreNulls: true})
	if err != nil {
		return nil, esierr.Degenerate
	}
	auxT := auxHist.PercentilePosition(p.AuxPercentile)
	clipped, err := intersectBelow(seed, aux, auxT)
	if err != nil {
		return nil, err
	}
	if clipped.IsEmpty() {
		return nil, esierr.Degenerate
	}

	// Step 5: keep the largest connected component by compact-count score.
	component, err := volume.LargestComponent(clipped, 18, p.CompactnessWeight, collab)
	if err != nil {
		return nil, err
	}
	if component.IsEmpty() {
		return nil, esierr.Degenerate
	}

	// Step 6: grow grey/white candidates via region growing.
	grown, err := volume.RegionGrowing(input, component, headMask, volume.RegionGrowingParams{
		Neighborhood:      18,
		Tolerance:         p.GrowTolerance,
		LocalStatsWidth:   statsWidth,
		LessNeighborsThan: p.GrowLessNeighbors,
		MaxIterations:     p.GrowMaxIterations,
		Thickness1:        true,
	}, collab)
	if err != nil {
		return nil, err
	}

	// Step 7: merge with OR (already the result of growth starting from
	// component), fill internal CSF via ToMask carveBack.
	filled, err := volume.ToMask(grown, 0, 1, true, collab)
	if err != nil {
		return nil, err
	}
	if filled.IsEmpty() {
		return nil, esierr.Degenerate
	}

	// Step 8: intersect with a heavily smoothed, dilated "big mask" to
	// kill thin leaks.
	bigDiameter := kernelSize(3.47*2, voxelSize)
	dilatedBig, err := volume.Dilate(filled, bigDiameter, collab)
	if err != nil {
		return nil, err
	}
	smoothedBig, err := volume.Gaussian(dilatedBig, float64(bigDiameter)/2, collab)
	if err != nil {
		return nil, err
	}
	bigMask, err := volume.Binarize(smoothedBig, collab)
	if err != nil {
		return nil, err
	}
	final, err := intersectMasks(filled, bigMask)
	if err != nil {
		return nil, err
	}
	if final.IsEmpty() {
		return nil, esierr.Degenerate
	}

	// Step 9: apply the final binary mask to the original MRI.
	masked, err := applyMask(input, final)
	if err != nil {
		return nil, err
	}

	if params.RemoveBrainStem {
		masked, err = RemoveBrainStem(masked, voxelSize, collab)
		if err != nil {
			return nil, err
		}
	}
	return masked, nil
}

// intersectBelow keeps seed voxels whose aux value is <= t, zeroing the
// rest — the clipping step described in spec.md §4.4 step 4.
func intersectBelow(seed, aux *volume.Volume, t float64) (*volume.Volume, error) {
	out := seed.Clone()
	sd := out.Data.Data()
	ad := aux.Data.Data()
	for i := range sd {
		if sd[i] != 0 && ad[i] > t {
			sd[i] = 0
		}
	}
	return out, nil
}

// intersectMasks keeps a voxel only where both masks are non-background.
func intersectMasks(a, b *volume.Volume) (*volume.Volume, error) {
	out := a.Clone()
	ad := out.Data.Data()
	bd := b.Data.Data()
	for i := range ad {
		if bd[i] == b.Background {
			ad[i] = a.Background
		}
	}
	return out, nil
}

// applyMask zeroes every voxel of src where mask is background, keeping
// the original intensity elsewhere.
func applyMask(src, mask *volume.Volume) (*volume.Volume, error) {
	out := src.Clone()
	od := out.Data.Data()
	md := mask.Data.Data()
	for i := range od {
		if md[i] == mask.Background {
			od[i] = out.Background
		}
	}
	return out, nil
}

// RemoveBrainStem erodes by a voxel count proportional to 10mm/voxel
// size, takes the bounding box of the result, expands it by ~1.7x the
// erosion radius, and clears every voxel outside the expanded box —
// removing the inferior elongation without a model (spec.md §4.4).
func RemoveBrainStem(brain *volume.Volume, voxelSizeMM float64, collab *gauge.Collaborators) (*volume.Volume, error) {
	erodeDiameter := kernelSize(10, voxelSizeMM)
	eroded, err := volume.Erode(brain, erodeDiameter, collab)
	if err != nil {
		return nil, err
	}
	if eroded.IsEmpty() {
		return brain.Clone(), nil
	}
	bb := eroded.BoundingBox()
	margin := 1.7 * float64(erodeDiameter/2)
	grow := numeric.Vec3{X: margin * brain.VoxelSize.X, Y: margin * brain.VoxelSize.Y, Z: margin * brain.VoxelSize.Z}
	expanded := numeric.NewBoundingBox().Include(bb.Min.Sub(grow)).Include(bb.Max.Add(grow))

	out := brain.Clone()
	d1, d2, d3 := out.Dims()
	for i := 0; i < d1; i++ {
		for j := 0; j < d2; j++ {
			for k := 0; k < d3; k++ {
				if !expanded.Contains(out.ToAbsolute(i, j, k)) {
					out.Data.SetUnsafe(i, j, k, out.Background)
				}
			}
		}
	}
	return out, nil
}
