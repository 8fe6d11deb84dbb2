package electrodes

import (
	"sort"
	"strconv"
	"strings"

	"github.com/esicore/esicore/pkg/numeric"
)

// Orientation names the three axes a cloud has been aligned to: Right
// points from left to right hemisphere, Front from back to front, Up
// from inferior to superior.
type Orientation struct {
	Right numeric.Vec3
	Front numeric.Vec3
	Up    numeric.Vec3
}

var frontPrefixes = []string{"Fp", "AF", "FC", "F", "Nz"}
var backPrefixes = []string{"PO", "Iz", "CP", "O", "P"}

// namePolarity returns (+1 front / -1 back / 0 unknown) and (+1 left /
// -1 right / 0 midline) for a 10-10-style electrode name, per spec.md
// §4.5's name-based heuristic: longest-prefix-first match against the
// front/back prefix tables, then odd/even parity of the trailing digits
// (odd = left, even = right, no digits = midline).
func namePolarity(name string) (frontBack, leftRight float64) {
	matchPrefix := func(prefixes []string) bool {
		best := ""
		for _, p := range prefixes {
			if strings.HasPrefix(name, p) && len(p) > len(best) {
				best = p
			}
		}
		return best != ""
	}
	switch {
	case matchPrefix(frontPrefixes):
		frontBack = 1
	case matchPrefix(backPrefixes):
		frontBack = -1
	}

	trail := trailingDigits(name)
	if trail == "" {
		return frontBack, 0
	}
	n, err := strconv.Atoi(trail)
	if err != nil {
		return frontBack, 0
	}
	if n%2 == 1 {
		leftRight = 1 // odd = left
	} else {
		leftRight = -1 // even = right
	}
	return frontBack, leftRight
}

func trailingDigits(s string) string {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	return s[i:]
}

// mirrorResidual scores candidate axis `normal` as a left-right mirror
// plane through centroid: for every point, reflect it across the plane
// and accumulate the squared distance to its nearest actual neighbor.
// Lower residual means the cloud is closer to being mirror-symmetric
// about that plane, i.e. more likely the true Left-Right axis.
func mirrorResidual(points []numeric.Vec3, centroid, normal numeric.Vec3) float64 {
	n := normal.Normalized()
	var residual float64
	for _, p := range points {
		rel := p.Sub(centroid)
		d := rel.Dot(n)
		mirrored := p.Sub(n.Scale(2 * d))
		best := -1.0
		for _, q := range points {
			dist := mirrored.DistanceTo(q)
			if best < 0 || dist < best {
				best = dist
			}
		}
		residual += best * best
	}
	return residual
}

// AutoOrient derives (Right, Front, Up) for a named 3-D point cloud by
// combining the name-based heuristic with a geometry-based mirror-
// symmetry fallback, per spec.md §4.5. Calling AutoOrient again on a
// cloud already aligned to its own detected axes returns the same axes
// (testable property 10), since both heuristics are pure functions of
// point geometry and name strings.
func AutoOrient(names []string, points []numeric.Vec3) Orientation {
	centroid := numeric.Vec3{}
	for _, p := range points {
		centroid = centroid.Add(p)
	}
	if len(points) > 0 {
		centroid = centroid.Scale(1 / float64(len(points)))
	}

	var nameFront, nameLeft numeric.Vec3
	for i, name := range names {
		if i >= len(points) {
			break
		}
		fb, lr := namePolarity(name)
		rel := points[i].Sub(centroid)
		if fb != 0 {
			nameFront = nameFront.Add(rel.Scale(fb))
		}
		if lr != 0 {
			nameLeft = nameLeft.Add(rel.Scale(lr))
		}
	}

	candidates := []numeric.Vec3{{X: 1}, {Y: 1}, {Z: 1}}
	bestIdx, bestResidual := 0, -1.0
	for i, axis := range candidates {
		r := mirrorResidual(points, centroid, axis)
		if bestResidual < 0 || r < bestResidual {
			bestResidual = r
			bestIdx = i
		}
	}
	leftRightAxis := candidates[bestIdx]
	remaining := make([]numeric.Vec3, 0, 2)
	for i, axis := range candidates {
		if i != bestIdx {
			remaining = append(remaining, axis)
		}
	}

	// Of the two remaining candidate axes, Front-Back is whichever
	// correlates more strongly with the name-based front vector; the
	// last one is Up-Down (corroborated by the center-to-point sum, the
	// "sum of center-to-point vectors" heuristic spec.md describes).
	frontBackAxis, upDownAxis := remaining[0], remaining[1]
	if absDot(nameFront, remaining[1]) > absDot(nameFront, remaining[0]) {
		frontBackAxis, upDownAxis = remaining[1], remaining[0]
	}

	right := signedAxis(leftRightAxis, nameLeft.Scale(-1)) // nameLeft points left, Right points opposite
	front := signedAxis(frontBackAxis, nameFront)
	if nameFront == (numeric.Vec3{}) {
		front = signedAxis(frontBackAxis, sumAboveBelow(points, centroid, frontBackAxis))
	}

	var centroidSum numeric.Vec3
	for _, p := range points {
		centroidSum = centroidSum.Add(p.Sub(centroid))
	}
	up := signedAxis(upDownAxis, centroidSum)

	return Orientation{Right: right, Front: front, Up: up}
}

func absDot(a, b numeric.Vec3) float64 {
	d := a.Dot(b)
	if d < 0 {
		return -d
	}
	return d
}

// signedAxis returns axis or -axis, whichever more closely aligns with
// reference (has non-negative dot product).
func signedAxis(axis, reference numeric.Vec3) numeric.Vec3 {
	if axis.Dot(reference) < 0 {
		return axis.Scale(-1)
	}
	return axis
}

// sumAboveBelow counts points on either side of centroid along axis and
// returns a vector pointing toward the side with fewer points — used as
// the lower-hemisphere tiebreaker when no name information is available
// to resolve the front/back sign.
func sumAboveBelow(points []numeric.Vec3, centroid, axis numeric.Vec3) numeric.Vec3 {
	n := axis.Normalized()
	var above, below int
	for _, p := range points {
		if p.Sub(centroid).Dot(n) >= 0 {
			above++
		} else {
			below++
		}
	}
	if below > above {
		return n
	}
	return n.Scale(-1)
}

// sortedByDistance returns indices into points other than `from`, sorted
// ascending by distance to points[from].
func sortedByDistance(points []numeric.Vec3, from int) []int {
	type pair struct {
		idx  int
		dist float64
	}
	pairs := make([]pair, 0, len(points)-1)
	for i, p := range points {
		if i == from {
			continue
		}
		pairs = append(pairs, pair{i, points[from].DistanceTo(p)})
	}
	sort.Slice(pairs, func(a, b int) bool { return pairs[a].dist < pairs[b].dist })
	out := make([]int, len(pairs))
	for i, p := range pairs {
		out[i] = p.idx
	}
	return out
}
