package mesh

import (
	"github.com/unixpickle/model3d/model3d"
	"golang.org/x/exp/slices"
)

// RepairSoup creates a cleaned copy of s.
//
// Points with identical coordinates are merged, consecutive repeated points
// are removed from each polygon, polygons with fewer than three distinct
// points or with out-of-range indices are removed, duplicate polygons (in
// either orientation) are reduced to one, and unreferenced points are
// dropped.
func RepairSoup(s *Soup) *Soup {
	merged := make([]int, len(s.Points))
	canonical := map[model3d.Coord3D]int{}
	for i, p := range s.Points {
		if idx, ok := canonical[p]; ok {
			merged[i] = idx
		} else {
			canonical[p] = i
			merged[i] = i
		}
	}

	seen := map[string]bool{}
	var faces [][]int
	for _, f := range s.Faces {
		if !faceInRange(f, len(s.Points)) {
			continue
		}
		simplified := make([]int, 0, len(f))
		for _, idx := range f {
			idx = merged[idx]
			if len(simplified) > 0 && simplified[len(simplified)-1] == idx {
				continue
			}
			simplified = append(simplified, idx)
		}
		for len(simplified) > 1 && simplified[0] == simplified[len(simplified)-1] {
			simplified = simplified[:len(simplified)-1]
		}
		if !distinctAtLeast(simplified, 3) {
			continue
		}
		key := polygonKey(simplified)
		if seen[key] {
			continue
		}
		seen[key] = true
		faces = append(faces, simplified)
	}

	// Drop unreferenced points while keeping point order.
	newIndex := make([]int, len(s.Points))
	for i := range newIndex {
		newIndex[i] = -1
	}
	for _, f := range faces {
		for _, idx := range f {
			newIndex[idx] = 0
		}
	}
	res := &Soup{}
	for i, p := range s.Points {
		if newIndex[i] == 0 {
			newIndex[i] = len(res.Points)
			res.Points = append(res.Points, p)
		}
	}
	for _, f := range faces {
		for j, idx := range f {
			f[j] = newIndex[idx]
		}
	}
	res.Faces = faces
	return res
}

func distinctAtLeast(f []int, n int) bool {
	sorted := slices.Clone(f)
	slices.Sort(sorted)
	count := 0
	for i, x := range sorted {
		if i == 0 || x != sorted[i-1] {
			count++
		}
	}
	return count >= n
}

// polygonKey identifies a polygon regardless of its starting point and
// orientation.
func polygonKey(f []int) string {
	best := canonicalRotation(f)
	rev := slices.Clone(f)
	reverseInts(rev)
	if other := canonicalRotation(rev); lessInts(other, best) {
		best = other
	}
	buf := make([]byte, 0, len(best)*4)
	for _, x := range best {
		buf = append(buf, byte(x), byte(x>>8), byte(x>>16), byte(x>>24))
	}
	return string(buf)
}

func canonicalRotation(f []int) []int {
	var best []int
	for start := range f {
		rot := make([]int, len(f))
		for i := range f {
			rot[i] = f[(start+i)%len(f)]
		}
		if best == nil || lessInts(rot, best) {
			best = rot
		}
	}
	return best
}

func lessInts(a, b []int) bool {
	for i := range a {
		if i >= len(b) {
			return false
		}
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// IsPolygonMesh checks if the soup describes an oriented 2-manifold with
// boundary: every polygon has at least three distinct valid points, every
// directed edge is used at most once, and the polygons around every point
// form a single umbrella.
func IsPolygonMesh(s *Soup) bool {
	directed := map[[2]int]bool{}
	for _, f := range s.Faces {
		if !faceInRange(f, len(s.Points)) || !distinctAtLeast(f, len(f)) {
			return false
		}
		for j, a := range f {
			e := [2]int{a, f[(j+1)%len(f)]}
			if directed[e] {
				return false
			}
			directed[e] = true
		}
	}
	for _, u := range umbrellas(s.Faces, len(s.Points)) {
		if len(u) > 1 {
			return false
		}
	}
	return true
}
