package host

import (
	"math"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/mesh-pmp/mesh"
	"github.com/unixpickle/model3d/model3d"
)

// An AttributeMode determines how fields reach an output dataset.
type AttributeMode int

const (
	// AttributesCopy shares the input's fields when the output has the same
	// number of points and cells, and interpolates otherwise.
	AttributesCopy AttributeMode = iota

	// AttributesInterpolate always probes the input spatially.
	AttributesInterpolate
)

// ProjectAttributes transfers point and cell fields from in onto out.
//
// If enabled is false, out is left untouched. Otherwise fields are either
// copied directly (when the topology is shared) or probed at each output
// point and cell centroid.
func ProjectAttributes(in, out *PolyData, enabled bool, mode AttributeMode) {
	if !enabled {
		return
	}
	if mode == AttributesCopy && sameShape(in, out) {
		out.PointData = append([]*DataArray{}, in.PointData...)
		out.CellData = append([]*DataArray{}, in.CellData...)
		return
	}
	out.PointData = interpolatePointData(in, out)
	out.CellData = interpolateCellData(in, out)
}

func sameShape(in, out *PolyData) bool {
	if in.NumPoints() != out.NumPoints() || in.NumCells() != out.NumCells() {
		return false
	}
	for _, a := range in.PointData {
		if a.NumTuples() != out.NumPoints() {
			return false
		}
	}
	for _, a := range in.CellData {
		if a.NumTuples() != out.NumCells() {
			return false
		}
	}
	return true
}

func interpolatePointData(in, out *PolyData) []*DataArray {
	var arrays []*DataArray
	for _, a := range in.PointData {
		if a.NumTuples() == in.NumPoints() {
			arrays = append(arrays, a)
		}
	}
	if len(arrays) == 0 || in.NumPoints() == 0 {
		return nil
	}

	index := mesh.NewPointIndex(in.Points)
	incident := make([][]int, in.NumPoints())
	for i, poly := range in.Polys {
		for _, p := range poly {
			incident[p] = append(incident[p], i)
		}
	}

	results := make([]*DataArray, len(arrays))
	for i, a := range arrays {
		results[i] = NewDataArray(a.Name, a.Components, out.NumPoints())
	}
	essentials.ConcurrentMap(0, out.NumPoints(), func(i int) {
		p := out.Points[i]
		nearest, _ := index.Nearest(p)
		indices, weights := probeWeights(in, incident[nearest], p)
		if indices == nil {
			indices, weights = []int{nearest}, []float64{1}
		}
		for j, a := range arrays {
			dst := results[j].Tuple(i)
			for k, idx := range indices {
				src := a.Tuple(idx)
				for c := range dst {
					dst[c] += weights[k] * src[c]
				}
			}
		}
	})
	return results
}

// probeWeights finds the closest point to p on the given polygons and
// returns the polygon corners with their barycentric weights.
func probeWeights(in *PolyData, polys []int, p model3d.Coord3D) ([]int, []float64) {
	var bestIndices []int
	var bestWeights []float64
	bestDist := math.Inf(1)
	for _, polyIdx := range polys {
		poly := in.Polys[polyIdx]
		for j := 1; j+1 < len(poly); j++ {
			corners := [3]int{poly[0], poly[j], poly[j+1]}
			t := &model3d.Triangle{in.Points[corners[0]], in.Points[corners[1]], in.Points[corners[2]]}
			closest, bary := mesh.ClosestOnTriangle(t, p)
			if d := closest.Dist(p); d < bestDist {
				bestDist = d
				bestIndices = corners[:]
				bestWeights = bary[:]
			}
		}
	}
	return bestIndices, bestWeights
}

func interpolateCellData(in, out *PolyData) []*DataArray {
	var arrays []*DataArray
	for _, a := range in.CellData {
		if a.NumTuples() == in.NumCells() {
			arrays = append(arrays, a)
		}
	}
	if len(arrays) == 0 || in.NumCells() == 0 {
		return nil
	}

	inCentroids := cellCentroids(in)
	outCentroids := cellCentroids(out)
	index := mesh.NewPointIndex(inCentroids)

	results := make([]*DataArray, len(arrays))
	for i, a := range arrays {
		results[i] = NewDataArray(a.Name, a.Components, len(outCentroids))
	}
	essentials.ConcurrentMap(0, len(outCentroids), func(i int) {
		nearest, _ := index.Nearest(outCentroids[i])
		for j, a := range arrays {
			copy(results[j].Tuple(i), a.Tuple(nearest))
		}
	})
	return results
}

func cellCentroids(pd *PolyData) []model3d.Coord3D {
	res := make([]model3d.Coord3D, 0, pd.NumCells())
	for _, cells := range [][][]int{pd.Polys, pd.Lines} {
		for _, cell := range cells {
			var sum model3d.Coord3D
			for _, idx := range cell {
				sum = sum.Add(pd.Points[idx])
			}
			if len(cell) > 0 {
				sum = sum.Scale(1 / float64(len(cell)))
			}
			res = append(res, sum)
		}
	}
	return res
}
