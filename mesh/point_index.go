package mesh

import (
	"math"

	"github.com/unixpickle/model3d/model3d"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// A PointIndex answers nearest-neighbor queries over a fixed point set.
//
// It is safe to query from multiple Goroutines.
type PointIndex struct {
	tree *kdtree.Tree
	size int
}

// NewPointIndex builds an index over points. The points are copied.
func NewPointIndex(points []model3d.Coord3D) *PointIndex {
	items := make(kdPoints, len(points))
	for i, p := range points {
		items[i] = kdPoint{Coord: p.Array(), Index: i}
	}
	res := &PointIndex{size: len(points)}
	if len(points) > 0 {
		res.tree = kdtree.New(items, false)
	}
	return res
}

// Nearest finds the index of the closest point and its distance. It returns
// -1 and +Inf for an empty index.
func (p *PointIndex) Nearest(c model3d.Coord3D) (int, float64) {
	if p.tree == nil {
		return -1, math.Inf(1)
	}
	res, dist := p.tree.Nearest(kdPoint{Coord: c.Array(), Index: -1})
	if res == nil {
		return -1, math.Inf(1)
	}
	return res.(kdPoint).Index, math.Sqrt(dist)
}

// NearestN finds the indices of the n closest points, closest first.
func (p *PointIndex) NearestN(c model3d.Coord3D, n int) []int {
	if p.tree == nil || n <= 0 {
		return nil
	}
	keeper := kdtree.NewNKeeper(n)
	p.tree.NearestSet(keeper, kdPoint{Coord: c.Array(), Index: -1})
	items := make([]kdtree.ComparableDist, 0, len(keeper.Heap))
	for _, item := range keeper.Heap {
		if item.Comparable != nil {
			items = append(items, item)
		}
	}
	slices.SortFunc(items, func(a, b kdtree.ComparableDist) bool {
		return a.Dist < b.Dist
	})
	res := make([]int, len(items))
	for i, item := range items {
		res[i] = item.Comparable.(kdPoint).Index
	}
	return res
}

func (p *PointIndex) Len() int {
	return p.size
}

type kdPoint struct {
	Coord [3]float64
	Index int
}

func (k kdPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return k.Coord[d] - c.(kdPoint).Coord[d]
}

func (k kdPoint) Dims() int {
	return 3
}

func (k kdPoint) Distance(c kdtree.Comparable) float64 {
	o := c.(kdPoint).Coord
	var res float64
	for i, x := range k.Coord {
		res += (x - o[i]) * (x - o[i])
	}
	return res
}

type kdPoints []kdPoint

func (k kdPoints) Index(i int) kdtree.Comparable {
	return k[i]
}

func (k kdPoints) Len() int {
	return len(k)
}

func (k kdPoints) Pivot(d kdtree.Dim) int {
	plane := kdPlane{Dim: d, Points: k}
	return kdtree.Partition(plane, kdtree.MedianOfMedians(plane))
}

func (k kdPoints) Slice(start, end int) kdtree.Interface {
	return k[start:end]
}

type kdPlane struct {
	Dim    kdtree.Dim
	Points kdPoints
}

func (p kdPlane) Less(i, j int) bool {
	return p.Points[i].Coord[p.Dim] < p.Points[j].Coord[p.Dim]
}

func (p kdPlane) Swap(i, j int) {
	p.Points[i], p.Points[j] = p.Points[j], p.Points[i]
}

func (p kdPlane) Len() int {
	return len(p.Points)
}

func (p kdPlane) Slice(start, end int) kdtree.SortSlicer {
	p.Points = p.Points[start:end]
	return p
}
