package mesh

import (
	"sync/atomic"

	"github.com/unixpickle/model3d/model3d"
	"golang.org/x/exp/slices"
)

const bvhLeafSize = 8

// A FacePair is a pair of faces found to intersect.
type FacePair [2]Face

type bvhTriangle struct {
	Face     Face
	Vertices [3]Vertex
	Triangle model3d.Triangle
	Min      model3d.Coord3D
	Max      model3d.Coord3D
}

type bvhNode struct {
	Min model3d.Coord3D
	Max model3d.Coord3D

	// Leaves is non-nil only for leaf nodes.
	Leaves []*bvhTriangle

	Left  *bvhNode
	Right *bvhNode
}

func (s *Surface) bvhTriangles() []*bvhTriangle {
	var res []*bvhTriangle
	for i := range s.faces {
		vs := s.FaceVertices(Face(i))
		for j := 1; j+1 < len(vs); j++ {
			t := &bvhTriangle{
				Face:     Face(i),
				Vertices: [3]Vertex{vs[0], vs[j], vs[j+1]},
				Triangle: model3d.Triangle{s.points[vs[0]], s.points[vs[j]], s.points[vs[j+1]]},
			}
			t.Min = t.Triangle[0].Min(t.Triangle[1]).Min(t.Triangle[2])
			t.Max = t.Triangle[0].Max(t.Triangle[1]).Max(t.Triangle[2])
			res = append(res, t)
		}
	}
	return res
}

func buildBVH(tris []*bvhTriangle) *bvhNode {
	if len(tris) == 0 {
		return nil
	}
	node := &bvhNode{Min: tris[0].Min, Max: tris[0].Max}
	for _, t := range tris[1:] {
		node.Min = node.Min.Min(t.Min)
		node.Max = node.Max.Max(t.Max)
	}
	if len(tris) <= bvhLeafSize {
		node.Leaves = tris
		return node
	}

	size := node.Max.Sub(node.Min)
	axis := 0
	if size.Y > size.X && size.Y >= size.Z {
		axis = 1
	} else if size.Z > size.X && size.Z > size.Y {
		axis = 2
	}
	center := func(t *bvhTriangle) float64 {
		return t.Min.Add(t.Max).Array()[axis]
	}
	sorted := append([]*bvhTriangle{}, tris...)
	slices.SortFunc(sorted, func(a, b *bvhTriangle) bool {
		return center(a) < center(b)
	})
	mid := len(sorted) / 2
	node.Left = buildBVH(sorted[:mid])
	node.Right = buildBVH(sorted[mid:])
	return node
}

func boxesOverlap(min1, max1, min2, max2 model3d.Coord3D) bool {
	return min1.X <= max2.X && min2.X <= max1.X &&
		min1.Y <= max2.Y && min2.Y <= max1.Y &&
		min1.Z <= max2.Z && min2.Z <= max1.Z
}

// An intersectionSearch finds intersecting triangle pairs in one or two
// bounding volume hierarchies.
type intersectionSearch struct {
	queue *forkJoin[[]FacePair]

	// SameSurface enables skipping of adjacent faces.
	SameSurface bool

	// Limit stops the search after this many pairs, if positive.
	Limit int64
	found int64
}

func (i *intersectionSearch) self(n *bvhNode) []FacePair {
	if n.Leaves != nil {
		return i.leaves(n.Leaves, n.Leaves, true)
	}
	r1, r2 := i.queue.Fork(
		func() []FacePair { return i.self(n.Left) },
		func() []FacePair { return i.self(n.Right) },
	)
	return append(append(r1, r2...), i.cross(n.Left, n.Right)...)
}

func (i *intersectionSearch) cross(a, b *bvhNode) []FacePair {
	if i.queue.Stopped() || !boxesOverlap(a.Min, a.Max, b.Min, b.Max) {
		return nil
	}
	if a.Leaves != nil && b.Leaves != nil {
		return i.leaves(a.Leaves, b.Leaves, false)
	}
	if a.Leaves != nil || (b.Leaves == nil && volume(b) > volume(a)) {
		a, b = b, a
	}
	r1, r2 := i.queue.Fork(
		func() []FacePair { return i.cross(a.Left, b) },
		func() []FacePair { return i.cross(a.Right, b) },
	)
	return append(r1, r2...)
}

func volume(n *bvhNode) float64 {
	s := n.Max.Sub(n.Min)
	return s.X * s.Y * s.Z
}

func (i *intersectionSearch) leaves(as, bs []*bvhTriangle, sameLeaf bool) []FacePair {
	var res []FacePair
	for j, a := range as {
		others := bs
		if sameLeaf {
			others = bs[j+1:]
		}
		for _, b := range others {
			if !boxesOverlap(a.Min, a.Max, b.Min, b.Max) {
				continue
			}
			if i.SameSurface && a.Face == b.Face {
				continue
			}
			if i.pairIntersects(a, b) {
				res = append(res, FacePair{a.Face, b.Face})
				if i.Limit > 0 && atomic.AddInt64(&i.found, 1) >= i.Limit {
					i.queue.Stop()
					return res
				}
			}
		}
	}
	return res
}

func (i *intersectionSearch) pairIntersects(a, b *bvhTriangle) bool {
	if !i.SameSurface {
		return TrianglesIntersect(&a.Triangle, &b.Triangle)
	}
	var sharedA, sharedB []int
	for ia, va := range a.Vertices {
		for ib, vb := range b.Vertices {
			if va == vb {
				sharedA = append(sharedA, ia)
				sharedB = append(sharedB, ib)
			}
		}
	}
	switch len(sharedA) {
	case 0:
		return TrianglesIntersect(&a.Triangle, &b.Triangle)
	case 1:
		t1 := rotateTriangle(a.Triangle, sharedA[0])
		t2 := rotateTriangle(b.Triangle, sharedB[0])
		return sharedVertexIntersect(&t1, &t2)
	case 2:
		p := a.Triangle[sharedA[0]]
		q := a.Triangle[sharedA[1]]
		return sharedEdgeIntersect(p, q, a.Triangle[3-sharedA[0]-sharedA[1]],
			b.Triangle[3-sharedB[0]-sharedB[1]])
	default:
		return true
	}
}

func rotateTriangle(t model3d.Triangle, first int) model3d.Triangle {
	return model3d.Triangle{t[first], t[(first+1)%3], t[(first+2)%3]}
}

func dedupePairs(pairs []FacePair) []FacePair {
	seen := map[FacePair]bool{}
	var res []FacePair
	for _, p := range pairs {
		if p[0] > p[1] {
			p[0], p[1] = p[1], p[0]
		}
		if !seen[p] {
			seen[p] = true
			res = append(res, p)
		}
	}
	slices.SortFunc(res, func(a, b FacePair) bool {
		return a[0] < b[0] || (a[0] == b[0] && a[1] < b[1])
	})
	return res
}

// SelfIntersections finds all pairs of faces which intersect anywhere other
// than along their shared vertices or edge.
func (s *Surface) SelfIntersections() []FacePair {
	return s.selfIntersections(0)
}

// SelfIntersects checks if any two faces intersect anywhere other than
// along their shared vertices or edge.
func (s *Surface) SelfIntersects() bool {
	return len(s.selfIntersections(1)) > 0
}

func (s *Surface) selfIntersections(limit int64) []FacePair {
	root := buildBVH(s.bvhTriangles())
	if root == nil {
		return nil
	}
	search := &intersectionSearch{
		queue:       newForkJoin[[]FacePair](0),
		SameSurface: true,
		Limit:       limit,
	}
	return dedupePairs(search.queue.Run(func() []FacePair {
		return search.self(root)
	}))
}

// SurfacesIntersect checks if any face of a touches any face of b.
func SurfacesIntersect(a, b *Surface) bool {
	rootA := buildBVH(a.bvhTriangles())
	rootB := buildBVH(b.bvhTriangles())
	if rootA == nil || rootB == nil {
		return false
	}
	search := &intersectionSearch{
		queue: newForkJoin[[]FacePair](0),
		Limit: 1,
	}
	return len(search.queue.Run(func() []FacePair {
		return search.cross(rootA, rootB)
	})) > 0
}
