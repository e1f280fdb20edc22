package kernel

import (
	"math"

	"github.com/pkg/errors"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/mesh-pmp/mesh"
	"github.com/unixpickle/model3d/model3d"
	"golang.org/x/exp/constraints"
)

// DefaultLengthFraction is the target edge length, as a fraction of the
// bounding box diagonal, used when no target length is given.
const DefaultLengthFraction = 0.01

type RemeshOptions struct {
	// TargetLength is the desired edge length. Zero selects a fraction of the
	// bounding box diagonal.
	TargetLength float64

	// ProtectAngle is the dihedral angle, in degrees, above which edges are
	// treated as features and kept intact.
	ProtectAngle float64

	Iterations int
}

// Remesh performs isotropic remeshing towards a uniform edge length,
// keeping the result on the input surface.
func Remesh(s *mesh.Surface, opts RemeshOptions) Result[*mesh.Surface] {
	return call("remesh", func() (*mesh.Surface, error) {
		if opts.TargetLength < 0 {
			return nil, errors.Errorf("invalid target length %f", opts.TargetLength)
		}
		t, err := newTriMesh(s)
		if err != nil {
			return nil, err
		}
		length := opts.TargetLength
		if length == 0 {
			length = s.Max().Dist(s.Min()) * DefaultLengthFraction
		}
		if length == 0 {
			return nil, errors.Wrap(ErrDegenerate, "zero size bounding box")
		}

		proj := newProjector(t)
		features := t.featureEdges(opts.ProtectAngle * math.Pi / 180)
		for i := 0; i < opts.Iterations; i++ {
			t.splitLongEdges(length*4/3, features)
			t.collapseShortEdges(length*4/5, length*4/3, features)
			t.equalizeValences(features)
			t.relaxTangentially(features.Locked(len(t.Points)), proj)
		}
		t.compact()
		return t.Surface()
	})
}

// An edgeSet records edges which must not be split, collapsed, or flipped.
type edgeSet map[edge]bool

// Locked marks the endpoints of every edge in the set.
func (e edgeSet) Locked(numPoints int) []bool {
	res := make([]bool, numPoints)
	for k := range e {
		res[k[0]] = true
		res[k[1]] = true
	}
	return res
}

// featureEdges finds boundary edges and edges whose dihedral angle exceeds
// the given angle in radians.
func (t *triMesh) featureEdges(angle float64) edgeSet {
	res := edgeSet{}
	for _, e := range t.edges() {
		tris := t.edgeTris(e[0], e[1])
		if len(tris) != 2 || t.dihedral(e[0], e[1]) > angle {
			res[e] = true
		}
	}
	return res
}

func (t *triMesh) edgeLength(e edge) float64 {
	return t.Points[e[0]].Dist(t.Points[e[1]])
}

func (t *triMesh) splitLongEdges(maxLength float64, features edgeSet) {
	for pass := 0; pass < 32; pass++ {
		var changed bool
		for _, e := range t.edges() {
			if features[e] || t.edgeLength(e) <= maxLength {
				continue
			}
			t.splitEdge(e[0], e[1], t.Points[e[0]].Mid(t.Points[e[1]]))
			changed = true
		}
		if !changed {
			return
		}
	}
}

// splitEdge inserts a vertex on edge (a, b) and splits both incident
// triangles.
func (t *triMesh) splitEdge(a, b int, p model3d.Coord3D) int {
	m := t.addVertex(p)
	t.splitEdgeWith(a, b, m)
	return m
}

// splitEdgeWith splits the triangles incident to edge (a, b) at the
// existing vertex m.
func (t *triMesh) splitEdgeWith(a, b, m int) {
	for _, idx := range t.edgeTris(a, b) {
		tri := rotateTo(t.Tris[idx], a)
		if tri[1] == b {
			c := tri[2]
			t.setTri(idx, [3]int{a, m, c})
			t.addTri([3]int{m, b, c})
		} else {
			c := tri[1]
			t.setTri(idx, [3]int{a, c, m})
			t.addTri([3]int{m, c, b})
		}
	}
}

func (t *triMesh) collapseShortEdges(minLength, maxLength float64, features edgeSet) {
	locked := features.Locked(len(t.Points))
	for pass := 0; pass < 32; pass++ {
		var changed bool
		for _, e := range t.edges() {
			a, b := e[0], e[1]
			if len(t.vertTris[a]) == 0 || len(t.vertTris[b]) == 0 || len(t.edgeTris(a, b)) == 0 {
				continue
			}
			if features[e] || t.edgeLength(e) >= minLength {
				continue
			}
			if locked[a] && locked[b] {
				continue
			}
			if locked[a] {
				a, b = b, a
			}
			// Vertex a is removed and merged into b.
			target := t.Points[b]
			if !locked[b] {
				target = t.Points[a].Mid(t.Points[b])
			}
			if t.canCollapse(a, b, target, maxLength) {
				t.collapseEdge(a, b, target)
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

// canCollapse checks that merging a into b at target keeps the mesh
// manifold, introduces no long edges, and flips no triangles.
func (t *triMesh) canCollapse(a, b int, target model3d.Coord3D, maxLength float64) bool {
	edgeTris := t.edgeTris(a, b)
	na := t.neighbors(a)
	nb := t.neighbors(b)
	var common int
	for _, v := range na {
		if containsInt(nb, v) {
			common++
		}
	}
	if common != len(edgeTris) {
		return false
	}
	for _, idx := range edgeTris {
		if len(t.neighbors(t.oppositeVertex(idx, a, b))) <= 3 {
			return false
		}
	}
	if len(na)+len(nb)-2-common < 3 {
		return false
	}
	for _, v := range na {
		if v != b && target.Dist(t.Points[v]) > maxLength {
			return false
		}
	}
	for _, idx := range t.vertTris[a] {
		tri := t.Tris[idx]
		if triIndex(tri, b) >= 0 {
			continue
		}
		before := t.triNormal(idx)
		moved := t.triangle(idx)
		moved[triIndex(tri, a)] = target
		after := moved[1].Sub(moved[0]).Cross(moved[2].Sub(moved[0]))
		if after.Dot(before) <= 0 {
			return false
		}
	}
	return true
}

func (t *triMesh) collapseEdge(a, b int, target model3d.Coord3D) {
	for _, idx := range t.edgeTris(a, b) {
		t.removeTri(idx)
	}
	for _, idx := range append([]int{}, t.vertTris[a]...) {
		tri := t.Tris[idx]
		tri[triIndex(tri, a)] = b
		t.setTri(idx, tri)
	}
	t.Points[b] = target
}

func (t *triMesh) equalizeValences(features edgeSet) {
	boundary := t.boundaryVertices()
	target := func(v int) int {
		if boundary[v] {
			return 4
		}
		return 6
	}
	for _, e := range t.edges() {
		if features[e] {
			continue
		}
		a, b := e[0], e[1]
		tris := t.edgeTris(a, b)
		if len(tris) != 2 {
			continue
		}
		c := t.oppositeVertex(tris[0], a, b)
		d := t.oppositeVertex(tris[1], a, b)
		valences := [4]int{
			len(t.neighbors(a)), len(t.neighbors(b)),
			len(t.neighbors(c)), len(t.neighbors(d)),
		}
		if valences[0] <= 3 || valences[1] <= 3 {
			continue
		}
		var before, after int
		for i, v := range [4]int{a, b, c, d} {
			delta := 1
			if i < 2 {
				delta = -1
			}
			before += abs(valences[i] - target(v))
			after += abs(valences[i] + delta - target(v))
		}
		if after >= before || !t.flipPreservesNormals(a, b) {
			continue
		}
		t.flipEdge(a, b)
	}
}

// flipPreservesNormals checks that flipping edge (a, b) creates two
// non-degenerate triangles facing the same way as the old pair.
func (t *triMesh) flipPreservesNormals(a, b int) bool {
	tris, c, d, ok := t.flipQuad(a, b)
	if !ok {
		return false
	}
	n := t.triNormal(tris[0]).Add(t.triNormal(tris[1]))
	for _, tri := range [2][3]int{{a, d, c}, {d, b, c}} {
		p := t.Points[tri[0]]
		cross := t.Points[tri[1]].Sub(p).Cross(t.Points[tri[2]].Sub(p))
		if cross.Dot(n) <= 1e-12*cross.Norm() {
			return false
		}
	}
	return true
}

func abs[T constraints.Signed | constraints.Float](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

// relaxTangentially moves every unlocked vertex towards the area-weighted
// centroid of its neighbors within its tangent plane, then projects it back
// onto the reference surface.
func (t *triMesh) relaxTangentially(locked []bool, proj *projector) {
	boundary := t.boundaryVertices()
	newPoints := append([]model3d.Coord3D{}, t.Points...)
	essentials.ConcurrentMap(0, len(t.Points), func(v int) {
		if locked[v] || boundary[v] || len(t.vertTris[v]) == 0 {
			return
		}
		p := t.Points[v]
		var sum model3d.Coord3D
		var weight float64
		for _, idx := range t.vertTris[v] {
			tri := t.triangle(idx)
			area := tri.Area()
			c := tri[0].Add(tri[1]).Add(tri[2]).Scale(1.0 / 3)
			sum = sum.Add(c.Scale(area))
			weight += area
		}
		if weight == 0 {
			return
		}
		q := sum.Scale(1 / weight)
		n := t.vertexNormal(v)
		moved := q.Add(n.Scale(n.Dot(p.Sub(q))))
		if proj != nil {
			moved = proj.Project(moved)
		}
		newPoints[v] = moved
	})
	t.Points = newPoints
}
