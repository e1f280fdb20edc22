package kernel

import (
	"math"

	"github.com/unixpickle/mesh-pmp/mesh"
	"github.com/unixpickle/model3d/model3d"
)

type edge [2]int

func newEdge(a, b int) edge {
	if a > b {
		a, b = b, a
	}
	return edge{a, b}
}

// A triMesh is a mutable indexed triangle mesh used while an operator edits
// connectivity. Removed triangles have a negative first index, and removed
// vertices have no incident triangles.
type triMesh struct {
	Points []model3d.Coord3D
	Tris   [][3]int

	// forbidden lists edges which flips must not create.
	forbidden edgeSet

	vertTris [][]int
}

func newTriMesh(s *mesh.Surface) (*triMesh, error) {
	if !s.IsTriangleMesh() {
		return nil, ErrNotTriangleMesh
	}
	res := &triMesh{Points: s.Points()}
	for i := 0; i < s.NumFaces(); i++ {
		vs := s.FaceVertices(mesh.Face(i))
		res.Tris = append(res.Tris, [3]int{int(vs[0]), int(vs[1]), int(vs[2])})
	}
	res.reindex()
	return res, nil
}

func (t *triMesh) reindex() {
	t.vertTris = make([][]int, len(t.Points))
	for i, tri := range t.Tris {
		if tri[0] < 0 {
			continue
		}
		for _, v := range tri {
			t.vertTris[v] = append(t.vertTris[v], i)
		}
	}
}

func (t *triMesh) addVertex(p model3d.Coord3D) int {
	t.Points = append(t.Points, p)
	t.vertTris = append(t.vertTris, nil)
	return len(t.Points) - 1
}

func (t *triMesh) addTri(tri [3]int) int {
	idx := len(t.Tris)
	t.Tris = append(t.Tris, tri)
	for _, v := range tri {
		t.vertTris[v] = append(t.vertTris[v], idx)
	}
	return idx
}

func (t *triMesh) removeTri(idx int) {
	for _, v := range t.Tris[idx] {
		t.vertTris[v] = removeInt(t.vertTris[v], idx)
	}
	t.Tris[idx] = [3]int{-1, -1, -1}
}

func (t *triMesh) setTri(idx int, tri [3]int) {
	t.removeTri(idx)
	t.Tris[idx] = tri
	for _, v := range tri {
		t.vertTris[v] = append(t.vertTris[v], idx)
	}
}

func removeInt(list []int, x int) []int {
	for i, y := range list {
		if y == x {
			list[i] = list[len(list)-1]
			return list[:len(list)-1]
		}
	}
	return list
}

// edgeTris finds the live triangles containing both a and b.
func (t *triMesh) edgeTris(a, b int) []int {
	var res []int
	for _, idx := range t.vertTris[a] {
		if triIndex(t.Tris[idx], b) >= 0 {
			res = append(res, idx)
		}
	}
	return res
}

func triIndex(tri [3]int, v int) int {
	for i, x := range tri {
		if x == v {
			return i
		}
	}
	return -1
}

// rotateTo rotates a triangle so that v comes first.
func rotateTo(tri [3]int, v int) [3]int {
	switch triIndex(tri, v) {
	case 1:
		return [3]int{tri[1], tri[2], tri[0]}
	case 2:
		return [3]int{tri[2], tri[0], tri[1]}
	}
	return tri
}

// neighbors lists the distinct vertices adjacent to v.
func (t *triMesh) neighbors(v int) []int {
	var res []int
	for _, idx := range t.vertTris[v] {
		for _, u := range t.Tris[idx] {
			if u != v && !containsInt(res, u) {
				res = append(res, u)
			}
		}
	}
	return res
}

func containsInt(list []int, x int) bool {
	for _, y := range list {
		if y == x {
			return true
		}
	}
	return false
}

// edges lists every live edge once.
func (t *triMesh) edges() []edge {
	seen := map[edge]bool{}
	var res []edge
	for _, tri := range t.Tris {
		if tri[0] < 0 {
			continue
		}
		for i := 0; i < 3; i++ {
			e := newEdge(tri[i], tri[(i+1)%3])
			if !seen[e] {
				seen[e] = true
				res = append(res, e)
			}
		}
	}
	return res
}

func (t *triMesh) isBoundaryEdge(a, b int) bool {
	return len(t.edgeTris(a, b)) == 1
}

// boundaryVertices marks the vertices incident to a boundary edge.
func (t *triMesh) boundaryVertices() []bool {
	res := make([]bool, len(t.Points))
	for _, e := range t.edges() {
		if t.isBoundaryEdge(e[0], e[1]) {
			res[e[0]] = true
			res[e[1]] = true
		}
	}
	return res
}

func (t *triMesh) triangle(idx int) *model3d.Triangle {
	tri := t.Tris[idx]
	return &model3d.Triangle{t.Points[tri[0]], t.Points[tri[1]], t.Points[tri[2]]}
}

func (t *triMesh) triNormal(idx int) model3d.Coord3D {
	tri := t.triangle(idx)
	n := tri[1].Sub(tri[0]).Cross(tri[2].Sub(tri[0]))
	if norm := n.Norm(); norm > 0 {
		return n.Scale(1 / norm)
	}
	return n
}

// vertexNormal is the area-weighted average of incident face normals.
func (t *triMesh) vertexNormal(v int) model3d.Coord3D {
	var sum model3d.Coord3D
	for _, idx := range t.vertTris[v] {
		tri := t.triangle(idx)
		sum = sum.Add(tri[1].Sub(tri[0]).Cross(tri[2].Sub(tri[0])))
	}
	if norm := sum.Norm(); norm > 0 {
		return sum.Scale(1 / norm)
	}
	return sum
}

// dihedral computes the angle between the normals of the two triangles
// sharing edge (a, b), or 0 if the edge is not interior.
func (t *triMesh) dihedral(a, b int) float64 {
	tris := t.edgeTris(a, b)
	if len(tris) != 2 {
		return 0
	}
	n1 := t.triNormal(tris[0])
	n2 := t.triNormal(tris[1])
	return math.Acos(math.Max(-1, math.Min(1, n1.Dot(n2))))
}

// compact drops removed triangles and unreferenced vertices. The returned
// slice maps old vertex indices to new ones, or -1.
func (t *triMesh) compact() []int {
	mapping := make([]int, len(t.Points))
	var points []model3d.Coord3D
	for i, p := range t.Points {
		if len(t.vertTris[i]) == 0 {
			mapping[i] = -1
			continue
		}
		mapping[i] = len(points)
		points = append(points, p)
	}
	var tris [][3]int
	for _, tri := range t.Tris {
		if tri[0] < 0 {
			continue
		}
		tris = append(tris, [3]int{mapping[tri[0]], mapping[tri[1]], mapping[tri[2]]})
	}
	t.Points = points
	t.Tris = tris
	t.reindex()
	return mapping
}

func (t *triMesh) soup() *mesh.Soup {
	res := &mesh.Soup{Points: append([]model3d.Coord3D{}, t.Points...)}
	for _, tri := range t.Tris {
		if tri[0] >= 0 {
			res.Faces = append(res.Faces, []int{tri[0], tri[1], tri[2]})
		}
	}
	return res
}

// Surface builds a surface from the live triangles, keeping vertex indices.
func (t *triMesh) Surface() (*mesh.Surface, error) {
	surf, failed := mesh.SurfaceFromSoup(t.soup())
	if len(failed) > 0 {
		return nil, ErrNonManifold
	}
	return surf, nil
}

// A projector maps points onto the closest point of a fixed triangle mesh.
type projector struct {
	points []model3d.Coord3D
	tris   [][3]int
	vertex [][]int
	index  *mesh.PointIndex
}

func newProjector(t *triMesh) *projector {
	res := &projector{
		points: append([]model3d.Coord3D{}, t.Points...),
		vertex: make([][]int, len(t.Points)),
		index:  mesh.NewPointIndex(t.Points),
	}
	for _, tri := range t.Tris {
		if tri[0] < 0 {
			continue
		}
		idx := len(res.tris)
		res.tris = append(res.tris, tri)
		for _, v := range tri {
			res.vertex[v] = append(res.vertex[v], idx)
		}
	}
	return res
}

// Project finds the closest point on the triangles around the nearest
// vertices of c.
func (p *projector) Project(c model3d.Coord3D) model3d.Coord3D {
	best := c
	bestDist := math.Inf(1)
	for _, v := range p.index.NearestN(c, 4) {
		for _, idx := range p.vertex[v] {
			tri := p.tris[idx]
			closest, _ := mesh.ClosestOnTriangle(&model3d.Triangle{
				p.points[tri[0]], p.points[tri[1]], p.points[tri[2]],
			}, c)
			if d := closest.Dist(c); d < bestDist {
				best, bestDist = closest, d
			}
		}
	}
	return best
}
