package kernel

import (
	"math"

	"github.com/pkg/errors"
	"github.com/unixpickle/mesh-pmp/mesh"
	"github.com/unixpickle/model3d/model3d"
)

const (
	refineDensity   = math.Sqrt2
	maxRefinePasses = 20
)

// HoleOptions controls how boundary cycles are filled.
type HoleOptions struct {
	// Continuity is the fairing continuity for new vertices (0, 1, or 2).
	Continuity int

	// NoRefine keeps the minimal triangulation without adding vertices.
	NoRefine bool
}

// A HoleFilling is the outcome of FillHoles.
type HoleFilling struct {
	Surface *mesh.Surface

	// Cycles is the number of boundary cycles found in the input.
	Cycles int

	// Filled is the number of cycles which were closed.
	Filled int
}

// Complete checks if every cycle was filled.
func (h *HoleFilling) Complete() bool {
	return h.Filled == h.Cycles
}

// FillHoles fills every boundary cycle of the surface independently. Cycles
// which cannot be filled are left open.
func FillHoles(s *mesh.Surface, opts HoleOptions) Result[*HoleFilling] {
	return call("fill holes", func() (*HoleFilling, error) {
		cycles := s.BoundaryCycles()
		res := &HoleFilling{Surface: s.Copy(), Cycles: len(cycles)}
		for _, h := range cycles {
			filled, err := fillHole(res.Surface, h, opts)
			if err == nil {
				res.Surface = filled
				res.Filled++
			}
		}
		return res, nil
	})
}

// TriangulateRefineFairHole fills the boundary cycle containing the
// boundary halfedge h.
func TriangulateRefineFairHole(s *mesh.Surface, h mesh.Halfedge, continuity int) Result[*mesh.Surface] {
	return call("triangulate refine fair hole", func() (*mesh.Surface, error) {
		if int(h) < 0 || int(h) >= s.NumHalfedges() || !s.IsBoundary(h) {
			return nil, errors.New("halfedge is not on a boundary")
		}
		return fillHole(s, h, HoleOptions{Continuity: continuity})
	})
}

func fillHole(s *mesh.Surface, h mesh.Halfedge, opts HoleOptions) (*mesh.Surface, error) {
	if opts.Continuity < 0 || opts.Continuity > 2 {
		return nil, errors.Errorf("unsupported continuity %d", opts.Continuity)
	}
	loop := s.BoundaryLoop(h)
	if len(loop) < 3 {
		return nil, errors.Wrap(ErrDegenerate, "boundary cycle has fewer than three edges")
	}
	polygon := make([]mesh.Vertex, len(loop))
	adjacent := make([]*model3d.Coord3D, len(loop))
	for i, he := range loop {
		polygon[i] = s.Source(he)
		if f := s.HalfedgeFace(he ^ 1); f != mesh.NullFace {
			n := faceNormal(s.FacePoints(f))
			adjacent[i] = &n
		}
	}
	for i, v := range polygon {
		for _, u := range polygon[i+1:] {
			if u == v {
				return nil, errors.Wrap(ErrDegenerate, "boundary cycle is not simple")
			}
		}
	}

	points := make([]model3d.Coord3D, len(polygon))
	for i, v := range polygon {
		points[i] = s.Point(v)
	}
	existing := loopEdges(s, polygon)
	tris := liepaTriangulate(points, adjacent, existing)
	if tris == nil {
		return nil, errors.Wrap(ErrDegenerate, "every triangulation reuses a surface edge")
	}
	patch := &triMesh{Points: points, forbidden: existing}
	patch.reindex()
	for _, tri := range tris {
		patch.addTri(tri)
	}
	if !opts.NoRefine {
		patch.refine(boundaryScales(s, polygon))
	}

	res := s.Copy()
	vertices := make([]mesh.Vertex, len(patch.Points))
	copy(vertices, polygon)
	for i := len(polygon); i < len(patch.Points); i++ {
		vertices[i] = res.AddVertex(patch.Points[i])
	}
	for _, tri := range insertionOrder(patch, len(polygon)) {
		if _, err := res.AddFace(vertices[tri[0]], vertices[tri[1]], vertices[tri[2]]); err != nil {
			return nil, errors.Wrap(err, "insert patch")
		}
	}

	if len(patch.Points) > len(polygon) {
		t := fanTriMesh(res)
		free := make([]bool, len(t.Points))
		for _, v := range vertices[len(polygon):] {
			free[v] = true
		}
		if err := t.fair(free, opts.Continuity); err != nil {
			return nil, errors.Wrap(err, "fair patch")
		}
		for _, v := range vertices[len(polygon):] {
			res.SetPoint(v, t.Points[v])
		}
	}
	return res, nil
}

// loopEdges finds the surface edges between vertices of a boundary loop,
// indexed by loop position. A patch must not add any of them a second time.
func loopEdges(s *mesh.Surface, polygon []mesh.Vertex) edgeSet {
	index := make(map[mesh.Vertex]int, len(polygon))
	for i, v := range polygon {
		index[v] = i
	}
	res := edgeSet{}
	for i, v := range polygon {
		for _, u := range s.Neighbors(v) {
			if j, ok := index[u]; ok {
				res[newEdge(i, j)] = true
			}
		}
	}
	return res
}

func faceNormal(ps []model3d.Coord3D) model3d.Coord3D {
	var sum model3d.Coord3D
	for i := 1; i+1 < len(ps); i++ {
		sum = sum.Add(ps[i].Sub(ps[0]).Cross(ps[i+1].Sub(ps[0])))
	}
	if n := sum.Norm(); n > 0 {
		return sum.Scale(1 / n)
	}
	return sum
}

// fanTriMesh creates a triMesh from any surface, splitting polygons into
// fans and keeping vertex indices.
func fanTriMesh(s *mesh.Surface) *triMesh {
	res := &triMesh{Points: s.Points()}
	for i := 0; i < s.NumFaces(); i++ {
		vs := s.FaceVertices(mesh.Face(i))
		for j := 1; j+1 < len(vs); j++ {
			res.Tris = append(res.Tris, [3]int{int(vs[0]), int(vs[j]), int(vs[j+1])})
		}
	}
	res.reindex()
	return res
}

// A holeWeight orders triangulations by their worst dihedral angle, and
// then by their area.
type holeWeight struct {
	Angle float64
	Area  float64
}

func (h holeWeight) Less(other holeWeight) bool {
	if h.Angle != other.Angle {
		return h.Angle < other.Angle
	}
	return h.Area < other.Area
}

func (h holeWeight) Add(other holeWeight) holeWeight {
	return holeWeight{Angle: math.Max(h.Angle, other.Angle), Area: h.Area + other.Area}
}

// liepaTriangulate finds the triangulation of a closed polygon minimizing
// the maximum dihedral angle and then the total area.
//
// Edge i connects points i and i+1 (mod n). If adjacent[i] is non-nil, it is
// the normal of the existing face across edge i. Chords in existing are never
// used. The result is nil if no triangulation avoids them.
func liepaTriangulate(points []model3d.Coord3D, adjacent []*model3d.Coord3D,
	existing edgeSet) [][3]int {
	n := len(points)
	weights := make([][]holeWeight, n)
	splits := make([][]int, n)
	for i := range weights {
		weights[i] = make([]holeWeight, n)
		splits[i] = make([]int, n)
		for j := range splits[i] {
			splits[i][j] = -1
		}
	}

	normal := func(i, m, k int) model3d.Coord3D {
		return faceNormal([]model3d.Coord3D{points[i], points[m], points[k]})
	}
	// neighborNormal is the normal across edge (i, k) inside the sub-polygon.
	neighborNormal := func(i, k int) *model3d.Coord3D {
		if k == i+1 {
			return adjacent[i]
		}
		m := splits[i][k]
		if m < 0 {
			return nil
		}
		n := normal(i, m, k)
		return &n
	}
	angle := func(n1 model3d.Coord3D, n2 *model3d.Coord3D) float64 {
		if n2 == nil {
			return 0
		}
		return math.Acos(math.Max(-1, math.Min(1, n1.Dot(*n2))))
	}

	for size := 2; size < n; size++ {
		for i := 0; i+size < n; i++ {
			k := i + size
			best := holeWeight{Angle: math.Inf(1), Area: math.Inf(1)}
			bestM := -1
			if existing[newEdge(i, k)] && !(i == 0 && k == n-1) {
				weights[i][k] = best
				continue
			}
			for m := i + 1; m < k; m++ {
				tri := model3d.Triangle{points[i], points[m], points[k]}
				nt := normal(i, m, k)
				w := weights[i][m].Add(weights[m][k]).Add(holeWeight{
					Angle: math.Max(angle(nt, neighborNormal(i, m)), angle(nt, neighborNormal(m, k))),
					Area:  tri.Area(),
				})
				if i == 0 && k == n-1 {
					w = w.Add(holeWeight{Angle: angle(nt, adjacent[n-1])})
				}
				if bestM < 0 || w.Less(best) {
					best, bestM = w, m
				}
			}
			weights[i][k] = best
			splits[i][k] = bestM
		}
	}

	if math.IsInf(weights[0][n-1].Angle, 1) {
		return nil
	}

	var res [][3]int
	var collect func(i, k int)
	collect = func(i, k int) {
		if k-i < 2 {
			return
		}
		m := splits[i][k]
		res = append(res, [3]int{i, m, k})
		collect(i, m)
		collect(m, k)
	}
	collect(0, n-1)
	return res
}

// boundaryScales computes the mean incident edge length of each polygon
// vertex in the surrounding surface.
func boundaryScales(s *mesh.Surface, polygon []mesh.Vertex) []float64 {
	res := make([]float64, len(polygon))
	for i, v := range polygon {
		var sum float64
		neighbors := s.Neighbors(v)
		for _, u := range neighbors {
			sum += s.Point(u).Dist(s.Point(v))
		}
		if len(neighbors) > 0 {
			res[i] = sum / float64(len(neighbors))
		}
	}
	return res
}

// refine splits triangles at their centroids until their size matches the
// scale of the surrounding mesh, relaxing interior edges after each pass.
// Boundary edges are never flipped since they have a single triangle.
func (t *triMesh) refine(scales []float64) {
	scales = append([]float64{}, scales...)
	for pass := 0; pass < maxRefinePasses; pass++ {
		var split bool
		numTris := len(t.Tris)
		for idx := 0; idx < numTris; idx++ {
			tri := t.Tris[idx]
			if tri[0] < 0 {
				continue
			}
			c := t.Points[tri[0]].Add(t.Points[tri[1]]).Add(t.Points[tri[2]]).Scale(1.0 / 3)
			sc := (scales[tri[0]] + scales[tri[1]] + scales[tri[2]]) / 3
			ok := true
			for _, v := range tri {
				d := refineDensity * c.Dist(t.Points[v])
				if d <= sc || d <= scales[v] {
					ok = false
					break
				}
			}
			if !ok {
				continue
			}
			v := t.addVertex(c)
			scales = append(scales, sc)
			t.setTri(idx, [3]int{tri[0], tri[1], v})
			t.addTri([3]int{tri[1], tri[2], v})
			t.addTri([3]int{tri[2], tri[0], v})
			for i := 0; i < 3; i++ {
				t.relaxEdge(tri[i], tri[(i+1)%3])
			}
			split = true
		}
		if !split {
			break
		}
		for i := 0; i < 3*len(t.Tris); i++ {
			if !t.relaxAll() {
				break
			}
		}
	}
}

// relaxAll flips every interior edge which violates the local Delaunay
// condition, and reports whether anything changed.
func (t *triMesh) relaxAll() bool {
	var changed bool
	for _, e := range t.edges() {
		if t.relaxEdge(e[0], e[1]) {
			changed = true
		}
	}
	return changed
}

// relaxEdge flips an interior edge whose opposite angles sum to more than
// pi.
func (t *triMesh) relaxEdge(a, b int) bool {
	tris := t.edgeTris(a, b)
	if len(tris) != 2 {
		return false
	}
	c := t.oppositeVertex(tris[0], a, b)
	d := t.oppositeVertex(tris[1], a, b)
	angle1 := vertexAngle(t.Points[c], t.Points[a], t.Points[b])
	angle2 := vertexAngle(t.Points[d], t.Points[a], t.Points[b])
	if angle1+angle2 <= math.Pi+1e-8 {
		return false
	}
	return t.flipEdge(a, b)
}

func (t *triMesh) oppositeVertex(idx, a, b int) int {
	for _, v := range t.Tris[idx] {
		if v != a && v != b {
			return v
		}
	}
	return -1
}

// vertexAngle computes the angle at p of the triangle (p, a, b).
func vertexAngle(p, a, b model3d.Coord3D) float64 {
	u := a.Sub(p)
	v := b.Sub(p)
	n1, n2 := u.Norm(), v.Norm()
	if n1 == 0 || n2 == 0 {
		return 0
	}
	return math.Acos(math.Max(-1, math.Min(1, u.Dot(v)/(n1*n2))))
}

// flipQuad finds the two triangles (a, b, c) and (b, a, d) sharing edge
// (a, b), returning them in that order along with c and d.
func (t *triMesh) flipQuad(a, b int) (tris []int, c, d int, ok bool) {
	tris = t.edgeTris(a, b)
	if len(tris) != 2 {
		return nil, 0, 0, false
	}
	t1 := rotateTo(t.Tris[tris[0]], a)
	if t1[1] != b {
		tris[0], tris[1] = tris[1], tris[0]
		t1 = rotateTo(t.Tris[tris[0]], a)
	}
	t2 := rotateTo(t.Tris[tris[1]], b)
	if t1[1] != b || t2[1] != a {
		return nil, 0, 0, false
	}
	return tris, t1[2], t2[2], true
}

// flipEdge replaces the two triangles sharing (a, b) by two triangles
// sharing the other diagonal. It fails if that diagonal already exists in
// the mesh or is forbidden.
func (t *triMesh) flipEdge(a, b int) bool {
	tris, c, d, ok := t.flipQuad(a, b)
	if !ok || c == d || len(t.edgeTris(c, d)) > 0 || t.forbidden[newEdge(c, d)] {
		return false
	}
	t.setTri(tris[0], [3]int{a, d, c})
	t.setTri(tris[1], [3]int{d, b, c})
	return true
}

// insertionOrder lists the live patch triangles so that each one after the
// first shares an edge with an earlier one or with the hole boundary.
func insertionOrder(t *triMesh, numFixed int) [][3]int {
	var live []int
	for i, tri := range t.Tris {
		if tri[0] >= 0 {
			live = append(live, i)
		}
	}
	isBoundary := func(a, b int) bool {
		if a >= numFixed || b >= numFixed {
			return false
		}
		return b == (a+1)%numFixed || a == (b+1)%numFixed
	}
	inserted := map[edge]bool{}
	used := make([]bool, len(live))
	var res [][3]int
	for len(res) < len(live) {
		progress := false
		for i, idx := range live {
			if used[i] {
				continue
			}
			tri := t.Tris[idx]
			touches := len(res) == 0
			for j := 0; j < 3 && !touches; j++ {
				a, b := tri[j], tri[(j+1)%3]
				touches = isBoundary(a, b) || inserted[newEdge(a, b)]
			}
			if !touches {
				continue
			}
			used[i] = true
			progress = true
			res = append(res, tri)
			for j := 0; j < 3; j++ {
				inserted[newEdge(tri[j], tri[(j+1)%3])] = true
			}
		}
		if !progress {
			for i, idx := range live {
				if !used[i] {
					used[i] = true
					res = append(res, t.Tris[idx])
					break
				}
			}
		}
	}
	return res
}
