package kernel

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/markus-wa/quickhull-go/v2"
	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model2d"
	"github.com/unixpickle/model3d/model3d"
	"golang.org/x/exp/slices"
)

const planarEpsilon = 1e-12

// A Triangulation is a planar triangulation of a point set.
type Triangulation struct {
	// Triangles index into the input points and are counter-clockwise.
	Triangles [][3]int

	// Skipped lists the indices of ill-formed constraints which were left
	// out of the triangulation.
	Skipped []int
}

// ConstrainedDelaunay2D triangulates the convex hull of the points such that
// each constraint polyline appears as a chain of edges, and every other edge
// is locally Delaunay.
//
// Duplicate points are merged into their first occurrence. A constraint is
// ill-formed if it repeats a point consecutively, folds back on itself,
// touches itself, or crosses an earlier constraint; such constraints are
// skipped rather than failing the triangulation.
func ConstrainedDelaunay2D(points []model2d.Coord, constraints [][]int) Result[*Triangulation] {
	return call("constrained delaunay", func() (*Triangulation, error) {
		c := newCDT(points)
		res := &Triangulation{}
		if c.numReal < 3 || c.collinear() {
			for i := range constraints {
				if !c.validIndices(constraints[i]) {
					res.Skipped = append(res.Skipped, i)
				}
			}
			return res, nil
		}
		if !c.hullTriangulation() {
			c.incremental()
		}

		var accepted [][2]int
		for i, chain := range constraints {
			segs, ok := c.validateChain(chain, accepted)
			if !ok {
				res.Skipped = append(res.Skipped, i)
				continue
			}
			accepted = append(accepted, segs...)
			for _, seg := range segs {
				for _, sub := range c.splitCollinear(seg) {
					if !c.insertSegment(sub[0], sub[1]) {
						ok = false
					}
				}
			}
			if !ok {
				res.Skipped = append(res.Skipped, i)
			}
		}
		c.restoreDelaunay()

		for _, tri := range c.mesh.Tris {
			if tri[0] < 0 || tri[0] >= c.numReal || tri[1] >= c.numReal || tri[2] >= c.numReal {
				continue
			}
			res.Triangles = append(res.Triangles, [3]int{
				c.original[tri[0]], c.original[tri[1]], c.original[tri[2]],
			})
		}
		if len(res.Triangles) == 0 {
			return nil, errors.Wrap(ErrDegenerate, "no triangles produced")
		}
		return res, nil
	})
}

// cdt is a constrained triangulation in progress. Its points are normalized
// copies of the unique input points, stored with a zero z coordinate.
type cdt struct {
	mesh        *triMesh
	numReal     int
	original    []int
	unique      map[int]int
	numInput    int
	constrained map[edge]bool
}

func newCDT(points []model2d.Coord) *cdt {
	res := &cdt{
		mesh:        &triMesh{},
		unique:      map[int]int{},
		numInput:    len(points),
		constrained: map[edge]bool{},
	}
	if len(points) == 0 {
		return res
	}
	min, max := points[0], points[0]
	for _, p := range points {
		min = min.Min(p)
		max = max.Max(p)
	}
	center := min.Mid(max)
	scale := math.Max(max.X-min.X, max.Y-min.Y) / 2
	if scale == 0 {
		scale = 1
	}

	seen := map[model2d.Coord]int{}
	for i, p := range points {
		if idx, ok := seen[p]; ok {
			res.unique[i] = idx
			continue
		}
		q := p.Sub(center).Scale(1 / scale)
		idx := res.mesh.addVertex(model3d.XY(q.X, q.Y))
		seen[p] = idx
		res.unique[i] = idx
		res.original = append(res.original, i)
	}
	res.numReal = len(res.original)
	return res
}

func (c *cdt) point(i int) model3d.Coord3D {
	return c.mesh.Points[i]
}

func (c *cdt) collinear() bool {
	p0 := c.point(0)
	var far int
	for i := 1; i < c.numReal; i++ {
		if c.point(i).Dist(p0) > c.point(far).Dist(p0) {
			far = i
		}
	}
	p1 := c.point(far)
	for i := 0; i < c.numReal; i++ {
		if math.Abs(orient2D(p0, p1, c.point(i))) > planarEpsilon {
			return false
		}
	}
	return true
}

// hullTriangulation builds the Delaunay triangulation from the lower faces
// of the convex hull of the points lifted onto a paraboloid. It reports
// false if the hull does not tile the planar convex hull.
func (c *cdt) hullTriangulation() (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	if c.numReal < 4 {
		return false
	}
	lifted := make([]r3.Vector, c.numReal)
	var centroid r3.Vector
	for i := range lifted {
		p := c.point(i)
		lifted[i] = r3.Vector{X: p.X, Y: p.Y, Z: p.X*p.X + p.Y*p.Y}
		centroid = centroid.Add(lifted[i])
	}
	centroid = centroid.Mul(1 / float64(len(lifted)))

	qh := new(quickhull.QuickHull)
	hull := qh.ConvexHull(lifted, true, true, planarEpsilon)

	var tris [][3]int
	var area float64
	for i := 0; i+2 < len(hull.Indices); i += 3 {
		a, b, d := hull.Indices[i], hull.Indices[i+1], hull.Indices[i+2]
		normal := lifted[b].Sub(lifted[a]).Cross(lifted[d].Sub(lifted[a]))
		if normal.Dot(lifted[a].Sub(centroid)) < 0 {
			normal = normal.Mul(-1)
			b, d = d, b
		}
		if normal.Z >= -1e-9*normal.Norm() {
			continue
		}
		// Downward-facing faces appear clockwise from above.
		tri := [3]int{a, d, b}
		o := orient2D(c.point(tri[0]), c.point(tri[1]), c.point(tri[2]))
		if o <= planarEpsilon {
			continue
		}
		tris = append(tris, tri)
		area += o / 2
	}
	hullArea := convexHullArea(c.mesh.Points[:c.numReal])
	if math.Abs(area-hullArea) > 1e-8*math.Max(hullArea, 1) {
		return false
	}

	for _, tri := range tris {
		c.mesh.addTri(tri)
	}
	for _, e := range c.mesh.edges() {
		if len(c.mesh.edgeTris(e[0], e[1])) > 2 {
			c.mesh.Tris = nil
			c.mesh.reindex()
			return false
		}
	}

	// Points merged into a hull face by the tolerance are inserted afterwards.
	for i := 0; i < c.numReal; i++ {
		if len(c.mesh.vertTris[i]) == 0 {
			c.insert(i)
		}
	}
	return true
}

// incremental triangulates the points by insertion into an enclosing
// triangle, which is discarded at the end.
func (c *cdt) incremental() {
	c.mesh.Tris = nil
	c.mesh.reindex()
	const r = 1e3
	s0 := c.mesh.addVertex(model3d.XY(-3*r, -3*r))
	s1 := c.mesh.addVertex(model3d.XY(3*r, -3*r))
	s2 := c.mesh.addVertex(model3d.XY(0, 3*r))
	c.mesh.addTri([3]int{s0, s1, s2})
	for i := 0; i < c.numReal; i++ {
		c.insert(i)
	}
}

// insert adds vertex v to the triangulation and restores the Delaunay
// property around it.
func (c *cdt) insert(v int) bool {
	p := c.point(v)
	for idx, tri := range c.mesh.Tris {
		if tri[0] < 0 || triIndex(tri, v) >= 0 {
			continue
		}
		a, b, d := c.point(tri[0]), c.point(tri[1]), c.point(tri[2])
		o1, o2, o3 := orient2D(a, b, p), orient2D(b, d, p), orient2D(d, a, p)
		if o1 < -planarEpsilon || o2 < -planarEpsilon || o3 < -planarEpsilon {
			continue
		}
		switch {
		case math.Abs(o1) <= planarEpsilon:
			c.mesh.splitEdgeWith(tri[0], tri[1], v)
		case math.Abs(o2) <= planarEpsilon:
			c.mesh.splitEdgeWith(tri[1], tri[2], v)
		case math.Abs(o3) <= planarEpsilon:
			c.mesh.splitEdgeWith(tri[2], tri[0], v)
		default:
			c.mesh.setTri(idx, [3]int{tri[0], tri[1], v})
			c.mesh.addTri([3]int{tri[1], tri[2], v})
			c.mesh.addTri([3]int{tri[2], tri[0], v})
		}
		c.legalizeAround(v)
		return true
	}
	return false
}

func (c *cdt) legalizeAround(v int) {
	var stack []edge
	for _, idx := range c.mesh.vertTris[v] {
		tri := rotateTo(c.mesh.Tris[idx], v)
		stack = append(stack, edge{tri[1], tri[2]})
	}
	c.legalize(stack)
}

// legalize flips unconstrained edges which fail the empty circumcircle test
// until the stack is exhausted.
func (c *cdt) legalize(stack []edge) {
	limit := 100 * (len(c.mesh.Tris) + 10)
	for iter := 0; len(stack) > 0 && iter < limit; iter++ {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		a, b := e[0], e[1]
		if c.constrained[newEdge(a, b)] {
			continue
		}
		_, x, y, ok := c.mesh.flipQuad(a, b)
		if !ok {
			continue
		}
		if !inCircle(c.point(a), c.point(b), c.point(x), c.point(y)) {
			continue
		}
		if !c.convexQuad(a, b, x, y) || !c.mesh.flipEdge(a, b) {
			continue
		}
		stack = append(stack, edge{a, y}, edge{y, b}, edge{b, x}, edge{x, a})
	}
}

func (c *cdt) restoreDelaunay() {
	var stack []edge
	for _, e := range c.mesh.edges() {
		stack = append(stack, e)
	}
	c.legalize(stack)
}

// convexQuad checks that the diagonals of the quad with edge (a, b) and
// opposite vertices x and y cross.
func (c *cdt) convexQuad(a, b, x, y int) bool {
	return segmentsCross(c.point(a), c.point(b), c.point(x), c.point(y))
}

func (c *cdt) validIndices(chain []int) bool {
	if len(chain) < 2 {
		return false
	}
	for _, i := range chain {
		if i < 0 || i >= c.numInput {
			return false
		}
	}
	return true
}

// validateChain maps a constraint polyline to unique vertex segments and
// checks that it is well-formed and compatible with the accepted segments.
func (c *cdt) validateChain(chain []int, accepted [][2]int) ([][2]int, bool) {
	if !c.validIndices(chain) {
		return nil, false
	}
	var segs [][2]int
	for i := 1; i < len(chain); i++ {
		a, b := c.unique[chain[i-1]], c.unique[chain[i]]
		if a == b {
			return nil, false
		}
		segs = append(segs, [2]int{a, b})
	}
	closed := len(segs) > 2 && segs[0][0] == segs[len(segs)-1][1]
	for i, s := range segs {
		if i > 0 {
			prev := segs[i-1]
			p0, p1, p2 := c.point(prev[0]), c.point(s[0]), c.point(s[1])
			if prev[0] == s[1] ||
				(math.Abs(orient2D(p0, p1, p2)) <= planarEpsilon && p1.Sub(p0).Dot(p2.Sub(p1)) < 0) {
				return nil, false
			}
		}
		for j := i + 2; j < len(segs); j++ {
			if closed && i == 0 && j == len(segs)-1 {
				continue
			}
			t := segs[j]
			if segmentsTouch(c.point(s[0]), c.point(s[1]), c.point(t[0]), c.point(t[1])) {
				return nil, false
			}
		}
		for _, t := range accepted {
			if c.conflicts(s, t) {
				return nil, false
			}
		}
	}
	return segs, true
}

// conflicts checks if two segments cross at a point that is not a vertex, or
// overlap along a line.
func (c *cdt) conflicts(s, t [2]int) bool {
	a, b, p, q := c.point(s[0]), c.point(s[1]), c.point(t[0]), c.point(t[1])
	if math.Abs(orient2D(a, b, p)) <= planarEpsilon && math.Abs(orient2D(a, b, q)) <= planarEpsilon {
		dir := b.Sub(a)
		length := dir.Dot(dir)
		t0, t1 := p.Sub(a).Dot(dir)/length, q.Sub(a).Dot(dir)/length
		lo, hi := math.Min(t0, t1), math.Max(t0, t1)
		return math.Min(hi, 1)-math.Max(lo, 0) > planarEpsilon
	}
	if s[0] == t[0] || s[0] == t[1] || s[1] == t[0] || s[1] == t[1] {
		return false
	}
	return segmentsCross(a, b, p, q)
}

// splitCollinear breaks a segment at every vertex lying in its interior.
func (c *cdt) splitCollinear(seg [2]int) [][2]int {
	a, b := c.point(seg[0]), c.point(seg[1])
	dir := b.Sub(a)
	length := dir.Norm()
	type hit struct {
		V int
		T float64
	}
	var hits []hit
	for v := 0; v < c.numReal; v++ {
		if v == seg[0] || v == seg[1] {
			continue
		}
		p := c.point(v)
		if math.Abs(orient2D(a, b, p)) > planarEpsilon*length {
			continue
		}
		t := p.Sub(a).Dot(dir) / (length * length)
		if t > 0 && t < 1 {
			hits = append(hits, hit{V: v, T: t})
		}
	}
	slices.SortFunc(hits, func(x, y hit) bool {
		return x.T < y.T
	})
	res := make([][2]int, 0, len(hits)+1)
	prev := seg[0]
	for _, h := range hits {
		res = append(res, [2]int{prev, h.V})
		prev = h.V
	}
	return append(res, [2]int{prev, seg[1]})
}

// insertSegment flips the edges crossing (a, b) until it is an edge of the
// triangulation, then marks it as constrained.
func (c *cdt) insertSegment(a, b int) bool {
	limit := 10 * (len(c.mesh.Tris) + 10)
	for iter := 0; iter < limit; iter++ {
		crossing := c.crossingEdges(a, b)
		if len(crossing) == 0 {
			break
		}
		progress := false
		for _, e := range crossing {
			_, x, y, ok := c.mesh.flipQuad(e[0], e[1])
			if !ok || c.constrained[e] || !c.convexQuad(e[0], e[1], x, y) {
				continue
			}
			if c.mesh.flipEdge(e[0], e[1]) {
				progress = true
			}
		}
		if !progress {
			return false
		}
	}
	if len(c.mesh.edgeTris(a, b)) == 0 {
		return false
	}
	c.constrained[newEdge(a, b)] = true
	return true
}

func (c *cdt) crossingEdges(a, b int) []edge {
	var res []edge
	pa, pb := c.point(a), c.point(b)
	for _, e := range c.mesh.edges() {
		if e[0] == a || e[0] == b || e[1] == a || e[1] == b {
			continue
		}
		if segmentsCross(pa, pb, c.point(e[0]), c.point(e[1])) {
			res = append(res, e)
		}
	}
	return res
}

func orient2D(a, b, c model3d.Coord3D) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// inCircle checks if d is strictly inside the circumcircle of the
// counter-clockwise triangle (a, b, c).
func inCircle(a, b, c, d model3d.Coord3D) bool {
	adx, ady := a.X-d.X, a.Y-d.Y
	bdx, bdy := b.X-d.X, b.Y-d.Y
	cdx, cdy := c.X-d.X, c.Y-d.Y
	det := (adx*adx+ady*ady)*(bdx*cdy-cdx*bdy) -
		(bdx*bdx+bdy*bdy)*(adx*cdy-cdx*ady) +
		(cdx*cdx+cdy*cdy)*(adx*bdy-bdx*ady)
	return det > planarEpsilon
}

// segmentsCross checks if the interiors of two segments cross at a single
// point.
func segmentsCross(a, b, p, q model3d.Coord3D) bool {
	o1, o2 := orient2D(a, b, p), orient2D(a, b, q)
	o3, o4 := orient2D(p, q, a), orient2D(p, q, b)
	return ((o1 > planarEpsilon && o2 < -planarEpsilon) || (o1 < -planarEpsilon && o2 > planarEpsilon)) &&
		((o3 > planarEpsilon && o4 < -planarEpsilon) || (o3 < -planarEpsilon && o4 > planarEpsilon))
}

// segmentsTouch checks if two closed segments share any point.
func segmentsTouch(a, b, p, q model3d.Coord3D) bool {
	if segmentsCross(a, b, p, q) {
		return true
	}
	return onSegment(a, b, p) || onSegment(a, b, q) || onSegment(p, q, a) || onSegment(p, q, b)
}

func onSegment(a, b, p model3d.Coord3D) bool {
	if math.Abs(orient2D(a, b, p)) > planarEpsilon {
		return false
	}
	dir := b.Sub(a)
	t := p.Sub(a).Dot(dir)
	return t >= -planarEpsilon && t <= dir.Dot(dir)+planarEpsilon
}

// convexHullArea computes the area of the planar convex hull with a
// monotone chain.
func convexHullArea(points []model3d.Coord3D) float64 {
	sorted := append([]model3d.Coord3D{}, points...)
	slices.SortFunc(sorted, func(a, b model3d.Coord3D) bool {
		if a.X == b.X {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	var hull []model3d.Coord3D
	for pass := 0; pass < 2; pass++ {
		start := len(hull)
		for _, p := range sorted {
			for len(hull) >= start+2 && orient2D(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
				hull = hull[:len(hull)-1]
			}
			hull = append(hull, p)
		}
		hull = hull[:len(hull)-1]
		for i, j := 0, len(sorted)-1; i < j; i, j = i+1, j-1 {
			sorted[i], sorted[j] = sorted[j], sorted[i]
		}
	}
	var area float64
	for i, p := range hull {
		q := hull[(i+1)%len(hull)]
		area += p.X*q.Y - q.X*p.Y
	}
	return area / 2
}
