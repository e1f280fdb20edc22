package mesh

import (
	"math"

	"github.com/unixpickle/model3d/model2d"
	"github.com/unixpickle/model3d/model3d"
)

const (
	// baryEpsilon is the tolerance on barycentric coordinates and segment
	// parameters in intersection tests.
	baryEpsilon = 1e-9

	// planeEpsilon is the distance tolerance for coplanarity, relative to
	// the longest edge of the triangles being compared.
	planeEpsilon = 1e-9
)

// TrianglesIntersect checks if two triangles with no shared vertices touch
// or overlap.
func TrianglesIntersect(t1, t2 *model3d.Triangle) bool {
	scale := math.Max(longestEdge(t1), longestEdge(t2))
	if scale == 0 {
		return false
	}
	eps := scale * planeEpsilon

	n1, ok1 := unitNormal(t1)
	n2, ok2 := unitNormal(t2)
	if !ok1 || !ok2 {
		return false
	}
	d2 := planeDistances(n1, t1[0], t2)
	if allAbove(d2, eps) || allBelow(d2, eps) {
		return false
	}
	d1 := planeDistances(n2, t2[0], t1)
	if allAbove(d1, eps) || allBelow(d1, eps) {
		return false
	}
	if allNear(d2, eps) {
		p1, p2 := projectPair(n1, t1, t2)
		return coplanarIntersect(p1, p2)
	}
	for i := 0; i < 3; i++ {
		if SegmentTriangle(t1[i], t1[(i+1)%3], t2) || SegmentTriangle(t2[i], t2[(i+1)%3], t1) {
			return true
		}
	}
	return false
}

// sharedVertexIntersect checks two triangles which share exactly one vertex,
// placed first in both triangles.
func sharedVertexIntersect(t1, t2 *model3d.Triangle) bool {
	scale := math.Max(longestEdge(t1), longestEdge(t2))
	n1, ok1 := unitNormal(t1)
	_, ok2 := unitNormal(t2)
	if !ok1 || !ok2 {
		return false
	}
	eps := scale * planeEpsilon
	if allNear(planeDistances(n1, t1[0], t2), eps) {
		p1, p2 := projectPair(n1, t1, t2)
		if wedgeOverlap(p1, p2) || wedgeOverlap(p2, p1) {
			return true
		}
		return segmentsCross(p1[1], p1[2], p2[0], p2[1], false) ||
			segmentsCross(p1[1], p1[2], p2[0], p2[2], false) ||
			segmentsCross(p1[1], p1[2], p2[1], p2[2], false) ||
			segmentsCross(p2[1], p2[2], p1[0], p1[1], false) ||
			segmentsCross(p2[1], p2[2], p1[0], p1[2], false)
	}
	return SegmentTriangle(t1[1], t1[2], t2) || SegmentTriangle(t2[1], t2[2], t1)
}

// sharedEdgeIntersect checks two triangles sharing the edge t[0]-t[1], with
// a and b the remaining vertices. They only intersect when folded onto each
// other.
func sharedEdgeIntersect(p, q, a, b model3d.Coord3D) bool {
	t1 := &model3d.Triangle{p, q, a}
	n, ok := unitNormal(t1)
	if !ok {
		return false
	}
	scale := math.Max(longestEdge(t1), math.Max(b.Dist(p), b.Dist(q)))
	if math.Abs(n.Dot(b.Sub(p))) > scale*planeEpsilon {
		return false
	}
	edge := q.Sub(p)
	s1 := n.Dot(edge.Cross(a.Sub(p)))
	s2 := n.Dot(edge.Cross(b.Sub(p)))
	return s1*s2 > 0
}

// SegmentTriangle checks if the segment from p to q touches t. Segments
// parallel to the triangle's plane never collide.
func SegmentTriangle(p, q model3d.Coord3D, t *model3d.Triangle) bool {
	e1 := t[1].Sub(t[0])
	e2 := t[2].Sub(t[0])
	d := q.Sub(p)
	pv := d.Cross(e2)
	det := e1.Dot(pv)
	if math.Abs(det) <= 1e-14*e1.Norm()*e2.Norm()*d.Norm() {
		return false
	}
	inv := 1 / det
	tv := p.Sub(t[0])
	u := tv.Dot(pv) * inv
	if u < -baryEpsilon || u > 1+baryEpsilon {
		return false
	}
	qv := tv.Cross(e1)
	v := d.Dot(qv) * inv
	if v < -baryEpsilon || u+v > 1+baryEpsilon {
		return false
	}
	s := e2.Dot(qv) * inv
	return s >= -baryEpsilon && s <= 1+baryEpsilon
}

func longestEdge(t *model3d.Triangle) float64 {
	return math.Max(t[0].Dist(t[1]), math.Max(t[1].Dist(t[2]), t[2].Dist(t[0])))
}

func unitNormal(t *model3d.Triangle) (model3d.Coord3D, bool) {
	n := t[1].Sub(t[0]).Cross(t[2].Sub(t[0]))
	norm := n.Norm()
	if norm == 0 {
		return n, false
	}
	return n.Scale(1 / norm), true
}

func planeDistances(n, origin model3d.Coord3D, t *model3d.Triangle) [3]float64 {
	var res [3]float64
	for i, c := range t {
		res[i] = n.Dot(c.Sub(origin))
	}
	return res
}

func allAbove(d [3]float64, eps float64) bool {
	return d[0] > eps && d[1] > eps && d[2] > eps
}

func allBelow(d [3]float64, eps float64) bool {
	return d[0] < -eps && d[1] < -eps && d[2] < -eps
}

func allNear(d [3]float64, eps float64) bool {
	return math.Abs(d[0]) <= eps && math.Abs(d[1]) <= eps && math.Abs(d[2]) <= eps
}

// projectPair drops the coordinate axis most aligned with n.
func projectPair(n model3d.Coord3D, t1, t2 *model3d.Triangle) (p1, p2 [3]model2d.Coord) {
	abs := n.Abs()
	project := func(c model3d.Coord3D) model2d.Coord {
		if abs.X >= abs.Y && abs.X >= abs.Z {
			return model2d.XY(c.Y, c.Z)
		} else if abs.Y >= abs.Z {
			return model2d.XY(c.Z, c.X)
		}
		return model2d.XY(c.X, c.Y)
	}
	for i := 0; i < 3; i++ {
		p1[i] = project(t1[i])
		p2[i] = project(t2[i])
	}
	return
}

func cross2(a, b model2d.Coord) float64 {
	return a.X*b.Y - a.Y*b.X
}

func orient2(a, b, c model2d.Coord) float64 {
	return cross2(b.Sub(a), c.Sub(a))
}

// segmentsCross checks if two segments intersect. If touching is false, only
// crossings of both interiors count.
func segmentsCross(a, b, c, d model2d.Coord, touching bool) bool {
	scale := math.Max(a.Dist(b), c.Dist(d))
	eps := scale * scale * planeEpsilon
	o1 := orient2(a, b, c)
	o2 := orient2(a, b, d)
	o3 := orient2(c, d, a)
	o4 := orient2(c, d, b)
	if ((o1 > eps && o2 < -eps) || (o1 < -eps && o2 > eps)) &&
		((o3 > eps && o4 < -eps) || (o3 < -eps && o4 > eps)) {
		return true
	}
	if !touching {
		return false
	}
	return (math.Abs(o1) <= eps && onSegment(a, b, c)) ||
		(math.Abs(o2) <= eps && onSegment(a, b, d)) ||
		(math.Abs(o3) <= eps && onSegment(c, d, a)) ||
		(math.Abs(o4) <= eps && onSegment(c, d, b))
}

func onSegment(a, b, p model2d.Coord) bool {
	return p.X >= math.Min(a.X, b.X) && p.X <= math.Max(a.X, b.X) &&
		p.Y >= math.Min(a.Y, b.Y) && p.Y <= math.Max(a.Y, b.Y)
}

func pointInTriangle2(t [3]model2d.Coord, p model2d.Coord) bool {
	o1 := orient2(t[0], t[1], p)
	o2 := orient2(t[1], t[2], p)
	o3 := orient2(t[2], t[0], p)
	return (o1 >= 0 && o2 >= 0 && o3 >= 0) || (o1 <= 0 && o2 <= 0 && o3 <= 0)
}

func coplanarIntersect(p1, p2 [3]model2d.Coord) bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if segmentsCross(p1[i], p1[(i+1)%3], p2[j], p2[(j+1)%3], true) {
				return true
			}
		}
	}
	return pointInTriangle2(p1, p2[0]) || pointInTriangle2(p2, p1[0])
}

// wedgeOverlap checks if an edge of t1 leaving the shared vertex t1[0]
// points strictly into the angle of t2 at its shared vertex t2[0].
func wedgeOverlap(t1, t2 [3]model2d.Coord) bool {
	w1 := t2[1].Sub(t2[0])
	w2 := t2[2].Sub(t2[0])
	if cross2(w1, w2) < 0 {
		w1, w2 = w2, w1
	}
	for _, c := range t1[1:] {
		u := c.Sub(t1[0])
		eps := planeEpsilon * u.Norm() * math.Max(w1.Norm(), w2.Norm())
		if cross2(w1, u) > eps && cross2(u, w2) > eps {
			return true
		}
	}
	return false
}
