package kernel

import (
	"math"

	"github.com/pkg/errors"
	"github.com/unixpickle/mesh-pmp/mesh"
	"github.com/unixpickle/model3d/model3d"
)

type SubdivisionMethod int

const (
	CatmullClark SubdivisionMethod = iota
	Loop
	DooSabin
	Sqrt3
)

func (s SubdivisionMethod) String() string {
	switch s {
	case CatmullClark:
		return "catmull_clark"
	case Loop:
		return "loop"
	case DooSabin:
		return "doo_sabin"
	case Sqrt3:
		return "sqrt3"
	}
	return "unknown"
}

type SubdivisionOptions struct {
	Method     SubdivisionMethod
	Iterations int
}

// Subdivide refines a surface with the given scheme. Loop and sqrt3 require
// a triangle mesh; Catmull-Clark produces quads and Doo-Sabin produces
// general polygons.
func Subdivide(s *mesh.Surface, opts SubdivisionOptions) Result[*mesh.Surface] {
	return call("subdivide "+opts.Method.String(), func() (*mesh.Surface, error) {
		var step func(*mesh.Surface) *mesh.Soup
		switch opts.Method {
		case CatmullClark:
			step = catmullClarkStep
		case Loop:
			step = loopStep
		case DooSabin:
			step = dooSabinStep
		case Sqrt3:
			step = sqrt3Step
		default:
			return nil, errors.Errorf("unknown subdivision method %d", opts.Method)
		}
		if (opts.Method == Loop || opts.Method == Sqrt3) && !s.IsTriangleMesh() {
			return nil, ErrNotTriangleMesh
		}
		res := s.Copy()
		for i := 0; i < opts.Iterations; i++ {
			surf, failed := mesh.SurfaceFromSoup(step(res))
			if len(failed) > 0 {
				return nil, errors.Wrapf(ErrNonManifold, "iteration %d", i)
			}
			res = surf
		}
		return res, nil
	})
}

// edgePoints adds one point per edge, computed by f, and returns a lookup
// from either halfedge of an edge to the new point's index.
func edgePoints(s *mesh.Surface, points *[]model3d.Coord3D,
	f func(h mesh.Halfedge) model3d.Coord3D) []int {
	res := make([]int, s.NumHalfedges())
	for h := mesh.Halfedge(0); int(h) < s.NumHalfedges(); h += 2 {
		idx := len(*points)
		*points = append(*points, f(h))
		res[h] = idx
		res[h^1] = idx
	}
	return res
}

func faceCentroid(s *mesh.Surface, f mesh.Face) model3d.Coord3D {
	var sum model3d.Coord3D
	ps := s.FacePoints(f)
	for _, p := range ps {
		sum = sum.Add(p)
	}
	return sum.Scale(1 / float64(len(ps)))
}

// boundaryNeighbors finds the two boundary neighbors of a boundary vertex.
func boundaryNeighbors(s *mesh.Surface, v mesh.Vertex) []mesh.Vertex {
	var res []mesh.Vertex
	for _, h := range s.Outgoing(v) {
		if s.IsBoundaryEdge(h) {
			res = append(res, s.Target(h))
		}
	}
	return res
}

func loopStep(s *mesh.Surface) *mesh.Soup {
	points := make([]model3d.Coord3D, s.NumVertices())
	for i := range points {
		v := mesh.Vertex(i)
		p := s.Point(v)
		if s.IsIsolated(v) {
			points[i] = p
			continue
		}
		if s.IsBoundaryVertex(v) {
			bn := boundaryNeighbors(s, v)
			if len(bn) != 2 {
				points[i] = p
				continue
			}
			points[i] = p.Scale(0.75).Add(s.Point(bn[0]).Add(s.Point(bn[1])).Scale(0.125))
			continue
		}
		neighbors := s.Neighbors(v)
		n := float64(len(neighbors))
		c := 3.0/8 + math.Cos(2*math.Pi/n)/4
		beta := (5.0/8 - c*c) / n
		var sum model3d.Coord3D
		for _, u := range neighbors {
			sum = sum.Add(s.Point(u))
		}
		points[i] = p.Scale(1 - n*beta).Add(sum.Scale(beta))
	}
	edges := edgePoints(s, &points, func(h mesh.Halfedge) model3d.Coord3D {
		a, b := s.Point(s.Source(h)), s.Point(s.Target(h))
		if s.IsBoundaryEdge(h) {
			return a.Mid(b)
		}
		c := s.Point(s.Target(s.Next(h)))
		d := s.Point(s.Target(s.Next(h ^ 1)))
		return a.Add(b).Scale(3.0 / 8).Add(c.Add(d).Scale(1.0 / 8))
	})
	res := &mesh.Soup{Points: points}
	for f := 0; f < s.NumFaces(); f++ {
		hs := s.FaceHalfedges(mesh.Face(f))
		vs := s.FaceVertices(mesh.Face(f))
		// hs[i] ends at vs[i], so edge point i lies between vs[i-1] and vs[i].
		e := [3]int{edges[hs[0]], edges[hs[1]], edges[hs[2]]}
		v := [3]int{int(vs[0]), int(vs[1]), int(vs[2])}
		res.Faces = append(res.Faces,
			[]int{v[0], e[1], e[0]},
			[]int{v[1], e[2], e[1]},
			[]int{v[2], e[0], e[2]},
			[]int{e[0], e[1], e[2]},
		)
	}
	return res
}

func sqrt3Step(s *mesh.Surface) *mesh.Soup {
	points := make([]model3d.Coord3D, s.NumVertices())
	for i := range points {
		v := mesh.Vertex(i)
		p := s.Point(v)
		if s.IsIsolated(v) || s.IsBoundaryVertex(v) {
			points[i] = p
			continue
		}
		neighbors := s.Neighbors(v)
		n := float64(len(neighbors))
		alpha := (4 - 2*math.Cos(2*math.Pi/n)) / 9
		var sum model3d.Coord3D
		for _, u := range neighbors {
			sum = sum.Add(s.Point(u))
		}
		points[i] = p.Scale(1 - alpha).Add(sum.Scale(alpha / n))
	}
	centers := make([]int, s.NumFaces())
	for f := range centers {
		centers[f] = len(points)
		points = append(points, faceCentroid(s, mesh.Face(f)))
	}
	res := &mesh.Soup{Points: points}
	for h := mesh.Halfedge(0); int(h) < s.NumHalfedges(); h++ {
		f := s.HalfedgeFace(h)
		if f == mesh.NullFace {
			continue
		}
		a, b := int(s.Source(h)), int(s.Target(h))
		g := s.HalfedgeFace(h ^ 1)
		if g == mesh.NullFace {
			res.Faces = append(res.Faces, []int{a, b, centers[f]})
		} else if h%2 == 0 {
			cf, cg := centers[f], centers[g]
			res.Faces = append(res.Faces, []int{a, cg, cf}, []int{cg, b, cf})
		}
	}
	return res
}

func catmullClarkStep(s *mesh.Surface) *mesh.Soup {
	var points []model3d.Coord3D
	centers := make([]int, s.NumFaces())
	centerPoints := make([]model3d.Coord3D, s.NumFaces())
	for f := range centers {
		centerPoints[f] = faceCentroid(s, mesh.Face(f))
	}

	for i := 0; i < s.NumVertices(); i++ {
		v := mesh.Vertex(i)
		p := s.Point(v)
		if s.IsIsolated(v) {
			points = append(points, p)
			continue
		}
		if s.IsBoundaryVertex(v) {
			bn := boundaryNeighbors(s, v)
			if len(bn) != 2 {
				points = append(points, p)
				continue
			}
			points = append(points, p.Scale(0.75).Add(s.Point(bn[0]).Add(s.Point(bn[1])).Scale(0.125)))
			continue
		}
		out := s.Outgoing(v)
		n := float64(len(out))
		var q, r model3d.Coord3D
		for _, h := range out {
			q = q.Add(centerPoints[s.HalfedgeFace(h)])
			r = r.Add(p.Mid(s.Point(s.Target(h))))
		}
		q = q.Scale(1 / n)
		r = r.Scale(1 / n)
		points = append(points, q.Add(r.Scale(2)).Add(p.Scale(n-3)).Scale(1/n))
	}
	for f := range centers {
		centers[f] = len(points)
		points = append(points, centerPoints[f])
	}
	edges := edgePoints(s, &points, func(h mesh.Halfedge) model3d.Coord3D {
		a, b := s.Point(s.Source(h)), s.Point(s.Target(h))
		if s.IsBoundaryEdge(h) {
			return a.Mid(b)
		}
		f1 := centerPoints[s.HalfedgeFace(h)]
		f2 := centerPoints[s.HalfedgeFace(h^1)]
		return a.Add(b).Add(f1).Add(f2).Scale(0.25)
	})

	res := &mesh.Soup{Points: points}
	for f := 0; f < s.NumFaces(); f++ {
		hs := s.FaceHalfedges(mesh.Face(f))
		vs := s.FaceVertices(mesh.Face(f))
		for i, v := range vs {
			// hs[i] ends at v and hs[i+1] starts at v.
			in := edges[hs[i]]
			out := edges[hs[(i+1)%len(hs)]]
			res.Faces = append(res.Faces, []int{int(v), out, centers[f], in})
		}
	}
	return res
}

func dooSabinStep(s *mesh.Surface) *mesh.Soup {
	res := &mesh.Soup{}
	corners := make([]int, s.NumHalfedges())
	for f := 0; f < s.NumFaces(); f++ {
		hs := s.FaceHalfedges(mesh.Face(f))
		ps := s.FacePoints(mesh.Face(f))
		k := len(ps)
		face := make([]int, k)
		for i := range ps {
			var p model3d.Coord3D
			for j, q := range ps {
				var w float64
				if i == j {
					w = float64(k+5) / float64(4*k)
				} else {
					w = (3 + 2*math.Cos(2*math.Pi*float64(i-j)/float64(k))) / float64(4*k)
				}
				p = p.Add(q.Scale(w))
			}
			corners[hs[i]] = len(res.Points)
			face[i] = len(res.Points)
			res.Points = append(res.Points, p)
		}
		res.Faces = append(res.Faces, face)
	}

	// Corner of halfedge h is the new point near Target(h) inside its face.
	for h := mesh.Halfedge(0); int(h) < s.NumHalfedges(); h += 2 {
		if s.IsBoundaryEdge(h) {
			continue
		}
		g := h ^ 1
		res.Faces = append(res.Faces, []int{
			corners[h], corners[s.Prev(h)], corners[g], corners[s.Prev(g)],
		})
	}

	for i := 0; i < s.NumVertices(); i++ {
		v := mesh.Vertex(i)
		if s.IsIsolated(v) || s.IsBoundaryVertex(v) {
			continue
		}
		start := s.VertexHalfedge(v)
		var face []int
		h := start
		for {
			prev := s.Prev(h)
			face = append(face, corners[prev])
			h = prev ^ 1
			if h == start || len(face) > s.NumHalfedges() {
				break
			}
		}
		if len(face) >= 3 {
			res.Faces = append(res.Faces, face)
		}
	}
	return res
}
