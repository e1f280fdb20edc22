package mesh

import (
	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
)

// A Vertex is a handle to a vertex of a Surface.
type Vertex int

// A Halfedge is a handle to a directed halfedge of a Surface.
type Halfedge int

// A Face is a handle to a face of a Surface.
type Face int

const (
	NullVertex   Vertex   = -1
	NullHalfedge Halfedge = -1
	NullFace     Face     = -1
)

var (
	ErrDegenerateFace = errors.New("face has fewer than three distinct vertices")
	ErrComplexVertex  = errors.New("complex vertex")
	ErrComplexEdge    = errors.New("complex edge")
	ErrPatchRelink    = errors.New("patch re-linking failed")
)

type halfedgeRecord struct {
	Target Vertex
	Next   Halfedge
	Prev   Halfedge
	Face   Face
}

// A Surface is an oriented 2-manifold represented by paired halfedges.
//
// Halfedges are allocated in pairs, so the opposite of h is always h^1.
// Elements are never removed from a Surface; operations which remove
// elements produce a new Surface instead.
//
// Every vertex stores an outgoing halfedge, which is a boundary halfedge
// whenever the vertex lies on the boundary.
type Surface struct {
	points    []model3d.Coord3D
	vertexOut []Halfedge
	halfedges []halfedgeRecord
	faces     []Halfedge
}

// NewSurface creates an empty surface.
func NewSurface() *Surface {
	return &Surface{}
}

// SurfaceFromSoup creates a surface with one vertex per soup point (in point
// order) and attempts to add every face.
//
// Faces which cannot be added without violating the manifold invariants are
// skipped, and their indices in s.Faces are returned.
func SurfaceFromSoup(s *Soup) (surf *Surface, failed []int) {
	surf = NewSurface()
	for _, p := range s.Points {
		surf.AddVertex(p)
	}
	vs := make([]Vertex, 0, 4)
	for i, f := range s.Faces {
		vs = vs[:0]
		for _, idx := range f {
			vs = append(vs, Vertex(idx))
		}
		if _, err := surf.AddFace(vs...); err != nil {
			failed = append(failed, i)
		}
	}
	return
}

// Copy creates an independent copy of the surface.
func (s *Surface) Copy() *Surface {
	return &Surface{
		points:    append([]model3d.Coord3D{}, s.points...),
		vertexOut: append([]Halfedge{}, s.vertexOut...),
		halfedges: append([]halfedgeRecord{}, s.halfedges...),
		faces:     append([]Halfedge{}, s.faces...),
	}
}

func (s *Surface) NumVertices() int {
	return len(s.points)
}

func (s *Surface) NumHalfedges() int {
	return len(s.halfedges)
}

func (s *Surface) NumEdges() int {
	return len(s.halfedges) / 2
}

func (s *Surface) NumFaces() int {
	return len(s.faces)
}

// AddVertex adds an isolated vertex.
func (s *Surface) AddVertex(p model3d.Coord3D) Vertex {
	s.points = append(s.points, p)
	s.vertexOut = append(s.vertexOut, NullHalfedge)
	return Vertex(len(s.points) - 1)
}

func (s *Surface) Point(v Vertex) model3d.Coord3D {
	return s.points[v]
}

func (s *Surface) SetPoint(v Vertex, p model3d.Coord3D) {
	s.points[v] = p
}

// Points returns a copy of the vertex coordinates, indexed by vertex.
func (s *Surface) Points() []model3d.Coord3D {
	return append([]model3d.Coord3D{}, s.points...)
}

func (s *Surface) Opposite(h Halfedge) Halfedge {
	return h ^ 1
}

func (s *Surface) Next(h Halfedge) Halfedge {
	return s.halfedges[h].Next
}

func (s *Surface) Prev(h Halfedge) Halfedge {
	return s.halfedges[h].Prev
}

// Target gets the vertex a halfedge points to.
func (s *Surface) Target(h Halfedge) Vertex {
	return s.halfedges[h].Target
}

// Source gets the vertex a halfedge starts from.
func (s *Surface) Source(h Halfedge) Vertex {
	return s.halfedges[h^1].Target
}

// HalfedgeFace gets the face to the left of h, or NullFace for a boundary
// halfedge.
func (s *Surface) HalfedgeFace(h Halfedge) Face {
	return s.halfedges[h].Face
}

// FaceHalfedge gets some halfedge bounding f.
func (s *Surface) FaceHalfedge(f Face) Halfedge {
	return s.faces[f]
}

// VertexHalfedge gets an outgoing halfedge of v, or NullHalfedge if v is
// isolated.
func (s *Surface) VertexHalfedge(v Vertex) Halfedge {
	return s.vertexOut[v]
}

func (s *Surface) IsBoundary(h Halfedge) bool {
	return s.halfedges[h].Face == NullFace
}

func (s *Surface) IsBoundaryEdge(h Halfedge) bool {
	return s.IsBoundary(h) || s.IsBoundary(h^1)
}

// IsBoundaryVertex checks if v is isolated or lies on a boundary.
func (s *Surface) IsBoundaryVertex(v Vertex) bool {
	h := s.vertexOut[v]
	return h == NullHalfedge || s.IsBoundary(h)
}

func (s *Surface) IsIsolated(v Vertex) bool {
	return s.vertexOut[v] == NullHalfedge
}

// Outgoing lists the outgoing halfedges of v in rotational order.
func (s *Surface) Outgoing(v Vertex) []Halfedge {
	start := s.vertexOut[v]
	if start == NullHalfedge {
		return nil
	}
	var res []Halfedge
	h := start
	for {
		res = append(res, h)
		h = s.Next(h ^ 1)
		if h == start || h == NullHalfedge || len(res) > len(s.halfedges) {
			break
		}
	}
	return res
}

// Neighbors lists the vertices adjacent to v in rotational order.
func (s *Surface) Neighbors(v Vertex) []Vertex {
	out := s.Outgoing(v)
	res := make([]Vertex, len(out))
	for i, h := range out {
		res[i] = s.Target(h)
	}
	return res
}

func (s *Surface) Valence(v Vertex) int {
	return len(s.Outgoing(v))
}

// FindHalfedge finds the halfedge from one vertex to another, or returns
// NullHalfedge if no such edge exists.
func (s *Surface) FindHalfedge(from, to Vertex) Halfedge {
	start := s.vertexOut[from]
	if start == NullHalfedge {
		return NullHalfedge
	}
	h := start
	for i := 0; i <= len(s.halfedges); i++ {
		if s.Target(h) == to {
			return h
		}
		h = s.Next(h ^ 1)
		if h == start {
			break
		}
	}
	return NullHalfedge
}

// FaceHalfedges lists the halfedges of a face's cycle.
func (s *Surface) FaceHalfedges(f Face) []Halfedge {
	return s.cycle(s.faces[f])
}

// FaceVertices lists the vertices of a face in counter-clockwise order.
func (s *Surface) FaceVertices(f Face) []Vertex {
	hs := s.FaceHalfedges(f)
	res := make([]Vertex, len(hs))
	for i, h := range hs {
		res[i] = s.Target(h)
	}
	return res
}

// FacePoints gets the coordinates of a face's vertices.
func (s *Surface) FacePoints(f Face) []model3d.Coord3D {
	vs := s.FaceVertices(f)
	res := make([]model3d.Coord3D, len(vs))
	for i, v := range vs {
		res[i] = s.points[v]
	}
	return res
}

func (s *Surface) cycle(start Halfedge) []Halfedge {
	var res []Halfedge
	h := start
	for {
		res = append(res, h)
		h = s.Next(h)
		if h == start || len(res) > len(s.halfedges) {
			break
		}
	}
	return res
}

// AddFace adds a face spanning the given vertices in counter-clockwise order.
//
// If the face would create a complex vertex or edge, no face is added and an
// error is returned. A failed insertion may still relink boundary patches
// around the face's vertices, which leaves the surface valid.
func (s *Surface) AddFace(vs ...Vertex) (Face, error) {
	n := len(vs)
	if n < 3 {
		return NullFace, ErrDegenerateFace
	}
	for i, v := range vs {
		if v < 0 || int(v) >= len(s.points) {
			return NullFace, errors.Errorf("add face: vertex %d out of range", v)
		}
		for _, u := range vs[:i] {
			if u == v {
				return NullFace, ErrDegenerateFace
			}
		}
	}

	hs := make([]Halfedge, n)
	isNew := make([]bool, n)
	needsAdjust := make([]bool, n)

	for i, v := range vs {
		if !s.IsBoundaryVertex(v) {
			return NullFace, ErrComplexVertex
		}
		hs[i] = s.FindHalfedge(v, vs[(i+1)%n])
		isNew[i] = hs[i] == NullHalfedge
		if !isNew[i] && !s.IsBoundary(hs[i]) {
			return NullFace, ErrComplexEdge
		}
	}

	// Existing consecutive boundary halfedges must become adjacent, which may
	// require moving a boundary patch into another gap around the vertex.
	for i := range vs {
		ii := (i + 1) % n
		if isNew[i] || isNew[ii] {
			continue
		}
		innerPrev, innerNext := hs[i], hs[ii]
		if s.Next(innerPrev) == innerNext {
			continue
		}
		boundaryPrev := innerNext ^ 1
		for j := 0; ; j++ {
			boundaryPrev = s.Next(boundaryPrev) ^ 1
			if s.IsBoundary(boundaryPrev) && boundaryPrev != innerPrev {
				break
			}
			if j > len(s.halfedges) {
				return NullFace, ErrPatchRelink
			}
		}
		boundaryNext := s.Next(boundaryPrev)
		if boundaryNext == innerNext {
			return NullFace, ErrPatchRelink
		}
		patchStart := s.Next(innerPrev)
		patchEnd := s.Prev(innerNext)
		s.setNext(boundaryPrev, patchStart)
		s.setNext(patchEnd, boundaryNext)
		s.setNext(innerPrev, innerNext)
	}

	for i, v := range vs {
		if isNew[i] {
			hs[i] = s.newEdge(v, vs[(i+1)%n])
		}
	}

	f := Face(len(s.faces))
	s.faces = append(s.faces, hs[n-1])

	type link struct {
		From Halfedge
		To   Halfedge
	}
	var nextCache []link
	for i := range vs {
		ii := (i + 1) % n
		v := vs[ii]
		innerPrev, innerNext := hs[i], hs[ii]

		var id int
		if isNew[i] {
			id |= 1
		}
		if isNew[ii] {
			id |= 2
		}

		if id != 0 {
			outerPrev := innerNext ^ 1
			outerNext := innerPrev ^ 1
			switch id {
			case 1:
				boundaryPrev := s.Prev(innerNext)
				nextCache = append(nextCache, link{boundaryPrev, outerNext})
				s.vertexOut[v] = outerNext
			case 2:
				boundaryNext := s.Next(innerPrev)
				nextCache = append(nextCache, link{outerPrev, boundaryNext})
				s.vertexOut[v] = boundaryNext
			case 3:
				if s.vertexOut[v] == NullHalfedge {
					s.vertexOut[v] = outerNext
					nextCache = append(nextCache, link{outerPrev, outerNext})
				} else {
					boundaryNext := s.vertexOut[v]
					boundaryPrev := s.Prev(boundaryNext)
					nextCache = append(
						nextCache,
						link{boundaryPrev, outerNext},
						link{outerPrev, boundaryNext},
					)
				}
			}
			nextCache = append(nextCache, link{innerPrev, innerNext})
		} else {
			needsAdjust[ii] = s.vertexOut[v] == innerNext
		}
		s.halfedges[innerPrev].Face = f
	}

	for _, l := range nextCache {
		s.setNext(l.From, l.To)
	}
	for i, v := range vs {
		if needsAdjust[i] {
			s.adjustOutgoing(v)
		}
	}

	return f, nil
}

func (s *Surface) newEdge(from, to Vertex) Halfedge {
	h := Halfedge(len(s.halfedges))
	s.halfedges = append(
		s.halfedges,
		halfedgeRecord{Target: to, Next: NullHalfedge, Prev: NullHalfedge, Face: NullFace},
		halfedgeRecord{Target: from, Next: NullHalfedge, Prev: NullHalfedge, Face: NullFace},
	)
	return h
}

func (s *Surface) setNext(h, next Halfedge) {
	s.halfedges[h].Next = next
	s.halfedges[next].Prev = h
}

func (s *Surface) adjustOutgoing(v Vertex) {
	for _, h := range s.Outgoing(v) {
		if s.IsBoundary(h) {
			s.vertexOut[v] = h
			return
		}
	}
}

// Soup exports the surface as a soup. Point i of the result is vertex i, and
// each face lists its vertices by walking its halfedge cycle.
func (s *Surface) Soup() *Soup {
	faces := make([][]int, len(s.faces))
	for i := range s.faces {
		vs := s.FaceVertices(Face(i))
		f := make([]int, len(vs))
		for j, v := range vs {
			f[j] = int(v)
		}
		faces[i] = f
	}
	return &Soup{Points: s.Points(), Faces: faces}
}

// Mesh converts the surface into a model3d mesh, triangulating polygons as
// fans.
func (s *Surface) Mesh() *model3d.Mesh {
	return model3d.NewMeshTriangles(s.Triangles())
}

// Triangles creates one triangle per face, or a fan of triangles for faces
// with more than three vertices.
func (s *Surface) Triangles() []*model3d.Triangle {
	res := make([]*model3d.Triangle, 0, len(s.faces))
	for i := range s.faces {
		ps := s.FacePoints(Face(i))
		for j := 1; j+1 < len(ps); j++ {
			res = append(res, &model3d.Triangle{ps[0], ps[j], ps[j+1]})
		}
	}
	return res
}

// IsTriangleMesh checks if every face is a triangle.
func (s *Surface) IsTriangleMesh() bool {
	for _, h := range s.faces {
		if s.Next(s.Next(s.Next(h))) != h {
			return false
		}
	}
	return true
}

func (s *Surface) Min() model3d.Coord3D {
	return pointsMin(s.points)
}

func (s *Surface) Max() model3d.Coord3D {
	return pointsMax(s.points)
}
