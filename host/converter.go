package host

import (
	"github.com/unixpickle/mesh-pmp/mesh"
	"github.com/unixpickle/model3d/model3d"
)

// A Promotion describes how a dataset was turned into a surface.
type Promotion struct {
	// Failed lists the polygon cells that could not be inserted, most often
	// because they would have created a non-manifold edge or vertex.
	Failed []int

	// Consistent is false if the orientation pass could not reconcile every
	// face with its neighbors.
	Consistent bool
}

// OK is the logical AND of every face insertion.
func (p *Promotion) OK() bool {
	return len(p.Failed) == 0
}

// ToSoup copies points and polygon cells verbatim.
func ToSoup(pd *PolyData) *mesh.Soup {
	faces := make([][]int, len(pd.Polys))
	for i, p := range pd.Polys {
		faces[i] = append([]int{}, p...)
	}
	return &mesh.Soup{
		Points: append([]model3d.Coord3D{}, pd.Points...),
		Faces:  faces,
	}
}

// ToSurface builds a surface from the dataset's polygons.
//
// Polygon windings are first made consistent with their neighbors without
// splitting vertices. Vertices are then created in point order, so vertex i
// corresponds to point i, and each polygon is inserted independently.
// Polygons which cannot be inserted are skipped and reported in the returned
// Promotion; the result is the surface built from the remaining polygons.
func ToSurface(pd *PolyData) (*mesh.Surface, *Promotion) {
	faces, consistent := mesh.OrientFaces(pd.Polys)
	surf, failed := mesh.SurfaceFromSoup(&mesh.Soup{Points: pd.Points, Faces: faces})
	return surf, &Promotion{Failed: failed, Consistent: consistent}
}

// FromSoup creates a dataset with the soup's points in order and one polygon
// per face.
func FromSoup(s *mesh.Soup) *PolyData {
	c := s.Copy()
	return &PolyData{Points: c.Points, Polys: c.Faces}
}

// FromSurface creates a dataset from a surface.
//
// Points are numbered by visiting the surface's vertex container, which is
// not guaranteed to match the order of any dataset the surface was built
// from. Each polygon lists its face's vertices by walking the halfedge cycle.
func FromSurface(s *mesh.Surface) *PolyData {
	index := make([]int, s.NumVertices())
	res := &PolyData{Points: make([]model3d.Coord3D, 0, s.NumVertices())}
	for v := 0; v < s.NumVertices(); v++ {
		index[v] = len(res.Points)
		res.Points = append(res.Points, s.Point(mesh.Vertex(v)))
	}
	res.Polys = make([][]int, s.NumFaces())
	for f := 0; f < s.NumFaces(); f++ {
		hs := s.FaceHalfedges(mesh.Face(f))
		poly := make([]int, len(hs))
		for i, h := range hs {
			poly[i] = index[s.Target(h)]
		}
		res.Polys[f] = poly
	}
	return res
}
