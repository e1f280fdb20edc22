package mesh

import (
	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
)

// A Soup is a list of points and a list of polygons which index into it.
//
// No connectivity, uniqueness, or orientation invariant is enforced. A Soup is
// the form in which untrusted input enters the system.
type Soup struct {
	Points []model3d.Coord3D
	Faces  [][]int
}

// NewSoup creates a soup from points and faces without copying them.
func NewSoup(points []model3d.Coord3D, faces [][]int) *Soup {
	return &Soup{Points: points, Faces: faces}
}

// SoupFromMesh creates a triangle soup from a model3d mesh, merging vertices
// with identical coordinates.
func SoupFromMesh(m *model3d.Mesh) *Soup {
	res := &Soup{}
	indices := map[model3d.Coord3D]int{}
	index := func(c model3d.Coord3D) int {
		if idx, ok := indices[c]; ok {
			return idx
		}
		idx := len(res.Points)
		indices[c] = idx
		res.Points = append(res.Points, c)
		return idx
	}
	m.Iterate(func(t *model3d.Triangle) {
		res.Faces = append(res.Faces, []int{index(t[0]), index(t[1]), index(t[2])})
	})
	return res
}

// Copy creates a deep copy of the soup.
func (s *Soup) Copy() *Soup {
	faces := make([][]int, len(s.Faces))
	for i, f := range s.Faces {
		faces[i] = append([]int{}, f...)
	}
	return &Soup{
		Points: append([]model3d.Coord3D{}, s.Points...),
		Faces:  faces,
	}
}

func (s *Soup) NumPoints() int {
	return len(s.Points)
}

func (s *Soup) NumFaces() int {
	return len(s.Faces)
}

// Validate checks that every face index refers to an existing point.
func (s *Soup) Validate() error {
	for i, f := range s.Faces {
		for _, idx := range f {
			if idx < 0 || idx >= len(s.Points) {
				return errors.Errorf("face %d: point index %d out of range [0, %d)",
					i, idx, len(s.Points))
			}
		}
	}
	return nil
}

// Min gets the minimum corner of the bounding box of the points.
func (s *Soup) Min() model3d.Coord3D {
	return pointsMin(s.Points)
}

// Max gets the maximum corner of the bounding box of the points.
func (s *Soup) Max() model3d.Coord3D {
	return pointsMax(s.Points)
}

// Mesh converts the soup into a model3d mesh, triangulating polygons as fans.
//
// Faces with out-of-range indices or fewer than three points are ignored.
func (s *Soup) Mesh() *model3d.Mesh {
	res := model3d.NewMesh()
	for _, f := range s.Faces {
		if !faceInRange(f, len(s.Points)) {
			continue
		}
		for i := 1; i+1 < len(f); i++ {
			t := &model3d.Triangle{s.Points[f[0]], s.Points[f[i]], s.Points[f[i+1]]}
			res.Add(t)
		}
	}
	return res
}

func faceInRange(f []int, numPoints int) bool {
	if len(f) < 3 {
		return false
	}
	for _, idx := range f {
		if idx < 0 || idx >= numPoints {
			return false
		}
	}
	return true
}

func pointsMin(points []model3d.Coord3D) model3d.Coord3D {
	if len(points) == 0 {
		return model3d.Coord3D{}
	}
	res := points[0]
	for _, p := range points[1:] {
		res = res.Min(p)
	}
	return res
}

func pointsMax(points []model3d.Coord3D) model3d.Coord3D {
	if len(points) == 0 {
		return model3d.Coord3D{}
	}
	res := points[0]
	for _, p := range points[1:] {
		res = res.Max(p)
	}
	return res
}
