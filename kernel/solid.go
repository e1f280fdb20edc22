package kernel

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/unixpickle/mesh-pmp/mesh"
	"github.com/unixpickle/model3d/model3d"
)

// DefaultResolution is the number of marching cubes cells along the longest
// side of a volume when no resolution is given.
const DefaultResolution = 64

var windingDirections = []model3d.Coord3D{
	mesh.ProbeDirection,
	model3d.XYZ(-0.3102, 0.8771, -0.3667).Normalize(),
	model3d.XYZ(0.7413, -0.4492, -0.4988).Normalize(),
}

// A WindingSolid is a model3d.Solid containing the points with a positive
// winding number with respect to a triangle mesh. Unlike parity tests, it
// gives a sensible interior for self-intersecting and overlapping surfaces.
type WindingSolid struct {
	mesh     *model3d.Mesh
	min, max model3d.Coord3D

	lock     sync.RWMutex
	collider model3d.Collider
}

// NewWindingSolid creates a solid whose bounds are the mesh bounds expanded
// by pad on every side.
func NewWindingSolid(m *model3d.Mesh, pad float64) *WindingSolid {
	p := model3d.XYZ(pad, pad, pad)
	return &WindingSolid{
		mesh: m,
		min:  m.Min().Sub(p),
		max:  m.Max().Add(p),
	}
}

func (w *WindingSolid) Min() model3d.Coord3D {
	return w.min
}

func (w *WindingSolid) Max() model3d.Coord3D {
	return w.max
}

func (w *WindingSolid) Contains(c model3d.Coord3D) bool {
	if !model3d.InBounds(w, c) {
		return false
	}
	var votes int
	for _, d := range windingDirections {
		if w.windingAlong(c, d) > 0 {
			votes++
		}
	}
	return votes*2 > len(windingDirections)
}

// Winding computes the winding number of the surface around c.
func (w *WindingSolid) Winding(c model3d.Coord3D) int {
	return w.windingAlong(c, windingDirections[0])
}

func (w *WindingSolid) windingAlong(c, direction model3d.Coord3D) int {
	var winding int
	w.getCollider().RayCollisions(&model3d.Ray{Origin: c, Direction: direction},
		func(rc model3d.RayCollision) {
			if rc.Normal.Dot(direction) > 0 {
				winding++
			} else {
				winding--
			}
		})
	return winding
}

func (w *WindingSolid) getCollider() model3d.Collider {
	w.lock.RLock()
	collider := w.collider
	w.lock.RUnlock()
	if collider != nil {
		return collider
	}
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.collider == nil {
		w.collider = model3d.MeshToCollider(w.mesh)
	}
	return w.collider
}

// RemoveSelfIntersections re-extracts the interior of a surface with
// positive winding number, which removes self-intersections and may change
// the genus. The resolution is the number of grid cells along the longest
// side of the bounding box; zero selects DefaultResolution.
func RemoveSelfIntersections(s *mesh.Surface, resolution int) Result[*mesh.Surface] {
	return call("remove self intersections", func() (*mesh.Surface, error) {
		if s.NumFaces() == 0 {
			return nil, errors.Wrap(ErrDegenerate, "empty surface")
		}
		delta := gridDelta(s.Min(), s.Max(), resolution)
		solid := NewWindingSolid(s.Mesh(), 2*delta)
		return extractSurface(solid, delta)
	})
}

func gridDelta(min, max model3d.Coord3D, resolution int) float64 {
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	size := max.Sub(min)
	longest := size.X
	if size.Y > longest {
		longest = size.Y
	}
	if size.Z > longest {
		longest = size.Z
	}
	if longest == 0 {
		longest = 1
	}
	return longest / float64(resolution)
}

// extractSurface polygonizes a solid and converts the result into a
// surface.
func extractSurface(solid model3d.Solid, delta float64) (*mesh.Surface, error) {
	m := model3d.MarchingCubesSearch(solid, delta, 8)
	surf, failed := mesh.SurfaceFromSoup(mesh.SoupFromMesh(m))
	if len(failed) > 0 {
		return nil, errors.Wrapf(ErrNonManifold, "%d faces from marching cubes", len(failed))
	}
	return surf, nil
}
