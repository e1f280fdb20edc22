package kernel

import (
	"math"

	"github.com/pkg/errors"
	"github.com/unixpickle/mesh-pmp/mesh"
	"github.com/unixpickle/model3d/model3d"
)

type ShapeOptions struct {
	// TimeStep is the mean curvature flow step, typically between 1e-6
	// and 1.
	TimeStep float64

	Iterations int
}

// SmoothShape applies implicit mean curvature flow, solving
// (M + tS) x' = M x once per iteration for the lumped mass matrix M and the
// cotangent stiffness matrix S.
//
// Boundary vertices are fixed. Closed surfaces are rescaled after every
// step to keep their enclosed volume.
func SmoothShape(s *mesh.Surface, opts ShapeOptions) Result[*mesh.Surface] {
	return call("smooth shape", func() (*mesh.Surface, error) {
		if opts.TimeStep <= 0 {
			return nil, errors.Errorf("invalid time step %f", opts.TimeStep)
		}
		t, err := newTriMesh(s)
		if err != nil {
			return nil, err
		}
		closed := s.IsClosed()
		volume := s.SignedVolume()
		boundary := t.boundaryVertices()
		free := make([]bool, len(boundary))
		for i, b := range boundary {
			free[i] = !b && len(t.vertTris[i]) > 0
		}
		for i := 0; i < opts.Iterations; i++ {
			mass := t.lumpedMass()
			system := newSparseMatrix(len(t.Points)).AddScaled(opts.TimeStep, t.stiffness())
			rhs := make([]model3d.Coord3D, len(t.Points))
			for j, m := range mass {
				system.Add(j, j, m)
				rhs[j] = t.Points[j].Scale(m)
			}
			points, err := solvePinned(system, rhs, t.Points, free)
			if err != nil {
				return nil, err
			}
			t.Points = points
			if closed && volume != 0 {
				t.rescaleVolume(volume)
			}
		}
		return t.withPoints(s), nil
	})
}

// rescaleVolume scales the mesh about its centroid so that its signed volume
// matches the target.
func (t *triMesh) rescaleVolume(target float64) {
	var volume float64
	var center model3d.Coord3D
	var count int
	for idx, tri := range t.Tris {
		if tri[0] < 0 {
			continue
		}
		volume += signedVolume(t.triangle(idx))
	}
	for v, p := range t.Points {
		if len(t.vertTris[v]) > 0 {
			center = center.Add(p)
			count++
		}
	}
	if volume == 0 || count == 0 || (volume > 0) != (target > 0) {
		return
	}
	center = center.Scale(1 / float64(count))
	scale := math.Cbrt(target / volume)
	for i, p := range t.Points {
		t.Points[i] = center.Add(p.Sub(center).Scale(scale))
	}
}

func signedVolume(t *model3d.Triangle) float64 {
	return t[0].Dot(t[1].Cross(t[2])) / 6
}
