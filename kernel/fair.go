package kernel

import (
	"github.com/pkg/errors"
	"github.com/unixpickle/mesh-pmp/mesh"
)

// Fair moves the given vertices to minimize a curvature energy while every
// other vertex stays fixed. A continuity of 0, 1, or 2 yields a membrane,
// thin-plate, or minimum-variation surface respectively.
func Fair(s *mesh.Surface, vertices []mesh.Vertex, continuity int) Result[*mesh.Surface] {
	return call("fair", func() (*mesh.Surface, error) {
		if continuity < 0 || continuity > 2 {
			return nil, errors.Errorf("unsupported continuity %d", continuity)
		}
		t, err := newTriMesh(s)
		if err != nil {
			return nil, err
		}
		free := make([]bool, len(t.Points))
		var numFree int
		for _, v := range vertices {
			if int(v) < 0 || int(v) >= len(free) {
				return nil, errors.Errorf("vertex %d out of range", v)
			}
			if !free[v] {
				free[v] = true
				numFree++
			}
		}
		if numFree == len(free) {
			return nil, errors.Wrap(ErrDegenerate, "no fixed vertices")
		}
		if err := t.fair(free, continuity); err != nil {
			return nil, err
		}
		res := s.Copy()
		for i, p := range t.Points {
			res.SetPoint(mesh.Vertex(i), p)
		}
		return res, nil
	})
}

func (t *triMesh) fair(free []bool, continuity int) error {
	op := t.polyharmonic(continuity + 1)
	points, err := solvePinned(op, nil, t.Points, free)
	if err != nil {
		return err
	}
	t.Points = points
	return nil
}
