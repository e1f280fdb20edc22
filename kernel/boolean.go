package kernel

import (
	"github.com/pkg/errors"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/mesh-pmp/mesh"
	"github.com/unixpickle/model3d/model3d"
)

// ErrNotVolume is returned when a boolean operand does not bound a volume.
var ErrNotVolume = errors.New("operand does not bound a volume")

type BooleanOp int

const (
	Difference BooleanOp = iota
	Intersection
	Union
)

func (b BooleanOp) String() string {
	switch b {
	case Difference:
		return "difference"
	case Intersection:
		return "intersection"
	case Union:
		return "union"
	}
	return "unknown"
}

// Boolean combines two closed surfaces into a new surface.
//
// Operands are oriented to bound a volume first. When their boundaries do
// not intersect, the result is assembled exactly from the operands' faces.
// Otherwise the combined volume is polygonized with the given resolution,
// where zero selects DefaultResolution.
func Boolean(a, b *mesh.Surface, op BooleanOp, resolution int) Result[*mesh.Surface] {
	return call("boolean "+op.String(), func() (*mesh.Surface, error) {
		if op < Difference || op > Union {
			return nil, errors.Errorf("unknown boolean operation %d", op)
		}
		orientedA, ok := a.OrientToBoundVolume()
		if !ok {
			return nil, errors.Wrap(ErrNotVolume, "first operand")
		}
		orientedB, ok := b.OrientToBoundVolume()
		if !ok {
			return nil, errors.Wrap(ErrNotVolume, "second operand")
		}
		if !mesh.SurfacesIntersect(orientedA, orientedB) {
			return disjointBoolean(orientedA, orientedB, op)
		}
		return volumetricBoolean(orientedA, orientedB, op, resolution)
	})
}

// disjointBoolean keeps or drops whole components of each operand depending
// on whether they lie inside the other operand.
func disjointBoolean(a, b *mesh.Surface, op BooleanOp) (*mesh.Surface, error) {
	insideA := componentsInside(a, b)
	insideB := componentsInside(b, a)
	keepA := func(inside bool) bool { return inside == (op == Intersection) }
	keepB := func(inside bool) bool {
		if op == Difference {
			return inside
		}
		return inside == (op == Intersection)
	}

	res := &mesh.Soup{}
	appendFaces := func(s *mesh.Surface, inside []bool, keep func(bool) bool, reverse bool) {
		labels, _ := s.FaceComponents()
		offset := len(res.Points)
		res.Points = append(res.Points, s.Points()...)
		for i := 0; i < s.NumFaces(); i++ {
			if !keep(inside[labels[i]]) {
				continue
			}
			vs := s.FaceVertices(mesh.Face(i))
			face := make([]int, len(vs))
			for j, v := range vs {
				if reverse {
					face[len(vs)-1-j] = int(v) + offset
				} else {
					face[j] = int(v) + offset
				}
			}
			res.Faces = append(res.Faces, face)
		}
	}
	appendFaces(a, insideA, keepA, false)
	appendFaces(b, insideB, keepB, op == Difference)

	surf, failed := mesh.SurfaceFromSoup(dropUnused(res))
	if len(failed) > 0 {
		return nil, ErrNonManifold
	}
	return surf, nil
}

// componentsInside checks, for each component of s, whether it lies inside
// the volume bounded by other.
func componentsInside(s, other *mesh.Surface) []bool {
	labels, count := s.FaceComponents()
	probes := make([]model3d.Coord3D, count)
	found := make([]bool, count)
	for i, label := range labels {
		if found[label] {
			continue
		}
		ps := s.FacePoints(mesh.Face(i))
		var sum model3d.Coord3D
		for _, p := range ps {
			sum = sum.Add(p)
		}
		probes[label] = sum.Scale(1 / float64(len(ps)))
		found[label] = true
	}
	collider := model3d.MeshToCollider(other.Mesh())
	res := make([]bool, count)
	essentials.ConcurrentMap(0, count, func(i int) {
		res[i] = mesh.ParityContains(collider, probes[i])
	})
	return res
}

func dropUnused(s *mesh.Soup) *mesh.Soup {
	mapping := make([]int, len(s.Points))
	for i := range mapping {
		mapping[i] = -1
	}
	res := &mesh.Soup{}
	for _, f := range s.Faces {
		face := make([]int, len(f))
		for i, idx := range f {
			if mapping[idx] < 0 {
				mapping[idx] = len(res.Points)
				res.Points = append(res.Points, s.Points[idx])
			}
			face[i] = mapping[idx]
		}
		res.Faces = append(res.Faces, face)
	}
	return res
}

func volumetricBoolean(a, b *mesh.Surface, op BooleanOp, resolution int) (*mesh.Surface, error) {
	min, max := a.Min(), a.Max()
	switch op {
	case Union:
		min, max = min.Min(b.Min()), max.Max(b.Max())
	case Intersection:
		min, max = min.Max(b.Min()), max.Min(b.Max())
		if min.X >= max.X || min.Y >= max.Y || min.Z >= max.Z {
			return mesh.NewSurface(), nil
		}
	}
	delta := gridDelta(min, max, resolution)
	solidA := NewWindingSolid(a.Mesh(), 2*delta)
	solidB := NewWindingSolid(b.Mesh(), 2*delta)
	pad := model3d.XYZ(2*delta, 2*delta, 2*delta)
	solid := model3d.CheckedFuncSolid(min.Sub(pad), max.Add(pad), func(c model3d.Coord3D) bool {
		switch op {
		case Union:
			return solidA.Contains(c) || solidB.Contains(c)
		case Intersection:
			return solidA.Contains(c) && solidB.Contains(c)
		default:
			return solidA.Contains(c) && !solidB.Contains(c)
		}
	})
	return extractSurface(solid, delta)
}
