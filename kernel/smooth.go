package kernel

import (
	"math"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/mesh-pmp/mesh"
	"github.com/unixpickle/model3d/model3d"
)

// SharpEdgeAngle is the dihedral angle, in degrees, above which edges are
// held fixed by the smoothing operators.
const SharpEdgeAngle = 60.0

type SmoothOptions struct {
	Iterations int

	// UseSafetyConstraints rejects vertex moves which would shrink the
	// smallest incident angle or flip an incident triangle.
	UseSafetyConstraints bool
}

// TangentialRelaxation moves interior vertices towards the centroids of
// their neighborhoods without leaving the input surface.
func TangentialRelaxation(s *mesh.Surface, opts SmoothOptions) Result[*mesh.Surface] {
	return call("tangential relaxation", func() (*mesh.Surface, error) {
		t, err := newTriMesh(s)
		if err != nil {
			return nil, err
		}
		proj := newProjector(t)
		locked := t.featureEdges(SharpEdgeAngle * math.Pi / 180).Locked(len(t.Points))
		for i := 0; i < opts.Iterations; i++ {
			old := t.Points
			t.relaxTangentially(locked, proj)
			if opts.UseSafetyConstraints {
				t.revertUnsafe(old)
			}
		}
		return t.withPoints(s), nil
	})
}

// AngleAndAreaSmoothing improves triangle shapes by equalizing the angles
// and areas around every interior vertex. Vertices on sharp edges and on
// the boundary stay fixed.
func AngleAndAreaSmoothing(s *mesh.Surface, opts SmoothOptions) Result[*mesh.Surface] {
	return call("angle and area smoothing", func() (*mesh.Surface, error) {
		t, err := newTriMesh(s)
		if err != nil {
			return nil, err
		}
		proj := newProjector(t)
		locked := t.featureEdges(SharpEdgeAngle * math.Pi / 180).Locked(len(t.Points))
		for i := 0; i < opts.Iterations; i++ {
			old := t.Points
			t.angleAndAreaStep(locked, proj)
			if opts.UseSafetyConstraints {
				t.revertUnsafe(old)
			}
		}
		return t.withPoints(s), nil
	})
}

// withPoints copies s and replaces its coordinates with the triMesh points.
func (t *triMesh) withPoints(s *mesh.Surface) *mesh.Surface {
	res := s.Copy()
	for i, p := range t.Points {
		res.SetPoint(mesh.Vertex(i), p)
	}
	return res
}

func (t *triMesh) angleAndAreaStep(locked []bool, proj *projector) {
	boundary := t.boundaryVertices()
	newPoints := append([]model3d.Coord3D{}, t.Points...)
	essentials.ConcurrentMap(0, len(t.Points), func(v int) {
		if locked[v] || boundary[v] || len(t.vertTris[v]) == 0 {
			return
		}
		p := t.Points[v]
		angleTarget, ok := t.angleTarget(v)
		if !ok {
			return
		}
		areaTarget := t.areaTarget(v)
		target := angleTarget.Add(areaTarget).Scale(0.5)
		n := t.vertexNormal(v)
		target = target.Sub(n.Scale(n.Dot(target.Sub(p))))
		newPoints[v] = proj.Project(target)
	})
	t.Points = newPoints
}

// angleTarget averages, over every neighbor, the position which puts v on
// the bisector of that neighbor's angle within the one-ring.
func (t *triMesh) angleTarget(v int) (model3d.Coord3D, bool) {
	prev := map[int]int{}
	next := map[int]int{}
	for _, idx := range t.vertTris[v] {
		tri := rotateTo(t.Tris[idx], v)
		next[tri[1]] = tri[2]
		prev[tri[2]] = tri[1]
	}
	p := t.Points[v]
	var sum model3d.Coord3D
	var count int
	for n, after := range next {
		before, ok := prev[n]
		if !ok {
			return model3d.Coord3D{}, false
		}
		center := t.Points[n]
		u1 := t.Points[before].Sub(center).Normalize()
		u2 := t.Points[after].Sub(center).Normalize()
		bisector := u1.Add(u2)
		if bisector.Norm() < 1e-8 {
			continue
		}
		sum = sum.Add(center.Add(bisector.Normalize().Scale(p.Dist(center))))
		count++
	}
	if count == 0 {
		return model3d.Coord3D{}, false
	}
	return sum.Scale(1 / float64(count)), true
}

// areaTarget is the area-weighted mean of the incident triangle centroids.
func (t *triMesh) areaTarget(v int) model3d.Coord3D {
	var sum model3d.Coord3D
	var weight float64
	for _, idx := range t.vertTris[v] {
		tri := t.triangle(idx)
		area := tri.Area()
		sum = sum.Add(tri[0].Add(tri[1]).Add(tri[2]).Scale(area / 3))
		weight += area
	}
	if weight == 0 {
		return t.Points[v]
	}
	return sum.Scale(1 / weight)
}

// revertUnsafe restores vertices whose move reduced their minimum incident
// angle or flipped an incident triangle.
func (t *triMesh) revertUnsafe(old []model3d.Coord3D) {
	current := t.Points
	result := append([]model3d.Coord3D{}, current...)
	for v := range current {
		if current[v] == old[v] {
			continue
		}
		t.Points = old
		beforeAngle := t.minAngle(v)
		beforeNormals := make([]model3d.Coord3D, len(t.vertTris[v]))
		for i, idx := range t.vertTris[v] {
			beforeNormals[i] = t.triNormal(idx)
		}
		t.Points = current
		unsafe := t.minAngle(v) < beforeAngle
		for i, idx := range t.vertTris[v] {
			if t.triNormal(idx).Dot(beforeNormals[i]) <= 0 {
				unsafe = true
			}
		}
		if unsafe {
			result[v] = old[v]
		}
	}
	t.Points = result
}

func (t *triMesh) minAngle(v int) float64 {
	res := math.Inf(1)
	for _, idx := range t.vertTris[v] {
		tri := t.triangle(idx)
		for i := 0; i < 3; i++ {
			res = math.Min(res, vertexAngle(tri[i], tri[(i+1)%3], tri[(i+2)%3]))
		}
	}
	return res
}
