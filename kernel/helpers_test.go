package kernel

import (
	"testing"

	"github.com/unixpickle/mesh-pmp/mesh"
	"github.com/unixpickle/model3d/model3d"
)

func testCube(t *testing.T, halfExtent float64) *mesh.Surface {
	s := &mesh.Soup{}
	for i := 0; i < 8; i++ {
		offset := model3d.XYZ(-1, -1, -1)
		if i&1 != 0 {
			offset.X = 1
		}
		if i&2 != 0 {
			offset.Y = 1
		}
		if i&4 != 0 {
			offset.Z = 1
		}
		s.Points = append(s.Points, offset.Scale(halfExtent))
	}
	s.Faces = [][]int{
		{0, 2, 3}, {0, 3, 1},
		{4, 5, 7}, {4, 7, 6},
		{0, 1, 5}, {0, 5, 4},
		{2, 6, 7}, {2, 7, 3},
		{0, 4, 6}, {0, 6, 2},
		{1, 3, 7}, {1, 7, 5},
	}
	return testSurface(t, s)
}

func testSphere(t *testing.T, radius float64, n int) *mesh.Surface {
	return testSurface(t, mesh.SoupFromMesh(model3d.NewMeshIcosphere(model3d.Origin, radius, n)))
}

// testGrid creates a flat (n+1) by (n+1) vertex grid spanning [0, n] in the
// XY plane. Vertex (x, y) has index y*(n+1)+x.
func testGrid(t *testing.T, n int) *mesh.Surface {
	s := &mesh.Soup{}
	for y := 0; y <= n; y++ {
		for x := 0; x <= n; x++ {
			s.Points = append(s.Points, model3d.XY(float64(x), float64(y)))
		}
	}
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			v := y*(n+1) + x
			s.Faces = append(s.Faces, []int{v, v + 1, v + n + 2}, []int{v, v + n + 2, v + n + 1})
		}
	}
	return testSurface(t, s)
}

func testSurface(t *testing.T, s *mesh.Soup) *mesh.Surface {
	surf, failed := mesh.SurfaceFromSoup(s)
	if len(failed) != 0 {
		t.Fatalf("failed to build test surface: %v", failed)
	}
	return surf
}

func unwrap[T any](t *testing.T, r Result[T]) T {
	value, err := r.Unpack()
	if err != nil {
		t.Fatal(err)
	}
	return value
}
