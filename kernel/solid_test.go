package kernel

import (
	"testing"

	"github.com/unixpickle/mesh-pmp/mesh"
	"github.com/unixpickle/model3d/model3d"
)

func TestWindingSolid(t *testing.T) {
	cube := testCube(t, 1)
	solid := NewWindingSolid(cube.Mesh(), 0.1)
	if !solid.Contains(model3d.XYZ(0.1, 0.2, 0.3)) {
		t.Error("center should be inside")
	}
	if solid.Contains(model3d.XYZ(1.05, 0, 0)) {
		t.Error("point outside the cube should not be contained")
	}
	if w := solid.Winding(model3d.Origin); w != 1 {
		t.Errorf("unexpected winding number: %d", w)
	}

	reversed, _ := cube.ReverseFaces(func(mesh.Face) bool { return true })
	if w := NewWindingSolid(reversed.Mesh(), 0).Winding(model3d.Origin); w != -1 {
		t.Errorf("unexpected reversed winding number: %d", w)
	}
}

func TestRemoveSelfIntersections(t *testing.T) {
	a := testCube(t, 1).Soup()
	b := testCube(t, 1).Soup()
	for i, p := range b.Points {
		b.Points[i] = p.Add(model3d.XYZ(1, 0.5, 0.25))
	}
	offset := len(a.Points)
	a.Points = append(a.Points, b.Points...)
	for _, f := range b.Faces {
		a.Faces = append(a.Faces, []int{f[0] + offset, f[1] + offset, f[2] + offset})
	}
	overlapping := testSurface(t, a)
	if !overlapping.SelfIntersects() {
		t.Fatal("test surface should self-intersect")
	}
	res := unwrap(t, RemoveSelfIntersections(overlapping, 24))
	if !res.IsClosed() {
		t.Error("result should be closed")
	}
	if res.SelfIntersects() {
		t.Error("result should not self-intersect")
	}
	if v := res.SignedVolume(); v < 8 || v > 16 {
		t.Errorf("unexpected volume: %f", v)
	}
}
