package host

import (
	"testing"

	"github.com/unixpickle/mesh-pmp/mesh"
	"github.com/unixpickle/model3d/model3d"
)

func TestRoundTrip(t *testing.T) {
	pd := FromSoup(mesh.SoupFromMesh(model3d.NewMeshIcosphere(model3d.Origin, 1, 2)))
	surf, promotion := ToSurface(pd)
	if !promotion.OK() || !promotion.Consistent {
		t.Fatalf("promotion failed: %v", promotion.Failed)
	}

	out := FromSurface(surf)
	surf2, promotion2 := ToSurface(out)
	if !promotion2.OK() {
		t.Fatalf("second promotion failed: %v", promotion2.Failed)
	}
	if surf2.NumVertices() != surf.NumVertices() || surf2.NumFaces() != surf.NumFaces() {
		t.Fatalf("counts changed: %d/%d -> %d/%d", surf.NumVertices(), surf.NumFaces(),
			surf2.NumVertices(), surf2.NumFaces())
	}

	expected := faceTriples(pd)
	actual := faceTriples(FromSurface(surf2))
	if len(expected) != len(actual) {
		t.Fatalf("expected %d distinct faces but got %d", len(expected), len(actual))
	}
	for k := range expected {
		if !actual[k] {
			t.Fatalf("missing face %v", k)
		}
	}
}

// faceTriples identifies each triangle by its corner coordinates, rotated
// so that the smallest corner comes first.
func faceTriples(pd *PolyData) map[[3]model3d.Coord3D]bool {
	res := map[[3]model3d.Coord3D]bool{}
	less := func(a, b model3d.Coord3D) bool {
		if a.X != b.X {
			return a.X < b.X
		} else if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	}
	for _, poly := range pd.Polys {
		var tri [3]model3d.Coord3D
		for i, idx := range poly {
			tri[i] = pd.Points[idx]
		}
		for less(tri[1], tri[0]) || less(tri[2], tri[0]) {
			tri = [3]model3d.Coord3D{tri[1], tri[2], tri[0]}
		}
		res[tri] = true
	}
	return res
}

func TestPartialPromotion(t *testing.T) {
	pd := testCubeData()
	pd.Points = append(pd.Points, model3d.XYZ(-1, 0, -3))
	pd.Polys = append(pd.Polys, []int{0, 2, 8})

	surf, promotion := ToSurface(pd)
	if promotion.OK() {
		t.Fatal("expected aggregate promotion failure")
	}
	if len(promotion.Failed) != 1 || promotion.Failed[0] != 12 {
		t.Fatalf("unexpected failed faces: %v", promotion.Failed)
	}
	if surf.NumFaces() != 12 {
		t.Fatalf("expected 12 faces but got %d", surf.NumFaces())
	}
	if surf.NumVertices() != 9 {
		t.Fatalf("expected 9 vertices but got %d", surf.NumVertices())
	}
	out := FromSurface(surf)
	if len(out.Points) != 9 || out.Points[8] != pd.Points[8] {
		t.Fatal("non-manifold face's vertex was dropped")
	}
	if !surf.IsClosed() {
		t.Error("valid faces should form a closed surface")
	}
}

func TestToSoupVerbatim(t *testing.T) {
	pd := testCubeData()
	pd.Polys = append(pd.Polys, []int{0, 0, 1}, []int{7})
	soup := ToSoup(pd)
	if len(soup.Faces) != len(pd.Polys) || len(soup.Points) != len(pd.Points) {
		t.Fatal("soup should copy every cell and point")
	}
	soup.Faces[0][0] = 5
	if pd.Polys[0][0] == 5 {
		t.Fatal("soup should not alias the dataset")
	}
	back := FromSoup(soup)
	for i, p := range back.Points {
		if p != pd.Points[i] {
			t.Fatalf("point %d changed", i)
		}
	}
}

func testCubeData() *PolyData {
	pd := &PolyData{}
	for i := 0; i < 8; i++ {
		c := model3d.XYZ(-1, -1, -1)
		if i&1 != 0 {
			c.X = 1
		}
		if i&2 != 0 {
			c.Y = 1
		}
		if i&4 != 0 {
			c.Z = 1
		}
		pd.Points = append(pd.Points, c)
	}
	pd.Polys = [][]int{
		{0, 2, 3}, {0, 3, 1},
		{4, 5, 7}, {4, 7, 6},
		{0, 1, 5}, {0, 5, 4},
		{2, 6, 7}, {2, 7, 3},
		{0, 4, 6}, {0, 6, 2},
		{1, 3, 7}, {1, 7, 5},
	}
	return pd
}
