package mesh

import (
	"math"
	"testing"

	"github.com/unixpickle/model3d/model3d"
)

func TestSurfaceFromSoupCube(t *testing.T) {
	surf, failed := SurfaceFromSoup(testCube(model3d.Origin, 1))
	if len(failed) != 0 {
		t.Fatalf("unexpected failed faces: %v", failed)
	}
	if surf.NumVertices() != 8 || surf.NumFaces() != 12 || surf.NumEdges() != 18 {
		t.Fatalf("unexpected counts: v=%d f=%d e=%d", surf.NumVertices(), surf.NumFaces(),
			surf.NumEdges())
	}
	if !surf.IsClosed() {
		t.Fatal("cube should be closed")
	}
	if !surf.IsTriangleMesh() {
		t.Fatal("cube should be a triangle mesh")
	}
	if v := surf.SignedVolume(); math.Abs(v-8) > 1e-8 {
		t.Errorf("unexpected volume: %f", v)
	}
	for v := 0; v < surf.NumVertices(); v++ {
		if n := surf.Valence(Vertex(v)); n < 3 {
			t.Errorf("vertex %d has valence %d", v, n)
		}
	}
}

func TestSurfaceFaceOrder(t *testing.T) {
	soup := testCube(model3d.Origin, 1)
	reversed := soup.Copy()
	for i, j := 0, len(reversed.Faces)-1; i < j; i, j = i+1, j-1 {
		reversed.Faces[i], reversed.Faces[j] = reversed.Faces[j], reversed.Faces[i]
	}
	// Opposite faces first creates disconnected patches which must be relinked
	// once the faces between them arrive.
	interleaved := &Soup{Points: soup.Points}
	for _, i := range []int{0, 2, 1, 3, 4, 6, 5, 7, 8, 10, 9, 11} {
		interleaved.Faces = append(interleaved.Faces, soup.Faces[i])
	}
	for name, s := range map[string]*Soup{"reversed": reversed, "interleaved": interleaved} {
		surf, failed := SurfaceFromSoup(s)
		if len(failed) != 0 {
			t.Errorf("%s: failed faces %v", name, failed)
			continue
		}
		if !surf.IsClosed() {
			t.Errorf("%s: surface should be closed", name)
		}
		for f := 0; f < surf.NumFaces(); f++ {
			expected := s.Faces[f]
			actual := surf.FaceVertices(Face(f))
			for i, v := range actual {
				if int(v) != expected[i] {
					t.Errorf("%s: face %d has vertices %v, expected %v", name, f, actual, expected)
					break
				}
			}
		}
	}
}

func TestAddFaceComplexEdge(t *testing.T) {
	surf := NewSurface()
	for _, p := range []model3d.Coord3D{
		model3d.XYZ(0, 0, 0),
		model3d.XYZ(1, 0, 0),
		model3d.XYZ(0, 1, 0),
		model3d.XYZ(0, -1, 0),
		model3d.XYZ(0, 0, 1),
	} {
		surf.AddVertex(p)
	}
	if _, err := surf.AddFace(0, 1, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := surf.AddFace(1, 0, 3); err != nil {
		t.Fatal(err)
	}
	if _, err := surf.AddFace(0, 1, 4); err != ErrComplexEdge {
		t.Fatalf("expected complex edge, got %v", err)
	}
	if _, err := surf.AddFace(1, 1, 4); err != ErrDegenerateFace {
		t.Fatalf("expected degenerate face, got %v", err)
	}
	if surf.NumFaces() != 2 {
		t.Fatalf("expected 2 faces, got %d", surf.NumFaces())
	}
}

func TestAddFaceComplexVertex(t *testing.T) {
	soup := testCube(model3d.Origin, 1)
	surf, _ := SurfaceFromSoup(soup)
	extra := surf.AddVertex(model3d.XYZ(3, 3, 3))
	extra2 := surf.AddVertex(model3d.XYZ(3, 4, 3))
	if _, err := surf.AddFace(0, extra, extra2); err != ErrComplexVertex {
		t.Fatalf("expected complex vertex, got %v", err)
	}
}

func TestBoundaryCycles(t *testing.T) {
	soup := testCube(model3d.Origin, 1)
	soup.Faces = append(soup.Faces[:2], soup.Faces[4:]...)
	surf, failed := SurfaceFromSoup(soup)
	if len(failed) != 0 {
		t.Fatalf("unexpected failures: %v", failed)
	}
	if surf.IsClosed() {
		t.Fatal("surface should not be closed")
	}
	cycles := surf.BoundaryCycles()
	if len(cycles) != 1 {
		t.Fatalf("expected 1 cycle, got %d", len(cycles))
	}
	loop := surf.BoundaryLoop(cycles[0])
	if len(loop) != 4 {
		t.Fatalf("expected loop of 4 halfedges, got %d", len(loop))
	}
	for i, h := range loop {
		if !surf.IsBoundary(h) {
			t.Errorf("halfedge %d is not a boundary halfedge", h)
		}
		next := loop[(i+1)%len(loop)]
		if surf.Target(h) != surf.Source(next) {
			t.Errorf("loop is not connected at %d", i)
		}
		if !surf.IsBoundaryVertex(surf.Target(h)) {
			t.Errorf("vertex %d should be on the boundary", surf.Target(h))
		}
	}
}

func TestSoupRoundTrip(t *testing.T) {
	soup := SoupFromMesh(model3d.NewMeshIcosphere(model3d.Origin, 1, 2))
	surf, failed := SurfaceFromSoup(soup)
	if len(failed) != 0 {
		t.Fatalf("unexpected failures: %v", failed)
	}
	out := surf.Soup()
	if len(out.Points) != len(soup.Points) || len(out.Faces) != len(soup.Faces) {
		t.Fatal("counts changed")
	}
	for i, f := range out.Faces {
		for j, idx := range f {
			if idx != soup.Faces[i][j] {
				t.Fatalf("face %d changed: %v -> %v", i, soup.Faces[i], f)
			}
		}
	}
}

func testCube(center model3d.Coord3D, halfExtent float64) *Soup {
	s := &Soup{}
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
		s.Points = append(s.Points, center.Add(offset.Scale(halfExtent)))
	}
	s.Faces = [][]int{
		{0, 2, 3}, {0, 3, 1},
		{4, 5, 7}, {4, 7, 6},
		{0, 1, 5}, {0, 5, 4},
		{2, 6, 7}, {2, 7, 3},
		{0, 4, 6}, {0, 6, 2},
		{1, 3, 7}, {1, 7, 5},
	}
	return s
}
