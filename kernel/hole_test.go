package kernel

import (
	"math"
	"testing"

	"github.com/unixpickle/mesh-pmp/mesh"
	"github.com/unixpickle/model3d/model3d"
)

func TestFillHolesCube(t *testing.T) {
	cube := testCube(t, 1).Soup()
	cube.Faces = cube.Faces[2:]
	open := testSurface(t, cube)
	if open.IsClosed() {
		t.Fatal("test surface should be open")
	}
	for _, refine := range []bool{false, true} {
		res := unwrap(t, FillHoles(open, HoleOptions{Continuity: 1, NoRefine: !refine}))
		if res.Cycles != 1 || !res.Complete() {
			t.Fatalf("refine=%v: filled %d of %d cycles", refine, res.Filled, res.Cycles)
		}
		if !res.Surface.IsClosed() {
			t.Fatalf("refine=%v: result should be closed", refine)
		}
		if !res.Surface.IsTriangleMesh() {
			t.Errorf("refine=%v: result should be a triangle mesh", refine)
		}
		if v := res.Surface.SignedVolume(); math.Abs(v) < 4 {
			t.Errorf("refine=%v: unexpected volume %f", refine, v)
		}
	}
	if open.IsClosed() {
		t.Error("input was modified")
	}
}

func TestFillHolesGrid(t *testing.T) {
	grid := testGrid(t, 3)
	res := unwrap(t, FillHoles(grid, HoleOptions{Continuity: 0}))
	if !res.Complete() || !res.Surface.IsClosed() {
		t.Fatal("flat grid should be closed by its fill")
	}
	for i := grid.NumVertices(); i < res.Surface.NumVertices(); i++ {
		if z := res.Surface.Point(mesh.Vertex(i)).Z; math.Abs(z) > 1e-5 {
			t.Errorf("new vertex %d left the plane: z=%f", i, z)
		}
	}
}

func TestTriangulateRefineFairHole(t *testing.T) {
	grid := testGrid(t, 2)
	if TriangulateRefineFairHole(grid, 0, 3).Ok() {
		t.Error("expected failure for bad continuity")
	}
	cycles := grid.BoundaryCycles()
	if len(cycles) != 1 {
		t.Fatalf("expected one boundary cycle, got %d", len(cycles))
	}
	res := unwrap(t, TriangulateRefineFairHole(grid, cycles[0], 2))
	if !res.IsClosed() {
		t.Error("result should be closed")
	}
}

func TestLiepaTriangulateExistingEdges(t *testing.T) {
	square := []model3d.Coord3D{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
	}
	adjacent := make([]*model3d.Coord3D, len(square))

	tris := liepaTriangulate(square, adjacent, edgeSet{newEdge(0, 2): true})
	if len(tris) != 2 {
		t.Fatalf("expected 2 triangles, got %d", len(tris))
	}
	for _, tri := range tris {
		if (tri[0] == 0 || tri[1] == 0 || tri[2] == 0) &&
			(tri[0] == 2 || tri[1] == 2 || tri[2] == 2) {
			t.Errorf("triangle %v uses the existing edge (0, 2)", tri)
		}
	}

	both := edgeSet{newEdge(0, 2): true, newEdge(1, 3): true}
	if tris := liepaTriangulate(square, adjacent, both); tris != nil {
		t.Errorf("expected no triangulation, got %v", tris)
	}
}
