package kernel

import (
	"math"
	"testing"

	"github.com/unixpickle/mesh-pmp/mesh"
	"github.com/unixpickle/model3d/model3d"
)

func TestFairFlattens(t *testing.T) {
	grid := testGrid(t, 4)
	center := mesh.Vertex(2*5 + 2)
	grid.SetPoint(center, grid.Point(center).Add(model3d.Z(1)))
	for continuity := 0; continuity <= 2; continuity++ {
		res := unwrap(t, Fair(grid, []mesh.Vertex{center}, continuity))
		if z := res.Point(center).Z; math.Abs(z) > 1e-6 {
			t.Errorf("continuity %d: center should flatten but has z=%f", continuity, z)
		}
		if grid.Point(center).Z != 1 {
			t.Fatal("input was modified")
		}
	}
}

func TestFairFixedVertices(t *testing.T) {
	grid := testGrid(t, 4)
	var selected []mesh.Vertex
	for y := 1; y < 4; y++ {
		for x := 1; x < 4; x++ {
			v := mesh.Vertex(y*5 + x)
			grid.SetPoint(v, grid.Point(v).Add(model3d.Z(0.5)))
			selected = append(selected, v)
		}
	}
	res := unwrap(t, Fair(grid, selected, 1))
	for i := 0; i < res.NumVertices(); i++ {
		v := mesh.Vertex(i)
		if res.IsBoundaryVertex(v) && res.Point(v) != grid.Point(v) {
			t.Errorf("fixed vertex %d moved", i)
		}
	}
	if Fair(grid, []mesh.Vertex{100}, 1).Ok() {
		t.Error("expected failure for out of range vertex")
	}
}
