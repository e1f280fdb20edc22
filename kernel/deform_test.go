package kernel

import (
	"math"
	"testing"

	"github.com/unixpickle/mesh-pmp/mesh"
	"github.com/unixpickle/model3d/model3d"
)

func TestDeformRegionOfInterest(t *testing.T) {
	const n = 6
	grid := testGrid(t, n)
	index := func(x, y int) mesh.Vertex {
		return mesh.Vertex(y*(n+1) + x)
	}
	var roi []mesh.Vertex
	for y := 1; y < n; y++ {
		for x := 1; x < n; x++ {
			roi = append(roi, index(x, y))
		}
	}
	controls := map[mesh.Vertex]model3d.Coord3D{}
	for _, v := range []mesh.Vertex{index(3, 2), index(3, 4)} {
		controls[v] = grid.Point(v).Add(model3d.XYZ(-0.2, 0, 0))
	}

	for _, mode := range []DeformMode{DeformSmooth, DeformSREARAP} {
		opts := DeformOptions{Mode: mode, Alpha: 0.02, Iterations: 5, Tolerance: 1e-4}
		res := unwrap(t, Deform(grid, roi, controls, opts))
		inROI := map[mesh.Vertex]bool{}
		for _, v := range roi {
			inROI[v] = true
		}
		for i := 0; i < res.NumVertices(); i++ {
			v := mesh.Vertex(i)
			if !inROI[v] && res.Point(v) != grid.Point(v) {
				t.Errorf("%s: vertex %d outside the region moved", mode, i)
			}
		}
		for v, target := range controls {
			if res.Point(v).Dist(target) > 1e-8 {
				t.Errorf("%s: control %d at %v instead of %v", mode, v, res.Point(v), target)
			}
		}
		between := res.Point(index(3, 3))
		if between.X >= 3 || math.Abs(between.Z) > 1e-5 {
			t.Errorf("%s: vertex between controls did not follow: %v", mode, between)
		}
	}
}

func TestDeformErrors(t *testing.T) {
	grid := testGrid(t, 2)
	if Deform(grid, []mesh.Vertex{4}, nil, DeformOptions{}).Ok() {
		t.Error("expected failure without controls")
	}
	controls := map[mesh.Vertex]model3d.Coord3D{50: {}}
	if Deform(grid, []mesh.Vertex{4}, controls, DeformOptions{}).Ok() {
		t.Error("expected failure for out of range control")
	}
}
