package kernel

import (
	"testing"
)

func TestSubdivideCounts(t *testing.T) {
	cube := testCube(t, 1)
	tests := []struct {
		Method   SubdivisionMethod
		Vertices int
		Faces    int
	}{
		{Loop, 8 + 18, 4 * 12},
		{Sqrt3, 8 + 12, 3 * 12},
		{CatmullClark, 8 + 18 + 12, 3 * 12},
		{DooSabin, 3 * 12, 12 + 18 + 8},
	}
	for _, test := range tests {
		res := unwrap(t, Subdivide(cube, SubdivisionOptions{Method: test.Method, Iterations: 1}))
		if res.NumVertices() != test.Vertices || res.NumFaces() != test.Faces {
			t.Errorf("%s: expected %d vertices and %d faces but got %d and %d", test.Method,
				test.Vertices, test.Faces, res.NumVertices(), res.NumFaces())
		}
		if !res.IsClosed() {
			t.Errorf("%s: result should be closed", test.Method)
		}
		if res.SignedVolume() <= 0 {
			t.Errorf("%s: orientation was not preserved", test.Method)
		}
	}
}

func TestSubdivideIterations(t *testing.T) {
	cube := testCube(t, 1)
	res := unwrap(t, Subdivide(cube, SubdivisionOptions{Method: Loop, Iterations: 2}))
	if res.NumFaces() != 12*16 {
		t.Errorf("unexpected face count: %d", res.NumFaces())
	}
	res = unwrap(t, Subdivide(cube, SubdivisionOptions{Method: Sqrt3, Iterations: 0}))
	if res.NumFaces() != 12 {
		t.Errorf("zero iterations should copy the input")
	}
}

func TestSubdivideOpen(t *testing.T) {
	grid := testGrid(t, 2)
	for _, method := range []SubdivisionMethod{Loop, Sqrt3, CatmullClark, DooSabin} {
		res := unwrap(t, Subdivide(grid, SubdivisionOptions{Method: method, Iterations: 1}))
		if res.NumFaces() <= grid.NumFaces() {
			t.Errorf("%s: face count did not grow", method)
		}
		if res.IsClosed() {
			t.Errorf("%s: open input produced a closed surface", method)
		}
	}

	quads := unwrap(t, Subdivide(testCube(t, 1), SubdivisionOptions{Method: CatmullClark, Iterations: 1}))
	if Subdivide(quads, SubdivisionOptions{Method: Loop, Iterations: 1}).Ok() {
		t.Error("loop subdivision of quads should fail")
	}
}
