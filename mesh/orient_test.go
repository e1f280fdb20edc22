package mesh

import (
	"testing"

	"github.com/unixpickle/model3d/model3d"
)

func TestOrientFaces(t *testing.T) {
	soup := testCube(model3d.Origin, 1)
	broken := soup.Copy()
	for _, i := range []int{1, 4, 7, 11} {
		reverseInts(broken.Faces[i])
	}
	if _, failed := SurfaceFromSoup(broken); len(failed) == 0 {
		t.Fatal("inconsistent soup should not fully promote")
	}
	faces, ok := OrientFaces(broken.Faces)
	if !ok {
		t.Fatal("orientation should be consistent")
	}
	for i, f := range faces {
		for j, idx := range f {
			if idx != soup.Faces[i][j] {
				t.Fatalf("face %d: expected %v but got %v", i, soup.Faces[i], f)
			}
		}
	}
	// The input must not be modified.
	if broken.Faces[1][0] == soup.Faces[1][0] {
		t.Error("input faces were modified")
	}
}

func TestOrientSoupBowtie(t *testing.T) {
	soup := &Soup{
		Points: []model3d.Coord3D{
			model3d.XYZ(0, 0, 0),
			model3d.XYZ(1, 0, 0),
			model3d.XYZ(1, 1, 0),
			model3d.XYZ(-1, 0, 0),
			model3d.XYZ(-1, -1, 0),
		},
		Faces: [][]int{{0, 1, 2}, {0, 3, 4}},
	}
	if IsPolygonMesh(soup) {
		t.Fatal("bowtie should not be a polygon mesh")
	}
	oriented, clean := OrientSoup(soup)
	if clean {
		t.Error("expected a duplicated point")
	}
	if len(oriented.Points) != 6 {
		t.Fatalf("expected 6 points, got %d", len(oriented.Points))
	}
	if oriented.Points[5] != soup.Points[0] {
		t.Error("duplicated point has the wrong position")
	}
	if !IsPolygonMesh(oriented) {
		t.Error("oriented soup should be a polygon mesh")
	}
}

func TestIsPolygonMesh(t *testing.T) {
	cube := testCube(model3d.Origin, 1)
	if !IsPolygonMesh(cube) {
		t.Fatal("cube should be a polygon mesh")
	}

	flipped := cube.Copy()
	reverseInts(flipped.Faces[3])
	if IsPolygonMesh(flipped) {
		t.Error("inconsistent orientation should be rejected")
	}

	extra := cube.Copy()
	extra.Points = append(extra.Points, model3d.XYZ(0, 0, 5))
	extra.Faces = append(extra.Faces, []int{0, 2, 8})
	if IsPolygonMesh(extra) {
		t.Error("a third face on an edge should be rejected")
	}

	bad := cube.Copy()
	bad.Faces = append(bad.Faces, []int{0, 1, 100})
	if IsPolygonMesh(bad) {
		t.Error("out-of-range index should be rejected")
	}
}

func TestRepairSoup(t *testing.T) {
	cube := testCube(model3d.Origin, 1)
	soup := cube.Copy()
	// Duplicate of point 0 used by a copy of face 0 in reverse.
	soup.Points = append(soup.Points, soup.Points[0], model3d.XYZ(9, 9, 9))
	soup.Faces = append(
		soup.Faces,
		[]int{3, 2, 8},    // duplicate of face 0, reversed, through a merged point
		[]int{0, 0, 1},    // degenerate
		[]int{1, 1, 1, 1}, // degenerate
		[]int{0, 1, 50},   // out of range
	)
	repaired := RepairSoup(soup)
	if len(repaired.Faces) != 12 {
		t.Fatalf("expected 12 faces, got %d", len(repaired.Faces))
	}
	if len(repaired.Points) != 8 {
		t.Fatalf("expected 8 points, got %d", len(repaired.Points))
	}
	if !IsPolygonMesh(repaired) {
		t.Error("repaired soup should be a polygon mesh")
	}
	for i, p := range cube.Points {
		if repaired.Points[i] != p {
			t.Errorf("point %d moved", i)
		}
	}
}
