package kernel

import (
	"math"
	"reflect"
	"testing"

	"github.com/unixpickle/model3d/model2d"
)

func TestConstrainedDelaunay2DGrid(t *testing.T) {
	var points []model2d.Coord
	for y := -1; y <= 1; y++ {
		for x := -1; x <= 1; x++ {
			points = append(points, model2d.XY(float64(x), float64(y)))
		}
	}
	tri := unwrap(t, ConstrainedDelaunay2D(points, nil))
	if len(tri.Triangles) != 8 {
		t.Fatalf("expected 8 triangles but got %d", len(tri.Triangles))
	}
	if area := triangulationArea(t, points, tri.Triangles); math.Abs(area-4) > 1e-8 {
		t.Errorf("unexpected area: %f", area)
	}
}

func TestConstrainedDelaunay2DRandom(t *testing.T) {
	points := []model2d.Coord{}
	for i := 0; i < 50; i++ {
		theta := float64(i) * 2.39996
		r := math.Sqrt(float64(i) + 0.5)
		points = append(points, model2d.XY(r*math.Cos(theta), r*math.Sin(theta)))
	}
	tri := unwrap(t, ConstrainedDelaunay2D(points, nil))
	triangulationArea(t, points, tri.Triangles)
	for _, face := range tri.Triangles {
		a, b, c := points[face[0]], points[face[1]], points[face[2]]
		for i, p := range points {
			if i == face[0] || i == face[1] || i == face[2] {
				continue
			}
			if circumcircleContains(a, b, c, p, 1e-6) {
				t.Fatalf("point %d inside circumcircle of %v", i, face)
			}
		}
	}
}

func TestConstrainedDelaunay2DConstraints(t *testing.T) {
	points := []model2d.Coord{
		model2d.XY(0, 0),
		model2d.XY(1, 0),
		model2d.XY(1, 1),
		model2d.XY(0, 1),
	}
	constraints := [][]int{
		{0, 2},
		{1, 3},
		{0, 0},
		{0, 7},
		{3},
	}
	tri := unwrap(t, ConstrainedDelaunay2D(points, constraints))
	if !reflect.DeepEqual(tri.Skipped, []int{1, 2, 3, 4}) {
		t.Errorf("unexpected skipped constraints: %v", tri.Skipped)
	}
	if len(tri.Triangles) != 2 {
		t.Fatalf("expected 2 triangles but got %d", len(tri.Triangles))
	}
	for _, face := range tri.Triangles {
		if triIndex(face, 0) < 0 || triIndex(face, 2) < 0 {
			t.Errorf("triangle %v does not contain the constrained diagonal", face)
		}
	}
	triangulationArea(t, points, tri.Triangles)
}

func TestConstrainedDelaunay2DForcedEdge(t *testing.T) {
	// A wide, flat diamond whose Delaunay triangulation uses the short
	// vertical diagonal.
	points := []model2d.Coord{
		model2d.XY(-5, 0),
		model2d.XY(0, -1),
		model2d.XY(5, 0),
		model2d.XY(0, 1),
		model2d.XY(0, 3),
		model2d.XY(0, -3),
	}
	plain := unwrap(t, ConstrainedDelaunay2D(points, nil))
	if hasEdge(plain.Triangles, 0, 2) {
		t.Fatal("unconstrained triangulation should not contain the long diagonal")
	}
	constrained := unwrap(t, ConstrainedDelaunay2D(points, [][]int{{0, 2}}))
	if len(constrained.Skipped) != 0 {
		t.Fatalf("unexpected skipped constraints: %v", constrained.Skipped)
	}
	// The segment passes through no vertex, so it must be a single edge.
	if !hasEdge(constrained.Triangles, 0, 2) {
		t.Fatal("constrained edge is missing")
	}
	if len(constrained.Triangles) != len(plain.Triangles) {
		t.Errorf("triangle count changed from %d to %d", len(plain.Triangles),
			len(constrained.Triangles))
	}
}

func TestConstrainedDelaunay2DCollinearConstraint(t *testing.T) {
	points := []model2d.Coord{
		model2d.XY(0, 0),
		model2d.XY(1, 0),
		model2d.XY(2, 0),
		model2d.XY(1, 1),
		model2d.XY(1, -1),
		model2d.XY(0, 0),
	}
	tri := unwrap(t, ConstrainedDelaunay2D(points, [][]int{{5, 2}}))
	if len(tri.Skipped) != 0 {
		t.Fatalf("unexpected skipped constraints: %v", tri.Skipped)
	}
	if !hasEdge(tri.Triangles, 0, 1) || !hasEdge(tri.Triangles, 1, 2) {
		t.Error("constraint through a vertex was not split")
	}
	for _, face := range tri.Triangles {
		if triIndex(face, 5) >= 0 {
			t.Errorf("duplicate point referenced by %v", face)
		}
	}
}

func TestConstrainedDelaunay2DDegenerate(t *testing.T) {
	points := []model2d.Coord{model2d.XY(0, 0), model2d.XY(1, 1), model2d.XY(2, 2)}
	tri := unwrap(t, ConstrainedDelaunay2D(points, [][]int{{0, 2}}))
	if len(tri.Triangles) != 0 {
		t.Errorf("expected no triangles for collinear input, got %d", len(tri.Triangles))
	}
}

func triangulationArea(t *testing.T, points []model2d.Coord, tris [][3]int) float64 {
	var area float64
	for _, face := range tris {
		a, b, c := points[face[0]], points[face[1]], points[face[2]]
		o := b.Sub(a).X*c.Sub(a).Y - b.Sub(a).Y*c.Sub(a).X
		if o <= 0 {
			t.Fatalf("triangle %v is not counter-clockwise", face)
		}
		area += o / 2
	}
	return area
}

func circumcircleContains(a, b, c, p model2d.Coord, eps float64) bool {
	d := 2 * (a.X*(b.Y-c.Y) + b.X*(c.Y-a.Y) + c.X*(a.Y-b.Y))
	a2, b2, c2 := a.Dot(a), b.Dot(b), c.Dot(c)
	center := model2d.XY(
		(a2*(b.Y-c.Y)+b2*(c.Y-a.Y)+c2*(a.Y-b.Y))/d,
		(a2*(c.X-b.X)+b2*(a.X-c.X)+c2*(b.X-a.X))/d,
	)
	return p.Dist(center) < center.Dist(a)-eps
}

func hasEdge(tris [][3]int, a, b int) bool {
	for _, face := range tris {
		if triIndex(face, a) >= 0 && triIndex(face, b) >= 0 {
			return true
		}
	}
	return false
}
