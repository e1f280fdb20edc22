package filters

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/unixpickle/mesh-pmp/host"
	"github.com/unixpickle/model3d/model3d"
)

func planeGrid(n int, point func(x, y float64) model3d.Coord3D) *host.PolyData {
	pd := &host.PolyData{}
	for y := 0; y <= n; y++ {
		for x := 0; x <= n; x++ {
			pd.Points = append(pd.Points, point(float64(x), float64(y)))
		}
	}
	return pd
}

func TestDelaunay2Planes(t *testing.T) {
	f, err := NewDelaunay2(DefaultDelaunay2Options())
	if err != nil {
		t.Fatal(err)
	}
	for axis, in := range []*host.PolyData{
		planeGrid(2, func(x, y float64) model3d.Coord3D { return model3d.XYZ(3, x, y) }),
		planeGrid(2, func(x, y float64) model3d.Coord3D { return model3d.XYZ(x, -1, y) }),
		planeGrid(2, func(x, y float64) model3d.Coord3D { return model3d.XYZ(x, y, 2) }),
	} {
		withHeight(in)
		out := runFilter(t, f, &Request{Input: in})
		if len(out.Data.Polys) != 8 {
			t.Errorf("axis %d: expected 8 triangles, got %d", axis, len(out.Data.Polys))
		}
		var area float64
		for _, poly := range out.Data.Polys {
			tri := model3d.Triangle{out.Data.Points[poly[0]], out.Data.Points[poly[1]],
				out.Data.Points[poly[2]]}
			area += tri.Area()
		}
		if math.Abs(area-4) > 1e-8 {
			t.Errorf("axis %d: expected area 4, got %f", axis, area)
		}
		for i, p := range out.Data.Points {
			if p != in.Points[i] {
				t.Errorf("axis %d: point %d moved from %v to %v", axis, i, in.Points[i], p)
				break
			}
		}
		if out.Data.PointArray("height") == nil {
			t.Errorf("axis %d: point fields should be copied", axis)
		}
	}
}

func TestDelaunay2Constraints(t *testing.T) {
	in := planeGrid(3, func(x, y float64) model3d.Coord3D { return model3d.XY(x, y) })
	in.Polys = [][]int{{0, 3, 15, 12}}
	in.Lines = [][]int{
		{0, 5, 5},
		{4, 5, 10},
	}
	f, _ := NewDelaunay2(DefaultDelaunay2Options())
	out := runFilter(t, f, &Request{Input: in})
	if len(out.Warnings) != 1 || out.Warnings[0].Kind != IllFormedConstraint {
		t.Fatalf("expected one ill-formed constraint, got %v", out.Warnings)
	}
	if len(out.Data.Polys) != 18 {
		t.Errorf("expected 18 triangles, got %d", len(out.Data.Polys))
	}
	var found bool
	for _, poly := range out.Data.Polys {
		for i := range poly {
			a, b := poly[i], poly[(i+1)%3]
			if (a == 5 && b == 10) || (a == 10 && b == 5) {
				found = true
			}
		}
	}
	if !found {
		t.Error("line constraint 5-10 missing from the triangulation")
	}
	if len(out.Data.Lines) != 0 {
		t.Error("output should only contain triangles")
	}
}

func TestDelaunay2EmptyPolygon(t *testing.T) {
	in := planeGrid(3, func(x, y float64) model3d.Coord3D { return model3d.XY(x, y) })
	in.Polys = [][]int{{}}
	in.Lines = [][]int{{}}
	f, _ := NewDelaunay2(DefaultDelaunay2Options())
	out := runFilter(t, f, &Request{Input: in})
	if len(out.Warnings) != 2 {
		t.Fatalf("expected two warnings, got %v", out.Warnings)
	}
	for _, w := range out.Warnings {
		if w.Kind != IllFormedConstraint {
			t.Errorf("unexpected warning %v", w)
		}
	}
	if len(out.Data.Polys) != 18 {
		t.Errorf("expected 18 triangles, got %d", len(out.Data.Polys))
	}
}

func TestDelaunay2Invalid(t *testing.T) {
	f, _ := NewDelaunay2(DefaultDelaunay2Options())
	cube := testCube(1)
	if _, err := f.Run(&Request{Input: cube}); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected invalid parameter for 3D data, got %v", err)
	}
	if _, err := f.Run(&Request{Input: &host.PolyData{}}); !errors.Is(err, ErrMissingInput) {
		t.Errorf("expected missing input for empty data, got %v", err)
	}
}
