package filters

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/unixpickle/mesh-pmp/host"
	"github.com/unixpickle/model3d/model3d"
)

func TestMissingInput(t *testing.T) {
	r := NewRegistry()
	for _, name := range r.Names() {
		f, err := r.New(name, nil)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.Run(&Request{}); !errors.Is(err, ErrMissingInput) {
			t.Errorf("%s: expected missing input, got %v", name, err)
		}
	}
}

func TestNonManifoldInput(t *testing.T) {
	fin := testCube(1)
	fin.Points = append(fin.Points, model3d.XYZ(-3, 0, -3))
	fin.Polys = append(fin.Polys, []int{0, 2, 8})

	r := NewRegistry()
	for _, name := range []string{RemesherName, SubdividerName, MeshSmootherName, ShapeSmootherName} {
		f, err := r.New(name, nil)
		if err != nil {
			t.Fatal(err)
		}
		_, err = f.Run(&Request{Input: fin})
		if !IsKernelFailure(err) {
			t.Errorf("%s: expected kernel failure, got %v", name, err)
		}
	}
}

func TestKernelErrorIs(t *testing.T) {
	err := errors.Wrap(kernelError(errors.New("bad")), "context")
	if !IsKernelFailure(err) || !errors.Is(err, ErrKernelFailure) {
		t.Error("wrapped kernel error not recognized")
	}
	if IsKernelFailure(ErrInvalidParameter) {
		t.Error("invalid parameter mistaken for a kernel failure")
	}
}

func TestMeshCheckerPassThrough(t *testing.T) {
	in := withHeight(testCube(1))
	checker, err := NewMeshChecker(DefaultMeshCheckerOptions())
	if err != nil {
		t.Fatal(err)
	}
	out, report, err := checker.Check(&Request{Input: in})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", out.Warnings)
	}
	if !report.Closed.Passed || !report.BoundsVolume.Passed || !report.SelfIntersects.Passed {
		t.Errorf("unexpected report: %+v", report)
	}
	if out.Data.NumPoints() != in.NumPoints() || len(out.Data.Polys) != len(in.Polys) {
		t.Error("output should copy the input")
	}
	if out.Data.PointArray("height") == nil {
		t.Error("fields should be kept")
	}
	out.Data.Points[0] = model3d.Origin
	if in.Points[0] == model3d.Origin {
		t.Error("output shares points with the input")
	}
}

func TestMeshCheckerRepair(t *testing.T) {
	in := testCube(1)
	in.Polys = in.Polys[2:]
	opts := DefaultMeshCheckerOptions()
	opts.AttemptRepair = true
	checker, err := NewMeshChecker(opts)
	if err != nil {
		t.Fatal(err)
	}
	out, report, err := checker.Check(&Request{Input: in})
	if err != nil {
		t.Fatal(err)
	}
	if !report.Closed.Repaired {
		t.Errorf("hole should have been repaired: %+v", report.Closed)
	}
	if !promote(t, out.Data).IsClosed() {
		t.Error("output should be closed")
	}
}

func TestRemesherAttributes(t *testing.T) {
	in := withHeight(testSphere(1, 3))
	f, err := NewRemesher(RemeshOptions{TargetLength: 0.2, ProtectAngle: 45, Iterations: 2,
		UpdateAttributes: true})
	if err != nil {
		t.Fatal(err)
	}
	out := runFilter(t, f, &Request{Input: in})
	height := out.Data.PointArray("height")
	if height == nil || height.NumTuples() != out.Data.NumPoints() {
		t.Fatal("height field was not interpolated")
	}
	for i, p := range out.Data.Points {
		if d := height.Values[i] - p.Z; d > 0.15 || d < -0.15 {
			t.Errorf("point %d: height %f far from z=%f", i, height.Values[i], p.Z)
			break
		}
	}

	f.Enabled = false
	out = runFilter(t, f, &Request{Input: in})
	if len(out.Data.PointData) != 0 {
		t.Error("fields should be dropped when attributes are disabled")
	}
}

func TestSubdivider(t *testing.T) {
	in := testCube(1)
	for _, c := range []struct {
		method    string
		numPoints int
		numPolys  int
	}{
		{"sqrt3", 20, 36},
		{"loop", 26, 48},
		{"catmull_clark", 38, 72},
	} {
		opts := DefaultSubdivisionOptions()
		opts.Method = c.method
		f, err := NewSubdivider(opts)
		if err != nil {
			t.Fatal(err)
		}
		out := runFilter(t, f, &Request{Input: in})
		if out.Data.NumPoints() != c.numPoints || len(out.Data.Polys) != c.numPolys {
			t.Errorf("%s: expected %d points and %d polys, got %d and %d", c.method,
				c.numPoints, c.numPolys, out.Data.NumPoints(), len(out.Data.Polys))
		}
		for _, poly := range out.Data.Polys {
			if len(poly) != 3 {
				t.Errorf("%s: output has a polygon of size %d", c.method, len(poly))
				break
			}
		}
	}
}

func TestMeshSmootherKeepsFields(t *testing.T) {
	in := withHeight(testGrid(4))
	in.Points[12] = in.Points[12].Add(model3d.X(0.3))
	f, err := NewMeshSmoother(DefaultMeshSmoothingOptions())
	if err != nil {
		t.Fatal(err)
	}
	out := runFilter(t, f, &Request{Input: in})
	if out.Data.NumPoints() != in.NumPoints() || len(out.Data.Polys) != len(in.Polys) {
		t.Fatal("smoothing changed the connectivity")
	}
	if out.Data.PointArray("height") != in.PointArray("height") {
		t.Error("fields should be shared with the input")
	}
	if out.Data.Points[0] != in.Points[0] {
		t.Error("boundary point moved")
	}
}

func TestDeformer(t *testing.T) {
	const n = 6
	index := func(x, y int) int {
		return y*(n+1) + x
	}
	in := testGrid(n)
	in.SetIDs("")
	targets := &host.PolyData{}
	for _, v := range []int{index(3, 2), index(3, 4)} {
		targets.Points = append(targets.Points, in.Points[v].Add(model3d.X(-0.2)))
	}
	targets.SetIDs("")
	ids := targets.PointArray(host.GlobalIDsName)
	ids.Values[0] = float64(index(3, 2))
	ids.Values[1] = float64(index(3, 4))

	sel := &Selection{}
	for y := 1; y < n; y++ {
		for x := 1; x < n; x++ {
			sel.Points = append(sel.Points, index(x, y))
		}
	}
	inROI := map[int]bool{}
	for _, p := range sel.Points {
		inROI[p] = true
	}

	for _, mode := range []string{"smooth", "sre_arap"} {
		opts := DefaultDeformationOptions()
		opts.Mode = mode
		f, err := NewDeformer(opts)
		if err != nil {
			t.Fatal(err)
		}
		out := runFilter(t, f, &Request{Input: in, Targets: targets, Selection: sel})
		for i, p := range out.Data.Points {
			if !inROI[i] && p != in.Points[i] {
				t.Errorf("%s: point %d outside the region moved", mode, i)
			}
		}
		for i, v := range []int{index(3, 2), index(3, 4)} {
			if out.Data.Points[v].Dist(targets.Points[i]) > 1e-8 {
				t.Errorf("%s: control %d did not reach its target", mode, v)
			}
		}
	}

	f, _ := NewDeformer(DefaultDeformationOptions())
	noIDs := &host.PolyData{Points: targets.Points}
	if _, err := f.Run(&Request{Input: in, Targets: noIDs}); !errors.Is(err, ErrMissingInput) {
		t.Errorf("expected missing input for targets without ids, got %v", err)
	}
	if _, err := f.Run(&Request{Input: in, Targets: targets, Selection: &Selection{}}); !errors.Is(err,
		ErrMissingInput) {
		t.Errorf("expected missing input for an empty selection, got %v", err)
	}
	if _, err := f.Run(&Request{Input: in}); !errors.Is(err, ErrMissingInput) {
		t.Errorf("expected missing input without targets, got %v", err)
	}
}

func TestBooleanFilter(t *testing.T) {
	cube := withHeight(testCube(1))
	sphere := testSphere(2, 8)

	opts := DefaultBooleanOptions()
	opts.Operation = "intersection"
	f, err := NewBooleanFilter(opts)
	if err != nil {
		t.Fatal(err)
	}
	out := runFilter(t, f, &Request{Input: cube, Source: sphere})
	if len(out.Data.Polys) != len(cube.Polys) {
		t.Errorf("intersection should be the cube but has %d polys", len(out.Data.Polys))
	}
	if out.Data.PointArray("height") == nil {
		t.Error("fields should be interpolated from the input")
	}

	opts.Operation = "union"
	f, _ = NewBooleanFilter(opts)
	out = runFilter(t, f, &Request{Input: cube, Source: sphere})
	if out.Data.Max() != sphere.Max() || out.Data.Min() != sphere.Min() {
		t.Error("union should be bounded by the sphere")
	}

	if _, err := f.Run(&Request{Input: cube}); !errors.Is(err, ErrMissingInput) {
		t.Errorf("expected missing source, got %v", err)
	}
	if _, err := f.Run(&Request{Input: testGrid(2), Source: sphere}); !IsKernelFailure(err) {
		t.Errorf("expected kernel failure for an open operand, got %v", err)
	}
}

func TestPatchFiller(t *testing.T) {
	f, err := NewPatchFiller(DefaultPatchFillingOptions())
	if err != nil {
		t.Fatal(err)
	}
	in := withHeight(testCube(1))
	out := runFilter(t, f, &Request{Input: in, Selection: &Selection{Cells: []int{0, 1}}})
	if len(out.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", out.Warnings)
	}
	if !promote(t, out.Data).IsClosed() {
		t.Error("patched mesh should be closed")
	}
	if len(out.Data.PointData) != 0 {
		t.Error("patch filling should not transfer fields")
	}
	if len(in.Polys) != 12 {
		t.Error("input was modified")
	}

	if _, err := f.Run(&Request{Input: in, Selection: &Selection{Cells: []int{12}}}); !errors.Is(err,
		ErrMissingInput) {
		t.Errorf("expected missing input for a bad cell, got %v", err)
	}
}

func TestRemoveCells(t *testing.T) {
	grid := testGrid(1)
	res, err := removeCells(grid, []int{1})
	if err != nil {
		t.Fatal(err)
	}
	if res.NumPoints() != 3 || len(res.Polys) != 1 {
		t.Fatalf("unexpected result: %d points, %d polys", res.NumPoints(), len(res.Polys))
	}
	for i, idx := range res.Polys[0] {
		if res.Points[idx] != grid.Points[grid.Polys[0][i]] {
			t.Error("remaining polygon changed")
		}
	}
}

func TestRegionFairer(t *testing.T) {
	in := testGrid(4)
	center := 2*5 + 2
	in.Points[center] = in.Points[center].Add(model3d.Z(1))

	f, err := NewRegionFairer(DefaultRegionFairingOptions())
	if err != nil {
		t.Fatal(err)
	}
	out := runFilter(t, f, &Request{Input: in})
	if len(out.Warnings) != 1 || out.Warnings[0].Kind != General {
		t.Errorf("expected a single warning, got %v", out.Warnings)
	}
	if out.Data.Points[center] != in.Points[center] {
		t.Error("input should pass through without a selection")
	}

	out = runFilter(t, f, &Request{Input: in, Selection: &Selection{Points: []int{center}}})
	if z := out.Data.Points[center].Z; z > 1e-6 || z < -1e-6 {
		t.Errorf("center should be faired, got z=%f", z)
	}

	if _, err := f.Run(&Request{Input: in, Selection: &Selection{}}); !errors.Is(err, ErrMissingInput) {
		t.Errorf("expected missing input for an empty selection, got %v", err)
	}
}

func TestAlphaWrapper(t *testing.T) {
	in := testCube(1)
	in.Polys = in.Polys[2:]
	f, err := NewAlphaWrapper(AlphaWrappingOptions{Alpha: 10, Offset: 5})
	if err != nil {
		t.Fatal(err)
	}
	out := runFilter(t, f, &Request{Input: in})
	surf := promote(t, out.Data)
	if !surf.IsClosed() {
		t.Error("wrap should be closed")
	}
	min, max := out.Data.Min(), out.Data.Max()
	if min.X > -1 || max.X < 1 || min.Z > -1 || max.Z < 1 {
		t.Errorf("wrap %v-%v does not enclose the input", min, max)
	}

	if _, err := NewAlphaWrapper(AlphaWrappingOptions{Alpha: 1}); !errors.Is(err, ErrInvalidParameter) {
		t.Error("expected invalid offset")
	}
}
