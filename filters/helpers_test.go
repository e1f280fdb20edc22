package filters

import (
	"testing"

	"github.com/unixpickle/mesh-pmp/host"
	"github.com/unixpickle/mesh-pmp/mesh"
	"github.com/unixpickle/model3d/model3d"
)

func testCube(halfExtent float64) *host.PolyData {
	pd := &host.PolyData{}
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
		pd.Points = append(pd.Points, c.Scale(halfExtent))
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

func testSphere(radius float64, n int) *host.PolyData {
	return host.FromSoup(mesh.SoupFromMesh(model3d.NewMeshIcosphere(model3d.Origin, radius, n)))
}

// testGrid creates a flat (n+1) by (n+1) point grid spanning [0, n] in the
// XY plane. Point (x, y) has index y*(n+1)+x.
func testGrid(n int) *host.PolyData {
	pd := &host.PolyData{}
	for y := 0; y <= n; y++ {
		for x := 0; x <= n; x++ {
			pd.Points = append(pd.Points, model3d.XY(float64(x), float64(y)))
		}
	}
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			v := y*(n+1) + x
			pd.Polys = append(pd.Polys, []int{v, v + 1, v + n + 2}, []int{v, v + n + 2, v + n + 1})
		}
	}
	return pd
}

// withHeight attaches a point field holding each point's z coordinate.
func withHeight(pd *host.PolyData) *host.PolyData {
	arr := host.NewDataArray("height", 1, pd.NumPoints())
	for i, p := range pd.Points {
		arr.Values[i] = p.Z
	}
	pd.PointData = append(pd.PointData, arr)
	return pd
}

func runFilter(t *testing.T, f Filter, req *Request) *Output {
	out, err := f.Run(req)
	if err != nil {
		t.Fatalf("%s: %v", f.Name(), err)
	}
	if out.Data == nil {
		t.Fatalf("%s: no output data", f.Name())
	}
	if err := out.Data.Validate(); err != nil {
		t.Fatalf("%s: invalid output: %v", f.Name(), err)
	}
	return out
}

func promote(t *testing.T, pd *host.PolyData) *mesh.Surface {
	surf, err := inputSurface(pd)
	if err != nil {
		t.Fatal(err)
	}
	return surf
}
