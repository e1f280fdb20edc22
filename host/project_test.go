package host

import (
	"math"
	"testing"

	"github.com/unixpickle/model3d/model3d"
)

func TestProjectAttributesDisabled(t *testing.T) {
	in := testSquareData()
	out := &PolyData{Points: in.Points, Polys: in.Polys}
	ProjectAttributes(in, out, false, AttributesCopy)
	if len(out.PointData) != 0 || len(out.CellData) != 0 {
		t.Fatal("no fields should be transferred")
	}
}

func TestProjectAttributesCopy(t *testing.T) {
	in := testSquareData()
	out := &PolyData{Points: in.Points, Polys: in.Polys}
	ProjectAttributes(in, out, true, AttributesCopy)
	if len(out.PointData) != 1 || out.PointData[0] != in.PointData[0] {
		t.Fatal("point data should be shared")
	}
	if len(out.CellData) != 1 || out.CellData[0] != in.CellData[0] {
		t.Fatal("cell data should be shared")
	}
}

func TestProjectAttributesInterpolate(t *testing.T) {
	in := testSquareData()
	out := &PolyData{
		Points: []model3d.Coord3D{
			model3d.XYZ(0.25, 0.5, 0),
			model3d.XYZ(0.75, 0.1, 0),
			model3d.XYZ(0.9, 0.9, 0.01),
			model3d.XYZ(0.1, 0.2, 0),
		},
		Polys: [][]int{{0, 1, 2}, {3, 1, 0}},
	}
	ProjectAttributes(in, out, true, AttributesInterpolate)
	arr := out.PointArray("x")
	if arr == nil {
		t.Fatal("missing interpolated array")
	}
	for i, p := range out.Points {
		if v := arr.Values[i]; math.Abs(v-p.X) > 1e-8 {
			t.Errorf("point %d: expected %f but got %f", i, p.X, v)
		}
	}
	cells := out.CellArray("id")
	if cells == nil || cells.NumTuples() != 2 {
		t.Fatal("missing cell array")
	}
	// The centroid of the second output cell lies in the first input cell.
	if cells.Values[1] != 0 {
		t.Errorf("unexpected cell value %f", cells.Values[1])
	}
}

// testSquareData creates a unit square of two triangles with a point field
// equal to the x coordinate and a cell field equal to the cell index.
func testSquareData() *PolyData {
	pd := &PolyData{
		Points: []model3d.Coord3D{
			model3d.XYZ(0, 0, 0),
			model3d.XYZ(1, 0, 0),
			model3d.XYZ(1, 1, 0),
			model3d.XYZ(0, 1, 0),
		},
		Polys: [][]int{{0, 1, 3}, {1, 2, 3}},
	}
	x := NewDataArray("x", 1, 4)
	for i, p := range pd.Points {
		x.Values[i] = p.X
	}
	pd.PointData = []*DataArray{x}
	pd.CellData = []*DataArray{{Name: "id", Components: 1, Values: []float64{0, 1}}}
	return pd
}
