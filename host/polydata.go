package host

import (
	"math"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
)

// GlobalIDsName is the name of the point identifier array used when no other
// identifier array is requested.
const GlobalIDsName = "GlobalIds"

// A DataArray is a named field with a fixed number of components per tuple.
type DataArray struct {
	Name       string
	Components int
	Values     []float64
}

// NewDataArray creates a zeroed array of n tuples.
func NewDataArray(name string, components, n int) *DataArray {
	return &DataArray{
		Name:       name,
		Components: components,
		Values:     make([]float64, components*n),
	}
}

// NumTuples gets the number of tuples in the array.
func (d *DataArray) NumTuples() int {
	if d.Components == 0 {
		return 0
	}
	return len(d.Values) / d.Components
}

// Tuple gets the components of tuple i.
func (d *DataArray) Tuple(i int) []float64 {
	return d.Values[i*d.Components : (i+1)*d.Components]
}

// Copy creates a deep copy of the array.
func (d *DataArray) Copy() *DataArray {
	return &DataArray{
		Name:       d.Name,
		Components: d.Components,
		Values:     append([]float64{}, d.Values...),
	}
}

// PolyData is the dataset exchanged with the host pipeline: a point list,
// polygon cells, optional line cells, and per-point and per-cell fields.
//
// Cell fields are indexed with polygons first, followed by lines.
type PolyData struct {
	Points []model3d.Coord3D
	Polys  [][]int
	Lines  [][]int

	PointData []*DataArray
	CellData  []*DataArray
}

func (p *PolyData) NumPoints() int {
	return len(p.Points)
}

func (p *PolyData) NumCells() int {
	return len(p.Polys) + len(p.Lines)
}

// Copy creates a deep copy of the dataset.
func (p *PolyData) Copy() *PolyData {
	res := &PolyData{
		Points: append([]model3d.Coord3D{}, p.Points...),
		Polys:  copyCells(p.Polys),
		Lines:  copyCells(p.Lines),
	}
	for _, a := range p.PointData {
		res.PointData = append(res.PointData, a.Copy())
	}
	for _, a := range p.CellData {
		res.CellData = append(res.CellData, a.Copy())
	}
	return res
}

// ShallowCopy creates a new dataset which shares all of its slices and
// arrays with p.
func (p *PolyData) ShallowCopy() *PolyData {
	res := *p
	res.PointData = append([]*DataArray{}, p.PointData...)
	res.CellData = append([]*DataArray{}, p.CellData...)
	return &res
}

func copyCells(cells [][]int) [][]int {
	if cells == nil {
		return nil
	}
	res := make([][]int, len(cells))
	for i, c := range cells {
		res[i] = append([]int{}, c...)
	}
	return res
}

// PointArray finds a point field by name.
func (p *PolyData) PointArray(name string) *DataArray {
	return findArray(p.PointData, name)
}

// CellArray finds a cell field by name.
func (p *PolyData) CellArray(name string) *DataArray {
	return findArray(p.CellData, name)
}

func findArray(arrays []*DataArray, name string) *DataArray {
	for _, a := range arrays {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// IDs reads an identifier array as integers. If name is empty, the global
// identifier array is used. Point arrays are searched before cell arrays.
func (p *PolyData) IDs(name string) ([]int, error) {
	if name == "" {
		name = GlobalIDsName
	}
	arr := p.PointArray(name)
	if arr == nil {
		arr = p.CellArray(name)
	}
	if arr == nil {
		return nil, errors.Errorf("no identifier array named %q", name)
	}
	if arr.Components != 1 {
		return nil, errors.Errorf("identifier array %q has %d components", name, arr.Components)
	}
	res := make([]int, len(arr.Values))
	for i, x := range arr.Values {
		if x != math.Trunc(x) {
			return nil, errors.Errorf("identifier array %q has non-integer value %f", name, x)
		}
		res[i] = int(x)
	}
	return res, nil
}

// SetIDs stores a global identifier point array numbering the points in
// order, replacing any existing array with the same name.
func (p *PolyData) SetIDs(name string) {
	if name == "" {
		name = GlobalIDsName
	}
	arr := NewDataArray(name, 1, len(p.Points))
	for i := range p.Points {
		arr.Values[i] = float64(i)
	}
	for i, a := range p.PointData {
		if a.Name == name {
			p.PointData[i] = arr
			return
		}
	}
	p.PointData = append(p.PointData, arr)
}

func (p *PolyData) Min() model3d.Coord3D {
	if len(p.Points) == 0 {
		return model3d.Coord3D{}
	}
	res := p.Points[0]
	for _, c := range p.Points[1:] {
		res = res.Min(c)
	}
	return res
}

func (p *PolyData) Max() model3d.Coord3D {
	if len(p.Points) == 0 {
		return model3d.Coord3D{}
	}
	res := p.Points[0]
	for _, c := range p.Points[1:] {
		res = res.Max(c)
	}
	return res
}

// Length gets the length of the bounding box diagonal.
func (p *PolyData) Length() float64 {
	return p.Max().Dist(p.Min())
}

// Triangulate creates a dataset whose polygons are split into triangle
// fans. Cell data of a split polygon is repeated for each triangle; lines
// are dropped.
func (p *PolyData) Triangulate() *PolyData {
	res := &PolyData{Points: p.Points, PointData: p.PointData}
	var source []int
	for i, poly := range p.Polys {
		for j := 1; j+1 < len(poly); j++ {
			res.Polys = append(res.Polys, []int{poly[0], poly[j], poly[j+1]})
			source = append(source, i)
		}
	}
	for _, arr := range p.CellData {
		if arr.NumTuples() < len(p.Polys) {
			continue
		}
		out := NewDataArray(arr.Name, arr.Components, len(source))
		for i, src := range source {
			copy(out.Tuple(i), arr.Tuple(src))
		}
		res.CellData = append(res.CellData, out)
	}
	return res
}

// Mesh creates a model3d mesh from the polygons, split into triangle fans.
func (p *PolyData) Mesh() *model3d.Mesh {
	res := model3d.NewMesh()
	for _, poly := range p.Polys {
		for j := 1; j+1 < len(poly); j++ {
			res.Add(&model3d.Triangle{p.Points[poly[0]], p.Points[poly[j]], p.Points[poly[j+1]]})
		}
	}
	return res
}

// Validate checks that every cell refers to existing points and that every
// field has one tuple per point or cell.
func (p *PolyData) Validate() error {
	for name, cells := range map[string][][]int{"poly": p.Polys, "line": p.Lines} {
		for i, c := range cells {
			for _, idx := range c {
				if idx < 0 || idx >= len(p.Points) {
					return errors.Errorf("%s %d: point index %d out of range", name, i, idx)
				}
			}
		}
	}
	for _, a := range p.PointData {
		if a.NumTuples() != len(p.Points) || len(a.Values) != a.Components*a.NumTuples() {
			return errors.Errorf("point array %q: expected %d tuples", a.Name, len(p.Points))
		}
	}
	for _, a := range p.CellData {
		if a.NumTuples() != p.NumCells() || len(a.Values) != a.Components*a.NumTuples() {
			return errors.Errorf("cell array %q: expected %d tuples", a.Name, p.NumCells())
		}
	}
	return nil
}
