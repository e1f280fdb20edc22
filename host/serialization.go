package host

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
)

// maxSerializedCount bounds every length prefix read by ReadPolyData so that
// corrupt input cannot trigger huge allocations.
const maxSerializedCount = 1 << 28

// WritePolyData serializes a dataset in a 64-bit precision binary format.
func WritePolyData(w io.Writer, p *PolyData) error {
	if err := writePolyData(w, p); err != nil {
		return errors.Wrap(err, "write poly data")
	}
	return nil
}

func writePolyData(w io.Writer, p *PolyData) error {
	coords := make([]float64, 0, len(p.Points)*3)
	for _, c := range p.Points {
		coords = append(coords, c.X, c.Y, c.Z)
	}
	if err := writeCount(w, len(p.Points)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, coords); err != nil {
		return err
	}
	for _, cells := range [][][]int{p.Polys, p.Lines} {
		if err := writeCells(w, cells); err != nil {
			return err
		}
	}
	for _, arrays := range [][]*DataArray{p.PointData, p.CellData} {
		if err := writeArrays(w, arrays); err != nil {
			return err
		}
	}
	return nil
}

func writeCount(w io.Writer, n int) error {
	return binary.Write(w, binary.LittleEndian, uint32(n))
}

func writeCells(w io.Writer, cells [][]int) error {
	if err := writeCount(w, len(cells)); err != nil {
		return err
	}
	for _, c := range cells {
		data := make([]uint32, len(c)+1)
		data[0] = uint32(len(c))
		for i, idx := range c {
			data[i+1] = uint32(idx)
		}
		if err := binary.Write(w, binary.LittleEndian, data); err != nil {
			return err
		}
	}
	return nil
}

func writeArrays(w io.Writer, arrays []*DataArray) error {
	if err := writeCount(w, len(arrays)); err != nil {
		return err
	}
	for _, a := range arrays {
		header := []uint32{uint32(len(a.Name)), uint32(a.Components), uint32(len(a.Values))}
		if err := binary.Write(w, binary.LittleEndian, header); err != nil {
			return err
		}
		if _, err := w.Write([]byte(a.Name)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, a.Values); err != nil {
			return err
		}
	}
	return nil
}

// ReadPolyData reads the output written by WritePolyData.
func ReadPolyData(r io.Reader) (*PolyData, error) {
	res, err := readPolyData(r)
	if err != nil {
		return nil, errors.Wrap(err, "read poly data")
	}
	return res, nil
}

func readPolyData(r io.Reader) (*PolyData, error) {
	numPoints, err := readCount(r)
	if err != nil {
		return nil, err
	}
	coords := make([]float64, numPoints*3)
	if err := binary.Read(r, binary.LittleEndian, coords); err != nil {
		return nil, err
	}
	res := &PolyData{Points: make([]model3d.Coord3D, numPoints)}
	for i := range res.Points {
		res.Points[i] = model3d.XYZ(coords[i*3], coords[i*3+1], coords[i*3+2])
	}
	if res.Polys, err = readCells(r, numPoints); err != nil {
		return nil, err
	}
	if res.Lines, err = readCells(r, numPoints); err != nil {
		return nil, err
	}
	if res.PointData, err = readArrays(r); err != nil {
		return nil, err
	}
	if res.CellData, err = readArrays(r); err != nil {
		return nil, err
	}
	return res, nil
}

func readCount(r io.Reader) (int, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return 0, err
	}
	if n > maxSerializedCount {
		return 0, errors.Errorf("length prefix %d is too large", n)
	}
	return int(n), nil
}

func readCells(r io.Reader, numPoints int) ([][]int, error) {
	count, err := readCount(r)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	res := make([][]int, count)
	for i := range res {
		size, err := readCount(r)
		if err != nil {
			return nil, err
		}
		data := make([]uint32, size)
		if err := binary.Read(r, binary.LittleEndian, data); err != nil {
			return nil, err
		}
		cell := make([]int, size)
		for j, idx := range data {
			if int(idx) >= numPoints {
				return nil, errors.Errorf("cell %d: point index %d out of range", i, idx)
			}
			cell[j] = int(idx)
		}
		res[i] = cell
	}
	return res, nil
}

func readArrays(r io.Reader) ([]*DataArray, error) {
	count, err := readCount(r)
	if err != nil {
		return nil, err
	}
	var res []*DataArray
	for i := 0; i < count; i++ {
		var header [3]uint32
		if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
			return nil, err
		}
		if header[0] > maxSerializedCount || header[2] > maxSerializedCount {
			return nil, errors.New("array header is too large")
		}
		name := make([]byte, header[0])
		if _, err := io.ReadFull(r, name); err != nil {
			return nil, err
		}
		values := make([]float64, header[2])
		if err := binary.Read(r, binary.LittleEndian, values); err != nil {
			return nil, err
		}
		res = append(res, &DataArray{
			Name:       string(name),
			Components: int(header[1]),
			Values:     values,
		})
	}
	return res, nil
}
