package host

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/unixpickle/mesh-pmp/mesh"
	"github.com/unixpickle/model3d/model3d"
)

// Load opens a file and decodes it with the given reader.
func Load[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, err
	}
	defer f.Close()
	return read(bufio.NewReader(f))
}

// Save creates a file and encodes obj into it with the given writer.
func Save[T any](path string, obj T, write func(io.Writer, T) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := write(w, obj); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadPolyData reads a dataset from an STL file or from the binary format of
// WritePolyData, depending on the file extension.
//
// STL triangles are welded on exact coordinates.
func LoadPolyData(path string) (*PolyData, error) {
	if isSTL(path) {
		tris, err := Load(path, model3d.ReadSTL)
		if err != nil {
			return nil, errors.Wrap(err, "load poly data")
		}
		return FromSoup(mesh.SoupFromMesh(model3d.NewMeshTriangles(tris))), nil
	}
	return Load(path, ReadPolyData)
}

// SavePolyData writes a dataset as an STL file or in the binary format of
// WritePolyData, depending on the file extension. STL output drops lines and
// fields.
func SavePolyData(path string, p *PolyData) error {
	if isSTL(path) {
		return errors.Wrap(p.Mesh().SaveGroupedSTL(path), "save poly data")
	}
	return Save(path, p, WritePolyData)
}

func isSTL(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".stl"
}
