package kernel

import (
	"math"

	"github.com/pkg/errors"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/mesh-pmp/mesh"
	"github.com/unixpickle/model3d/model3d"
)

const maxWrapCells = 128

type AlphaWrapOptions struct {
	// Alpha is the radius of the probing ball. Gaps narrower than the ball
	// are not entered.
	Alpha float64

	// Offset is the distance between the input and the wrap.
	Offset float64
}

// AlphaWrap creates a watertight, manifold surface enclosing every point
// and face of the soup at roughly the offset distance.
func AlphaWrap(s *mesh.Soup, opts AlphaWrapOptions) Result[*mesh.Surface] {
	return call("alpha wrap", func() (*mesh.Surface, error) {
		if opts.Alpha <= 0 || opts.Offset <= 0 {
			return nil, errors.Errorf("alpha and offset must be positive (got %f and %f)",
				opts.Alpha, opts.Offset)
		}
		if len(s.Points) == 0 {
			return nil, errors.Wrap(ErrDegenerate, "empty input")
		}
		distance := unsignedDistance(s)
		grid := newWrapGrid(s.Min(), s.Max(), opts)
		grid.Carve(distance)
		solid := model3d.CheckedFuncSolid(grid.Min, grid.Max(), func(c model3d.Coord3D) bool {
			return distance(c) <= opts.Offset || !grid.Carved(c)
		})
		return extractSurface(solid, grid.Delta)
	})
}

// unsignedDistance measures the distance to the faces of a soup, or to its
// points if it has no faces.
func unsignedDistance(s *mesh.Soup) func(model3d.Coord3D) float64 {
	var numTris int
	for _, f := range s.Faces {
		if len(f) >= 3 {
			numTris++
		}
	}
	if numTris == 0 {
		index := mesh.NewPointIndex(s.Points)
		return func(c model3d.Coord3D) float64 {
			_, d := index.Nearest(c)
			return d
		}
	}
	sdf := model3d.MeshToSDF(s.Mesh())
	return func(c model3d.Coord3D) float64 {
		return math.Abs(sdf.SDF(c))
	}
}

// A wrapGrid tracks which cells the probing ball can reach from outside.
type wrapGrid struct {
	Min   model3d.Coord3D
	Delta float64
	Size  [3]int
	Alpha float64

	reachable []bool
	frontier  *mesh.PointIndex
}

func newWrapGrid(min, max model3d.Coord3D, opts AlphaWrapOptions) *wrapGrid {
	margin := opts.Offset + opts.Alpha
	min = min.Sub(model3d.XYZ(margin, margin, margin))
	max = max.Add(model3d.XYZ(margin, margin, margin))
	delta := opts.Alpha / 2
	size := max.Sub(min)
	longest := math.Max(size.X, math.Max(size.Y, size.Z))
	if longest/delta > maxWrapCells {
		delta = longest / maxWrapCells
	}
	// One extra cell on each side keeps the border outside the input.
	min = min.Sub(model3d.XYZ(delta, delta, delta))
	res := &wrapGrid{Min: min, Delta: delta, Alpha: opts.Alpha}
	arr := size.Array()
	for i := range res.Size {
		res.Size[i] = int(math.Ceil(arr[i]/delta)) + 3
	}
	return res
}

func (w *wrapGrid) Max() model3d.Coord3D {
	return w.Min.Add(model3d.XYZ(float64(w.Size[0]), float64(w.Size[1]), float64(w.Size[2])).Scale(w.Delta))
}

func (w *wrapGrid) index(x, y, z int) int {
	return x + w.Size[0]*(y+w.Size[1]*z)
}

func (w *wrapGrid) center(x, y, z int) model3d.Coord3D {
	return w.Min.Add(model3d.XYZ(float64(x)+0.5, float64(y)+0.5, float64(z)+0.5).Scale(w.Delta))
}

// Carve flood fills the cells where the ball fits, starting from the grid
// border.
func (w *wrapGrid) Carve(distance func(model3d.Coord3D) float64) {
	n := w.Size[0] * w.Size[1] * w.Size[2]
	fits := make([]bool, n)
	essentials.ConcurrentMap(0, w.Size[2], func(z int) {
		for y := 0; y < w.Size[1]; y++ {
			for x := 0; x < w.Size[0]; x++ {
				fits[w.index(x, y, z)] = distance(w.center(x, y, z)) >= w.Alpha
			}
		}
	})

	w.reachable = make([]bool, n)
	var queue [][3]int
	visit := func(x, y, z int) {
		if x < 0 || y < 0 || z < 0 || x >= w.Size[0] || y >= w.Size[1] || z >= w.Size[2] {
			return
		}
		idx := w.index(x, y, z)
		if fits[idx] && !w.reachable[idx] {
			w.reachable[idx] = true
			queue = append(queue, [3]int{x, y, z})
		}
	}
	for z := 0; z < w.Size[2]; z++ {
		for y := 0; y < w.Size[1]; y++ {
			for x := 0; x < w.Size[0]; x++ {
				if x == 0 || y == 0 || z == 0 || x == w.Size[0]-1 || y == w.Size[1]-1 ||
					z == w.Size[2]-1 {
					visit(x, y, z)
				}
			}
		}
	}
	for len(queue) > 0 {
		c := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		visit(c[0]-1, c[1], c[2])
		visit(c[0]+1, c[1], c[2])
		visit(c[0], c[1]-1, c[2])
		visit(c[0], c[1]+1, c[2])
		visit(c[0], c[1], c[2]-1)
		visit(c[0], c[1], c[2]+1)
	}

	var frontier []model3d.Coord3D
	for z := 0; z < w.Size[2]; z++ {
		for y := 0; y < w.Size[1]; y++ {
			for x := 0; x < w.Size[0]; x++ {
				if w.reachable[w.index(x, y, z)] && w.onFrontier(x, y, z) {
					frontier = append(frontier, w.center(x, y, z))
				}
			}
		}
	}
	w.frontier = mesh.NewPointIndex(frontier)
}

func (w *wrapGrid) onFrontier(x, y, z int) bool {
	for _, d := range [6][3]int{{-1, 0, 0}, {1, 0, 0}, {0, -1, 0}, {0, 1, 0}, {0, 0, -1}, {0, 0, 1}} {
		nx, ny, nz := x+d[0], y+d[1], z+d[2]
		if nx < 0 || ny < 0 || nz < 0 || nx >= w.Size[0] || ny >= w.Size[1] || nz >= w.Size[2] {
			continue
		}
		if !w.reachable[w.index(nx, ny, nz)] {
			return true
		}
	}
	return false
}

// Carved checks if c is swept by the ball at some reachable position.
func (w *wrapGrid) Carved(c model3d.Coord3D) bool {
	rel := c.Sub(w.Min).Scale(1 / w.Delta)
	x, y, z := int(math.Floor(rel.X)), int(math.Floor(rel.Y)), int(math.Floor(rel.Z))
	if x < 0 || y < 0 || z < 0 || x >= w.Size[0] || y >= w.Size[1] || z >= w.Size[2] {
		return true
	}
	if w.reachable[w.index(x, y, z)] {
		return true
	}
	_, d := w.frontier.Nearest(c)
	return d <= w.Alpha
}
