package filters

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/unixpickle/mesh-pmp/host"
	"github.com/unixpickle/mesh-pmp/kernel"
	"github.com/unixpickle/model3d/model2d"
	"github.com/unixpickle/model3d/model3d"
)

const Delaunay2Name = "delaunay2"

type Delaunay2Options struct {
	UpdateAttributes bool `json:"update_attributes"`
}

func DefaultDelaunay2Options() Delaunay2Options {
	return Delaunay2Options{UpdateAttributes: true}
}

func (d Delaunay2Options) Validate() error {
	return nil
}

// A Delaunay2 filter triangulates planar, axis-aligned point sets. Polygons
// of the input become closed constraints and lines become open constraints.
type Delaunay2 struct {
	attributeStage
}

func NewDelaunay2(opts Delaunay2Options) (*Delaunay2, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Delaunay2{attributeStage: attributeStage{Enabled: opts.UpdateAttributes}}, nil
}

func (d *Delaunay2) Name() string {
	return Delaunay2Name
}

func (d *Delaunay2) Run(req *Request) (*Output, error) {
	if err := requireInput(req); err != nil {
		return nil, err
	}
	if req.Input.NumPoints() == 0 {
		return nil, errors.Wrap(ErrMissingInput, "input has no points")
	}
	plane, err := nullAxis(req.Input)
	if err != nil {
		return nil, err
	}
	points := make([]model2d.Coord, req.Input.NumPoints())
	for i, p := range req.Input.Points {
		points[i] = plane.project(p)
	}

	var constraints [][]int
	var names []string
	for i, poly := range req.Input.Polys {
		chain := append([]int{}, poly...)
		if len(poly) > 0 {
			chain = append(chain, poly[0])
		}
		constraints = append(constraints, chain)
		names = append(names, "polygon "+strconv.Itoa(i))
	}
	for i, line := range req.Input.Lines {
		// The first point of a line is not part of the constraint.
		var chain []int
		if len(line) > 0 {
			chain = append(chain, line[1:]...)
		}
		constraints = append(constraints, chain)
		names = append(names, "line "+strconv.Itoa(i))
	}

	res, err := kernel.ConstrainedDelaunay2D(points, constraints).Unpack()
	if err != nil {
		return nil, kernelError(err)
	}
	out := &Output{Data: &host.PolyData{}}
	for _, idx := range res.Skipped {
		out.warn(IllFormedConstraint, "skipped ill-formed constraint (%s)", names[idx])
	}
	for _, p := range req.Input.Points {
		out.Data.Points = append(out.Data.Points, plane.flatten(p))
	}
	for _, tri := range res.Triangles {
		out.Data.Polys = append(out.Data.Polys, []int{tri[0], tri[1], tri[2]})
	}
	if d.Enabled {
		for _, arr := range req.Input.PointData {
			out.Data.PointData = append(out.Data.PointData, arr.Copy())
		}
	}
	return out, nil
}

// A projectionPlane maps points onto the two axes along which a dataset
// varies, keeping the remaining axis constant.
type projectionPlane struct {
	axes     [2]int
	null     int
	constant float64
}

func (p projectionPlane) project(c model3d.Coord3D) model2d.Coord {
	arr := c.Array()
	return model2d.XY(arr[p.axes[0]], arr[p.axes[1]])
}

func (p projectionPlane) flatten(c model3d.Coord3D) model3d.Coord3D {
	arr := c.Array()
	arr[p.null] = p.constant
	return model3d.NewCoord3DArray(arr)
}

// nullAxis finds the axis with an empty range. When several ranges are
// empty, z is preferred, then x, then y.
func nullAxis(pd *host.PolyData) (projectionPlane, error) {
	min, max := pd.Min(), pd.Max()
	size := max.Sub(min)
	switch {
	case size.Z == 0:
		return projectionPlane{axes: [2]int{0, 1}, null: 2, constant: min.Z}, nil
	case size.X == 0:
		return projectionPlane{axes: [2]int{1, 2}, null: 0, constant: min.X}, nil
	case size.Y == 0:
		return projectionPlane{axes: [2]int{0, 2}, null: 1, constant: min.Y}, nil
	}
	return projectionPlane{}, invalidf("dataset is 3D: no axis has an empty range")
}
