package filters

import (
	"github.com/pkg/errors"
	"github.com/unixpickle/mesh-pmp/kernel"
	"github.com/unixpickle/mesh-pmp/mesh"
	"github.com/unixpickle/model3d/model3d"
)

const DeformerName = "deformation"

var deformModes = map[string]kernel.DeformMode{
	kernel.DeformSmooth.String():  kernel.DeformSmooth,
	kernel.DeformSREARAP.String(): kernel.DeformSREARAP,
}

type DeformationOptions struct {
	Mode       string  `json:"mode"`
	SREAlpha   float64 `json:"sre_alpha"`
	Iterations int     `json:"iterations"`
	Tolerance  float64 `json:"tolerance"`

	// GlobalIDArray names the point array identifying control points. An
	// empty name selects host.GlobalIDsName.
	GlobalIDArray string `json:"global_id_array"`

	UpdateAttributes bool `json:"update_attributes"`
}

func DefaultDeformationOptions() DeformationOptions {
	return DeformationOptions{
		Mode:             kernel.DeformSmooth.String(),
		SREAlpha:         0.02,
		Iterations:       5,
		Tolerance:        1e-4,
		UpdateAttributes: true,
	}
}

func (d DeformationOptions) Validate() error {
	if _, ok := deformModes[d.Mode]; !ok {
		return invalidf("unknown deformation mode %q", d.Mode)
	}
	if d.SREAlpha < 0 {
		return invalidf("rigidity weight must not be negative (got %f)", d.SREAlpha)
	}
	if d.Iterations < 0 {
		return invalidf("iterations must not be negative (got %d)", d.Iterations)
	}
	if d.Tolerance < 0 {
		return invalidf("tolerance must not be negative (got %f)", d.Tolerance)
	}
	return nil
}

// A Deformer moves control points to target positions and deforms a region
// of interest around them.
//
// Control points are matched to input points through an identifier array
// present in both the input and the targets. Without a selection, the
// region of interest is the set of control points.
type Deformer struct {
	attributeStage
	opts DeformationOptions
}

func NewDeformer(opts DeformationOptions) (*Deformer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Deformer{attributeStage: attributeStage{Enabled: opts.UpdateAttributes}, opts: opts}, nil
}

func (d *Deformer) Name() string {
	return DeformerName
}

func (d *Deformer) Run(req *Request) (*Output, error) {
	if err := requireInput(req); err != nil {
		return nil, err
	}
	if req.Targets == nil {
		return nil, errors.Wrap(ErrMissingInput, "deformation targets")
	}
	controls, err := d.controls(req)
	if err != nil {
		return nil, err
	}

	var roi []mesh.Vertex
	if req.Selection == nil {
		for v := range controls {
			roi = append(roi, v)
		}
	} else {
		if len(req.Selection.Points) == 0 {
			return nil, errors.Wrap(ErrMissingInput, "selection contains no points")
		}
		for _, p := range req.Selection.Points {
			if p < 0 || p >= req.Input.NumPoints() {
				return nil, errors.Wrapf(ErrMissingInput, "selected point %d out of range", p)
			}
			roi = append(roi, mesh.Vertex(p))
		}
	}

	surf, err := inputSurface(req.Input)
	if err != nil {
		return nil, err
	}
	res, err := kernel.Deform(surf, roi, controls, kernel.DeformOptions{
		Mode:       deformModes[d.opts.Mode],
		Alpha:      d.opts.SREAlpha,
		Iterations: d.opts.Iterations,
		Tolerance:  d.opts.Tolerance,
	}).Unpack()
	if err != nil {
		return nil, kernelError(err)
	}
	return sameTopologyOutput(d.attributeStage, req.Input, res), nil
}

// controls maps each target point to the input vertex with the same
// identifier.
func (d *Deformer) controls(req *Request) (map[mesh.Vertex]model3d.Coord3D, error) {
	inputIDs, err := req.Input.IDs(d.opts.GlobalIDArray)
	if err != nil {
		return nil, errors.Wrap(ErrMissingInput, err.Error())
	}
	targetIDs, err := req.Targets.IDs(d.opts.GlobalIDArray)
	if err != nil {
		return nil, errors.Wrap(ErrMissingInput, err.Error())
	}
	if len(targetIDs) != req.Targets.NumPoints() {
		return nil, errors.Wrap(ErrMissingInput, "target identifiers must be point data")
	}
	if len(targetIDs) == 0 {
		return nil, errors.Wrap(ErrMissingInput, "no control points")
	}
	lookup := make(map[int]mesh.Vertex, len(inputIDs))
	for i, id := range inputIDs {
		if i < req.Input.NumPoints() {
			lookup[id] = mesh.Vertex(i)
		}
	}
	res := map[mesh.Vertex]model3d.Coord3D{}
	for i, id := range targetIDs {
		v, ok := lookup[id]
		if !ok {
			return nil, errors.Wrapf(ErrMissingInput, "no input point with identifier %d", id)
		}
		res[v] = req.Targets.Points[i]
	}
	return res, nil
}
