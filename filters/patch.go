package filters

import (
	"github.com/pkg/errors"
	"github.com/unixpickle/mesh-pmp/host"
	"github.com/unixpickle/mesh-pmp/kernel"
	"github.com/unixpickle/mesh-pmp/mesh"
)

const (
	PatchFillerName  = "patch_filling"
	RegionFairerName = "region_fairing"
)

type PatchFillingOptions struct {
	FairingContinuity int `json:"fairing_continuity"`
}

func DefaultPatchFillingOptions() PatchFillingOptions {
	return PatchFillingOptions{FairingContinuity: 1}
}

func (p PatchFillingOptions) Validate() error {
	return validateContinuity(p.FairingContinuity)
}

func validateContinuity(c int) error {
	if c < 0 || c > 2 {
		return invalidf("fairing continuity must be 0, 1, or 2 (got %d)", c)
	}
	return nil
}

// A PatchFiller fills every hole of a mesh, optionally after removing a
// selection of cells.
//
// The patches have no counterpart in the input, so fields are never
// transferred to the output.
type PatchFiller struct {
	opts PatchFillingOptions
}

func NewPatchFiller(opts PatchFillingOptions) (*PatchFiller, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &PatchFiller{opts: opts}, nil
}

func (p *PatchFiller) Name() string {
	return PatchFillerName
}

func (p *PatchFiller) Run(req *Request) (*Output, error) {
	if err := requireInput(req); err != nil {
		return nil, err
	}
	base := req.Input
	if req.Selection != nil && len(req.Selection.Cells) > 0 {
		var err error
		base, err = removeCells(req.Input, req.Selection.Cells)
		if err != nil {
			return nil, err
		}
	}
	surf, err := inputSurface(base.Triangulate())
	if err != nil {
		return nil, err
	}
	res, err := kernel.FillHoles(surf, kernel.HoleOptions{Continuity: p.opts.FairingContinuity}).Unpack()
	if err != nil {
		return nil, kernelError(err)
	}
	out := &Output{Data: host.FromSurface(res.Surface)}
	if !res.Complete() {
		out.warn(RepairIncomplete, "filled %d of %d holes", res.Filled, res.Cycles)
	}
	return out, nil
}

// removeCells drops the selected polygons and any points left unused.
func removeCells(pd *host.PolyData, cells []int) (*host.PolyData, error) {
	removed := make([]bool, len(pd.Polys))
	for _, c := range cells {
		if c < 0 || c >= len(pd.Polys) {
			return nil, errors.Wrapf(ErrMissingInput, "selected cell %d out of range", c)
		}
		removed[c] = true
	}
	mapping := make([]int, len(pd.Points))
	for i := range mapping {
		mapping[i] = -1
	}
	res := &host.PolyData{}
	for i, f := range pd.Polys {
		if removed[i] {
			continue
		}
		poly := make([]int, len(f))
		for j, p := range f {
			if mapping[p] < 0 {
				mapping[p] = len(res.Points)
				res.Points = append(res.Points, pd.Points[p])
			}
			poly[j] = mapping[p]
		}
		res.Polys = append(res.Polys, poly)
	}
	return res, nil
}

type RegionFairingOptions struct {
	FairingContinuity int  `json:"fairing_continuity"`
	UpdateAttributes  bool `json:"update_attributes"`
}

func DefaultRegionFairingOptions() RegionFairingOptions {
	return RegionFairingOptions{FairingContinuity: 1, UpdateAttributes: true}
}

func (r RegionFairingOptions) Validate() error {
	return validateContinuity(r.FairingContinuity)
}

// A RegionFairer fairs the selected points while every other point stays
// fixed.
type RegionFairer struct {
	attributeStage
	opts RegionFairingOptions
}

func NewRegionFairer(opts RegionFairingOptions) (*RegionFairer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &RegionFairer{attributeStage: attributeStage{Enabled: opts.UpdateAttributes}, opts: opts}, nil
}

func (r *RegionFairer) Name() string {
	return RegionFairerName
}

func (r *RegionFairer) Run(req *Request) (*Output, error) {
	if err := requireInput(req); err != nil {
		return nil, err
	}
	if req.Selection == nil {
		out := &Output{Data: req.Input.Copy()}
		out.warn(General, "no selection made, nothing to do")
		return out, nil
	}
	if len(req.Selection.Points) == 0 {
		return nil, errors.Wrap(ErrMissingInput, "selection contains no points")
	}
	var vertices []mesh.Vertex
	for _, p := range req.Selection.Points {
		if p < 0 || p >= req.Input.NumPoints() {
			return nil, errors.Wrapf(ErrMissingInput, "selected point %d out of range", p)
		}
		vertices = append(vertices, mesh.Vertex(p))
	}
	surf, err := inputSurface(req.Input)
	if err != nil {
		return nil, err
	}
	res, err := kernel.Fair(surf, vertices, r.opts.FairingContinuity).Unpack()
	if err != nil {
		return nil, kernelError(err)
	}
	out := &Output{Data: host.FromSurface(res)}
	r.interpolateAttributes(req.Input, out.Data)
	return out, nil
}
