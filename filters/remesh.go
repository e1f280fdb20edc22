package filters

import (
	"github.com/unixpickle/mesh-pmp/host"
	"github.com/unixpickle/mesh-pmp/kernel"
)

const RemesherName = "remesh"

type RemeshOptions struct {
	// TargetLength is the target edge length. Zero selects a fraction of
	// the bounding box diagonal.
	TargetLength float64 `json:"target_length"`

	// ProtectAngle is the dihedral angle, in degrees, above which edges are
	// preserved.
	ProtectAngle float64 `json:"protect_angle"`

	Iterations       int  `json:"iterations"`
	UpdateAttributes bool `json:"update_attributes"`
}

func DefaultRemeshOptions() RemeshOptions {
	return RemeshOptions{ProtectAngle: 45, Iterations: 1, UpdateAttributes: true}
}

func (r RemeshOptions) Validate() error {
	if r.TargetLength < 0 {
		return invalidf("target length must not be negative (got %f)", r.TargetLength)
	}
	if r.ProtectAngle < 0 || r.ProtectAngle > 180 {
		return invalidf("protect angle must be in [0, 180] (got %f)", r.ProtectAngle)
	}
	if r.Iterations < 0 {
		return invalidf("iterations must not be negative (got %d)", r.Iterations)
	}
	return nil
}

// A Remesher performs isotropic remeshing while protecting sharp edges.
type Remesher struct {
	attributeStage
	opts RemeshOptions
}

func NewRemesher(opts RemeshOptions) (*Remesher, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Remesher{attributeStage: attributeStage{Enabled: opts.UpdateAttributes}, opts: opts}, nil
}

func (r *Remesher) Name() string {
	return RemesherName
}

func (r *Remesher) Run(req *Request) (*Output, error) {
	if err := requireInput(req); err != nil {
		return nil, err
	}
	length := r.opts.TargetLength
	if length == 0 {
		length = kernel.DefaultLengthFraction * req.Input.Length()
		if length <= 0 {
			return nil, invalidf("cannot derive a target length from an empty bounding box")
		}
	}
	surf, err := inputSurface(req.Input)
	if err != nil {
		return nil, err
	}
	res, err := kernel.Remesh(surf, kernel.RemeshOptions{
		TargetLength: length,
		ProtectAngle: r.opts.ProtectAngle,
		Iterations:   r.opts.Iterations,
	}).Unpack()
	if err != nil {
		return nil, kernelError(err)
	}
	out := &Output{Data: host.FromSurface(res)}
	r.interpolateAttributes(req.Input, out.Data)
	return out, nil
}
