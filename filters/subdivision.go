package filters

import (
	"github.com/unixpickle/mesh-pmp/host"
	"github.com/unixpickle/mesh-pmp/kernel"
)

const SubdividerName = "subdivision"

var subdivisionMethods = map[string]kernel.SubdivisionMethod{
	kernel.CatmullClark.String(): kernel.CatmullClark,
	kernel.Loop.String():         kernel.Loop,
	kernel.DooSabin.String():     kernel.DooSabin,
	kernel.Sqrt3.String():        kernel.Sqrt3,
}

type SubdivisionOptions struct {
	Method           string `json:"method"`
	Iterations       int    `json:"iterations"`
	UpdateAttributes bool   `json:"update_attributes"`
}

func DefaultSubdivisionOptions() SubdivisionOptions {
	return SubdivisionOptions{
		Method:           kernel.Sqrt3.String(),
		Iterations:       1,
		UpdateAttributes: true,
	}
}

func (s SubdivisionOptions) Validate() error {
	if _, ok := subdivisionMethods[s.Method]; !ok {
		return invalidf("unknown subdivision method %q", s.Method)
	}
	if s.Iterations < 0 {
		return invalidf("iterations must not be negative (got %d)", s.Iterations)
	}
	return nil
}

// A Subdivider refines a mesh. Schemes producing polygons other than
// triangles have their output triangulated.
type Subdivider struct {
	attributeStage
	opts SubdivisionOptions
}

func NewSubdivider(opts SubdivisionOptions) (*Subdivider, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Subdivider{attributeStage: attributeStage{Enabled: opts.UpdateAttributes}, opts: opts}, nil
}

func (s *Subdivider) Name() string {
	return SubdividerName
}

func (s *Subdivider) Run(req *Request) (*Output, error) {
	if err := requireInput(req); err != nil {
		return nil, err
	}
	surf, err := inputSurface(req.Input)
	if err != nil {
		return nil, err
	}
	method := subdivisionMethods[s.opts.Method]
	res, err := kernel.Subdivide(surf, kernel.SubdivisionOptions{
		Method:     method,
		Iterations: s.opts.Iterations,
	}).Unpack()
	if err != nil {
		return nil, kernelError(err)
	}
	data := host.FromSurface(res)
	if method == kernel.CatmullClark || method == kernel.DooSabin {
		data = data.Triangulate()
	}
	out := &Output{Data: data}
	s.interpolateAttributes(req.Input, out.Data)
	return out, nil
}
