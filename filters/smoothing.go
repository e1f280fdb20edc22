package filters

import (
	"github.com/unixpickle/mesh-pmp/host"
	"github.com/unixpickle/mesh-pmp/kernel"
	"github.com/unixpickle/mesh-pmp/mesh"
)

const (
	MeshSmootherName  = "mesh_smoothing"
	ShapeSmootherName = "shape_smoothing"

	TangentialRelaxationMethod = "tangential_relaxation"
	AngleAndAreaMethod         = "angle_and_area"
)

type MeshSmoothingOptions struct {
	Method               string `json:"method"`
	Iterations           int    `json:"iterations"`
	UseSafetyConstraints bool   `json:"use_safety_constraints"`
	UpdateAttributes     bool   `json:"update_attributes"`
}

func DefaultMeshSmoothingOptions() MeshSmoothingOptions {
	return MeshSmoothingOptions{
		Method:           TangentialRelaxationMethod,
		Iterations:       10,
		UpdateAttributes: true,
	}
}

func (m MeshSmoothingOptions) Validate() error {
	if m.Method != TangentialRelaxationMethod && m.Method != AngleAndAreaMethod {
		return invalidf("unknown smoothing method %q", m.Method)
	}
	if m.Iterations < 0 {
		return invalidf("iterations must not be negative (got %d)", m.Iterations)
	}
	return nil
}

// A MeshSmoother improves the shape of triangles without changing the
// connectivity of the mesh.
type MeshSmoother struct {
	attributeStage
	opts MeshSmoothingOptions
}

func NewMeshSmoother(opts MeshSmoothingOptions) (*MeshSmoother, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &MeshSmoother{attributeStage: attributeStage{Enabled: opts.UpdateAttributes}, opts: opts}, nil
}

func (m *MeshSmoother) Name() string {
	return MeshSmootherName
}

func (m *MeshSmoother) Run(req *Request) (*Output, error) {
	if err := requireInput(req); err != nil {
		return nil, err
	}
	surf, err := inputSurface(req.Input)
	if err != nil {
		return nil, err
	}
	smooth := kernel.TangentialRelaxation
	if m.opts.Method == AngleAndAreaMethod {
		smooth = kernel.AngleAndAreaSmoothing
	}
	res, err := smooth(surf, kernel.SmoothOptions{
		Iterations:           m.opts.Iterations,
		UseSafetyConstraints: m.opts.UseSafetyConstraints,
	}).Unpack()
	if err != nil {
		return nil, kernelError(err)
	}
	return sameTopologyOutput(m.attributeStage, req.Input, res), nil
}

type ShapeSmoothingOptions struct {
	TimeStep         float64 `json:"time_step"`
	Iterations       int     `json:"iterations"`
	UpdateAttributes bool    `json:"update_attributes"`
}

func DefaultShapeSmoothingOptions() ShapeSmoothingOptions {
	return ShapeSmoothingOptions{TimeStep: 1e-4, Iterations: 1, UpdateAttributes: true}
}

func (s ShapeSmoothingOptions) Validate() error {
	if s.TimeStep <= 0 {
		return invalidf("time step must be positive (got %f)", s.TimeStep)
	}
	if s.Iterations < 0 {
		return invalidf("iterations must not be negative (got %d)", s.Iterations)
	}
	return nil
}

// A ShapeSmoother applies implicit mean curvature flow.
type ShapeSmoother struct {
	attributeStage
	opts ShapeSmoothingOptions
}

func NewShapeSmoother(opts ShapeSmoothingOptions) (*ShapeSmoother, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &ShapeSmoother{attributeStage: attributeStage{Enabled: opts.UpdateAttributes}, opts: opts}, nil
}

func (s *ShapeSmoother) Name() string {
	return ShapeSmootherName
}

func (s *ShapeSmoother) Run(req *Request) (*Output, error) {
	if err := requireInput(req); err != nil {
		return nil, err
	}
	surf, err := inputSurface(req.Input)
	if err != nil {
		return nil, err
	}
	res, err := kernel.SmoothShape(surf, kernel.ShapeOptions{
		TimeStep:   s.opts.TimeStep,
		Iterations: s.opts.Iterations,
	}).Unpack()
	if err != nil {
		return nil, kernelError(err)
	}
	return sameTopologyOutput(s.attributeStage, req.Input, res), nil
}

// sameTopologyOutput exports a surface whose vertices and faces correspond
// one to one with the input's points and polygons.
func sameTopologyOutput(a attributeStage, in *host.PolyData, surf *mesh.Surface) *Output {
	out := &Output{Data: host.FromSurface(surf)}
	a.copyAttributes(in, out.Data)
	return out
}
