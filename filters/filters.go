// Package filters exposes the mesh operators as request-level components
// which consume and produce host datasets.
//
// Each filter is built from an immutable options value which is validated
// before any geometry is touched. Running a filter yields either an output
// dataset with zero or more warnings, or an error and no output.
package filters

import (
	"fmt"
	"log"

	"github.com/pkg/errors"
	"github.com/unixpickle/mesh-pmp/host"
	"github.com/unixpickle/mesh-pmp/mesh"
)

var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrMissingInput     = errors.New("missing required input")
	ErrKernelFailure    = errors.New("geometry kernel failure")
	ErrNonManifoldInput = errors.New("input is not a manifold polygon mesh")
)

// IsKernelFailure checks if err was raised by the geometry kernel, including
// the case of an operator refusing a non-manifold input.
func IsKernelFailure(err error) bool {
	return errors.Is(err, ErrKernelFailure) || errors.Is(err, ErrNonManifoldInput)
}

type kernelFailure struct {
	err error
}

func (k *kernelFailure) Error() string {
	return "geometry kernel failure: " + k.err.Error()
}

func (k *kernelFailure) Is(target error) bool {
	return target == ErrKernelFailure
}

func (k *kernelFailure) Unwrap() error {
	return k.err
}

func kernelError(err error) error {
	return &kernelFailure{err: err}
}

type WarningKind int

const (
	General WarningKind = iota
	RepairIncomplete
	IllFormedConstraint
	NonManifoldInput
)

func (w WarningKind) String() string {
	switch w {
	case General:
		return "general"
	case RepairIncomplete:
		return "repair incomplete"
	case IllFormedConstraint:
		return "ill-formed constraint"
	case NonManifoldInput:
		return "non-manifold input"
	}
	return "unknown"
}

// A Warning is a non-fatal outcome of a request.
type Warning struct {
	Kind    WarningKind
	Message string
}

func (w Warning) String() string {
	return w.Kind.String() + ": " + w.Message
}

// A Selection lists point or cell indices of a request's input.
type Selection struct {
	Points []int
	Cells  []int
}

// A Request bundles the datasets consumed by a filter. Only Input is used by
// every filter.
type Request struct {
	Input *host.PolyData

	// Source is the second operand of a boolean operation.
	Source *host.PolyData

	// Targets holds the target positions of deformation control points,
	// tagged with an identifier array.
	Targets *host.PolyData

	Selection *Selection
}

type Output struct {
	Data     *host.PolyData
	Warnings []Warning
}

func (o *Output) warn(kind WarningKind, format string, args ...any) {
	w := Warning{Kind: kind, Message: fmt.Sprintf(format, args...)}
	log.Printf("warning: %s", w)
	o.Warnings = append(o.Warnings, w)
}

type Filter interface {
	Name() string
	Run(req *Request) (*Output, error)
}

// attributeStage transfers fields from a request's input to its output.
type attributeStage struct {
	Enabled bool
}

// copyAttributes shares fields when the output has the input's topology.
func (a attributeStage) copyAttributes(in, out *host.PolyData) {
	host.ProjectAttributes(in, out, a.Enabled, host.AttributesCopy)
}

// interpolateAttributes probes the input's fields at the output geometry.
func (a attributeStage) interpolateAttributes(in, out *host.PolyData) {
	host.ProjectAttributes(in, out, a.Enabled, host.AttributesInterpolate)
}

func requireInput(req *Request) error {
	if req == nil || req.Input == nil {
		return errors.Wrap(ErrMissingInput, "input dataset")
	}
	if err := req.Input.Validate(); err != nil {
		return errors.Wrap(ErrMissingInput, err.Error())
	}
	return nil
}

// inputSurface promotes a dataset to a surface, failing if any polygon could
// not be inserted.
func inputSurface(pd *host.PolyData) (*mesh.Surface, error) {
	surf, promotion := host.ToSurface(pd)
	if !promotion.OK() {
		return nil, errors.Wrapf(ErrNonManifoldInput, "%d of %d polygons could not be inserted",
			len(promotion.Failed), len(pd.Polys))
	}
	return surf, nil
}

func invalidf(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidParameter, format, args...)
}
