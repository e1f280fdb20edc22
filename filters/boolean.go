package filters

import (
	"fmt"
	"log"

	"github.com/pkg/errors"
	"github.com/unixpickle/mesh-pmp/host"
	"github.com/unixpickle/mesh-pmp/kernel"
	"github.com/unixpickle/mesh-pmp/mesh"
)

const BooleanName = "boolean"

var booleanOps = map[string]kernel.BooleanOp{
	kernel.Difference.String():   kernel.Difference,
	kernel.Intersection.String(): kernel.Intersection,
	kernel.Union.String():        kernel.Union,
}

type BooleanOptions struct {
	Operation string `json:"operation"`

	// Resolution is the grid resolution used when the operands' boundaries
	// intersect. Zero selects kernel.DefaultResolution.
	Resolution int `json:"resolution"`

	UpdateAttributes bool `json:"update_attributes"`
}

func DefaultBooleanOptions() BooleanOptions {
	return BooleanOptions{Operation: kernel.Difference.String(), UpdateAttributes: true}
}

func (b BooleanOptions) Validate() error {
	if _, ok := booleanOps[b.Operation]; !ok {
		return invalidf("unknown boolean operation %q", b.Operation)
	}
	if b.Resolution < 0 {
		return invalidf("resolution must not be negative (got %d)", b.Resolution)
	}
	return nil
}

// A BooleanFilter combines the input and source volumes.
type BooleanFilter struct {
	attributeStage
	opts BooleanOptions
}

func NewBooleanFilter(opts BooleanOptions) (*BooleanFilter, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &BooleanFilter{attributeStage: attributeStage{Enabled: opts.UpdateAttributes}, opts: opts}, nil
}

func (b *BooleanFilter) Name() string {
	return BooleanName
}

func (b *BooleanFilter) Run(req *Request) (*Output, error) {
	if err := requireInput(req); err != nil {
		return nil, err
	}
	if req.Source == nil {
		return nil, errors.Wrap(ErrMissingInput, "boolean source dataset")
	}
	if err := req.Source.Validate(); err != nil {
		return nil, errors.Wrap(ErrMissingInput, err.Error())
	}
	input, err := inputSurface(req.Input)
	if err != nil {
		return nil, errors.Wrap(err, "input")
	}
	source, err := inputSurface(req.Source)
	if err != nil {
		return nil, errors.Wrap(err, "source")
	}
	res, err := kernel.Boolean(input, source, booleanOps[b.opts.Operation], b.opts.Resolution).Unpack()
	if err != nil {
		diag := diagnose(input, source)
		log.Println("boolean failed:", diag)
		return nil, errors.Wrap(kernelError(err), diag)
	}
	out := &Output{Data: host.FromSurface(res)}
	b.interpolateAttributes(req.Input, out.Data)
	return out, nil
}

// diagnose describes the operand properties which commonly make boolean
// operations fail.
func diagnose(input, source *mesh.Surface) string {
	return fmt.Sprintf("input self intersects: %v, source self intersects: %v, "+
		"input bounds a volume: %v, source bounds a volume: %v",
		input.SelfIntersects(), source.SelfIntersects(),
		input.DoesBoundVolume(), source.DoesBoundVolume())
}
