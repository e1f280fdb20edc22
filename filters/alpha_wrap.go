package filters

import (
	"github.com/pkg/errors"
	"github.com/unixpickle/mesh-pmp/host"
	"github.com/unixpickle/mesh-pmp/kernel"
)

const AlphaWrapperName = "alpha_wrapping"

type AlphaWrappingOptions struct {
	Alpha  float64 `json:"alpha"`
	Offset float64 `json:"offset"`

	// AbsoluteThresholds makes Alpha and Offset distances. Otherwise they are
	// percentages of the input's bounding box diagonal.
	AbsoluteThresholds bool `json:"absolute_thresholds"`

	UpdateAttributes bool `json:"update_attributes"`
}

func DefaultAlphaWrappingOptions() AlphaWrappingOptions {
	return AlphaWrappingOptions{Alpha: 5, Offset: 3, UpdateAttributes: true}
}

func (a AlphaWrappingOptions) Validate() error {
	if a.Alpha <= 0 {
		return invalidf("alpha must be positive (got %f)", a.Alpha)
	}
	if a.Offset <= 0 {
		return invalidf("offset must be positive (got %f)", a.Offset)
	}
	return nil
}

// An AlphaWrapper replaces the input with a watertight wrap. The input may be
// any soup of polygons and points.
type AlphaWrapper struct {
	attributeStage
	opts AlphaWrappingOptions
}

func NewAlphaWrapper(opts AlphaWrappingOptions) (*AlphaWrapper, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &AlphaWrapper{attributeStage: attributeStage{Enabled: opts.UpdateAttributes}, opts: opts}, nil
}

func (a *AlphaWrapper) Name() string {
	return AlphaWrapperName
}

func (a *AlphaWrapper) Run(req *Request) (*Output, error) {
	if err := requireInput(req); err != nil {
		return nil, err
	}
	if req.Input.NumPoints() == 0 {
		return nil, errors.Wrap(ErrMissingInput, "input has no points")
	}
	alpha, offset := a.opts.Alpha, a.opts.Offset
	if !a.opts.AbsoluteThresholds {
		scale := req.Input.Length() / 100
		alpha *= scale
		offset *= scale
	}
	if alpha <= 0 || offset <= 0 {
		return nil, invalidf("relative thresholds need a non-empty bounding box")
	}
	res, err := kernel.AlphaWrap(host.ToSoup(req.Input), kernel.AlphaWrapOptions{
		Alpha:  alpha,
		Offset: offset,
	}).Unpack()
	if err != nil {
		return nil, kernelError(err)
	}
	out := &Output{Data: host.FromSurface(res)}
	a.interpolateAttributes(req.Input, out.Data)
	return out, nil
}
