package filters

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// A Constructor builds a filter from JSON-encoded options. Missing fields
// keep their default values.
type Constructor func(options json.RawMessage) (Filter, error)

// A Registry maps filter names to constructors.
type Registry struct {
	constructors map[string]Constructor
}

// NewRegistry creates a registry containing every filter in this package.
func NewRegistry() *Registry {
	r := &Registry{constructors: map[string]Constructor{}}
	register(r, MeshCheckerName, DefaultMeshCheckerOptions, NewMeshChecker)
	register(r, RemesherName, DefaultRemeshOptions, NewRemesher)
	register(r, MeshSmootherName, DefaultMeshSmoothingOptions, NewMeshSmoother)
	register(r, ShapeSmootherName, DefaultShapeSmoothingOptions, NewShapeSmoother)
	register(r, SubdividerName, DefaultSubdivisionOptions, NewSubdivider)
	register(r, DeformerName, DefaultDeformationOptions, NewDeformer)
	register(r, BooleanName, DefaultBooleanOptions, NewBooleanFilter)
	register(r, PatchFillerName, DefaultPatchFillingOptions, NewPatchFiller)
	register(r, RegionFairerName, DefaultRegionFairingOptions, NewRegionFairer)
	register(r, AlphaWrapperName, DefaultAlphaWrappingOptions, NewAlphaWrapper)
	register(r, Delaunay2Name, DefaultDelaunay2Options, NewDelaunay2)
	return r
}

func register[T any, F Filter](r *Registry, name string, defaults func() T,
	build func(T) (F, error)) {
	r.constructors[name] = func(options json.RawMessage) (Filter, error) {
		opts := defaults()
		if len(bytes.TrimSpace(options)) > 0 {
			decoder := json.NewDecoder(bytes.NewReader(options))
			decoder.DisallowUnknownFields()
			if err := decoder.Decode(&opts); err != nil {
				return nil, errors.Wrapf(ErrInvalidParameter, "decode %s options: %v", name, err)
			}
		}
		f, err := build(opts)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
}

// Names lists the registered filters in sorted order.
func (r *Registry) Names() []string {
	names := maps.Keys(r.constructors)
	slices.Sort(names)
	return names
}

// New creates a filter by name. The options may be empty.
func (r *Registry) New(name string, options json.RawMessage) (Filter, error) {
	c, ok := r.constructors[name]
	if !ok {
		return nil, errors.Wrapf(ErrInvalidParameter, "unknown filter %q", name)
	}
	return c(options)
}
