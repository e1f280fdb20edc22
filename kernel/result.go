// Package kernel implements the geometry operators applied to surfaces and
// soups: remeshing, smoothing, subdivision, deformation, fairing, hole
// filling, boolean combination, self-intersection removal, alpha wrapping,
// and constrained planar triangulation.
//
// Every operator returns a Result rather than panicking, and never modifies
// its inputs.
package kernel

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNotTriangleMesh = errors.New("surface is not a triangle mesh")
	ErrNonManifold     = errors.New("operation produced a non-manifold surface")
	ErrNotConverged    = errors.New("solver did not converge")
	ErrDegenerate      = errors.New("degenerate geometry")
)

// A Failure is an error raised inside an operator.
type Failure struct {
	Op  string
	Err error
}

func (f *Failure) Error() string {
	return f.Op + ": " + f.Err.Error()
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Cause allows errors.Cause to reach the underlying error.
func (f *Failure) Cause() error {
	return f.Err
}

// A Result is either a value produced by an operator or a Failure.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok checks if the operator succeeded.
func (r Result[T]) Ok() bool {
	return r.Err == nil
}

// Unpack returns the value and the error.
func (r Result[T]) Unpack() (T, error) {
	return r.Value, r.Err
}

func fail[T any](op string, err error) Result[T] {
	return Result[T]{Err: &Failure{Op: op, Err: err}}
}

// call runs an operator body, converting both returned errors and panics
// into a Failure.
func call[T any](op string, f func() (T, error)) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("%v", r)
			}
			res = fail[T](op, errors.Wrap(err, "panic"))
		}
	}()
	value, err := f()
	if err != nil {
		return fail[T](op, err)
	}
	return Result[T]{Value: value}
}
