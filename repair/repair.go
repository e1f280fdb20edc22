// Package repair validates polygon soups and optionally repairs them into
// closed, volume-bounding surfaces free of self-intersections.
package repair

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/unixpickle/mesh-pmp/kernel"
	"github.com/unixpickle/mesh-pmp/mesh"
)

// ErrOrientation is returned when a repaired soup cannot be oriented
// without splitting points.
var ErrOrientation = errors.New("failed to orient the polygon soup")

type State int

const (
	RawSoup State = iota
	RepairSoup
	NonManifoldSoup
	PromotedSurface
)

func (s State) String() string {
	switch s {
	case RawSoup:
		return "RAW_SOUP"
	case RepairSoup:
		return "REPAIR_SOUP"
	case NonManifoldSoup:
		return "NON_MANIFOLD_SOUP"
	case PromotedSurface:
		return "PROMOTED_SURFACE"
	}
	return "UNKNOWN"
}

type Options struct {
	CheckWatertight       bool
	CheckSelfIntersection bool
	AttemptRepair         bool
}

func DefaultOptions() Options {
	return Options{
		CheckWatertight:       true,
		CheckSelfIntersection: true,
	}
}

type MessageKind int

const (
	// Diagnostic messages describe a finding without a repair attempt.
	Diagnostic MessageKind = iota

	// Incomplete messages report a repair whose re-check still failed.
	Incomplete

	// NonManifold messages report a soup that cannot become a surface.
	NonManifold
)

type Message struct {
	Kind MessageKind
	Text string
}

// A Check is the outcome of one pipeline stage.
type Check struct {
	// Checked is false if the stage did not run.
	Checked bool

	// Passed is the final outcome, after any repair attempt.
	Passed bool

	// Repaired is true if a repair was attempted.
	Repaired bool
}

type Report struct {
	// States lists the states entered, in order.
	States []State

	Closed         Check
	BoundsVolume   Check
	SelfIntersects Check

	Messages []Message
}

func (r *Report) enter(s State) {
	r.States = append(r.States, s)
}

func (r *Report) log(kind MessageKind, format string, args ...any) {
	r.Messages = append(r.Messages, Message{Kind: kind, Text: fmt.Sprintf(format, args...)})
}

// A Result is the pipeline's output along with its report.
//
// Exactly one of Soup and Surface is set. When no repair was requested, Soup
// is an unmodified copy of the input.
type Result struct {
	State   State
	Soup    *mesh.Soup
	Surface *mesh.Surface
	Report  *Report
}

// Run validates the soup and, if requested, repairs it.
//
// Stage failures are recorded in the report and never abort the pipeline.
// An error is only returned if the soup-level repair fails.
func Run(soup *mesh.Soup, opts Options) (*Result, error) {
	report := &Report{}
	report.enter(RawSoup)

	current := soup
	if opts.AttemptRepair {
		report.enter(RepairSoup)
		repaired, err := repairSoup(soup)
		if err != nil {
			return nil, errors.Wrap(err, "repair soup")
		}
		current = repaired
	}

	output := func(state State, surf *mesh.Surface) *Result {
		res := &Result{State: state, Report: report}
		if !opts.AttemptRepair {
			res.Soup = soup.Copy()
		} else if surf != nil {
			res.Surface = surf
		} else {
			res.Soup = current
		}
		return res
	}

	if !mesh.IsPolygonMesh(current) {
		report.enter(NonManifoldSoup)
		report.log(NonManifold, "polygon soup does not describe a polygon mesh; "+
			"alpha wrapping can produce a manifold mesh instead")
		return output(NonManifoldSoup, nil), nil
	}
	surf, failed := mesh.SurfaceFromSoup(current)
	report.enter(PromotedSurface)
	if len(failed) > 0 {
		report.log(NonManifold, "%d faces could not be promoted", len(failed))
	}

	if opts.CheckWatertight {
		surf = checkClosed(surf, opts, report)
		if report.Closed.Passed {
			surf = checkVolume(surf, opts, report)
		}
	}
	if opts.CheckSelfIntersection {
		surf = checkIntersections(surf, opts, report)
	}
	return output(PromotedSurface, surf), nil
}

func repairSoup(soup *mesh.Soup) (res *mesh.Soup, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic: %v", r)
		}
	}()
	oriented, ok := mesh.OrientSoup(mesh.RepairSoup(soup))
	if !ok {
		return nil, ErrOrientation
	}
	return oriented, nil
}

func checkClosed(surf *mesh.Surface, opts Options, report *Report) *mesh.Surface {
	closed := surf.IsClosed()
	report.Closed = Check{Checked: true, Passed: closed}
	if closed {
		return surf
	}
	report.log(Diagnostic, "input is not closed")
	if !opts.AttemptRepair {
		return surf
	}
	report.Closed.Repaired = true
	filling, err := kernel.FillHoles(surf, kernel.HoleOptions{Continuity: 0}).Unpack()
	if err == nil {
		surf = filling.Surface
	}
	report.Closed.Passed = surf.IsClosed()
	if report.Closed.Passed {
		report.log(Diagnostic, "closing successful")
	} else {
		report.log(Incomplete, "closing failed")
	}
	return surf
}

func checkVolume(surf *mesh.Surface, opts Options, report *Report) *mesh.Surface {
	volume := surf.DoesBoundVolume()
	report.BoundsVolume = Check{Checked: true, Passed: volume}
	if volume {
		return surf
	}
	report.log(Diagnostic, "input does not bound a volume")
	if !opts.AttemptRepair {
		return surf
	}
	report.BoundsVolume.Repaired = true
	if oriented, ok := surf.OrientToBoundVolume(); ok {
		surf = oriented
	}
	report.BoundsVolume.Passed = surf.DoesBoundVolume()
	if report.BoundsVolume.Passed {
		report.log(Diagnostic, "re-orientation successful")
	} else {
		report.log(Incomplete, "re-orientation failed")
	}
	return surf
}

func checkIntersections(surf *mesh.Surface, opts Options, report *Report) *mesh.Surface {
	intersects := surf.SelfIntersects()
	report.SelfIntersects = Check{Checked: true, Passed: !intersects}
	if !intersects {
		return surf
	}
	report.log(Diagnostic, "self intersection detected")
	if !opts.AttemptRepair {
		return surf
	}
	report.SelfIntersects.Repaired = true
	if fixed, err := kernel.RemoveSelfIntersections(surf, 0).Unpack(); err == nil {
		surf = fixed
	}
	report.SelfIntersects.Passed = !surf.SelfIntersects()
	if report.SelfIntersects.Passed {
		report.log(Diagnostic, "intersection removal successful")
	} else {
		report.log(Incomplete, "intersection removal failed")
	}
	return surf
}
