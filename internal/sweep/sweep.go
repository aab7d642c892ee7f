// Package sweep expands declarative parameter-sweep specifications into the
// ordered sequence of concrete parameter assignments to execute.
//
// A specification is a product of zips of single-parameter sweeps: each
// parameter draws its values from an explicit point list or from an evenly
// spaced range, parameters grouped in the same zip advance in lockstep, and
// the zip groups combine by cartesian product. A RunSpec repeats the full
// product a configured number of times, e.g. for statistical sampling.
//
// Expansion is a pure function of the specification: no state survives
// between calls and iterating the same spec twice yields identical
// sequences.
package sweep

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Expansion failures wrap one of these sentinels; match with errors.Is.
// Every error from this package indicates a specification bug, not a
// transient condition: retrying the same spec produces the same error.
var (
	// ErrInvalidSweep reports a structurally invalid sweep primitive, such
	// as a negative linspace count or negative repetitions.
	ErrInvalidSweep = errors.New("invalid sweep")

	// ErrDuplicateParameter reports a parameter name bound by more than one
	// sweep in the same product.
	ErrDuplicateParameter = errors.New("duplicate parameter")

	// ErrMalformedSpec reports a spec entry that selects neither or both of
	// the per-parameter sweep variants.
	ErrMalformedSpec = errors.New("malformed sweep spec")
)

// Assignment maps parameter names to the concrete values for one run.
// The expander yields a fresh map per assignment; consumers that retain an
// Assignment must treat it as immutable.
type Assignment map[string]float64

// NamedSweep describes the ordered values a single named parameter takes.
// Exactly two implementations exist, Points and Linspace; a spec entry
// always carries exactly one of them.
type NamedSweep interface {
	// Name returns the parameter this sweep binds.
	Name() string

	// Points returns the ordered value sequence for the parameter.
	Points() ([]float64, error)
}

// Points sweeps a parameter over an explicit list of values.
type Points struct {
	Parameter string
	Values    []float64
}

func (p Points) Name() string { return p.Parameter }

// Points returns the listed values unchanged, preserving order and
// duplicates. The returned slice is a copy.
func (p Points) Points() ([]float64, error) {
	out := make([]float64, len(p.Values))
	copy(out, p.Values)
	return out, nil
}

// Linspace sweeps a parameter over Count evenly spaced values from First to
// Last inclusive.
type Linspace struct {
	Parameter string
	First     float64
	Last      float64
	Count     int
}

func (l Linspace) Name() string { return l.Parameter }

// Points returns the evenly spaced value sequence. A Count of zero yields no
// values. A Count of one yields only First: with a single point there is no
// spacing to honour, so Last is ignored rather than rejected.
func (l Linspace) Points() ([]float64, error) {
	switch {
	case l.Count < 0:
		return nil, fmt.Errorf("%w: linspace for %q has negative count %d", ErrInvalidSweep, l.Parameter, l.Count)
	case l.Count == 0:
		return nil, nil
	case l.Count == 1:
		return []float64{l.First}, nil
	}
	return floats.Span(make([]float64, l.Count), l.First, l.Last), nil
}
