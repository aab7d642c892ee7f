package sweep

import (
	"fmt"
	"iter"
)

// Product combines zip groups by cartesian product. Enumeration follows the
// standard lexicographic nested order: the first declared factor varies
// slowest, the last declared factor varies fastest.
//
// The product of zero factors is the single-element sequence holding one
// empty assignment. That identity is load-bearing: a spec with no factors
// still drives repetitions-many runs under the empty assignment, never zero
// runs. Conversely, if any factor expands to nothing the whole product is
// empty.
type Product struct {
	Factors []Zip
}

// Validate checks every member sweep and the parameter names across the
// whole product. Names must be non-empty and may not be bound by more than
// one sweep, including two sweeps inside the same zip.
func (p Product) Validate() error {
	seen := make(map[string]bool)
	for _, z := range p.Factors {
		for _, s := range z.Sweeps {
			name := s.Name()
			if name == "" {
				return fmt.Errorf("%w: sweep with empty parameter name", ErrInvalidSweep)
			}
			if seen[name] {
				return fmt.Errorf("%w: %q is bound more than once", ErrDuplicateParameter, name)
			}
			seen[name] = true
			if _, err := s.Points(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Len returns the number of assignments the product yields.
func (p Product) Len() (int, error) {
	_, n, err := p.expandFactors()
	return n, err
}

// Assignments validates the product and returns a restartable, lazily
// evaluated sequence over it. Iterating the sequence twice yields identical
// assignments; each yielded Assignment is a fresh map.
func (p Product) Assignments() (iter.Seq[Assignment], error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	factors, _, err := p.expandFactors()
	if err != nil {
		return nil, err
	}
	return func(yield func(Assignment) bool) {
		enumerate(factors, yield)
	}, nil
}

// Expand materialises the full product as a slice.
func (p Product) Expand() ([]Assignment, error) {
	seq, err := p.Assignments()
	if err != nil {
		return nil, err
	}
	out := []Assignment{}
	for a := range seq {
		out = append(out, a)
	}
	return out, nil
}

// expandFactors expands every zip group eagerly. The per-factor sequences
// are small relative to their product, so only the product enumeration
// itself is lazy.
func (p Product) expandFactors() ([][]Assignment, int, error) {
	factors := make([][]Assignment, len(p.Factors))
	total := 1
	for i, z := range p.Factors {
		fa, err := z.Expand()
		if err != nil {
			return nil, 0, err
		}
		factors[i] = fa
		total *= len(fa)
	}
	return factors, total, nil
}

// enumerate walks the cartesian product of the factor expansions with an
// index odometer, advancing the last factor fastest. It reports whether the
// enumeration ran to completion (false means yield asked to stop).
func enumerate(factors [][]Assignment, yield func(Assignment) bool) bool {
	for _, f := range factors {
		if len(f) == 0 {
			return true
		}
	}

	idx := make([]int, len(factors))
	for {
		merged := Assignment{}
		for i, f := range factors {
			for name, v := range f[idx[i]] {
				merged[name] = v
			}
		}
		if !yield(merged) {
			return false
		}

		i := len(idx) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(factors[i]) {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return true
		}
	}
}
