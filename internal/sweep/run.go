package sweep

import (
	"fmt"
	"iter"
)

// RunSpec pairs a sweep product with the number of repetitions to execute
// for each expanded assignment.
type RunSpec struct {
	Repetitions int
	Sweep       Product
}

// Validate checks the repetition count and the underlying product. It fails
// fast: an invalid spec never produces a partial expansion.
func (r RunSpec) Validate() error {
	if r.Repetitions < 0 {
		return fmt.Errorf("%w: negative repetitions %d", ErrInvalidSweep, r.Repetitions)
	}
	return r.Sweep.Validate()
}

// TotalRuns returns Repetitions times the product length.
func (r RunSpec) TotalRuns() (int, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}
	n, err := r.Sweep.Len()
	if err != nil {
		return 0, err
	}
	return r.Repetitions * n, nil
}

// Assignments validates the spec and returns a restartable lazy sequence
// that yields the full product once per repetition: repetition is the outer
// loop, product order the inner loop. Consumers may therefore rely on
//
//	sample index == repetition*productLen + sweepIndex
//
// to associate each yielded assignment with its (repetition, sweep-index)
// pair.
func (r RunSpec) Assignments() (iter.Seq[Assignment], error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	factors, _, err := r.Sweep.expandFactors()
	if err != nil {
		return nil, err
	}
	return func(yield func(Assignment) bool) {
		for rep := 0; rep < r.Repetitions; rep++ {
			if !enumerate(factors, yield) {
				return
			}
		}
	}, nil
}

// Expand materialises the full run sequence as a slice.
func (r RunSpec) Expand() ([]Assignment, error) {
	seq, err := r.Assignments()
	if err != nil {
		return nil, err
	}
	out := []Assignment{}
	for a := range seq {
		out = append(out, a)
	}
	return out, nil
}
