package sweep

// Zip iterates several parameter sweeps in lockstep: element i of the
// expansion binds every member parameter to its sweep's i-th value.
//
// The expansion length is the minimum length among the member sweeps, so a
// shorter member truncates the longer ones. That is a documented policy of
// the spec format, not an error. A Zip with no members expands to a single
// empty assignment, making it the identity factor in a product.
type Zip struct {
	Sweeps []NamedSweep
}

// Expand returns the lockstep assignment sequence in member declaration
// order.
func (z Zip) Expand() ([]Assignment, error) {
	if len(z.Sweeps) == 0 {
		return []Assignment{{}}, nil
	}

	names := make([]string, len(z.Sweeps))
	points := make([][]float64, len(z.Sweeps))
	n := -1
	for i, s := range z.Sweeps {
		pts, err := s.Points()
		if err != nil {
			return nil, err
		}
		names[i] = s.Name()
		points[i] = pts
		if n < 0 || len(pts) < n {
			n = len(pts)
		}
	}

	out := make([]Assignment, n)
	for i := range out {
		a := make(Assignment, len(z.Sweeps))
		for j, name := range names {
			a[name] = points[j][i]
		}
		out[i] = a
	}
	return out, nil
}
