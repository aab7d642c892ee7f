package sweep

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPointsPassthrough(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
	}{
		{"empty list", []float64{}},
		{"single value", []float64{3.5}},
		{"preserves order", []float64{2, 1, 3}},
		{"preserves duplicates", []float64{1, 1, 2, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Points{Parameter: "p", Values: tt.values}.Points()
			if err != nil {
				t.Fatalf("Points() error: %v", err)
			}
			if diff := cmp.Diff(tt.values, got); diff != "" {
				t.Errorf("Points() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPointsReturnsCopy(t *testing.T) {
	p := Points{Parameter: "p", Values: []float64{1, 2, 3}}
	got, err := p.Points()
	if err != nil {
		t.Fatalf("Points() error: %v", err)
	}
	got[0] = 99
	if p.Values[0] != 1 {
		t.Errorf("mutating the returned slice changed the sweep: %v", p.Values)
	}
}

func TestLinspacePoints(t *testing.T) {
	tests := []struct {
		name     string
		first    float64
		last     float64
		count    int
		expected []float64
	}{
		{"five values zero to ten", 0, 10, 5, []float64{0, 2.5, 5, 7.5, 10}},
		{"two values hit both endpoints", -1, 1, 2, []float64{-1, 1}},
		{"count zero yields nothing", 0, 10, 0, nil},
		{"count one yields first only", 3, 10, 1, []float64{3}},
		{"descending range", 10, 0, 3, []float64{10, 5, 0}},
		{"degenerate range repeats value", 4, 4, 3, []float64{4, 4, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Linspace{Parameter: "p", First: tt.first, Last: tt.last, Count: tt.count}.Points()
			if err != nil {
				t.Fatalf("Points() error: %v", err)
			}
			if len(got) != len(tt.expected) {
				t.Fatalf("Points() = %v, want %v", got, tt.expected)
			}
			for i := range got {
				if math.Abs(got[i]-tt.expected[i]) > 1e-12 {
					t.Errorf("Points()[%d] = %v, want %v", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestLinspaceEndpointsExact(t *testing.T) {
	// The first and last values must equal First and Last exactly, not just
	// within floating point tolerance.
	got, err := Linspace{Parameter: "p", First: 0.1, Last: 0.7, Count: 7}.Points()
	if err != nil {
		t.Fatalf("Points() error: %v", err)
	}
	if got[0] != 0.1 {
		t.Errorf("first element = %v, want exactly 0.1", got[0])
	}
	if got[len(got)-1] != 0.7 {
		t.Errorf("last element = %v, want exactly 0.7", got[len(got)-1])
	}
}

func TestLinspaceNegativeCount(t *testing.T) {
	_, err := Linspace{Parameter: "p", First: 0, Last: 1, Count: -1}.Points()
	if !errors.Is(err, ErrInvalidSweep) {
		t.Fatalf("Points() error = %v, want ErrInvalidSweep", err)
	}
}
