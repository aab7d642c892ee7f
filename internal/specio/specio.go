// Package specio reads and writes the JSON wire form of a run
// specification. The shape mirrors the external schema contract:
//
//	{
//	  "repetitions": 3,
//	  "sweep": {
//	    "factors": [
//	      {"sweeps": [
//	        {"name": "x", "points": [1, 2, 4]},
//	        {"name": "y", "linspace": {"first": 0, "last": 10, "count": 5}}
//	      ]}
//	    ]
//	  }
//	}
//
// Each named sweep carries exactly one of "points" or "linspace"; an entry
// with neither or both is rejected during decoding, before any expansion
// runs.
package specio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/banshee-data/paramsweep/internal/sweep"
)

// maxSpecSize caps spec files and request bodies at 1MB. Specs are small by
// construction; anything larger is a mistake.
const maxSpecSize = 1 * 1024 * 1024

type runSpecJSON struct {
	Repetitions int       `json:"repetitions"`
	Sweep       sweepJSON `json:"sweep"`
}

type sweepJSON struct {
	Factors []factorJSON `json:"factors"`
}

type factorJSON struct {
	Sweeps []namedSweepJSON `json:"sweeps"`
}

type namedSweepJSON struct {
	Name     string        `json:"name"`
	Points   *[]float64    `json:"points,omitempty"`
	Linspace *linspaceJSON `json:"linspace,omitempty"`
}

type linspaceJSON struct {
	First float64 `json:"first"`
	Last  float64 `json:"last"`
	Count int     `json:"count"`
}

// Decode reads one JSON run spec from r. It enforces the oneof contract for
// each named sweep but leaves numeric validation (counts, repetitions,
// duplicate names) to sweep.RunSpec.Validate, so a decoded spec still needs
// validating before use.
func Decode(r io.Reader) (sweep.RunSpec, error) {
	var raw runSpecJSON
	dec := json.NewDecoder(io.LimitReader(r, maxSpecSize))
	if err := dec.Decode(&raw); err != nil {
		return sweep.RunSpec{}, fmt.Errorf("failed to parse spec JSON: %w", err)
	}
	return fromJSON(raw)
}

// Unmarshal decodes a run spec from an in-memory JSON document.
func Unmarshal(data []byte) (sweep.RunSpec, error) {
	return Decode(bytes.NewReader(data))
}

// Load reads a run spec from a JSON file. The path must carry a .json
// extension and the file must be under the size cap.
func Load(path string) (sweep.RunSpec, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return sweep.RunSpec{}, fmt.Errorf("spec file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return sweep.RunSpec{}, fmt.Errorf("failed to stat spec file: %w", err)
	}
	if fileInfo.Size() > maxSpecSize {
		return sweep.RunSpec{}, fmt.Errorf("spec file too large: %d bytes (max %d)", fileInfo.Size(), maxSpecSize)
	}

	f, err := os.Open(cleanPath)
	if err != nil {
		return sweep.RunSpec{}, fmt.Errorf("failed to open spec file: %w", err)
	}
	defer f.Close()

	rs, err := Decode(f)
	if err != nil {
		return sweep.RunSpec{}, fmt.Errorf("%s: %w", cleanPath, err)
	}
	return rs, nil
}

// Marshal renders a run spec back into its JSON wire form.
func Marshal(rs sweep.RunSpec) ([]byte, error) {
	raw, err := toJSON(rs)
	if err != nil {
		return nil, err
	}
	return json.Marshal(raw)
}

// Encode writes the JSON wire form of rs to w.
func Encode(w io.Writer, rs sweep.RunSpec) error {
	raw, err := toJSON(rs)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	return enc.Encode(raw)
}

func fromJSON(raw runSpecJSON) (sweep.RunSpec, error) {
	rs := sweep.RunSpec{Repetitions: raw.Repetitions}
	for fi, f := range raw.Sweep.Factors {
		z := sweep.Zip{}
		for si, s := range f.Sweeps {
			ns, err := namedSweepFromJSON(s)
			if err != nil {
				return sweep.RunSpec{}, fmt.Errorf("factor %d sweep %d: %w", fi, si, err)
			}
			z.Sweeps = append(z.Sweeps, ns)
		}
		rs.Sweep.Factors = append(rs.Sweep.Factors, z)
	}
	return rs, nil
}

func namedSweepFromJSON(s namedSweepJSON) (sweep.NamedSweep, error) {
	switch {
	case s.Points != nil && s.Linspace != nil:
		return nil, fmt.Errorf("%w: %q sets both points and linspace", sweep.ErrMalformedSpec, s.Name)
	case s.Points != nil:
		return sweep.Points{Parameter: s.Name, Values: *s.Points}, nil
	case s.Linspace != nil:
		return sweep.Linspace{
			Parameter: s.Name,
			First:     s.Linspace.First,
			Last:      s.Linspace.Last,
			Count:     s.Linspace.Count,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q sets neither points nor linspace", sweep.ErrMalformedSpec, s.Name)
	}
}

func toJSON(rs sweep.RunSpec) (runSpecJSON, error) {
	raw := runSpecJSON{Repetitions: rs.Repetitions}
	for fi, z := range rs.Sweep.Factors {
		f := factorJSON{}
		for si, ns := range z.Sweeps {
			entry := namedSweepJSON{Name: ns.Name()}
			switch s := ns.(type) {
			case sweep.Points:
				values := s.Values
				if values == nil {
					values = []float64{}
				}
				entry.Points = &values
			case sweep.Linspace:
				entry.Linspace = &linspaceJSON{First: s.First, Last: s.Last, Count: s.Count}
			default:
				return runSpecJSON{}, fmt.Errorf("factor %d sweep %d: unsupported sweep type %T", fi, si, ns)
			}
			f.Sweeps = append(f.Sweeps, entry)
		}
		raw.Sweep.Factors = append(raw.Sweep.Factors, f)
	}
	return raw, nil
}
