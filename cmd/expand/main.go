// Command expand reads a sweep spec JSON file and prints the expanded
// assignment sequence as CSV, one row per run in expansion order.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/banshee-data/paramsweep/internal/specio"
)

func main() {
	specPath := flag.String("spec", "", "Path to the sweep spec JSON file")
	output := flag.String("output", "", "Output CSV filename (defaults to stdout)")
	flag.Parse()

	if *specPath == "" {
		fmt.Fprintln(os.Stderr, "usage: expand -spec <spec.json> [-output out.csv]")
		os.Exit(1)
	}

	spec, err := specio.Load(*specPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load spec: %v\n", err)
		os.Exit(1)
	}

	seq, err := spec.Assignments()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid spec: %v\n", err)
		os.Exit(1)
	}
	sweepLen, err := spec.Sweep.Len()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid spec: %v\n", err)
		os.Exit(1)
	}

	out := os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not create output file %s: %v\n", *output, err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	w := csv.NewWriter(out)
	defer w.Flush()

	// Column order: indices first, then parameter names sorted for a stable
	// header regardless of declaration order.
	names := []string{}
	for _, z := range spec.Sweep.Factors {
		for _, s := range z.Sweeps {
			names = append(names, s.Name())
		}
	}
	sort.Strings(names)

	header := []string{"sample_index", "repetition", "sweep_index"}
	header = append(header, names...)
	if err := w.Write(header); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write header: %v\n", err)
		os.Exit(1)
	}

	i := 0
	for a := range seq {
		row := []string{
			strconv.Itoa(i),
			strconv.Itoa(i / sweepLen),
			strconv.Itoa(i % sweepLen),
		}
		for _, name := range names {
			row = append(row, strconv.FormatFloat(a[name], 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write csv row: %v\n", err)
			os.Exit(1)
		}
		i++
	}
}
