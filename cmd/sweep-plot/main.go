// Command sweep-plot renders the recorded metrics of a persisted run as a
// PNG: mean metric versus one chosen parameter, with one line per distinct
// combination of the remaining parameters.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"os"
	"sort"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/paramsweep/internal/db"
)

func main() {
	dbFile := flag.String("db", "sweep_runs.db", "Path to the runs database")
	runID := flag.String("run", "", "Run ID to plot")
	xParam := flag.String("x", "", "Parameter for the X axis")
	output := flag.String("output", "", "Output PNG filename (defaults to sweep-<run>.png)")
	flag.Parse()

	if *runID == "" || *xParam == "" {
		fmt.Fprintln(os.Stderr, "usage: sweep-plot -run <run_id> -x <parameter> [-db sweep_runs.db] [-output out.png]")
		os.Exit(1)
	}

	database, err := db.NewDB(*dbFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	summary, err := database.RunSummary(*runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load run summary: %v\n", err)
		os.Exit(1)
	}
	if len(summary) == 0 {
		fmt.Fprintf(os.Stderr, "run %s has no samples\n", *runID)
		os.Exit(1)
	}
	if _, ok := summary[0].Assignment[*xParam]; !ok {
		fmt.Fprintf(os.Stderr, "run %s has no parameter %q\n", *runID, *xParam)
		os.Exit(1)
	}

	// Group sweep points by the values of every parameter except the X one.
	groups := map[string]plotter.XYs{}
	for _, point := range summary {
		if point.Recorded == 0 {
			continue
		}
		key := groupKey(point.Assignment, *xParam)
		groups[key] = append(groups[key], plotter.XY{X: point.Assignment[*xParam], Y: point.MetricMean})
	}
	if len(groups) == 0 {
		fmt.Fprintf(os.Stderr, "run %s has no recorded metrics yet\n", *runID)
		os.Exit(1)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Run %s", *runID)
	p.X.Label.Text = *xParam
	p.Y.Label.Text = "metric (mean)"

	// Sort group labels for a consistent legend
	var labels []string
	for label := range groups {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	colors := generateColors(len(labels))
	for i, label := range labels {
		pts := groups[label]
		sort.Slice(pts, func(a, b int) bool { return pts[a].X < pts[b].X })

		line, err := plotter.NewLine(pts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to build line for %s: %v\n", label, err)
			os.Exit(1)
		}
		line.Color = colors[i]
		line.Width = vg.Points(1)
		p.Add(line)
		if label != "" {
			p.Legend.Add(label, line)
		}
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	filename := *output
	if filename == "" {
		filename = fmt.Sprintf("sweep-%s.png", *runID)
	}
	if err := p.Save(14*vg.Inch, 6*vg.Inch, filename); err != nil {
		fmt.Fprintf(os.Stderr, "failed to save plot: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("plot written to %s\n", filename)
}

// groupKey renders the non-X parameters of an assignment as a stable label.
func groupKey(a map[string]float64, xParam string) string {
	names := make([]string, 0, len(a))
	for name := range a {
		if name != xParam {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%g", name, a[name]))
	}
	return strings.Join(parts, " ")
}

// generateColors returns n visually distinct line colors.
func generateColors(n int) []color.Color {
	palette := []color.Color{
		color.RGBA{R: 31, G: 119, B: 180, A: 255},
		color.RGBA{R: 255, G: 127, B: 14, A: 255},
		color.RGBA{R: 44, G: 160, B: 44, A: 255},
		color.RGBA{R: 214, G: 39, B: 40, A: 255},
		color.RGBA{R: 148, G: 103, B: 189, A: 255},
		color.RGBA{R: 140, G: 86, B: 75, A: 255},
		color.RGBA{R: 227, G: 119, B: 194, A: 255},
		color.RGBA{R: 127, G: 127, B: 127, A: 255},
	}
	out := make([]color.Color, n)
	for i := range out {
		out[i] = palette[i%len(palette)]
	}
	return out
}
