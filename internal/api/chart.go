package api

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/paramsweep/internal/httputil"
)

// sweepChart renders a scatter of the expanded sweep over its first two
// parameters using go-echarts. This is a debugging aid for eyeballing sweep
// coverage before committing to a run; it does not persist anything.
//
// The spec arrives as the POST body. A max_points query parameter (default
// 5000) caps the rendered payload; larger expansions are downsampled by
// stride so the overall shape stays visible.
func (s *Server) sweepChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	spec, _, err := decodeSpec(r)
	if err != nil {
		specError(w, err)
		return
	}

	// Chart the sweep product once; repetitions add no new points.
	assignments, err := spec.Sweep.Expand()
	if err != nil {
		specError(w, err)
		return
	}
	if len(assignments) == 0 {
		httputil.WriteJSONError(w, http.StatusUnprocessableEntity, "sweep expands to no assignments")
		return
	}

	// Pick the first two parameter names in sorted order for the axes.
	names := []string{}
	for name := range assignments[0] {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) < 2 {
		httputil.WriteJSONError(w, http.StatusUnprocessableEntity, "chart needs at least two parameters")
		return
	}
	xName, yName := names[0], names[1]

	maxPoints := parseIntQuery(r, "max_points", 5000)
	if maxPoints < 1 {
		maxPoints = 1
	}
	stride := 1
	if len(assignments) > maxPoints {
		stride = (len(assignments) + maxPoints - 1) / maxPoints
	}

	data := make([]opts.ScatterData, 0, len(assignments)/stride+1)
	for i := 0; i < len(assignments); i += stride {
		a := assignments[i]
		data = append(data, opts.ScatterData{Value: []interface{}{a[xName], a[yName]}})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Sweep coverage", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Sweep coverage",
			Subtitle: fmt.Sprintf("points=%d stride=%d repetitions=%d", len(data), stride, spec.Repetitions),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: xName, NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName, NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("assignments", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
