// Command sweep-run drives an external parameterized service through a
// sweep: for every expanded assignment it POSTs the parameter values to the
// target, waits for the target to settle, samples a numeric metric several
// times, and writes summary and raw CSVs.
//
// The target owns the computation; this command only applies assignments
// and collects one metric per sample.
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/paramsweep/internal/specio"
	"github.com/banshee-data/paramsweep/internal/stats"
	"github.com/banshee-data/paramsweep/internal/sweep"
)

func main() {
	specPath := flag.String("spec", "", "Path to the sweep spec JSON file")
	targetURL := flag.String("target", "http://localhost:8081", "Base URL of the service under sweep")
	paramsPath := flag.String("params-path", "/api/params", "POST path that applies a parameter assignment")
	metricsPath := flag.String("metrics-path", "/api/metrics", "GET path that reports current metrics")
	metricKey := flag.String("metric-key", "value", "JSON field of the metrics response to sample")
	iterationsPer := flag.Int("iterations-per", 30, "Number of metric samples to take per assignment")
	intervalPer := flag.Duration("interval-per", 2*time.Second, "Interval between samples")
	settleTime := flag.Duration("settle-time", 5*time.Second, "Time to wait after applying an assignment before sampling (or 0 to skip)")
	output := flag.String("output", "", "Output CSV filename (defaults to sweep-run-<timestamp>.csv)")
	rawOutput := flag.String("raw-output", "", "Raw per-iteration CSV filename (defaults to <output>-raw.csv)")
	dryRun := flag.Bool("dry-run", false, "Print the expanded assignments and exit (no network calls)")
	flag.Parse()

	if *specPath == "" {
		fmt.Fprintln(os.Stderr, "usage: sweep-run -spec <spec.json> [flags]")
		os.Exit(1)
	}

	spec, err := specio.Load(*specPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load spec: %v\n", err)
		os.Exit(1)
	}
	assignments, err := spec.Expand()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid spec: %v\n", err)
		os.Exit(1)
	}
	names := parameterNames(assignments)

	if *dryRun {
		fmt.Fprintf(os.Stderr, "parsed: target=%s params-path=%s metrics-path=%s metric-key=%s iterations-per=%d interval-per=%v\n",
			*targetURL, *paramsPath, *metricsPath, *metricKey, *iterationsPer, *intervalPer)
		for i, a := range assignments {
			fmt.Printf("%d: %s\n", i, formatAssignment(a, names))
		}
		return
	}

	client := &http.Client{Timeout: 10 * time.Second}

	// prepare output file
	filename := *output
	if filename == "" {
		filename = fmt.Sprintf("sweep-run-%s.csv", time.Now().Format("20060102-150405"))
	}
	f, err := os.Create(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not create output file %s: %v\n", filename, err)
		os.Exit(1)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()

	// prepare raw output file
	rawFilename := *rawOutput
	if rawFilename == "" {
		rawFilename = filename + "-raw.csv"
	}
	fRaw, err := os.Create(rawFilename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not create raw output file %s: %v\n", rawFilename, err)
		os.Exit(1)
	}
	defer fRaw.Close()
	rawW := csv.NewWriter(fRaw)
	defer rawW.Flush()

	rawHeader := append([]string{"sample_index"}, names...)
	rawHeader = append(rawHeader, "iter", "timestamp", *metricKey)
	if err := rawW.Write(rawHeader); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write raw header: %v\n", err)
		os.Exit(1)
	}

	header := append([]string{"sample_index"}, names...)
	header = append(header, *metricKey+"_mean", *metricKey+"_stddev")
	if err := w.Write(header); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write header: %v\n", err)
		os.Exit(1)
	}

	for i, a := range assignments {
		// apply the assignment
		b, _ := json.Marshal(a)
		req, _ := http.NewRequest(http.MethodPost, *targetURL+*paramsPath, strings.NewReader(string(b)))
		req.Header.Set("Content-Type", "application/json")
		if resp, err := client.Do(req); err != nil {
			fmt.Fprintf(os.Stderr, "set params error: %v\n", err)
			os.Exit(1)
		} else {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			if resp.StatusCode/100 != 2 {
				fmt.Fprintf(os.Stderr, "set params returned %d: %s\n", resp.StatusCode, string(body))
				os.Exit(1)
			}
			fmt.Printf("Applied assignment %d: %s\n", i, formatAssignment(a, names))
		}

		if *settleTime > 0 {
			time.Sleep(*settleTime)
		}

		// sample the metric iterationsPer times and write raw rows
		samples := make([]float64, 0, *iterationsPer)
		for iter := 0; iter < *iterationsPer; iter++ {
			v, err := fetchMetric(client, *targetURL+*metricsPath, *metricKey)
			if err != nil {
				fmt.Fprintf(os.Stderr, "fetch metric error: %v\n", err)
				os.Exit(1)
			}
			samples = append(samples, v)

			rawRow := []string{strconv.Itoa(i)}
			for _, name := range names {
				rawRow = append(rawRow, fmt.Sprintf("%.6f", a[name]))
			}
			rawRow = append(rawRow, strconv.Itoa(iter), time.Now().Format(time.RFC3339Nano), fmt.Sprintf("%.6f", v))
			if err := rawW.Write(rawRow); err != nil {
				fmt.Fprintf(os.Stderr, "failed to write raw csv row: %v\n", err)
				os.Exit(1)
			}
			rawW.Flush()

			time.Sleep(*intervalPer)
		}

		mean, stddev := stats.MeanStdDev(samples)
		fmt.Printf("Summary: %s %s_mean=%.6f %s_stddev=%.6f\n", formatAssignment(a, names), *metricKey, mean, *metricKey, stddev)

		line := []string{strconv.Itoa(i)}
		for _, name := range names {
			line = append(line, fmt.Sprintf("%.6f", a[name]))
		}
		line = append(line, fmt.Sprintf("%.6f", mean), fmt.Sprintf("%.6f", stddev))
		if err := w.Write(line); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write csv line: %v\n", err)
			os.Exit(1)
		}
		w.Flush()
	}

	fmt.Printf("sweep complete, results written to %s\n", filename)
}

// fetchMetric GETs the metrics URL and extracts the named numeric field.
func fetchMetric(client *http.Client, url, key string) (float64, error) {
	resp, err := client.Get(url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var m map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return 0, fmt.Errorf("decode error: %w", err)
	}
	switch v := m[key].(type) {
	case float64:
		return v, nil
	case nil:
		return 0, fmt.Errorf("metrics response has no field %q", key)
	default:
		return 0, fmt.Errorf("metrics field %q is %T, not a number", key, v)
	}
}

// parameterNames returns the sorted union of parameter names in the
// expansion (they are identical across assignments by construction).
func parameterNames(assignments []sweep.Assignment) []string {
	seen := map[string]bool{}
	names := []string{}
	for _, a := range assignments {
		for name := range a {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

func formatAssignment(a sweep.Assignment, names []string) string {
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%.6f", name, a[name]))
	}
	return strings.Join(parts, " ")
}
