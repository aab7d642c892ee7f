// Package stats provides small aggregate helpers for sweep sample metrics.
package stats

import "gonum.org/v1/gonum/stat"

// MeanStdDev returns the sample mean and corrected (n-1) standard deviation
// of xs. An empty input yields zeros and a single sample has zero deviation.
func MeanStdDev(xs []float64) (mean, stddev float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	mean = stat.Mean(xs, nil)
	if len(xs) < 2 {
		return mean, 0
	}
	return mean, stat.StdDev(xs, nil)
}
