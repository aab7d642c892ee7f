package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/paramsweep/internal/stats"
	"github.com/banshee-data/paramsweep/internal/sweep"
)

// Run is one persisted expansion of a run spec.
type Run struct {
	ID          string    `json:"run_id"`
	SpecJSON    string    `json:"spec_json"`
	Repetitions int       `json:"repetitions"`
	SweepLength int       `json:"sweep_length"`
	TotalRuns   int       `json:"total_runs"`
	CreatedAt   time.Time `json:"created_at"`
}

// Sample is one (repetition, sweep-index) slot of a run, with its metric
// once recorded. Metric and RecordedAt are nil until a result arrives.
type Sample struct {
	RunID       string           `json:"run_id"`
	SampleIndex int              `json:"sample_index"`
	Repetition  int              `json:"repetition"`
	SweepIndex  int              `json:"sweep_index"`
	Assignment  sweep.Assignment `json:"assignment"`
	Metric      *float64         `json:"metric"`
	RecordedAt  *time.Time       `json:"recorded_at"`
}

// SweepPointSummary aggregates the recorded metrics for one sweep index
// across all repetitions of a run.
type SweepPointSummary struct {
	SweepIndex   int              `json:"sweep_index"`
	Assignment   sweep.Assignment `json:"assignment"`
	Samples      int              `json:"samples"`
	Recorded     int              `json:"recorded"`
	MetricMean   float64          `json:"metric_mean"`
	MetricStdDev float64          `json:"metric_stddev"`
}

// CreateRun expands spec and persists the run with one sample row per
// assignment, in expansion order. The spec is validated first; nothing is
// written for an invalid spec.
func (db *DB) CreateRun(spec sweep.RunSpec, specJSON string) (*Run, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	sweepLen, err := spec.Sweep.Len()
	if err != nil {
		return nil, err
	}
	seq, err := spec.Assignments()
	if err != nil {
		return nil, err
	}

	run := &Run{
		ID:          uuid.NewString(),
		SpecJSON:    specJSON,
		Repetitions: spec.Repetitions,
		SweepLength: sweepLen,
		TotalRuns:   spec.Repetitions * sweepLen,
		CreatedAt:   time.Now().UTC(),
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (run_id, spec_json, repetitions, sweep_length, total_runs, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.SpecJSON, run.Repetitions, run.SweepLength, run.TotalRuns, run.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	insert, err := tx.Prepare(
		`INSERT INTO samples (run_id, sample_index, repetition, sweep_index, assignment_json)
		 VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare sample insert: %w", err)
	}
	defer insert.Close()

	i := 0
	for a := range seq {
		assignmentJSON, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal assignment: %w", err)
		}
		// sample index = repetition*sweepLen + sweepIndex, in yield order
		if _, err := insert.Exec(run.ID, i, i/sweepLen, i%sweepLen, string(assignmentJSON)); err != nil {
			return nil, fmt.Errorf("failed to insert sample %d: %w", i, err)
		}
		i++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit run: %w", err)
	}
	return run, nil
}

// GetRun returns one run by id, or sql.ErrNoRows if absent.
func (db *DB) GetRun(runID string) (*Run, error) {
	row := db.QueryRow(
		`SELECT run_id, spec_json, repetitions, sweep_length, total_runs, created_at
		 FROM runs WHERE run_id = ?`, runID,
	)
	var run Run
	if err := row.Scan(&run.ID, &run.SpecJSON, &run.Repetitions, &run.SweepLength, &run.TotalRuns, &run.CreatedAt); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns all runs, newest first.
func (db *DB) ListRuns() ([]Run, error) {
	rows, err := db.Query(
		`SELECT run_id, spec_json, repetitions, sweep_length, total_runs, created_at
		 FROM runs ORDER BY created_at DESC, run_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.SpecJSON, &run.Repetitions, &run.SweepLength, &run.TotalRuns, &run.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RunSamples returns the samples of a run in expansion order.
func (db *DB) RunSamples(runID string) ([]Sample, error) {
	rows, err := db.Query(
		`SELECT run_id, sample_index, repetition, sweep_index, assignment_json, metric, recorded_at
		 FROM samples WHERE run_id = ? ORDER BY sample_index`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples := []Sample{}
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// RecordResult stores the metric for one sample of a run.
func (db *DB) RecordResult(runID string, sampleIndex int, metric float64) error {
	res, err := db.Exec(
		`UPDATE samples SET metric = ?, recorded_at = ? WHERE run_id = ? AND sample_index = ?`,
		metric, time.Now().UTC(), runID, sampleIndex,
	)
	if err != nil {
		return fmt.Errorf("failed to record result: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no sample %d in run %s", sampleIndex, runID)
	}
	return nil
}

// RunSummary aggregates recorded metrics per sweep index across
// repetitions, in sweep order. Samples without a recorded metric are
// excluded from the aggregates but counted in Samples.
func (db *DB) RunSummary(runID string) ([]SweepPointSummary, error) {
	samples, err := db.RunSamples(runID)
	if err != nil {
		return nil, err
	}

	byIndex := map[int]*SweepPointSummary{}
	metrics := map[int][]float64{}
	order := []int{}
	for _, s := range samples {
		sum, ok := byIndex[s.SweepIndex]
		if !ok {
			sum = &SweepPointSummary{SweepIndex: s.SweepIndex, Assignment: s.Assignment}
			byIndex[s.SweepIndex] = sum
			order = append(order, s.SweepIndex)
		}
		sum.Samples++
		if s.Metric != nil {
			sum.Recorded++
			metrics[s.SweepIndex] = append(metrics[s.SweepIndex], *s.Metric)
		}
	}

	out := make([]SweepPointSummary, 0, len(order))
	for _, idx := range order {
		sum := byIndex[idx]
		sum.MetricMean, sum.MetricStdDev = stats.MeanStdDev(metrics[idx])
		out = append(out, *sum)
	}
	return out, nil
}

// scanSample reads one samples row, decoding the assignment JSON.
func scanSample(rows *sql.Rows) (Sample, error) {
	var s Sample
	var assignmentJSON string
	var metric sql.NullFloat64
	var recordedAt sql.NullTime
	if err := rows.Scan(&s.RunID, &s.SampleIndex, &s.Repetition, &s.SweepIndex, &assignmentJSON, &metric, &recordedAt); err != nil {
		return Sample{}, err
	}
	if err := json.Unmarshal([]byte(assignmentJSON), &s.Assignment); err != nil {
		return Sample{}, fmt.Errorf("failed to decode assignment for sample %d: %w", s.SampleIndex, err)
	}
	if metric.Valid {
		s.Metric = &metric.Float64
	}
	if recordedAt.Valid {
		t := recordedAt.Time
		s.RecordedAt = &t
	}
	return s, nil
}
