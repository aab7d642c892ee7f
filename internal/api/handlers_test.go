package api

import (
	"net/http"
	"path/filepath"
	"testing"

	"github.com/banshee-data/paramsweep/internal/db"
	"github.com/banshee-data/paramsweep/internal/sweep"
	"github.com/banshee-data/paramsweep/internal/testutil"
)

const sampleSpec = `{
	"repetitions": 2,
	"sweep": {"factors": [
		{"sweeps": [{"name": "x", "points": [1, 2]}]},
		{"sweeps": [{"name": "y", "linspace": {"first": 0, "last": 1, "count": 3}}]}
	]}
}`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	database, err := db.NewDB(filepath.Join(t.TempDir(), "test.db"))
	testutil.AssertNoError(t, err)
	t.Cleanup(func() { database.Close() })
	return NewServer(database)
}

func TestExpandSweep(t *testing.T) {
	s := newTestServer(t)

	req := testutil.NewJSONRequest(http.MethodPost, "/sweep/expand", sampleSpec)
	rec := testutil.NewTestRecorder()
	s.ServeMux().ServeHTTP(rec, req)

	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var resp struct {
		Total       int                `json:"total"`
		Assignments []sweep.Assignment `json:"assignments"`
	}
	testutil.DecodeJSONResponse(t, rec, &resp)

	if resp.Total != 12 {
		t.Errorf("total = %d, want 12", resp.Total)
	}
	if len(resp.Assignments) != 12 {
		t.Fatalf("len(assignments) = %d, want 12", len(resp.Assignments))
	}
	// First assignment binds both parameters at their starting values.
	if resp.Assignments[0]["x"] != 1 || resp.Assignments[0]["y"] != 0 {
		t.Errorf("assignments[0] = %v, want x=1 y=0", resp.Assignments[0])
	}
	// Last factor varies fastest.
	if resp.Assignments[1]["x"] != 1 || resp.Assignments[1]["y"] != 0.5 {
		t.Errorf("assignments[1] = %v, want x=1 y=0.5", resp.Assignments[1])
	}
}

func TestExpandSweepErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			"duplicate parameter",
			`{"repetitions": 1, "sweep": {"factors": [
				{"sweeps": [{"name": "x", "points": [1]}]},
				{"sweeps": [{"name": "x", "points": [2]}]}
			]}}`,
			http.StatusUnprocessableEntity,
		},
		{
			"negative linspace count",
			`{"repetitions": 1, "sweep": {"factors": [
				{"sweeps": [{"name": "x", "linspace": {"first": 0, "last": 1, "count": -2}}]}
			]}}`,
			http.StatusUnprocessableEntity,
		},
		{
			"negative repetitions",
			`{"repetitions": -1, "sweep": {"factors": []}}`,
			http.StatusUnprocessableEntity,
		},
		{
			"oneof violation",
			`{"repetitions": 1, "sweep": {"factors": [{"sweeps": [{"name": "x"}]}]}}`,
			http.StatusUnprocessableEntity,
		},
		{
			"bad JSON",
			`{"repetitions":`,
			http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			req := testutil.NewJSONRequest(http.MethodPost, "/sweep/expand", tt.body)
			rec := testutil.NewTestRecorder()
			s.ServeMux().ServeHTTP(rec, req)
			testutil.AssertStatusCode(t, rec.Code, tt.wantStatus)
		})
	}
}

func TestExpandSweepMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)
	req := testutil.NewTestRequest(http.MethodGet, "/sweep/expand")
	rec := testutil.NewTestRecorder()
	s.ServeMux().ServeHTTP(rec, req)
	testutil.AssertStatusCode(t, rec.Code, http.StatusMethodNotAllowed)
}

func createTestRun(t *testing.T, s *Server) db.Run {
	t.Helper()
	req := testutil.NewJSONRequest(http.MethodPost, "/runs", sampleSpec)
	rec := testutil.NewTestRecorder()
	s.ServeMux().ServeHTTP(rec, req)
	testutil.AssertStatusCode(t, rec.Code, http.StatusCreated)

	var run db.Run
	testutil.DecodeJSONResponse(t, rec, &run)
	return run
}

func TestCreateAndListRuns(t *testing.T) {
	s := newTestServer(t)

	run := createTestRun(t, s)
	if run.TotalRuns != 12 {
		t.Errorf("total_runs = %d, want 12", run.TotalRuns)
	}
	if run.SweepLength != 6 {
		t.Errorf("sweep_length = %d, want 6", run.SweepLength)
	}

	req := testutil.NewTestRequest(http.MethodGet, "/runs")
	rec := testutil.NewTestRecorder()
	s.ServeMux().ServeHTTP(rec, req)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var runs []db.Run
	testutil.DecodeJSONResponse(t, rec, &runs)
	if len(runs) != 1 || runs[0].ID != run.ID {
		t.Errorf("runs = %v, want the single created run", runs)
	}
}

func TestRunSamplesEndpoint(t *testing.T) {
	s := newTestServer(t)
	run := createTestRun(t, s)

	req := testutil.NewTestRequest(http.MethodGet, "/run/samples?run_id="+run.ID)
	rec := testutil.NewTestRecorder()
	s.ServeMux().ServeHTTP(rec, req)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var samples []db.Sample
	testutil.DecodeJSONResponse(t, rec, &samples)
	if len(samples) != 12 {
		t.Fatalf("len(samples) = %d, want 12", len(samples))
	}
	if samples[7].Repetition != 1 || samples[7].SweepIndex != 1 {
		t.Errorf("samples[7] = rep %d sweep %d, want rep 1 sweep 1", samples[7].Repetition, samples[7].SweepIndex)
	}
}

func TestRunSamplesUnknownRun(t *testing.T) {
	s := newTestServer(t)

	req := testutil.NewTestRequest(http.MethodGet, "/run/samples?run_id=nope")
	rec := testutil.NewTestRecorder()
	s.ServeMux().ServeHTTP(rec, req)
	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)
}

func TestRecordResultAndSummary(t *testing.T) {
	s := newTestServer(t)
	run := createTestRun(t, s)

	// Record a metric for sweep point 0 in both repetitions (indices 0 and 6).
	for _, body := range []string{
		`{"sample_index": 0, "metric": 10}`,
		`{"sample_index": 6, "metric": 20}`,
	} {
		req := testutil.NewJSONRequest(http.MethodPost, "/run/result?run_id="+run.ID, body)
		rec := testutil.NewTestRecorder()
		s.ServeMux().ServeHTTP(rec, req)
		testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	}

	req := testutil.NewTestRequest(http.MethodGet, "/run/summary?run_id="+run.ID)
	rec := testutil.NewTestRecorder()
	s.ServeMux().ServeHTTP(rec, req)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var summary []db.SweepPointSummary
	testutil.DecodeJSONResponse(t, rec, &summary)
	if len(summary) != 6 {
		t.Fatalf("len(summary) = %d, want 6", len(summary))
	}
	if summary[0].Recorded != 2 {
		t.Errorf("summary[0].Recorded = %d, want 2", summary[0].Recorded)
	}
	if summary[0].MetricMean != 15 {
		t.Errorf("summary[0].MetricMean = %v, want 15", summary[0].MetricMean)
	}
}

func TestRecordResultValidation(t *testing.T) {
	s := newTestServer(t)
	run := createTestRun(t, s)

	tests := []struct {
		name       string
		target     string
		body       string
		wantStatus int
	}{
		{"missing run_id", "/run/result", `{"sample_index": 0, "metric": 1}`, http.StatusBadRequest},
		{"missing fields", "/run/result?run_id=" + run.ID, `{}`, http.StatusBadRequest},
		{"unknown sample", "/run/result?run_id=" + run.ID, `{"sample_index": 999, "metric": 1}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewJSONRequest(http.MethodPost, tt.target, tt.body)
			rec := testutil.NewTestRecorder()
			s.ServeMux().ServeHTTP(rec, req)
			testutil.AssertStatusCode(t, rec.Code, tt.wantStatus)
		})
	}
}

func TestSweepChart(t *testing.T) {
	s := newTestServer(t)

	req := testutil.NewJSONRequest(http.MethodPost, "/sweep/chart", sampleSpec)
	rec := testutil.NewTestRecorder()
	s.ServeMux().ServeHTTP(rec, req)

	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	if rec.Body.Len() == 0 {
		t.Error("chart response body is empty")
	}
}

func TestSweepChartNeedsTwoParameters(t *testing.T) {
	s := newTestServer(t)

	body := `{"repetitions": 1, "sweep": {"factors": [{"sweeps": [{"name": "x", "points": [1, 2]}]}]}}`
	req := testutil.NewJSONRequest(http.MethodPost, "/sweep/chart", body)
	rec := testutil.NewTestRecorder()
	s.ServeMux().ServeHTTP(rec, req)
	testutil.AssertStatusCode(t, rec.Code, http.StatusUnprocessableEntity)
}
