package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/banshee-data/paramsweep/internal/httputil"
	"github.com/banshee-data/paramsweep/internal/specio"
	"github.com/banshee-data/paramsweep/internal/sweep"
)

// specError maps engine and codec failures onto HTTP statuses. Spec-level
// contract violations are the client's fault and distinguishable from
// transport-level bad JSON only by the sentinel they wrap.
func specError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sweep.ErrInvalidSweep),
		errors.Is(err, sweep.ErrDuplicateParameter),
		errors.Is(err, sweep.ErrMalformedSpec):
		httputil.WriteJSONError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		httputil.BadRequest(w, err.Error())
	}
}

// decodeSpec reads a run spec from the request body and returns the spec
// along with its original JSON for persistence.
func decodeSpec(r *http.Request) (sweep.RunSpec, string, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return sweep.RunSpec{}, "", fmt.Errorf("failed to read request body: %w", err)
	}
	spec, err := specio.Unmarshal(body)
	if err != nil {
		return sweep.RunSpec{}, "", err
	}
	return spec, string(body), nil
}

// expandSweep expands a spec without persisting anything.
func (s *Server) expandSweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	spec, _, err := decodeSpec(r)
	if err != nil {
		specError(w, err)
		return
	}

	assignments, err := spec.Expand()
	if err != nil {
		specError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"total":       len(assignments),
		"assignments": assignments,
	})
}

// runsHandler creates a run (POST) or lists runs (GET).
func (s *Server) runsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createRun(w, r)
	case http.MethodGet:
		s.listRuns(w, r)
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) createRun(w http.ResponseWriter, r *http.Request) {
	spec, specJSON, err := decodeSpec(r)
	if err != nil {
		specError(w, err)
		return
	}

	run, err := s.db.CreateRun(spec, specJSON)
	if err != nil {
		if errors.Is(err, sweep.ErrInvalidSweep) || errors.Is(err, sweep.ErrDuplicateParameter) {
			specError(w, err)
			return
		}
		httputil.InternalServerError(w, fmt.Sprintf("failed to create run: %v", err))
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, run)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.db.ListRuns()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to list runs: %v", err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, runs)
}

func (s *Server) runSamples(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	runID := r.URL.Query().Get("run_id")
	if runID == "" {
		httputil.BadRequest(w, "run_id is required")
		return
	}
	if _, err := s.db.GetRun(runID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httputil.NotFound(w, fmt.Sprintf("no run %s", runID))
			return
		}
		httputil.InternalServerError(w, err.Error())
		return
	}

	samples, err := s.db.RunSamples(runID)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to load samples: %v", err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, samples)
}

// recordResult stores a metric for one sample of a run. Body:
// {"sample_index": 3, "metric": 0.92}; run_id comes from the query string.
func (s *Server) recordResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	runID := r.URL.Query().Get("run_id")
	if runID == "" {
		httputil.BadRequest(w, "run_id is required")
		return
	}

	var req struct {
		SampleIndex *int     `json:"sample_index"`
		Metric      *float64 `json:"metric"`
	}
	if err := readJSONBody(r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if req.SampleIndex == nil || req.Metric == nil {
		httputil.BadRequest(w, "sample_index and metric are required")
		return
	}

	if err := s.db.RecordResult(runID, *req.SampleIndex, *req.Metric); err != nil {
		httputil.NotFound(w, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

func (s *Server) runSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	runID := r.URL.Query().Get("run_id")
	if runID == "" {
		httputil.BadRequest(w, "run_id is required")
		return
	}
	if _, err := s.db.GetRun(runID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httputil.NotFound(w, fmt.Sprintf("no run %s", runID))
			return
		}
		httputil.InternalServerError(w, err.Error())
		return
	}

	summary, err := s.db.RunSummary(runID)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to summarise run: %v", err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

func readJSONBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse request JSON: %w", err)
	}
	return nil
}

// parseIntQuery returns the integer query parameter or the fallback.
func parseIntQuery(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
