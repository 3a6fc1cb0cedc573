package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Benny93/dec-go/internal/storage"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListRuns(r.Context())
	storeOK := err == nil

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"version":   s.version,
		"uptime":    time.Since(s.started).Seconds(),
		"store":     storeOK,
		"run_count": len(runs),
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListRuns(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if runs == nil {
		runs = []*storage.RunInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.resolveRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleListIntervals(w http.ResponseWriter, r *http.Request) {
	run, ok := s.resolveRun(w, r)
	if !ok {
		return
	}

	summaries, err := s.store.ListIntervals(r.Context(), run.ID)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if summaries == nil {
		summaries = []storage.IntervalSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":    run.ID,
		"intervals": summaries,
	})
}

func (s *Server) handleGetInterval(w http.ResponseWriter, r *http.Request) {
	run, ok := s.resolveRun(w, r)
	if !ok {
		return
	}

	interval, err := strconv.Atoi(chi.URLParam(r, "interval"))
	if err != nil || interval < 0 {
		writeError(w, http.StatusBadRequest, "interval must be a non-negative integer")
		return
	}

	limit := run.TopK
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
	}

	rec, err := s.store.GetInterval(r.Context(), run.ID, interval)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "interval not found")
		return
	}

	summary := rec.Summary()
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":    run.ID,
		"interval":  summary,
		"removed":   rec.Removed,
		"keywords":  rec.Top(limit),
		"topics":    rec.Topics,
		"total":     len(rec.Keywords),
		"stored_at": rec.StoredAt,
	})
}

func (s *Server) handleKeywordHistory(w http.ResponseWriter, r *http.Request) {
	run, ok := s.resolveRun(w, r)
	if !ok {
		return
	}
	keyword, points, err := storage.FindKeywordHistory(r.Context(), s.store, run.ID, chi.URLParam(r, "keyword"))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if points == nil {
		points = []storage.KeywordPoint{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":  run.ID,
		"keyword": keyword,
		"history": points,
	})
}

// resolveRun looks up the {runID} parameter, accepting LatestRunID. It writes
// the error response itself and reports whether the handler may continue.
func (s *Server) resolveRun(w http.ResponseWriter, r *http.Request) (*storage.RunInfo, bool) {
	runID := chi.URLParam(r, "runID")

	var (
		run *storage.RunInfo
		err error
	)
	if runID == LatestRunID {
		run, err = s.store.LatestRun(r.Context())
	} else {
		run, err = s.store.GetRun(r.Context(), runID)
	}
	if err != nil {
		s.internalError(w, r, err)
		return nil, false
	}
	if run == nil {
		writeError(w, http.StatusNotFound, "run not found")
		return nil, false
	}
	return run, true
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}
