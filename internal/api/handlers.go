package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/docuscout/docuscout/internal/pipeline"
	"github.com/docuscout/docuscout/internal/playbook"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleStartIngest(w http.ResponseWriter, r *http.Request) {
	run, err := s.runner.StartIngest(r.Context())
	if err != nil {
		if errors.Is(err, pipeline.ErrRunInFlight) {
			jsonError(w, err.Error(), http.StatusConflict)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeRunAccepted(w, run)
}

func (s *Server) handleStartAudit(w http.ResponseWriter, r *http.Request) {
	run, err := s.runner.StartAudit(r.Context())
	if err != nil {
		if errors.Is(err, pipeline.ErrRunInFlight) {
			jsonError(w, err.Error(), http.StatusConflict)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeRunAccepted(w, run)
}

func writeRunAccepted(w http.ResponseWriter, run *pipeline.Run) {
	snap := run.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"run_id":   snap.ID,
		"kind":     snap.Kind,
		"status":   snap.Status,
		"poll_url": fmt.Sprintf("/api/runs/%s", snap.ID),
	})
}

func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	run := s.runner.GetRun(runID)
	if run == nil {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(run.Snapshot())
}

func (s *Server) handleGetPlaybook(w http.ResponseWriter, r *http.Request) {
	pb, err := s.runner.LatestPlaybook()
	if err != nil {
		if errors.Is(err, playbook.ErrMalformed) {
			jsonError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		jsonError(w, "no playbook available", http.StatusNotFound)
		return
	}
	data, err := pb.Marshal()
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	data, err := os.ReadFile(s.cfg.ReportPath)
	if err != nil {
		jsonError(w, "no report available", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write(data)
}

func (s *Server) handleLookupStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.stats.Snapshot())
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
