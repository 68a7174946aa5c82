package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/flattex/flattex/internal/pipeline"
	"github.com/flattex/flattex/internal/report"
)

type flattenRequest struct {
	ProjectDir string `json:"project_dir"`
	RootDoc    string `json:"root_doc"`
	OutputDir  string `json:"output_dir"`
}

func (s *Server) handleFlatten(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req flattenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.ProjectDir == "" {
		jsonError(w, "project_dir is required", http.StatusBadRequest)
		return
	}
	projectDir, err := filepath.Abs(req.ProjectDir)
	if err != nil {
		jsonError(w, "invalid project_dir: "+err.Error(), http.StatusBadRequest)
		return
	}
	if info, err := os.Stat(projectDir); err != nil || !info.IsDir() {
		jsonError(w, "project_dir is not a directory", http.StatusBadRequest)
		return
	}

	rootDoc := req.RootDoc
	if rootDoc == "" {
		rootDoc = "main.tex"
	}

	outputDir := req.OutputDir
	if outputDir == "" {
		outputDir = projectDir + "-flat"
	}

	now := time.Now()
	job := &pipeline.Job{
		ID:         pipeline.NewJobID(),
		ProjectDir: projectDir,
		RootDoc:    rootDoc,
		OutputDir:  outputDir,
		Status:     pipeline.StatusQueued,
		Phase:      "queued",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"status":   job.Status,
		"poll_url": fmt.Sprintf("/api/flatten/%s/status", job.ID),
	})
}

func (s *Server) handleFlattenStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

func (s *Server) handleFlattenReport(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	md := job.Report()
	if md == "" {
		jsonError(w, "report not ready", http.StatusConflict)
		return
	}
	if r.URL.Query().Get("format") == "html" {
		out, err := report.RenderHTML(md)
		if err != nil {
			jsonError(w, "render report: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(out))
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(md))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"queue_depth": s.orchestrator.QueueDepth(),
		"runs":        s.orchestrator.Stats(),
	})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
