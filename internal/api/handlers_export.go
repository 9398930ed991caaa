package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dgallion1/longform/internal/config"
	"github.com/dgallion1/longform/internal/export"
	"github.com/dgallion1/longform/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

// maxRequestBytes bounds JSON request bodies, selections included.
const maxRequestBytes = 4 << 20

type exportRequest struct {
	Root    string         `json:"root"`
	Backend config.Backend `json:"backend,omitempty"`
	Replace *bool          `json:"replace_existing_files,omitempty"`
}

type batchRequest struct {
	Roots   []string       `json:"roots"`
	Backend config.Backend `json:"backend,omitempty"`
	Replace *bool          `json:"replace_existing_files,omitempty"`
}

type renderRequest struct {
	RelativeTo string         `json:"relative_to"`
	Markdown   string         `json:"markdown"`
	Backend    config.Backend `json:"backend,omitempty"`
}

// settingsFor applies per-request overrides to the server settings.
func (s *Server) settingsFor(backend config.Backend, replace *bool) (config.Settings, error) {
	settings := s.cfg.Settings
	if backend != "" {
		settings.Backend = backend
	}
	if replace != nil {
		settings.ReplaceExistingFiles = *replace
	}
	return settings, settings.Validate()
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	root := strings.TrimSpace(req.Root)
	if root == "" {
		jsonError(w, "root is required", http.StatusBadRequest)
		return
	}
	settings, err := s.settingsFor(req.Backend, req.Replace)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, ok := s.vault.Find(root); !ok {
		jsonError(w, "root note not found: "+root, http.StatusNotFound)
		return
	}

	job := pipeline.NewJob(root, settings)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"root":     job.Root,
		"status":   job.Status,
		"poll_url": fmt.Sprintf("/api/export/%s/status", job.ID),
	})
}

func (s *Server) handleBatchExport(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Roots) == 0 {
		jsonError(w, "at least one root is required", http.StatusBadRequest)
		return
	}
	settings, err := s.settingsFor(req.Backend, req.Replace)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var results []map[string]any
	for _, root := range req.Roots {
		root = strings.TrimSpace(root)
		if _, ok := s.vault.Find(root); !ok {
			results = append(results, map[string]any{
				"root":  root,
				"error": "root note not found",
			})
			continue
		}

		job := pipeline.NewJob(root, settings)
		if err := s.orchestrator.Submit(job); err != nil {
			results = append(results, map[string]any{
				"root":  root,
				"error": err.Error(),
			})
			continue
		}

		results = append(results, map[string]any{
			"root":     root,
			"job_id":   job.ID,
			"status":   job.Status,
			"poll_url": fmt.Sprintf("/api/export/%s/status", job.ID),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{"jobs": results})
}

func (s *Server) handleExportStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

// handleRender resolves a markdown selection synchronously, as if it were
// written in the note named by relative_to.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RelativeTo == "" {
		jsonError(w, "relative_to is required", http.StatusBadRequest)
		return
	}
	settings, err := s.settingsFor(req.Backend, nil)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	exp := export.New(s.vault, settings, s.log)
	res, err := exp.ExportSelection(r.Context(), req.RelativeTo, req.Markdown)
	if errors.Is(err, export.ErrRootNotFound) {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "render failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"backend":  res.Backend,
		"output":   res.Output,
		"labels":   res.Labels,
		"bib_keys": res.BibKeys,
		"media":    res.Media,
		"warnings": res.Warnings,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
