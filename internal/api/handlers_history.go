package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dgallion1/longform/internal/store"
	"github.com/go-chi/chi/v5"
)

// handleListExports lists finished exports, newest first.
func (s *Server) handleListExports(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		jsonError(w, "export history unavailable", http.StatusServiceUnavailable)
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, 500)
	}

	records, err := s.history.List(r.Context(), r.URL.Query().Get("root"), limit)
	if err != nil {
		jsonError(w, "failed to list exports: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []store.Record{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"exports": records})
}

func (s *Server) handleGetExport(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		jsonError(w, "export history unavailable", http.StatusServiceUnavailable)
		return
	}
	rec, err := s.history.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "export not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to read export: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}
