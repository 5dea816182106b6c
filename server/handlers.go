package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"RaspCD/core/info"
	"RaspCD/logger"
	"RaspCD/model"

	"github.com/gorilla/mux"
)

const requestTimeout = 5 * time.Second

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to write response", logger.ErrorField(err))
	}
}

// handleMediaPlayerInfo 返回播放器显示名称
func (s *Server) handleMediaPlayerInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, s.Name())
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.deps.Info == nil {
		http.Error(w, "player not available", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Info.Snapshot(r.Context(), model.FullInfo))
}

// handleLibrary lists played discs; ?limit=N caps the result.
func (s *Server) handleLibrary(w http.ResponseWriter, r *http.Request) {
	if s.deps.Library == nil {
		writeJSON(w, http.StatusOK, []model.LibraryEntry{})
		return
	}

	limit := info.LibraryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := s.deps.Library.List(r.Context(), limit)
	if err != nil {
		logger.Error("failed to list library", logger.ErrorField(err))
		http.Error(w, "library unavailable", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []model.LibraryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleLibraryEntry returns one played disc by its disc id.
func (s *Server) handleLibraryEntry(w http.ResponseWriter, r *http.Request) {
	if s.deps.Library == nil {
		http.NotFound(w, r)
		return
	}
	discID := mux.Vars(r)["discID"]
	entry, err := s.deps.Library.GetByDiscID(r.Context(), discID)
	if err != nil {
		logger.Error("failed to load library entry", logger.String("discId", discID), logger.ErrorField(err))
		http.Error(w, "library unavailable", http.StatusInternalServerError)
		return
	}
	if entry == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
