package server

import (
	"context"
	"io"
	"net/http"

	"RaspCD/logger"

	"github.com/gorilla/mux"
)

// handleCover serves the stored copy of a cover, otherwise it redirects to
// the Cover Art Archive.
func (s *Server) handleCover(w http.ResponseWriter, r *http.Request) {
	releaseID := mux.Vars(r)["releaseID"]
	if releaseID == "" {
		http.Error(w, "missing release id", http.StatusBadRequest)
		return
	}

	if s.deps.Covers != nil {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		object, contentType, err := s.deps.Covers.Get(ctx, releaseID)
		if err == nil {
			defer object.Close()
			if contentType == "" {
				contentType = "image/jpeg"
			}
			w.Header().Set("Content-Type", contentType)
			w.Header().Set("Cache-Control", "public, max-age=31536000")
			if _, err := io.Copy(w, object); err != nil {
				logger.Error("Error serving cover from MinIO", logger.ErrorField(err))
			}
			return
		}
		logger.Debug("cover not in store", logger.String("releaseId", releaseID), logger.ErrorField(err))
	}

	if s.deps.CoverURL == nil {
		http.Error(w, "cover not found", http.StatusNotFound)
		return
	}
	http.Redirect(w, r, s.deps.CoverURL(releaseID), http.StatusFound)
}
