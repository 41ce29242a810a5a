package web

import (
	"errors"
	"io"
	"net/http"

	"github.com/Munene001/bigosbackend/internal/service"
)

func (s *Server) handleDeleteImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "image_id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid image id")
		return
	}

	if err := s.service.DeleteImage(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrImageNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "image not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to delete image")
		s.logger.Error("delete image failed", "image_id", id, "error", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Image deleted successfully",
	})
}

// handleGetImage serves a stored image file by its generated name.
func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")

	reader, mimeType, err := s.blobs.Open(r.Context(), filename)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer closeWithLog(reader, "image reader")

	w.Header().Set("Content-Type", mimeType)
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write image failed", "filename", filename, "error", err)
	}
}
