package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/echonotes/internal/cleanup"
)

// CleanupHandler serves the stateless cleanup endpoints.
type CleanupHandler struct {
	cleaner cleanup.Cleaner
	logger  *slog.Logger
}

// NewCleanupHandler creates a CleanupHandler delegating to cleaner.
func NewCleanupHandler(cleaner cleanup.Cleaner, logger *slog.Logger) *CleanupHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CleanupHandler{cleaner: cleaner, logger: logger}
}

// Liveness handles GET /.
func (h *CleanupHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Echo Notes cleanup service is running"))
}

// CleanNote handles POST /clean-note.
//
//	@Summary		Fix grammar and extract three keywords
//	@Tags			cleanup
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CleanNoteRequest	true	"Raw transcript"
//	@Success		200		{object}	CleanNoteResponse
//	@Failure		400		{object}	errResponse
//	@Failure		500		{object}	errResponse
//	@Router			/clean-note [post]
func (h *CleanupHandler) CleanNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req CleanNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Text == nil || *req.Text == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("No text provided"))
		return
	}

	res, err := h.cleaner.Clean(r.Context(), *req.Text)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, CleanNoteResponse{CleanedContent: res.CleanedContent, Keywords: res.Keywords})
	case errors.Is(err, cleanup.ErrNotConfigured):
		h.logger.Error("cleanup requested without credential")
		writeJSON(w, http.StatusInternalServerError, errorDetails("Server Configuration Error", "GROQ_API_KEY is missing"))
	case errors.Is(err, cleanup.ErrEmptyText):
		writeJSON(w, http.StatusBadRequest, errorBody("No text provided"))
	default:
		h.logger.Error("cleanup failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorDetails("AI processing failed", err.Error()))
	}
}
