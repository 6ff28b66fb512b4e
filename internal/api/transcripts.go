package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/starford/echonotes/internal/transcript"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Same policy as CORS: every origin is allowed.
	CheckOrigin: func(*http.Request) bool { return true },
}

// PostTranscript handles POST /api/transcripts.
//
//	@Summary		Submit a speech-engine segment
//	@Description	A final segment containing "note this" creates a placeholder note that is cleaned in the background.
//	@Tags			transcripts
//	@Accept			json
//	@Produce		json
//	@Param			body	body		transcript.Segment	true	"Segment event"
//	@Success		202		{object}	TranscriptResponse
//	@Success		204		"Segment ignored"
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/transcripts [post]
func (h *Handler) PostTranscript(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var seg transcript.Segment
	if err := json.NewDecoder(r.Body).Decode(&seg); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	note, created, err := h.intake.Handle(seg)
	if err != nil {
		h.storeError(w, "create note from transcript", err)
		return
	}
	if !created {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusAccepted, TranscriptResponse{Note: note})
}

// StreamTranscripts handles GET /api/transcripts/stream (WebSocket).
func (h *Handler) StreamTranscripts(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Debug("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	logger := h.logger.With(slog.String("remote", r.RemoteAddr))
	logger.Info("transcript stream connected")
	if err := h.intake.Serve(h.streamCtx, conn, logger); err != nil {
		logger.Warn("transcript stream ended", slog.String("error", err.Error()))
		return
	}
	logger.Info("transcript stream closed")
}
