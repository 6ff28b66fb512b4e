package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a chi router with all /api routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/partitions", h.Partitions)
	r.Get("/notes/{id}", h.GetNote)
	r.Put("/notes/{id}", h.UpdateNote)
	r.Delete("/notes/{id}", h.DeleteNote)
	r.Post("/notes/{id}/stash", h.ToggleStash)
	r.Get("/notes/{id}/export", h.ExportNote)

	// Transcript intake.
	r.Post("/transcripts", h.PostTranscript)
	r.Get("/transcripts/stream", h.StreamTranscripts)

	// Accounts.
	r.Post("/users/register", h.Register)
	r.Post("/users/login", h.Login)
	r.Post("/users/logout", h.Logout)
	r.Get("/users/me", h.Me)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}

// NewRoot builds the top-level handler: CORS, request logging, health checks,
// the cleanup endpoints and the /api routes.
func NewRoot(ch *CleanupHandler, apiRouter http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(CORSMiddleware())

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", health)
	r.Get("/health/ready", health)

	r.Get("/", ch.Liveness)
	r.Post("/clean-note", ch.CleanNote)

	if apiRouter != nil {
		r.Mount("/api", apiRouter)
	}
	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
