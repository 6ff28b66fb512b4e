package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/echonotes/internal/accounts"
	"github.com/starford/echonotes/internal/apperr"
	"github.com/starford/echonotes/internal/export"
	"github.com/starford/echonotes/internal/notestore"
	"github.com/starford/echonotes/internal/transcript"
)

const maxBodyBytes = 1 << 20

// Deps are the collaborators the handlers work with.
type Deps struct {
	Notes  *notestore.Store
	Users  *accounts.Registry
	Logger *slog.Logger

	// StreamContext bounds transcript WebSocket sessions; cancel it on shutdown.
	StreamContext context.Context
}

// Handler holds API route handlers.
type Handler struct {
	notes     *notestore.Store
	users     *accounts.Registry
	intake    *transcript.Intake
	logger    *slog.Logger
	streamCtx context.Context
}

// NewHandler creates a new Handler.
func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx := d.StreamContext
	if ctx == nil {
		ctx = context.Background()
	}
	return &Handler{
		notes:     d.Notes,
		users:     d.Users,
		intake:    transcript.NewIntake(d.Notes),
		logger:    logger,
		streamCtx: ctx,
	}
}

func noteID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

// storeError writes the response for an unexpected store failure.
func (h *Handler) storeError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, apperr.ErrClosed) {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("shutting down"))
		return
	}
	h.logger.Error(op+" failed", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List or search notes
//	@Tags			notes
//	@Produce		json
//	@Param			q		query		string	false	"Case-insensitive match on content or keywords"
//	@Param			view	query		string	false	"Partition"	Enums(all, active, stashed)
//	@Success		200		{object}	NoteListResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view := q.Get("view")
	switch view {
	case "", "all", "active", "stashed":
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("view must be all, active or stashed"))
		return
	}

	notes, err := h.notes.Search(q.Get("q"))
	if err != nil {
		h.storeError(w, "list notes", err)
		return
	}
	active, stashed := notestore.Partition(notes)
	switch view {
	case "active":
		notes = active
	case "stashed":
		notes = stashed
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: len(notes)})
}

// Partitions handles GET /api/notes/partitions.
//
//	@Summary		Notes split into active and stashed groups
//	@Tags			notes
//	@Produce		json
//	@Param			q	query		string	false	"Search query"
//	@Success		200	{object}	PartitionResponse
//	@Security		BearerAuth
//	@Router			/notes/partitions [get]
func (h *Handler) Partitions(w http.ResponseWriter, r *http.Request) {
	notes, err := h.notes.Search(r.URL.Query().Get("q"))
	if err != nil {
		h.storeError(w, "partition notes", err)
		return
	}
	active, stashed := notestore.Partition(notes)
	writeJSON(w, http.StatusOK, PartitionResponse{Active: active, Stashed: stashed})
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a single note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	models.Note
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, found, err := h.notes.Get(noteID(r))
	if err != nil {
		h.storeError(w, "get note", err)
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// CreateNote handles POST /api/notes. A text/markdown body is imported
// (frontmatter title and keywords are kept); otherwise the body is JSON.
//
//	@Summary		Create a note manually or import Markdown
//	@Tags			notes
//	@Accept			json
//	@Accept			text/markdown
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	models.Note
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req CreateNoteRequest
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "text/markdown" {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
			return
		}
		doc, err := export.Parse(data)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
			return
		}
		req = CreateNoteRequest{Title: doc.Title, Content: doc.Content, Keywords: doc.Keywords}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	note, err := h.notes.Create(req.Title, req.Content, req.Keywords)
	if err != nil {
		if errors.Is(err, notestore.ErrEmptyContent) {
			writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
			return
		}
		h.storeError(w, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// UpdateNote handles PUT /api/notes/{id}.
//
//	@Summary		Edit title and content of a note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Note id"
//	@Param			body	body		UpdateNoteRequest	true	"New title and content"
//	@Success		200		{object}	models.Note
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	note, found, err := h.notes.Update(noteID(r), req.Title, req.Content)
	switch {
	case errors.Is(err, notestore.ErrEmptyContent):
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
	case err != nil:
		h.storeError(w, "update note", err)
	case !found:
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	default:
		writeJSON(w, http.StatusOK, note)
	}
}

// ToggleStash handles POST /api/notes/{id}/stash.
//
//	@Summary		Move a note between the active and stashed groups
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	models.Note
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/stash [post]
func (h *Handler) ToggleStash(w http.ResponseWriter, r *http.Request) {
	note, found, err := h.notes.ToggleStash(noteID(r))
	switch {
	case err != nil:
		h.storeError(w, "toggle stash", err)
	case !found:
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	default:
		writeJSON(w, http.StatusOK, note)
	}
}

// DeleteNote handles DELETE /api/notes/{id}?confirm=true.
//
//	@Summary		Permanently delete a note
//	@Tags			notes
//	@Param			id		path	string	true	"Note id"
//	@Param			confirm	query	bool	true	"Must be true"
//	@Success		204		"Note deleted"
//	@Failure		404		{object}	errResponse
//	@Failure		428		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	found, err := h.notes.Delete(noteID(r), confirmed)
	switch {
	case errors.Is(err, apperr.ErrConfirmationRequired):
		writeJSON(w, http.StatusPreconditionRequired, errorBody("deletion must be confirmed with confirm=true"))
	case err != nil:
		h.storeError(w, "delete note", err)
	case !found:
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// ExportNote handles GET /api/notes/{id}/export.
//
//	@Summary		Download a note as Markdown
//	@Tags			notes
//	@Produce		text/markdown
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{string}	string
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/export [get]
func (h *Handler) ExportNote(w http.ResponseWriter, r *http.Request) {
	note, found, err := h.notes.Get(noteID(r))
	if err != nil {
		h.storeError(w, "export note", err)
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	data, err := export.Render(note)
	if err != nil {
		h.logger.Error("render note failed", slog.String("id", note.ID), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": export.Filename(note)}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

