package api

import "github.com/starford/echonotes/internal/models"

// CleanNoteRequest is the request body of POST /clean-note.
type CleanNoteRequest struct {
	Text *string `json:"text" example:"um remember to buy milk"`
}

// CleanNoteResponse is returned by POST /clean-note.
type CleanNoteResponse struct {
	CleanedContent string   `json:"cleanedContent" example:"Remember to buy milk." validate:"required"`
	Keywords       []string `json:"keywords" example:"milk,shopping,reminder" validate:"required"`
}

// CreateNoteRequest is the request body for creating a note manually.
type CreateNoteRequest struct {
	Title    string   `json:"title" example:"Groceries"`
	Content  string   `json:"content" example:"Buy oat milk." validate:"required"`
	Keywords []string `json:"keywords,omitempty"`
}

// UpdateNoteRequest is the request body for editing a note.
type UpdateNoteRequest struct {
	Title   string `json:"title" example:"Groceries"`
	Content string `json:"content" example:"Buy oat milk." validate:"required"`
}

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []models.Note `json:"notes" validate:"required"`
	Total int           `json:"total" example:"42" validate:"required"`
}

// PartitionResponse holds the two display groups.
type PartitionResponse struct {
	Active  []models.Note `json:"active" validate:"required"`
	Stashed []models.Note `json:"stashed" validate:"required"`
}

// TranscriptResponse is returned when a segment created a note.
type TranscriptResponse struct {
	Note models.Note `json:"note" validate:"required"`
}

// UserResponse wraps the current user's profile.
type UserResponse struct {
	User models.Profile `json:"user" validate:"required"`
}
