// Package models defines the domain types for Echo Notes.
package models

import "time"

const (
	// PlaceholderTitle marks a note whose cleanup has not completed yet.
	PlaceholderTitle = "Processing..."
	// DefaultTitle is used when cleanup returns no usable keyword.
	DefaultTitle = "Note"
)

// Note is a single voice memo.
type Note struct {
	ID       string    `json:"id"`
	Date     time.Time `json:"date"`
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	Keywords []string  `json:"keywords"`
	Stashed  bool      `json:"stashed"`
}

// Clone returns a copy that shares no slices with n.
func (n Note) Clone() Note {
	c := n
	c.Keywords = append([]string{}, n.Keywords...)
	return c
}

// IsPlaceholder reports whether the note is still waiting for its cleanup result.
func (n Note) IsPlaceholder() bool {
	return n.Title == PlaceholderTitle
}

// TitleFromKeywords picks the display title for a cleaned note.
func TitleFromKeywords(keywords []string) string {
	if len(keywords) > 0 && keywords[0] != "" {
		return keywords[0]
	}
	return DefaultTitle
}
