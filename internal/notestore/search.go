package notestore

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/starford/echonotes/internal/models"
)

// Match reports whether note contains query, ignoring case, in its content or
// in any keyword. An empty query matches every note.
func Match(note models.Note, query string) bool {
	fold := cases.Fold()
	return matchFolded(fold, note, fold.String(query))
}

func matchFolded(fold cases.Caser, note models.Note, q string) bool {
	if q == "" {
		return true
	}
	if strings.Contains(fold.String(note.Content), q) {
		return true
	}
	for _, k := range note.Keywords {
		if strings.Contains(fold.String(k), q) {
			return true
		}
	}
	return false
}

// Filter returns copies of the notes matching query, preserving order.
func Filter(notes []models.Note, query string) []models.Note {
	fold := cases.Fold()
	q := fold.String(query)
	out := []models.Note{}
	for _, n := range notes {
		if matchFolded(fold, n, q) {
			out = append(out, n.Clone())
		}
	}
	return out
}

// Partition splits notes into the active and stashed display groups.
func Partition(notes []models.Note) (active, stashed []models.Note) {
	active, stashed = []models.Note{}, []models.Note{}
	for _, n := range notes {
		if n.Stashed {
			stashed = append(stashed, n)
		} else {
			active = append(active, n)
		}
	}
	return active, stashed
}
