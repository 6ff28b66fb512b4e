// Package transcript turns speech-engine segment events into notes.
package transcript

import (
	"regexp"
	"strings"

	"github.com/starford/echonotes/internal/models"
)

// TriggerPhrase is the spoken command that turns a final segment into a note.
const TriggerPhrase = "note this"

var triggerRe = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(TriggerPhrase))

// Segment is one transcript event from the speech engine.
type Segment struct {
	Transcript string `json:"transcript"`
	IsFinal    bool   `json:"isFinal"`
}

// Extract returns the note text carried by seg.
// Only final segments that contain the trigger phrase qualify. Every occurrence
// of the phrase is removed and the rest trimmed; ok is false when nothing is left.
func Extract(seg Segment) (text string, ok bool) {
	if !seg.IsFinal || !triggerRe.MatchString(seg.Transcript) {
		return "", false
	}
	text = strings.TrimSpace(triggerRe.ReplaceAllString(seg.Transcript, ""))
	return text, text != ""
}

// NoteCreator is the part of the note store the intake needs.
type NoteCreator interface {
	CreateFromTranscript(text string) (models.Note, error)
}

// Intake feeds qualifying segments into a NoteCreator.
type Intake struct {
	notes NoteCreator
}

// NewIntake returns an Intake creating notes through notes.
func NewIntake(notes NoteCreator) *Intake {
	return &Intake{notes: notes}
}

// Handle creates a placeholder note when seg qualifies.
// created is false for interim segments and segments without the trigger phrase.
func (in *Intake) Handle(seg Segment) (note models.Note, created bool, err error) {
	text, ok := Extract(seg)
	if !ok {
		return models.Note{}, false, nil
	}
	note, err = in.notes.CreateFromTranscript(text)
	if err != nil {
		return models.Note{}, false, err
	}
	return note, true, nil
}
