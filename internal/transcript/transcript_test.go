package transcript

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/echonotes/internal/models"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		seg  Segment
		want string
		ok   bool
	}{
		{"final with trigger", Segment{"note this remember to buy milk", true}, "remember to buy milk", true},
		{"trigger at end", Segment{"call mom tomorrow note this", true}, "call mom tomorrow", true},
		{"mixed case", Segment{"Note This pick up keys", true}, "pick up keys", true},
		{"every occurrence removed", Segment{"note this water plants note this", true}, "water plants", true},
		{"interim ignored", Segment{"note this remember to buy milk", false}, "", false},
		{"no trigger", Segment{"remember to buy milk", true}, "", false},
		{"trigger only", Segment{"  note this  ", true}, "", false},
		{"empty", Segment{"", true}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract(tt.seg)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

type fakeCreator struct {
	texts []string
	err   error
}

func (f *fakeCreator) CreateFromTranscript(text string) (models.Note, error) {
	if f.err != nil {
		return models.Note{}, f.err
	}
	f.texts = append(f.texts, text)
	return models.Note{ID: "n1", Title: models.PlaceholderTitle, Content: text, Keywords: []string{}}, nil
}

func TestIntake_Handle(t *testing.T) {
	fc := &fakeCreator{}
	in := NewIntake(fc)

	_, created, err := in.Handle(Segment{Transcript: "note this buy milk", IsFinal: false})
	require.NoError(t, err)
	assert.False(t, created)

	note, created, err := in.Handle(Segment{Transcript: "note this buy milk", IsFinal: true})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "buy milk", note.Content)
	assert.Equal(t, []string{"buy milk"}, fc.texts)
}

func TestIntake_HandleError(t *testing.T) {
	in := NewIntake(&fakeCreator{err: errors.New("closed")})
	_, created, err := in.Handle(Segment{Transcript: "note this x", IsFinal: true})
	assert.Error(t, err)
	assert.False(t, created)
}
