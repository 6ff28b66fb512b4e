package export

import (
	"strings"
	"testing"
	"time"

	"github.com/starford/echonotes/internal/models"
)

func TestRender(t *testing.T) {
	n := models.Note{
		ID:       "01HZX",
		Date:     time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
		Title:    "milk",
		Content:  "Remember to buy milk.",
		Keywords: []string{"milk", "shopping", "reminder"},
	}
	out, err := Render(n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := string(out)
	if !strings.HasPrefix(s, "---\nid: 01HZX\ntitle: milk\n") {
		t.Errorf("frontmatter = %q", s)
	}
	if strings.Contains(s, "stashed") {
		t.Errorf("stashed=false should be omitted: %q", s)
	}
	if !strings.HasSuffix(s, "---\n\nRemember to buy milk.\n") {
		t.Errorf("body = %q", s)
	}
}

func TestRenderParseRoundTrip(t *testing.T) {
	n := models.Note{
		ID:       "01HZX",
		Date:     time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
		Title:    "milk",
		Content:  "Remember to buy milk.\nAnd eggs.",
		Keywords: []string{"milk", "shopping"},
		Stashed:  true,
	}
	out, err := Render(n)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	doc, err := Parse(out)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Title != n.Title || doc.Content != n.Content || !doc.Stashed || !doc.Date.Equal(n.Date) {
		t.Errorf("doc = %+v", doc)
	}
	if strings.Join(doc.Keywords, ",") != "milk,shopping" {
		t.Errorf("keywords = %v", doc.Keywords)
	}
}

func TestParse_HeadingTitleAndTags(t *testing.T) {
	doc, err := Parse([]byte("# Groceries\n\nBuy oat milk #shopping and bread #errand\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Groceries" {
		t.Errorf("title = %q", doc.Title)
	}
	if doc.Content != "Buy oat milk #shopping and bread #errand" {
		t.Errorf("content = %q", doc.Content)
	}
	if strings.Join(doc.Keywords, ",") != "shopping,errand" {
		t.Errorf("keywords = %v", doc.Keywords)
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	doc, err := Parse([]byte("---\n: invalid: yaml: {{{\n---\nBody\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(doc.Content, "Body") || doc.Title != "" {
		t.Errorf("doc = %+v", doc)
	}
}

func TestParse_Empty(t *testing.T) {
	if _, err := Parse([]byte("---\ntitle: x\n---\n\n")); err == nil {
		t.Fatal("expected error for empty content")
	}
}

func TestFilename(t *testing.T) {
	tests := map[string]string{
		"milk":            "milk.md",
		"Call Mom, today": "call-mom-today.md",
		"Processing...":   "processing.md",
		"":                "note.md",
	}
	for title, want := range tests {
		if got := Filename(models.Note{Title: title}); got != want {
			t.Errorf("Filename(%q) = %q, want %q", title, got, want)
		}
	}
}
