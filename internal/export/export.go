// Package export renders notes as Markdown with YAML frontmatter and reads them back.
package export

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/echonotes/internal/models"
)

// ContentType is the media type of rendered notes.
const ContentType = "text/markdown; charset=utf-8"

var (
	tagRe  = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
	slugRe = regexp.MustCompile(`[^a-z0-9]+`)
)

type frontmatter struct {
	ID       string    `yaml:"id,omitempty"`
	Title    string    `yaml:"title,omitempty"`
	Date     time.Time `yaml:"date,omitempty"`
	Keywords []string  `yaml:"keywords,omitempty"`
	Stashed  bool      `yaml:"stashed,omitempty"`
}

// Document is a note read back from Markdown.
type Document struct {
	Title    string
	Date     time.Time
	Keywords []string
	Stashed  bool
	Content  string
}

// Render writes n as Markdown: a frontmatter block followed by the content.
func Render(n models.Note) ([]byte, error) {
	fm := frontmatter{
		ID:       n.ID,
		Title:    n.Title,
		Date:     n.Date.UTC(),
		Keywords: n.Keywords,
		Stashed:  n.Stashed,
	}
	head, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("export: encode frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(head)
	buf.WriteString("---\n\n")
	buf.WriteString(strings.TrimRight(n.Content, "\n"))
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

// Filename returns a download name for n derived from its title.
func Filename(n models.Note) string {
	slug := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(n.Title), "-"), "-")
	if slug == "" {
		slug = "note"
	}
	return slug + ".md"
}

// Parse reads a Markdown note. Frontmatter is optional; invalid YAML is treated
// as plain body. Without a frontmatter title the first H1 heading is used and
// dropped from the content. Inline #tags are added to the keywords.
func Parse(data []byte) (*Document, error) {
	fm, body := splitFrontmatter(data)

	doc := &Document{
		Title:    fm.Title,
		Date:     fm.Date,
		Stashed:  fm.Stashed,
		Keywords: []string{},
	}
	if doc.Title == "" {
		doc.Title, body = takeHeading(body)
	}
	doc.Content = strings.TrimSpace(body)
	doc.Keywords = collectKeywords(fm.Keywords, doc.Content)

	if doc.Content == "" {
		return nil, fmt.Errorf("export: document has no content")
	}
	return doc, nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the body. Without a well-formed block the whole input is body.
func splitFrontmatter(data []byte) (frontmatter, string) {
	const delim = "---"
	var fm frontmatter
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return fm, string(data)
	}
	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return fm, string(data)
	}

	block := rest[:idx]
	body := strings.TrimLeft(string(rest[idx+1+len(delim):]), "\n\r")
	if err := yaml.Unmarshal(block, &fm); err != nil {
		return frontmatter{}, string(data)
	}
	return fm, body
}

func takeHeading(body string) (string, string) {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "# ") {
			rest := append(lines[:i:i], lines[i+1:]...)
			return strings.TrimSpace(trimmed[2:]), strings.Join(rest, "\n")
		}
		break
	}
	return "", body
}

func collectKeywords(declared []string, body string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	add := func(k string) {
		k = strings.TrimSpace(k)
		if k == "" {
			return
		}
		if _, dup := seen[strings.ToLower(k)]; dup {
			return
		}
		seen[strings.ToLower(k)] = struct{}{}
		out = append(out, k)
	}
	for _, k := range declared {
		add(k)
	}
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}
