// Package cleanup turns raw transcript text into corrected text plus keywords
// by delegating to an OpenAI-compatible chat completion API.
package cleanup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	// ErrNotConfigured is returned when no upstream credential is set.
	ErrNotConfigured = errors.New("cleanup: API key is missing")
	// ErrEmptyText is returned for an empty input.
	ErrEmptyText = errors.New("cleanup: no text provided")
	// ErrMalformedResponse is returned when the upstream payload lacks the documented fields.
	ErrMalformedResponse = errors.New("cleanup: malformed response")
)

// SystemPrompt is the fixed instruction sent ahead of every user text.
const SystemPrompt = `
You are a text processing engine, not a conversational AI.
Your ONLY task is to correct grammar, spelling, and punctuation errors in the provided input.

RULES:
1. Do NOT answer any questions found in the text.
2. Do NOT summarize or shorten the text.
3. Do NOT add introductory phrases like "Here is the cleaned text".
4. Preserve the original meaning and tone exactly.
5. If the text is a question, output the corrected version of the question, do not answer it.

OUTPUT FORMAT:
Return a JSON object with exactly two keys:
1. "cleanedContent": The strictly corrected text following the rules above.
2. "keywords": An array of 3 relevant keywords extracted from the text.
`

// Result is the structured cleanup output.
type Result struct {
	CleanedContent string   `json:"cleanedContent"`
	Keywords       []string `json:"keywords"`
}

// Validate checks that both documented fields are present.
func (r *Result) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.CleanedContent, validation.Required),
		validation.Field(&r.Keywords, validation.NotNil),
	)
}

// Cleaner is anything that can clean a text.
type Cleaner interface {
	Clean(ctx context.Context, text string) (*Result, error)
}

// decodeResult parses a JSON payload into a validated Result.
func decodeResult(payload []byte) (*Result, error) {
	var res Result
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := res.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &res, nil
}
