package cleanup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"
)

// Config configures the upstream completion API.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Service cleans text with one chat completion call per request.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	client *openai.Client
	model  string
	ready  bool
	logger *slog.Logger
}

// NewService builds a Service. A missing API key is not an error here:
// the service starts and every Clean call fails with ErrNotConfigured.
func NewService(cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return &Service{
		client: openai.NewClientWithConfig(oc),
		model:  cfg.Model,
		ready:  cfg.APIKey != "",
		logger: logger.With(slog.String("component", "cleanup")),
	}
}

// Configured reports whether an upstream credential is set.
func (s *Service) Configured() bool {
	return s.ready
}

// Clean sends text to the completion API and returns its parsed JSON answer.
func (s *Service) Clean(ctx context.Context, text string) (*Result, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	if !s.ready {
		return nil, ErrNotConfigured
	}

	s.logger.Debug("sending to upstream", slog.String("preview", preview(text, 20)))

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("cleanup: upstream: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", ErrMalformedResponse)
	}

	res, err := decodeResult([]byte(resp.Choices[0].Message.Content))
	if err != nil {
		return nil, err
	}
	s.logger.Debug("upstream success", slog.Any("keywords", res.Keywords))
	return res, nil
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
