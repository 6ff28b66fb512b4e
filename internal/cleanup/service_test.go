package cleanup

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUpstream emulates the chat completions endpoint and answers with content.
func fakeUpstream(t *testing.T, content string, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Model          string `json:"model"`
			ResponseFormat struct {
				Type string `json:"type"`
			} `json:"response_format"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, "json_object", req.ResponseFormat.Type)
		if assert.Len(t, req.Messages, 2) {
			assert.Equal(t, "system", req.Messages[0].Role)
			assert.Equal(t, SystemPrompt, req.Messages[0].Content)
			assert.Equal(t, "user", req.Messages[1].Role)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestService(baseURL, key string) *Service {
	return NewService(Config{APIKey: key, BaseURL: baseURL, Model: "test-model"}, nil)
}

func TestService_Clean_Success(t *testing.T) {
	var calls atomic.Int32
	srv := fakeUpstream(t, `{"cleanedContent":"Remember to buy milk.","keywords":["milk","shopping","reminder"]}`, &calls)

	res, err := newTestService(srv.URL, "test-key").Clean(context.Background(), "remember to buy milk")
	require.NoError(t, err)
	assert.Equal(t, "Remember to buy milk.", res.CleanedContent)
	assert.Equal(t, []string{"milk", "shopping", "reminder"}, res.Keywords)
	assert.EqualValues(t, 1, calls.Load())
}

func TestService_Clean_NotConfigured(t *testing.T) {
	var calls atomic.Int32
	srv := fakeUpstream(t, `{}`, &calls)

	svc := newTestService(srv.URL, "")
	assert.False(t, svc.Configured())
	_, err := svc.Clean(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Zero(t, calls.Load(), "no upstream call without a key")
}

func TestService_Clean_EmptyText(t *testing.T) {
	var calls atomic.Int32
	srv := fakeUpstream(t, `{}`, &calls)

	_, err := newTestService(srv.URL, "test-key").Clean(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyText)
	assert.Zero(t, calls.Load())
}

func TestService_Clean_NonJSONContent(t *testing.T) {
	var calls atomic.Int32
	srv := fakeUpstream(t, `Here is the cleaned text: hello`, &calls)

	_, err := newTestService(srv.URL, "test-key").Clean(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestService_Clean_MissingFields(t *testing.T) {
	for _, content := range []string{
		`{"keywords":["a","b","c"]}`,
		`{"cleanedContent":"Hello."}`,
		`{"cleanedContent":"","keywords":[]}`,
	} {
		var calls atomic.Int32
		srv := fakeUpstream(t, content, &calls)
		_, err := newTestService(srv.URL, "test-key").Clean(context.Background(), "hello")
		assert.ErrorIs(t, err, ErrMalformedResponse, "content %s", content)
	}
}

func TestService_Clean_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid API Key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	_, err := newTestService(srv.URL, "test-key").Clean(context.Background(), "hello")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotConfigured))
	assert.Contains(t, err.Error(), "Invalid API Key")
}

func TestService_Clean_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","choices":[]}`))
	}))
	defer srv.Close()

	_, err := newTestService(srv.URL, "test-key").Clean(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", preview("short", 20))
	assert.Equal(t, "abc...", preview("abcdef", 3))
}
