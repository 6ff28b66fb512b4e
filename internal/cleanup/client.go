package cleanup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxResponseBytes = 1 << 20

// Client calls a remote Cleanup Service over its POST /clean-note endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a Client for the deployment at baseURL.
// A nil httpClient means http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Clean posts text and decodes the structured answer.
func (c *Client) Clean(ctx context.Context, text string) (*Result, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("cleanup: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/clean-note", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("cleanup: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cleanup: remote: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("cleanup: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cleanup: remote returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	return decodeResult(payload)
}
