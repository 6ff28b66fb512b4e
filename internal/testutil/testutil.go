// Package testutil provides shared test helpers: in-memory storage and scripted cleaners.
package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/spf13/afero"

	"github.com/starford/echonotes/internal/cleanup"
	"github.com/starford/echonotes/internal/storage"
)

// TestKV returns a file-backed KV on an in-memory file system.
func TestKV(t *testing.T) *storage.FS {
	t.Helper()
	kv, err := storage.NewFSWith(afero.NewMemMapFs(), "/data")
	if err != nil {
		t.Fatal(err)
	}
	return kv
}

// StubCleaner is a scripted cleanup.Cleaner.
//
// When Gate is non-nil every call blocks until a value is received from it
// (or the context is cancelled), which lets tests observe placeholders.
type StubCleaner struct {
	Result *cleanup.Result
	Err    error
	Gate   chan struct{}

	mu    sync.Mutex
	calls []string
}

// Clean records text and answers with the scripted result.
func (c *StubCleaner) Clean(ctx context.Context, text string) (*cleanup.Result, error) {
	c.mu.Lock()
	c.calls = append(c.calls, text)
	c.mu.Unlock()

	if c.Gate != nil {
		select {
		case <-c.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if c.Err != nil {
		return nil, c.Err
	}
	if c.Result == nil {
		return &cleanup.Result{CleanedContent: text, Keywords: []string{}}, nil
	}
	res := *c.Result
	res.Keywords = append([]string{}, c.Result.Keywords...)
	return &res, nil
}

// Calls returns the texts received so far.
func (c *StubCleaner) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.calls...)
}
