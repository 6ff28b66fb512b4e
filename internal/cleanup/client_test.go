package cleanup

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Clean(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/clean-note", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "buy milk", body["text"])
		_, _ = w.Write([]byte(`{"cleanedContent":"Buy milk.","keywords":["milk","shopping","errand"]}`))
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL+"/", nil).Clean(context.Background(), "buy milk")
	require.NoError(t, err)
	assert.Equal(t, "Buy milk.", res.CleanedContent)
	assert.Len(t, res.Keywords, 3)
}

func TestClient_Clean_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"AI processing failed","details":"boom"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).Clean(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestClient_Clean_Empty(t *testing.T) {
	_, err := NewClient("http://unused", nil).Clean(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyText)
}
