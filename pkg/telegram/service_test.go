package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendAlert(t *testing.T) {
	var got sendMessageRequest
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	s := NewService("TOKEN", 42)
	s.apiBase = srv.URL

	require.NoError(t, s.SendAlert(context.Background(), "SN-1 out of service."))
	assert.Equal(t, "/botTOKEN/sendMessage", path)
	assert.Equal(t, int64(42), got.ChatID)
	assert.Equal(t, "SN\\-1 out of service\\.", got.Text)
}

func TestSendAlert_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"chat not found"}`))
	}))
	defer srv.Close()

	s := NewService("TOKEN", 42)
	s.apiBase = srv.URL
	err := s.SendAlert(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestSendAlert_NotConfigured(t *testing.T) {
	assert.NoError(t, NewService("", 0).SendAlert(context.Background(), "x"))
}
