package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *APIClient {
	return &APIClient{baseURL: baseURL, httpClient: &http.Client{}}
}

func TestAPIClient_StreamChat_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/chat", r.URL.Path)

		var req struct {
			Messages []ChatMessage `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, "streamed answer")
	}))
	defer srv.Close()

	apiClient := newTestClient(srv.URL)
	body, err := apiClient.StreamChat(context.Background(), []ChatMessage{
		{Role: "user", Content: "What do you do?"},
	})
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "streamed answer", string(data))
}

func TestAPIClient_StreamChat_ErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"Failed to process chat request","details":"connection refused"}`)
	}))
	defer srv.Close()

	apiClient := newTestClient(srv.URL)
	_, err := apiClient.StreamChat(context.Background(), []ChatMessage{
		{Role: "user", Content: "hi"},
	})
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "Failed to process chat request", apiErr.Message)
	assert.Equal(t, "connection refused", apiErr.Details)
}

func TestAPIClient_StreamChat_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "bad gateway")
	}))
	defer srv.Close()

	apiClient := newTestClient(srv.URL)
	_, err := apiClient.StreamChat(context.Background(), nil)
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "bad gateway", apiErr.Message)
}

func TestAPIClient_Health(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"data":{"status":"ok"}}`)
	}))
	defer srv.Close()

	apiClient := newTestClient(srv.URL)
	assert.NoError(t, apiClient.Health(context.Background()))
}

func TestAPIClient_Health_Down(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	apiClient := newTestClient(srv.URL)
	assert.Error(t, apiClient.Health(context.Background()))
}
