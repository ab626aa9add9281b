package model

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	recoDomain "github.com/davicafu/tiendalab/internal/recommendation/domain"
)

func TestSelfHostedComplete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer hf-key", r.Header.Get("Authorization"))

		var req struct {
			Prompt   string                   `json:"prompt"`
			Messages []recoDomain.ChatMessage `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "extract preferences", req.Prompt)
		require.Len(t, req.Messages, 1)

		w.Write([]byte(`{"color":"red","season":"winter"}`))
	}))
	defer server.Close()

	client := NewSelfHostedClient(server.URL, "hf-key", time.Second)
	summary, err := client.Complete(context.Background(), sampleTranscript(), "extract preferences")
	require.NoError(t, err)
	assert.Equal(t, `{"color":"red","season":"winter"}`, summary)
}

func TestSelfHostedComplete_EmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("   "))
	}))
	defer server.Close()

	client := NewSelfHostedClient(server.URL, "k", time.Second)
	_, err := client.Complete(context.Background(), sampleTranscript(), "prompt")
	assert.ErrorIs(t, err, recoDomain.ErrExtractionFailed)
}

func TestSelfHostedComplete_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewSelfHostedClient(server.URL, "k", time.Second)
	_, err := client.Complete(context.Background(), sampleTranscript(), "prompt")
	assert.ErrorIs(t, err, recoDomain.ErrExtractionFailed)
}
