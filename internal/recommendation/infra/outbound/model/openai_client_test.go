package model

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	recoDomain "github.com/davicafu/tiendalab/internal/recommendation/domain"
)

func sampleTranscript() []recoDomain.ChatMessage {
	return []recoDomain.ChatMessage{
		{Role: "user", Content: "busco un abrigo rojo para invierno"},
	}
}

func TestOpenAIComplete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Model       string                   `json:"model"`
			Messages    []recoDomain.ChatMessage `json:"messages"`
			Temperature float64                  `json:"temperature"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o", req.Model)
		assert.InDelta(t, 0.7, req.Temperature, 0.001)
		// transcript + prompt como último turno de usuario
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "extract preferences", req.Messages[1].Content)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": `{"color":"red"}`}},
			},
		})
	}))
	defer server.Close()

	client := NewOpenAIClient(server.URL, "test-key", "gpt-4o", time.Second)
	summary, err := client.Complete(context.Background(), sampleTranscript(), "extract preferences")
	require.NoError(t, err)
	assert.Equal(t, `{"color":"red"}`, summary)
}

func TestOpenAIComplete_EmptyTranscript(t *testing.T) {
	client := NewOpenAIClient("http://unused", "k", "gpt-4o", time.Second)
	_, err := client.Complete(context.Background(), nil, "prompt")
	assert.ErrorIs(t, err, recoDomain.ErrExtractionFailed)
}

func TestOpenAIComplete_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewOpenAIClient(server.URL, "k", "gpt-4o", time.Second)
	_, err := client.Complete(context.Background(), sampleTranscript(), "prompt")
	assert.ErrorIs(t, err, recoDomain.ErrExtractionFailed)
}

func TestOpenAIComplete_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer server.Close()

	client := NewOpenAIClient(server.URL, "k", "gpt-4o", time.Second)
	_, err := client.Complete(context.Background(), sampleTranscript(), "prompt")
	assert.ErrorIs(t, err, recoDomain.ErrExtractionFailed)
}

func TestOpenAIComplete_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewOpenAIClient(server.URL, "k", "gpt-4o", 20*time.Millisecond)
	_, err := client.Complete(context.Background(), sampleTranscript(), "prompt")
	assert.ErrorIs(t, err, recoDomain.ErrExtractionFailed)
}

func TestOpenAIComplete_ContextCancelled(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drenar el body para que el servidor vigile la conexión y cancele
		// r.Context() cuando el cliente se desconecte.
		io.Copy(io.Discard, r.Body)
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	client := NewOpenAIClient(server.URL, "k", "gpt-4o", 5*time.Second)
	_, err := client.Complete(ctx, sampleTranscript(), "prompt")
	assert.ErrorIs(t, err, recoDomain.ErrExtractionFailed, "la cancelación aborta la llamada en curso")
}
