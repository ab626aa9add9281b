package ml

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	embDomain "github.com/davicafu/tiendalab/internal/embedding/domain"
)

func TestEmbed_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/embed", r.URL.Path)

		var req struct {
			Text string `json:"text"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Wool coat outerwear", req.Text)

		json.NewEncoder(w).Encode(map[string]interface{}{"vector": []float32{0.1, 0.2, 0.3}})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	vec, err := client.Embed(context.Background(), "Wool coat outerwear")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestEmbed_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "inference error", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.Embed(context.Background(), "anything")
	assert.ErrorIs(t, err, embDomain.ErrEmbeddingFailed)
}

func TestEmbed_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		json.NewEncoder(w).Encode(map[string]interface{}{"vector": []float32{0.1}})
	}))
	defer server.Close()

	client := NewClient(server.URL, 20*time.Millisecond)
	_, err := client.Embed(context.Background(), "slow")
	assert.ErrorIs(t, err, embDomain.ErrEmbeddingFailed)
}

func TestEmbed_EmptyVector(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"vector": []float32{}})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.Embed(context.Background(), "anything")
	assert.ErrorIs(t, err, embDomain.ErrEmbeddingFailed)
}
