package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellbyte/backend/internal/infrastructure/config"
)

func TestBuildEmbeddingURL(t *testing.T) {
	tests := []struct {
		name     string
		baseURL  string
		expected string
	}{
		{"完整路径", "https://api.openai.com/v1/embeddings", "https://api.openai.com/v1/embeddings"},
		{"以 /v1 结尾", "https://api.openai.com/v1", "https://api.openai.com/v1/embeddings"},
		{"以 /v1/ 结尾", "https://api.openai.com/v1/", "https://api.openai.com/v1/embeddings"},
		{"裸域名", "https://api.example.com", "https://api.example.com/v1/embeddings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildEmbeddingURL(tt.baseURL))
		})
	}
}

func TestEmbedTexts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req EmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-embed-model", req.Model)

		resp := EmbeddingResponse{Model: req.Model}
		for i := range req.Input {
			resp.Data = append(resp.Data, struct {
				Embedding []float32 `json:"embedding"`
				Index     int       `json:"index"`
			}{
				Embedding: []float32{float32(i), 0.5, 0.25},
				Index:     i,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	client := NewClient(&config.AIConfig{
		EmbeddingBaseURL: server.URL + "/v1",
		EmbeddingAPIKey:  "test-key",
		EmbeddingModel:   "test-embed-model",
	})

	vectors, err := client.EmbedTexts(context.Background(), []string{"hello", "world"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0, 0.5, 0.25}, vectors[0])
	assert.Equal(t, []float32{1, 0.5, 0.25}, vectors[1])
}

func TestEmbedTextsEmpty(t *testing.T) {
	client := NewClient(&config.AIConfig{
		EmbeddingBaseURL: "http://localhost:1",
		EmbeddingModel:   "m",
	})

	_, err := client.EmbedTexts(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "texts cannot be empty")
}

func TestGetVectorDimension(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := EmbeddingResponse{}
		resp.Data = append(resp.Data, struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}{
			Embedding: make([]float32, 1536),
			Index:     0,
		})
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	client := NewClient(&config.AIConfig{
		EmbeddingBaseURL: server.URL,
		EmbeddingAPIKey:  "k",
		EmbeddingModel:   "m",
	})

	dim, err := client.GetVectorDimension(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1536, dim)
}
