package embed

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOllamaServer(t *testing.T, dims int, requests *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests != nil {
			requests.Add(1)
		}
		assert.Equal(t, "/api/embed", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		resp := OllamaEmbedResponse{Model: req.Model}
		for i := range req.Input {
			emb := make([]float64, dims)
			emb[i%dims] = 3
			emb[(i+1)%dims] = 4
			resp.Embeddings = append(resp.Embeddings, emb)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestOllamaEmbedder_EmbedBatch_SplitsIntoRequests(t *testing.T) {
	// Given: a server and a batch size of 2
	var requests atomic.Int64
	srv := newOllamaServer(t, 8, &requests)
	defer srv.Close()

	e := NewOllamaEmbedder(OllamaConfig{Host: srv.URL, BatchSize: 2})
	defer e.Close()

	// When: embedding five texts
	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c", "d", "e"})
	require.NoError(t, err)

	// Then: three requests, five normalized vectors, dims learned
	assert.Equal(t, int64(3), requests.Load())
	require.Len(t, vecs, 5)
	for _, v := range vecs {
		var sum float64
		for _, x := range v {
			sum += float64(x) * float64(x)
		}
		assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
	}
	assert.Equal(t, 8, e.Dimensions())
	assert.Equal(t, DefaultOllamaModel, e.ModelName())
}

func TestOllamaEmbedder_Embed_ServerErrorIsNotRetried(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(OllamaConfig{Host: srv.URL})
	_, err := e.Embed(context.Background(), "hello")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, int64(1), requests.Load())
}

func TestOllamaEmbedder_Embed_UnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	e := NewOllamaEmbedder(OllamaConfig{Host: url})
	_, err := e.Embed(context.Background(), "hello")
	assert.Error(t, err)
}

func TestOllamaEmbedder_Close_RejectsFurtherCalls(t *testing.T) {
	srv := newOllamaServer(t, 4, nil)
	defer srv.Close()

	e := NewOllamaEmbedder(OllamaConfig{Host: srv.URL})
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	_, err := e.Embed(context.Background(), "x")
	assert.Error(t, err)
}
