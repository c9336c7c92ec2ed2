package nlp_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylora/fashion-nlp/internal/nlp"
)

func TestRemoteNER_ExtractEntities(t *testing.T) {
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/ner", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"entities": []map[string]any{
				{"word": "Nike", "entity_group": "ORG", "score": 0.98},
			},
			"model_version": "ner-v2",
		})
	}))
	defer server.Close()

	client := nlp.NewRemoteNER(server.URL)
	entities, err := client.ExtractEntities(context.Background(), "I love my Nike hoodie")
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "Nike", entities[0].Word)
	assert.Equal(t, "ORG", entities[0].EntityGroup)
	assert.InDelta(t, 0.98, entities[0].Score, 1e-9)
	assert.Equal(t, "I love my Nike hoodie", gotBody["text"])
}

func TestRemoteNER_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := nlp.NewRemoteNER(server.URL)
	_, err := client.ExtractEntities(context.Background(), "denim jacket")
	require.Error(t, err)
	assert.True(t, errors.Is(err, nlp.ErrUnavailable))
}

func TestRemoteNER_Unreachable(t *testing.T) {
	client := nlp.NewRemoteNER("http://127.0.0.1:1")
	_, err := client.ExtractEntities(context.Background(), "denim jacket")
	require.Error(t, err)
	assert.True(t, errors.Is(err, nlp.ErrUnavailable))
}

func TestRemoteQA_ExtractAnswer(t *testing.T) {
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/qa", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"answer":        "running shoes",
			"score":         0.91,
			"model_version": "qa-v1",
		})
	}))
	defer server.Close()

	client := nlp.NewRemoteQA(server.URL)
	answer, err := client.ExtractAnswer(context.Background(), "I need new running shoes", "I need new running shoes")
	require.NoError(t, err)
	assert.Equal(t, "I need new running shoes", answer.Question)
	assert.Equal(t, "running shoes", answer.Answer)
	assert.InDelta(t, 0.91, answer.Score, 1e-9)

	// Question and passage travel as separate fields even when equal.
	assert.Equal(t, "I need new running shoes", gotBody["question"])
	assert.Equal(t, "I need new running shoes", gotBody["context"])
}

func TestRemoteQA_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := nlp.NewRemoteQA(server.URL)
	_, err := client.ExtractAnswer(context.Background(), "q", "p")
	require.Error(t, err)
	assert.True(t, errors.Is(err, nlp.ErrUnavailable))
}

func TestRemoteHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"model_version": "ner-v2"})
	}))
	defer server.Close()

	client := nlp.NewRemoteNER(server.URL)
	latency, version, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ner-v2", version)
	assert.GreaterOrEqual(t, latency, int64(0))
}

func TestRemoteHealth_Unhealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := nlp.NewRemoteQA(server.URL)
	_, _, err := client.Health(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, nlp.ErrUnavailable))
}
