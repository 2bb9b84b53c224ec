package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	deepagent "github.com/smhanov/deepagent"
)

func TestClientDecideActionParsesJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatResponse{
			Choices: []struct {
				Message chatMessage `json:"message"`
			}{{Message: chatMessage{Role: "assistant", Content: `{"type":"search","queries":["capital of France"]}`}}},
		})
	}))
	defer server.Close()

	client := New("test-key", "gpt-4o-mini").WithBaseURL(server.URL)
	perms := deepagent.BeastModePermissions()

	action, usage, err := client.DecideAction(context.Background(), "prompt", perms)
	require.NoError(t, err)
	assert.Equal(t, deepagent.ActionType("search"), action.Type)
	assert.Equal(t, []string{"capital of France"}, action.Queries)
	assert.Equal(t, 0, usage.TotalTokens)
}

func TestClientDecideActionSurfacesContractViolationOnBadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatResponse{
			Choices: []struct {
				Message chatMessage `json:"message"`
			}{{Message: chatMessage{Role: "assistant", Content: `not json`}}},
		})
	}))
	defer server.Close()

	client := New("test-key", "gpt-4o-mini").WithBaseURL(server.URL)
	_, _, err := client.DecideAction(context.Background(), "prompt", deepagent.BeastModePermissions())
	require.Error(t, err)
	assert.True(t, deepagent.IsContractViolation(err))
}

func TestClientChatClassifiesRateLimitAsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("slow down"))
	}))
	defer server.Close()

	client := New("test-key", "gpt-4o-mini").WithBaseURL(server.URL)
	_, _, err := client.GenerateStructured(context.Background(), "sys", "user")
	require.Error(t, err)
	assert.True(t, deepagent.IsTransient(err))
}

func TestEmbedderPreservesInputOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(embeddingsResponse{
			Data: []struct {
				Index     int       `json:"index"`
				Embedding []float32 `json:"embedding"`
			}{
				{Index: 1, Embedding: []float32{0.2}},
				{Index: 0, Embedding: []float32{0.1}},
			},
		})
	}))
	defer server.Close()

	embedder := NewEmbedder("test-key", "text-embedding-3-small", 1).WithBaseURL(server.URL)
	out, err := embedder.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, []float32{0.1}, out[0])
	assert.Equal(t, []float32{0.2}, out[1])
}
