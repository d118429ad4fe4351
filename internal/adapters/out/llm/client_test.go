package llm_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"gasdelivery/internal/adapters/out/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completion(text string) string {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": text}}},
	})
	return string(body)
}

func newClient(url string) *llm.Client {
	return llm.NewClient(nil, llm.Config{
		BaseURL:    url,
		Model:      "gpt-4o-mini",
		APIKey:     "secret",
		MaxRetries: 2,
		Backoff:    time.Millisecond,
	})
}

func TestGenerate_SendsChatCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var request struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		assert.Equal(t, "gpt-4o-mini", request.Model)
		if assert.Len(t, request.Messages, 1) {
			assert.Equal(t, "user", request.Messages[0].Role)
			assert.Equal(t, "say hi", request.Messages[0].Content)
		}

		_, _ = w.Write([]byte(completion("Hi Amina!")))
	}))
	defer server.Close()

	text, err := newClient(server.URL+"/").Generate(t.Context(), "say hi")
	require.NoError(t, err)
	assert.Equal(t, "Hi Amina!", text)
}

func TestGenerate_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"type":"overloaded","message":"try later"}}`))
			return
		}
		_, _ = w.Write([]byte(completion("Delivered!")))
	}))
	defer server.Close()

	text, err := newClient(server.URL).Generate(t.Context(), "x")
	require.NoError(t, err)
	assert.Equal(t, "Delivered!", text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGenerate_RetriesByDefault(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) <= llm.DefaultMaxRetries {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(completion("Delivered!")))
	}))
	defer server.Close()

	client := llm.NewClient(nil, llm.Config{BaseURL: server.URL, Model: "gpt-4o-mini", Backoff: time.Millisecond})

	text, err := client.Generate(t.Context(), "x")
	require.NoError(t, err)
	assert.Equal(t, "Delivered!", text)
	assert.Equal(t, int32(llm.DefaultMaxRetries+1), calls.Load())
}

func TestGenerate_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newClient(server.URL).Generate(t.Context(), "x")

	var providerErr *llm.ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, http.StatusTooManyRequests, providerErr.StatusCode)
	assert.Equal(t, int32(3), calls.Load(), "first attempt plus two retries")
}

func TestGenerate_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_api_key","message":"bad key"}}`))
	}))
	defer server.Close()

	_, err := newClient(server.URL).Generate(t.Context(), "x")

	var providerErr *llm.ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, "invalid_api_key", providerErr.Type)
	assert.Equal(t, "bad key", providerErr.Message)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGenerate_EmptyCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	_, err := newClient(server.URL).Generate(t.Context(), "x")
	require.ErrorIs(t, err, llm.ErrEmptyCompletion)
}
