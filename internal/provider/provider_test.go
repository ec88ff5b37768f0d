package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewSelectsProvider(t *testing.T) {
	p, err := New(Config{Type: "ollama"})
	require.NoError(t, err)
	require.Equal(t, "ollama", p.Name())

	p, err = New(Config{Type: "openai"})
	require.NoError(t, err)
	require.Equal(t, "openai", p.Name())

	p, err = New(Config{Type: ""})
	require.NoError(t, err)
	require.Equal(t, "openai", p.Name(), "empty type defaults to the OpenAI-compatible client")

	_, err = New(Config{Type: "mystery"})
	require.Error(t, err)
}

func TestOllamaGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)

		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.False(t, req.Stream)
		require.Len(t, req.Messages, 1)

		json.NewEncoder(w).Encode(ollamaChatResponse{
			Model:   req.Model,
			Message: ollamaChatMessage{Role: "assistant", Content: "pong"},
			Done:    true,
		})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3.1", time.Second)
	reply, err := p.Generate(context.Background(), "ping")
	require.NoError(t, err)
	require.Equal(t, "pong", reply)
}

func TestOllamaGenerateErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "", time.Second)
	_, err := p.Generate(context.Background(), "ping")
	require.Error(t, err)
}

func TestOpenAIGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c-1","choices":[{"index":0,"message":{"role":"assistant","content":"hello"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(srv.URL, "sk-test", "gpt-4o-mini", time.Second)
	reply, err := p.Generate(context.Background(), "say hello")
	require.NoError(t, err)
	require.Equal(t, "hello", reply)
}

func TestOpenAIGenerateEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"id":"c-1","choices":[]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(srv.URL, "", "", time.Second)
	_, err := p.Generate(context.Background(), "q")
	require.Error(t, err)
}

func TestGenerateHonorsContextCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	p := NewOllamaProvider(srv.URL, "", time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := p.Generate(ctx, "ping")
	require.Error(t, err)
}
