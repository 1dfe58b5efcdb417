package model

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIComplete(t *testing.T) {
	var seen openAIRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&seen))
		w.Header().Set("content-type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","model":"gpt-test","choices":[{"message":{"role":"assistant","content":"{\"action\":\"vote\",\"target\":\"p2\"}"},"finish_reason":"stop"}],"usage":{"prompt_tokens":12,"completion_tokens":5}}`))
	}))
	defer server.Close()

	p := NewOpenAIProvider("test-key", WithOpenAIEndpoint(server.URL), WithOpenAIHTTPClient(server.Client()))
	resp, err := p.Complete(context.Background(), CompletionRequest{
		Model:        "gpt-test",
		SystemPrompt: "You are a player.",
		Messages:     []Message{{Role: RoleUser, Content: "INPUT_JSON:\n{}"}},
		MaxTokens:    64,
		Temperature:  0.2,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"action":"vote","target":"p2"}`, resp.Content)
	assert.Equal(t, Usage{InputTokens: 12, OutputTokens: 5}, resp.Usage)
	assert.Equal(t, "stop", resp.StopReason)

	require.Len(t, seen.Messages, 2)
	assert.Equal(t, "system", seen.Messages[0].Role)
	assert.Equal(t, "json_object", seen.ResponseFormat.Type)
}

func TestOpenAIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"type":"rate_limit","message":"slow down"}}`))
	}))
	defer server.Close()

	p := NewOpenAIProvider("k", WithOpenAIEndpoint(server.URL))
	_, err := p.Complete(context.Background(), CompletionRequest{Model: "m", MaxTokens: 1, Messages: []Message{{Role: RoleUser, Content: "x"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited: slow down")

	_, err = NewOpenAIProvider("").Complete(context.Background(), CompletionRequest{Model: "m", MaxTokens: 1})
	assert.EqualError(t, err, "openai api key is required")

	_, err = p.Complete(context.Background(), CompletionRequest{Model: "m", MaxTokens: 1, Messages: []Message{{Role: "tool", Content: "x"}}})
	assert.EqualError(t, err, "unsupported message role: tool")
}

func TestAnthropicComplete(t *testing.T) {
	var seen anthropicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&seen))
		_, _ = w.Write([]byte(`{"id":"m1","type":"message","role":"assistant","model":"claude-test","content":[{"type":"text","text":"{\"action\":"},{"type":"text","text":"\"none\"}"}],"stop_reason":"end_turn","usage":{"input_tokens":7,"output_tokens":3}}`))
	}))
	defer server.Close()

	p := NewAnthropicProvider("test-key", WithAnthropicEndpoint(server.URL))
	resp, err := p.Complete(context.Background(), CompletionRequest{
		Model:     "claude-test",
		Messages:  []Message{{Role: RoleSystem, Content: "Play well."}, {Role: RoleUser, Content: "go"}},
		MaxTokens: 32,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"action":"none"}`, resp.Content)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, "Play well.", seen.System)
	require.Len(t, seen.Messages, 1)
	assert.Equal(t, "user", seen.Messages[0].Role)
}

func TestAnthropicAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad model"}}`))
	}))
	defer server.Close()

	p := NewAnthropicProvider("k", WithAnthropicEndpoint(server.URL))
	_, err := p.Complete(context.Background(), CompletionRequest{Model: "m", MaxTokens: 1, Messages: []Message{{Role: RoleUser, Content: "x"}}})
	assert.EqualError(t, err, "anthropic api status 400: bad model")
}

type stubProvider struct{ reply string }

func (s stubProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	return CompletionResponse{Content: s.reply}, nil
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()

	_, ok := r.Get("openai")
	assert.False(t, ok, "factories do not register live providers")

	p, ok := r.New(" OpenAI ", "k")
	require.True(t, ok)
	assert.IsType(t, &OpenAIProvider{}, p)

	p, ok = r.Resolve("anthropic", "k")
	require.True(t, ok)
	assert.IsType(t, &AnthropicProvider{}, p)

	r.Register("stub", stubProvider{reply: "hi"})
	p, ok = r.Resolve("STUB", "")
	require.True(t, ok)
	assert.Equal(t, stubProvider{reply: "hi"}, p)

	_, ok = r.Resolve("unknown", "k")
	assert.False(t, ok)
}
