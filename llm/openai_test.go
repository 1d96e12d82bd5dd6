package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIProviderCompletion(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody openAIRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]any{
			"id":      "cmpl-123",
			"model":   gotBody.Model,
			"created": 1756000000,
			"choices": []map[string]any{
				{
					"index":         0,
					"finish_reason": "stop",
					"message":       map[string]any{"role": "assistant", "content": "研究计划如下"},
				},
			},
			"usage": map[string]any{"prompt_tokens": 20, "completion_tokens": 10, "total_tokens": 30},
		})
	}))
	defer server.Close()

	provider := NewOpenAIProvider(OpenAIConfig{
		ProviderName: "deepseek",
		APIKey:       "sk-test",
		BaseURL:      server.URL,
		DefaultModel: "deepseek-chat",
	}, nil)

	resp, err := provider.Completion(context.Background(), &ChatRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: "你是研究规划助手"},
			{Role: RoleUser, Content: "制定调研计划"},
		},
		MaxTokens: 512,
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "/v1/chat/completions", gotPath)
	assert.Equal(t, "deepseek-chat", gotBody.Model, "default model fills in when the request has none")
	assert.Len(t, gotBody.Messages, 2)

	assert.Equal(t, "cmpl-123", resp.ID)
	assert.Equal(t, "deepseek", resp.Provider)
	assert.Equal(t, "研究计划如下", resp.Text())
	assert.Equal(t, 30, resp.Usage.TotalTokens)
	assert.False(t, resp.CreatedAt.IsZero())
}

func TestOpenAIProviderErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCode  ErrorCode
		retryable bool
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized, false},
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited, true},
		{"quota exceeded", http.StatusPaymentRequired, ErrQuotaExceeded, false},
		{"overloaded", http.StatusServiceUnavailable, ErrModelOverloaded, true},
		{"upstream timeout", http.StatusGatewayTimeout, ErrUpstreamTimeout, true},
		{"server error", http.StatusInternalServerError, ErrUpstreamError, true},
		{"bad request", http.StatusBadRequest, ErrInvalidRequest, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]any{"message": "upstream said no"},
				})
			}))
			defer server.Close()

			provider := NewOpenAIProvider(OpenAIConfig{
				APIKey: "sk-test", BaseURL: server.URL, DefaultModel: "gpt-4o-mini",
			}, nil)

			_, err := provider.Completion(context.Background(), &ChatRequest{
				Messages: []Message{{Role: RoleUser, Content: "hi"}},
			})
			require.Error(t, err)

			var llmErr *Error
			require.True(t, errors.As(err, &llmErr))
			assert.Equal(t, tt.wantCode, llmErr.Code)
			assert.Equal(t, tt.retryable, llmErr.Retryable)
			assert.Equal(t, "upstream said no", llmErr.Message)
			assert.Equal(t, tt.status, llmErr.HTTPStatus)
		})
	}
}

func TestOpenAIProviderRejectsEmptyRequest(t *testing.T) {
	provider := NewOpenAIProvider(OpenAIConfig{APIKey: "sk", BaseURL: "http://unused"}, nil)

	_, err := provider.Completion(context.Background(), &ChatRequest{})
	var llmErr *Error
	require.True(t, errors.As(err, &llmErr))
	assert.Equal(t, ErrInvalidRequest, llmErr.Code)
}

func TestOpenAIProviderHealthCheck(t *testing.T) {
	healthy := true
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	provider := NewOpenAIProvider(OpenAIConfig{APIKey: "sk", BaseURL: server.URL}, nil)

	status, err := provider.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Healthy)

	healthy = false
	status, err = provider.HealthCheck(context.Background())
	require.Error(t, err)
	assert.False(t, status.Healthy)
}
