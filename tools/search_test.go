package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTavilyClientSearch(t *testing.T) {
	var gotReq tavilyRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"title": "行业白皮书", "url": "https://a.example", "content": "市场规模持续扩大", "score": 0.95},
				{"title": "", "url": "https://b.example", "content": "相关报道", "score": 0.6},
				{"title": "空内容被过滤", "url": "https://c.example", "content": "", "score": 0.4},
			},
		})
	}))
	defer server.Close()

	client := NewTavilyClient(TavilyConfig{
		APIKey:        "tvly-test",
		BaseURL:       server.URL,
		RatePerMinute: -1,
	}, nil)

	results, err := client.Search(context.Background(), "新能源汽车市场", SearchOptions{MaxResults: 3})
	require.NoError(t, err)

	assert.Equal(t, "tvly-test", gotReq.APIKey)
	assert.Equal(t, "新能源汽车市场", gotReq.Query)
	assert.Equal(t, 3, gotReq.MaxResults)

	require.Len(t, results, 2, "empty-content results are dropped")
	assert.Equal(t, "行业白皮书", results[0].Title)
	assert.Equal(t, 0.95, results[0].Score)
	assert.Equal(t, "https://b.example", results[1].Title, "missing title falls back to URL")
}

func TestTavilyClientRejectsEmptyQuery(t *testing.T) {
	client := NewTavilyClient(TavilyConfig{APIKey: "k", BaseURL: "http://unused", RatePerMinute: -1}, nil)
	_, err := client.Search(context.Background(), "   ", SearchOptions{})
	require.Error(t, err)
}

func TestTavilyClientUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"detail":"rate limit exceeded"}`))
	}))
	defer server.Close()

	client := NewTavilyClient(TavilyConfig{APIKey: "k", BaseURL: server.URL, RatePerMinute: -1}, nil)
	_, err := client.Search(context.Background(), "query", SearchOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestTavilyClientRateLimiting(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	// One request per minute with a burst of one: the second call cannot get a
	// token before the context deadline.
	client := NewTavilyClient(TavilyConfig{APIKey: "k", BaseURL: server.URL, RatePerMinute: 1}, nil)
	client.limiter.SetBurst(1)

	_, err := client.Search(context.Background(), "first", SearchOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.Search(ctx, "second", SearchOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}

func TestDefaultSearchOptions(t *testing.T) {
	opts := DefaultSearchOptions()
	assert.Equal(t, 5, opts.MaxResults)
	assert.Equal(t, "basic", opts.Depth)
}
