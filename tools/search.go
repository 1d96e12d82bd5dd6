package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// SearchProvider defines the interface for web search backends.
// Implementations can wrap Tavily, SerpAPI, DuckDuckGo, Jina, etc.
type SearchProvider interface {
	// Search performs a web search and returns normalized results.
	Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error)
	// Name returns the provider name.
	Name() string
}

// SearchOptions configures a search request.
type SearchOptions struct {
	MaxResults int    `json:"max_results"`          // Maximum number of results (default: 5)
	TimeRange  string `json:"time_range,omitempty"` // "day", "week", "month", "year"
	Depth      string `json:"depth,omitempty"`      // "basic" or "advanced"
}

// DefaultSearchOptions returns sensible defaults.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		MaxResults: 5,
		Depth:      "basic",
	}
}

// SearchResult 是一条标准化的搜索结果；不同后端的字段差异在客户端内抹平。
type SearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
}

// TavilyConfig configures the Tavily search client.
type TavilyConfig struct {
	APIKey string

	// BaseURL defaults to the public Tavily endpoint.
	BaseURL string

	// Timeout is the per-request HTTP timeout. Defaults to 15s.
	Timeout time.Duration

	// RatePerMinute caps outbound searches. Defaults to 30; 0 keeps the
	// default, negative disables limiting.
	RatePerMinute int
}

// TavilyClient 调用 Tavily 风格的 JSON POST 搜索 API。
type TavilyClient struct {
	cfg     TavilyConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewTavilyClient creates a rate-limited Tavily search client.
func NewTavilyClient(cfg TavilyConfig, logger *zap.Logger) *TavilyClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.tavily.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RatePerMinute == 0 {
		cfg.RatePerMinute = 30
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var limiter *rate.Limiter
	if cfg.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), cfg.RatePerMinute)
	}
	return &TavilyClient{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		logger:  logger.With(zap.String("component", "tavily_client")),
	}
}

// Name returns the provider name.
func (c *TavilyClient) Name() string { return "tavily" }

type tavilyRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
	TimeRange  string `json:"time_range,omitempty"`
	Depth      string `json:"search_depth,omitempty"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search executes one search query against the API.
func (c *TavilyClient) Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query must not be empty")
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("search rate limit wait: %w", err)
		}
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultSearchOptions().MaxResults
	}

	payload, err := json.Marshal(tavilyRequest{
		APIKey:     c.cfg.APIKey,
		Query:      query,
		MaxResults: opts.MaxResults,
		TimeRange:  opts.TimeRange,
		Depth:      opts.Depth,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.cfg.BaseURL, "/")+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("search failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	results := make([]SearchResult, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		if r.Content == "" {
			continue
		}
		title := r.Title
		if title == "" {
			title = r.URL
		}
		results = append(results, SearchResult{
			Title:   title,
			URL:     r.URL,
			Content: r.Content,
			Score:   r.Score,
		})
	}

	c.logger.Info("search completed",
		zap.String("query", query),
		zap.Int("results", len(results)),
		zap.Duration("duration", time.Since(start)))
	return results, nil
}
