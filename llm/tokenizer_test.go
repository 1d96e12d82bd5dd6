package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, estimateTokens(""))
	assert.GreaterOrEqual(t, estimateTokens("a"), 1, "non-empty text is at least one token")

	// 100 ASCII chars ≈ 25 tokens; 100 CJK chars ≈ 66 tokens.
	ascii := strings.Repeat("word ", 20)
	cjk := strings.Repeat("研究", 50)
	assert.Greater(t, estimateTokens(cjk), estimateTokens(ascii),
		"CJK text costs more tokens per character")
}

func TestTokenCounterFallback(t *testing.T) {
	// An unknown encoding forces the estimator path deterministically.
	counter := NewTokenCounter("no-such-encoding")

	assert.Equal(t, 0, counter.Count(""))
	assert.Greater(t, counter.Count("人工智能行业调研报告"), 0)

	messages := []Message{
		{Role: RoleSystem, Content: "你是写作助手"},
		{Role: RoleUser, Content: "写一份报告"},
	}
	perMessage := counter.Count("你是写作助手") + counter.Count("写一份报告")
	assert.Greater(t, counter.CountMessages(messages), perMessage,
		"message counting includes role and separator overhead")
}

func TestTokenCounterTruncate(t *testing.T) {
	counter := NewTokenCounter("no-such-encoding")

	short := "短文本"
	assert.Equal(t, short, counter.Truncate(short, 1000), "under-budget text passes through")
	assert.Equal(t, "", counter.Truncate("anything", 0))

	long := strings.Repeat("新能源汽车市场规模持续扩大。", 200)
	truncated := counter.Truncate(long, 50)
	assert.Less(t, len(truncated), len(long))
	assert.LessOrEqual(t, counter.Count(truncated), 50)
}
