package llm

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter 统计文本 token 数，用于撰写节点的上下文预算。
// 优先使用 tiktoken 精确计数；编码初始化失败（如离线环境拿不到词表）
// 时退化为区分 CJK/ASCII 的字符估算，永不报错。
type TokenCounter struct {
	encoding string

	once    sync.Once
	enc     *tiktoken.Tiktoken
	initErr error
}

// NewTokenCounter creates a counter for the given tiktoken encoding.
// An empty encoding selects cl100k_base.
func NewTokenCounter(encoding string) *TokenCounter {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	return &TokenCounter{encoding: encoding}
}

// init lazily 初始化 tiktoken 编码（首次使用时可能需要下载词表）。
func (c *TokenCounter) init() error {
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding(c.encoding)
		if err != nil {
			c.initErr = err
			return
		}
		c.enc = enc
	})
	return c.initErr
}

// Count returns the token count of the text.
func (c *TokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	if err := c.init(); err == nil {
		return len(c.enc.Encode(text, nil, nil))
	}
	return estimateTokens(text)
}

// CountMessages returns the total token count of a message list,
// including per-message overhead (role markers, separators).
func (c *TokenCounter) CountMessages(messages []Message) int {
	total := 0
	for _, msg := range messages {
		total += c.Count(msg.Content) + c.Count(string(msg.Role)) + 4
	}
	return total + 3
}

// Truncate cuts the text down to at most maxTokens tokens. The estimator
// fallback truncates by rune proportion, which errs on the short side.
func (c *TokenCounter) Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	if err := c.init(); err == nil {
		tokens := c.enc.Encode(text, nil, nil)
		if len(tokens) <= maxTokens {
			return text
		}
		return c.enc.Decode(tokens[:maxTokens])
	}

	total := estimateTokens(text)
	if total <= maxTokens {
		return text
	}
	runes := []rune(text)
	keep := len(runes) * maxTokens / total
	if keep >= len(runes) {
		keep = len(runes) - 1
	}
	return string(runes[:keep])
}

// estimateTokens 按字符估算 token 数：CJK 约 1.5 字符/token，
// ASCII 约 4 字符/token。
func estimateTokens(text string) int {
	totalChars := utf8.RuneCountInString(text)
	cjkCount := 0
	for _, r := range text {
		if isCJK(r) {
			cjkCount++
		}
	}
	estimated := int(float64(cjkCount)/1.5 + float64(totalChars-cjkCount)/4.0)
	if estimated == 0 && strings.TrimSpace(text) != "" {
		estimated = 1
	}
	return estimated
}

// isCJK returns true if the rune is a CJK character.
func isCJK(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) || // CJK Unified Ideographs
		(r >= 0x3400 && r <= 0x4DBF) || // CJK Extension A
		(r >= 0xF900 && r <= 0xFAFF) || // CJK Compatibility Ideographs
		(r >= 0x3000 && r <= 0x303F) || // CJK Symbols and Punctuation
		(r >= 0xFF00 && r <= 0xFFEF) // Halfwidth and Fullwidth Forms
}
