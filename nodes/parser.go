package nodes

import (
	"regexp"
	"strings"
)

// thinkingPattern 匹配推理模型输出中的 <think>...</think> 片段。
var thinkingPattern = regexp.MustCompile(`(?s)<think>.*?</think>`)

// stripThinkingTokens removes reasoning-model thinking blocks and fences.
func stripThinkingTokens(text string) string {
	text = thinkingPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// extractJSON returns the first top-level JSON object embedded in the text,
// or "". Reasoning models tend to wrap the answer in prose or markdown fences.
func extractJSON(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1]
				}
			}
		}
	}
	return ""
}
