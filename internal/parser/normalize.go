package parser

import (
	"regexp"
	"strings"
)

// normalize strips artifacts that local models commonly emit around their
// actual answer — reasoning traces the model was never asked to show, and
// hallucinated echoes of the system prompt — before any parsing strategy
// sees the text. Without this, a <think> block containing stray braces or
// the word "tool" can derail the JSON/YAML/KV strategies into a false
// match on the wrong span of text.
func normalize(raw string) string {
	content := stripThinkingTags(raw)
	content = stripEchoedSystemMessages(content)
	content = collapseConsecutiveDuplicateBlocks(content)
	return strings.TrimSpace(content)
}

var thinkingTagPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<think>.*?</think>`),
	regexp.MustCompile(`(?is)<thinking>.*?</thinking>`),
	regexp.MustCompile(`(?is)<thought>.*?</thought>`),
	regexp.MustCompile(`(?is)<antthinking>.*?</antthinking>`),
}

// stripThinkingTags removes <think>/<thinking>/<thought>/<antThinking>
// blocks some reasoning models emit ahead of their actual answer.
func stripThinkingTags(content string) string {
	lower := strings.ToLower(content)
	if !strings.Contains(lower, "<think") && !strings.Contains(lower, "<thought") && !strings.Contains(lower, "<antthinking") {
		return content
	}
	result := content
	for _, pat := range thinkingTagPatterns {
		result = pat.ReplaceAllString(result, "")
	}
	return strings.TrimSpace(result)
}

// stripEchoedSystemMessages removes "[System Message] ..." blocks a model
// sometimes hallucinates back into its own response, line-scanning since
// Go's regexp has no lookahead to bound the block cleanly.
func stripEchoedSystemMessages(content string) string {
	if !strings.Contains(content, "[System Message]") {
		return content
	}

	lines := strings.Split(content, "\n")
	var result []string
	skipping := false
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "[System Message]") {
			skipping = true
			continue
		}
		if skipping {
			if strings.TrimSpace(line) == "" {
				skipping = false
			}
			continue
		}
		result = append(result, line)
	}
	return strings.TrimSpace(strings.Join(result, "\n"))
}

// collapseConsecutiveDuplicateBlocks removes a paragraph immediately
// repeating the one before it, a pattern some models fall into under
// repetition penalty misconfiguration.
func collapseConsecutiveDuplicateBlocks(content string) string {
	blocks := strings.Split(content, "\n\n")
	if len(blocks) <= 1 {
		return content
	}
	var result []string
	for _, block := range blocks {
		trimmed := strings.TrimSpace(block)
		if trimmed == "" {
			continue
		}
		if len(result) > 0 && trimmed == strings.TrimSpace(result[len(result)-1]) {
			continue
		}
		result = append(result, block)
	}
	return strings.Join(result, "\n\n")
}
