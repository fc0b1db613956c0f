package parser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var fencedCodeBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)```")

// parseJSON implements the first parsing strategy: extract the largest
// balanced {...} block from the raw text (tolerating surrounding prose
// and fenced code blocks around it), repair the common mistakes models
// make, and map recognized keys onto a DecisionRecord.
func parseJSON(raw string) (*DecisionRecord, error) {
	candidate := extractLargestBalancedBraces(raw)
	if candidate == "" {
		return nil, fmt.Errorf("no balanced JSON object found")
	}

	repaired := repairJSON(candidate)

	var obj map[string]any
	if err := json.Unmarshal([]byte(repaired), &obj); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}

	rec := &DecisionRecord{Strategy: "json", Diagnostics: map[string]string{}}
	for k, v := range obj {
		assignField(rec, k, v)
	}
	return rec, nil
}

// extractLargestBalancedBraces scans raw for `{...}` spans, tracking
// brace depth and skipping over braces that appear inside string
// literals, and returns the longest balanced span found. It first
// prefers content inside fenced code blocks, since a model that wraps
// its JSON in ``` almost always means that block to be the whole
// answer.
func extractLargestBalancedBraces(raw string) string {
	if m := fencedCodeBlockPattern.FindStringSubmatch(raw); m != nil {
		if inner := extractLargestBalancedBraces(m[1]); inner != "" {
			return inner
		}
	}

	best := ""
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i, r := range raw {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					span := raw[start : i+1]
					if len(span) > len(best) {
						best = span
					}
					start = -1
				}
			}
		}
	}
	return best
}

// repairJSON fixes the mistakes LLMs most commonly make in otherwise
// well-intentioned JSON: trailing commas before a closing bracket, and
// smart quotes substituted for straight ones.
func repairJSON(s string) string {
	s = strings.ReplaceAll(s, "“", `"`)
	s = strings.ReplaceAll(s, "”", `"`)
	s = trailingCommaPattern.ReplaceAllString(s, "$1")
	return s
}

var trailingCommaPattern = regexp.MustCompile(`,(\s*[}\]])`)

// assignField maps one decoded key/value pair onto the record using the
// shared alias table. Recognized-but-mistyped values are coerced loosely
// (e.g. a boolean written as the string "true"); everything unrecognized
// is preserved verbatim under Diagnostics.
func assignField(rec *DecisionRecord, rawKey string, v any) {
	canon, ok := normalizeKey(rawKey)
	if !ok {
		rec.Diagnostics[rawKey] = fmt.Sprintf("%v", v)
		return
	}
	assignCanonical(rec, canon, v)
}

func assignCanonical(rec *DecisionRecord, canon string, v any) {
	switch canon {
	case "taskComplete":
		rec.TaskComplete = toBool(v)
	case "response":
		rec.Response = toString(v)
	case "requiresTool":
		rec.RequiresTool = toBool(v)
	case "tool":
		rec.Tool = toString(v)
	case "parameters":
		if m, ok := v.(map[string]any); ok {
			rec.Parameters = m
		}
	case "nextStep":
		rec.NextStep = toString(v)
	case "reasoning":
		rec.Reasoning = toString(v)
	case "confidence":
		rec.Confidence = toString(v)
	case "assumptions":
		rec.Assumptions = toStringList(v)
	case "risks":
		rec.Risks = toStringList(v)
	}
}

func toBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s == "true" || s == "yes" || s == "1"
	default:
		return false
	}
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

func toStringList(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			out = append(out, toString(e))
		}
		return out
	case []string:
		return t
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	default:
		return nil
	}
}
