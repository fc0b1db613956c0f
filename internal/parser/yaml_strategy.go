package parser

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// parseYAML implements the second parsing strategy: lines of `key:
// value`, where `|` introduces a literal block scalar that continues
// until the indentation drops. The text must contain at least one line
// with a known key before it is handed, unchanged, to the YAML decoder;
// a document the decoder rejects fails this strategy and is not rewritten.
func parseYAML(raw string) (*DecisionRecord, error) {
	doc := strings.TrimSpace(raw)
	if doc == "" {
		return nil, fmt.Errorf("empty input")
	}
	if !looksYAMLShaped(doc) {
		return nil, fmt.Errorf("input does not look like key: value lines")
	}

	var obj map[string]any
	if err := yaml.Unmarshal([]byte(doc), &obj); err != nil {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}
	if len(obj) == 0 {
		return nil, fmt.Errorf("no top-level keys decoded")
	}

	rec := &DecisionRecord{Strategy: "yaml", Diagnostics: map[string]string{}}
	for k, v := range obj {
		assignField(rec, k, v)
	}
	return rec, nil
}

// looksYAMLShaped requires at least one line matching `key: value` (or a
// bare `key:` starting a block) before handing the text to the YAML
// decoder, so stray prose doesn't get mistaken for a YAML document that
// happens to parse as a single scalar.
func looksYAMLShaped(doc string) bool {
	for _, line := range strings.Split(doc, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		idx := strings.Index(trimmed, ":")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(trimmed[:idx])
		if _, ok := normalizeKey(key); ok {
			return true
		}
	}
	return false
}
