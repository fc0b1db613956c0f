package parser

import (
	"fmt"
	"regexp"
	"strings"
)

var kvLinePattern = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z0-9 _?*-]*?)\s*[:=]\s*(.+?)\s*$`)

// parseKV implements the third parsing strategy: a flat list of scalar
// assignments, one per line, either `Key: value` or `Key=value`. Unlike
// the YAML strategy this never invokes a real parser — it exists for
// text that YAML rejects outright (e.g. values containing unescaped
// colons) but that is still obviously a field-per-line response.
func parseKV(raw string) (*DecisionRecord, error) {
	lines := strings.Split(raw, "\n")
	rec := &DecisionRecord{Strategy: "kv", Diagnostics: map[string]string{}}

	matched := 0
	for _, line := range lines {
		m := kvLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		key, value := m[1], m[2]
		canon, ok := normalizeKey(key)
		if !ok {
			rec.Diagnostics[key] = value
			continue
		}
		matched++
		assignCanonical(rec, canon, coerceScalar(canon, value))
	}

	if matched == 0 {
		return nil, fmt.Errorf("no key/value assignments found")
	}
	return rec, nil
}

// coerceScalar converts a raw KV-line value into the shape
// assignCanonical expects for the given field: lists for
// assumptions/risks (comma-separated), everything else as a string.
func coerceScalar(canon, value string) any {
	value = strings.Trim(value, `"'`)
	switch canon {
	case "assumptions", "risks":
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if t := strings.TrimSpace(p); t != "" {
				out = append(out, t)
			}
		}
		return out
	default:
		return value
	}
}
