package parser

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	headingPattern  = regexp.MustCompile(`^\s*#{1,6}\s+(.+?)\s*$`)
	emphasisPattern = regexp.MustCompile(`^\s*(?:\*\*|__)(.+?)(?:\*\*|__):?\s*$`)
)

// parseMarkdown implements the fourth parsing strategy: headings (`##`,
// or a bold/italic emphasized line on its own) introduce sections; known
// section names populate the corresponding field with everything up to
// the next heading.
func parseMarkdown(raw string) (*DecisionRecord, error) {
	lines := strings.Split(raw, "\n")

	type section struct {
		name string
		body strings.Builder
	}
	var sections []*section
	var current *section

	for _, line := range lines {
		if name, ok := matchHeading(line); ok {
			current = &section{name: name}
			sections = append(sections, current)
			continue
		}
		if current != nil {
			current.body.WriteString(line)
			current.body.WriteString("\n")
		}
	}

	if len(sections) == 0 {
		return nil, fmt.Errorf("no recognized markdown sections found")
	}

	rec := &DecisionRecord{Strategy: "markdown", Diagnostics: map[string]string{}}
	matched := 0
	for _, s := range sections {
		canon, ok := sectionHeadings[foldKey(s.name)]
		body := strings.TrimSpace(s.body.String())
		if !ok {
			if body != "" {
				rec.Diagnostics[s.name] = body
			}
			continue
		}
		matched++
		switch canon {
		case "taskComplete":
			assignCanonical(rec, canon, toBool(body) || looksAffirmative(body))
		case "assumptions", "risks":
			assignCanonical(rec, canon, splitBullets(body))
		default:
			assignCanonical(rec, canon, body)
		}
	}

	if matched == 0 {
		return nil, fmt.Errorf("no known section names matched")
	}
	return rec, nil
}

func matchHeading(line string) (string, bool) {
	if m := headingPattern.FindStringSubmatch(line); m != nil {
		return strings.TrimSuffix(m[1], ":"), true
	}
	if m := emphasisPattern.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	return "", false
}

func looksAffirmative(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(s, "complete") || strings.HasPrefix(s, "done") || strings.HasPrefix(s, "yes") || strings.HasPrefix(s, "finished")
}

// splitBullets turns a markdown bullet list (`- item`, `* item`) into a
// string slice; falls back to comma-splitting a single line.
func splitBullets(body string) []string {
	var out []string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		trimmed = strings.TrimPrefix(trimmed, "-")
		trimmed = strings.TrimPrefix(trimmed, "*")
		trimmed = strings.TrimSpace(trimmed)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) <= 1 && strings.Contains(body, ",") {
		return coerceScalar("risks", body).([]string)
	}
	return out
}
