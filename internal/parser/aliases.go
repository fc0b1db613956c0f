package parser

import "strings"

// canonicalKeys maps every spelling variant an LLM might use for a field
// to its canonical DecisionRecord field name. Matching is
// case-insensitive and ignores spaces/underscores/punctuation, so the
// table only needs to list one normalized form per variant family.
var canonicalKeys = map[string]string{
	"taskcomplete":    "taskComplete",
	"taskcompleted":   "taskComplete",
	"complete":        "taskComplete",
	"completed":       "taskComplete",
	"done":            "taskComplete",
	"isdone":          "taskComplete",
	"iscomplete":      "taskComplete",

	"response":    "response",
	"answer":      "response",
	"finalanswer": "response",
	"result":      "response",
	"message":     "response",

	"requirestool":  "requiresTool",
	"needstool":     "requiresTool",
	"usetool":       "requiresTool",
	"shouldusetool": "requiresTool",

	"tool":     "tool",
	"toolname": "tool",
	"toolcall": "tool",
	"action":   "tool",

	"parameters": "parameters",
	"params":     "parameters",
	"arguments":  "parameters",
	"args":       "parameters",
	"input":      "parameters",

	"nextstep":  "nextStep",
	"next":      "nextStep",
	"plan":      "nextStep",
	"thenwhat":  "nextStep",

	"reasoning": "reasoning",
	"rationale": "reasoning",
	"thought":   "reasoning",
	"thinking":  "reasoning",

	"confidence": "confidence",

	"assumptions": "assumptions",
	"assumption":  "assumptions",

	"risks": "risks",
	"risk":  "risks",
}

// normalizeKey maps a raw key (as it appeared in the LLM's text,
// including human-readable headings like "Task Status" or "Next Step:")
// to its canonical field name. Returns ("", false) when the key is
// unrecognized — callers preserve it under Diagnostics rather than
// dropping it.
func normalizeKey(raw string) (string, bool) {
	folded := foldKey(raw)
	canon, ok := canonicalKeys[folded]
	return canon, ok
}

// foldKey lowercases raw and strips spaces, underscores, hyphens, colons,
// question marks and asterisks so "Task Completed?", "task_completed",
// and "**Task Completed**" all fold to "taskcompleted".
func foldKey(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch r {
		case ' ', '_', '-', ':', '?', '*', '.':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return strings.ToLower(b.String())
}

// sectionHeadings lists the markdown section names the Markdown strategy
// recognizes, mapped the same way as canonicalKeys.
var sectionHeadings = map[string]string{
	"taskstatus":   "taskComplete",
	"status":       "taskComplete",
	"response":     "response",
	"answer":       "response",
	"nextstep":     "nextStep",
	"tool":         "tool",
	"toolcall":     "tool",
	"parameters":   "parameters",
	"reasoning":    "reasoning",
	"confidence":   "confidence",
	"assumptions":  "assumptions",
	"risks":        "risks",
}
