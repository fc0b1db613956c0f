package parser

import (
	"log/slog"
	"strings"
)

// Parser runs the ordered chain of parsing strategies against raw LLM
// text. It is stateless and safe for concurrent use across sessions.
type Parser struct{}

// New builds a Parser.
func New() *Parser {
	return &Parser{}
}

// Parse tries JSON, then YAML-shaped, then key/value, then markdown,
// then plain text, in that order, returning the first strategy's
// output. Parse always returns a non-nil record. ParseFailed is set when
// the body is empty, or is empty once reasoning and echo artifacts are
// stripped; any other body yields at least a plain-text record.
//
// sessionID is used only for log correlation.
func (p *Parser) Parse(sessionID, raw string) *DecisionRecord {
	if strings.TrimSpace(raw) == "" {
		rec := failedRecord("empty response body")
		slog.Debug("parser: all strategies failed", "session", sessionID, "reason", "empty body")
		return rec
	}

	raw = normalize(raw)
	if raw == "" {
		rec := failedRecord("response body was entirely reasoning/echo artifacts")
		slog.Debug("parser: all strategies failed", "session", sessionID, "reason", "normalized to empty")
		return rec
	}

	type attempt struct {
		name string
		fn   func(string) (*DecisionRecord, error)
	}
	attempts := []attempt{
		{"json", parseJSON},
		{"yaml", parseYAML},
		{"kv", parseKV},
	}

	for _, a := range attempts {
		rec, err := a.fn(raw)
		if err != nil {
			slog.Debug("parser: strategy failed", "session", sessionID, "strategy", a.name, "error", err)
			continue
		}
		rec.Validate()
		slog.Debug("parser: strategy succeeded", "session", sessionID, "strategy", a.name)
		return rec
	}

	if rec, err := parseMarkdown(raw); err == nil {
		rec.Validate()
		slog.Debug("parser: strategy succeeded", "session", sessionID, "strategy", "markdown")
		return rec
	} else {
		slog.Debug("parser: strategy failed", "session", sessionID, "strategy", "markdown", "error", err)
	}

	rec := parsePlainText(raw)
	rec.Validate()
	slog.Debug("parser: strategy succeeded", "session", sessionID, "strategy", "plaintext")
	return rec
}

// CorrectivePrompt returns the message to feed back to the model when a
// decision record fails validation, so the next turn can self-correct
// within the iteration budget.
func CorrectivePrompt(rec *DecisionRecord) string {
	reason := rec.ValidationError
	if rec.ParseFailed {
		reason = "your previous message could not be parsed"
	}
	return "Your previous response was not well-formed (" + reason + "). " +
		`Please respond with a JSON object containing the fields: ` +
		`{"taskComplete": bool, "response": string, "requiresTool": bool, "tool": string, "parameters": object, "nextStep": string}.`
}
