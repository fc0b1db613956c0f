// Package sessionlog writes the append-only, per-category log streams
// every session accumulates under cache/<id>/, and wraps LLM calls and
// tool executions in OpenTelemetry spans. Every write here is best-effort:
// a logging failure must never abort the reasoning loop.
package sessionlog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/agentcore/orchestrator/internal/tools"
)

// category is one of the fixed log streams a session produces.
type category string

const (
	categoryInteractions category = "interactions"
	categoryTools        category = "tools"
	categoryThinking     category = "thinking"
	categoryPlans        category = "plans"
	categoryActions      category = "actions"
)

// Logger writes best-effort, append-only category logs under a session's
// cache root. One Logger instance is shared across a session's lifetime;
// it is safe for concurrent use, though within a session the reasoning
// loop only ever calls it sequentially.
type Logger struct {
	sessionRoot string
	mu          sync.Mutex
	mirror      *PGMirror
}

// New builds a Logger rooted at sessionRoot, typically the path returned
// by sandbox.Manager.SessionRoot. mirror may be nil, in which case tool
// executions are only written to the local category logs.
func New(sessionRoot string, mirror *PGMirror) *Logger {
	return &Logger{sessionRoot: sessionRoot, mirror: mirror}
}

// Interaction appends a prompt/response pair to interactions/interactions.txt.
func (l *Logger) Interaction(sessionID string, iteration int, prompt, response string) {
	body := fmt.Sprintf("--- prompt ---\n%s\n--- response ---\n%s\n", prompt, response)
	l.appendText(categoryInteractions, "interactions.txt", sessionID, iteration, body)
}

// ToolExecution appends a human-readable line to
// tools/tool_execution_log.txt and a machine-readable JSON line to
// tools/tool_execution_detailed.json.
func (l *Logger) ToolExecution(sessionID string, iteration int, toolName string, tc *tools.Context, result *tools.Result) {
	status := "ok"
	if !result.Success {
		status = "error"
	}
	line := fmt.Sprintf("[%s] iteration=%d tool=%s method=%s status=%s duration=%s",
		time.Now().UTC().Format(time.RFC3339), iteration, toolName, result.MethodUsed, status, result.Duration)
	l.appendText(categoryTools, "tool_execution_log.txt", sessionID, iteration, line)

	record := struct {
		Timestamp  string         `json:"timestamp"`
		SessionID  string         `json:"session_id"`
		Iteration  int            `json:"iteration"`
		Tool       string         `json:"tool"`
		Method     string         `json:"method"`
		Parameters map[string]any `json:"parameters,omitempty"`
		Success    bool           `json:"success"`
		Output     any            `json:"output,omitempty"`
		Error      string         `json:"error,omitempty"`
		DurationMS int64          `json:"duration_ms"`
	}{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		SessionID:  sessionID,
		Iteration:  iteration,
		Tool:       toolName,
		Method:     result.MethodUsed,
		Success:    result.Success,
		Output:     result.Output,
		Error:      result.Error,
		DurationMS: result.Duration.Milliseconds(),
	}
	if tc != nil {
		record.Parameters = tc.Parameters
	}
	b, err := json.Marshal(record)
	if err != nil {
		slog.Warn("sessionlog: failed to marshal tool execution record", "error", err)
		return
	}
	l.appendRaw(categoryTools, "tool_execution_detailed.json", string(b)+"\n")

	if l.mirror != nil {
		l.mirror.MirrorToolExecution(context.Background(), sessionID, iteration, toolName, result.MethodUsed, result.Success, record)
	}
}

// Event appends a top-level lifecycle line to session_info_log.txt.
func (l *Logger) Event(sessionID, message string) {
	banner := fmt.Sprintf("[%s] %s: %s\n", time.Now().UTC().Format(time.RFC3339), sessionID, message)
	l.appendRaw("", "session_info_log.txt", banner)
}

// Thinking, Plan, and Action write into the categorical streams a
// strategy can use for richer diagnostics than the interaction log keeps.
func (l *Logger) Thinking(sessionID string, iteration int, body string) {
	l.appendText(categoryThinking, "thinking.txt", sessionID, iteration, body)
}

func (l *Logger) Plan(sessionID string, iteration int, body string) {
	l.appendText(categoryPlans, "plans.txt", sessionID, iteration, body)
}

func (l *Logger) Action(sessionID string, iteration int, body string) {
	l.appendText(categoryActions, "actions.txt", sessionID, iteration, body)
}

// appendText writes a banner-prefixed entry into <sessionRoot>/<category>/<file>.
func (l *Logger) appendText(cat category, file, sessionID string, iteration int, body string) {
	banner := fmt.Sprintf("[%s] iteration=%d session=%s\n%s\n\n", time.Now().UTC().Format(time.RFC3339), iteration, sessionID, body)
	l.appendRaw(cat, file, banner)
}

// appendRaw opens <sessionRoot>/<category>/<file> (creating directories as
// needed) and appends data. Any failure is logged at warn level and
// swallowed — callers never see it, since a logging failure must never
// abort the reasoning loop.
func (l *Logger) appendRaw(cat category, file, data string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	dir := l.sessionRoot
	if cat != "" {
		dir = filepath.Join(l.sessionRoot, string(cat))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Warn("sessionlog: failed to create log directory", "dir", dir, "error", err)
		return
	}

	f, err := os.OpenFile(filepath.Join(dir, file), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		slog.Warn("sessionlog: failed to open log file", "path", filepath.Join(dir, file), "error", err)
		return
	}
	defer f.Close()

	if _, err := f.WriteString(data); err != nil {
		slog.Warn("sessionlog: failed to append log entry", "path", filepath.Join(dir, file), "error", err)
	}
}
