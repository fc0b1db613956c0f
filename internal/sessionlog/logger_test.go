package sessionlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/agentcore/orchestrator/internal/tools"
)

func TestLogger_InteractionAndToolExecutionAreAppended(t *testing.T) {
	root := t.TempDir()
	l := New(root, nil)

	l.Interaction("s1", 1, "what is 2+2?", `{"taskComplete": true}`)
	result := (&tools.Result{Success: true, Output: "4", MethodUsed: "primary", Duration: time.Millisecond}).WithMethod("primary")
	l.ToolExecution("s1", 1, "calculator", &tools.Context{SessionID: "s1", Parameters: map[string]any{"expr": "2+2"}}, result)
	l.Event("s1", "session started")

	interactionBody, err := os.ReadFile(filepath.Join(root, "interactions", "interactions.txt"))
	if err != nil {
		t.Fatalf("expected interactions log: %v", err)
	}
	if !strings.Contains(string(interactionBody), "what is 2+2?") {
		t.Fatalf("interaction log missing prompt: %s", interactionBody)
	}

	humanLog, err := os.ReadFile(filepath.Join(root, "tools", "tool_execution_log.txt"))
	if err != nil {
		t.Fatalf("expected tool execution log: %v", err)
	}
	if !strings.Contains(string(humanLog), "calculator") {
		t.Fatalf("tool log missing tool name: %s", humanLog)
	}

	jsonLog, err := os.ReadFile(filepath.Join(root, "tools", "tool_execution_detailed.json"))
	if err != nil {
		t.Fatalf("expected detailed json log: %v", err)
	}
	if !strings.Contains(string(jsonLog), `"tool":"calculator"`) {
		t.Fatalf("detailed json log missing tool field: %s", jsonLog)
	}

	sessionInfo, err := os.ReadFile(filepath.Join(root, "session_info_log.txt"))
	if err != nil {
		t.Fatalf("expected session info log: %v", err)
	}
	if !strings.Contains(string(sessionInfo), "session started") {
		t.Fatalf("session info log missing event: %s", sessionInfo)
	}
}

func TestLogger_NeverPanicsOnUnwritableRoot(t *testing.T) {
	l := New("/dev/null/not-a-real-dir", nil)
	l.Event("s1", "should not panic")
	l.Interaction("s1", 1, "p", "r")
}
