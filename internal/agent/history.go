package agent

import (
	"fmt"
	"strings"

	"github.com/agentcore/orchestrator/internal/parser"
	"github.com/agentcore/orchestrator/internal/tools"
)

// Turn is one entry in a session's interaction history: the prompt sent,
// the raw text that came back, the record the parser extracted from it,
// and the tool result that followed, if the decision required one.
type Turn struct {
	Iteration   int
	Prompt      string
	RawResponse string
	Decision    *parser.DecisionRecord
	ToolResult  *tools.Result
}

// History is the append-only record of a session's reasoning-loop turns.
// Replayed, possibly truncated, as part of every subsequent prompt so the
// model retains memory of what it already tried.
type History struct {
	turns []Turn
}

// Append records one completed turn.
func (h *History) Append(t Turn) {
	h.turns = append(h.turns, t)
}

// Len returns the number of recorded turns.
func (h *History) Len() int {
	return len(h.turns)
}

// LastResponse returns the most recent non-empty Decision.Response seen,
// used by the loop to answer with "best effort so far" on cap exhaustion.
func (h *History) LastResponse() string {
	for i := len(h.turns) - 1; i >= 0; i-- {
		if r := h.turns[i].Decision; r != nil && r.Response != "" {
			return r.Response
		}
	}
	return ""
}

// maxReplayedTurns bounds how much history is replayed into a prompt; older
// turns are not replayed, only counted in a single "omitted" line.
const maxReplayedTurns = 6

// Render renders a truncated view of history for inclusion in the next
// system prompt: the most recent maxReplayedTurns turns verbatim (decision
// summary plus tool result), preceded by one "(N earlier iteration(s)
// omitted)" line when older turns exist.
func (h *History) Render() string {
	if len(h.turns) == 0 {
		return "No prior iterations in this session.\n"
	}

	var b strings.Builder
	cut := len(h.turns) - maxReplayedTurns
	if cut < 0 {
		cut = 0
	}

	if cut > 0 {
		fmt.Fprintf(&b, "(%d earlier iteration(s) omitted)\n", cut)
	}

	for _, t := range h.turns[cut:] {
		fmt.Fprintf(&b, "--- iteration %d ---\n", t.Iteration)
		if t.Decision != nil {
			if t.Decision.RequiresTool {
				fmt.Fprintf(&b, "decided to call tool %q with %v\n", t.Decision.Tool, t.Decision.Parameters)
			} else if t.Decision.TaskComplete {
				fmt.Fprintf(&b, "declared task complete: %s\n", t.Decision.Response)
			} else if t.Decision.NextStep != "" {
				fmt.Fprintf(&b, "planned next step: %s\n", t.Decision.NextStep)
			}
		}
		if t.ToolResult != nil {
			if t.ToolResult.Success {
				fmt.Fprintf(&b, "tool result (%s): %v\n", t.ToolResult.MethodUsed, t.ToolResult.Output)
			} else {
				fmt.Fprintf(&b, "tool failed (%s): %s\n", t.ToolResult.MethodUsed, t.ToolResult.Error)
			}
		}
	}
	return b.String()
}
