package agent

import (
	"fmt"
	"strings"

	"github.com/agentcore/orchestrator/internal/tools"
)

// buildSystemPrompt assembles the system prompt from the strategy's static
// template, the registry catalogue, the session's root and current
// directory, and a truncated replay of history. Nothing here is cached
// across iterations — the catalogue and history sections change turn to
// turn as tool results accumulate.
func buildSystemPrompt(strategy Strategy, registry *tools.Registry, sessionRoot, currentDir string, history *History) string {
	var b strings.Builder
	b.WriteString(strategy.Template)
	b.WriteString("\n## Available tools\n\n")
	b.WriteString(registry.Catalogue())
	fmt.Fprintf(&b, "\n## Session\nRoot: %s\nCurrent directory: %s\n", sessionRoot, currentDir)
	b.WriteString("\n## History\n")
	b.WriteString(history.Render())
	return b.String()
}
