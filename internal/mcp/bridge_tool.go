package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	mcpclient "github.com/mark3labs/mcp-go/client"
	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/agentcore/orchestrator/internal/tools"
)

// bridgeTool adapts one MCP server tool into the tools.Tool contract.
// Its Descriptor is derived entirely from what the server advertised at
// connect time; it is never hand-maintained.
type bridgeTool struct {
	serverName   string
	originalName string
	client       *mcpclient.Client
	descriptor   tools.Descriptor
}

func newBridgeTool(serverName string, mt mcpgo.Tool, client *mcpclient.Client) *bridgeTool {
	name := safeName(serverName, mt.Name)
	desc := tools.NewDescriptor(name, describeMCPTool(serverName, mt)).
		WithCapabilities("mcp:"+serverName).
		WithNetwork()

	for _, p := range paramsFromSchema(mt.InputSchema) {
		desc = desc.WithParameter(p)
	}

	return &bridgeTool{
		serverName:   serverName,
		originalName: mt.Name,
		client:       client,
		descriptor:   desc,
	}
}

func (b *bridgeTool) Descriptor() tools.Descriptor { return b.descriptor }

func (b *bridgeTool) Execute(ctx context.Context, tc *tools.Context) *tools.Result {
	req := mcpgo.CallToolRequest{}
	req.Params.Name = b.originalName
	req.Params.Arguments = tc.Parameters

	result, err := b.client.CallTool(ctx, req)
	if err != nil {
		return tools.Fail(fmt.Sprintf("mcp call to %s.%s failed: %v", b.serverName, b.originalName, err))
	}

	text, isError := flattenContent(result)
	if isError {
		return tools.Fail(text)
	}
	return tools.OK(text)
}

func (b *bridgeTool) AlternativeMethod(ctx context.Context, name string, tc *tools.Context) (*tools.Result, bool) {
	return nil, false
}

func describeMCPTool(serverName string, mt mcpgo.Tool) string {
	desc := strings.TrimSpace(mt.Description)
	if desc == "" {
		return fmt.Sprintf("MCP tool %q provided by server %q", mt.Name, serverName)
	}
	return fmt.Sprintf("[%s] %s", serverName, desc)
}

// flattenContent joins an MCP CallToolResult's text content blocks into
// one string; a non-text result falls back to its JSON encoding so
// nothing is silently dropped.
func flattenContent(result *mcpgo.CallToolResult) (string, bool) {
	if result == nil {
		return "", false
	}
	var b strings.Builder
	allText := true
	for _, item := range result.Content {
		tc, ok := item.(mcpgo.TextContent)
		if !ok {
			allText = false
			break
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(tc.Text)
	}
	if allText && b.Len() > 0 {
		return b.String(), result.IsError
	}
	payload, err := json.Marshal(result.Content)
	if err != nil {
		return "", result.IsError
	}
	return string(payload), result.IsError
}

// safeName derives a stable, DNS-safe-ish tool name from a server name and
// the tool's own name, so two servers exposing a same-named tool never
// collide in the registry.
func safeName(serverName, toolName string) string {
	return "mcp_" + sanitize(serverName) + "_" + sanitize(toolName)
}

func sanitize(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "tool"
	}
	return out
}
