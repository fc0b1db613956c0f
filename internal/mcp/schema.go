package mcp

import (
	"encoding/json"
	"log/slog"

	"github.com/invopop/jsonschema"

	"github.com/agentcore/orchestrator/internal/tools"
)

// paramsFromSchema translates an MCP tool's JSON Schema input description
// into the orchestrator's own ParameterSpec list, so a remote server's
// tool is validated by the dispatcher exactly like a local one. raw may
// be empty (a tool that takes no arguments).
func paramsFromSchema(raw json.RawMessage) []tools.ParameterSpec {
	if len(raw) == 0 {
		return nil
	}

	var schema jsonschema.Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		slog.Warn("mcp: failed to parse tool input schema, registering with no parameter validation", "error", err)
		return nil
	}
	if schema.Properties == nil {
		return nil
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	var specs []tools.ParameterSpec
	for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
		specs = append(specs, tools.ParameterSpec{
			Name:        pair.Key,
			Type:        scalarKind(pair.Value),
			Required:    required[pair.Key],
			Description: pair.Value.Description,
		})
	}
	return specs
}

// scalarKind maps a JSON Schema property's declared type onto the scalar
// kinds the dispatcher's parameter validator understands. "object" and
// "array" have no scalar analog here; returning an unrecognized kind
// makes validateParameters skip the type check and let the MCP server
// itself be the authority on their shape.
func scalarKind(s *jsonschema.Schema) string {
	switch s.Type {
	case "integer", "number":
		return "number"
	case "boolean":
		return "boolean"
	case "string":
		return "string"
	default:
		return "any"
	}
}
