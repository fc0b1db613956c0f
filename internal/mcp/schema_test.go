package mcp

import (
	"encoding/json"
	"testing"
)

func TestParamsFromSchema(t *testing.T) {
	raw := json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {"type": "string", "description": "file to read"},
			"limit": {"type": "integer", "description": "max lines"},
			"recursive": {"type": "boolean", "description": "descend into subdirectories"},
			"filters": {"type": "object", "description": "structured filter spec"}
		},
		"required": ["path"]
	}`)

	specs := paramsFromSchema(raw)
	byName := make(map[string]struct {
		typ      string
		required bool
	}, len(specs))
	for _, s := range specs {
		byName[s.Name] = struct {
			typ      string
			required bool
		}{s.Type, s.Required}
	}

	if got := byName["path"]; got.typ != "string" || !got.required {
		t.Fatalf("path = %+v", got)
	}
	if got := byName["limit"]; got.typ != "number" || got.required {
		t.Fatalf("limit = %+v", got)
	}
	if got := byName["recursive"]; got.typ != "boolean" {
		t.Fatalf("recursive = %+v", got)
	}
	if got := byName["filters"]; got.typ != "any" {
		t.Fatalf("filters = %+v, want any (unchecked)", got)
	}
}

func TestParamsFromSchema_EmptyInputYieldsNoParams(t *testing.T) {
	if specs := paramsFromSchema(nil); specs != nil {
		t.Fatalf("expected nil specs for empty schema, got %+v", specs)
	}
}

func TestSafeName_SanitizesAndDeduplicatesAcrossServers(t *testing.T) {
	a := safeName("fs-server", "Read File!")
	b := safeName("fs-server-2", "Read File!")
	if a == b {
		t.Fatalf("expected distinct names for distinct servers, both got %q", a)
	}
	if a != "mcp_fs_server_read_file" {
		t.Fatalf("unexpected sanitized name: %q", a)
	}
}
