package tools

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// Dispatcher is the only point through which the reasoning loop reaches a
// tool. It validates parameters, ensures a session is bound, executes the
// primary method, falls back to alternative methods on failure, and
// answers MISSING_TOOL reflection requests.
type Dispatcher struct {
	registry *Registry
}

// NewDispatcher builds a Dispatcher over registry.
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Dispatch executes the tool named toolName with the given invocation
// context. It is stateless: any persistence happens inside the tool via
// the session sandbox, and a tool that partially wrote files before
// failing is responsible for its own cleanup.
func (d *Dispatcher) Dispatch(ctx context.Context, toolName string, tc *Context) *Result {
	if strings.EqualFold(toolName, MissingTool) {
		return d.reflect(tc)
	}

	tool, ok := d.registry.Lookup(toolName)
	if !ok {
		return d.unknownTool(toolName, tc)
	}

	if tc.SessionID == "" {
		return Fail("tool dispatch requires a bound session id")
	}

	desc := tool.Descriptor()
	if err := validateParameters(desc, tc.Parameters); err != nil {
		return Fail(err.Error())
	}

	start := time.Now()
	result := tool.Execute(ctx, tc)
	result = result.WithDuration(time.Since(start)).WithMethod("primary")

	if result.Success {
		return result
	}

	var failures []string
	failures = append(failures, fmt.Sprintf("primary: %s", result.Error))

	for _, method := range desc.AlternativeMethods {
		start := time.Now()
		altResult, handled := tool.AlternativeMethod(ctx, method, tc)
		if !handled {
			// The method isn't one this tool implements itself. It may
			// instead name another registered tool (e.g. web_fetch
			// declaring "browser_fetch" as a fallback) — try that tool's
			// primary method before giving up on this alternative.
			if altTool, ok := d.registry.Lookup(method); ok {
				altResult = altTool.Execute(ctx, tc)
			} else {
				continue
			}
		}
		altResult = altResult.WithDuration(time.Since(start)).WithMethod(method)
		if altResult.Success {
			return altResult
		}
		failures = append(failures, fmt.Sprintf("%s: %s", method, altResult.Error))
	}

	result.Error = strings.Join(failures, "; ")
	return result
}

// validateParameters checks that every required parameter is present and
// of the declared scalar kind. It never mutates params.
func validateParameters(desc Descriptor, params map[string]any) error {
	for _, spec := range desc.Parameters {
		v, present := params[spec.Name]
		if !present {
			if spec.Required {
				return fmt.Errorf("missing required parameter %q", spec.Name)
			}
			continue
		}
		if !scalarMatchesType(v, spec.Type) {
			return fmt.Errorf("parameter %q expected type %s, got %T", spec.Name, spec.Type, v)
		}
	}
	return nil
}

func scalarMatchesType(v any, kind string) bool {
	switch kind {
	case "string":
		_, ok := v.(string)
		return ok
	case "number":
		switch v.(type) {
		case float64, float32, int, int64:
			return true
		}
		return false
	case "boolean":
		_, ok := v.(bool)
		return ok
	default:
		return true
	}
}

// unknownTool builds a structured "unknown tool" result listing the
// closest matches by name edit-distance and, when the caller named
// requestedCapabilities alongside the bad tool name, the tools whose
// capability tags intersect that request.
func (d *Dispatcher) unknownTool(name string, tc *Context) *Result {
	type candidate struct {
		name     string
		distance int
	}
	var candidates []candidate
	for _, n := range d.registry.Names() {
		candidates = append(candidates, candidate{n, levenshtein(strings.ToLower(name), strings.ToLower(n))})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].distance < candidates[j].distance })

	seen := make(map[string]struct{})
	var suggestions []string
	for i, c := range candidates {
		if i >= 3 {
			break
		}
		suggestions = append(suggestions, c.name)
		seen[c.name] = struct{}{}
	}

	for _, cap := range requestedCapabilities(tc) {
		for _, t := range d.registry.ByCapability(cap) {
			n := t.Descriptor().Name
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			suggestions = append(suggestions, n)
		}
	}

	msg := fmt.Sprintf("unknown tool %q", name)
	if len(suggestions) > 0 {
		msg += fmt.Sprintf("; closest matches: %s", strings.Join(suggestions, ", "))
	}
	slog.Warn("tools: dispatch to unknown tool", "name", name, "suggestions", suggestions)
	return Fail(msg)
}

// requestedCapabilities reads the "requiredCapabilities" parameter, the
// same key the MISSING_TOOL reflection path consumes, so an arbitrary
// unrecognized tool name can still be matched against capability tags if
// the caller supplied them.
func requestedCapabilities(tc *Context) []string {
	if tc == nil || tc.Parameters == nil {
		return nil
	}
	raw, ok := tc.Parameters["requiredCapabilities"]
	if !ok {
		return nil
	}
	var out []string
	switch vv := raw.(type) {
	case []string:
		out = vv
	case []any:
		for _, item := range vv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

// ReflectionReport is returned as a successful ToolResult's Output when the
// LLM admits no tool fits and names required capabilities instead.
type ReflectionReport struct {
	RequiredToolName string                       `json:"required_tool_name,omitempty"`
	Reason           string                       `json:"reason,omitempty"`
	Satisfied        map[string][]string          `json:"satisfied"`   // capability -> tool names that supply it
	Unsatisfied      []string                     `json:"unsatisfied"` // capabilities nothing supplies
	SafetyNotes      string                       `json:"session_safety_requirements,omitempty"`
}

// reflect handles the MISSING_TOOL sentinel: the LLM supplies
// {requiredToolName, requiredCapabilities[], reason, sessionSafetyRequirements}
// and the dispatcher intersects the requested capabilities with the
// registry's capability index, returning a report as a *successful* result
// so the reasoning loop can replay it in the next prompt.
func (d *Dispatcher) reflect(tc *Context) *Result {
	report := ReflectionReport{
		Satisfied: make(map[string][]string),
	}
	if v, ok := tc.Param("requiredToolName"); ok {
		report.RequiredToolName = v
	}
	if v, ok := tc.Param("reason"); ok {
		report.Reason = v
	}
	if v, ok := tc.Param("sessionSafetyRequirements"); ok {
		report.SafetyNotes = v
	}

	for _, cap := range requestedCapabilities(tc) {
		tools := d.registry.ByCapability(cap)
		if len(tools) == 0 {
			report.Unsatisfied = append(report.Unsatisfied, cap)
			continue
		}
		var names []string
		for _, t := range tools {
			names = append(names, t.Descriptor().Name)
		}
		report.Satisfied[cap] = names
	}

	return OK(report).WithMethod("reflection")
}
