package agent

import "fmt"

// Strategy is a named reasoning mode: a system-prompt template and an
// iteration cap layered over one shared loop skeleton. The loop body
// never branches on mode name directly — every mode-specific difference
// lives here.
type Strategy struct {
	Name          string
	Template      string
	MaxIterations int
}

// templateHeader is shared boiler-plate every strategy's template opens
// with; individual strategies append their own framing below it.
const templateHeader = `You are an autonomous problem-solving agent. You work inside a sandboxed session directory and may only reach the filesystem through the tools listed below.

Respond with a single JSON object and nothing else:
{"taskComplete": bool, "response": string, "requiresTool": bool, "tool": string, "parameters": object, "nextStep": string, "reasoning": string, "confidence": number, "assumptions": [string], "risks": [string]}

Set taskComplete=true and fill response only when you are fully done. Set requiresTool=true and name a catalogued tool (or MISSING_TOOL, with requiredToolName/requiredCapabilities/reason/sessionSafetyRequirements, if nothing fits) when you need to act. Otherwise use nextStep to describe what you will do next.
`

// strategies is the registry mapping a mode name to its descriptor, built
// once at package init and never mutated.
var strategies = map[string]Strategy{
	"single": {
		Name: "single",
		Template: templateHeader + `
Mode: single-shot. Answer directly and concisely. Prefer a single tool call over a multi-step plan; only reach for nextStep if the very first tool result leaves genuine ambiguity.
`,
		MaxIterations: 6,
	},
	"collaborative": {
		Name: "collaborative",
		Template: templateHeader + `
Mode: collaborative. Work step by step, narrating assumptions and checking intermediate results before declaring the task complete. It is fine to use several tool calls in sequence to build confidence in the final answer.
`,
		MaxIterations: 10,
	},
	"intelligent": {
		Name: "intelligent",
		Template: templateHeader + `
Mode: intelligent. Decompose the task, gather evidence with whatever tools are needed, revise your plan when a tool result contradicts an assumption, and only stop once the response is well supported.
`,
		MaxIterations: 25,
	},
}

// IterationOverrides carries the config-file iteration-cap overrides
// (internal/config.StrategyConfig, restated here so internal/agent has no
// import on internal/config). A zero field leaves that mode's built-in
// default in place; MaxIterations, if set, overrides all three modes
// before the per-mode fields are applied on top of it.
type IterationOverrides struct {
	MaxIterations         int
	SingleMaxIterations   int
	CollaborativeMaxIters int
	IntelligentMaxIters   int
}

// ResolveStrategy looks up a mode name, case-sensitively matching the three
// recognized modes, and applies any configured iteration-cap overrides. An
// empty name resolves to "single". A zero-value overrides leaves the
// built-in caps (6/10/25) untouched.
func ResolveStrategy(mode string, overrides IterationOverrides) (Strategy, error) {
	if mode == "" {
		mode = "single"
	}
	s, ok := strategies[mode]
	if !ok {
		return Strategy{}, fmt.Errorf("agent: unrecognized mode %q (want single, collaborative, or intelligent)", mode)
	}

	if overrides.MaxIterations > 0 {
		s.MaxIterations = overrides.MaxIterations
	}
	switch mode {
	case "single":
		if overrides.SingleMaxIterations > 0 {
			s.MaxIterations = overrides.SingleMaxIterations
		}
	case "collaborative":
		if overrides.CollaborativeMaxIters > 0 {
			s.MaxIterations = overrides.CollaborativeMaxIters
		}
	case "intelligent":
		if overrides.IntelligentMaxIters > 0 {
			s.MaxIterations = overrides.IntelligentMaxIters
		}
	}
	return s, nil
}
