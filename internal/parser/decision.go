// Package parser turns raw LLM text into a structured DecisionRecord,
// tolerating the many imperfect shapes a model can return it in.
package parser

import "fmt"

// DecisionRecord is the parsed outcome of one LLM turn: an answer, a tool
// call, or a signal to keep going.
type DecisionRecord struct {
	TaskComplete bool
	Response     string
	RequiresTool bool
	Tool         string
	Parameters   map[string]any
	NextStep     string

	Reasoning   string
	Confidence  string
	Assumptions []string
	Risks       []string

	// Diagnostics holds keys the parser did not recognize, keyed by their
	// original (non-normalized) spelling. Unknown keys never fail parsing.
	Diagnostics map[string]string

	// Strategy names which parsing strategy produced this record
	// ("json", "yaml", "kv", "markdown", "plaintext").
	Strategy string

	// ParseFailed is set on the synthetic record returned when every
	// strategy failed to produce anything usable.
	ParseFailed bool

	// ValidationError holds the well-formedness violation found by
	// Validate, if any. The record is still returned to the caller so the
	// reasoning loop can feed the model a corrective message instead of
	// crashing.
	ValidationError string
}

// MissingTool is the sentinel tool name an LLM uses to confess that no
// catalogued tool fits its needs.
const MissingTool = "MISSING_TOOL"

// Validate checks the record against the well-formedness rules: a
// complete task must carry a response and must not also request a tool;
// a tool request must name a tool. Violations are recorded on the struct
// rather than returned as an error, since the record is still usable —
// the reasoning loop replays ValidationError to the model as a
// corrective turn.
func (d *DecisionRecord) Validate() {
	d.ValidationError = ""
	switch {
	case d.TaskComplete && d.Response == "":
		d.ValidationError = "taskComplete is true but response is empty"
	case d.TaskComplete && d.RequiresTool:
		d.ValidationError = "taskComplete and requiresTool cannot both be true"
	case d.RequiresTool && d.Tool == "":
		d.ValidationError = "requiresTool is true but tool is empty"
	case !d.TaskComplete && !d.RequiresTool && d.NextStep == "" && d.Response == "":
		d.ValidationError = "decision has no response, tool request, or next step"
	}
}

// IsWellFormed reports whether Validate found no violation.
func (d *DecisionRecord) IsWellFormed() bool {
	return d.ValidationError == ""
}

func failedRecord(reason string) *DecisionRecord {
	return &DecisionRecord{
		ParseFailed:     true,
		ValidationError: fmt.Sprintf("could not parse a decision from the response: %s", reason),
		Diagnostics:     map[string]string{},
	}
}
