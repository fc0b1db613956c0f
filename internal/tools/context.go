package tools

import "time"

// Context is the per-invocation input to a tool. State is a free-form map
// shared across tools within one reasoning-loop iteration sequence — the
// "repoPath pattern" from the design notes: a downloader tool stashes a
// path under a well-known key and a later analyzer tool reads it back.
// This coupling is intentionally narrow: only the capability tags that
// document a produce/consume relationship should rely on it.
type Context struct {
	SessionID  string
	Parameters map[string]any
	State      map[string]any

	// Method, when non-empty, forces the dispatcher to invoke this
	// alternative method instead of the tool's primary Execute.
	Method string
}

// Param returns the named parameter as a string, with an ok flag.
func (c *Context) Param(name string) (string, bool) {
	if c == nil || c.Parameters == nil {
		return "", false
	}
	v, ok := c.Parameters[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Result is the unified return type from a tool execution.
type Result struct {
	Success bool   `json:"success"`
	Output  any    `json:"output,omitempty"`
	Error   string `json:"error,omitempty"`

	Duration   time.Duration `json:"duration_ns"`
	MethodUsed string        `json:"method_used,omitempty"`
}

// OK builds a successful Result carrying output.
func OK(output any) *Result {
	return &Result{Success: true, Output: output}
}

// Fail builds a failed Result carrying a human-readable message.
func Fail(message string) *Result {
	return &Result{Success: false, Error: message}
}

// WithMethod annotates a Result with the method name that produced it.
func (r *Result) WithMethod(name string) *Result {
	r.MethodUsed = name
	return r
}

// WithDuration annotates a Result with how long the call took.
func (r *Result) WithDuration(d time.Duration) *Result {
	r.Duration = d
	return r
}
