// Package tools holds the catalogue of sandboxed capabilities the LLM can
// invoke: the Tool interface every implementation satisfies, the descriptor
// metadata each tool self-declares, the registry that indexes them by name
// and capability, and the dispatcher that is the only path from a parsed
// decision to an actual tool execution.
package tools

import "context"

// Tool is the contract every catalogued capability implements. A tool
// describes itself once, at its own construction site, via Descriptor();
// the registry builds the prompt-facing catalogue purely from those
// descriptions, never from a hand-maintained table.
type Tool interface {
	// Descriptor returns this tool's immutable metadata.
	Descriptor() Descriptor

	// Execute runs the tool's primary method against ctx.
	Execute(ctx context.Context, tc *Context) *Result

	// AlternativeMethod runs the named alternative method, used by the
	// dispatcher's fallback chain when Execute fails. Returns ok=false if
	// the tool has no method by that name.
	AlternativeMethod(ctx context.Context, name string, tc *Context) (*Result, bool)
}

// ParameterSpec describes one named parameter a tool accepts.
type ParameterSpec struct {
	Name        string
	Type        string // "string", "number", "boolean"
	Required    bool
	Description string
}

// Descriptor is the immutable, self-declared metadata for one tool. Built
// once at registration time; never mutated afterward.
type Descriptor struct {
	Name               string
	Description        string
	Capabilities       []string // "domain:verb" tags, e.g. "file:read"
	RequiresNetwork    bool
	RequiresFilesystem bool
	AlternativeMethods []string
	Parameters         []ParameterSpec
}

// HasCapability reports whether tag is among this descriptor's capability
// tags.
func (d Descriptor) HasCapability(tag string) bool {
	for _, c := range d.Capabilities {
		if c == tag {
			return true
		}
	}
	return false
}

// NewDescriptor starts a descriptor builder for a tool named name.
func NewDescriptor(name, description string) Descriptor {
	return Descriptor{Name: name, Description: description}
}

// WithCapabilities returns a copy of d with the given capability tags
// appended.
func (d Descriptor) WithCapabilities(tags ...string) Descriptor {
	d.Capabilities = append(append([]string{}, d.Capabilities...), tags...)
	return d
}

// WithNetwork marks the descriptor as requiring network access.
func (d Descriptor) WithNetwork() Descriptor {
	d.RequiresNetwork = true
	return d
}

// WithFilesystem marks the descriptor as requiring filesystem access.
func (d Descriptor) WithFilesystem() Descriptor {
	d.RequiresFilesystem = true
	return d
}

// WithAlternatives declares alternative method names, tried in order by the
// dispatcher if the primary Execute fails.
func (d Descriptor) WithAlternatives(methods ...string) Descriptor {
	d.AlternativeMethods = append(append([]string{}, d.AlternativeMethods...), methods...)
	return d
}

// WithParameter appends one parameter spec to the descriptor.
func (d Descriptor) WithParameter(p ParameterSpec) Descriptor {
	d.Parameters = append(append([]ParameterSpec{}, d.Parameters...), p)
	return d
}
