package tools

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// MissingTool is the sentinel tool name by which the LLM confesses that no
// catalogued tool fits its need, triggering the dispatcher's reflection
// path instead of an ordinary execution.
const MissingTool = "MISSING_TOOL"

// Registry holds tool instances for the process lifetime, indexed by
// lowercased name and by capability tag. Populated once at startup;
// read-only afterward and safe for concurrent lookup.
type Registry struct {
	mu           sync.RWMutex
	byName       map[string]Tool
	byCapability map[string]map[string]struct{} // capability -> set of tool names
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:       make(map[string]Tool),
		byCapability: make(map[string]map[string]struct{}),
	}
}

// Register adds a tool to the registry. Duplicate names (case-insensitive)
// and names colliding with the MissingTool sentinel are rejected.
func (r *Registry) Register(t Tool) error {
	d := t.Descriptor()
	key := strings.ToLower(d.Name)
	if key == strings.ToLower(MissingTool) {
		return fmt.Errorf("tools: %q is a reserved sentinel name", d.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[key]; exists {
		slog.Warn("tools: duplicate registration ignored", "name", d.Name)
		return fmt.Errorf("tools: %q already registered", d.Name)
	}
	r.byName[key] = t
	for _, cap := range d.Capabilities {
		set, ok := r.byCapability[cap]
		if !ok {
			set = make(map[string]struct{})
			r.byCapability[cap] = set
		}
		set[key] = struct{}{}
	}
	return nil
}

// Lookup returns the tool registered under name, case-insensitively.
func (r *Registry) Lookup(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[strings.ToLower(name)]
	return t, ok
}

// ByCapability returns all tools whose descriptor declares tag.
func (r *Registry) ByCapability(tag string) []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.byCapability[tag]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]Tool, 0, len(names))
	for _, n := range names {
		out = append(out, r.byName[n])
	}
	return out
}

// Names returns every registered tool name, in a stable sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for _, t := range r.byName {
		names = append(names, t.Descriptor().Name)
	}
	sort.Strings(names)
	return names
}

// All returns every registered tool, in a stable order by name.
func (r *Registry) All() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for k := range r.byName {
		names = append(names, k)
	}
	sort.Strings(names)
	out := make([]Tool, 0, len(names))
	for _, n := range names {
		out = append(out, r.byName[n])
	}
	return out
}

// Catalogue renders a stable, human-readable description of every tool —
// name, purpose, parameters, network/filesystem requirements, and fallback
// strategy — meant to be injected verbatim into the LLM's system prompt so
// the model knows exactly what is callable.
func (r *Registry) Catalogue() string {
	var b strings.Builder
	for _, t := range r.All() {
		d := t.Descriptor()
		fmt.Fprintf(&b, "## %s\n%s\n", d.Name, d.Description)
		if len(d.Capabilities) > 0 {
			fmt.Fprintf(&b, "Capabilities: %s\n", strings.Join(d.Capabilities, ", "))
		}
		if len(d.Parameters) > 0 {
			b.WriteString("Parameters:\n")
			for _, p := range d.Parameters {
				req := "optional"
				if p.Required {
					req = "required"
				}
				fmt.Fprintf(&b, "  - %s (%s, %s): %s\n", p.Name, p.Type, req, p.Description)
			}
		}
		fmt.Fprintf(&b, "Network: %v  Filesystem: %v\n", d.RequiresNetwork, d.RequiresFilesystem)
		if len(d.AlternativeMethods) > 0 {
			fmt.Fprintf(&b, "Falls back to: %s\n", strings.Join(d.AlternativeMethods, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}
