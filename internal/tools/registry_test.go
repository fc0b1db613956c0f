package tools

import (
	"context"
	"strings"
	"testing"
)

type stubTool struct {
	desc Descriptor
}

func (s *stubTool) Descriptor() Descriptor { return s.desc }
func (s *stubTool) Execute(ctx context.Context, tc *Context) *Result {
	return OK("stub-" + s.desc.Name)
}
func (s *stubTool) AlternativeMethod(ctx context.Context, name string, tc *Context) (*Result, bool) {
	return nil, false
}

func newStub(name string, caps ...string) *stubTool {
	return &stubTool{desc: NewDescriptor(name, "a stub tool").WithCapabilities(caps...)}
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(newStub("alpha", "x:y")); err != nil {
		t.Fatalf("register: %v", err)
	}
	tool, ok := r.Lookup("ALPHA")
	if !ok {
		t.Fatal("expected case-insensitive lookup to find alpha")
	}
	if tool.Descriptor().Name != "alpha" {
		t.Fatalf("got %q", tool.Descriptor().Name)
	}
}

func TestRegistry_RejectsDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(newStub("alpha")); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := r.Register(newStub("alpha")); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestRegistry_RejectsSentinelName(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(newStub(MissingTool)); err == nil {
		t.Fatal("expected registering the sentinel name to fail")
	}
}

func TestRegistry_ByCapability(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(newStub("reader", "file:read"))
	_ = r.Register(newStub("writer", "file:write"))
	_ = r.Register(newStub("lister", "file:read", "file:list"))

	readers := r.ByCapability("file:read")
	if len(readers) != 2 {
		t.Fatalf("expected 2 tools with file:read, got %d", len(readers))
	}
	if readers[0].Descriptor().Name != "lister" || readers[1].Descriptor().Name != "reader" {
		t.Fatalf("expected sorted order [lister, reader], got [%s, %s]", readers[0].Descriptor().Name, readers[1].Descriptor().Name)
	}
}

func TestRegistry_CatalogueIncludesEveryTool(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(newStub("alpha", "a:b"))
	_ = r.Register(newStub("beta", "c:d"))
	cat := r.Catalogue()
	if !strings.Contains(cat, "## alpha") || !strings.Contains(cat, "## beta") {
		t.Fatalf("catalogue missing expected tool sections:\n%s", cat)
	}
}
