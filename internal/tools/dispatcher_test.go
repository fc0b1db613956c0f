package tools

import (
	"context"
	"strings"
	"testing"
)

type flakyTool struct {
	desc          Descriptor
	primaryResult *Result
	altResults    map[string]*Result
}

func (f *flakyTool) Descriptor() Descriptor { return f.desc }
func (f *flakyTool) Execute(ctx context.Context, tc *Context) *Result { return f.primaryResult }
func (f *flakyTool) AlternativeMethod(ctx context.Context, name string, tc *Context) (*Result, bool) {
	r, ok := f.altResults[name]
	return r, ok
}

func TestDispatcher_FallsBackToAlternativeMethod(t *testing.T) {
	r := NewRegistry()
	tool := &flakyTool{
		desc:          NewDescriptor("flaky", "fails then recovers").WithAlternatives("retry"),
		primaryResult: Fail("primary failed"),
		altResults:    map[string]*Result{"retry": OK("recovered")},
	}
	_ = r.Register(tool)
	d := NewDispatcher(r)

	result := d.Dispatch(context.Background(), "flaky", &Context{SessionID: "s1"})
	if !result.Success {
		t.Fatalf("expected fallback success, got error: %s", result.Error)
	}
	if result.MethodUsed != "retry" {
		t.Fatalf("expected method_used=retry, got %q", result.MethodUsed)
	}
}

func TestDispatcher_AllMethodsFailJoinsErrors(t *testing.T) {
	r := NewRegistry()
	tool := &flakyTool{
		desc:          NewDescriptor("flaky", "always fails").WithAlternatives("retry"),
		primaryResult: Fail("primary failed"),
		altResults:    map[string]*Result{"retry": Fail("retry failed")},
	}
	_ = r.Register(tool)
	d := NewDispatcher(r)

	result := d.Dispatch(context.Background(), "flaky", &Context{SessionID: "s1"})
	if result.Success {
		t.Fatal("expected overall failure")
	}
	if !containsAll(result.Error, "primary failed", "retry failed") {
		t.Fatalf("expected joined failure messages, got %q", result.Error)
	}
}

func TestDispatcher_RequiresSessionID(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(newStub("alpha"))
	d := NewDispatcher(r)

	result := d.Dispatch(context.Background(), "alpha", &Context{})
	if result.Success {
		t.Fatal("expected dispatch without session id to fail")
	}
}

func TestDispatcher_MissingRequiredParameter(t *testing.T) {
	r := NewRegistry()
	tool := &stubTool{desc: NewDescriptor("needs-path", "requires path").
		WithParameter(ParameterSpec{Name: "path", Type: "string", Required: true})}
	_ = r.Register(tool)
	d := NewDispatcher(r)

	result := d.Dispatch(context.Background(), "needs-path", &Context{SessionID: "s1", Parameters: map[string]any{}})
	if result.Success {
		t.Fatal("expected missing required parameter to fail validation before Execute")
	}
}

func TestDispatcher_UnknownToolSuggestsClosestNames(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(newStub("read_file"))
	_ = r.Register(newStub("write_file"))
	d := NewDispatcher(r)

	result := d.Dispatch(context.Background(), "read_fil", &Context{SessionID: "s1"})
	if result.Success {
		t.Fatal("expected unknown tool to fail")
	}
	if !containsAll(result.Error, "read_file") {
		t.Fatalf("expected suggestion to include read_file, got %q", result.Error)
	}
}

func TestDispatcher_UnknownToolSuggestsByCapabilityIntersection(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(newStub("database_reader", "db:query"))
	d := NewDispatcher(r)

	tc := &Context{
		SessionID:  "s1",
		Parameters: map[string]any{"requiredCapabilities": []any{"db:query"}},
	}
	result := d.Dispatch(context.Background(), "query_db", tc)
	if result.Success {
		t.Fatal("expected unknown tool to fail")
	}
	if !containsAll(result.Error, "database_reader") {
		t.Fatalf("expected capability-matched suggestion database_reader, got %q", result.Error)
	}
}

func TestDispatcher_MissingToolReflectionIsSuccessful(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(newStub("reader", "file:read"))
	d := NewDispatcher(r)

	tc := &Context{
		SessionID: "s1",
		Parameters: map[string]any{
			"requiredToolName":      "database_query",
			"reason":                "no SQL tool is catalogued",
			"requiredCapabilities":  []any{"db:query", "file:read"},
		},
	}
	result := d.Dispatch(context.Background(), MissingTool, tc)
	if !result.Success {
		t.Fatalf("expected MISSING_TOOL reflection to be a successful result, got error: %s", result.Error)
	}
	report, ok := result.Output.(ReflectionReport)
	if !ok {
		t.Fatalf("expected ReflectionReport output, got %T", result.Output)
	}
	if len(report.Unsatisfied) != 1 || report.Unsatisfied[0] != "db:query" {
		t.Fatalf("expected db:query unsatisfied, got %v", report.Unsatisfied)
	}
	if names := report.Satisfied["file:read"]; len(names) != 1 || names[0] != "reader" {
		t.Fatalf("expected file:read satisfied by reader, got %v", report.Satisfied)
	}
}

func TestDispatcher_FallsBackToAnotherRegisteredTool(t *testing.T) {
	r := NewRegistry()
	primary := &flakyTool{
		desc:          NewDescriptor("fetch", "fetches over http").WithAlternatives("render"),
		primaryResult: Fail("http fetch failed"),
		altResults:    map[string]*Result{},
	}
	render := &stubTool{desc: NewDescriptor("render", "renders via browser")}
	_ = r.Register(primary)
	_ = r.Register(render)
	d := NewDispatcher(r)

	result := d.Dispatch(context.Background(), "fetch", &Context{SessionID: "s1"})
	if !result.Success {
		t.Fatalf("expected fallback to the render tool to succeed, got error: %s", result.Error)
	}
	if result.MethodUsed != "render" {
		t.Fatalf("expected method_used=render, got %q", result.MethodUsed)
	}
}

func containsAll(haystack string, needles ...string) bool {
	for _, n := range needles {
		if !strings.Contains(haystack, n) {
			return false
		}
	}
	return true
}
