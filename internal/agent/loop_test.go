package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/agentcore/orchestrator/internal/providers"
	"github.com/agentcore/orchestrator/internal/sandbox"
	"github.com/agentcore/orchestrator/internal/tools"
)

// scriptedProvider replays a fixed sequence of assistant responses,
// regardless of what prompt it was sent, advancing one entry per call.
type scriptedProvider struct {
	responses []string
	calls     int
}

func (p *scriptedProvider) Chat(ctx context.Context, req providers.ChatRequest) (*providers.ChatResponse, error) {
	if p.calls >= len(p.responses) {
		return &providers.ChatResponse{Content: p.responses[len(p.responses)-1]}, nil
	}
	content := p.responses[p.calls]
	p.calls++
	return &providers.ChatResponse{Content: content}, nil
}

func (p *scriptedProvider) Name() string                                      { return "scripted" }
func (p *scriptedProvider) DefaultModel() string                              { return "test-model" }
func (p *scriptedProvider) HealthCheck(ctx context.Context) error             { return nil }
func (p *scriptedProvider) ListModels(ctx context.Context) ([]string, error) { return nil, nil }

type echoTool struct{}

func (echoTool) Descriptor() tools.Descriptor {
	return tools.NewDescriptor("echo", "echoes its input parameter back").
		WithParameter(tools.ParameterSpec{Name: "text", Type: "string", Required: true, Description: "text to echo"})
}

func (echoTool) Execute(ctx context.Context, tc *tools.Context) *tools.Result {
	text, _ := tc.Param("text")
	return tools.OK(text)
}

func (echoTool) AlternativeMethod(ctx context.Context, name string, tc *tools.Context) (*tools.Result, bool) {
	return nil, false
}

func newTestLoop(t *testing.T, responses []string) (*Loop, *scriptedProvider) {
	t.Helper()
	registry := tools.NewRegistry()
	if err := registry.Register(echoTool{}); err != nil {
		t.Fatal(err)
	}
	dispatcher := tools.NewDispatcher(registry)
	mgr := sandbox.NewFSManager(t.TempDir())
	prov := &scriptedProvider{responses: responses}
	loop := NewLoop(Config{
		Provider:   prov,
		Model:      "test-model",
		Registry:   registry,
		Dispatcher: dispatcher,
		Sandbox:    mgr,
	})
	return loop, prov
}

func TestLoop_CompletesOnFirstWellFormedResponse(t *testing.T) {
	loop, _ := newTestLoop(t, []string{
		`{"taskComplete": true, "response": "the answer is 4", "requiresTool": false}`,
	})
	outcome, err := loop.Run(context.Background(), "sess-1", "single", "what is 2+2?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Truncated {
		t.Fatal("did not expect truncation")
	}
	if outcome.Response != "the answer is 4" {
		t.Fatalf("response = %q", outcome.Response)
	}
	if outcome.Iteration != 1 {
		t.Fatalf("iteration = %d, want 1", outcome.Iteration)
	}
}

func TestLoop_DispatchesToolThenCompletes(t *testing.T) {
	loop, _ := newTestLoop(t, []string{
		`{"requiresTool": true, "tool": "echo", "parameters": {"text": "hello"}}`,
		`{"taskComplete": true, "response": "the tool said hello"}`,
	})
	outcome, err := loop.Run(context.Background(), "sess-2", "single", "say hello via the tool")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Response != "the tool said hello" {
		t.Fatalf("response = %q", outcome.Response)
	}
	if outcome.Iteration != 2 {
		t.Fatalf("iteration = %d, want 2", outcome.Iteration)
	}
}

func TestLoop_MalformedResponseGetsCorrectivePromptThenRecovers(t *testing.T) {
	loop, prov := newTestLoop(t, []string{
		"I think the answer is probably something, not sure how to format this.",
		`{"taskComplete": true, "response": "recovered"}`,
	})
	outcome, err := loop.Run(context.Background(), "sess-3", "single", "question")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Response != "recovered" {
		t.Fatalf("response = %q", outcome.Response)
	}
	if prov.calls != 2 {
		t.Fatalf("expected 2 chat calls, got %d", prov.calls)
	}
}

func TestLoop_TruncatesAtIterationCapWithBestSoFar(t *testing.T) {
	loop, _ := newTestLoop(t, []string{
		`{"requiresTool": false, "taskComplete": false, "response": "still working", "nextStep": "keep going"}`,
	})
	outcome, err := loop.Run(context.Background(), "sess-4", "single", "never finish")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcome.Truncated {
		t.Fatal("expected truncation at the single-mode iteration cap")
	}
	if outcome.Response != "still working" {
		t.Fatalf("response = %q, want best-so-far", outcome.Response)
	}
}

func TestLoop_UnknownModeIsRejected(t *testing.T) {
	loop, _ := newTestLoop(t, nil)
	_, err := loop.Run(context.Background(), "sess-5", "turbo", "anything")
	if err == nil || !strings.Contains(err.Error(), "unrecognized mode") {
		t.Fatalf("expected unrecognized mode error, got %v", err)
	}
}
