package parser

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse_JSONStrategy(t *testing.T) {
	raw := "Sure thing, here's my answer:\n```json\n{\"taskComplete\": true, \"response\": \"4\", \"requiresTool\": false}\n```\nhope that helps"
	rec := New().Parse("s1", raw)
	if rec.Strategy != "json" {
		t.Fatalf("strategy = %q, want json", rec.Strategy)
	}
	if !rec.TaskComplete || rec.Response != "4" {
		t.Fatalf("rec = %+v", rec)
	}
}

func TestParse_JSONStrategy_TrailingComma(t *testing.T) {
	raw := `{"taskComplete": false, "requiresTool": true, "tool": "read_file", "parameters": {"path": "a.txt",},}`
	rec := New().Parse("s1", raw)
	if rec.Strategy != "json" {
		t.Fatalf("strategy = %q, want json", rec.Strategy)
	}
	if rec.Tool != "read_file" || rec.Parameters["path"] != "a.txt" {
		t.Fatalf("rec = %+v", rec)
	}
}

func TestParse_YAMLStrategy(t *testing.T) {
	raw := "taskComplete: false\nrequiresTool: true\ntool: web_search\nparameters:\n  query: weather today\nnextStep: check results\n"
	rec := New().Parse("s1", raw)
	if rec.Strategy != "yaml" {
		t.Fatalf("strategy = %q, want yaml, rec=%+v", rec.Strategy, rec)
	}
	if rec.Tool != "web_search" || rec.Parameters["query"] != "weather today" {
		t.Fatalf("rec = %+v", rec)
	}
}

func TestParse_KVStrategy(t *testing.T) {
	// The embedded "Note: " inside the Response value has a colon
	// followed by a space, which a real YAML decoder chokes on as an
	// ambiguous nested mapping — so this input falls through YAML to KV.
	raw := "Task Completed: true\nResponse: Note: remember this detail\n"
	rec := New().Parse("s1", raw)
	if rec.Strategy != "kv" {
		t.Fatalf("strategy = %q, want kv, rec=%+v", rec.Strategy, rec)
	}
	if !rec.TaskComplete || rec.Response == "" {
		t.Fatalf("rec = %+v", rec)
	}
}

func TestParse_MarkdownStrategy(t *testing.T) {
	raw := "## Task Status\nCompleted\n\n## Response\nHere is a C# snippet:\n```\nConsole.WriteLine(\"{hi}\");\n```\n"
	rec := New().Parse("s1", raw)
	if rec.Strategy != "markdown" {
		t.Fatalf("strategy = %q, want markdown, rec=%+v", rec.Strategy, rec)
	}
	if !rec.TaskComplete {
		t.Fatalf("expected taskComplete=true, rec=%+v", rec)
	}
}

func TestParse_PlainTextFallback_BareCodeBlockWithStrayBraces(t *testing.T) {
	// Boundary scenario 2: a bare C# code block with stray {/} — JSON
	// strategy fails (braces aren't balanced as a JSON object since the
	// content isn't valid JSON), a later strategy succeeds; taskComplete
	// inferred true, response contains the code verbatim.
	raw := "```csharp\npublic class Foo { public void Bar() { } }\n```"
	rec := New().Parse("s1", raw)
	if rec.Strategy != "plaintext" {
		t.Fatalf("strategy = %q, want plaintext, rec=%+v", rec.Strategy, rec)
	}
	if !rec.TaskComplete {
		t.Fatalf("expected taskComplete=true for a fenced code block, rec=%+v", rec)
	}
	if rec.Response == "" {
		t.Fatalf("expected response to carry the code verbatim")
	}
}

func TestParse_PlainTextFallback_ContinuationPhrase(t *testing.T) {
	raw := "I need to check the file contents before I can answer."
	rec := New().Parse("s1", raw)
	if rec.Strategy != "plaintext" {
		t.Fatalf("strategy = %q, want plaintext", rec.Strategy)
	}
	if rec.TaskComplete {
		t.Fatalf("expected taskComplete=false for a continuation phrase")
	}
}

func TestParse_EmptyInputFails(t *testing.T) {
	rec := New().Parse("s1", "   \n  ")
	if !rec.ParseFailed {
		t.Fatalf("expected ParseFailed for empty input, rec=%+v", rec)
	}
	if CorrectivePrompt(rec) == "" {
		t.Fatal("expected a corrective prompt")
	}
}

func TestDecisionRecord_ValidationRules(t *testing.T) {
	cases := []struct {
		name string
		rec  DecisionRecord
		want string
	}{
		{"complete without response", DecisionRecord{TaskComplete: true}, "taskComplete is true but response is empty"},
		{"complete and tool", DecisionRecord{TaskComplete: true, Response: "x", RequiresTool: true, Tool: "t"}, "taskComplete and requiresTool cannot both be true"},
		{"tool without name", DecisionRecord{RequiresTool: true}, "requiresTool is true but tool is empty"},
		{"nothing set", DecisionRecord{}, "decision has no response, tool request, or next step"},
		{"well formed tool call", DecisionRecord{RequiresTool: true, Tool: "read_file"}, ""},
		{"well formed next step", DecisionRecord{NextStep: "investigate further"}, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			c.rec.Validate()
			if c.rec.ValidationError != c.want {
				t.Fatalf("got %q, want %q", c.rec.ValidationError, c.want)
			}
		})
	}
}

// TestParserMonotonicity exercises the law: if strategy k succeeds on
// input x, no strategy with index < k would have yielded a semantically
// different record. We check this indirectly: feeding input shaped for
// strategy k to the individual earlier strategy functions must fail
// outright (not silently parse a different record), so Parse's ordering
// never silently diverges from a well-formed input's natural strategy.
func TestParserMonotonicity(t *testing.T) {
	yamlInput := "taskComplete: true\nresponse: all set\n"
	if _, err := parseJSON(yamlInput); err == nil {
		t.Fatal("expected JSON strategy to reject YAML-shaped input")
	}

	kvInput := "Response: plain scalar answer\nTask Completed: true\n"
	if _, err := parseJSON(kvInput); err == nil {
		t.Fatal("expected JSON strategy to reject KV-shaped input")
	}

	mdInput := "## Response\nok\n"
	if _, err := parseJSON(mdInput); err == nil {
		t.Fatal("expected JSON strategy to reject markdown input")
	}
	if _, err := parseYAML(mdInput); err == nil {
		t.Fatal("expected YAML strategy to reject markdown input")
	}
}

// TestParserIdempotence checks parse(render(decision)) == decision for a
// canonical JSON rendering of a well-formed decision.
func TestParserIdempotence(t *testing.T) {
	original := &DecisionRecord{
		TaskComplete: true,
		Response:     "4",
		Parameters:   map[string]any{},
	}
	b, err := json.Marshal(map[string]any{
		"taskComplete": original.TaskComplete,
		"response":     original.Response,
		"requiresTool": original.RequiresTool,
	})
	if err != nil {
		t.Fatal(err)
	}

	rec := New().Parse("s1", string(b))
	if diff := cmp.Diff(original.TaskComplete, rec.TaskComplete); diff != "" {
		t.Errorf("taskComplete mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(original.Response, rec.Response); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_MissingToolSentinel(t *testing.T) {
	raw := `{"requiresTool": true, "tool": "MISSING_TOOL", "parameters": {"requiredToolName": "db_query", "requiredCapabilities": ["db:query"], "reason": "no SQL tool catalogued"}}`
	rec := New().Parse("s1", raw)
	if rec.Tool != MissingTool {
		t.Fatalf("tool = %q, want %q", rec.Tool, MissingTool)
	}
	caps, _ := rec.Parameters["requiredCapabilities"].([]any)
	if len(caps) != 1 || caps[0] != "db:query" {
		t.Fatalf("parameters = %+v", rec.Parameters)
	}
}
