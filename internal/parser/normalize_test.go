package parser

import "testing"

func TestNormalize_StripsThinkingTags(t *testing.T) {
	raw := `<think>let me consider the options {not json}</think>{"taskComplete": true, "response": "ok"}`
	got := normalize(raw)
	if got != `{"taskComplete": true, "response": "ok"}` {
		t.Fatalf("normalize() = %q", got)
	}
}

func TestNormalize_StripsEchoedSystemMessage(t *testing.T) {
	raw := "[System Message] you are an assistant\nStats: 3 tokens\n\n{\"taskComplete\": true, \"response\": \"ok\"}"
	got := normalize(raw)
	if got != `{"taskComplete": true, "response": "ok"}` {
		t.Fatalf("normalize() = %q", got)
	}
}

func TestNormalize_CollapsesConsecutiveDuplicateBlocks(t *testing.T) {
	raw := "same paragraph\n\nsame paragraph\n\ndifferent paragraph"
	got := normalize(raw)
	if got != "same paragraph\n\ndifferent paragraph" {
		t.Fatalf("normalize() = %q", got)
	}
}

func TestParse_EndToEndWithThinkingTagNoise(t *testing.T) {
	raw := `<thinking>2+2 is basic arithmetic</thinking>{"taskComplete": true, "response": "4"}`
	rec := New().Parse("sess-norm", raw)
	if !rec.IsWellFormed() || rec.Response != "4" {
		t.Fatalf("rec = %+v", rec)
	}
}
