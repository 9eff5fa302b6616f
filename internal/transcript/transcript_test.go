package transcript

import (
	"strings"
	"testing"
)

func TestParse_UserAndAssistant(t *testing.T) {
	input := `{"type":"user","message":{"content":"Hi"},"timestamp":"2024-01-01T10:00:00Z","cwd":"/work/proj"}
{"type":"assistant","message":{"content":[{"type":"text","text":"Hello"}]},"timestamp":"2024-01-01T10:00:05Z"}
`
	tr, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(tr.Messages) != 2 {
		t.Fatalf("len(Messages) = %d, want 2", len(tr.Messages))
	}
	if tr.Messages[0].Role != RoleUser || tr.Messages[0].Text != "Hi" {
		t.Errorf("first message = %+v", tr.Messages[0])
	}
	if tr.Messages[1].Role != RoleAssistant || tr.Messages[1].Text != "Hello" {
		t.Errorf("second message = %+v", tr.Messages[1])
	}
	if tr.Messages[0].Timestamp.IsZero() {
		t.Error("expected parsed timestamp")
	}
	if tr.Cwd != "/work/proj" {
		t.Errorf("Cwd = %q", tr.Cwd)
	}
}

func TestParse_SkipsMalformedLines(t *testing.T) {
	input := `not json at all
{"type":"user","message":{"content":"ok"}}
{"type":"system","message":{"content":"ignored"}}
`
	tr, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(tr.Messages) != 1 || tr.Messages[0].Text != "ok" {
		t.Errorf("messages = %+v", tr.Messages)
	}
}

func TestParse_SkipsEmptyContent(t *testing.T) {
	input := `{"type":"user","message":{"content":"   "}}
{"type":"assistant","message":{"content":[{"type":"tool_use","name":"bash"}]}}
`
	tr, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(tr.Messages) != 0 {
		t.Errorf("messages = %+v", tr.Messages)
	}
}

func TestExtractText_String(t *testing.T) {
	got, ok := ExtractText("hello")
	if !ok || got != "hello" {
		t.Errorf("got %q, ok=%v", got, ok)
	}
}

func TestExtractText_FragmentArray(t *testing.T) {
	v := []any{
		map[string]any{"type": "text", "text": "hello"},
		map[string]any{"type": "tool_use", "name": "bash"},
		map[string]any{"type": "text", "text": "world"},
	}
	got, ok := ExtractText(v)
	if !ok || got != "hello\nworld" {
		t.Errorf("got %q, ok=%v", got, ok)
	}
}

func TestExtractText_EmptyAndNull(t *testing.T) {
	if _, ok := ExtractText([]any{}); ok {
		t.Error("expected no text from empty array")
	}
	if _, ok := ExtractText(nil); ok {
		t.Error("expected no text from nil")
	}
	if _, ok := ExtractText([]any{map[string]any{"type": "text", "text": ""}}); ok {
		t.Error("expected no text from blank fragments")
	}
}

func TestFirstUserMessageAndStartedAt(t *testing.T) {
	input := `{"type":"assistant","message":{"content":"preamble"}}
{"type":"user","message":{"content":"question"},"timestamp":"2024-02-02T08:00:00Z"}
`
	tr, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := tr.FirstUserMessage(); got != "question" {
		t.Errorf("FirstUserMessage = %q", got)
	}
	if tr.StartedAt().IsZero() {
		t.Error("StartedAt should find the timestamped event")
	}
}
