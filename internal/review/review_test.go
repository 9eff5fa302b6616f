package review

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestExtractUserMessages_Basic(t *testing.T) {
	md := `
# Title

### 2024-01-01 10:00:00 User
Hello, this is my question.

### 2024-01-01 10:01:00 Assistant
Here is my response.

### 2024-01-01 10:02:00 User
Follow up question.

### 2024-01-01 10:03:00 Assistant
Another response.
`
	got := ExtractUserMessages(md)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0] != "Hello, this is my question." || got[1] != "Follow up question." {
		t.Errorf("messages = %q", got)
	}
}

func TestExtractUserMessages_Multiline(t *testing.T) {
	md := `
### 2024-01-01 10:00:00 User
First line.
Second line.

### 2024-01-01 10:01:00 Assistant
Response.
`
	got := ExtractUserMessages(md)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if !strings.Contains(got[0], "First line.") || !strings.Contains(got[0], "Second line.") {
		t.Errorf("message = %q", got[0])
	}
}

func TestExtractUserMessages_Empty(t *testing.T) {
	if got := ExtractUserMessages("# Just a title\n\nNo user blocks.\n"); len(got) != 0 {
		t.Errorf("got %q", got)
	}
	if got := ExtractUserMessages("### 2024-01-01 Assistant\nOnly assistant.\n"); len(got) != 0 {
		t.Errorf("got %q", got)
	}
}

func TestExtractUserMessages_UserAtEnd(t *testing.T) {
	got := ExtractUserMessages("### 2024-01-01 10:00:00 User\nTrailing user message.\n")
	if len(got) != 1 || got[0] != "Trailing user message." {
		t.Errorf("got %q", got)
	}
}

func TestExtractUserMessages_SkipsEmptyBlocks(t *testing.T) {
	md := `
### 2024-01-01 10:00:00 User


### 2024-01-01 10:01:00 Assistant
Response.

### 2024-01-01 10:02:00 User
Real message.
`
	got := ExtractUserMessages(md)
	if len(got) != 1 || got[0] != "Real message." {
		t.Errorf("got %q", got)
	}
}

func TestExtractUserMessages_ConsecutiveUsers(t *testing.T) {
	md := `
### 2024-01-01 10:00:00 User
First user message.

### 2024-01-01 10:01:00 User
Second user message.

### 2024-01-01 10:02:00 Assistant
Response.
`
	got := ExtractUserMessages(md)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0] != "First user message." || got[1] != "Second user message." {
		t.Errorf("messages = %q", got)
	}
}

type stubSummarizer struct {
	out string
	err error
}

func (s *stubSummarizer) Summarize(context.Context, string) (string, error) {
	return s.out, s.err
}

func TestPropose_ReturnsProposals(t *testing.T) {
	got, err := Propose(context.Background(), &stubSummarizer{out: "## Skill: rebase helper\n"}, "proj", []string{"rebase my branch"})
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if !strings.Contains(got, "rebase helper") {
		t.Errorf("got %q", got)
	}
}

func TestPropose_NoneAndFailures(t *testing.T) {
	ctx := context.Background()
	msgs := []string{"hi"}

	for name, s := range map[string]*stubSummarizer{
		"none":    {out: "NONE"},
		"nothing": {out: "  \n"},
		"error":   {err: errors.New("boom")},
	} {
		got, err := Propose(ctx, s, "proj", msgs)
		if err != nil || got != "" {
			t.Errorf("%s: got %q err %v, want silent no-op", name, got, err)
		}
	}

	if got, _ := Propose(ctx, nil, "proj", msgs); got != "" {
		t.Error("nil summarizer must produce nothing")
	}
	if got, _ := Propose(ctx, &stubSummarizer{out: "x"}, "proj", nil); got != "" {
		t.Error("no messages must produce nothing")
	}
}

func TestProposalNote_Fields(t *testing.T) {
	got := ProposalNote("sess-1", `pro"j`, "Threads/2024/01/01/a_sess-1.md", "## Skill\nbody")
	for _, want := range []string{
		`session_id: "sess-1"`,
		`project: "pro\"j"`,
		`reviewed_file: "Threads/2024/01/01/a_sess-1.md"`,
		"# Skill proposals",
		"## Skill\nbody",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}
