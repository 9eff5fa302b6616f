package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/ansuz/internal/note"
)

func headingTime(t *testing.T, rfc3339 string) string {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, rfc3339)
	if err != nil {
		t.Fatal(err)
	}
	return ts.Local().Format("2006-01-02 15:04:05 -0700")
}

func sessionPayload(sessionID, transcriptPath, cwd string) string {
	return fmt.Sprintf(`{"session_id":%q,"transcript_path":%q,"cwd":%q}`,
		sessionID, transcriptPath, cwd)
}

func TestRunSession_EmptyStdinIsNoop(t *testing.T) {
	app, vaultDir := testApp(t)
	if err := app.RunSession(context.Background(), strings.NewReader("  \n")); err != nil {
		t.Fatalf("RunSession: %v", err)
	}
	if notes := findNotes(t, vaultDir); len(notes) != 0 {
		t.Errorf("expected no notes, got %v", notes)
	}
}

func TestRunSession_MissingTranscriptPath(t *testing.T) {
	app, _ := testApp(t)
	err := app.RunSession(context.Background(), strings.NewReader(`{"session_id":"s1"}`))
	if err == nil {
		t.Fatal("expected error for payload without transcript_path")
	}
}

func TestRunSession_CreatesNote(t *testing.T) {
	app, vaultDir := testApp(t)
	cwd := projectDir(t, "myproj")
	tp := writeTranscript(t,
		`{"type":"user","timestamp":"2024-01-01T10:00:00Z","message":{"content":"Hi"}}`,
		`{"type":"assistant","timestamp":"2024-01-01T10:00:05Z","message":{"content":[{"type":"text","text":"Hello"}]}}`,
	)

	err := app.RunSession(context.Background(), strings.NewReader(sessionPayload("sess-e2e", tp, cwd)))
	if err != nil {
		t.Fatalf("RunSession: %v", err)
	}

	notes := findNotes(t, vaultDir)
	if len(notes) != 1 {
		t.Fatalf("expected 1 note, got %v", notes)
	}
	rel := notes[0]

	if !strings.HasPrefix(rel, "AI/Claude Code/myproj/Threads/") {
		t.Errorf("note path = %q, want it under the project thread tree", rel)
	}
	if got := filepath.Base(rel); got != "hi_sess-e2e.md" {
		t.Errorf("note filename = %q, want %q", got, "hi_sess-e2e.md")
	}

	content := readNote(t, vaultDir, rel)
	for _, want := range []string{
		`tool: "Claude Code"`,
		`project: "myproj"`,
		`session_id: "sess-e2e"`,
		fmt.Sprintf("cwd: %q", cwd),
		note.TranscriptBegin,
		note.TranscriptEnd,
		"### " + headingTime(t, "2024-01-01T10:00:00Z") + " User\nHi\n",
		"### " + headingTime(t, "2024-01-01T10:00:05Z") + " Assistant\nHello\n",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("note missing %q\n---\n%s", want, content)
		}
	}
}

func TestRunSession_RepeatConvergesToSameRegion(t *testing.T) {
	app, vaultDir := testApp(t)
	cwd := projectDir(t, "proj")
	tp := writeTranscript(t,
		`{"type":"user","timestamp":"2024-02-02T09:00:00Z","message":{"content":"question"}}`,
		`{"type":"assistant","timestamp":"2024-02-02T09:00:01Z","message":{"content":"answer"}}`,
	)
	payload := sessionPayload("sess-repeat", tp, cwd)

	for i := 0; i < 2; i++ {
		if err := app.RunSession(context.Background(), strings.NewReader(payload)); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	notes := findNotes(t, vaultDir)
	var threadNotes []string
	for _, n := range notes {
		if !strings.HasPrefix(n, "AI/_raw/") {
			threadNotes = append(threadNotes, n)
		}
	}
	if len(threadNotes) != 1 {
		t.Fatalf("expected 1 thread note, got %v", notes)
	}

	content := readNote(t, vaultDir, threadNotes[0])
	if got := strings.Count(content, note.TranscriptBegin); got != 1 {
		t.Errorf("begin marker count = %d, want 1", got)
	}
	if got := strings.Count(content, "question"); got != 1 {
		t.Errorf("user text appears %d times, want 1", got)
	}
}

func TestRunSession_PreservesManualEdits(t *testing.T) {
	app, vaultDir := testApp(t)
	cwd := projectDir(t, "proj")
	tp := writeTranscript(t,
		`{"type":"user","timestamp":"2024-03-03T08:00:00Z","message":{"content":"hello"}}`,
	)
	payload := sessionPayload("sess-manual", tp, cwd)

	if err := app.RunSession(context.Background(), strings.NewReader(payload)); err != nil {
		t.Fatal(err)
	}
	rel := findNotes(t, vaultDir)[0]
	abs := filepath.Join(vaultDir, filepath.FromSlash(rel))

	manual := "My own commentary above the export.\n\n"
	orig, err := os.ReadFile(abs)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, append([]byte(manual), orig...), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := app.RunSession(context.Background(), strings.NewReader(payload)); err != nil {
		t.Fatal(err)
	}

	content := readNote(t, vaultDir, rel)
	if !strings.HasPrefix(content, manual) {
		t.Error("manual edits outside the auto region were lost")
	}
	if got := strings.Count(content, note.TranscriptBegin); got != 1 {
		t.Errorf("begin marker count = %d, want 1", got)
	}
}

func TestRunSession_AuditTrail(t *testing.T) {
	app, vaultDir := testApp(t)
	cwd := projectDir(t, "proj")
	tp := writeTranscript(t,
		`{"type":"user","message":{"content":"hi"}}`,
	)
	payload := sessionPayload("sess-audit", tp, cwd)

	for i := 0; i < 2; i++ {
		if err := app.RunSession(context.Background(), strings.NewReader(payload)); err != nil {
			t.Fatal(err)
		}
	}

	auditPath := filepath.Join(vaultDir, "AI", "_raw", "Claude Code", "proj", "sess-audit.jsonl")
	data, err := os.ReadFile(auditPath)
	if err != nil {
		t.Fatalf("audit file: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Errorf("audit lines = %d, want 2", len(lines))
	}
}

func TestRunSession_AuditDisabled(t *testing.T) {
	app, vaultDir := testApp(t, func(cfg *Config) {
		cfg.Audit.Disabled = true
	})
	cwd := projectDir(t, "proj")
	tp := writeTranscript(t, `{"type":"user","message":{"content":"hi"}}`)

	if err := app.RunSession(context.Background(), strings.NewReader(sessionPayload("s", tp, cwd))); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(vaultDir, "AI", "_raw")); !os.IsNotExist(err) {
		t.Error("audit tree should not exist when audit is disabled")
	}
}

func TestRunSession_WithIndexEnabled(t *testing.T) {
	app, vaultDir := testApp(t, func(cfg *Config) {
		cfg.Index.Disabled = false
	})
	cwd := projectDir(t, "proj")
	tp := writeTranscript(t,
		`{"type":"user","timestamp":"2024-04-04T07:00:00Z","message":{"content":"indexed run"}}`,
	)
	payload := sessionPayload("sess-idx", tp, cwd)

	for i := 0; i < 2; i++ {
		if err := app.RunSession(context.Background(), strings.NewReader(payload)); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	if _, err := os.Stat(app.cfg.IndexPath()); err != nil {
		t.Errorf("index database missing: %v", err)
	}
	var count int
	for _, n := range findNotes(t, vaultDir) {
		if strings.Contains(n, "sess-idx") {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one note for the session, got %d", count)
	}
}
