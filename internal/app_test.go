package internal

import (
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testApp builds an App over a fresh temp vault with the index and
// summarizer disabled. mutate hooks run before construction.
func testApp(t *testing.T, mutate ...func(*Config)) (*App, string) {
	t.Helper()
	vaultDir := t.TempDir()

	cfg := NewDefaultConfig()
	cfg.Vault.Path = vaultDir
	cfg.Index.Disabled = true
	cfg.Summarizer.Command = ""
	for _, m := range mutate {
		m(cfg)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app, err := New(WithConfig(cfg), WithLogger(logger))
	if err != nil {
		t.Fatal(err)
	}
	return app, vaultDir
}

// projectDir creates a directory whose base name becomes the project name.
func projectDir(t *testing.T, name string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	return dir
}

func writeTranscript(t *testing.T, lines ...string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "session.jsonl")
	if err := os.WriteFile(p, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

// findNotes returns all .md files under root, vault-relative.
func findNotes(t *testing.T, root string) []string {
	t.Helper()
	var notes []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(p, ".md") {
			rel, relErr := filepath.Rel(root, p)
			if relErr != nil {
				return relErr
			}
			notes = append(notes, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return notes
}

func readNote(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}
