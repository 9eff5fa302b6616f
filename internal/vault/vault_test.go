package vault

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func tempVault(t *testing.T) *FS {
	t.Helper()
	v, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return v
}

func TestOpen_MissingRoot(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestWriteAndRead(t *testing.T) {
	v := tempVault(t)
	content := []byte("# Hello\nWorld\n")
	if err := v.Write("note.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := v.Read("note.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	v := tempVault(t)
	if err := v.Write("a/b/c.md", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := v.Read("a/b/c.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestAbs_RejectsEscape(t *testing.T) {
	v := tempVault(t)
	for _, rel := range []string{"../evil.md", "a/../../evil.md", "/abs.md"} {
		if _, err := v.Abs(rel); err == nil {
			t.Errorf("Abs(%q) should be rejected", rel)
		}
	}
}

func TestMove(t *testing.T) {
	v := tempVault(t)
	_ = v.Write("old.md", []byte("data"))
	if err := v.Move("old.md", "sub/new.md"); err != nil {
		t.Fatalf("Move: %v", err)
	}
	got, err := v.Read("sub/new.md")
	if err != nil {
		t.Fatalf("Read after move: %v", err)
	}
	if string(got) != "data" {
		t.Errorf("content = %q", got)
	}
	if v.Exists("old.md") {
		t.Error("old path still exists")
	}
}

func TestAppendLine(t *testing.T) {
	v := tempVault(t)
	if err := v.AppendLine("_raw/log.jsonl", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("AppendLine: %v", err)
	}
	if err := v.AppendLine("_raw/log.jsonl", []byte(`{"b":2}`)); err != nil {
		t.Fatalf("AppendLine: %v", err)
	}
	got, err := v.Read("_raw/log.jsonl")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "{\"a\":1}\n{\"b\":2}\n" {
		t.Errorf("content = %q", got)
	}
}

func TestWalk_OrderAndFilter(t *testing.T) {
	v := tempVault(t)
	_ = v.Write("t/2024/01/02/b.md", []byte("x"))
	_ = v.Write("t/2024/01/01/a.md", []byte("x"))
	_ = v.Write("t/readme.txt", []byte("not a note"))

	var seen []string
	err := v.Walk("t", func(rel string, _ fs.DirEntry) error {
		seen = append(seen, rel)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	want := []string{"t/2024/01/01/a.md", "t/2024/01/02/b.md"}
	if strings.Join(seen, ",") != strings.Join(want, ",") {
		t.Errorf("seen = %v, want %v", seen, want)
	}
}

func TestWalk_MissingDirIsEmpty(t *testing.T) {
	v := tempVault(t)
	err := v.Walk("does/not/exist", func(string, fs.DirEntry) error {
		t.Error("callback must not run")
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
}

func TestList(t *testing.T) {
	v := tempVault(t)
	_ = v.Write("n/one.md", []byte("one"))
	_ = v.Write("n/two.md", []byte("two"))
	metas, err := v.List("n")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("len = %d, want 2", len(metas))
	}
	if metas[0].Checksum == "" || metas[0].Checksum == metas[1].Checksum {
		t.Errorf("checksums wrong: %v", metas)
	}
}

func TestWriteIsAtomicOnDisk(t *testing.T) {
	v := tempVault(t)
	if err := v.Write("note.md", []byte("v1")); err != nil {
		t.Fatal(err)
	}
	if err := v.Write("note.md", []byte("v2")); err != nil {
		t.Fatal(err)
	}
	// No temp files may linger.
	entries, err := os.ReadDir(v.Root())
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".ansuz-tmp-") {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}
