// Package gitinfo resolves a human-readable project name for a working
// directory. Git is a best-effort collaborator: every failure falls back to
// the directory's own name.
package gitinfo

import (
	"os/exec"
	"path/filepath"
	"strings"
)

// ProjectName returns the repository root directory name for cwd, or the base
// name of cwd itself when cwd is not inside a repository (or git is missing).
func ProjectName(cwd string) string {
	out, err := exec.Command("git", "-C", cwd, "rev-parse", "--show-toplevel").Output()
	if err == nil {
		if name := filepath.Base(strings.TrimSpace(string(out))); name != "" && name != "." && name != string(filepath.Separator) {
			return name
		}
	}

	if name := filepath.Base(filepath.Clean(cwd)); name != "" && name != "." && name != string(filepath.Separator) {
		return name
	}
	return "unknown-project"
}
