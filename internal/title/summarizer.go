package title

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CommandSummarizer shells out to an external CLI that writes its answer to an
// output file. The output file is named with a fresh UUID so concurrent
// invocations never collide on temp paths.
type CommandSummarizer struct {
	command string
	timeout time.Duration
}

// NewCommandSummarizer creates a CommandSummarizer for the given binary name.
// Returns nil when command is empty, which disables summarization entirely.
func NewCommandSummarizer(command string, timeout time.Duration) *CommandSummarizer {
	if strings.TrimSpace(command) == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &CommandSummarizer{command: command, timeout: timeout}
}

// Summarize runs the external command and returns the contents of its output
// file. Non-zero exit, spawn failure, and unreadable output are all errors.
func (s *CommandSummarizer) Summarize(ctx context.Context, prompt string) (string, error) {
	outFile := filepath.Join(os.TempDir(), "ansuz_"+uuid.NewString()+".txt")
	defer os.Remove(outFile)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// stdout/stderr stay unset: the answer arrives via the output file and
	// diagnostic noise must not leak into the hook protocol streams.
	cmd := exec.CommandContext(ctx, s.command, "exec", "-c", "notify=[]", "-o", outFile, prompt)
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("title: run %s: %w", s.command, err)
	}

	out, err := os.ReadFile(outFile)
	if err != nil {
		return "", fmt.Errorf("title: read summarizer output: %w", err)
	}
	return string(out), nil
}
