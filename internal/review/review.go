// Package review inspects a finished session's note and proposes reusable
// skills (custom instructions/workflows) derived from what the user asked
// for. The summarizer is a best-effort collaborator: no proposals is a normal
// outcome, never an error.
package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/ansuz/internal/note"
	"github.com/starford/ansuz/internal/title"
)

// ExtractUserMessages collects the bodies of `### ... User` blocks from note
// text, in order, skipping blocks that are empty after trimming.
func ExtractUserMessages(noteText string) []string {
	var messages []string
	var current strings.Builder
	inUserBlock := false

	flush := func() {
		if msg := strings.TrimSpace(current.String()); msg != "" {
			messages = append(messages, msg)
		}
		current.Reset()
	}

	for _, line := range strings.Split(noteText, "\n") {
		switch {
		case strings.HasPrefix(line, "### ") && strings.Contains(line, " User"):
			if inUserBlock {
				flush()
			} else {
				current.Reset()
			}
			inUserBlock = true
		case strings.HasPrefix(line, "### ") && strings.Contains(line, " Assistant"):
			if inUserBlock {
				flush()
			}
			inUserBlock = false
		case inUserBlock:
			current.WriteString(line)
			current.WriteString("\n")
		}
	}
	if inUserBlock {
		flush()
	}

	return messages
}

// Propose asks the summarizer for skill proposals based on the session's user
// messages. Returns "" (and no error) when the summarizer declines, fails, or
// answers NONE.
func Propose(ctx context.Context, s title.Summarizer, project string, userMessages []string) (string, error) {
	if s == nil || len(userMessages) == 0 {
		return "", nil
	}

	prompt := fmt.Sprintf(`You are reviewing the user instructions from a coding session in project %q.

Analyze the user messages below and identify patterns that could be automated as reusable Skills (custom instructions/workflows for an AI assistant).

User messages:
%s

Propose Skills that would help in future sessions. For each Skill give:
1. Name: a short descriptive name
2. Purpose: what it automates or simplifies
3. When to use: the trigger conditions
4. Implementation hints: the key steps or patterns

Only propose Skills when a clear pattern exists. If the session is too simple or one-off, output exactly "NONE".

Answer in Markdown.`,
		project, strings.Join(userMessages, "\n\n---\n\n"))

	out, err := s.Summarize(ctx, prompt)
	if err != nil {
		// Best-effort: a failed reviewer produces no proposals.
		return "", nil
	}

	trimmed := strings.TrimSpace(out)
	if trimmed == "" || strings.EqualFold(trimmed, "none") {
		return "", nil
	}
	return out, nil
}

// ProposalNote renders the proposal document written next to the vault's
// AI content.
func ProposalNote(sessionID, project, reviewedFile, proposals string) string {
	return fmt.Sprintf(`---
session_id: "%s"
project: "%s"
reviewed_file: "%s"
---

# Skill proposals

%s
`, note.YAMLQuote(sessionID), note.YAMLQuote(project), note.YAMLQuote(reviewedFile), proposals)
}
