// Package note renders conversation notes and merges auto-generated regions
// into existing note text. Notes are treated as plain bytes with sentinel
// markers; the package never interprets Markdown structure, so user content
// outside the markers is preserved verbatim.
package note

import (
	"fmt"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/transcript"
)

// Sentinel markers delimiting auto-generated regions. Each note kind owns its
// own pair so transcript and turn regions never interfere.
const (
	TranscriptBegin = "<!-- BEGIN AUTO TRANSCRIPT -->"
	TranscriptEnd   = "<!-- END AUTO TRANSCRIPT -->"
	TurnsBegin      = "<!-- BEGIN AUTO TURNS -->"
	TurnsEnd        = "<!-- END AUTO TURNS -->"
)

const headingTimeLayout = "2006-01-02 15:04:05 -0700"

// YAMLQuote escapes backslashes and double quotes for embedding in a
// double-quoted YAML scalar.
func YAMLQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// ClaudeSkeleton builds the front matter for a fresh Claude Code session note.
func ClaudeSkeleton(project, sessionID, cwd string, created time.Time) string {
	return fmt.Sprintf(`---
tool: "Claude Code"
project: "%s"
session_id: "%s"
cwd: "%s"
created: "%s"
tags:
  - ai-log
  - claude
  - %s
---

`,
		YAMLQuote(project),
		YAMLQuote(sessionID),
		YAMLQuote(cwd),
		created.Format(time.RFC3339),
		YAMLQuote(project),
	)
}

// CodexSkeleton builds the front matter for a fresh Codex thread note.
func CodexSkeleton(project, threadID, cwd string, created time.Time) string {
	return fmt.Sprintf(`---
tool: "Codex CLI"
project: "%s"
thread_id: "%s"
cwd: "%s"
created: "%s"
tags:
  - ai-log
  - codex
  - %s
---

`,
		YAMLQuote(project),
		YAMLQuote(threadID),
		YAMLQuote(cwd),
		created.Format(time.RFC3339),
		YAMLQuote(project),
	)
}

// TranscriptBlock renders the full-transcript region, sentinels included.
func TranscriptBlock(exported, source string, msgs []transcript.Message) string {
	var b strings.Builder
	b.WriteString(TranscriptBegin)
	b.WriteString("\n## Transcript (auto)\n")
	fmt.Fprintf(&b, "- Exported: %s\n", exported)
	fmt.Fprintf(&b, "- Source transcript: %s\n\n", source)

	for _, m := range msgs {
		ts := ""
		if !m.Timestamp.IsZero() {
			ts = m.Timestamp.Format(headingTimeLayout)
		}
		who := "Assistant"
		if m.Role == transcript.RoleUser {
			who = "User"
		}
		fmt.Fprintf(&b, "### %s %s\n", ts, who)
		b.WriteString(strings.TrimRight(m.Text, " \t\r\n"))
		b.WriteString("\n\n")
	}

	b.WriteString(TranscriptEnd)
	b.WriteString("\n")
	return b.String()
}

// UpsertRegion merges block (which carries its own begin/end markers) into
// existing text. When both markers are present in order, the whole delimited
// region is replaced; otherwise block is appended after the trimmed original.
// Repeated application with an unchanged block converges to exactly block.
func UpsertRegion(existing, block, begin, end string) string {
	bi := strings.Index(existing, begin)
	ei := strings.Index(existing, end)

	if bi >= 0 && ei >= 0 && ei >= bi {
		return existing[:bi] + block + existing[ei+len(end):]
	}

	return strings.TrimRight(existing, " \t\r\n") + "\n\n" + block
}

// UpsertTranscript merges a transcript region into existing note text.
func UpsertTranscript(existing, block string) string {
	return UpsertRegion(existing, block, TranscriptBegin, TranscriptEnd)
}

// EnsureTurnsRegion appends an empty turns region when the note has none.
func EnsureTurnsRegion(s string) string {
	if strings.Contains(s, TurnsBegin) && strings.Contains(s, TurnsEnd) {
		return s
	}
	return fmt.Sprintf("%s\n\n%s\n## Turns (auto)\n%s\n",
		strings.TrimRight(s, " \t\r\n"), TurnsBegin, TurnsEnd)
}

// TurnSentinel is the per-turn dedup marker embedded in each turn block.
// Re-delivery of a turn whose sentinel is already present is a no-op.
func TurnSentinel(turnID string) string {
	return fmt.Sprintf("<!-- turn-id:%s -->", turnID)
}

// TurnBlock renders one turn. inputMessages is the raw decoded payload value:
// an array of strings becomes a bullet list, a plain string is kept as-is,
// and anything else renders as an empty placeholder.
func TurnBlock(now time.Time, inputMessages any, lastAssistant, sentinel string) string {
	ts := now.Format(headingTimeLayout)

	var userPart string
	switch v := inputMessages.(type) {
	case []any:
		var lines []string
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				continue
			}
			s = strings.TrimSpace(s)
			if s != "" {
				lines = append(lines, "- "+s)
			}
		}
		if len(lines) == 0 {
			userPart = "- (empty)"
		} else {
			userPart = strings.Join(lines, "\n")
		}
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			userPart = "(empty)"
		} else {
			userPart = v
		}
	default:
		userPart = "- (empty)"
	}

	return fmt.Sprintf(`%s

### %s User
%s

### %s Assistant
%s

`, sentinel, ts, userPart, ts, strings.TrimRight(lastAssistant, " \t\r\n"))
}

// InsertBeforeTurnsEnd splices block just before the turns end marker, or
// appends it when the marker is absent.
func InsertBeforeTurnsEnd(s, block string) string {
	if pos := strings.Index(s, TurnsEnd); pos >= 0 {
		pre, post := s[:pos], s[pos:]
		return fmt.Sprintf("%s\n\n%s\n%s",
			strings.TrimRight(pre, " \t\r\n"),
			strings.TrimRight(block, " \t\r\n"),
			post)
	}
	return fmt.Sprintf("%s\n\n%s",
		strings.TrimRight(s, " \t\r\n"),
		strings.TrimRight(block, " \t\r\n"))
}
