// Package transcript parses newline-delimited JSON session transcripts into
// ordered conversation events.
package transcript

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Roles recognised in transcript records.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one parsed conversation event. Timestamp is zero when the record
// carried none.
type Message struct {
	Role      string
	Text      string
	Timestamp time.Time
}

// Transcript is the parsed form of a session log.
type Transcript struct {
	Messages []Message
	// Cwd is the working directory recorded by the first line carrying one,
	// used when no hook payload supplies it.
	Cwd string
}

// ParseFile reads and parses the transcript at path.
func ParseFile(path string) (*Transcript, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("transcript: open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads newline-delimited JSON records from r. Records whose type is
// "user" or "assistant" and whose message content yields text become
// Messages; malformed lines are skipped so a partially corrupt log still
// produces the salvageable events.
func Parse(r io.Reader) (*Transcript, error) {
	sc := bufio.NewScanner(r)
	// Assistant turns can be very large single lines.
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	t := &Transcript{}

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		var rec struct {
			Type      string `json:"type"`
			Timestamp string `json:"timestamp"`
			Cwd       string `json:"cwd"`
			Message   struct {
				Content any `json:"content"`
			} `json:"message"`
		}
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}

		if t.Cwd == "" && rec.Cwd != "" {
			t.Cwd = rec.Cwd
		}

		if rec.Type != RoleUser && rec.Type != RoleAssistant {
			continue
		}

		text, ok := ExtractText(rec.Message.Content)
		if !ok {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		t.Messages = append(t.Messages, Message{
			Role:      rec.Type,
			Text:      text,
			Timestamp: parseTimestamp(rec.Timestamp),
		})
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("transcript: scan: %w", err)
	}
	return t, nil
}

// ExtractText flattens a message content value: either a plain string, or an
// array of fragments where only {"type":"text"} fragments contribute, joined
// by newlines.
func ExtractText(v any) (string, bool) {
	switch content := v.(type) {
	case string:
		return content, true
	case []any:
		var parts []string
		for _, item := range content {
			frag, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if t, _ := frag["type"].(string); t != "text" {
				continue
			}
			text, _ := frag["text"].(string)
			text = strings.TrimSpace(text)
			if text != "" {
				parts = append(parts, text)
			}
		}
		if len(parts) == 0 {
			return "", false
		}
		return strings.Join(parts, "\n"), true
	default:
		return "", false
	}
}

// FirstUserMessage returns the text of the first user event, or "".
func (t *Transcript) FirstUserMessage() string {
	for _, m := range t.Messages {
		if m.Role == RoleUser {
			return m.Text
		}
	}
	return ""
}

// StartedAt returns the earliest timestamp present, or the zero time.
func (t *Transcript) StartedAt() time.Time {
	for _, m := range t.Messages {
		if !m.Timestamp.IsZero() {
			return m.Timestamp
		}
	}
	return time.Time{}
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return ts.Local()
}
