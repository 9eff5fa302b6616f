// Package payload decodes the JSON payloads delivered by hook and
// notification transports. The schemas are owned by the emitting tools and
// have drifted across versions, so key lookups tolerate hyphenated,
// underscored, and camelCase spellings in a fixed priority order.
package payload

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Session is a session-type hook payload, delivered on stdin.
type Session struct {
	// SessionID is empty when the payload carried none; callers decide
	// whether that is a fallback case or an error.
	SessionID      string
	TranscriptPath string
	Cwd            string

	// Raw is the original payload text, kept for audit copies.
	Raw []byte
}

// ParseSession decodes a session hook payload. Malformed JSON is fatal: with
// no identity there is nothing to act on.
func ParseSession(data []byte) (*Session, error) {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("payload: parse session JSON: %w", err)
	}

	s := &Session{
		SessionID:      stringKey(obj, "session_id"),
		TranscriptPath: stringKey(obj, "transcript_path"),
		Cwd:            stringKey(obj, "cwd"),
		Raw:            data,
	}
	if s.Cwd == "" {
		s.Cwd = "."
	}
	return s, nil
}

// Notification is a turn-notification payload, delivered via a process
// argument.
type Notification struct {
	Type          string
	ThreadID      string
	TurnID        string
	Cwd           string
	InputMessages any
	LastAssistant string

	Raw []byte
}

// ParseNotification decodes arg as notification JSON, falling back to
// treating arg as a path to a JSON file. Notifiers have historically passed
// both forms.
func ParseNotification(arg string) (*Notification, error) {
	data := []byte(arg)
	var obj map[string]any
	jsonErr := json.Unmarshal(data, &obj)
	if jsonErr != nil {
		fileData, fileErr := os.ReadFile(arg)
		if fileErr != nil {
			return nil, fmt.Errorf("payload: argv is neither notification JSON (%v) nor a readable file: %w", jsonErr, fileErr)
		}
		data = fileData
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, fmt.Errorf("payload: parse notification JSON from file %s: %w", arg, err)
		}
	}

	n := &Notification{
		Type:          stringKey(obj, "type"),
		ThreadID:      stringKey(obj, "thread-id", "thread_id", "threadId"),
		TurnID:        stringKey(obj, "turn-id", "turn_id", "turnId"),
		Cwd:           stringKey(obj, "cwd"),
		LastAssistant: stringKey(obj, "last-assistant-message", "last_assistant_message", "lastAssistantMessage"),
		InputMessages: anyKey(obj, "input-messages", "input_messages", "inputMessages"),
		Raw:           data,
	}
	if n.ThreadID == "" {
		n.ThreadID = "unknown-thread"
	}
	if n.Cwd == "" {
		n.Cwd = "."
	}
	return n, nil
}

// IsTurnComplete reports whether this notification should produce a note.
// The type field is matched by suffix to stay tolerant of schema drift
// ("agent-turn-complete", "assistant-turn-complete", "turn_complete", ...).
func (n *Notification) IsTurnComplete() bool {
	if n.Type == "agent-turn-complete" {
		return true
	}
	return strings.HasSuffix(n.Type, "turn-complete") || strings.HasSuffix(n.Type, "turn_complete")
}

// FirstUserMessage returns the first usable input message for title seeding.
func (n *Notification) FirstUserMessage() string {
	switch v := n.InputMessages.(type) {
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	case string:
		return v
	}
	return ""
}

func stringKey(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok {
			return s
		}
	}
	return ""
}

func anyKey(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			return v
		}
	}
	return nil
}
