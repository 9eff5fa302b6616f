// Package parser extracts YAML front matter from note files. The sync engine
// itself never interprets note structure; this package exists solely so index
// rescans can recover a note's conversation identity from disk.
package parser

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"
)

// Result holds the output of parsing a note file.
type Result struct {
	Frontmatter map[string]any
	Body        string
}

// Parse separates YAML front matter (between leading --- delimiters) from the
// note body. Missing or invalid front matter is not an error: the whole
// content becomes the body.
func Parse(data []byte) *Result {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return &Result{Body: string(data)}
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return &Result{Body: string(data)}
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]any
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return &Result{Body: string(data)}
	}

	return &Result{Frontmatter: fm, Body: body}
}

// Identity returns the conversation identity recorded in the front matter:
// session_id for session notes, thread_id for turn notes. Empty when neither
// is present.
func (r *Result) Identity() string {
	for _, key := range []string{"session_id", "thread_id"} {
		if s, ok := r.Frontmatter[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Tool returns the front matter "tool" field, or "".
func (r *Result) Tool() string {
	s, _ := r.Frontmatter["tool"].(string)
	return s
}
