// Package title produces short, filename-safe slugs for conversation notes.
// A summarizer capability is tried first; every failure degrades to a
// deterministic local fallback.
package title

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const (
	// fallbackTitle is returned when no usable message is available.
	fallbackTitle = "untitled"

	// promptPrefixLen bounds how much of the message is sent to the summarizer.
	promptPrefixLen = 500

	// fallbackPrefixLen bounds how much of the message seeds the local fallback.
	fallbackPrefixLen = 40

	// slugMaxLen is the sanitized slug length in runes.
	slugMaxLen = 30

	// summarizerMaxLen rejects oversized summarizer output (in bytes, after
	// sanitization) as a failure.
	summarizerMaxLen = 50
)

// Summarizer produces free-form text for a prompt. Implementations are
// best-effort collaborators: any error makes the caller fall back locally.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// Generator turns a conversation's opening message into a slug.
type Generator struct {
	summarizer Summarizer
	logger     *slog.Logger
}

// NewGenerator creates a Generator. summarizer may be nil, in which case only
// the local fallback is used.
func NewGenerator(summarizer Summarizer, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{summarizer: summarizer, logger: logger}
}

// Generate returns a slug for firstMessage. Whitespace-only input yields the
// literal "untitled".
func (g *Generator) Generate(ctx context.Context, firstMessage string) string {
	if strings.TrimSpace(firstMessage) == "" {
		return fallbackTitle
	}

	if g.summarizer != nil {
		t, err := g.summarize(ctx, firstMessage)
		if err == nil {
			return t
		}
		g.logger.Warn("title: summarizer failed, using fallback",
			slog.String("error", err.Error()))
	}

	return Fallback(firstMessage)
}

func (g *Generator) summarize(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(
		"Generate a short filename-safe title (English, max 20 chars, lowercase, hyphens only, no spaces) for this conversation. Output ONLY the title, nothing else:\n\n%s",
		truncateRunes(text, promptPrefixLen))

	out, err := g.summarizer.Summarize(ctx, prompt)
	if err != nil {
		return "", err
	}

	t := SanitizeTitle(out)
	if t == "" || len(t) > summarizerMaxLen {
		return "", fmt.Errorf("unusable summarizer output (%d bytes after sanitization)", len(t))
	}
	return t, nil
}

// Fallback derives a slug from the first 40 runes of text.
func Fallback(text string) string {
	return SanitizeTitle(truncateRunes(text, fallbackPrefixLen))
}

// SanitizeTitle normalizes s into a slug matching [a-z0-9-]* with no leading,
// trailing, or doubled hyphens and at most 30 runes. Truncation happens before
// hyphen collapsing, so the final length never exceeds the bound.
func SanitizeTitle(s string) string {
	mapped := make([]rune, 0, slugMaxLen)
	for _, r := range truncateRunes(strings.TrimSpace(s), slugMaxLen) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			mapped = append(mapped, r)
		case r >= 'A' && r <= 'Z':
			mapped = append(mapped, r+('a'-'A'))
		default:
			// Space, underscore, and everything else non-alphanumeric.
			mapped = append(mapped, '-')
		}
	}

	var b strings.Builder
	prevHyphen := false
	for _, r := range mapped {
		if r == '-' {
			if !prevHyphen && b.Len() > 0 {
				b.WriteRune('-')
			}
			prevHyphen = true
		} else {
			b.WriteRune(r)
			prevHyphen = false
		}
	}

	return strings.Trim(b.String(), "-")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
