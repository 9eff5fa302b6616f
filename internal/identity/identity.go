// Package identity derives filesystem-safe, bounded-length names from
// external identifiers such as session IDs and project paths.
package identity

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// maxLen bounds sanitized names, counted in Unicode scalar values.
const maxLen = 120

// SafeName replaces path-hostile characters with underscores, collapses
// whitespace runs to single spaces, and truncates to 120 runes.
func SafeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '/', '\\', ':', '\n', '\r', '\t':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	collapsed := strings.Join(strings.Fields(b.String()), " ")
	return truncateRunes(collapsed, maxLen)
}

// SafeID derives a stable, filesystem-safe identity from a raw external
// identifier. Identifiers that are already safe are returned byte-for-byte so
// historical filenames keep matching. When sanitization changes the value, an
// 8-hex-digit FNV-1a suffix of the original raw string is appended to keep
// distinct raw identifiers from colliding after sanitization.
func SafeID(raw, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}

	base := SafeName(raw)
	if base == "" {
		base = fallback
	}

	if base == raw {
		return base
	}

	suffix := fmt.Sprintf("-%08x", uint32(fnv1a64(raw)))
	maxBase := maxLen - len([]rune(suffix))
	base = truncateRunes(base, maxBase)
	return base + suffix
}

func fnv1a64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
