// Package locator maps a conversation identity to its note path: finding an
// existing note anywhere in the dated tree, migrating legacy flat-named notes,
// or computing the location for a new one.
package locator

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/title"
	"github.com/starford/ansuz/internal/vault"
)

// Locator resolves note paths beneath one Threads directory.
type Locator struct {
	vault  *vault.FS
	dir    string // vault-relative Threads directory
	titles *title.Generator
	cache  index.SessionIndex // may be nil
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Locator. cache may be nil to disable the identity cache.
func New(v *vault.FS, dir string, titles *title.Generator, cache index.SessionIndex, logger *slog.Logger) *Locator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Locator{
		vault:  v,
		dir:    dir,
		titles: titles,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// Find returns the vault-relative path of the existing note for safeID, or
// "" when none exists. The cache is consulted first; on a miss the whole
// dated subtree is scanned and the first filename containing safeID wins
// in lexical traversal order; substring collisions between identities are
// not further disambiguated. A found legacy flat-named note is migrated into
// the dated tree before being returned.
func (l *Locator) Find(safeID string) (string, error) {
	if cached := l.cachedPath(safeID); cached != "" {
		return cached, nil
	}

	found := ""
	err := l.vault.Walk(l.dir, func(rel string, _ fs.DirEntry) error {
		if strings.Contains(path.Base(rel), safeID) {
			found = rel
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("locator: scan %s: %w", l.dir, err)
	}
	if found == "" {
		return "", nil
	}

	if migrated := l.migrateLegacy(found); migrated != "" {
		found = migrated
	}
	l.record(safeID, found)
	return found, nil
}

// FindOrCreate returns the note path for safeID, computing a fresh dated
// location when no note exists yet. The dated directory is created; the note
// file itself is not; the caller writes it. startedAt selects the date for a
// new note and falls back to now when zero.
func (l *Locator) FindOrCreate(ctx context.Context, safeID, firstUserMessage string, startedAt time.Time) (string, error) {
	existing, err := l.Find(safeID)
	if err != nil {
		return "", err
	}
	if existing != "" {
		return existing, nil
	}

	if startedAt.IsZero() {
		startedAt = l.now()
	}
	dayDir := path.Join(l.dir, startedAt.Format("2006"), startedAt.Format("01"), startedAt.Format("02"))
	if err := l.vault.MkdirAll(dayDir); err != nil {
		return "", fmt.Errorf("locator: create dated dir: %w", err)
	}

	slug := l.titles.Generate(ctx, firstUserMessage)
	rel := path.Join(dayDir, fmt.Sprintf("%s_%s%s", slug, safeID, vault.Ext))
	l.record(safeID, rel)
	return rel, nil
}

// cachedPath returns a cache hit only when it still checks out on disk.
func (l *Locator) cachedPath(safeID string) string {
	if l.cache == nil {
		return ""
	}
	cached, err := l.cache.LookupPath(safeID)
	if err != nil {
		return ""
	}
	if !strings.Contains(path.Base(cached), safeID) || !l.vault.Exists(cached) {
		return ""
	}
	return cached
}

// record caches an identity→path binding. Failures are logged and ignored:
// the cache is an optimization, never the source of truth.
func (l *Locator) record(safeID, rel string) {
	if l.cache == nil {
		return
	}
	if err := l.cache.RecordPath(safeID, rel); err != nil {
		l.logger.Warn("locator: cache record failed",
			slog.String("session_id", safeID),
			slog.String("error", err.Error()))
	}
}

// migrateLegacy relocates a note created under the legacy flat-naming scheme
// (YYYY-MM-DD_<rest>.md directly in the Threads directory) into the dated
// tree. Best-effort: any obstacle leaves the note where it is and returns "".
func (l *Locator) migrateLegacy(rel string) string {
	if path.Dir(rel) != l.dir {
		return ""
	}

	name := path.Base(rel)
	yyyy, mm, dd, rest, ok := SplitLegacyName(name)
	if !ok {
		return ""
	}

	target := path.Join(l.dir, yyyy, mm, dd, rest)
	if l.vault.Exists(target) {
		return ""
	}

	if err := l.vault.Move(rel, target); err != nil {
		l.logger.Warn("locator: legacy migration failed",
			slog.String("from", rel),
			slog.String("to", target),
			slog.String("error", err.Error()))
		return ""
	}
	if l.cache != nil {
		// Drop any stale binding to the old location.
		if fp, ok := l.cache.(interface{ ForgetPath(string) error }); ok {
			_ = fp.ForgetPath(rel)
		}
	}
	l.logger.Info("locator: migrated legacy note",
		slog.String("from", rel),
		slog.String("to", target))
	return target
}

// SplitLegacyName splits a legacy filename of the form
// YYYY-MM-DD_<rest>.md into its date components and remainder.
func SplitLegacyName(name string) (yyyy, mm, dd, rest string, ok bool) {
	if !strings.HasSuffix(name, vault.Ext) || len(name) < 12 {
		return "", "", "", "", false
	}
	if name[4] != '-' || name[7] != '-' || name[10] != '_' {
		return "", "", "", "", false
	}
	if !allDigits(name[0:4]) || !allDigits(name[5:7]) || !allDigits(name[8:10]) {
		return "", "", "", "", false
	}
	rest = name[11:]
	if rest == "" {
		return "", "", "", "", false
	}
	return name[0:4], name[5:7], name[8:10], rest, true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
