// Package internal wires the conversation exporter together: it parses hook
// payloads, locates the per-conversation note in the vault, and rewrites the
// note's managed regions under an advisory lock.
package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/locator"
	"github.com/starford/ansuz/internal/title"
	"github.com/starford/ansuz/internal/vault"
)

// Tool display names, used both in note front matter and as vault
// directory segments.
const (
	toolClaude = "Claude Code"
	toolCodex  = "Codex CLI"
)

// App holds the long-lived collaborators of a single command invocation.
type App struct {
	cfg           *Config
	logger        *slog.Logger
	summarizer    title.Summarizer
	summarizerSet bool
	now           func() time.Time
}

// New builds an App from options. WithConfig is required.
func New(opts ...Option) (*App, error) {
	app := &App{now: time.Now}

	for _, opt := range opts {
		opt(app)
	}

	if app.cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	if app.logger == nil {
		// Hook payloads arrive on stdin and some hosts read stdout, so
		// diagnostics go to stderr.
		app.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: app.cfg.App.LogLevel,
		}))
	}

	if !app.summarizerSet {
		if s := title.NewCommandSummarizer(app.cfg.Summarizer.Command, app.cfg.Summarizer.Timeout()); s != nil {
			app.summarizer = s
		}
	}

	return app, nil
}

// openVault opens the configured vault root.
func (a *App) openVault() (*vault.FS, error) {
	if err := os.MkdirAll(a.cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}
	return vault.Open(a.cfg.Vault.Path)
}

// openIndex opens the session index. The index is a cache, so failures are
// logged and swallowed; callers get nil and fall back to directory scans.
func (a *App) openIndex() *index.DB {
	if a.cfg.Index.Disabled {
		return nil
	}
	dbPath := a.cfg.IndexPath()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		a.logger.Warn("session index unavailable", slog.String("error", err.Error()))
		return nil
	}
	db, err := index.Open(dbPath)
	if err != nil {
		a.logger.Warn("session index unavailable", slog.String("error", err.Error()))
		return nil
	}
	return db
}

// newLocator builds a note locator for one tool's thread directory.
func (a *App) newLocator(v *vault.FS, threadsDir string, db *index.DB) *locator.Locator {
	var cache index.SessionIndex
	if db != nil {
		cache = db
	}
	titles := title.NewGenerator(a.summarizer, a.logger)
	return locator.New(v, threadsDir, titles, cache, a.logger)
}

// threadsDir returns the vault-relative directory holding one tool's
// conversation notes for a project.
func (a *App) threadsDir(tool, project string) string {
	return path.Join(a.cfg.Vault.AIRoot, tool, project, "Threads")
}

// auditPayload appends the raw payload to the per-session audit file.
// Best effort: audit must never block the export.
func (a *App) auditPayload(v *vault.FS, tool, project, safeID string, raw []byte) {
	if a.cfg.Audit.Disabled || len(raw) == 0 {
		return
	}
	rel := path.Join(a.cfg.Vault.AIRoot, "_raw", tool, project, safeID+".jsonl")
	if err := v.AppendLine(rel, raw); err != nil {
		a.logger.Warn("audit append failed",
			slog.String("path", rel),
			slog.String("error", err.Error()))
	}
}

// lockPath returns the absolute path of the advisory lock file guarding one
// conversation inside a thread directory.
func (a *App) lockPath(v *vault.FS, threadsDir, safeID string) (string, error) {
	return v.Abs(path.Join(threadsDir, ".lock_"+safeID))
}
