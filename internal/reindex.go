package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/starford/ansuz/internal/index"
)

// RunReindex rebuilds the session index from the notes on disk. Unlike the
// hooks, which treat the index as an optional cache, an explicit reindex
// reports index failures as errors. Only the per-tool thread trees are
// scanned; audit files and proposal notes never enter the index.
func (a *App) RunReindex(ctx context.Context) error {
	if a.cfg.Index.Disabled {
		return fmt.Errorf("reindex: index is disabled in configuration")
	}

	v, err := a.openVault()
	if err != nil {
		return fmt.Errorf("reindex: %w", err)
	}

	dbPath := a.cfg.IndexPath()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("reindex: %w", err)
	}
	db, err := index.Open(dbPath)
	if err != nil {
		return fmt.Errorf("reindex: %w", err)
	}
	defer db.Close()

	for _, tool := range []string{toolClaude, toolCodex} {
		dir := path.Join(a.cfg.Vault.AIRoot, tool)
		if err := index.Rescan(db, v, dir, a.logger); err != nil {
			return fmt.Errorf("reindex: %s: %w", tool, err)
		}
	}

	a.logger.Info("reindex complete", slog.String("db", dbPath))
	return nil
}
