package internal

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/transcript"
)

// debounceDelay batches the write bursts assistants produce while appending
// to a transcript, so each burst yields one note rewrite.
const debounceDelay = 300 * time.Millisecond

// RunWatch watches a transcript directory and re-syncs the matching
// conversation note whenever a .jsonl file settles. It is the daemon-mode
// alternative to the stdin session hook and runs until ctx is cancelled.
func (a *App) RunWatch(ctx context.Context, dir string) error {
	if dir == "" {
		return fmt.Errorf("watch: transcript directory is required")
	}
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	if err := addDirsRecursive(w, dir); err != nil {
		w.Close()
		return fmt.Errorf("watch: %w", err)
	}

	a.logger.Info("watcher: started", slog.String("dir", dir))

	g, gCtx := errgroup.WithContext(ctx)

	// Closing the watcher unblocks the event loop by closing its channels.
	g.Go(func() error {
		<-gCtx.Done()
		return w.Close()
	})

	g.Go(func() error {
		// Debounce timers keyed by transcript path. The map is only
		// touched here; expired timers report through settled. Closing
		// done releases any timer callback still waiting to report after
		// the loop has returned.
		settled := make(chan string, 16)
		done := make(chan struct{})
		timers := make(map[string]*time.Timer)
		defer func() {
			close(done)
			for _, t := range timers {
				t.Stop()
			}
		}()

		for {
			select {
			case p := <-settled:
				delete(timers, p)
				a.syncTranscript(gCtx, p)

			case ev, ok := <-w.Events:
				if !ok {
					return nil
				}

				if ev.Op&fsnotify.Create != 0 {
					if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
						if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
							a.logger.Warn("watcher: add new dir failed",
								slog.String("path", ev.Name),
								slog.String("error", addErr.Error()))
						}
						continue
					}
				}

				if !strings.HasSuffix(ev.Name, ".jsonl") {
					continue
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}

				if t, ok := timers[ev.Name]; ok {
					t.Reset(debounceDelay)
				} else {
					p := ev.Name
					timers[p] = time.AfterFunc(debounceDelay, func() {
						select {
						case settled <- p:
						case <-done:
						}
					})
				}

			case watchErr, ok := <-w.Errors:
				if !ok {
					return nil
				}
				a.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
			}
		}
	})

	return g.Wait()
}

// syncTranscript derives the session identity from a transcript filename and
// runs a full note sync. Failures are logged rather than returned so one bad
// transcript cannot stop the watcher.
func (a *App) syncTranscript(ctx context.Context, transcriptPath string) {
	sessionID := strings.TrimSuffix(filepath.Base(transcriptPath), ".jsonl")
	if sessionID == "" {
		return
	}

	cwd := "."
	if tr, err := transcript.ParseFile(transcriptPath); err == nil && tr.Cwd != "" {
		cwd = tr.Cwd
	}

	if err := a.syncSession(ctx, sessionID, transcriptPath, cwd, nil); err != nil {
		a.logger.Warn("watcher: sync failed",
			slog.String("path", transcriptPath),
			slog.String("error", err.Error()))
		return
	}
	a.logger.Debug("watcher: synced", slog.String("path", transcriptPath))
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
