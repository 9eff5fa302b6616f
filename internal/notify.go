package internal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/ansuz/internal/gitinfo"
	"github.com/starford/ansuz/internal/identity"
	"github.com/starford/ansuz/internal/lockfile"
	"github.com/starford/ansuz/internal/note"
	"github.com/starford/ansuz/internal/payload"
)

// RunNotify handles a per-turn notification, passed either as inline JSON or
// as a path to a JSON file. Only turn-complete notifications are recorded;
// every other type is ignored. A repeated turn id is a no-op, since hosts
// may redeliver notifications.
func (a *App) RunNotify(ctx context.Context, payloadArg string) error {
	if strings.TrimSpace(payloadArg) == "" {
		return nil
	}

	n, err := payload.ParseNotification(payloadArg)
	if err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	if !n.IsTurnComplete() {
		a.logger.Debug("ignoring notification", slog.String("type", n.Type))
		return nil
	}

	safeID := identity.SafeID(n.ThreadID, "unknown-thread")
	project := identity.SafeName(gitinfo.ProjectName(n.Cwd))

	v, err := a.openVault()
	if err != nil {
		return fmt.Errorf("notify: %w", err)
	}

	dir := a.threadsDir(toolCodex, project)
	if err := v.MkdirAll(dir); err != nil {
		return fmt.Errorf("notify: %w", err)
	}

	a.auditPayload(v, toolCodex, project, safeID, n.Raw)

	db := a.openIndex()
	if db != nil {
		defer db.Close()
	}
	loc := a.newLocator(v, dir, db)

	lockAbs, err := a.lockPath(v, dir, safeID)
	if err != nil {
		return fmt.Errorf("notify: %w", err)
	}

	return lockfile.WithLock(lockAbs, func() error {
		notePath, err := loc.FindOrCreate(ctx, safeID, n.FirstUserMessage(), a.now())
		if err != nil {
			return fmt.Errorf("notify: %w", err)
		}

		var text string
		if v.Exists(notePath) {
			data, err := v.Read(notePath)
			if err != nil {
				return fmt.Errorf("notify: %w", err)
			}
			text = string(data)
		} else {
			text = note.CodexSkeleton(project, n.ThreadID, n.Cwd, a.now())
		}
		text = note.EnsureTurnsRegion(text)

		turnLabel := n.TurnID
		if turnLabel == "" {
			turnLabel = "(missing)"
		}
		sentinel := note.TurnSentinel(turnLabel)
		if n.TurnID != "" && strings.Contains(text, sentinel) {
			a.logger.Debug("duplicate turn, skipping",
				slog.String("thread_id", n.ThreadID),
				slog.String("turn_id", n.TurnID))
			return nil
		}

		block := note.TurnBlock(a.now(), n.InputMessages, n.LastAssistant, sentinel)
		text = note.InsertBeforeTurnsEnd(text, block)

		if err := v.Write(notePath, []byte(text)); err != nil {
			return fmt.Errorf("notify: %w", err)
		}

		a.logger.Info("turn recorded",
			slog.String("thread_id", n.ThreadID),
			slog.String("turn_id", n.TurnID),
			slog.String("path", notePath))
		return nil
	})
}
