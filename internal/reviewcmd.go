package internal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/gitinfo"
	"github.com/starford/ansuz/internal/identity"
	"github.com/starford/ansuz/internal/lockfile"
	"github.com/starford/ansuz/internal/payload"
	"github.com/starford/ansuz/internal/review"
)

// RunReview handles a review hook: it re-reads the finished conversation's
// note, asks the summarizer whether any exchange is worth turning into a
// reusable skill, and writes the proposals next to the thread notes. Unlike
// the session hook, a payload without a session id is an error since there
// is no conversation to review.
func (a *App) RunReview(ctx context.Context, stdin io.Reader) error {
	raw, err := io.ReadAll(stdin)
	if err != nil {
		return fmt.Errorf("review: read stdin: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}

	p, err := payload.ParseSession(raw)
	if err != nil {
		return fmt.Errorf("review: %w", err)
	}
	if p.SessionID == "" {
		return fmt.Errorf("review: payload has no session_id")
	}

	safeID := identity.SafeID(p.SessionID, "unknown-session")
	project := identity.SafeName(gitinfo.ProjectName(p.Cwd))

	v, err := a.openVault()
	if err != nil {
		return fmt.Errorf("review: %w", err)
	}

	dir := a.threadsDir(toolClaude, project)
	if err := v.MkdirAll(dir); err != nil {
		return fmt.Errorf("review: %w", err)
	}

	db := a.openIndex()
	if db != nil {
		defer db.Close()
	}
	loc := a.newLocator(v, dir, db)

	lockAbs, err := a.lockPath(v, dir, safeID)
	if err != nil {
		return fmt.Errorf("review: %w", err)
	}

	// Read the note under the lock so a concurrent session hook cannot
	// hand us a half-written file.
	var notePath, noteText string
	err = lockfile.WithLock(lockAbs, func() error {
		rel, err := loc.Find(safeID)
		if err != nil {
			return err
		}
		if rel == "" {
			return apperr.ErrNotFound
		}
		data, err := v.Read(rel)
		if err != nil {
			return err
		}
		notePath, noteText = rel, string(data)
		return nil
	})
	if errors.Is(err, apperr.ErrNotFound) {
		a.logger.Warn("no note to review", slog.String("session_id", p.SessionID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("review: %w", err)
	}

	msgs := review.ExtractUserMessages(noteText)
	if len(msgs) == 0 {
		a.logger.Info("note has no user messages, nothing to review",
			slog.String("path", notePath))
		return nil
	}

	proposals, err := review.Propose(ctx, a.summarizer, project, msgs)
	if err != nil {
		return fmt.Errorf("review: %w", err)
	}
	if proposals == "" {
		a.logger.Info("no skill proposals", slog.String("path", notePath))
		return nil
	}

	outRel := path.Join(a.cfg.Vault.AIRoot, "skill_proposals", safeID+".md")
	if err := v.MkdirAll(path.Dir(outRel)); err != nil {
		return fmt.Errorf("review: %w", err)
	}
	body := review.ProposalNote(p.SessionID, project, notePath, proposals)
	if err := v.Write(outRel, []byte(body)); err != nil {
		return fmt.Errorf("review: %w", err)
	}

	a.logger.Info("skill proposals written",
		slog.String("session_id", p.SessionID),
		slog.String("path", outRel))
	return nil
}
