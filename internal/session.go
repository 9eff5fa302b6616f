package internal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/starford/ansuz/internal/gitinfo"
	"github.com/starford/ansuz/internal/identity"
	"github.com/starford/ansuz/internal/lockfile"
	"github.com/starford/ansuz/internal/note"
	"github.com/starford/ansuz/internal/payload"
	"github.com/starford/ansuz/internal/transcript"
)

// RunSession handles an end-of-session hook: it reads the JSON payload from
// stdin, parses the referenced transcript, and rewrites the conversation
// note's transcript region. An empty stdin is a silent no-op so the hook can
// be wired unconditionally.
func (a *App) RunSession(ctx context.Context, stdin io.Reader) error {
	raw, err := io.ReadAll(stdin)
	if err != nil {
		return fmt.Errorf("session: read stdin: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}

	p, err := payload.ParseSession(raw)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if p.TranscriptPath == "" {
		return fmt.Errorf("session: payload has no transcript_path")
	}
	sessionID := p.SessionID
	if sessionID == "" {
		sessionID = "unknown-session"
	}

	return a.syncSession(ctx, sessionID, p.TranscriptPath, p.Cwd, p.Raw)
}

// syncSession merges one transcript file into its conversation note. It is
// shared by the session hook and the watch command; rawPayload may be nil
// when there is no hook payload to audit.
func (a *App) syncSession(ctx context.Context, sessionID, transcriptPath, cwd string, rawPayload []byte) error {
	safeID := identity.SafeID(sessionID, "unknown-session")
	project := identity.SafeName(gitinfo.ProjectName(cwd))

	v, err := a.openVault()
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}

	dir := a.threadsDir(toolClaude, project)
	if err := v.MkdirAll(dir); err != nil {
		return fmt.Errorf("session: %w", err)
	}

	a.auditPayload(v, toolClaude, project, safeID, rawPayload)

	db := a.openIndex()
	if db != nil {
		defer db.Close()
	}
	loc := a.newLocator(v, dir, db)

	lockAbs, err := a.lockPath(v, dir, safeID)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}

	return lockfile.WithLock(lockAbs, func() error {
		tr, err := transcript.ParseFile(transcriptPath)
		if err != nil {
			return fmt.Errorf("session: %w", err)
		}

		notePath, err := loc.FindOrCreate(ctx, safeID, tr.FirstUserMessage(), tr.StartedAt())
		if err != nil {
			return fmt.Errorf("session: %w", err)
		}

		var text string
		if v.Exists(notePath) {
			data, err := v.Read(notePath)
			if err != nil {
				return fmt.Errorf("session: %w", err)
			}
			text = string(data)
		} else {
			created := tr.StartedAt()
			if created.IsZero() {
				created = a.now()
			}
			text = note.ClaudeSkeleton(project, sessionID, cwd, created)
		}

		exported := a.now().Format(time.RFC3339)
		block := note.TranscriptBlock(exported, transcriptPath, tr.Messages)
		merged := note.UpsertTranscript(text, block)

		if err := v.Write(notePath, []byte(merged)); err != nil {
			return fmt.Errorf("session: %w", err)
		}

		a.logger.Info("session note updated",
			slog.String("session_id", sessionID),
			slog.String("path", notePath),
			slog.Int("messages", len(tr.Messages)))
		return nil
	})
}
