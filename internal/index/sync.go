package index

import (
	"log/slog"

	"github.com/starford/ansuz/internal/identity"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/vault"
)

// Rescan walks every note under dir (vault-relative) and brings the session
// cache up to date:
//   - new/changed notes have their identity recovered from front matter
//   - entries whose files vanished from disk are removed
//
// Notes without a recorded identity are skipped; they were not written by
// this tool.
func Rescan(db *DB, v *vault.FS, dir string, logger *slog.Logger) error {
	metas, err := v.List(dir)
	if err != nil {
		return err
	}

	cached, err := db.AllPathChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if cached[m.Path] == m.Checksum && m.Checksum != "" {
			continue
		}

		data, err := v.Read(m.Path)
		if err != nil {
			logger.Warn("rescan: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}

		id := parser.Parse(data).Identity()
		if id == "" {
			continue
		}
		// Front matter stores the raw identity; lookups are keyed by the
		// sanitized form, so re-derive it before recording.
		key := identity.SafeID(id, id)

		if err := db.recordPathChecksum(key, m.Path, m.Checksum); err != nil {
			logger.Warn("rescan: record failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("rescan: recorded", slog.String("path", m.Path), slog.String("session_id", key))
		}
	}

	// Remove stale entries.
	for p := range cached {
		if _, ok := disk[p]; !ok {
			if err := db.ForgetPath(p); err != nil {
				logger.Warn("rescan: forget failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("rescan: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}
