package index

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/ansuz/internal/apperr"
)

// LookupPath returns the vault-relative note path cached for id.
// apperr.ErrNotFound when the identity has no cached entry.
func (db *DB) LookupPath(id string) (string, error) {
	var path string
	err := db.conn.QueryRow(`SELECT path FROM sessions WHERE id = ?`, id).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperr.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("index: lookup %s: %w", id, err)
	}
	return path, nil
}

// RecordPath upserts the cached path for id.
func (db *DB) RecordPath(id, path string) error {
	return db.recordPathChecksum(id, path, "")
}

func (db *DB) recordPathChecksum(id, path, checksum string) error {
	_, err := db.conn.Exec(`
		INSERT INTO sessions (id, path, checksum, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			path = excluded.path,
			checksum = excluded.checksum,
			updated_at = CURRENT_TIMESTAMP`,
		id, path, checksum)
	if err != nil {
		return fmt.Errorf("index: record %s: %w", id, err)
	}
	return nil
}

// ForgetPath removes every entry pointing at path.
func (db *DB) ForgetPath(path string) error {
	if _, err := db.conn.Exec(`DELETE FROM sessions WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: forget %s: %w", path, err)
	}
	return nil
}

// AllPathChecksums returns the cached checksum for every indexed path, used
// to skip unchanged files during a rescan.
func (db *DB) AllPathChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM sessions`)
	if err != nil {
		return nil, fmt.Errorf("index: list checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var path, cs string
		if err := rows.Scan(&path, &cs); err != nil {
			return nil, fmt.Errorf("index: scan row: %w", err)
		}
		out[path] = cs
	}
	return out, rows.Err()
}
