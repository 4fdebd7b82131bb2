package upload

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/claude/trainerlab/internal/models"
	_ "modernc.org/sqlite"
)

// StateDB remembers which files reached the server so reruns skip them.
// A file is identified by its relative path, size and content hash, so an
// edited file is uploaded again.
type StateDB struct {
	db *sql.DB
}

// OpenStateDB opens (or creates) the SQLite state database at dir/state.db.
func OpenStateDB(dir string) (*StateDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "state.db"))
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS uploaded_files (
		path        TEXT PRIMARY KEY,
		size        INTEGER NOT NULL,
		hash        TEXT NOT NULL,
		session_id  TEXT NOT NULL DEFAULT '',
		uploaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state table: %w", err)
	}

	return &StateDB{db: db}, nil
}

// IsUploaded checks if a file has already been uploaded with the same size and hash.
func (s *StateDB) IsUploaded(relPath string, size int64, hash string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM uploaded_files WHERE path = ? AND size = ? AND hash = ?`,
		relPath, size, hash,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", relPath, err)
	}
	return count > 0, nil
}

// MarkUploaded records that a file was stored on the server as sessionID.
func (s *StateDB) MarkUploaded(relPath string, size int64, hash, sessionID string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO uploaded_files (path, size, hash, session_id) VALUES (?, ?, ?, ?)`,
		relPath, size, hash, sessionID,
	)
	if err != nil {
		return fmt.Errorf("marking %s: %w", relPath, err)
	}
	return nil
}

// Count returns the number of files recorded as uploaded.
func (s *StateDB) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM uploaded_files`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting uploaded files: %w", err)
	}
	return n, nil
}

// Close closes the state database.
func (s *StateDB) Close() error {
	return s.db.Close()
}

// HashFile reads a file and returns its content with the same SHA-256 hex
// digest the server uses for duplicate detection.
func HashFile(path string) ([]byte, string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return content, models.ContentHash(content), nil
}
