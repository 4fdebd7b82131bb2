package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// ImportLog represents a single import operation's outcome.
type ImportLog struct {
	ID                int64            `json:"id"`
	UserID            int              `json:"user_id"`
	CreatedAt         time.Time        `json:"created_at"`
	Source            string           `json:"source"`
	FileName          string           `json:"file_name"`
	Status            string           `json:"status"`
	SessionsReceived  int              `json:"sessions_received"`
	SessionsInserted  int              `json:"sessions_inserted"`
	BlocksInserted    int64            `json:"blocks_inserted"`
	ExercisesInserted int64            `json:"exercises_inserted"`
	DurationMs        *int             `json:"duration_ms"`
	ErrorMessage      *string          `json:"error_message"`
	Metadata          *json.RawMessage `json:"metadata"`
}

// InsertImportLog creates a new import log entry and returns its ID.
func (db *DB) InsertImportLog(ctx context.Context, log ImportLog) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO import_logs (user_id, source, file_name, status, sessions_received, sessions_inserted,
		 blocks_inserted, exercises_inserted, duration_ms, error_message, metadata)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		 RETURNING id`,
		log.UserID, log.Source, log.FileName, log.Status, log.SessionsReceived, log.SessionsInserted,
		log.BlocksInserted, log.ExercisesInserted, log.DurationMs, log.ErrorMessage, log.Metadata,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting import log: %w", err)
	}
	return id, nil
}

// UpdateImportLog updates an existing import log entry (typically from "running" to "success" or "error").
func (db *DB) UpdateImportLog(ctx context.Context, id int64, log ImportLog) error {
	_, err := db.Pool.Exec(ctx,
		`UPDATE import_logs SET
		 status = $2, sessions_received = $3, sessions_inserted = $4,
		 blocks_inserted = $5, exercises_inserted = $6, duration_ms = $7,
		 error_message = $8, metadata = $9
		 WHERE id = $1`,
		id, log.Status, log.SessionsReceived, log.SessionsInserted,
		log.BlocksInserted, log.ExercisesInserted, log.DurationMs,
		log.ErrorMessage, log.Metadata,
	)
	if err != nil {
		return fmt.Errorf("updating import log %d: %w", id, err)
	}
	return nil
}

// QueryImportLogs returns the most recent import logs for a user.
func (db *DB) QueryImportLogs(ctx context.Context, userID, limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, created_at, source, file_name, status, sessions_received, sessions_inserted,
		 blocks_inserted, exercises_inserted, duration_ms, error_message, metadata
		 FROM import_logs
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying import logs: %w", err)
	}
	defer rows.Close()

	var result []ImportLog
	for rows.Next() {
		var l ImportLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.CreatedAt, &l.Source, &l.FileName, &l.Status,
			&l.SessionsReceived, &l.SessionsInserted, &l.BlocksInserted, &l.ExercisesInserted,
			&l.DurationMs, &l.ErrorMessage, &l.Metadata); err != nil {
			return nil, fmt.Errorf("scanning import log: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
