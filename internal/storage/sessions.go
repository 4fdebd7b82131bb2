package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/claude/trainerlab/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a session does not exist for the given user.
var ErrNotFound = errors.New("not found")

// execer is the part of pgx.Tx the insert helpers use.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const sessionColumns = `id, user_id, name, category, level, description, source_file,
	 total_duration_min, avg_intensity_pct, estimated_tss, intensity_range, content_hash, created_at`

// StoreResult reports what StoreSession wrote.
type StoreResult struct {
	Inserted          bool
	SessionID         uuid.UUID
	BlocksInserted    int64
	ExercisesInserted int64
}

// StoreSession writes a session and its blocks or exercises in one transaction.
// A session whose content hash already exists for the user is left untouched
// and the existing ID is returned with Inserted=false.
func (db *DB) StoreSession(ctx context.Context, rec models.SessionRecord) (*StoreResult, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	inserted, err := insertSession(ctx, tx, rec.Session)
	if err != nil {
		return nil, err
	}
	if !inserted {
		var existing uuid.UUID
		err := tx.QueryRow(ctx,
			`SELECT id FROM training_sessions WHERE user_id = $1 AND content_hash = $2`,
			rec.Session.UserID, rec.Session.ContentHash,
		).Scan(&existing)
		if err != nil {
			return nil, fmt.Errorf("looking up duplicate session: %w", err)
		}
		return &StoreResult{SessionID: existing}, nil
	}

	res := &StoreResult{Inserted: true, SessionID: rec.Session.ID}
	if res.BlocksInserted, err = insertBlocks(ctx, tx, rec.Blocks); err != nil {
		return nil, err
	}
	if res.ExercisesInserted, err = insertExercises(ctx, tx, rec.Exercises); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing session: %w", err)
	}
	return res, nil
}

func insertSession(ctx context.Context, q execer, row models.TrainingSessionRow) (bool, error) {
	tag, err := q.Exec(ctx,
		`INSERT INTO training_sessions (id, user_id, name, category, level, description, source_file,
		 total_duration_min, avg_intensity_pct, estimated_tss, intensity_range, content_hash)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		 ON CONFLICT (user_id, content_hash) DO NOTHING`,
		row.ID, row.UserID, row.Name, row.Category, row.Level, row.Description, row.SourceFile,
		row.TotalDurationMin, row.AvgIntensityPct, row.EstimatedTSS, row.IntensityRange, row.ContentHash)
	if err != nil {
		return false, fmt.Errorf("inserting session: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func insertBlocks(ctx context.Context, q execer, rows []models.SessionBlockRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	args := make([]any, 0, len(rows)*7)
	for _, r := range rows {
		args = append(args, r.SessionID, r.Position, r.Role, r.DurationSec, r.PctFTP, r.RepeatCount, r.Note)
	}
	query := `INSERT INTO session_blocks (session_id, position, role, duration_sec, pct_ftp, repeat_count, note) VALUES ` +
		placeholders(len(rows), 7) + " ON CONFLICT DO NOTHING"

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting session blocks: %w", err)
	}
	return tag.RowsAffected(), nil
}

func insertExercises(ctx context.Context, q execer, rows []models.SessionExerciseRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	args := make([]any, 0, len(rows)*8)
	for _, r := range rows {
		args = append(args, r.SessionID, r.Position, r.Name, r.PerSetDuration, r.RepCount, r.SetCount, r.RestDuration, r.Note)
	}
	query := `INSERT INTO session_exercises (session_id, position, name, per_set_duration, rep_count, set_count, rest_duration, note) VALUES ` +
		placeholders(len(rows), 8) + " ON CONFLICT DO NOTHING"

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting session exercises: %w", err)
	}
	return tag.RowsAffected(), nil
}

// placeholders renders n value tuples of width cols: ($1,$2),($3,$4).
func placeholders(n, cols int) string {
	var b strings.Builder
	for i := range n {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('(')
		for c := range cols {
			if c > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(&b, "$%d", i*cols+c+1)
		}
		b.WriteByte(')')
	}
	return b.String()
}

// sessionQuery builds the list query; an empty category matches all.
func sessionQuery(start, end time.Time, userID int, category string) (string, []any) {
	query := `SELECT ` + sessionColumns + `
		 FROM training_sessions
		 WHERE created_at >= $1 AND created_at < $2 AND user_id = $3`
	args := []any{start, end, userID}
	if category != "" {
		query += " AND category = $4"
		args = append(args, category)
	}
	query += " ORDER BY created_at DESC"
	return query, args
}

// QuerySessions retrieves sessions created in a time range, optionally
// filtered by category.
func (db *DB) QuerySessions(ctx context.Context, start, end time.Time, userID int, category string) ([]models.TrainingSessionRow, error) {
	query, args := sessionQuery(start, end, userID, category)
	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var result []models.TrainingSessionRow
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// SessionDetail is a session with its blocks or exercises.
type SessionDetail struct {
	models.TrainingSessionRow
	Blocks    []models.SessionBlockRow    `json:"blocks,omitempty"`
	Exercises []models.SessionExerciseRow `json:"exercises,omitempty"`
}

// GetSession retrieves a single session with its children.
func (db *DB) GetSession(ctx context.Context, sessionID uuid.UUID, userID int) (*SessionDetail, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM training_sessions
		 WHERE id = $1 AND user_id = $2`,
		sessionID, userID)
	s, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	detail := &SessionDetail{TrainingSessionRow: s}

	blockRows, err := db.Pool.Query(ctx,
		`SELECT session_id, position, role, duration_sec, pct_ftp, repeat_count, note
		 FROM session_blocks
		 WHERE session_id = $1
		 ORDER BY position ASC`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying session blocks: %w", err)
	}
	defer blockRows.Close()
	for blockRows.Next() {
		var b models.SessionBlockRow
		if err := blockRows.Scan(&b.SessionID, &b.Position, &b.Role, &b.DurationSec, &b.PctFTP, &b.RepeatCount, &b.Note); err != nil {
			return nil, fmt.Errorf("scanning session block: %w", err)
		}
		detail.Blocks = append(detail.Blocks, b)
	}
	if err := blockRows.Err(); err != nil {
		return nil, err
	}

	exRows, err := db.Pool.Query(ctx,
		`SELECT session_id, position, name, per_set_duration, rep_count, set_count, rest_duration, note
		 FROM session_exercises
		 WHERE session_id = $1
		 ORDER BY position ASC`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying session exercises: %w", err)
	}
	defer exRows.Close()
	for exRows.Next() {
		var e models.SessionExerciseRow
		if err := exRows.Scan(&e.SessionID, &e.Position, &e.Name, &e.PerSetDuration, &e.RepCount, &e.SetCount, &e.RestDuration, &e.Note); err != nil {
			return nil, fmt.Errorf("scanning session exercise: %w", err)
		}
		detail.Exercises = append(detail.Exercises, e)
	}
	return detail, exRows.Err()
}

// DeleteSession removes a session; blocks and exercises cascade.
// Returns false if nothing matched.
func (db *DB) DeleteSession(ctx context.Context, sessionID uuid.UUID, userID int) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM training_sessions WHERE id = $1 AND user_id = $2`,
		sessionID, userID)
	if err != nil {
		return false, fmt.Errorf("deleting session %s: %w", sessionID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanSession(row pgx.Row) (models.TrainingSessionRow, error) {
	var s models.TrainingSessionRow
	err := row.Scan(&s.ID, &s.UserID, &s.Name, &s.Category, &s.Level, &s.Description, &s.SourceFile,
		&s.TotalDurationMin, &s.AvgIntensityPct, &s.EstimatedTSS, &s.IntensityRange, &s.ContentHash, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return s, err
	}
	if err != nil {
		return s, fmt.Errorf("scanning session: %w", err)
	}
	return s, nil
}
