package storage

import (
	"context"
	"fmt"
	"time"
)

// DataStats holds aggregate statistics about all stored sessions.
type DataStats struct {
	TotalSessions  int64       `json:"total_sessions"`
	TotalBlocks    int64       `json:"total_blocks"`
	TotalExercises int64       `json:"total_exercises"`
	TotalMinutes   float64     `json:"total_duration_min"`
	TotalTSS       int64       `json:"total_tss"`
	EarliestData   *time.Time  `json:"earliest_data"`
	LatestData     *time.Time  `json:"latest_data"`
	ByCategory     []GroupStat `json:"by_category"`
	ByLevel        []GroupStat `json:"by_level"`
}

// GroupStat holds summary stats for one category or level.
type GroupStat struct {
	Name         string  `json:"name"`
	Count        int64   `json:"count"`
	TotalMinutes float64 `json:"total_duration_min"`
	TotalTSS     int64   `json:"total_tss"`
}

// GetDataStats returns aggregate statistics for a user's stored sessions.
func (db *DB) GetDataStats(ctx context.Context, userID int) (*DataStats, error) {
	stats := &DataStats{}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total_duration_min), 0), COALESCE(SUM(estimated_tss), 0),
		        MIN(created_at), MAX(created_at)
		 FROM training_sessions WHERE user_id = $1`, userID,
	).Scan(&stats.TotalSessions, &stats.TotalMinutes, &stats.TotalTSS, &stats.EarliestData, &stats.LatestData)
	if err != nil {
		return nil, fmt.Errorf("counting sessions: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM session_blocks b
		 JOIN training_sessions s ON s.id = b.session_id
		 WHERE s.user_id = $1`, userID,
	).Scan(&stats.TotalBlocks)
	if err != nil {
		return nil, fmt.Errorf("counting blocks: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM session_exercises e
		 JOIN training_sessions s ON s.id = e.session_id
		 WHERE s.user_id = $1`, userID,
	).Scan(&stats.TotalExercises)
	if err != nil {
		return nil, fmt.Errorf("counting exercises: %w", err)
	}

	if stats.ByCategory, err = db.groupStats(ctx, "category", userID); err != nil {
		return nil, err
	}
	if stats.ByLevel, err = db.groupStats(ctx, "level", userID); err != nil {
		return nil, err
	}
	return stats, nil
}

// groupStats aggregates sessions by a fixed column name.
func (db *DB) groupStats(ctx context.Context, column string, userID int) ([]GroupStat, error) {
	switch column {
	case "category", "level":
	default:
		return nil, fmt.Errorf("unsupported group column %q", column)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT `+column+`, COUNT(*), COALESCE(SUM(total_duration_min), 0), COALESCE(SUM(estimated_tss), 0)
		 FROM training_sessions
		 WHERE user_id = $1
		 GROUP BY `+column+`
		 ORDER BY COUNT(*) DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying sessions by %s: %w", column, err)
	}
	defer rows.Close()

	var result []GroupStat
	for rows.Next() {
		var s GroupStat
		if err := rows.Scan(&s.Name, &s.Count, &s.TotalMinutes, &s.TotalTSS); err != nil {
			return nil, fmt.Errorf("scanning %s stat: %w", column, err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
