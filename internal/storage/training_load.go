package storage

import (
	"context"
	"fmt"
	"time"
)

// TrainingLoadPeriod holds aggregated load for one time bucket.
type TrainingLoadPeriod struct {
	Period          string  `json:"period"`
	Sessions        int     `json:"sessions"`
	CyclingSessions int     `json:"cycling_sessions"`
	PPGSessions     int     `json:"ppg_sessions"`
	TotalTSS        int     `json:"total_tss"`
	TotalMinutes    float64 `json:"total_duration_min"`
	AvgIntensityPct float64 `json:"avg_intensity_pct"`
}

// GetTrainingLoad sums estimated TSS and duration per week or month.
func (db *DB) GetTrainingLoad(ctx context.Context, start, end time.Time, bucket string, userID int) ([]TrainingLoadPeriod, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT date_trunc($1, created_at)::date AS period,
		        COUNT(*)::int,
		        COUNT(*) FILTER (WHERE category = 'cycling')::int,
		        COUNT(*) FILTER (WHERE category = 'ppg')::int,
		        COALESCE(SUM(estimated_tss), 0)::int,
		        COALESCE(SUM(total_duration_min), 0),
		        COALESCE(AVG(avg_intensity_pct) FILTER (WHERE category = 'cycling'), 0)
		 FROM training_sessions
		 WHERE created_at >= $2 AND created_at < $3 AND user_id = $4
		 GROUP BY period
		 ORDER BY period DESC`,
		truncInterval(bucket), start, end, userID)
	if err != nil {
		return nil, fmt.Errorf("querying training load: %w", err)
	}
	defer rows.Close()

	var result []TrainingLoadPeriod
	for rows.Next() {
		var periodTime time.Time
		var p TrainingLoadPeriod
		if err := rows.Scan(&periodTime, &p.Sessions, &p.CyclingSessions, &p.PPGSessions,
			&p.TotalTSS, &p.TotalMinutes, &p.AvgIntensityPct); err != nil {
			return nil, fmt.Errorf("scanning training load: %w", err)
		}
		p.Period = periodTime.Format("2006-01-02")
		result = append(result, p)
	}
	return result, rows.Err()
}

func truncInterval(bucket string) string {
	switch bucket {
	case "1 week", "week", "weekly":
		return "week"
	case "1 month", "month", "monthly":
		return "month"
	default:
		return "week"
	}
}
