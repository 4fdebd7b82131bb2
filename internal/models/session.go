package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/claude/trainerlab/internal/mrc"
	"github.com/google/uuid"
)

// TrainingSessionRow is a row ready for insertion into the training_sessions table.
type TrainingSessionRow struct {
	ID               uuid.UUID `json:"id"`
	UserID           int       `json:"user_id"`
	Name             string    `json:"name"`
	Category         string    `json:"category"`
	Level            string    `json:"level"`
	Description      string    `json:"description,omitempty"`
	SourceFile       string    `json:"source_file"`
	TotalDurationMin float64   `json:"total_duration_min"`
	AvgIntensityPct  int       `json:"avg_intensity_pct"`
	EstimatedTSS     int       `json:"estimated_tss"`
	IntensityRange   string    `json:"intensity_range"`
	ContentHash      string    `json:"content_hash"`
	CreatedAt        time.Time `json:"created_at"`
}

// SessionBlockRow is a row for the session_blocks table.
type SessionBlockRow struct {
	SessionID   uuid.UUID `json:"session_id"`
	Position    int       `json:"position"`
	Role        string    `json:"role"`
	DurationSec int       `json:"duration_sec"`
	PctFTP      int       `json:"pct_ftp"`
	RepeatCount int       `json:"repeat_count"`
	Note        *string   `json:"note,omitempty"`
}

// SessionExerciseRow is a row for the session_exercises table.
type SessionExerciseRow struct {
	SessionID      uuid.UUID `json:"session_id"`
	Position       int       `json:"position"`
	Name           string    `json:"name"`
	PerSetDuration string    `json:"per_set_duration"`
	RepCount       *int      `json:"rep_count"`
	SetCount       int       `json:"set_count"`
	RestDuration   string    `json:"rest_duration"`
	Note           *string   `json:"note,omitempty"`
}

// SessionRecord groups a session with its children for one atomic write.
type SessionRecord struct {
	Session   TrainingSessionRow
	Blocks    []SessionBlockRow
	Exercises []SessionExerciseRow
}

// ContentHash returns the hex SHA-256 of raw file content. Re-uploading the
// same bytes yields the same hash, which storage uses to skip duplicates.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// NewSessionRecord maps a parsed workout to storage rows under a fresh session ID.
func NewSessionRecord(w *mrc.Workout, userID int, sourceFile string, content []byte) SessionRecord {
	s := w.Summary()
	id := uuid.New()

	rec := SessionRecord{
		Session: TrainingSessionRow{
			ID:               id,
			UserID:           userID,
			Name:             w.Name,
			Category:         string(w.Category),
			Level:            string(w.Level),
			Description:      w.Header.Description,
			SourceFile:       sourceFile,
			TotalDurationMin: w.TotalDurationMinutes,
			AvgIntensityPct:  w.AverageIntensityPercent,
			EstimatedTSS:     s.EstimatedTSS,
			IntensityRange:   s.IntensityRange,
			ContentHash:      ContentHash(content),
		},
	}
	for i, b := range w.Blocks {
		rec.Blocks = append(rec.Blocks, SessionBlockRow{
			SessionID:   id,
			Position:    i + 1,
			Role:        string(b.Role),
			DurationSec: b.DurationSeconds,
			PctFTP:      b.PercentOfReference,
			RepeatCount: b.RepeatCount,
			Note:        b.Note,
		})
	}
	for i, ex := range w.Exercises {
		rec.Exercises = append(rec.Exercises, SessionExerciseRow{
			SessionID:      id,
			Position:       i + 1,
			Name:           ex.Name,
			PerSetDuration: ex.PerSetDuration,
			RepCount:       ex.RepCount,
			SetCount:       ex.SetCount,
			RestDuration:   ex.RestDuration,
			Note:           ex.Note,
		})
	}
	return rec
}
