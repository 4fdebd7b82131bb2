package mrc

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/claude/trainerlab/internal/ingest"
	"github.com/claude/trainerlab/internal/models"
	"github.com/claude/trainerlab/internal/mrc"
	"github.com/claude/trainerlab/internal/storage"
)

// Store persists one parsed session atomically. *storage.DB satisfies it.
type Store interface {
	StoreSession(ctx context.Context, rec models.SessionRecord) (*storage.StoreResult, error)
}

// Provider processes uploaded .mrc trainer files.
type Provider struct {
	db  Store
	log *slog.Logger
}

// NewProvider creates a new MRC ingest provider.
func NewProvider(db Store, log *slog.Logger) *Provider {
	return &Provider{db: db, log: log}
}

// Ingest parses one MRC file and stores the resulting session. Parse failures
// wrap *mrc.FormatError so callers can tell bad input from storage errors.
func (p *Provider) Ingest(ctx context.Context, fileName string, r io.Reader, userID int) (*ingest.Result, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", fileName, err)
	}

	w, err := mrc.Parse(string(content), fileName)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", fileName, err)
	}

	rec := models.NewSessionRecord(w, userID, fileName, content)
	stored, err := p.db.StoreSession(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("storing %s: %w", fileName, err)
	}

	result := &ingest.Result{
		SessionID:         stored.SessionID.String(),
		Name:              rec.Session.Name,
		Category:          rec.Session.Category,
		SessionsReceived:  1,
		Duplicate:         !stored.Inserted,
		BlocksInserted:    stored.BlocksInserted,
		ExercisesInserted: stored.ExercisesInserted,
		EstimatedTSS:      rec.Session.EstimatedTSS,
	}
	if stored.Inserted {
		result.SessionsInserted = 1
	} else {
		result.Message = "file already imported; existing session kept"
	}

	p.log.Info("mrc ingested",
		"file", fileName,
		"user_id", userID,
		"category", rec.Session.Category,
		"blocks", len(rec.Blocks),
		"exercises", len(rec.Exercises),
		"duplicate", result.Duplicate,
	)
	return result, nil
}
