package mcp

import (
	"context"
	"time"

	"github.com/claude/trainerlab/internal/models"
	"github.com/claude/trainerlab/internal/storage"
	"github.com/google/uuid"
)

// DataSource abstracts the session store for MCP tools. Both *storage.DB
// (in-process) and HTTPClient (remote via the REST API) satisfy it.
type DataSource interface {
	QuerySessions(ctx context.Context, start, end time.Time, userID int, category string) ([]models.TrainingSessionRow, error)
	GetSession(ctx context.Context, sessionID uuid.UUID, userID int) (*storage.SessionDetail, error)
	GetTrainingLoad(ctx context.Context, start, end time.Time, bucket string, userID int) ([]storage.TrainingLoadPeriod, error)
	GetDataStats(ctx context.Context, userID int) (*storage.DataStats, error)
}

var _ DataSource = (*storage.DB)(nil)
