package server

import (
	"context"
	"time"

	"github.com/claude/trainerlab/internal/ingest"
	"github.com/claude/trainerlab/internal/storage"
)

// logImport records an upload's outcome to the import_logs table.
// Logging failures are reported but never fail the request.
func (s *Server) logImport(uid int, fileName string, result *ingest.Result, importErr error, elapsed time.Duration) {
	status := "success"
	var errMsg *string
	if importErr != nil {
		status = "error"
		msg := importErr.Error()
		errMsg = &msg
	} else if result != nil && result.Duplicate {
		status = "duplicate"
	}

	durationMs := int(elapsed.Milliseconds())
	entry := storage.ImportLog{
		UserID:       uid,
		Source:       "mrc",
		FileName:     fileName,
		Status:       status,
		DurationMs:   &durationMs,
		ErrorMessage: errMsg,
	}
	if result != nil {
		entry.SessionsReceived = result.SessionsReceived
		entry.SessionsInserted = result.SessionsInserted
		entry.BlocksInserted = result.BlocksInserted
		entry.ExercisesInserted = result.ExercisesInserted
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := s.db.InsertImportLog(ctx, entry); err != nil {
		s.log.Error("failed to log import", "file", fileName, "error", err)
	}
}
