package upload

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/claude/trainerlab/internal/ingest"
	"github.com/claude/trainerlab/internal/mrc"
)

// Stats tracks upload progress.
type Stats struct {
	FilesTotal     int
	FilesUploaded  int
	FilesDuplicate int
	FilesSkipped   int
	FilesRejected  int
	FilesErrored   int
}

// Sender delivers one file to the server. *Client satisfies it.
type Sender interface {
	UploadFile(ctx context.Context, name string, content []byte) (*ingest.Result, error)
}

// Uploader walks a directory of .mrc files and POSTs the ones the state
// database has not seen to the trainerlab server.
type Uploader struct {
	client Sender
	state  *StateDB
	dir    string
	dryRun bool
	log    *slog.Logger
	stats  Stats
}

// New creates a new Uploader. client may be nil in dry-run mode.
func New(client Sender, state *StateDB, dir string, dryRun bool, log *slog.Logger) *Uploader {
	return &Uploader{
		client: client,
		state:  state,
		dir:    dir,
		dryRun: dryRun,
		log:    log,
	}
}

// Run uploads every new or changed file. Files the server rejects are counted
// and skipped; a file that cannot be delivered after retries stops the run.
func (u *Uploader) Run(ctx context.Context) (*Stats, error) {
	files, err := findFiles(u.dir)
	if err != nil {
		return &u.stats, err
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &u.stats, err
		}
		u.stats.FilesTotal++
		if err := u.processFile(ctx, f); err != nil {
			return &u.stats, err
		}
	}
	return &u.stats, nil
}

func (u *Uploader) processFile(ctx context.Context, path string) error {
	relPath, _ := filepath.Rel(u.dir, path)

	content, hash, err := HashFile(path)
	if err != nil {
		u.log.Warn("read failed", "file", path, "error", err)
		u.stats.FilesErrored++
		return nil
	}
	size := int64(len(content))

	uploaded, err := u.state.IsUploaded(relPath, size, hash)
	if err != nil {
		u.log.Warn("state check failed", "file", path, "error", err)
		u.stats.FilesErrored++
		return nil
	}
	if uploaded || size == 0 {
		u.stats.FilesSkipped++
		return nil
	}

	name := filepath.Base(path)
	if u.dryRun {
		if _, err := mrc.Parse(string(content), name); err != nil {
			u.log.Warn("dry-run: would be rejected", "file", relPath, "error", err)
			u.stats.FilesRejected++
			return nil
		}
		u.log.Info("dry-run: would send", "file", relPath, "bytes", size)
		u.stats.FilesUploaded++
		return nil
	}

	result, err := u.client.UploadFile(ctx, name, content)
	if errors.Is(err, ErrRejected) {
		u.log.Warn("server rejected file", "file", relPath, "error", err)
		u.stats.FilesRejected++
		return nil
	}
	if err != nil {
		return fmt.Errorf("uploading %s: %w", relPath, err)
	}

	if err := u.state.MarkUploaded(relPath, size, hash, result.SessionID); err != nil {
		u.log.Warn("failed to mark uploaded", "file", relPath, "error", err)
	}
	if result.Duplicate {
		u.stats.FilesDuplicate++
	} else {
		u.stats.FilesUploaded++
	}
	u.log.Info("uploaded", "file", relPath, "session_id", result.SessionID, "duplicate", result.Duplicate)
	return nil
}

// findFiles returns every .mrc file under dir, matched case-insensitively,
// in lexical order.
func findFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".mrc") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}
