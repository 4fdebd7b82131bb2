package importer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/claude/trainerlab/internal/models"
	"github.com/claude/trainerlab/internal/mrc"
	"github.com/claude/trainerlab/internal/storage"
	"golang.org/x/sync/errgroup"
)

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int

	SessionsInserted   int
	SessionsDuplicated int
	BlocksInserted     int64
	ExercisesInserted  int64
}

// Store persists one parsed session. *storage.DB satisfies it.
type Store interface {
	StoreSession(ctx context.Context, rec models.SessionRecord) (*storage.StoreResult, error)
}

// RunLogger records a batch run in import_logs. Stores that also implement
// it get a "running" entry at start that is updated when the run ends.
type RunLogger interface {
	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
	UpdateImportLog(ctx context.Context, id int64, log storage.ImportLog) error
}

var _ RunLogger = (*storage.DB)(nil)

// Options configures an Importer.
type Options struct {
	DryRun  bool
	Workers int
	UserID  int
}

// Importer reads .mrc files from a directory tree and stores them as sessions.
type Importer struct {
	db    Store
	log   *slog.Logger
	opts  Options
	stats Stats
}

// New creates a new Importer. db may be nil in dry-run mode.
func New(db Store, log *slog.Logger, opts Options) *Importer {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.UserID <= 0 {
		opts.UserID = storage.LocalUserID
	}
	return &Importer{db: db, log: log, opts: opts}
}

// parsed is the outcome of reading and decoding one file.
type parsed struct {
	path    string
	content []byte
	workout *mrc.Workout
	err     error
}

// Import parses every .mrc file under dir concurrently, then stores the
// sessions one at a time in path order. Malformed files are counted and
// logged; only storage and context errors abort the run.
func (imp *Importer) Import(ctx context.Context, dir string) (*Stats, error) {
	files, err := FindFiles(dir)
	if err != nil {
		return &imp.stats, err
	}
	imp.log.Info("found training files", "dir", dir, "count", len(files))

	start := time.Now()
	logID := imp.startRunLog(ctx, dir)
	err = imp.importFiles(ctx, files)
	imp.finishRunLog(logID, dir, err, time.Since(start))
	return &imp.stats, err
}

func (imp *Importer) importFiles(ctx context.Context, files []string) error {
	results, err := imp.parseAll(ctx, files)
	if err != nil {
		return err
	}
	for _, p := range results {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := imp.store(ctx, p); err != nil {
			return fmt.Errorf("storing %s: %w", p.path, err)
		}
	}
	return nil
}

func (imp *Importer) runLogger() (RunLogger, bool) {
	if imp.opts.DryRun || imp.db == nil {
		return nil, false
	}
	rl, ok := imp.db.(RunLogger)
	return rl, ok
}

// startRunLog returns 0 when no entry could be written.
func (imp *Importer) startRunLog(ctx context.Context, dir string) int64 {
	rl, ok := imp.runLogger()
	if !ok {
		return 0
	}
	id, err := rl.InsertImportLog(ctx, storage.ImportLog{
		UserID:   imp.opts.UserID,
		Source:   "batch",
		FileName: dir,
		Status:   "running",
	})
	if err != nil {
		imp.log.Error("failed to log import run", "dir", dir, "error", err)
		return 0
	}
	return id
}

func (imp *Importer) finishRunLog(id int64, dir string, runErr error, elapsed time.Duration) {
	rl, ok := imp.runLogger()
	if !ok || id == 0 {
		return
	}
	durationMs := int(elapsed.Milliseconds())
	entry := storage.ImportLog{
		Status:            "success",
		SessionsReceived:  imp.stats.FilesProcessed,
		SessionsInserted:  imp.stats.SessionsInserted,
		BlocksInserted:    imp.stats.BlocksInserted,
		ExercisesInserted: imp.stats.ExercisesInserted,
		DurationMs:        &durationMs,
	}
	if runErr != nil {
		entry.Status = "error"
		msg := runErr.Error()
		entry.ErrorMessage = &msg
	}

	// The run context may already be canceled.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rl.UpdateImportLog(ctx, id, entry); err != nil {
		imp.log.Error("failed to update import run log", "dir", dir, "error", err)
	}
}

func (imp *Importer) parseAll(ctx context.Context, files []string) ([]parsed, error) {
	results := make([]parsed, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(imp.opts.Workers)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = parseFile(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func parseFile(path string) parsed {
	p := parsed{path: path}
	p.content, p.err = os.ReadFile(path)
	if p.err != nil || len(p.content) == 0 {
		return p
	}
	p.workout, p.err = mrc.Parse(string(p.content), filepath.Base(path))
	return p
}

func (imp *Importer) store(ctx context.Context, p parsed) error {
	switch {
	case p.err != nil:
		imp.log.Warn("parse failed", "file", p.path, "error", p.err)
		imp.stats.FilesErrored++
		return nil
	case p.workout == nil:
		imp.log.Info("skipping empty file", "file", p.path)
		imp.stats.FilesSkipped++
		return nil
	}

	rec := models.NewSessionRecord(p.workout, imp.opts.UserID, filepath.Base(p.path), p.content)
	imp.stats.FilesProcessed++
	if imp.opts.DryRun {
		imp.stats.SessionsInserted++
		imp.stats.BlocksInserted += int64(len(rec.Blocks))
		imp.stats.ExercisesInserted += int64(len(rec.Exercises))
		return nil
	}

	res, err := imp.db.StoreSession(ctx, rec)
	if err != nil {
		return err
	}
	if !res.Inserted {
		imp.stats.SessionsDuplicated++
		return nil
	}
	imp.stats.SessionsInserted++
	imp.stats.BlocksInserted += res.BlocksInserted
	imp.stats.ExercisesInserted += res.ExercisesInserted
	imp.log.Info("imported session", "file", p.path, "name", rec.Session.Name, "category", rec.Session.Category)
	return nil
}

// FindFiles returns every .mrc file under dir, matched case-insensitively,
// in lexical order.
func FindFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".mrc") {
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
