package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/claude/trainerlab/internal/config"
	"github.com/claude/trainerlab/internal/importer"
	"github.com/claude/trainerlab/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dir := flag.String("path", "", "directory containing .mrc files (required)")
	dryRun := flag.Bool("dry-run", false, "parse and report counts without inserting into database")
	workers := flag.Int("workers", 0, "parallel parsers (default: import.workers from config)")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *dir == "" {
		fmt.Fprintf(os.Stderr, "Usage: trainerlab-import -config config.yaml -path /path/to/workouts [-dry-run] [-workers N]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	info, err := os.Stat(*dir)
	if err != nil || !info.IsDir() {
		log.Error("path does not exist or is not a directory", "path", *dir)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := importer.Options{DryRun: *dryRun, Workers: *workers}
	var store importer.Store

	if *dryRun {
		log.Info("DRY RUN mode: no data will be written to the database")
		if opts.Workers <= 0 {
			opts.Workers = 4
		}
	} else {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		if opts.Workers <= 0 {
			opts.Workers = cfg.Import.Workers
		}

		dsn := cfg.Database.DSN()
		if err := storage.RunMigrations(dsn, cfg.Database.Migrations); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied")

		db, err := storage.New(ctx, dsn, cfg.Database.MaxConns)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		log.Info("database connected")
		store = db
	}

	imp := importer.New(store, log, opts)
	stats, err := imp.Import(ctx, *dir)
	if err != nil {
		log.Error("import failed", "error", err)
		printStats(log, stats)
		os.Exit(1)
	}

	printStats(log, stats)
	log.Info("import complete")
}

func printStats(log *slog.Logger, stats *importer.Stats) {
	log.Info("import stats",
		"files_processed", stats.FilesProcessed,
		"files_skipped", stats.FilesSkipped,
		"files_errored", stats.FilesErrored,
		"sessions_inserted", stats.SessionsInserted,
		"sessions_duplicated", stats.SessionsDuplicated,
		"blocks_inserted", stats.BlocksInserted,
		"exercises_inserted", stats.ExercisesInserted,
	)
}
