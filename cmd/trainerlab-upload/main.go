package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/claude/trainerlab/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "trainerlab server URL (e.g. https://trainerlab.tail1234.ts.net)")
	apiKey := flag.String("api-key", os.Getenv("TRAINERLAB_AUTH_API_KEY"), "ingest API key (default $TRAINERLAB_AUTH_API_KEY)")
	dir := flag.String("path", "", "directory containing .mrc files")
	stateDir := flag.String("state-dir", "", "state directory (default ~/.trainerlab-upload)")
	dryRun := flag.Bool("dry-run", false, "validate files locally but don't send to server")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("trainerlab-upload", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *dir == "" {
		fmt.Fprintf(os.Stderr, "Usage: trainerlab-upload -server <URL> -api-key <key> -path <dir> [-dry-run]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if (*serverURL == "" || *apiKey == "") && !*dryRun {
		fmt.Fprintf(os.Stderr, "Error: -server and -api-key are required (or use -dry-run)\n")
		os.Exit(1)
	}

	info, err := os.Stat(*dir)
	if err != nil || !info.IsDir() {
		log.Error("directory not found", "path", *dir)
		os.Exit(1)
	}

	if *stateDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Error("failed to get home directory", "error", err)
			os.Exit(1)
		}
		*stateDir = filepath.Join(homeDir, ".trainerlab-upload")
	}

	lock, err := upload.Lock(*stateDir)
	if errors.Is(err, upload.ErrLocked) {
		log.Error("another trainerlab-upload is running", "state_dir", *stateDir)
		os.Exit(1)
	}
	if err != nil {
		log.Error("failed to lock state dir", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn("failed to release lock", "error", err)
		}
	}()

	state, err := upload.OpenStateDB(*stateDir)
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	var client upload.Sender
	if *dryRun {
		log.Info("DRY RUN mode: files will be validated but not sent")
	} else {
		client = upload.NewClient(*serverURL, *apiKey)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := upload.New(client, state, *dir, *dryRun, log).Run(ctx)
	printStats(stats)
	if err != nil {
		log.Error("upload failed", "error", err)
		os.Exit(1)
	}
	log.Info("upload complete")
}

func printStats(stats *upload.Stats) {
	fmt.Println()
	fmt.Println("=== Upload Summary ===")
	fmt.Printf("  Files total:      %d\n", stats.FilesTotal)
	fmt.Printf("  Files uploaded:   %d\n", stats.FilesUploaded)
	fmt.Printf("  Already stored:   %d\n", stats.FilesDuplicate)
	fmt.Printf("  Files skipped:    %d (already uploaded or empty)\n", stats.FilesSkipped)
	fmt.Printf("  Files rejected:   %d (invalid format)\n", stats.FilesRejected)
	fmt.Printf("  Files errored:    %d\n", stats.FilesErrored)
	fmt.Println()
}
