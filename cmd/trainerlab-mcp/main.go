package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/trainerlab/internal/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// trainerlab-mcp serves the MCP tools over stdio, reading sessions from a
// remote trainerlab server through its REST API.
func main() {
	serverURL := flag.String("server", os.Getenv("TRAINERLAB_URL"), "trainerlab server URL (default $TRAINERLAB_URL)")
	flag.Parse()

	// stdout carries the MCP protocol; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *serverURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: trainerlab-mcp -server <URL>\n")
		os.Exit(1)
	}

	s := mcp.New(mcp.NewHTTPClient(*serverURL), Version, log)
	// The remote server scopes requests by tailnet identity, so no user ID
	// is attached here.
	if err := mcpserver.ServeStdio(s); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
